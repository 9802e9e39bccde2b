// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

// DefaultFrameCount is the number of frames in a sequence.
const DefaultFrameCount = 25

// Sequence is an ordered set of equally sized frames forming one loop of the
// animation. A published Sequence is never modified.
type Sequence struct {
	size   Size
	format PixelFormat
	frames []*Frame
}

// Len returns the number of frames.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.frames)
}

// Size returns the size shared by every frame.
func (s *Sequence) Size() Size {
	return s.size
}

// Format returns the pixel format shared by every frame.
func (s *Sequence) Format() PixelFormat {
	return s.format
}

// Frame returns frame i modulo Len, or nil for an empty sequence.
func (s *Sequence) Frame(i int) *Frame {
	n := s.Len()
	if n == 0 {
		return nil
	}
	i %= n
	if i < 0 {
		i += n
	}
	return s.frames[i]
}

// sliceSequence cuts count frames out of a master buffer that holds
// size.Height+count-1 rows: frame i takes master rows [i, i+size.Height).
// It returns errStale if stale reports true between rows.
func sliceSequence(master []uint8, size Size, format PixelFormat, count int, stale func() bool) (*Sequence, error) {
	stride := size.Width * format.BytesPerPixel()
	seq := &Sequence{
		size:   size,
		format: format,
		frames: make([]*Frame, count),
	}

	for i := range count {
		f := newFrame(size.Width, size.Height, format)
		for y := range size.Height {
			if stale() {
				return nil, errStale
			}
			src := (i + y) * stride
			copy(f.data[y*stride:(y+1)*stride], master[src:src+stride])
		}
		seq.frames[i] = f
	}
	return seq, nil
}
