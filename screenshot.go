// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// ScreenshotCommand is the UI command name served by the scheduler.
const ScreenshotCommand = "Screenshot"

// ScreenshotContentType is the content type of stored screenshots.
const ScreenshotContentType = "image/jpeg"

// errNoResources is returned when the host has no ResourceStore.
var errNoResources = errors.New("pgview: host has no resource store")

// Screenshot encodes the current frame for the view's actual size as JPEG and
// stores it in the host's resource store, returning the key. If no frame of
// that size is published it starts generation and returns ErrNotReady.
//
// Screenshot must run on the UI context; the command handler takes care of
// that.
func (s *Scheduler) Screenshot() (uuid.UUID, error) {
	if s.host.Resources == nil {
		return uuid.Nil, errNoResources
	}
	m, err := s.gen.RequestSequence(s.ActualSize())
	if err != nil {
		return uuid.Nil, err
	}
	if m.Status != AlreadyCurrent {
		return uuid.Nil, ErrNotReady
	}

	data, err := encodeJPEG(m.Frame, s.opts.screenshotMaxWidth, s.opts.screenshotQuality)
	if err != nil {
		return uuid.Nil, err
	}
	key, err := s.host.Resources.Store(ScreenshotContentType, data)
	if err != nil {
		return uuid.Nil, err
	}
	Logger().Info("screenshot stored", "view", s.name, "key", key, "bytes", len(data))
	return key, nil
}

func (s *Scheduler) handleScreenshot(_ uuid.UUID, _ map[string]string) (map[string]string, error) {
	var (
		key uuid.UUID
		err error
	)
	if !s.loop.Invoke(func() { key, err = s.Screenshot() }) {
		return nil, ErrClosed
	}
	if err != nil {
		return nil, err
	}
	return map[string]string{"ResourceKey": key.String()}, nil
}

// encodeJPEG encodes src, first scaling it down to maxWidth (keeping the
// aspect ratio) when maxWidth is positive and smaller than the source.
func encodeJPEG(src image.Image, maxWidth, quality int) ([]byte, error) {
	b := src.Bounds()
	if maxWidth > 0 && b.Dx() > maxWidth {
		h := max(1, b.Dy()*maxWidth/b.Dx())
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
