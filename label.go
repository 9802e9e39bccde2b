// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pgview

import (
	"bytes"
	"image"
	"image/color"
	"sync"

	gtdi "github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	gtlanguage "github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/pgview/internal/cache"
)

const (
	labelSize    = 14
	labelPadding = 4
)

var (
	labelText = image.NewUniform(color.White)
	labelBack = image.NewUniform(color.RGBA{A: 0xa0})
)

// frameLabel draws "frame i/n" in the top-left corner of a render target.
// Text is rasterised through an x/image opentype face; its advance is
// measured with HarfBuzz shaping and memoized, since the same few strings
// repeat every loop.
type frameLabel struct {
	face    font.Face
	shape   *gtfont.Font
	shaper  shaping.HarfbuzzShaper
	printer *message.Printer
	widths  *cache.LRU[string, int]
	ascent  int
	height  int
}

func newFrameLabel() (*frameLabel, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    labelSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	gt, err := gtfont.ParseTTF(bytes.NewReader(goregular.TTF))
	if err != nil {
		_ = face.Close()
		return nil, err
	}

	m := face.Metrics()
	return &frameLabel{
		face:    face,
		shape:   gt.Font,
		printer: message.NewPrinter(language.English),
		widths:  cache.New[string, int](2 * DefaultFrameCount),
		ascent:  m.Ascent.Ceil(),
		height:  (m.Ascent + m.Descent).Ceil(),
	}, nil
}

// text formats the label; large counts get digit grouping.
func (l *frameLabel) text(index, count int) string {
	return l.printer.Sprintf("frame %d/%d", index+1, count)
}

// measure returns the shaped advance of s in whole pixels.
func (l *frameLabel) measure(s string) int {
	return l.widths.GetOrCreate(s, func() int {
		runes := []rune(s)
		out := l.shaper.Shape(shaping.Input{
			Text:      runes,
			RunStart:  0,
			RunEnd:    len(runes),
			Direction: gtdi.DirectionLTR,
			Face:      gtfont.NewFace(l.shape),
			Size:      fixed.I(labelSize),
			Script:    gtlanguage.Latin,
			Language:  gtlanguage.NewLanguage("en"),
		})
		var adv fixed.Int26_6
		for _, g := range out.Glyphs {
			adv += g.Advance
		}
		return adv.Ceil()
	})
}

// draw paints the label onto dst. It runs on the UI context only.
func (l *frameLabel) draw(dst *image.RGBA, index, count int) {
	s := l.text(index, count)
	b := dst.Bounds()
	box := image.Rect(0, 0, l.measure(s)+2*labelPadding, l.height+2*labelPadding).
		Add(b.Min).Intersect(b)
	if box.Empty() {
		return
	}
	draw.Draw(dst, box, labelBack, image.Point{}, draw.Over)

	d := font.Drawer{
		Dst:  dst,
		Src:  labelText,
		Face: l.face,
		Dot:  fixed.P(b.Min.X+labelPadding, b.Min.Y+labelPadding+l.ascent),
	}
	d.DrawString(s)
}

func (l *frameLabel) close() {
	_ = l.face.Close()
}

// lazyLabel builds the label on first use. Font parsing errors are reported
// once and leave the label disabled.
type lazyLabel struct {
	once  sync.Once
	label *frameLabel
	err   error
}

func (z *lazyLabel) get() (*frameLabel, error) {
	z.once.Do(func() {
		z.label, z.err = newFrameLabel()
		if z.err != nil {
			Logger().Error("frame label disabled", "err", z.err)
		}
	})
	return z.label, z.err
}
