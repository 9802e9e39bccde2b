package pgview

import (
	"math"
	"testing"
)

func TestRampRow_StartsAtRowPhase(t *testing.T) {
	tests := []struct {
		y    int
		want uint8
	}{
		{0, 0},
		{1, 10},
		{25, 250},
		{26, 4}, // 260 mod 256
		{51, 254},
		{52, 8},
	}
	row := make([]uint8, 800*4)
	for _, tt := range tests {
		rampRow(row, tt.y, 800, 4, DefaultRowShift)
		if row[0] != tt.want {
			t.Errorf("row %d starts at %d, want %d", tt.y, row[0], tt.want)
		}
	}
}

func TestRampRow_Channels(t *testing.T) {
	for _, bpp := range []int{3, 4} {
		row := make([]uint8, 64*bpp)
		for i := range row {
			row[i] = 0x55
		}
		rampRow(row, 7, 64, bpp, DefaultRowShift)
		for x := range 64 {
			px := row[x*bpp : (x+1)*bpp]
			if px[1] != 0 || px[2] != 0 {
				t.Fatalf("bpp %d: pixel %d = %v, want zero G and B", bpp, x, px)
			}
			if bpp == 4 && px[3] != 0xff {
				t.Fatalf("bpp 4: pixel %d alpha = %d", x, px[3])
			}
		}
	}
}

// The ramp moves 512/width per pixel and bounces at the range ends, so
// neighbouring pixels never differ by more than one step (plus rounding).
func TestRampRow_Continuous(t *testing.T) {
	for _, width := range []int{800, 640, 100, 33} {
		row := make([]uint8, width*4)
		step := rampSpan / float64(width)
		limit := int(math.Ceil(step)) + 1

		for y := range 60 {
			rampRow(row, y, width, 4, DefaultRowShift)
			for x := 1; x < width; x++ {
				d := int(row[x*4]) - int(row[(x-1)*4])
				if d < -limit || d > limit {
					t.Fatalf("width %d row %d: jump of %d at x=%d", width, y, d, x)
				}
			}
		}
	}
}

func TestRampRow_RowShifts(t *testing.T) {
	const width = 800
	step := rampSpan / width
	limit := int(math.Ceil(step)) + 1

	tests := []struct {
		name  string
		shift float64
		y     int
		want  uint8
	}{
		{"zero", 0, 40, 0},
		{"negative", -10, 1, 246},
		{"negative wraps", -10, 30, 212}, // -300 mod 256
		{"fractional", 25.55, 5, 128},
		{"fractional near top", 25.55, 10, 255}, // 255.5 must not wrap to 0
	}
	row := make([]uint8, width*4)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rampRow(row, tt.y, width, 4, tt.shift)
			if row[0] != tt.want {
				t.Errorf("row %d starts at %d, want %d", tt.y, row[0], tt.want)
			}

			lo, hi := row[0], row[0]
			for x := 1; x < width; x++ {
				v := row[x*4]
				lo, hi = min(lo, v), max(hi, v)
				d := int(v) - int(row[(x-1)*4])
				if d < -limit || d > limit {
					t.Fatalf("jump of %d at x=%d", d, x)
				}
			}
			// One row covers a full up-and-down period.
			if lo > 1 || hi != 255 {
				t.Errorf("row spans [%d,%d], want [0..1,255]", lo, hi)
			}
		})
	}
}

func TestRampRow_Bounces(t *testing.T) {
	// Width 512 gives a step of exactly 1. The ramp climbs from 0, holds 255
	// for one extra pixel where it reverses, then descends back to 0.
	row := make([]uint8, 512*4)
	rampRow(row, 0, 512, 4, DefaultRowShift)

	tests := []struct {
		x    int
		want uint8
	}{
		{0, 0}, {100, 100}, {255, 255}, {256, 255}, {257, 254}, {511, 0},
	}
	for _, tt := range tests {
		if got := row[tt.x*4]; got != tt.want {
			t.Errorf("pixel %d = %d, want %d", tt.x, got, tt.want)
		}
	}
}

func TestFillRows_WholeMaster(t *testing.T) {
	// One full master buffer for an 800x900 request.
	const w, rows, bpp = 800, 900 + DefaultFrameCount - 1, 4
	master := make([]uint8, w*rows*bpp)
	ok := fillRows(master, w, bpp, 0, rows, DefaultRowShift, func() bool { return false })
	if !ok {
		t.Fatal("fillRows reported cancellation")
	}
	limit := int(math.Ceil(rampSpan/w)) + 1
	for y := range rows {
		row := master[y*w*bpp : (y+1)*w*bpp]
		want := uint8(math.RoundToEven(math.Mod(float64(y)*DefaultRowShift, 256)))
		if row[0] != want {
			t.Fatalf("row %d starts at %d, want %d", y, row[0], want)
		}
		for x := range w {
			px := row[x*bpp : (x+1)*bpp]
			if px[1] != 0 || px[2] != 0 || px[3] != 0xff {
				t.Fatalf("row %d pixel %d = %v", y, x, px)
			}
			if x == 0 {
				continue
			}
			if d := int(px[0]) - int(row[(x-1)*bpp]); d < -limit || d > limit {
				t.Fatalf("row %d: jump of %d at x=%d", y, d, x)
			}
		}
	}
}

func TestFillRows_StopsWhenStale(t *testing.T) {
	const w, bpp = 16, 4
	master := make([]uint8, w*10*bpp)
	for i := range master {
		master[i] = 0x77
	}

	calls := 0
	ok := fillRows(master, w, bpp, 0, 10, DefaultRowShift, func() bool {
		calls++
		return calls > 3
	})
	if ok {
		t.Fatal("fillRows did not report cancellation")
	}
	if master[2*w*bpp+3] != 0xff {
		t.Error("row 2 not filled")
	}
	if master[3*w*bpp] != 0x77 {
		t.Error("row 3 written after cancellation")
	}
}
