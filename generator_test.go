package pgview

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// gate blocks generations of one size in beforePublish until released.
type gate struct {
	size    Size
	reached chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate(size Size) *gate {
	return &gate{size: size, reached: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) hook(s Size) {
	if s != g.size {
		return
	}
	g.once.Do(func() { close(g.reached) })
	<-g.release
}

func publishedSizes(g *Generator) func() []Size {
	var (
		mu    sync.Mutex
		sizes []Size
	)
	g.SetPublishedHandler(func(seq *Sequence) {
		mu.Lock()
		sizes = append(sizes, seq.Size())
		mu.Unlock()
	})
	return func() []Size {
		mu.Lock()
		defer mu.Unlock()
		return append([]Size(nil), sizes...)
	}
}

func TestGenerator_InvalidSize(t *testing.T) {
	g := NewGenerator()
	defer g.Close()

	for _, s := range []Size{{0, 900}, {800, 0}, {-1, 10}, {10, -5}} {
		if _, err := g.RequestSequence(s); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("RequestSequence(%v) err = %v, want ErrInvalidSize", s, err)
		}
	}
	if st := g.State(); st != StateUninitialized {
		t.Errorf("state = %v, want uninitialized", st)
	}
}

func TestGenerator_FirstRequest(t *testing.T) {
	size := Size{Width: 800, Height: 900}
	g := NewGenerator()
	defer g.Close()
	gt := newGate(size)
	g.beforePublish = gt.hook
	published := publishedSizes(g)

	if st := g.State(); st != StateUninitialized {
		t.Fatalf("initial state = %v", st)
	}
	m, err := g.RequestSequence(size)
	if err != nil {
		t.Fatalf("RequestSequence: %v", err)
	}
	if m.Status != Regenerating || m.Frame != nil {
		t.Errorf("first request = %+v, want Regenerating", m)
	}

	<-gt.reached
	if st := g.State(); st != StateGenerating {
		t.Errorf("state = %v, want generating", st)
	}
	// A repeated request for the in-flight size does not start another run.
	if m, _ := g.RequestSequence(size); m.Status != Regenerating {
		t.Errorf("repeat request = %v", m.Status)
	}
	close(gt.release)

	waitFor(t, "publish", func() bool { return g.State() == StateComplete })

	seq := g.Sequence()
	if seq.Len() != DefaultFrameCount {
		t.Errorf("frames = %d, want %d", seq.Len(), DefaultFrameCount)
	}
	for i := range seq.Len() {
		if fs := seq.Frame(i).Size(); fs != size {
			t.Fatalf("frame %d size = %v", i, fs)
		}
	}
	if g.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", g.Cursor())
	}
	if got := published(); len(got) != 1 || got[0] != size {
		t.Errorf("published = %v", got)
	}

	m, err = g.RequestSequence(size)
	if err != nil || m.Status != AlreadyCurrent {
		t.Fatalf("second request = %+v, %v", m, err)
	}
	if m.Frame != seq.Frame(0) || m.Index != 0 || m.Count != DefaultFrameCount {
		t.Errorf("match = %+v", m)
	}
}

func TestGenerator_LatestRequestWins(t *testing.T) {
	a := Size{Width: 800, Height: 900}
	b := Size{Width: 640, Height: 480}

	g := NewGenerator()
	defer g.Close()
	gt := newGate(a)
	g.beforePublish = gt.hook
	published := publishedSizes(g)

	if _, err := g.RequestSequence(a); err != nil {
		t.Fatal(err)
	}
	<-gt.reached // a is fully built and waiting to publish

	m, err := g.RequestSequence(b)
	if err != nil || m.Status != Regenerating {
		t.Fatalf("request b = %+v, %v", m, err)
	}
	waitFor(t, "b published", func() bool { return g.State() == StateComplete })

	close(gt.release)
	g.wg.Wait()

	if got := g.Sequence().Size(); got != b {
		t.Errorf("published size = %v, want %v", got, b)
	}
	if got := published(); len(got) != 1 || got[0] != b {
		t.Errorf("published = %v, want only %v", got, b)
	}
	if st := g.State(); st != StateComplete {
		t.Errorf("state = %v", st)
	}
}

func TestGenerator_SupersedeWhileFilling(t *testing.T) {
	g := NewGenerator(WithFrameCount(3))
	defer g.Close()
	published := publishedSizes(g)

	// Back-to-back requests; the earlier ones are cancelled between rows.
	sizes := []Size{{1200, 1200}, {1000, 700}, {300, 200}}
	for _, s := range sizes {
		if _, err := g.RequestSequence(s); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, "publish", func() bool { return g.State() == StateComplete })
	g.wg.Wait()

	if got := published(); len(got) != 1 || got[0] != sizes[2] {
		t.Errorf("published = %v, want only %v", got, sizes[2])
	}
}

func TestGenerator_CloseCancels(t *testing.T) {
	size := Size{Width: 64, Height: 32}
	g := NewGenerator()
	gt := newGate(size)
	g.beforePublish = gt.hook
	published := publishedSizes(g)

	if _, err := g.RequestSequence(size); err != nil {
		t.Fatal(err)
	}
	<-gt.reached

	done := make(chan struct{})
	go func() {
		g.Close()
		close(done)
	}()
	waitFor(t, "close", func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.closed
	})
	close(gt.release)
	<-done

	if g.Sequence() != nil {
		t.Error("sequence published after Close")
	}
	if got := published(); len(got) != 0 {
		t.Errorf("published = %v", got)
	}
	if _, err := g.RequestSequence(size); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	g.Close()
}

func TestGenerator_CancelKeepsPublished(t *testing.T) {
	small := Size{Width: 16, Height: 8}
	big := Size{Width: 96, Height: 64}

	g := NewGenerator(WithFrameCount(4))
	if _, err := g.RequestSequence(small); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "publish", func() bool { return g.State() == StateComplete })
	old := g.Sequence()
	var before [][]uint8
	for i := range old.Len() {
		before = append(before, bytes.Clone(old.Frame(i).Data()))
	}

	gt := newGate(big)
	g.beforePublish = gt.hook
	if _, err := g.RequestSequence(big); err != nil {
		t.Fatal(err)
	}
	<-gt.reached
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(gt.release)
	}()
	g.Close()

	if g.Sequence() != old {
		t.Fatal("published sequence replaced")
	}
	for i := range old.Len() {
		if !bytes.Equal(old.Frame(i).Data(), before[i]) {
			t.Errorf("frame %d modified", i)
		}
	}
}

func TestGenerator_Advance(t *testing.T) {
	size := Size{Width: 8, Height: 4}
	g := NewGenerator(WithFrameCount(5))
	defer g.Close()

	g.Advance()
	if g.Cursor() != 0 {
		t.Errorf("cursor moved without a sequence: %d", g.Cursor())
	}
	if g.Current() != nil {
		t.Error("Current without a sequence")
	}

	_, _ = g.RequestSequence(size)
	waitFor(t, "publish", func() bool { return g.State() == StateComplete })

	for range 7 {
		g.Advance()
	}
	if g.Cursor() != 2 {
		t.Errorf("cursor = %d, want 7 mod 5 = 2", g.Cursor())
	}
	m, _ := g.RequestSequence(size)
	if m.Index != 2 || m.Frame != g.Sequence().Frame(2) || g.Current() != m.Frame {
		t.Errorf("match = %+v", m)
	}
}

func TestGenerator_RGB24(t *testing.T) {
	g := NewGenerator(WithPixelFormat(FormatRGB24), WithFrameCount(2))
	defer g.Close()
	_, _ = g.RequestSequence(Size{Width: 10, Height: 3})
	waitFor(t, "publish", func() bool { return g.State() == StateComplete })

	f := g.Sequence().Frame(1)
	if f.Format() != FormatRGB24 || len(f.Data()) != 10*3*3 {
		t.Errorf("frame %v with %d bytes", f.Format(), len(f.Data()))
	}
	// Frame 1 starts on master row 1.
	if f.Data()[0] != 10 {
		t.Errorf("first byte = %d, want 10", f.Data()[0])
	}
}

func TestGenerator_PanicResets(t *testing.T) {
	size := Size{Width: 8, Height: 8}
	g := NewGenerator(WithFrameCount(2))
	defer g.Close()

	var panics atomic.Int32
	g.beforePublish = func(Size) {
		if panics.Add(1) == 1 {
			panic("boom")
		}
	}

	_, _ = g.RequestSequence(size)
	waitFor(t, "failure", func() bool { return panics.Load() == 1 && g.State() == StateUninitialized })
	if g.Sequence() != nil {
		t.Fatal("failed generation published")
	}

	// The next request retries.
	m, err := g.RequestSequence(size)
	if err != nil || m.Status != Regenerating {
		t.Fatalf("retry = %+v, %v", m, err)
	}
	waitFor(t, "publish", func() bool { return g.State() == StateComplete })
}

func TestGenerator_BandPanicKeepsPublished(t *testing.T) {
	small := Size{Width: 8, Height: 4}
	big := Size{Width: 16, Height: 80}
	g := NewGenerator(WithFrameCount(3), WithWorkers(2))
	defer g.Close()

	_, _ = g.RequestSequence(small)
	waitFor(t, "publish", func() bool { return g.State() == StateComplete })
	old := g.Sequence()
	before := make([][]byte, old.Len())
	for i := range old.Len() {
		before[i] = bytes.Clone(old.Frame(i).Data())
	}

	var panics atomic.Int32
	g.beforeBand = func(s Size, y0 int) {
		if s == big && y0 == bandRows && panics.Add(1) == 1 {
			panic("band fill failed")
		}
	}

	if m, _ := g.RequestSequence(big); m.Status != Regenerating {
		t.Fatalf("status = %v, want regenerating", m.Status)
	}
	waitFor(t, "failure", func() bool { return panics.Load() == 1 && g.State() == StateComplete })

	if g.Sequence() != old {
		t.Fatal("published sequence replaced")
	}
	for i := range old.Len() {
		if !bytes.Equal(old.Frame(i).Data(), before[i]) {
			t.Errorf("frame %d modified", i)
		}
	}

	// The pool survived and the next request retries.
	if m, _ := g.RequestSequence(big); m.Status != Regenerating {
		t.Fatalf("retry status = %v, want regenerating", m.Status)
	}
	waitFor(t, "publish", func() bool { return g.State() == StateComplete && g.Sequence().Size() == big })
}

func TestGenerationState_String(t *testing.T) {
	tests := []struct {
		s    GenerationState
		want string
	}{
		{StateUninitialized, "uninitialized"},
		{StateGenerating, "generating"},
		{StateComplete, "complete"},
		{GenerationState(9), "GenerationState(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
