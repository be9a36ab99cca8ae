package engine

import (
	"errors"
	"testing"
)

// impulseNode adds a unit impulse at a fixed absolute sample.
type impulseNode struct {
	at int
}

func (n *impulseNode) Process(block *Block, from int) {
	i := n.at - from
	if i >= 0 && i < block.Frames() {
		block.L[i] += 1
		block.R[i] += 1
	}
}

func TestNewContextValidation(t *testing.T) {
	if _, err := NewContext(0, 100); err == nil {
		t.Fatal("expected error for zero sample rate")
	}

	if _, err := NewContext(44100, 0); err == nil {
		t.Fatal("expected error for zero frames")
	}
}

func TestRenderChain(t *testing.T) {
	ctx, err := NewContext(44100, 1000)
	if err != nil {
		t.Fatal(err)
	}

	src := ctx.AddNode(&impulseNode{at: 700})
	gain := ctx.AddNode(NewGainNode(0.5))

	if err := ctx.Connect(src, gain); err != nil {
		t.Fatal(err)
	}

	if err := ctx.SetOutput(gain); err != nil {
		t.Fatal(err)
	}

	buf, err := ctx.RenderNonRealtime()
	if err != nil {
		t.Fatal(err)
	}

	if buf.Frames() != 1000 {
		t.Fatalf("frames: got %d want 1000", buf.Frames())
	}

	if got := buf.Left()[700]; got != 0.5 {
		t.Fatalf("impulse: got %v want 0.5", got)
	}

	if got := buf.Left()[699]; got != 0 {
		t.Fatalf("before impulse: got %v want 0", got)
	}
}

func TestRenderSumsParents(t *testing.T) {
	ctx, err := NewContext(44100, 64)
	if err != nil {
		t.Fatal(err)
	}

	a := ctx.AddNode(&impulseNode{at: 10})
	b := ctx.AddNode(&impulseNode{at: 10})
	sum := ctx.AddNode(NopNode{})

	if err := ctx.Connect(a, sum); err != nil {
		t.Fatal(err)
	}

	if err := ctx.Connect(b, sum); err != nil {
		t.Fatal(err)
	}

	if err := ctx.SetOutput(sum); err != nil {
		t.Fatal(err)
	}

	buf, err := ctx.RenderNonRealtime()
	if err != nil {
		t.Fatal(err)
	}

	if got := buf.Left()[10]; got != 2 {
		t.Fatalf("got %v want 2", got)
	}
}

func TestRenderSpansBlockBoundary(t *testing.T) {
	// An impulse past the first 512-sample block must land exactly.
	ctx, err := NewContext(44100, 2000)
	if err != nil {
		t.Fatal(err)
	}

	src := ctx.AddNode(&impulseNode{at: 1500})

	if err := ctx.SetOutput(src); err != nil {
		t.Fatal(err)
	}

	buf, err := ctx.RenderNonRealtime()
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range buf.Left() {
		want := 0.0
		if i == 1500 {
			want = 1
		}

		if v != want {
			t.Fatalf("sample %d: got %v want %v", i, v, want)
		}
	}
}

func TestRenderCycleFails(t *testing.T) {
	ctx, err := NewContext(44100, 64)
	if err != nil {
		t.Fatal(err)
	}

	a := ctx.AddNode(NopNode{})
	b := ctx.AddNode(NopNode{})

	if err := ctx.Connect(a, b); err != nil {
		t.Fatal(err)
	}

	if err := ctx.Connect(b, a); err != nil {
		t.Fatal(err)
	}

	if err := ctx.SetOutput(a); err != nil {
		t.Fatal(err)
	}

	if _, err := ctx.RenderNonRealtime(); !errors.Is(err, ErrGraphCycle) {
		t.Fatalf("got %v want ErrGraphCycle", err)
	}
}

func TestRenderRequiresOutput(t *testing.T) {
	ctx, err := NewContext(44100, 64)
	if err != nil {
		t.Fatal(err)
	}

	ctx.AddNode(NopNode{})

	if _, err := ctx.RenderNonRealtime(); err == nil {
		t.Fatal("expected error without output node")
	}
}

func TestRenderOnlyOnce(t *testing.T) {
	ctx, err := NewContext(44100, 64)
	if err != nil {
		t.Fatal(err)
	}

	src := ctx.AddNode(NopNode{})

	if err := ctx.SetOutput(src); err != nil {
		t.Fatal(err)
	}

	if _, err := ctx.RenderNonRealtime(); err != nil {
		t.Fatal(err)
	}

	if _, err := ctx.RenderNonRealtime(); err == nil {
		t.Fatal("expected error on second render")
	}
}

func TestConnectValidation(t *testing.T) {
	ctx, err := NewContext(44100, 64)
	if err != nil {
		t.Fatal(err)
	}

	a := ctx.AddNode(NopNode{})

	if err := ctx.Connect(a, a); err == nil {
		t.Fatal("expected self-connect error")
	}

	if err := ctx.Connect(a, NodeID(99)); err == nil {
		t.Fatal("expected unknown node error")
	}
}

func TestBufferSlice(t *testing.T) {
	buf := &Buffer{
		left:       []float64{0, 1, 2, 3},
		right:      []float64{0, 1, 2, 3},
		sampleRate: 100,
	}

	s := buf.Slice(1, 3)
	if s.Frames() != 2 || s.Left()[0] != 1 {
		t.Fatalf("got frames=%d first=%v", s.Frames(), s.Left()[0])
	}

	if got := buf.Slice(3, 1).Frames(); got != 0 {
		t.Fatalf("inverted range: got %d want 0", got)
	}

	if got := buf.Slice(-5, 99).Frames(); got != 4 {
		t.Fatalf("clamped range: got %d want 4", got)
	}
}
