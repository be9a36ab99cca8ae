// Package engine implements the node-graph audio backend consumed by the
// render scheduler: typed processing nodes, automatable params, and a
// deterministic non-real-time compute pass over a fixed-length window.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

const defaultBlockSize = 512

// ErrGraphCycle is returned when the node graph cannot be ordered.
var ErrGraphCycle = errors.New("engine: node graph contains cycle")

// NodeID identifies one node inside a Context.
type NodeID int

// NoNode is the zero value for an absent node reference.
const NoNode NodeID = -1

// Block is one stereo processing window. Nodes transform it in place.
type Block struct {
	L []float64
	R []float64
}

// Frames returns the block length in samples.
func (b *Block) Frames() int {
	return len(b.L)
}

// Node processes one block of audio in place. from is the absolute sample
// offset of the block start within the render window, so source nodes can
// place pre-scheduled events sample-accurately.
type Node interface {
	Process(block *Block, from int)
}

// Context is one non-real-time rendering context: a node graph sized to a
// fixed sample count. A Context belongs to exactly one render pass.
type Context struct {
	sampleRate float64
	frames     int
	blockSize  int

	nodes    []Node
	incoming [][]NodeID
	outgoing [][]NodeID
	output   NodeID

	rendered bool
}

// NewContext creates a rendering context for the given window length.
func NewContext(sampleRate float64, frames int) (*Context, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("engine: sample rate must be > 0: %f", sampleRate)
	}

	if frames <= 0 {
		return nil, fmt.Errorf("engine: frame count must be > 0: %d", frames)
	}

	return &Context{
		sampleRate: sampleRate,
		frames:     frames,
		blockSize:  defaultBlockSize,
		output:     NoNode,
	}, nil
}

// SampleRate returns the context sample rate.
func (c *Context) SampleRate() float64 {
	return c.sampleRate
}

// Frames returns the fixed window length in samples.
func (c *Context) Frames() int {
	return c.frames
}

// AddNode registers a node and returns its ID.
func (c *Context) AddNode(n Node) NodeID {
	c.nodes = append(c.nodes, n)
	c.incoming = append(c.incoming, nil)
	c.outgoing = append(c.outgoing, nil)

	return NodeID(len(c.nodes) - 1)
}

// Connect routes the output of from into the input sum of to. Multiple
// connections into one node are summed.
func (c *Context) Connect(from, to NodeID) error {
	if !c.valid(from) || !c.valid(to) {
		return fmt.Errorf("engine: connect with unknown node: %d -> %d", from, to)
	}

	if from == to {
		return fmt.Errorf("engine: node cannot connect to itself: %d", from)
	}

	c.outgoing[from] = append(c.outgoing[from], to)
	c.incoming[to] = append(c.incoming[to], from)

	return nil
}

// Disconnect removes one from->to connection if present.
func (c *Context) Disconnect(from, to NodeID) {
	if !c.valid(from) || !c.valid(to) {
		return
	}

	c.outgoing[from] = removeID(c.outgoing[from], to)
	c.incoming[to] = removeID(c.incoming[to], from)
}

// SetOutput designates the terminal node whose output becomes the rendered
// buffer.
func (c *Context) SetOutput(id NodeID) error {
	if !c.valid(id) {
		return fmt.Errorf("engine: unknown output node: %d", id)
	}

	c.output = id

	return nil
}

func (c *Context) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(c.nodes)
}

func removeID(ids []NodeID, id NodeID) []NodeID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}

	return ids
}

// RenderNonRealtime runs the compute pass and returns one immutable
// fixed-length buffer. It is atomic from the caller's view: it either
// completes with a full buffer or fails. A context renders at most once.
func (c *Context) RenderNonRealtime() (*Buffer, error) {
	if c.rendered {
		return nil, errors.New("engine: context already rendered")
	}

	if c.output == NoNode {
		return nil, errors.New("engine: no output node designated")
	}

	order, err := c.topoSort()
	if err != nil {
		return nil, err
	}

	c.rendered = true

	out := &Buffer{
		left:       make([]float64, c.frames),
		right:      make([]float64, c.frames),
		sampleRate: c.sampleRate,
	}

	blocks := make([]Block, len(c.nodes))
	for i := range blocks {
		blocks[i] = Block{
			L: make([]float64, c.blockSize),
			R: make([]float64, c.blockSize),
		}
	}

	for from := 0; from < c.frames; from += c.blockSize {
		n := c.blockSize
		if from+n > c.frames {
			n = c.frames - from
		}

		for _, id := range order {
			block := Block{L: blocks[id].L[:n], R: blocks[id].R[:n]}
			zero(block.L)
			zero(block.R)

			for _, parent := range c.incoming[id] {
				vecmath.AddBlockInPlace(block.L, blocks[parent].L[:n])
				vecmath.AddBlockInPlace(block.R, blocks[parent].R[:n])
			}

			c.nodes[id].Process(&block, from)
		}

		copy(out.left[from:from+n], blocks[c.output].L[:n])
		copy(out.right[from:from+n], blocks[c.output].R[:n])
	}

	return out, nil
}

// topoSort orders the graph with Kahn's algorithm, failing on cycles.
func (c *Context) topoSort() ([]NodeID, error) {
	indegree := make([]int, len(c.nodes))
	for id := range c.nodes {
		indegree[id] = len(c.incoming[id])
	}

	queue := make([]NodeID, 0, len(c.nodes))

	for id := range c.nodes {
		if indegree[id] == 0 {
			queue = append(queue, NodeID(id))
		}
	}

	order := make([]NodeID, 0, len(c.nodes))

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, next := range c.outgoing[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(c.nodes) {
		return nil, ErrGraphCycle
	}

	return order, nil
}

func zero(s []float64) {
	for i := range s {
		s[i] = 0
	}
}
