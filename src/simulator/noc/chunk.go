// Package noc implements the event-driven NoC execution engine: the tile and
// communication state machines, the wire network with its routing
// disciplines, the scheduler, the LP flow planner, and the event clock that
// drives them to a fixed point.
package noc

import "fmt"

// Chunk is the ten-tuple data unit moved between tiles (§3). Chunks are value
// objects: two chunks with the same fields are the same chunk for every
// buffer/wait-set membership test in this package.
type Chunk struct {
	X         int
	Y         int
	Start     int
	End       int
	BitWidth  int
	Total     int
	ImageID   int
	LayerID   int
	InID      int
	TileID    int
}

// Bits returns the chunk's size in bits: (End-Start) * BitWidth.
func (c Chunk) Bits() int64 {
	return int64(c.End-c.Start) * int64(c.BitWidth)
}

// WithImage returns a copy of c with ImageID rewritten, used when a
// dependency trace is replicated across a batch of images (§4.1).
func (c Chunk) WithImage(imageID int) Chunk {
	c.ImageID = imageID
	return c
}

func (c Chunk) String() string {
	return fmt.Sprintf(
		"(x=%d,y=%d,start=%d,end=%d,bw=%d,total=%d,img=%d,layer=%d,in=%d,tile=%d)",
		c.X, c.Y, c.Start, c.End, c.BitWidth, c.Total, c.ImageID, c.LayerID, c.InID, c.TileID,
	)
}

// chunkSet is an order-insensitive membership structure keyed by structural
// chunk identity, backing the "is this whole set present" queries buffers
// must answer.
type chunkSet map[Chunk]struct{}

func newChunkSet(chunks []Chunk) chunkSet {
	set := make(chunkSet, len(chunks))
	for _, c := range chunks {
		set[c] = struct{}{}
	}
	return set
}

// isSubsetOf reports whether every chunk in sub appears in super, used to
// check the trace invariant drop ⊆ wait (§3).
func isSubsetOf(sub, super []Chunk) bool {
	superSet := newChunkSet(super)
	for _, c := range sub {
		if _, ok := superSet[c]; !ok {
			return false
		}
	}
	return true
}
