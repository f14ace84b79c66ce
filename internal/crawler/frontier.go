package crawler

import (
	"github.com/bits-and-blooms/bloom/v3"

	"clearcrawl/internal/types"
)

const (
	// Bloom filter sized for ~1M URLs at 1% false positive rate.
	bloomFilterSize = 1_000_000
	bloomFilterFP   = 0.01
)

// Frontier is the FIFO work queue driving breadth-first traversal.
// Items are dequeued in the order enqueued, so URLs at depth d are fully
// expanded before any URL at depth d+1 is dequeued.
//
// A bloom filter suppresses redundant enqueues of URLs already pushed once.
// This keeps the queue bounded when the same link is discovered on many
// pages; the crawler's exact visited set still owns the at-most-one-fetch
// guarantee. BFS discovers each URL at its minimal depth first, so
// suppressing later re-pushes never loses a reachable page.
type Frontier struct {
	items []types.FrontierItem
	seen  *bloom.BloomFilter
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		items: make([]types.FrontierItem, 0),
		seen:  bloom.NewWithEstimates(bloomFilterSize, bloomFilterFP),
	}
}

// Push enqueues a URL at the given depth. Returns false if the URL was
// already pushed once before.
func (f *Frontier) Push(url string, depth int) bool {
	if f.seen.TestAndAdd([]byte(url)) {
		return false
	}
	f.items = append(f.items, types.FrontierItem{URL: url, Depth: depth})
	return true
}

// Pop dequeues the oldest item. The second return value is false when the
// frontier is empty, which is the traversal's terminal condition.
func (f *Frontier) Pop() (types.FrontierItem, bool) {
	if len(f.items) == 0 {
		return types.FrontierItem{}, false
	}
	item := f.items[0]
	f.items = f.items[1:]
	return item, true
}

// Len returns the number of pending items.
func (f *Frontier) Len() int {
	return len(f.items)
}
