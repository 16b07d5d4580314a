package hydro

import (
	"container/heap"
	"context"
	"fmt"
)

// ctxCheckInterval is how many frontier pops happen between context checks.
const ctxCheckInterval = 128

type frontierItem struct {
	idx  int32
	id   int64
	dist float64
}

// frontier orders by distance ascending, vertex id ascending on ties, so the
// expansion order is independent of map iteration.
type frontier []frontierItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].dist != f[j].dist {
		return f[i].dist < f[j].dist
	}
	return f[i].id < f[j].id
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(frontierItem)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

// Downstream runs a single-source shortest-path expansion from the
// flow-source vertex over downhill-traversable edges, bounded by radiusKm.
// It returns the minimum downstream distance per reachable vertex id,
// excluding the source itself. The context is checked periodically so a
// pathologically large radius on a dense network can be cancelled.
func (g *FlowGraph) Downstream(ctx context.Context, sourceID int64, radiusKm float64) (map[int64]float64, error) {
	src, ok := g.byID[sourceID]
	if !ok {
		return nil, fmt.Errorf("flow-source vertex %d not in graph", sourceID)
	}

	dist := make(map[int32]float64)
	dist[src] = 0

	f := &frontier{{idx: src, id: sourceID, dist: 0}}
	heap.Init(f)

	pops := 0
	for f.Len() > 0 {
		pops++
		if pops%ctxCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		item := heap.Pop(f).(frontierItem)
		if item.dist > dist[item.idx] {
			// Stale frontier entry, a shorter path was already settled.
			continue
		}

		for _, ei := range g.incident[item.idx] {
			e := g.edges[ei]
			other := g.byID[e.TargetID]
			if other == item.idx {
				other = g.byID[e.SourceID]
			}
			if other == item.idx {
				continue
			}
			if !g.traversable(item.idx, other) {
				continue
			}

			next := item.dist + e.LengthKm
			if next > radiusKm {
				continue
			}
			if cur, seen := dist[other]; seen && cur <= next {
				continue
			}
			dist[other] = next
			heap.Push(f, frontierItem{idx: other, id: g.vertices[other].ID, dist: next})
		}
	}

	out := make(map[int64]float64, len(dist)-1)
	for idx, d := range dist {
		if idx == src {
			continue
		}
		out[g.vertices[idx].ID] = d
	}
	return out, nil
}
