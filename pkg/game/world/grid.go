package world

import "math"

type cell struct {
	x, y int32
}

// Grid is a uniform spatial hash over object extents. Objects are indexed in
// every cell their bounding box touches.
type Grid struct {
	size    float64
	cells   map[cell]map[Handle]struct{}
	entries map[Handle][]cell
}

func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		size:    cellSize,
		cells:   make(map[cell]map[Handle]struct{}),
		entries: make(map[Handle][]cell),
	}
}

func (g *Grid) span(r Rect) (cell, cell) {
	return cell{
			int32(math.Floor(r.Min.X / g.size)),
			int32(math.Floor(r.Min.Y / g.size)),
		}, cell{
			int32(math.Floor(r.Max.X / g.size)),
			int32(math.Floor(r.Max.Y / g.size)),
		}
}

func (g *Grid) Insert(h Handle, bounds Rect) {
	g.Remove(h)

	lo, hi := g.span(bounds)
	touched := make([]cell, 0, int(hi.x-lo.x+1)*int(hi.y-lo.y+1))
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			c := cell{x, y}
			bucket, ok := g.cells[c]
			if !ok {
				bucket = make(map[Handle]struct{})
				g.cells[c] = bucket
			}
			bucket[h] = struct{}{}
			touched = append(touched, c)
		}
	}
	g.entries[h] = touched
}

func (g *Grid) Remove(h Handle) {
	for _, c := range g.entries[h] {
		bucket := g.cells[c]
		delete(bucket, h)
		if len(bucket) == 0 {
			delete(g.cells, c)
		}
	}
	delete(g.entries, h)
}

// Candidates returns every handle in a cell overlapping the rectangle. The
// result may contain objects outside of it.
func (g *Grid) Candidates(r Rect) map[Handle]struct{} {
	found := make(map[Handle]struct{})
	lo, hi := g.span(r)
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for h := range g.cells[cell{x, y}] {
				found[h] = struct{}{}
			}
		}
	}
	return found
}

func (g *Grid) Len() int {
	return len(g.entries)
}
