// Package atlas packs per-face lightmaps into shared 2D atlases and places
// light grid cells into 3D volumes.
package atlas

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidOptions is returned for non-positive atlas dimensions or
// negative padding.
var ErrInvalidOptions = errors.New("atlas: invalid options")

// AtlasOverflowError reports patches or cells that did not fit.
type AtlasOverflowError struct {
	Unplaced  int
	Total     int
	MaxWidth  int
	MaxHeight int
	MaxDepth  int // volumes only
}

func (e *AtlasOverflowError) Error() string {
	if e.MaxDepth > 0 {
		return fmt.Sprintf("atlas: %d of %d cells outside %dx%dx%d", e.Unplaced, e.Total, e.MaxWidth, e.MaxHeight, e.MaxDepth)
	}
	return fmt.Sprintf("atlas: %d of %d patches do not fit in %dx%d", e.Unplaced, e.Total, e.MaxWidth, e.MaxHeight)
}

// patch is one rectangle to place, padding included.
type patch struct {
	id     int // face index, used as the region key
	index  int // position in the caller's slice, the final tie-break
	width  int
	height int
}

// placement is where a patch ended up.
type placement struct {
	id    int
	atlas int
	x, y  int
}

// node is a guillotine split tree. Leaves are free or filled rectangles.
type node struct {
	x, y          int
	width, height int
	children      []node
	filled        bool
}

// allocate finds room for a width x height rectangle, splitting free leaves
// along the larger leftover dimension.
func (n *node) allocate(width, height int) (x, y int, ok bool) {
	if len(n.children) > 0 {
		if x, y, ok = n.children[0].allocate(width, height); ok {
			return x, y, true
		}
		return n.children[1].allocate(width, height)
	}

	if n.filled || n.width < width || n.height < height {
		return 0, 0, false
	}

	if n.width == width && n.height == height {
		n.filled = true
		return n.x, n.y, true
	}

	if n.width-width > n.height-height {
		n.children = []node{
			{x: n.x, y: n.y, width: width, height: n.height},
			{x: n.x + width, y: n.y, width: n.width - width, height: n.height},
		}
	} else {
		n.children = []node{
			{x: n.x, y: n.y, width: n.width, height: height},
			{x: n.x, y: n.y + height, width: n.width, height: n.height - height},
		}
	}
	return n.children[0].allocate(width, height)
}

// sortPatches orders patches by height, then width, both descending, then
// by input position.
func sortPatches(patches []patch) {
	sort.SliceStable(patches, func(i, j int) bool {
		a, b := patches[i], patches[j]
		if a.height != b.height {
			return a.height > b.height
		}
		if a.width != b.width {
			return a.width > b.width
		}
		return a.index < b.index
	})
}

// pack places patches into at most maxAtlases bins. Every patch is tried
// against every bin, so the returned unplaced list is exact.
func pack(patches []patch, width, height, maxAtlases int) (placed []placement, unplaced []patch, used int) {
	sortPatches(patches)
	remaining := patches

	for bin := 0; bin < maxAtlases && len(remaining) > 0; bin++ {
		root := &node{width: width, height: height}
		var next []patch
		for _, p := range remaining {
			x, y, ok := root.allocate(p.width, p.height)
			if !ok {
				next = append(next, p)
				continue
			}
			placed = append(placed, placement{id: p.id, atlas: bin, x: x, y: y})
		}
		if len(next) == len(remaining) {
			// Nothing fits an empty bin; later bins would be identical.
			break
		}
		used++
		remaining = next
	}
	return placed, remaining, used
}
