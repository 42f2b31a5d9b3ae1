// Package parallel schedules software GPU work across goroutines.
//
// It provides three pieces:
//
//   - WorkerPool, a work-stealing pool shared by every stage of a device
//   - For and Dispatch, parallel-for loops over index ranges and
//     compute workgroup grids
//   - TileGrid and Binner, which split a render target into 64x64 tiles so
//     that each pixel has exactly one writer during a draw
//
// Invocations scheduled here must not share mutable state: every work item
// owns the indices, workgroups or tiles it is handed.
package parallel

// Tile size constants.
const (
	// TileWidth is the width of a tile in pixels.
	TileWidth = 64

	// TileHeight is the height of a tile in pixels.
	TileHeight = 64
)

// Tile is a rectangular region of a render target.
//
// Edge tiles are smaller when the target is not a multiple of the tile size.
type Tile struct {
	// X and Y are the tile column and row.
	X, Y int

	// Width and Height are the tile extent in pixels.
	Width, Height int

	// Index is the tile's position in its grid, row-major.
	Index int
}

// Bounds returns the tile's top-left pixel and its extent.
func (t *Tile) Bounds() (x, y, w, h int) {
	return t.X * TileWidth, t.Y * TileHeight, t.Width, t.Height
}
