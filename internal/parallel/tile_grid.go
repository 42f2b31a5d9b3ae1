package parallel

// TileGrid divides a width×height render target into tiles.
//
// Tiles are stored row-major: index = ty*tilesX + tx.
//
// Thread safety: TileGrid is immutable between Resize calls and may be read
// concurrently.
type TileGrid struct {
	tiles          []Tile
	tilesX, tilesY int
	width, height  int
}

// NewTileGrid creates a grid covering a width×height target. A target with
// a non-positive dimension produces an empty grid.
func NewTileGrid(width, height int) *TileGrid {
	g := &TileGrid{}
	g.Resize(width, height)
	return g
}

// Resize rebuilds the grid for new dimensions. It is a no-op when the
// dimensions are unchanged.
func (g *TileGrid) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		*g = TileGrid{}
		return
	}
	if g.width == width && g.height == height {
		return
	}

	g.width, g.height = width, height
	g.tilesX = (width + TileWidth - 1) / TileWidth
	g.tilesY = (height + TileHeight - 1) / TileHeight
	g.tiles = make([]Tile, g.tilesX*g.tilesY)

	for ty := range g.tilesY {
		for tx := range g.tilesX {
			i := ty*g.tilesX + tx
			g.tiles[i] = Tile{
				X:      tx,
				Y:      ty,
				Width:  min(TileWidth, width-tx*TileWidth),
				Height: min(TileHeight, height-ty*TileHeight),
				Index:  i,
			}
		}
	}
}

// TileRange returns the inclusive range of tile coordinates overlapped by
// the half-open pixel rectangle [x0, x1)×[y0, y1). ok is false when the
// rectangle misses the target.
func (g *TileGrid) TileRange(x0, y0, x1, y1 int) (tx0, ty0, tx1, ty1 int, ok bool) {
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, g.width), min(y1, g.height)
	if x0 >= x1 || y0 >= y1 {
		return 0, 0, 0, 0, false
	}
	return x0 / TileWidth, y0 / TileHeight, (x1 - 1) / TileWidth, (y1 - 1) / TileHeight, true
}

// Tile returns the tile with the given row-major index.
func (g *TileGrid) Tile(index int) *Tile {
	return &g.tiles[index]
}

// TileCount returns the number of tiles.
func (g *TileGrid) TileCount() int { return len(g.tiles) }
