package parallel

// Binner records which primitives overlap which tiles of a grid.
//
// Primitives are added in submission order and every tile keeps that order,
// so running the bins in parallel preserves per-pixel primitive order while
// giving each pixel a single writer.
type Binner struct {
	grid   *TileGrid
	bins   [][]int
	active []int
}

// NewBinner creates an empty binner for grid.
func NewBinner(grid *TileGrid) *Binner {
	return &Binner{
		grid: grid,
		bins: make([][]int, grid.TileCount()),
	}
}

// Reset empties every bin, keeping allocated storage.
func (b *Binner) Reset() {
	for _, i := range b.active {
		b.bins[i] = b.bins[i][:0]
	}
	b.active = b.active[:0]
}

// Add bins primitive prim into every tile overlapped by the half-open
// pixel rectangle [x0, x1)×[y0, y1).
func (b *Binner) Add(prim, x0, y0, x1, y1 int) {
	tx0, ty0, tx1, ty1, ok := b.grid.TileRange(x0, y0, x1, y1)
	if !ok {
		return
	}
	for ty := ty0; ty <= ty1; ty++ {
		for tx := tx0; tx <= tx1; tx++ {
			i := ty*b.grid.tilesX + tx
			if len(b.bins[i]) == 0 {
				b.active = append(b.active, i)
			}
			b.bins[i] = append(b.bins[i], prim)
		}
	}
}

// ActiveTiles returns the number of tiles holding at least one primitive.
func (b *Binner) ActiveTiles() int {
	return len(b.active)
}

// Run calls fn once per non-empty tile on pool. fn receives the tile and its
// primitives in the order they were added.
func (b *Binner) Run(pool *WorkerPool, fn func(t *Tile, prims []int)) {
	if len(b.active) == 0 {
		return
	}
	work := make([]func(), len(b.active))
	for k, i := range b.active {
		tile, prims := b.grid.Tile(i), b.bins[i]
		work[k] = func() { fn(tile, prims) }
	}
	pool.ExecuteAll(work)
}
