package parallel

// chunksPerWorker controls how finely For splits an index range. More chunks
// than workers lets stealing even out invocations of unequal cost.
const chunksPerWorker = 4

// For calls fn over [0, n) split into contiguous ranges [lo, hi) that run in
// parallel. Each range spans at least grain indices. fn must only write
// state owned by the indices it is given.
func (p *WorkerPool) For(n, grain int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	grain = max(grain, 1)

	chunks := p.workers * chunksPerWorker
	size := max((n+chunks-1)/chunks, grain)
	if size >= n || p.workers == 1 {
		fn(0, n)
		return
	}

	work := make([]func(), 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		work = append(work, func() { fn(lo, hi) })
	}
	p.ExecuteAll(work)
}

// Dispatch calls fn once for every workgroup of a count[0]×count[1]×count[2]
// grid. Workgroups run in parallel with no ordering between them.
func (p *WorkerPool) Dispatch(count [3]uint32, fn func(group [3]uint32)) {
	nx, ny, nz := int(count[0]), int(count[1]), int(count[2])
	total := nx * ny * nz
	if total == 0 {
		return
	}
	p.For(total, 1, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			x := i % nx
			y := (i / nx) % ny
			z := i / (nx * ny)
			fn([3]uint32{uint32(x), uint32(y), uint32(z)})
		}
	})
}
