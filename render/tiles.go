package render

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Cancellation flag shared with the interactive loop. Checked between tiles
// and photon batches only, never inside traversal.
type CancelFlag struct {
	flag uint32
}

func (c *CancelFlag) Cancel() {
	atomic.StoreUint32(&c.flag, 1)
}

func (c *CancelFlag) Reset() {
	atomic.StoreUint32(&c.flag, 0)
}

func (c *CancelFlag) Cancelled() bool {
	return c != nil && atomic.LoadUint32(&c.flag) != 0
}

// Cover the image with fixed-size tiles, left-to-right and top-to-bottom,
// and hand each tile to exactly one worker. Workers never share tiles;
// within a tile pixels are processed in raster order by the callback.
func processTiles(width, height int, cancel *CancelFlag, fn func(xmin, ymin, xmax, ymax int)) {
	cols := (width + TileWidth - 1) / TileWidth
	rows := (height + TileHeight - 1) / TileHeight
	parallelRange(cols*rows, cancel, func(pos int) {
		xmin := (pos % cols) * TileWidth
		ymin := (pos / cols) * TileHeight
		xmax := xmin + TileWidth
		ymax := ymin + TileHeight
		if xmax > width {
			xmax = width
		}
		if ymax > height {
			ymax = height
		}
		fn(xmin, ymin, xmax, ymax)
	})
}

// Run fn over [0, n) on a pool of workers, stopping early between items
// when the cancel flag is raised.
func parallelRange(n int, cancel *CancelFlag, fn func(i int)) {
	numWorkers := runtime.NumCPU()
	if numWorkers > n {
		numWorkers = n
	}
	if numWorkers < 1 {
		return
	}

	var next int64
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for {
				if cancel.Cancelled() {
					return
				}
				i := int(atomic.AddInt64(&next, 1)) - 1
				if i >= n {
					return
				}
				fn(i)
			}
		}()
	}
	wg.Wait()
}
