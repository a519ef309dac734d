package worldstore

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"

	rendezvous "github.com/dgryski/go-rendezvous"
)

// GeneratorPool runs chunk generation (spec.md §5: "pure-functional
// over seed and coords") on a fixed worker pool, rendezvous-hashing
// each (dim,cx,cz) key to a worker so repeated requests for the same
// column land on the same goroutine and its generator-local caches
// stay warm — the chunk-generation analogue of MUD-Engine's consistent
// hashing over its worker set.
type GeneratorPool struct {
	gen     Generator
	workers []chan genJob
	ring    *rendezvous.Rendezvous
	wg      sync.WaitGroup
}

type genJob struct {
	dim, cx, cz int32
	seed        int64
	reply       chan *ChunkColumn
}

// NewGeneratorPool starts n worker goroutines, each draining its own
// bounded job channel, and returns a pool ready to accept Submit calls.
// Results are delivered on the returned channel and must be installed
// on the tick thread by the caller (spec.md §5).
func NewGeneratorPool(gen Generator, n int) *GeneratorPool {
	if n < 1 {
		n = 1
	}
	names := make([]string, n)
	for i := range names {
		names[i] = strconv.Itoa(i)
	}

	p := &GeneratorPool{
		gen:     gen,
		workers: make([]chan genJob, n),
		ring:    rendezvous.New(names, hashWorkerKey),
	}
	for i := range p.workers {
		ch := make(chan genJob, 64)
		p.workers[i] = ch
		p.wg.Add(1)
		go p.runWorker(ch)
	}
	return p
}

func hashWorkerKey(s string, seed uint64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	_, _ = fmt.Fprintf(h, "%d", seed)
	return h.Sum64()
}

func (p *GeneratorPool) runWorker(jobs chan genJob) {
	defer p.wg.Done()
	for job := range jobs {
		col := p.gen.Generate(job.dim, job.cx, job.cz, job.seed)
		job.reply <- col
	}
}

// Submit enqueues a generation job for (dim,cx,cz) and returns a
// channel that receives exactly one result. The worker is chosen by
// rendezvous-hashing the column key.
func (p *GeneratorPool) Submit(ctx context.Context, dim, cx, cz int32, seed int64) <-chan *ChunkColumn {
	reply := make(chan *ChunkColumn, 1)
	key := fmt.Sprintf("%d:%d:%d", dim, cx, cz)
	idx := p.ring.Lookup(key)
	workerIdx := 0
	if n, err := strconv.Atoi(idx); err == nil {
		workerIdx = n
	}

	job := genJob{dim: dim, cx: cx, cz: cz, seed: seed, reply: reply}
	select {
	case p.workers[workerIdx] <- job:
	case <-ctx.Done():
		close(reply)
	}
	return reply
}

// Close stops accepting new work and waits for in-flight jobs to
// finish.
func (p *GeneratorPool) Close() {
	for _, ch := range p.workers {
		close(ch)
	}
	p.wg.Wait()
}

// FlatGenerator is a minimal stand-in world generator (spec.md §1 treats
// world generation algorithms as external/out of scope); it produces a
// deterministic flat world so the core is runnable without a real
// terrain generator wired in.
type FlatGenerator struct {
	SurfaceState string
}

// Generate builds a flat column: bedrock at the bottom, dirt/stone
// filler, a surface layer, air above.
func (g FlatGenerator) Generate(dimension, cx, cz int32, _ int64) *ChunkColumn {
	col := NewChunkColumn(ChunkKey{Dimension: dimension, CX: cx, CZ: cz})
	surface := g.SurfaceState
	if surface == "" {
		surface = "minecraft:grass_block"
	}
	surfaceID := HashBlockState(surface)
	stoneID := HashBlockState("minecraft:stone")

	for x := 0; x < SubChunkSize; x++ {
		for z := 0; z < SubChunkSize; z++ {
			col.SetBlock(x, worldBottomY, z, BedrockRuntimeID)
			for y := worldBottomY + 1; y < worldBottomY+4; y++ {
				col.SetBlock(x, y, z, stoneID)
			}
			col.SetBlock(x, worldBottomY+4, z, surfaceID)
		}
	}
	col.ClearDirty()
	return col
}
