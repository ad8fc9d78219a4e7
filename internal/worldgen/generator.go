package worldgen

import (
	"context"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"voxelworld/internal/geom"
	"voxelworld/internal/registry"
	"voxelworld/internal/voxel"
)

// DefaultGenerateThreadCount is the default worker-pool size for chunk
// generation (spec §4.4).
const DefaultGenerateThreadCount = 5

// Generator runs an ordered set of Parts over chunks pulled from a World's
// NeedsGeneration queue. It is composed alongside a *voxel.World by the
// server rather than stored on World itself (see DESIGN.md's Open Question
// note on avoiding a voxel <-> worldgen import cycle).
type Generator struct {
	Random      *WorldRandom
	Registry    *registry.Registry
	Parts       []Part
	ThreadCount int

	logger *log.Logger
}

func NewGenerator(seed uint32, reg *registry.Registry, parts []Part) *Generator {
	sorted := make([]Part, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Precedence() < sorted[j].Precedence() })
	return &Generator{
		Random:      NewWorldRandom(seed),
		Registry:    reg,
		Parts:       sorted,
		ThreadCount: DefaultGenerateThreadCount,
		logger:      log.New(log.Writer(), "worldgen ", log.LstdFlags|log.Lmicroseconds),
	}
}

// DefaultParts returns the built-in pipeline: terrain shape, surface cover,
// then lighting.
func DefaultParts() []Part {
	return []Part{
		&LandPart{BaseHeight: 64, HeightScale: 24},
		&CoverPart{BaseHeight: 64, HeightScale: 24},
		&BasicLightPart{},
	}
}

// GenerateChunk runs every part, in precedence order, against one chunk.
func (g *Generator) GenerateChunk(world *voxel.World, chunk *voxel.Chunk) {
	ctx := &Context{Chunk: chunk, Random: g.Random, Registry: g.Registry, World: world}
	for _, part := range g.Parts {
		part.Generate(ctx)
	}
}

// Run drains world's NeedsGeneration queue with ThreadCount workers until the
// queue is empty or ctx is canceled (each worker returns as soon as it finds
// the queue empty), moving each chunk Ungenerated -> Generating -> Generated. Each
// worker never runs Parts against the chunk already installed in the live
// world: it builds a throwaway world seeded identically (same registry and
// dimension), generates the chunk there, and only then merges the result
// block-by-block into the live chunk (spec §4.4 and §5's "generation itself
// runs on a private throwaway world and therefore does not block the tick" —
// it also means concurrent readers, e.g. another session's BlockIterator.Get
// or the tick loop's entity sync, never observe a chunk mid-generation).
// Any further generation requests the throwaway run discovers (via its own
// NeedsGeneration queue, populated the same way GetOrCreateChunk populates
// the live world's) are merged back into the shared queue once the chunk
// itself has been merged.
func (g *Generator) Run(ctx context.Context, world *voxel.World) error {
	threads := g.ThreadCount
	if threads <= 0 {
		threads = DefaultGenerateThreadCount
	}
	grp, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for i := 0; i < threads; i++ {
		grp.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				pos, ok := g.popNeedsGeneration(world, &mu)
				if !ok {
					return nil
				}
				liveChunk, _ := world.GetOrCreateChunk(pos)
				if !liveChunk.MarkGenerating() {
					continue
				}
				world.Generating.Add(chunkPosOf(pos))

				throwaway := voxel.NewWorld(g.Registry, pos.Dimension, nil)
				throwawayChunk, _ := throwaway.GetOrCreateChunk(pos)
				// GetOrCreateChunk just queued pos itself for generation in
				// the throwaway world; drop that before merging back or every
				// worker would re-queue (and regenerate) the chunk it just
				// finished, forever.
				throwaway.NeedsGeneration.Remove(chunkPosOf(pos))
				g.GenerateChunk(throwaway, throwawayChunk)
				mergeGeneratedChunk(liveChunk, throwawayChunk)

				liveChunk.MarkGenerated()
				world.Generating.Remove(chunkPosOf(pos))
				world.Generated.Add(chunkPosOf(pos))
				world.NeedsGeneration.Merge(throwaway.NeedsGeneration)
			}
		})
	}
	return grp.Wait()
}

// mergeGeneratedChunk copies every block the throwaway run actually produced
// (ForEachBlock only visits Good() cells) into live, one SetLocal call per
// block; any cell the generator left as air in the throwaway chunk is never
// touched, so the live chunk's existing content there is kept exactly as
// spec §4.4 requires.
func mergeGeneratedChunk(live, throwaway *voxel.Chunk) {
	throwaway.ForEachBlock(func(lx, ly, lz int, b voxel.BlockData) bool {
		live.SetLocal(lx, ly, lz, b)
		return true
	})
}

func chunkPosOf(pos voxel.ChunkPosition) geom.PositionI {
	return geom.PositionI{X: pos.X, Z: pos.Z, Dimension: pos.Dimension}
}

// popNeedsGeneration removes and returns one pending chunk position, or
// reports ok=false if the queue is currently empty.
func (g *Generator) popNeedsGeneration(world *voxel.World, mu *sync.Mutex) (voxel.ChunkPosition, bool) {
	mu.Lock()
	defer mu.Unlock()
	items := world.NeedsGeneration.Items()
	if len(items) == 0 {
		return voxel.ChunkPosition{}, false
	}
	p := items[0]
	world.NeedsGeneration.Remove(p)
	return voxel.ChunkPosition{X: p.X, Z: p.Z, Dimension: p.Dimension}, true
}
