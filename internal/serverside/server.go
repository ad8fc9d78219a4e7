// Package serverside hosts the authoritative world server (spec §4.6, §5,
// §6): it owns the voxel.World, drives generation and physics, and accepts
// TCP connections that each run as one reader task and one writer task
// under a shared session state, replacing chunk-server/internal/server's
// bare context.WithCancel-plus-tickers Run loop with golang.org/x/sync/errgroup's
// structured fan-out for the same accept/tick/generate shape of problem.
package serverside

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"voxelworld/internal/config"
	"voxelworld/internal/geom"
	"voxelworld/internal/physics"
	"voxelworld/internal/registry"
	"voxelworld/internal/voxel"
	"voxelworld/internal/voxel/storage"
	"voxelworld/internal/worldgen"
)

// generationInterval is how often the generation workers are given another
// pass at the world's NeedsGeneration queue (spec §4.4).
const generationInterval = 100 * time.Millisecond

// Server is the authoritative voxel world: one World, one physics.World
// advancing every connected player's avatar, and one Generator filling in
// chunks requested by clients.
type Server struct {
	cfg        *config.Config
	reg        *registry.Registry
	world      *voxel.World
	gen        *worldgen.Generator
	playerDesc *registry.EntityDescriptor
	logger     *log.Logger

	// physicsMu guards physics, since tickLoop's Move and a closing
	// session's Add/Remove run on different goroutines and physics.World
	// carries no lock of its own.
	physicsMu sync.Mutex
	physics   *physics.World

	// storageDB backs every chunk's block storage with goleveldb when
	// cfg.Server.StoragePath is set; nil means the default in-memory
	// backend (voxel.NewWorld's nil-factory fallback) is in use instead.
	storageDB *storage.DB

	mu       sync.Mutex
	sessions map[*clientSession]struct{}
}

// New builds a Server around reg, ready to Run once constructed; it does
// not itself start listening.
func New(cfg *config.Config, reg *registry.Registry) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("serverside: nil config")
	}
	playerDesc, ok := reg.Entity("player")
	if !ok {
		return nil, fmt.Errorf("serverside: registry has no \"player\" entity descriptor")
	}
	s := &Server{
		cfg:        cfg,
		reg:        reg,
		playerDesc: playerDesc,
		logger:     log.New(os.Stderr, "server ", log.LstdFlags|log.Lmicroseconds),
		sessions:   make(map[*clientSession]struct{}),
	}

	var storageFactory voxel.StorageFactory
	if cfg.Server.StoragePath != "" {
		db, err := storage.Open(cfg.Server.StoragePath, reg)
		if err != nil {
			return nil, fmt.Errorf("serverside: open chunk storage: %w", err)
		}
		s.storageDB = db
		storageFactory = db.Factory()
	}
	s.world = voxel.NewWorld(reg, geom.Overworld, storageFactory)

	s.gen = worldgen.NewGenerator(cfg.Server.Seed, reg, worldgen.DefaultParts())
	s.gen.ThreadCount = cfg.Server.GenerateThreadCount
	s.physics = physics.NewWorld(s.blockSolid)

	if err := s.loadWorld(storageFactory); err != nil {
		if s.storageDB != nil {
			s.storageDB.Close()
		}
		return nil, err
	}
	return s, nil
}

// loadWorld replaces s.world with the contents of cfg.Server.SavePath if
// that file exists, leaving the freshly constructed empty world in place
// otherwise (spec §6's save-file format, wired per SPEC_FULL.md's
// game_load_stream/game_store_stream supplement). The loaded world reuses
// the same storage backend New selected, persistent or in-memory.
func (s *Server) loadWorld(storageFactory voxel.StorageFactory) error {
	f, err := os.Open(s.cfg.Server.SavePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serverside: open save file: %w", err)
	}
	defer f.Close()
	world, err := voxel.LoadWorld(f, s.reg, geom.Overworld, storageFactory)
	if err != nil {
		return fmt.Errorf("serverside: load save file: %w", err)
	}
	s.world = world
	return nil
}

// saveWorld persists every loaded chunk to cfg.Server.SavePath.
func (s *Server) saveWorld() error {
	f, err := os.Create(s.cfg.Server.SavePath)
	if err != nil {
		return fmt.Errorf("serverside: create save file: %w", err)
	}
	defer f.Close()
	return voxel.SaveWorld(f, s.world)
}

// blockSolid is the physics.World's broad-phase terrain query. It is built
// on voxel.World.BlockAt rather than a BlockIterator so that probing an
// unloaded region during a physics step never creates or queues a chunk as
// a side effect.
func (s *Server) blockSolid(pos geom.PositionI) (bool, geom.VectorF) {
	block, ok := s.world.BlockAt(pos)
	if !ok || !block.Good() || !block.Descriptor.Solid {
		return false, geom.VectorF{}
	}
	return true, geom.VectorF{X: 0.5, Y: 0.5, Z: 0.5}
}

// Run listens on cfg.Server.ListenAddress and serves connections until ctx
// is canceled or a fatal error occurs in any of the accept, tick, or
// generation loops.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("serverside: listen: %w", err)
	}
	s.logger.Printf("listening on %s", listener.Addr())

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		<-gctx.Done()
		return listener.Close()
	})
	grp.Go(func() error { return s.acceptLoop(gctx, listener) })
	grp.Go(func() error { return s.generationLoop(gctx) })
	grp.Go(func() error { return s.tickLoop(gctx) })

	waitErr := grp.Wait()
	if err := s.saveWorld(); err != nil {
		s.logger.Printf("save world on shutdown: %v", err)
	}
	if s.storageDB != nil {
		if err := s.storageDB.Close(); err != nil {
			s.logger.Printf("close chunk storage: %v", err)
		}
	}
	if gctx.Err() != nil {
		return nil
	}
	return waitErr
}

// acceptLoop accepts connections and spawns a session for each until ctx is
// canceled, at which point the listener has already been closed by Run's
// companion goroutine and Accept's resulting error is swallowed.
func (s *Server) acceptLoop(ctx context.Context, listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("serverside: accept: %w", err)
		}
		sess := s.newSession(conn)
		s.addSession(sess)
		go func() {
			defer s.removeSession(sess)
			sess.run(ctx)
		}()
	}
}

// generationLoop gives the Generator another pass at the world's pending
// chunks every generationInterval, rather than letting one Run call block
// until the queue is permanently empty.
func (s *Server) generationLoop(ctx context.Context) error {
	ticker := time.NewTicker(generationInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.gen.Run(ctx, s.world); err != nil {
				return err
			}
		}
	}
}

// tickLoop advances the physics simulation and fans world-state changes out
// to every connected session at cfg.Server.TickRate Hz (spec §4.6, §5).
func (s *Server) tickLoop(ctx context.Context) error {
	rate := s.cfg.Server.TickRate
	if rate <= 0 {
		rate = 20
	}
	period := time.Second / time.Duration(rate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			s.tick(dt)
		}
	}
}

func (s *Server) tick(dt float64) {
	s.physicsMu.Lock()
	s.physics.Move(s.physics.CurrentTime + dt)
	s.physicsMu.Unlock()

	changedBlocks := s.world.DrainPendingClientUpdates()
	destroyed := s.world.DrainDestroyedEntities()
	entities := s.world.AllEntities()

	for _, sess := range s.snapshotSessions() {
		sess.onTick(changedBlocks, destroyed, entities)
	}
}

func (s *Server) addSession(sess *clientSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess] = struct{}{}
}

func (s *Server) removeSession(sess *clientSession) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
	sess.close()
}

func (s *Server) snapshotSessions() []*clientSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*clientSession, 0, len(s.sessions))
	for sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}
