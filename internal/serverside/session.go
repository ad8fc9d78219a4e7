package serverside

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"voxelworld/internal/codec"
	"voxelworld/internal/entity"
	"voxelworld/internal/geom"
	"voxelworld/internal/physics"
	"voxelworld/internal/protocol"
	"voxelworld/internal/voxel"
)

// updateBatchCap bounds how many dirty block positions a single writer-task
// iteration drains, so one very active tick cannot starve a session's own
// entity/state messages behind an unbounded block flood (spec §4.6's
// "throughput cap proportional to recent entity volume" - a fixed cap is
// this engine's version of that proportionality).
const updateBatchCap = 1024

// writeInterval is how often the writer task wakes up to drain and flush a
// session's pending outgoing state.
const writeInterval = 50 * time.Millisecond

// defaultGravity is applied to a session's player entity whenever the
// client last reported flying=false.
var defaultGravity = geom.VectorF{Y: -20}

// clientSession is the per-connection state the reader and writer tasks
// share, guarded by mu (spec §4.6's "client lock").
type clientSession struct {
	id     uuid.UUID
	conn   net.Conn
	server *Server

	bufw *bufio.Writer
	w    *codec.Writer
	r    *codec.Reader

	writeTable *codec.InternTable

	playerEntity *entity.Entity

	mu           sync.Mutex
	viewDistance uint32
	gotState     bool
	needState    bool

	pendingBlocks   *voxel.UpdateList
	pendingEntities []protocol.EntitySnapshot
	visibleEntities map[entity.ID]struct{}
}

func (s *Server) newSession(conn net.Conn) *clientSession {
	obj := physics.NewAABox(
		geom.PositionF{Dimension: geom.Overworld},
		geom.VectorF{X: s.playerDesc.HalfExtent[0], Y: s.playerDesc.HalfExtent[1], Z: s.playerDesc.HalfExtent[2]},
		defaultGravity,
		physics.Properties{
			Mass:         s.playerDesc.Mass,
			Friction:     1,
			Bounciness:   0,
			ContactMask1: ^uint32(0),
			ContactMask2: ^uint32(0),
		},
	)
	pe := entity.New(s.playerDesc, obj)

	s.physicsMu.Lock()
	s.physics.Add(obj)
	s.physicsMu.Unlock()
	s.world.AddEntity(pe)

	bufw := bufio.NewWriter(conn)
	return &clientSession{
		id:              uuid.New(),
		conn:            conn,
		server:          s,
		bufw:            bufw,
		w:               codec.NewWriter(bufw),
		r:               codec.NewReader(bufio.NewReader(conn)),
		writeTable:      codec.NewInternTable(),
		playerEntity:    pe,
		viewDistance:    8,
		needState:       true,
		pendingBlocks:   voxel.NewUpdateList(),
		visibleEntities: make(map[entity.ID]struct{}),
	}
}

// run drives one connection's reader and writer tasks until either fails or
// ctx is canceled (spec §4.6, §5's per-session terminated flag).
func (s *clientSession) run(ctx context.Context) {
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return s.readLoop(gctx) })
	grp.Go(func() error { return s.writeLoop(gctx) })
	if err := grp.Wait(); err != nil && gctx.Err() == nil {
		s.server.logger.Printf("session %s: %v", s.id, err)
	}
}

func (s *clientSession) close() {
	s.conn.Close()
	s.playerEntity.Destroy()
	s.server.physicsMu.Lock()
	s.server.physics.Remove(s.playerEntity.Physics)
	s.server.physicsMu.Unlock()
	s.server.world.RemoveEntity(s.playerEntity.ID)
}

// readLoop consumes the stream, validating every message with the codec's
// bounded readers, and folds client input into session and player-entity
// state under mu (spec §4.6).
func (s *clientSession) readLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		ev, err := protocol.ReadEvent(s.r)
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		switch ev {
		case protocol.EventUpdatePositionAndVelocity:
			msg, err := protocol.ReadUpdatePositionAndVelocityBody(s.r)
			if err != nil {
				return fmt.Errorf("read update-position-and-velocity: %w", err)
			}
			s.applyPositionAndVelocity(msg)
		case protocol.EventRequestChunk:
			msg, err := protocol.ReadRequestChunkBody(s.r)
			if err != nil {
				return fmt.Errorf("read request-chunk: %w", err)
			}
			s.requestChunk(msg)
		default:
			return fmt.Errorf("unexpected client->server event %d", ev)
		}
	}
}

func (s *clientSession) applyPositionAndVelocity(msg protocol.UpdatePositionAndVelocityMsg) {
	s.mu.Lock()
	s.viewDistance = msg.ViewDistance
	s.gotState = true
	s.mu.Unlock()

	obj := s.playerEntity.Physics
	obj.Position = msg.Position
	obj.Velocity = msg.Velocity
	if msg.Flying {
		obj.Gravity = geom.VectorF{}
	} else {
		obj.Gravity = defaultGravity
	}
}

// requestChunk creates and queues for generation every chunk column covered
// by the x/z square of side size (in blocks) starting at origin, mirroring
// the original's per-chunk RequestChunk handling. origin's y is ignored; a
// size of ChunkSize at a chunk origin names a single chunk, and 0 is read as
// ChunkSize.
func (s *clientSession) requestChunk(msg protocol.RequestChunkMsg) {
	size := int(msg.Size)
	if size <= 0 {
		size = voxel.ChunkSize
	}
	world := s.server.world
	seen := make(map[voxel.ChunkPosition]struct{})
	for x := msg.Origin.X; x < msg.Origin.X+size; x += voxel.ChunkSize {
		for z := msg.Origin.Z; z < msg.Origin.Z+size; z += voxel.ChunkSize {
			cp := voxel.ChunkPositionContaining(geom.PositionI{X: x, Z: z, Dimension: msg.Origin.Dimension})
			if _, ok := seen[cp]; ok {
				continue
			}
			seen[cp] = struct{}{}
			world.GetOrCreateChunk(cp)
		}
	}
}

// onTick is called once per server tick (spec §4.6's world-tick task) with
// the world's drained dirty-block list, destroyed-entity list, and a
// snapshot of every live entity; it folds the subset relevant to this
// session into its outgoing queues.
func (s *clientSession) onTick(changedBlocks []geom.PositionI, destroyed []entity.ID, entities []*entity.Entity) {
	s.mu.Lock()
	if s.gotState {
		s.needState = true
		s.gotState = false
	}
	for _, pos := range changedBlocks {
		s.pendingBlocks.Add(pos)
	}
	for _, id := range destroyed {
		s.pendingEntities = append(s.pendingEntities, protocol.EntitySnapshot{ID: id, Destroyed: true})
		delete(s.visibleEntities, id)
	}

	origin := s.playerEntity.Physics.Position
	view := float64(s.viewDistance)
	for _, e := range entities {
		if e.ID == s.playerEntity.ID || !e.Good() {
			continue
		}
		pos := e.Physics.Position
		if pos.Dimension != origin.Dimension {
			continue
		}
		dx, dz := pos.X-origin.X, pos.Z-origin.Z
		if dx < -view || dx > view || dz < -view || dz > view {
			continue
		}
		s.visibleEntities[e.ID] = struct{}{}
		s.pendingEntities = append(s.pendingEntities, protocol.EntitySnapshot{
			ID:         e.ID,
			Descriptor: e.Descriptor,
			Position:   pos,
			Velocity:   e.Physics.Velocity,
		})
	}
	s.mu.Unlock()
}

// writeLoop drains pending updates at a steady cadence and flushes one
// UpdateRenderObjects batch per iteration, honoring need_state (spec §4.6).
func (s *clientSession) writeLoop(ctx context.Context) error {
	if err := s.sendPlayer(); err != nil {
		return fmt.Errorf("send player: %w", err)
	}

	ticker := time.NewTicker(writeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.flush(); err != nil {
				return fmt.Errorf("flush: %w", err)
			}
		}
	}
}

func (s *clientSession) sendPlayer() error {
	snap := protocol.EntitySnapshot{
		ID:         s.playerEntity.ID,
		Descriptor: s.playerEntity.Descriptor,
		Position:   s.playerEntity.Physics.Position,
		Velocity:   s.playerEntity.Physics.Velocity,
	}
	if err := protocol.WriteSendPlayer(s.w, s.writeTable, protocol.SendPlayerMsg{Entity: snap}); err != nil {
		return err
	}
	return s.bufw.Flush()
}

func (s *clientSession) flush() error {
	s.mu.Lock()
	positions := s.pendingBlocks.Items()
	if len(positions) > updateBatchCap {
		positions = positions[:updateBatchCap]
	}
	drained := make([]geom.PositionI, len(positions))
	copy(drained, positions)
	for _, pos := range drained {
		s.pendingBlocks.Remove(pos)
	}
	entitySnapshots := s.pendingEntities
	s.pendingEntities = nil
	needState := s.needState
	s.needState = false
	s.mu.Unlock()

	objects := make([]protocol.RenderObject, 0, len(drained)+len(entitySnapshots))
	world := s.server.world
	for _, pos := range drained {
		block := voxel.NewBlockIterator(world, pos).Get()
		objects = append(objects, protocol.RenderObject{
			Tag:   protocol.RenderObjectBlock,
			Block: &protocol.BlockUpdate{Position: pos, Block: block},
		})
	}
	for i := range entitySnapshots {
		snap := entitySnapshots[i]
		objects = append(objects, protocol.RenderObject{Tag: protocol.RenderObjectEntity, Entity: &snap})
	}

	if len(objects) > 0 {
		if err := protocol.WriteUpdateRenderObjects(s.w, s.writeTable, protocol.UpdateRenderObjectsMsg{Objects: objects}); err != nil {
			return err
		}
	}
	if needState {
		if err := protocol.WriteRequestState(s.w); err != nil {
			return err
		}
	}
	return s.bufw.Flush()
}
