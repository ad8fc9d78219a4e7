// Package clientside implements the connecting client side of spec §4.6: a
// TCP connection to a serverside.Server, a local mirror of the world built
// entirely from UpdateRenderObjects batches, and the reader/writer/mesh-
// builder task split spec.md's client section describes.
//
// The per-connection singletons a real client needs (the world mirror, the
// needed-chunks set, a local physics.World for movement prediction, the
// player's own avatar) are each interned exactly once through
// internal/session.PropertyRef, the same lazy-singleton mechanism
// client.h's getPropertyReference gives the original engine's Client class.
package clientside

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"voxelworld/internal/codec"
	"voxelworld/internal/config"
	"voxelworld/internal/entity"
	"voxelworld/internal/geom"
	"voxelworld/internal/physics"
	"voxelworld/internal/registry"
	"voxelworld/internal/session"
	"voxelworld/internal/voxel"
)

// writeInterval is the steady cadence at which the writer task reports
// input state and drains the needed-chunks set into RequestChunk messages.
const writeInterval = 50 * time.Millisecond

// predictInterval drives the client's own local physics.World, used to
// keep the player's apparent position smooth between server updates.
const predictInterval = 20 * time.Millisecond

var defaultGravity = geom.VectorF{Y: -20}

// chunkState tracks one chunk's render readiness on the client: how many
// blocks have arrived, whether it holds a full column of blocks yet, and
// whether its cached mesh needs rebuilding (spec §4.6's cached_mesh_valid).
type chunkState struct {
	receivedBlocks int
	complete       bool
	meshValid      bool
}

// chunkVolume is the block count a fully-populated chunk column holds; the
// client treats a chunk as complete once it has received this many block
// updates for it, repeated updates of the same position included (the "size³" completeness test from spec §4.6, adapted to
// this engine's non-cubic ChunkSize x ChunkHeight x ChunkSize chunk shape).
const chunkVolume = voxel.ChunkSize * voxel.ChunkHeight * voxel.ChunkSize

// remoteEntity is a render-only mirror of another connection's entity: just
// enough state (spec §4.6's EntitySnapshot) to place it, without a local
// physics.Object, since the client never simulates entities it doesn't own.
type remoteEntity struct {
	id         entity.ID
	descriptor *registry.EntityDescriptor
	position   geom.PositionF
	velocity   geom.VectorF
}

// Client is one connection's state: local world mirror, local physics
// prediction, and the entities it has been told about.
type Client struct {
	cfg    *config.Config
	reg    *registry.Registry
	conn   net.Conn
	logger *log.Logger

	bufw      *bufio.Writer
	w         *codec.Writer
	r         *codec.Reader
	readTable *codec.InternTable

	assets *session.Session

	world        *voxel.World
	neededChunks *voxel.UpdateList
	selfEntity   *entity.Entity

	physicsMu    sync.Mutex
	physicsWorld *physics.World

	rebuildRequests chan voxel.ChunkPosition
	forceFlush      chan struct{}

	mu              sync.Mutex
	entities        map[entity.ID]*remoteEntity
	chunkStates     map[voxel.ChunkPosition]*chunkState
	requestedChunks map[geom.PositionI]struct{}
	selfServerID    entity.ID

	position     geom.PositionF
	velocity     geom.VectorF
	phi, theta   float64
	viewDistance uint32
	flying       bool
	age          float32
}

// Dial connects to cfg.Client.ServerAddress and returns a ready-to-Run
// Client.
func Dial(cfg *config.Config, reg *registry.Registry) (*Client, error) {
	conn, err := net.Dial("tcp", cfg.Client.ServerAddress)
	if err != nil {
		return nil, fmt.Errorf("clientside: dial %s: %w", cfg.Client.ServerAddress, err)
	}
	return New(cfg, reg, conn), nil
}

// New wraps an already-established connection (used directly by tests, and
// by Dial for real traffic).
func New(cfg *config.Config, reg *registry.Registry, conn net.Conn) *Client {
	assets := session.New()
	bufw := bufio.NewWriter(conn)
	c := &Client{
		cfg:             cfg,
		reg:             reg,
		conn:            conn,
		logger:          log.New(os.Stderr, "client ", log.LstdFlags|log.Lmicroseconds),
		bufw:            bufw,
		w:               codec.NewWriter(bufw),
		r:               codec.NewReader(bufio.NewReader(conn)),
		readTable:       codec.NewInternTable(),
		assets:          assets,
		rebuildRequests: make(chan voxel.ChunkPosition, 256),
		forceFlush:      make(chan struct{}, 1),
		entities:        make(map[entity.ID]*remoteEntity),
		chunkStates:     make(map[voxel.ChunkPosition]*chunkState),
		requestedChunks: make(map[geom.PositionI]struct{}),
		position:        geom.PositionF{Dimension: geom.Overworld},
		viewDistance:    cfg.Client.ViewDistance,
	}
	c.world = session.PropertyRef(assets, session.RenderObjectWorld, "world", func() *voxel.World {
		return voxel.NewWorld(reg, geom.Overworld, nil)
	})
	c.neededChunks = session.PropertyRef(assets, session.UpdateList, "needed-chunks", voxel.NewUpdateList)
	c.physicsWorld = session.PropertyRef(assets, session.PhysicsWorld, "physics", func() *physics.World {
		return physics.NewWorld(c.blockSolid)
	})
	c.selfEntity = session.PropertyRef(assets, session.Player, "self", func() *entity.Entity {
		return entity.New(nil, physics.NewEmpty())
	})
	return c
}

// blockSolid is the client's own local physics.World's broad-phase terrain
// query, grounded on the same voxel.World.BlockAt used server-side so
// prediction queries never create phantom chunks either.
func (c *Client) blockSolid(pos geom.PositionI) (bool, geom.VectorF) {
	block, ok := c.world.BlockAt(pos)
	if !ok || !block.Good() || !block.Descriptor.Solid {
		return false, geom.VectorF{}
	}
	return true, geom.VectorF{X: 0.5, Y: 0.5, Z: 0.5}
}

// SetInput records the local player's latest input for the writer task to
// report; a real client calls this from its own input-polling code each
// frame.
func (c *Client) SetInput(pos geom.PositionF, vel geom.VectorF, phi, theta float64, flying bool, age float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position, c.velocity, c.phi, c.theta, c.flying, c.age = pos, vel, phi, theta, flying, age
}

// Run drives the reader, writer, mesh-builder, and local-prediction tasks
// until ctx is canceled or one of them fails (spec §4.6's "client side
// mirrors this with three tasks: reader, writer, mesh-builder", plus the
// prediction loop this implementation adds to keep the avatar's apparent
// position smooth between server updates).
func (c *Client) Run(ctx context.Context) error {
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return c.readLoop(gctx) })
	grp.Go(func() error { return c.writeLoop(gctx) })
	grp.Go(func() error { return c.meshBuilderLoop(gctx) })
	grp.Go(func() error { return c.predictLoop(gctx) })
	err := grp.Wait()
	c.conn.Close()
	if gctx.Err() != nil {
		return nil
	}
	return err
}

func (c *Client) predictLoop(ctx context.Context) error {
	ticker := time.NewTicker(predictInterval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			c.physicsMu.Lock()
			c.physicsWorld.Move(c.physicsWorld.CurrentTime + dt)
			c.physicsMu.Unlock()
		}
	}
}
