package clientside

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"voxelworld/internal/geom"
	"voxelworld/internal/physics"
	"voxelworld/internal/protocol"
	"voxelworld/internal/voxel"
)

// readLoop consumes server->client messages and folds each into the local
// world mirror, entity map, or handshake state (spec §4.6).
func (c *Client) readLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		ev, err := protocol.ReadEvent(c.r)
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		switch ev {
		case protocol.EventSendPlayer:
			msg, err := protocol.ReadSendPlayerBody(c.r, c.readTable, c.reg)
			if err != nil {
				return fmt.Errorf("read send-player: %w", err)
			}
			c.applySendPlayer(msg)
		case protocol.EventUpdateRenderObjects:
			msg, err := protocol.ReadUpdateRenderObjectsBody(c.r, c.readTable, c.reg)
			if err != nil {
				return fmt.Errorf("read update-render-objects: %w", err)
			}
			c.applyRenderObjects(msg)
		case protocol.EventRequestState:
			select {
			case c.forceFlush <- struct{}{}:
			default:
			}
		default:
			return fmt.Errorf("unexpected server->client event %d", ev)
		}
	}
}

// applySendPlayer handles the once-per-session message that tells a client
// which entity ID is its own avatar. The first delivery promotes selfEntity
// from the placeholder Empty physics object New built it with into a real
// AABox and registers it with the local physics.World; later deliveries (the
// server may resend it, e.g. after a respawn) just update position/velocity.
func (c *Client) applySendPlayer(msg protocol.SendPlayerMsg) {
	c.mu.Lock()
	c.selfServerID = msg.Entity.ID
	wasEmpty := c.selfEntity.Physics.Kind == physics.Empty
	c.mu.Unlock()

	if !wasEmpty {
		c.mu.Lock()
		c.selfEntity.Physics.Position = msg.Entity.Position
		c.selfEntity.Physics.Velocity = msg.Entity.Velocity
		c.mu.Unlock()
		return
	}

	halfExtent := geom.VectorF{}
	mass := 1.0
	if d := msg.Entity.Descriptor; d != nil {
		halfExtent = geom.VectorF{X: d.HalfExtent[0], Y: d.HalfExtent[1], Z: d.HalfExtent[2]}
		mass = d.Mass
	}
	obj := physics.NewAABox(msg.Entity.Position, halfExtent, defaultGravity, physics.Properties{
		Mass:         mass,
		Friction:     1,
		Bounciness:   0,
		ContactMask1: ^uint32(0),
		ContactMask2: ^uint32(0),
	})
	obj.Velocity = msg.Entity.Velocity

	c.mu.Lock()
	c.selfEntity.Physics = obj
	c.selfEntity.Descriptor = msg.Entity.Descriptor
	c.mu.Unlock()

	c.physicsMu.Lock()
	c.physicsWorld.Add(obj)
	c.physicsMu.Unlock()
}

func (c *Client) applyRenderObjects(msg protocol.UpdateRenderObjectsMsg) {
	for _, ro := range msg.Objects {
		switch ro.Tag {
		case protocol.RenderObjectBlock:
			c.applyBlock(ro.Block)
		case protocol.RenderObjectEntity:
			c.applyEntitySnapshot(ro.Entity)
		}
	}
}

// applyBlock writes the update into the world mirror and tracks the owning
// chunk's completeness, queuing it for the mesh builder whenever its state
// changes either way: newly complete, or invalidated by a later edit.
func (c *Client) applyBlock(b *protocol.BlockUpdate) {
	voxel.NewBlockIterator(c.world, b.Position).Set(b.Block)
	cp := voxel.ChunkPositionContaining(b.Position)

	c.mu.Lock()
	st, ok := c.chunkStates[cp]
	if !ok {
		st = &chunkState{}
		c.chunkStates[cp] = st
	}
	st.receivedBlocks++
	if !st.complete && st.receivedBlocks >= chunkVolume {
		st.complete = true
		c.neededChunks.Remove(chunkOrigin(cp))
	}
	st.meshValid = false
	c.mu.Unlock()

	select {
	case c.rebuildRequests <- cp:
	default:
	}
}

// applyEntitySnapshot updates the entities map, skipping the server's own
// copy of this session's avatar (that arrives only via SendPlayer and is
// tracked through selfEntity instead, never duplicated in entities).
func (c *Client) applyEntitySnapshot(snap *protocol.EntitySnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap.ID == c.selfServerID {
		return
	}
	if snap.Destroyed {
		delete(c.entities, snap.ID)
		return
	}
	e, ok := c.entities[snap.ID]
	if !ok {
		e = &remoteEntity{id: snap.ID}
		c.entities[snap.ID] = e
	}
	e.descriptor = snap.Descriptor
	e.position = snap.Position
	e.velocity = snap.Velocity
}

// queueDesiredChunksLocked adds every chunk within view distance of the
// current position that isn't already complete to the needed-chunks set,
// mirroring spec §4.6's "incomplete chunks are added to a needed-chunks set
// the writer translates into RequestChunk messages". Callers must hold c.mu.
func (c *Client) queueDesiredChunksLocked() {
	radius := int(c.viewDistance)/voxel.ChunkSize + 1
	center := voxel.ChunkPositionContaining(c.position.Floor())
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			cp := voxel.ChunkPosition{X: center.X + dx*voxel.ChunkSize, Z: center.Z + dz*voxel.ChunkSize, Dimension: center.Dimension}
			if st, ok := c.chunkStates[cp]; ok && st.complete {
				continue
			}
			c.neededChunks.Add(chunkOrigin(cp))
		}
	}
}

func chunkOrigin(cp voxel.ChunkPosition) geom.PositionI {
	return geom.PositionI{X: cp.X, Z: cp.Z, Dimension: cp.Dimension}
}

// writeLoop reports input state and drains the needed-chunks set into
// RequestChunk messages at a steady cadence, or immediately whenever the
// server solicits state via RequestState (spec §4.6).
func (c *Client) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(writeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-c.forceFlush:
		}
		if err := c.flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
	}
}

func (c *Client) flush() error {
	c.mu.Lock()
	c.queueDesiredChunksLocked()
	pos, vel, phi, theta, viewDistance, flying, age := c.position, c.velocity, c.phi, c.theta, c.viewDistance, c.flying, c.age

	var toRequest []geom.PositionI
	for _, p := range c.neededChunks.Items() {
		if _, sent := c.requestedChunks[p]; sent {
			continue
		}
		c.requestedChunks[p] = struct{}{}
		toRequest = append(toRequest, p)
	}
	c.mu.Unlock()

	if err := protocol.WriteUpdatePositionAndVelocity(c.w, protocol.UpdatePositionAndVelocityMsg{
		Position: pos, Velocity: vel, Phi: phi, Theta: theta,
		ViewDistance: viewDistance, Flying: flying, Age: age,
	}); err != nil {
		return err
	}
	for _, p := range toRequest {
		if err := protocol.WriteRequestChunk(c.w, protocol.RequestChunkMsg{Origin: p, Size: voxel.ChunkSize}); err != nil {
			return err
		}
	}
	return c.bufw.Flush()
}

// meshBuilderLoop fans rebuild requests out across cfg.Client.MeshBuilderWorkers
// workers, the client-side half of spec §4.6's reader/writer/mesh-builder
// task split.
func (c *Client) meshBuilderLoop(ctx context.Context) error {
	workers := c.cfg.Client.MeshBuilderWorkers
	if workers <= 0 {
		workers = 1
	}
	grp, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		grp.Go(func() error { return c.meshBuilderWorker(gctx) })
	}
	grp.Go(func() error { return c.drainWorldUpdatesLoop(gctx) })
	return grp.Wait()
}

func (c *Client) meshBuilderWorker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cp := <-c.rebuildRequests:
			c.rebuildChunk(cp)
		}
	}
}

// rebuildChunk is the mesh builder's rebuild step. Producing actual vertex
// buffers is a rendering-backend concern this engine doesn't implement;
// here "rebuilding" marks the chunk's cached render state valid again, the
// signal a real renderer would key its own geometry rebuild off.
func (c *Client) rebuildChunk(cp voxel.ChunkPosition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.chunkStates[cp]; ok {
		st.meshValid = true
	}
}

// drainWorldUpdatesLoop periodically empties the world mirror's
// PendingClientUpdates list. The client has no downstream clients of its
// own to forward it to; left undrained it would grow without bound for the
// life of the connection.
func (c *Client) drainWorldUpdatesLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.world.DrainPendingClientUpdates()
		}
	}
}
