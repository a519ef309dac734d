package main

import (
	"context"
	"log/slog"

	"github.com/bedrockcore/server/internal/combat"
	"github.com/bedrockcore/server/internal/db"
	"github.com/bedrockcore/server/internal/effects"
	"github.com/bedrockcore/server/internal/mobai"
	"github.com/bedrockcore/server/internal/plugin"
	"github.com/bedrockcore/server/internal/protocol"
	"github.com/bedrockcore/server/internal/session"
	"github.com/bedrockcore/server/internal/tick"
	"github.com/bedrockcore/server/internal/transport"
	"github.com/bedrockcore/server/internal/worldstore"
)

// mobMoveSpeed is the per-tick block distance a wandering or chasing mob
// covers (spec.md §4.7 leaves the exact speed implementation-defined).
const mobMoveSpeed = 0.15

// mobAttackBaseDamage is the melee damage a hostile mob deals on contact
// absent a per-mob-type damage table (spec.md §4.7 names the
// MobAttackPlayer event without prescribing its damage).
const mobAttackBaseDamage = 3.0

// projectileHitRadius is the collision distance a projectile's position
// must fall within an entity's position to register a hit, approximating
// the entity's bounding box spec.md's distilled model doesn't carry.
const projectileHitRadius = 1.25

// projectileBaseDamage is an arrow's unmodified hit damage, the baseline
// ResolveHit's enchantment math scales from (spec.md §4.7).
const projectileBaseDamage = 2.0

// buildPhases wires the fixed tick order (spec.md §4.2) to server's real
// collaborators, the way internal/ai/manager.go's TickManager drove its
// own per-NPC sweep off one held struct instead of loose package state.
func (s *server) buildPhases() tick.Phases {
	return tick.Phases{
		DrainTransport:            s.drainTransport,
		WorldTick:                 s.worldTick,
		ProcessGameEvents:         s.processGameEvents,
		TickEffects:               s.tickEffects,
		TickSurvival:              s.tickSurvival,
		TickWeather:               s.tickWeather,
		RunPluginSchedulerAndTick: s.runPluginSchedulerAndTick,
		MaybeSave:                s.maybeSave,
	}
}

// drainTransport processes every connect/disconnect/packet event queued
// since the previous tick without blocking (spec.md §4.2 step 1).
func (s *server) drainTransport(ctx context.Context) {
	for {
		select {
		case ev := <-s.inbound:
			s.handleTransportEvent(ctx, ev)
		default:
			return
		}
	}
}

func (s *server) handleTransportEvent(ctx context.Context, ev transport.Event) {
	switch ev.Kind {
	case transport.EventConnected:
		s.sessions.Register(session.NewSession(ev.Addr))

	case transport.EventDisconnected:
		sess, ok := s.sessions.Get(ev.Addr)
		if ok {
			s.persistSession(ctx, sess)
			s.dropTracker(sess.RuntimeID)
		}
		s.sessions.Unregister(ev.Addr)
		s.connMu.Lock()
		delete(s.conns, ev.Addr.String())
		s.connMu.Unlock()

	case transport.EventPacket:
		s.handleInboundPacket(ev)
	}
}

func (s *server) handleInboundPacket(ev transport.Event) {
	sess, ok := s.sessions.Get(ev.Addr)
	if !ok {
		return
	}

	packets, err := s.decode(sess, ev.Payload)
	if err != nil {
		slog.Warn("decoding inbound batch", "addr", ev.Addr.String(), "err", err)
		return
	}

	for _, p := range packets {
		responses, err := s.dispatch.Dispatch(sess, p)
		if err != nil {
			slog.Error("dispatching packet", "addr", ev.Addr.String(), "err", err)
			continue
		}
		for _, out := range responses {
			s.sendTo(sess, out)
		}
	}
}

// worldTick runs mob AI, projectile kinematics, and chunk replication
// (spec.md §4.2 step 2). Block ticking (scheduled/random ticks, fluid
// spread, redstone, gravity blocks) is left for the block-tick scheduler
// described in DESIGN.md's open items; nothing here depends on it.
func (s *server) worldTick(tickNum int64) {
	s.currentTick = tickNum
	ctx := context.Background()

	nearby := s.nearbyPlayersByDimension()

	for _, m := range s.world.Mobs() {
		if m.Dead {
			s.world.RemoveMob(m.RuntimeID)
			s.dropMobState(m.RuntimeID)
			s.pendingEvents = append(s.pendingEvents, mobai.GameEvent{Kind: mobai.EventEntityRemoved, EntityRuntimeID: m.RuntimeID})
			continue
		}
		st := s.mobState(m)
		events := mobai.Step(m, st, nearby[m.Dimension], mobMoveSpeed)
		s.pendingEvents = append(s.pendingEvents, events...)
	}

	for _, p := range s.world.Projectiles() {
		solid := blockSolidity(s.world, p.Dimension)
		if despawn := mobai.StepProjectile(p, mobai.BlockSolidity(solid)); despawn {
			s.world.RemoveProjectile(p.RuntimeID)
			continue
		}
		if p.StuckPos == nil && !p.Dead {
			s.resolveProjectileCollision(p)
		}
	}

	s.sessions.ForEachInGame(func(sess *session.Session) bool {
		s.replicateChunks(ctx, sess)
		return true
	})
}

// nearbyPlayersByDimension groups every in-game, non-dead session into
// the mobai.NearbyPlayer shape mob AI scans, once per tick rather than
// once per mob.
func (s *server) nearbyPlayersByDimension() map[int32][]mobai.NearbyPlayer {
	out := make(map[int32][]mobai.NearbyPlayer)
	s.sessions.ForEachInGame(func(sess *session.Session) bool {
		out[sess.Dimension] = append(out[sess.Dimension], mobai.NearbyPlayer{
			RuntimeID: sess.RuntimeID,
			X:         sess.X, Y: sess.Y, Z: sess.Z,
			Dead: sess.Dead,
		})
		return true
	})
	return out
}

func (s *server) dropMobState(runtimeID uint64) {
	s.mobAIMu.Lock()
	defer s.mobAIMu.Unlock()
	delete(s.mobAI, runtimeID)
}

// resolveProjectileCollision checks p against every in-game player and
// live mob in its dimension, applying the first hit it finds (spec.md
// §4.7: "on entity collision, resolve damage the same way as melee").
// Projectiles have no protocol.AddActor presence of their own, so a hit
// only ever produces packets for the entity struck.
func (s *server) resolveProjectileCollision(p *worldstore.Projectile) {
	var hit *session.Session
	s.sessions.ForEachInGame(func(sess *session.Session) bool {
		if sess.Dead || sess.RuntimeID == p.ShooterRuntimeID || sess.Dimension != p.Dimension {
			return true
		}
		if distSq3(p.Position.X, p.Position.Y, p.Position.Z, sess.X, sess.Y, sess.Z) <= projectileHitRadius*projectileHitRadius {
			hit = sess
			return false
		}
		return true
	})
	if hit != nil {
		outcome := mobai.ResolveHit(p, projectileBaseDamage)
		hit.Health = combat.NormalizeHealth(hit.Health-outcome.Damage, 20)
		hit.FireTicks += outcome.FireTicks
		hit.LastDamageTick = s.currentTick
		if hit.Health <= 0 {
			hit.Dead = true
		}
		s.pendingBroadcasts = append(s.pendingBroadcasts,
			protocol.EntityEvent{EntityRuntimeID: hit.RuntimeID, EventID: protocol.EntityEventHurt},
			protocol.SetActorMotion{EntityRuntimeID: hit.RuntimeID, VX: float32(outcome.KnockbackX), VZ: float32(outcome.KnockbackZ)},
		)
		if !outcome.ReturnsToShooter {
			s.world.RemoveProjectile(p.RuntimeID)
		}
		return
	}

	for _, m := range s.world.Mobs() {
		if m.Dead || m.Dimension != p.Dimension {
			continue
		}
		if distSq3(p.Position.X, p.Position.Y, p.Position.Z, m.Position.X, m.Position.Y, m.Position.Z) > projectileHitRadius*projectileHitRadius {
			continue
		}
		outcome := mobai.ResolveHit(p, projectileBaseDamage)
		m.Health -= outcome.Damage
		s.pendingEvents = append(s.pendingEvents, mobai.GameEvent{Kind: mobai.EventMobHurt, EntityRuntimeID: m.RuntimeID, Damage: outcome.Damage})
		if m.Health <= 0 {
			m.Health = 0
			m.Dead = true
			s.pendingEvents = append(s.pendingEvents, mobai.GameEvent{Kind: mobai.EventMobDied, EntityRuntimeID: m.RuntimeID})
		}
		if !outcome.ReturnsToShooter {
			s.world.RemoveProjectile(p.RuntimeID)
		}
		return
	}
}

func distSq3(x1, y1, z1, x2, y2, z2 float64) float64 {
	dx, dy, dz := x2-x1, y2-y1, z2-z1
	return dx*dx + dy*dy + dz*dz
}

// replicateChunks sends sess the chunks it hasn't seen yet, either the
// full spawn square on first reference or the newly-crossed edge on a
// chunk-boundary change (spec.md §4.9).
func (s *server) replicateChunks(ctx context.Context, sess *session.Session) {
	cx, cz := floorDiv16(int32(sess.X)), floorDiv16(int32(sess.Z))
	tracker := s.trackerFor(sess.RuntimeID, sess.Dimension, sess.ViewRadius)

	s.trackerMu.Lock()
	center, seen := s.chunkCenters[sess.RuntimeID]
	s.chunkCenters[sess.RuntimeID] = [2]int32{cx, cz}
	s.trackerMu.Unlock()

	var keys []worldstore.ChunkKey
	switch {
	case !seen || tracker.SentCount() == 0:
		keys = tracker.SpawnSquare(cx, cz)
	case center[0] != cx || center[1] != cz:
		keys = tracker.CrossBoundary(cx, cz)
	}
	if len(keys) == 0 {
		return
	}

	for _, key := range keys {
		if _, err := s.world.ChunkAt(ctx, key, s.currentTick, int64(s.cfgWorld.viewDistanceCap)); err != nil {
			slog.Error("generating chunk for replication", "key", key, "err", err)
			continue
		}
		s.sendTo(sess, protocol.LevelChunk{CX: key.CX, CZ: key.CZ, Dimension: key.Dimension})
	}

	update := tracker.BuildPublisherUpdate(int32(sess.X), int32(sess.Y), int32(sess.Z))
	s.sendTo(sess, protocol.NetworkChunkPublisherUpdate{X: update.X, Y: update.Y, Z: update.Z, Radius: uint32(update.UnloadRadius)})
}

// processGameEvents turns the events worldTick produced into broadcast
// packets, applying the mutation a mob-on-player attack still needs
// (spec.md §4.2 step 3).
func (s *server) processGameEvents() {
	broadcasts := s.pendingBroadcasts
	s.pendingBroadcasts = nil
	for _, out := range broadcasts {
		s.broadcast(out)
	}

	events := s.pendingEvents
	s.pendingEvents = nil
	for _, evt := range events {
		switch evt.Kind {
		case mobai.EventMobMoved:
			s.broadcast(protocol.MoveActorAbsolute{EntityRuntimeID: evt.EntityRuntimeID, X: evt.X, Y: evt.Y, Z: evt.Z})
		case mobai.EventMobHurt:
			s.broadcast(protocol.EntityEvent{EntityRuntimeID: evt.EntityRuntimeID, EventID: protocol.EntityEventHurt})
		case mobai.EventMobDied:
			s.broadcast(protocol.EntityEvent{EntityRuntimeID: evt.EntityRuntimeID, EventID: protocol.EntityEventDeath})
			s.broadcast(protocol.RemoveActor{EntityUniqueID: int64(evt.EntityRuntimeID)})
		case mobai.EventEntityRemoved:
			s.broadcast(protocol.RemoveActor{EntityUniqueID: int64(evt.EntityRuntimeID)})
		case mobai.EventMobAttackPlayer:
			s.applyMobAttack(evt)
		}
	}
}

func (s *server) applyMobAttack(evt mobai.GameEvent) {
	target, ok := s.sessions.ByRuntimeID(evt.TargetRuntimeID)
	if !ok || target.Dead {
		return
	}
	target.Health = combat.NormalizeHealth(target.Health-mobAttackBaseDamage, 20)
	target.LastDamageTick = s.currentTick
	if target.Health <= 0 {
		target.Dead = true
	}
	s.broadcast(protocol.EntityEvent{EntityRuntimeID: target.RuntimeID, EventID: protocol.EntityEventHurt})
	s.broadcast(protocol.UpdateAttributes{EntityRuntimeID: target.RuntimeID, Health: target.Health, MaxHealth: 20})
}

// tickEffects decrements every in-game session's status effects and
// notifies the client of whatever expired (spec.md §4.2 step 4).
func (s *server) tickEffects() {
	s.sessions.ForEachInGame(func(sess *session.Session) bool {
		for _, exp := range effects.TickStatusEffects(sess) {
			s.sendTo(sess, protocol.MobEffectPacket{EntityRuntimeID: sess.RuntimeID, Add: false, EffectID: exp.EffectID})
		}
		return true
	})
}

// tickSurvival advances food/saturation/fire/air/fall state and applies
// whatever damage it produced (spec.md §4.2 step 5, §4.8).
func (s *server) tickSurvival() {
	s.sessions.ForEachInGame(func(sess *session.Session) bool {
		if sess.Dead {
			return true
		}

		const headInWater = false // fluid-at-eye-height lookup belongs to a block-tick pass not yet wired (DESIGN.md)
		var dmg []effects.DamageEvent
		dmg = append(dmg, effects.TickFoodAndSaturation(sess, s.currentTick, s.cfgWorld.regenTickCadence)...)
		dmg = append(dmg, effects.TickFire(sess)...)
		dmg = append(dmg, effects.TickAir(sess, headInWater, s.currentTick)...)
		dmg = append(dmg, effects.TrackFall(sess, sess.OnGround, headInWater, sess.LastDeltaY, 0, -1)...)
		if len(dmg) == 0 {
			return true
		}

		var total float32
		for _, d := range dmg {
			total += d.Amount
		}
		sess.Health = combat.NormalizeHealth(sess.Health-total, 20)
		sess.LastDamageTick = s.currentTick
		if sess.Health <= 0 {
			sess.Dead = true
		}
		s.sendTo(sess, protocol.UpdateAttributes{EntityRuntimeID: sess.RuntimeID, Health: sess.Health, MaxHealth: 20})
		return true
	})
}

// tickWeather advances the world clock and rain/lightning state (spec.md
// §4.2 step 6), broadcasting the time sync at a human-visible cadence
// rather than all 20 times a second.
func (s *server) tickWeather() {
	s.world.TickTime()
	s.world.TickWeather(func() {
		s.broadcast(protocol.LevelEvent{EventID: protocol.LevelEventStopRain})
	})
	if s.currentTick%20 == 0 {
		s.broadcast(protocol.SetTimePacket{Time: s.world.Time})
	}
}

// runPluginSchedulerAndTick runs due delayed/repeating plugin tasks,
// pulses the plugin Tick hook, then applies whatever actions either one
// queued (spec.md §4.2 step 7, §4.10).
func (s *server) runPluginSchedulerAndTick() {
	s.sched.RunDue(s.currentTick)

	result := s.bridge.Dispatch(plugin.Event{Name: "Tick", Fields: map[string]any{"tick": s.currentTick}})
	s.applyPluginActions(result.Actions)
}

// applyPluginActions executes the side effects plugin callbacks queued.
// Actions whose payload is itself a callback or handler value
// (schedule-delayed/repeating, cancel-task, register-command, show-form)
// cannot cross this map[string]any bag safely; a native plugin needing
// one of those registers directly against s.sched/s.commands instead of
// going through the queue (spec.md §4.10 names the surface; it does not
// require every entry in it to be reachable from the generic bag).
func (s *server) applyPluginActions(actions []plugin.Action) {
	for _, a := range actions {
		switch a.Kind {
		case plugin.ActionSendMessage:
			if target, ok := s.targetOf(a.Fields); ok {
				msg, _ := a.Fields["message"].(string)
				s.sendTo(target, protocol.TextPacket{Type: protocol.TextTypeSystem, Message: msg})
			}
		case plugin.ActionKick:
			if target, ok := s.targetOf(a.Fields); ok {
				reason, _ := a.Fields["reason"].(string)
				s.sendTo(target, protocol.DisconnectPacket{Reason: protocol.DisconnectKicked, Message: reason})
				s.sessions.Unregister(target.Addr)
			}
		case plugin.ActionTeleport:
			if target, ok := s.targetOf(a.Fields); ok {
				if x, ok := a.Fields["x"].(float64); ok {
					target.X = x
				}
				if y, ok := a.Fields["y"].(float64); ok {
					target.Y = y
				}
				if z, ok := a.Fields["z"].(float64); ok {
					target.Z = z
				}
			}
		case plugin.ActionSetHealth:
			if target, ok := s.targetOf(a.Fields); ok {
				if h, ok := a.Fields["health"].(float64); ok {
					target.Health = combat.NormalizeHealth(float32(h), 20)
				}
			}
		}
	}
}

func (s *server) targetOf(fields map[string]any) (*session.Session, bool) {
	name, _ := fields["player"].(string)
	if name == "" {
		return nil, false
	}
	return s.sessions.FindByName(name)
}

// maybeSave flushes dirty chunks, every in-game player's save record, and
// evicts chunks no session still needs, when the save counter is due
// (spec.md §4.2 step 8).
func (s *server) maybeSave(tickNum int64) {
	if !s.saveCounter.Due() {
		return
	}

	ctx := context.Background()
	if err := s.world.FlushDirty(ctx); err != nil {
		slog.Error("flushing dirty chunks", "err", err)
	}

	s.sessions.ForEachInGame(func(sess *session.Session) bool {
		s.persistSession(ctx, sess)
		return true
	})

	keep := func(key worldstore.ChunkKey) bool {
		margin := int32(0)
		inRange := false
		s.sessions.ForEachInGame(func(sess *session.Session) bool {
			if sess.Dimension != key.Dimension {
				return true
			}
			cx, cz := floorDiv16(int32(sess.X)), floorDiv16(int32(sess.Z))
			limit := sess.ViewRadius + margin + 2
			if chebyshev32(key.CX-cx, key.CZ-cz) <= limit {
				inRange = true
				return false
			}
			return true
		})
		return inRange
	}
	if err := s.world.EvictBeyond(ctx, keep); err != nil {
		slog.Error("evicting chunks", "err", err)
	}
}

func chebyshev32(dx, dz int32) int32 {
	if dx < 0 {
		dx = -dx
	}
	if dz < 0 {
		dz = -dz
	}
	if dx > dz {
		return dx
	}
	return dz
}

// persistSession writes sess's current state to its durable player
// record, called on disconnect and on every periodic auto-save.
func (s *server) persistSession(ctx context.Context, sess *session.Session) {
	invJSON, err := db.MarshalInventory(sess.Inventory.Snapshot())
	if err != nil {
		slog.Error("marshaling inventory for save", "runtimeID", sess.RuntimeID, "err", err)
		return
	}
	rec := db.PlayerRecord{
		UUID:          sess.Identity.Identity,
		XUID:          sess.Identity.XUID,
		DisplayName:   sess.Identity.DisplayName,
		X:             sess.X, Y: sess.Y, Z: sess.Z,
		Pitch:         sess.Pitch, Yaw: sess.Yaw,
		Dimension:     sess.Dimension,
		Gamemode:      sess.Gamemode,
		Health:        sess.Health,
		FoodLevel:     sess.FoodLevel,
		Saturation:    sess.Saturation,
		XPTotal:       sess.XPTotal,
		XPLevel:       sess.XPLevel,
		InventoryJSON: invJSON,
	}
	if err := s.db.Players().Save(ctx, rec); err != nil {
		slog.Error("saving player record", "runtimeID", sess.RuntimeID, "err", err)
	}
}
