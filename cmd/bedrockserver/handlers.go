package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/bedrockcore/server/internal/blockinteraction"
	"github.com/bedrockcore/server/internal/combat"
	"github.com/bedrockcore/server/internal/command"
	"github.com/bedrockcore/server/internal/crypto"
	"github.com/bedrockcore/server/internal/dispatcher"
	"github.com/bedrockcore/server/internal/inventory"
	"github.com/bedrockcore/server/internal/movement"
	"github.com/bedrockcore/server/internal/plugin"
	"github.com/bedrockcore/server/internal/protocol"
	"github.com/bedrockcore/server/internal/ratelimit"
	"github.com/bedrockcore/server/internal/session"
	"github.com/bedrockcore/server/internal/worldstore"
)

// attackInput is the decoded shape of a UseItemOnEntity::Attack
// sub-action (spec.md §4.4); the codec hands the core just the target
// id, the way protocol.go's own doc comment describes payload types
// living alongside their handlers — everything else the damage
// pipeline needs is server-held state, never trusted from the wire.
type attackInput struct {
	TargetRuntimeID uint64
}

// startBreakInput marks the beginning of a mining attempt at Pos.
type startBreakInput struct {
	Pos worldstore.BlockPos
}

// finishBreakInput is the client's claim that it finished mining the
// block it started breaking.
type finishBreakInput struct {
	Pos worldstore.BlockPos
}

// placeBlockInput is one block-placement click against an existing
// block's face.
type placeBlockInput struct {
	Pos              worldstore.BlockPos
	Face             blockinteraction.Face
	HeldBlockRuntime worldstore.BlockRuntimeID
	PlacedState      string
}

// registerHandlers builds the state -> packet-type dispatch table the
// login sequence and in-game traffic are routed through (spec.md
// §4.1). It is the seam this project's external packet codec plugs
// decoded values into; every Handler here receives the same concrete
// Go types internal/dispatcher's own tests dispatch with.
func registerHandlers(s *server, d *dispatcher.Dispatcher) {
	d.Register(session.AwaitingNetworkSettings, protocol.RequestNetworkSettings{}, s.handleRequestNetworkSettings)
	d.Register(session.AwaitingLogin, protocol.Login{}, s.handleLogin)
	d.Register(session.AwaitingHandshake, protocol.ClientToServerHandshake{}, s.handleClientHandshake)
	d.RegisterStates([]session.LoginState{session.AwaitingResourcePackResponse, session.AwaitingResourcePackComplete},
		protocol.ResourcePackClientResponse{}, s.handleResourcePackResponse)
	d.RegisterStates([]session.LoginState{session.Spawning, session.InGame},
		protocol.RequestChunkRadius{}, s.handleRequestChunkRadius)
	d.Register(session.Spawning, protocol.SetLocalPlayerAsInitialized{}, s.handleLocalPlayerInitialized)

	d.Register(session.InGame, movement.Input{}, s.handleMovementInput)
	d.Register(session.InGame, attackInput{}, s.handleAttackRequest)
	d.Register(session.InGame, inventory.Request{}, s.handleInventoryRequest)
	d.Register(session.InGame, startBreakInput{}, s.handleStartBreak)
	d.Register(session.InGame, finishBreakInput{}, s.handleFinishBreak)
	d.Register(session.InGame, placeBlockInput{}, s.handlePlaceAttempt)
	d.Register(session.InGame, protocol.TextPacket{}, s.handleChat)
	d.Register(session.InGame, protocol.CommandRequest{}, s.handleCommandRequest)
	d.Register(session.InGame, protocol.RespawnPacket{}, s.handleRespawn)
}

func (s *server) handleRequestNetworkSettings(sess *session.Session, packet any) ([]any, error) {
	req := packet.(protocol.RequestNetworkSettings)
	sess.ProtocolVersion = req.ClientProtocol
	sess.CompressionAlgorithm = protocol.CompressionZlib
	sess.CompressionThreshold = 512
	sess.State = session.AwaitingLogin
	return []any{protocol.NetworkSettings{
		CompressionAlgorithm: sess.CompressionAlgorithm,
		CompressionThreshold: sess.CompressionThreshold,
	}}, nil
}

func (s *server) handleLogin(sess *session.Session, packet any) ([]any, error) {
	req := packet.(protocol.Login)

	identity, err := crypto.ParseIdentityChain(req.IdentityChainJWT)
	if err != nil {
		return []any{protocol.DisconnectPacket{Reason: protocol.DisconnectLoginFailed, Message: err.Error()}}, nil
	}
	clientData, err := crypto.ParseClientData(req.ClientDataJWT)
	if err != nil {
		return []any{protocol.DisconnectPacket{Reason: protocol.DisconnectLoginFailed, Message: err.Error()}}, nil
	}
	sess.Identity = identity
	sess.ClientData = clientData

	banned, reason, err := s.db.Bans().IsPlayerBanned(context.Background(), identity.XUID)
	if err != nil {
		return nil, fmt.Errorf("checking player ban: %w", err)
	}
	if banned {
		return []any{protocol.DisconnectPacket{Reason: protocol.DisconnectBanned, Message: reason}}, nil
	}

	handshake, err := crypto.NewHandshake()
	if err != nil {
		return nil, fmt.Errorf("starting handshake: %w", err)
	}
	sess.SetHandshake(handshake)

	jwt, err := crypto.SignHandshakeJWT(handshake.ServerPublicKeyDER(), handshake.Salt())
	if err != nil {
		return nil, fmt.Errorf("signing handshake jwt: %w", err)
	}

	sess.State = session.AwaitingHandshake
	return []any{protocol.ServerToClientHandshake{JWT: jwt}}, nil
}

func (s *server) handleClientHandshake(sess *session.Session, packet any) ([]any, error) {
	req := packet.(protocol.ClientToServerHandshake)

	handshake := sess.Handshake()
	if handshake == nil {
		return []any{protocol.DisconnectPacket{Reason: protocol.DisconnectBadPacket, Message: "handshake not started"}}, nil
	}
	cipher, err := handshake.DeriveSession(req.ClientPublicKeyDER)
	if err != nil {
		return []any{protocol.DisconnectPacket{Reason: protocol.DisconnectBadPacket, Message: "invalid client public key"}}, nil
	}
	sess.Cipher = cipher

	sess.State = session.AwaitingResourcePackResponse
	return []any{
		protocol.PlayStatusPacket{Status: protocol.PlayStatusLoginSuccess},
		protocol.ResourcePacksInfo{},
	}, nil
}

func (s *server) handleResourcePackResponse(sess *session.Session, packet any) ([]any, error) {
	req := packet.(protocol.ResourcePackClientResponse)

	switch req.Status {
	case protocol.ResourcePackStatusHaveAllPacks:
		sess.State = session.AwaitingResourcePackComplete
		return []any{protocol.ResourcePackStack{}}, nil
	case protocol.ResourcePackStatusCompleted:
		return s.enterWorld(sess)
	case protocol.ResourcePackStatusRefused:
		return []any{protocol.DisconnectPacket{Reason: protocol.DisconnectKicked, Message: "resource packs refused"}}, nil
	default:
		return nil, nil
	}
}

// enterWorld runs the Spawning setup spec.md §4.1 describes: allocate
// ids, restore saved state if any, and answer with the StartGame burst.
func (s *server) enterWorld(sess *session.Session) ([]any, error) {
	sess.RuntimeID = s.world.NextRuntimeID()
	sess.UniqueID = int64(sess.RuntimeID)
	sess.Dimension = 0
	sess.ViewRadius = s.cfgWorld.viewDistanceCap

	rec, err := s.db.Players().Load(context.Background(), sess.Identity.Identity)
	if err != nil {
		return nil, fmt.Errorf("loading player record: %w", err)
	}
	if rec != nil {
		sess.X, sess.Y, sess.Z = rec.X, rec.Y, rec.Z
		sess.Pitch, sess.Yaw = rec.Pitch, rec.Yaw
		sess.Dimension = rec.Dimension
		sess.Gamemode = rec.Gamemode
		sess.Health = rec.Health
		sess.FoodLevel = rec.FoodLevel
		sess.Saturation = rec.Saturation
		sess.XPTotal = rec.XPTotal
		sess.XPLevel = rec.XPLevel

		var stacks []inventory.ItemStack
		if len(rec.InventoryJSON) > 0 {
			if err := json.Unmarshal(rec.InventoryJSON, &stacks); err != nil {
				return nil, fmt.Errorf("unmarshaling saved inventory: %w", err)
			}
			sess.Inventory.Restore(stacks)
		}
	}

	sess.State = session.Spawning
	return []any{
		protocol.StartGame{
			EntityUniqueID:  sess.UniqueID,
			EntityRuntimeID: sess.RuntimeID,
			WorldName:       "world",
			Dimension:       sess.Dimension,
			GameMode:        sess.Gamemode,
			SpawnX:          sess.X, SpawnY: sess.Y, SpawnZ: sess.Z,
		},
		protocol.CreativeContent{},
		protocol.CraftingData{},
		protocol.BiomeDefinitionList{},
		protocol.AvailableEntityIdentifiers{},
	}, nil
}

func (s *server) handleRequestChunkRadius(sess *session.Session, packet any) ([]any, error) {
	req := packet.(protocol.RequestChunkRadius)
	radius := req.Radius
	if radius > s.cfgWorld.viewDistanceCap {
		radius = s.cfgWorld.viewDistanceCap
	}
	sess.ViewRadius = radius
	s.trackerFor(sess.RuntimeID, sess.Dimension, radius).Radius = radius
	return []any{protocol.ChunkRadiusUpdated{Radius: radius}}, nil
}

func (s *server) handleLocalPlayerInitialized(sess *session.Session, packet any) ([]any, error) {
	sess.State = session.InGame
	s.sessions.MarkInGame(sess)
	slog.Info("player joined", "name", sess.Identity.DisplayName, "runtimeID", sess.RuntimeID)
	return nil, nil
}

func (s *server) handleMovementInput(sess *session.Session, packet any) ([]any, error) {
	in := packet.(movement.Input)

	prev := movement.Previous{
		X: sess.X, Y: sess.Y, Z: sess.Z,
		AirborneTicks: sess.AirborneTicks,
		Survival:      sess.Gamemode == 0,
	}
	outcome := movement.Validate(prev, in, blockSolidity(s.world, sess.Dimension))
	if !outcome.Accepted {
		return []any{protocol.MovePlayerPacket{
			EntityRuntimeID: sess.RuntimeID,
			X: sess.X, Y: sess.Y, Z: sess.Z,
			Pitch: sess.Pitch, Yaw: sess.Yaw, HeadYaw: sess.HeadYaw,
			Mode: protocol.MovePlayerModeReset,
		}}, nil
	}

	sess.LastDeltaY = in.Y - sess.Y
	sess.X, sess.Y, sess.Z = in.X, in.Y, in.Z
	sess.Pitch, sess.Yaw, sess.HeadYaw = in.Pitch, in.Yaw, in.HeadYaw
	sess.OnGround = outcome.NewOnGround
	sess.AirborneTicks = outcome.AirborneTicks
	sess.Sprinting = in.Sprinting
	return nil, nil
}

// handleAttackRequest resolves either a PvP or a PvE attack. The
// attacker's own position and the current tick are always taken from
// server-held state (spec.md §4.4 requires the server be authoritative
// for both), never from the inbound packet.
func (s *server) handleAttackRequest(sess *session.Session, packet any) ([]any, error) {
	ctx := context.Background()
	allowed, err := s.limiter.Allow(ctx, sess.Addr.String(), ratelimit.ActionAttack)
	if err != nil {
		return nil, fmt.Errorf("rate limiting attack: %w", err)
	}
	if !allowed {
		return nil, nil
	}

	in := packet.(attackInput)
	req := combat.AttackRequest{
		AttackerX: sess.X, AttackerY: sess.Y, AttackerZ: sess.Z,
		Attacker: combat.Attacker{
			Sprinting:  sess.Sprinting,
			Airborne:   !sess.OnGround,
			LastDeltaY: sess.LastDeltaY,
		},
		AttackerCreative: sess.Gamemode != 0,
		CurrentTick:      s.world.Time,
	}

	if target, ok := s.sessions.ByRuntimeID(in.TargetRuntimeID); ok {
		return s.resolvePlayerAttack(sess, target, req)
	}
	if mob, ok := s.world.Mob(in.TargetRuntimeID); ok {
		return s.resolveMobAttack(sess, mob, req)
	}
	return nil, nil
}

func (s *server) resolvePlayerAttack(attacker, target *session.Session, req combat.AttackRequest) ([]any, error) {
	req.TargetX, req.TargetY, req.TargetZ = target.X, target.Y, target.Z
	req.TargetDead = target.Dead
	req.TargetCreativeMode = target.Gamemode != 0
	req.LastDamageTick = target.LastDamageTick

	outcome := combat.ResolveAttack(req, target.FireTicks)
	if outcome.Rejected {
		return nil, nil
	}

	evt := plugin.Event{Name: "PlayerDamage", Fields: map[string]any{
		"attacker": attacker.Identity.DisplayName,
		"target":   target.Identity.DisplayName,
		"damage":   outcome.Result.Damage,
	}}
	if s.bridge.Dispatch(evt).Cancelled {
		return nil, nil
	}

	target.Health = combat.NormalizeHealth(target.Health-float32(outcome.Result.Damage), 20)
	target.LastDamageTick = req.CurrentTick
	target.FireTicks = outcome.FireTicks
	if target.Health <= 0 {
		target.Dead = true
	}
	return []any{protocol.EntityEvent{EntityRuntimeID: target.RuntimeID, EventID: protocol.EntityEventHurt}}, nil
}

func (s *server) resolveMobAttack(attacker *session.Session, mob *worldstore.Mob, req combat.AttackRequest) ([]any, error) {
	req.TargetX, req.TargetY, req.TargetZ = mob.Position.X, mob.Position.Y, mob.Position.Z
	req.TargetDead = mob.Dead

	outcome := combat.ResolveAttack(req, 0)
	if outcome.Rejected {
		return nil, nil
	}

	evt := plugin.Event{Name: "PlayerDamage", Fields: map[string]any{
		"attacker": attacker.Identity.DisplayName,
		"target":   mob.TypeID,
		"damage":   outcome.Result.Damage,
	}}
	if s.bridge.Dispatch(evt).Cancelled {
		return nil, nil
	}

	mob.Health = combat.NormalizeHealth(mob.Health-float32(outcome.Result.Damage), mob.MaxHealth)
	if mob.Health <= 0 {
		mob.Dead = true
	}
	return []any{protocol.EntityEvent{EntityRuntimeID: mob.RuntimeID, EventID: protocol.EntityEventHurt}}, nil
}

func (s *server) handleInventoryRequest(sess *session.Session, packet any) ([]any, error) {
	req := packet.(inventory.Request)
	engine := inventory.NewEngine(sess.Inventory, emptyRecipeBook{})

	if sess.OpenContainer != nil {
		resp := engine.ProcessWithContainer(req, 1, blockContainerSlots{sess.OpenContainer})
		return []any{resp}, nil
	}
	resp := engine.Process(req)
	return []any{resp}, nil
}

func (s *server) handleStartBreak(sess *session.Session, packet any) ([]any, error) {
	req := packet.(startBreakInput)
	sess.Breaking = session.BreakingBlock{Pos: req.Pos, Start: time.Now(), Active: true}
	return nil, nil
}

func (s *server) handleFinishBreak(sess *session.Session, packet any) ([]any, error) {
	ctx := context.Background()
	allowed, err := s.limiter.Allow(ctx, sess.Addr.String(), ratelimit.ActionBreak)
	if err != nil {
		return nil, fmt.Errorf("rate limiting break: %w", err)
	}
	if !allowed {
		return nil, nil
	}

	req := packet.(finishBreakInput)
	if !sess.Breaking.Active || sess.Breaking.Pos != req.Pos {
		return nil, nil
	}

	col, err := s.world.ChunkAt(ctx, chunkKeyOf(sess.Dimension, req.Pos), s.world.Time, 0)
	if err != nil {
		return nil, fmt.Errorf("loading chunk for break: %w", err)
	}
	blockID := col.GetBlock(int(mod16(req.Pos.X)), req.Pos.Y, int(mod16(req.Pos.Z)))
	info := s.world.Registry.Lookup(blockID)

	attempt := blockinteraction.BreakAttempt{
		Pos:            req.Pos,
		StartedAt:      sess.Breaking.Start,
		Now:            time.Now(),
		Survival:       sess.Gamemode == 0,
		ExpectedMining: time.Duration(info.Hardness * float64(time.Second)),
		BlockHardness:  info.Hardness,
	}
	outcome := blockinteraction.ValidateBreak(attempt, blockID)
	sess.Breaking.Active = false
	if !outcome.Accepted {
		return nil, nil
	}

	evt := plugin.Event{Name: "BlockBreak", Fields: map[string]any{"player": sess.Identity.DisplayName}}
	if s.bridge.Dispatch(evt).Cancelled {
		return nil, nil
	}

	col.SetBlock(int(mod16(req.Pos.X)), req.Pos.Y, int(mod16(req.Pos.Z)), worldstore.AirRuntimeID)
	blockinteraction.OnBlockBroken(col, req.Pos)
	return []any{protocol.UpdateBlock{X: req.Pos.X, Y: req.Pos.Y, Z: req.Pos.Z, BlockRuntimeID: uint32(worldstore.AirRuntimeID)}}, nil
}

func (s *server) handlePlaceAttempt(sess *session.Session, packet any) ([]any, error) {
	ctx := context.Background()
	allowed, err := s.limiter.Allow(ctx, sess.Addr.String(), ratelimit.ActionPlace)
	if err != nil {
		return nil, fmt.Errorf("rate limiting place: %w", err)
	}
	if !allowed {
		return nil, nil
	}

	req := packet.(placeBlockInput)
	target := blockinteraction.FaceOffset(req.Pos, req.Face)

	_, loaded := s.world.PeekChunk(chunkKeyOf(sess.Dimension, target))
	outcome := blockinteraction.ValidatePlace(blockinteraction.PlaceAttempt{
		Target:           target,
		ChunkLoaded:      loaded,
		HeldBlockRuntime: req.HeldBlockRuntime,
	})
	if !outcome.Accepted {
		return nil, nil
	}

	evt := plugin.Event{Name: "BlockPlace", Fields: map[string]any{"player": sess.Identity.DisplayName}}
	if s.bridge.Dispatch(evt).Cancelled {
		return nil, nil
	}

	col, err := s.world.ChunkAt(ctx, chunkKeyOf(sess.Dimension, target), s.world.Time, 0)
	if err != nil {
		return nil, fmt.Errorf("loading chunk for place: %w", err)
	}
	col.SetBlock(int(mod16(target.X)), target.Y, int(mod16(target.Z)), req.HeldBlockRuntime)
	blockinteraction.OnBlockPlaced(col, target, req.PlacedState)
	return []any{protocol.UpdateBlock{X: target.X, Y: target.Y, Z: target.Z, BlockRuntimeID: uint32(req.HeldBlockRuntime)}}, nil
}

func (s *server) handleChat(sess *session.Session, packet any) ([]any, error) {
	req := packet.(protocol.TextPacket)

	evt := plugin.Event{Name: "PlayerChat", Fields: map[string]any{
		"player":  sess.Identity.DisplayName,
		"message": req.Message,
	}}
	if s.bridge.Dispatch(evt).Cancelled {
		return nil, nil
	}

	out := protocol.TextPacket{Type: protocol.TextTypeChat, Source: sess.Identity.DisplayName, Message: req.Message}
	s.broadcast(out)
	return nil, nil
}

func (s *server) handleCommandRequest(sess *session.Session, packet any) ([]any, error) {
	ctx := context.Background()
	allowed, err := s.limiter.Allow(ctx, sess.Addr.String(), ratelimit.ActionCommand)
	if err != nil {
		return nil, fmt.Errorf("rate limiting command: %w", err)
	}
	if !allowed {
		return nil, nil
	}

	req := packet.(protocol.CommandRequest)

	isOp, err := s.db.Ops().IsOp(ctx, sess.Identity.XUID)
	if err != nil {
		return nil, fmt.Errorf("checking operator status: %w", err)
	}
	issuer := command.Issuer{
		DisplayName: sess.Identity.DisplayName,
		XUID:        sess.Identity.XUID,
		IsOperator:  isOp,
	}

	svc := &command.Services{
		Sessions:  s.sessions,
		World:     s.world,
		Ops:       s.db.Ops(),
		Bans:      s.db.Bans(),
		Whitelist: s.db.Whitelist(),
	}

	result, err := s.commands.Dispatch(ctx, svc, issuer, req.CommandLine)
	if err != nil {
		return []any{protocol.CommandOutput{Success: false, Messages: []string{err.Error()}}}, nil
	}
	if result.Success && isOp && strings.HasPrefix(req.CommandLine, "stop") && s.shutdown != nil {
		s.shutdown()
	}
	return []any{protocol.CommandOutput{Success: result.Success, Messages: result.Messages}}, nil
}

func (s *server) handleRespawn(sess *session.Session, packet any) ([]any, error) {
	req := packet.(protocol.RespawnPacket)
	if req.State != protocol.RespawnStateClientReady || !sess.Dead {
		return nil, nil
	}
	respawn := combat.RespawnAt(s.cfgWorld.spawnX, s.cfgWorld.spawnY, s.cfgWorld.spawnZ, 20)
	sess.Health = respawn.Health
	sess.FireTicks = respawn.FireTicks
	sess.FallDistance = respawn.FallDistance
	sess.X, sess.Y, sess.Z = respawn.X, respawn.Y, respawn.Z
	sess.Dead = false
	return []any{protocol.RespawnPacket{X: float32(sess.X), Y: float32(sess.Y), Z: float32(sess.Z), State: protocol.RespawnStateReadyToSpawn}}, nil
}

// blockSolidity adapts a World+dimension into the callback
// movement.Validate needs, without movement depending on worldstore.World
// directly.
func blockSolidity(w *worldstore.World, dimension int32) movement.BlockSolidity {
	return func(pos worldstore.BlockPos) bool {
		col, ok := w.PeekChunk(chunkKeyOf(dimension, pos))
		if !ok {
			return false
		}
		id := col.GetBlock(int(mod16(pos.X)), pos.Y, int(mod16(pos.Z)))
		return w.Registry.IsSolid(id)
	}
}

func chunkKeyOf(dimension int32, pos worldstore.BlockPos) worldstore.ChunkKey {
	return worldstore.ChunkKey{Dimension: dimension, CX: floorDiv16(pos.X), CZ: floorDiv16(pos.Z)}
}

func floorDiv16(v int32) int32 {
	return int32(math.Floor(float64(v) / 16))
}

func mod16(v int32) int32 {
	m := v % 16
	if m < 0 {
		m += 16
	}
	return m
}

// emptyRecipeBook is the stand-in inventory.RecipeBook: the real
// crafting-recipe catalog is item/data content, an external
// collaborator per spec.md §1, not core logic.
type emptyRecipeBook struct{}

func (emptyRecipeBook) Recipe(int32) (inventory.Recipe, bool) { return inventory.Recipe{}, false }

// blockContainerSlots adapts a worldstore.BlockEntity's Slots to
// inventory.ItemSlotRef so ProcessWithContainer can route actions
// straight into an open chest's backing array.
type blockContainerSlots struct{ be *worldstore.BlockEntity }

func (b blockContainerSlots) Len() int { return len(b.be.Slots) }

func (b blockContainerSlots) Get(index int) inventory.ItemStack {
	sl := b.be.Slots[index]
	return inventory.ItemStack{RuntimeID: sl.RuntimeID, Count: sl.Count, Damage: sl.Damage, NBT: sl.NBT}
}

func (b blockContainerSlots) Set(index int, v inventory.ItemStack) {
	b.be.Slots[index] = worldstore.ItemSlot{RuntimeID: v.RuntimeID, Count: v.Count, Damage: v.Damage, NBT: v.NBT}
}

// broadcast encodes out separately for every in-game session (each
// negotiated its own compression/cipher state) and queues it on that
// session's connection.
func (s *server) broadcast(out any) {
	s.sessions.ForEachInGame(func(sess *session.Session) bool {
		s.sendTo(sess, out)
		return true
	})
}

// sendTo encodes out for sess and queues it on sess's connection, if
// any. Handlers that only need to answer their own caller use this
// directly instead of returning values for the dispatch loop to encode.
func (s *server) sendTo(sess *session.Session, out any) {
	framed, err := s.encode(sess, out)
	if err != nil {
		slog.Error("encoding packet", "err", err, "runtimeID", sess.RuntimeID)
		return
	}
	if conn, ok := s.connByAddr(sess.Addr.String()); ok {
		conn.Send(framed)
	}
}
