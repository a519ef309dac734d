package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bedrockcore/server/internal/config"
	"github.com/bedrockcore/server/internal/crypto"
	"github.com/bedrockcore/server/internal/db"
	"github.com/bedrockcore/server/internal/protocol"
)

// BanChecker and WhitelistChecker narrow internal/db's repositories to
// what the login pipeline needs, so this package can be tested without
// a real database (spec.md §4.1 step 2).
type BanChecker interface {
	IsIPBanned(ctx context.Context, ip string) (bool, error)
	IsPlayerBanned(ctx context.Context, xuid string) (bool, string, error)
}

type WhitelistChecker interface {
	IsWhitelisted(ctx context.Context, xuid string) (bool, error)
}

var _ BanChecker = (*db.BanRepository)(nil)
var _ WhitelistChecker = (*db.WhitelistRepository)(nil)

// Pipeline drives the login state machine (spec.md §4.1). One Pipeline
// is shared across all sessions; it carries no per-session state of its
// own beyond its collaborators.
type Pipeline struct {
	cfg        *config.Config
	bans       BanChecker
	whitelist  WhitelistChecker
	minProto   int32
	maxProto   int32
}

// NewPipeline builds a login pipeline bound to the server's ban/
// whitelist stores and the supported protocol range.
func NewPipeline(cfg *config.Config, bans BanChecker, whitelist WhitelistChecker, minProto, maxProto int32) *Pipeline {
	return &Pipeline{cfg: cfg, bans: bans, whitelist: whitelist, minProto: minProto, maxProto: maxProto}
}

// HandleRequestNetworkSettings is step 1 of spec.md §4.1.
func (p *Pipeline) HandleRequestNetworkSettings(s *Session, req protocol.RequestNetworkSettings) []protocol.Outbound {
	if s.State != AwaitingNetworkSettings {
		slog.Warn("RequestNetworkSettings in wrong state", "addr", s.Addr, "state", s.State)
		return nil
	}

	if req.ClientProtocol < p.minProto {
		return []protocol.Outbound{{ID: protocol.IDPlayStatus, Payload: protocol.PlayStatusPacket{Status: protocol.PlayStatusFailedClient}}}
	}
	if req.ClientProtocol > p.maxProto {
		return []protocol.Outbound{{ID: protocol.IDPlayStatus, Payload: protocol.PlayStatusPacket{Status: protocol.PlayStatusFailedServer}}}
	}

	s.ProtocolVersion = req.ClientProtocol
	s.CompressionAlgorithm = protocol.CompressionZlib
	s.CompressionThreshold = 256

	s.TryTransition(AwaitingLogin)
	return []protocol.Outbound{{
		ID: protocol.IDNetworkSettings,
		Payload: protocol.NetworkSettings{
			CompressionAlgorithm: s.CompressionAlgorithm,
			CompressionThreshold: s.CompressionThreshold,
		},
	}}
}

// HandleLogin is step 2 of spec.md §4.1. remoteIP is the client's
// source address, checked against the IP ban list before the
// player-ban and whitelist checks.
func (p *Pipeline) HandleLogin(ctx context.Context, s *Session, login protocol.Login, remoteIP string) []protocol.Outbound {
	if s.State != AwaitingLogin {
		slog.Warn("Login in wrong state", "addr", s.Addr, "state", s.State)
		return nil
	}

	identity, err := crypto.ParseIdentityChain(login.IdentityChainJWT)
	if err != nil {
		return p.loginFailure(s, protocol.DisconnectLoginFailed, "malformed identity chain")
	}
	clientData, err := crypto.ParseClientData(login.ClientDataJWT)
	if err != nil {
		return p.loginFailure(s, protocol.DisconnectLoginFailed, "malformed client data")
	}
	s.Identity = identity
	s.ClientData = clientData

	if banned, err := p.bans.IsIPBanned(ctx, remoteIP); err != nil {
		slog.Warn("ip ban check failed", "error", err)
	} else if banned {
		return p.loginFailure(s, protocol.DisconnectBanned, "Your IP address is banned from this server")
	}

	if banned, reason, err := p.bans.IsPlayerBanned(ctx, identity.XUID); err != nil {
		slog.Warn("player ban check failed", "error", err)
	} else if banned {
		return p.loginFailure(s, protocol.DisconnectBanned, fmt.Sprintf("You are banned: %s", reason))
	}

	if p.cfg.Permissions.WhitelistEnabled {
		whitelisted, err := p.whitelist.IsWhitelisted(ctx, identity.XUID)
		if err != nil {
			slog.Warn("whitelist check failed", "error", err)
		} else if !whitelisted {
			return p.loginFailure(s, protocol.DisconnectNotWhitelisted, "You are not whitelisted on this server")
		}
	}

	if !p.cfg.Server.OnlineMode {
		s.TryTransition(LoggedIn)
		return []protocol.Outbound{{ID: protocol.IDPlayStatus, Payload: protocol.PlayStatusPacket{Status: protocol.PlayStatusLoginSuccess}}}
	}

	hs, err := crypto.NewHandshake()
	if err != nil {
		return p.loginFailure(s, protocol.DisconnectLoginFailed, "failed to start encryption handshake")
	}
	s.handshake = hs

	token, err := crypto.SignHandshakeJWT(hs.ServerPublicKeyDER(), hs.Salt())
	if err != nil {
		return p.loginFailure(s, protocol.DisconnectLoginFailed, "failed to sign handshake token")
	}

	s.TryTransition(AwaitingHandshake)
	return []protocol.Outbound{{
		ID:      protocol.IDServerToClientHandshake,
		Payload: protocol.ServerToClientHandshake{JWT: token},
	}}
}

func (p *Pipeline) loginFailure(s *Session, reason protocol.DisconnectReason, message string) []protocol.Outbound {
	return []protocol.Outbound{{
		ID:      protocol.IDDisconnect,
		Payload: protocol.DisconnectPacket{Reason: reason, Message: message},
	}}
}

// HandleClientToServerHandshake is step 3 of spec.md §4.1.
func (p *Pipeline) HandleClientToServerHandshake(s *Session, hs protocol.ClientToServerHandshake) []protocol.Outbound {
	if s.State != AwaitingHandshake {
		slog.Warn("ClientToServerHandshake in wrong state", "addr", s.Addr, "state", s.State)
		return nil
	}
	if s.handshake == nil {
		return p.loginFailure(s, protocol.DisconnectLoginFailed, "handshake not started")
	}

	cipher, err := s.handshake.DeriveSession(hs.ClientPublicKeyDER)
	if err != nil {
		return p.loginFailure(s, protocol.DisconnectLoginFailed, "failed to derive encryption key")
	}
	s.Cipher = cipher
	s.handshake = nil

	s.TryTransition(LoggedIn)
	return []protocol.Outbound{{ID: protocol.IDPlayStatus, Payload: protocol.PlayStatusPacket{Status: protocol.PlayStatusLoginSuccess}}}
}

// HandleLoggedIn sends the resource pack negotiation opener once a
// session reaches LoggedIn (spec.md §4.1 step 4).
func (p *Pipeline) HandleLoggedIn(s *Session, packs []protocol.PackEntry) []protocol.Outbound {
	if s.State != LoggedIn {
		return nil
	}
	s.TryTransition(AwaitingResourcePackResponse)
	return []protocol.Outbound{{ID: protocol.IDResourcePacksInfo, Payload: protocol.ResourcePacksInfo{ResourcePacks: packs}}}
}

// HandleResourcePackClientResponse is the remainder of step 4.
func (p *Pipeline) HandleResourcePackClientResponse(s *Session, resp protocol.ResourcePackClientResponse, stack protocol.ResourcePackStack) []protocol.Outbound {
	if s.State != AwaitingResourcePackResponse && s.State != AwaitingResourcePackComplete {
		slog.Warn("ResourcePackClientResponse in wrong state", "addr", s.Addr, "state", s.State)
		return nil
	}

	switch resp.Status {
	case protocol.ResourcePackStatusHaveAllPacks:
		s.TryTransition(AwaitingResourcePackComplete)
		return []protocol.Outbound{{ID: protocol.IDResourcePackStack, Payload: stack}}
	case protocol.ResourcePackStatusCompleted:
		s.TryTransition(Spawning)
		return nil // caller proceeds to world init (HandleWorldInit)
	default:
		// SendPacks and other intermediate statuses are handled by the
		// transport's chunked pack-data streaming, not the login
		// pipeline itself.
		return nil
	}
}

// WorldInit carries everything HandleWorldInit needs to build the
// StartGame sequence (spec.md §4.1 step 5).
type WorldInit struct {
	StartGame      protocol.StartGame
	Creative       protocol.CreativeContent
	Crafting       protocol.CraftingData
	Biomes         protocol.BiomeDefinitionList
	EntityIDs      protocol.AvailableEntityIdentifiers
	Commands       protocol.AvailableCommands
}

// HandleWorldInit sends the fixed world-init packet sequence (spec.md
// §4.1 step 5: "StartGame, then in order: creative contents, crafting
// recipes, biome list, entity-identifier list, command list").
func (p *Pipeline) HandleWorldInit(s *Session, w WorldInit) []protocol.Outbound {
	if s.State != Spawning {
		slog.Warn("world init attempted outside Spawning", "addr", s.Addr, "state", s.State)
	}
	return []protocol.Outbound{
		{ID: protocol.IDStartGame, Payload: w.StartGame},
		{ID: protocol.IDCreativeContent, Payload: w.Creative},
		{ID: protocol.IDCraftingData, Payload: w.Crafting},
		{ID: protocol.IDBiomeDefinitionList, Payload: w.Biomes},
		{ID: protocol.IDAvailableEntityIdentifiers, Payload: w.EntityIDs},
		{ID: protocol.IDAvailableCommands, Payload: w.Commands},
	}
}

// HandleRequestChunkRadius is the first half of step 6 of spec.md
// §4.1: clamp and acknowledge the requested view radius.
func (p *Pipeline) HandleRequestChunkRadius(s *Session, req protocol.RequestChunkRadius, serverCap int32) []protocol.Outbound {
	radius := req.Radius
	if radius > serverCap {
		radius = serverCap
	}
	if radius < 1 {
		radius = 1
	}
	s.ViewRadius = radius
	return []protocol.Outbound{{ID: protocol.IDChunkRadiusUpdated, Payload: protocol.ChunkRadiusUpdated{Radius: radius}}}
}

// SpawnAnnouncement is what HandleSetLocalPlayerAsInitialized needs
// from the caller to build the broadcast set (spec.md §4.1 step 6):
// the new player's own entries plus the existing roster/mob list it
// must be shown.
type SpawnAnnouncement struct {
	SelfPlayerList  protocol.PlayerListEntry
	SelfAddPlayer   protocol.AddPlayer
	ExistingPlayers []protocol.PlayerListEntry
	ExistingAdds    []protocol.AddPlayer
	VisibleMobs     []protocol.AddActor
	JoinMessage     string
}

// HandleSetLocalPlayerAsInitialized completes step 6: it returns the
// packets to send to the newly spawned session (existing roster plus
// visible mobs) and the packets to broadcast to every other InGame
// session (the new player's own list/add-player entries plus the join
// message), and finally transitions this session to InGame — the only
// state in which broadcasts may announce it (spec.md §8 property 1).
func (p *Pipeline) HandleSetLocalPlayerAsInitialized(s *Session, ann SpawnAnnouncement) (toSelf, toOthers []protocol.Outbound) {
	if s.State != Spawning {
		slog.Warn("SetLocalPlayerAsInitialized outside Spawning", "addr", s.Addr, "state", s.State)
		return nil, nil
	}

	for _, entry := range ann.ExistingPlayers {
		toSelf = append(toSelf, protocol.Outbound{ID: protocol.IDPlayerList, Payload: protocol.PlayerList{Entries: []protocol.PlayerListEntry{entry}}})
	}
	for _, add := range ann.ExistingAdds {
		toSelf = append(toSelf, protocol.Outbound{ID: protocol.IDAddPlayer, Payload: add})
	}
	for _, mob := range ann.VisibleMobs {
		toSelf = append(toSelf, protocol.Outbound{ID: protocol.IDAddActor, Payload: mob})
	}

	toOthers = append(toOthers,
		protocol.Outbound{ID: protocol.IDPlayerList, Payload: protocol.PlayerList{Entries: []protocol.PlayerListEntry{ann.SelfPlayerList}}},
		protocol.Outbound{ID: protocol.IDAddPlayer, Payload: ann.SelfAddPlayer},
	)
	if ann.JoinMessage != "" {
		toOthers = append(toOthers, protocol.Outbound{ID: protocol.IDText, Payload: protocol.TextPacket{Type: protocol.TextTypeSystem, Message: ann.JoinMessage}})
	}

	s.TryTransition(InGame)
	return toSelf, toOthers
}
