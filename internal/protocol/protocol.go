// Package protocol defines the wire-level contracts the core consumes
// from the Bedrock packet codec. The codec itself (byte layouts, NBT,
// VarInt encoding) is an external collaborator per the project scope;
// this package only carries the identifiers and small value types the
// core needs to reason about packets without depending on their
// concrete encoding.
package protocol

// PacketID identifies a decoded sub-packet inside a batch.
type PacketID uint32

// Sub-packet identifiers the core dispatches on. Values are stable
// small integers; the real wire ids are assigned by the codec.
const (
	IDRequestNetworkSettings PacketID = iota + 1
	IDNetworkSettings
	IDLogin
	IDPlayStatus
	IDServerToClientHandshake
	IDClientToServerHandshake
	IDDisconnect
	IDResourcePacksInfo
	IDResourcePackClientResponse
	IDResourcePackStack
	IDResourcePackChunkRequest
	IDResourcePackChunkData
	IDStartGame
	IDCreativeContent
	IDCraftingData
	IDBiomeDefinitionList
	IDAvailableEntityIdentifiers
	IDAvailableCommands
	IDRequestChunkRadius
	IDChunkRadiusUpdated
	IDLevelChunk
	IDSetLocalPlayerAsInitialized
	IDPlayerList
	IDAddPlayer
	IDAddActor
	IDRemoveActor
	IDText
	IDPlayerAuthInput
	IDMovePlayer
	IDMoveActorAbsolute
	IDInventoryTransaction
	IDItemStackRequest
	IDItemStackResponse
	IDMobEquipment
	IDPlayerAction
	IDUpdateBlock
	IDLevelEvent
	IDBlockActorData
	IDEntityEvent
	IDUpdateAttributes
	IDSetActorMotion
	IDMobEffect
	IDRespawn
	IDNetworkChunkPublisherUpdate
	IDSetTime
	IDSetDifficulty
	IDCommandRequest
	IDCommandOutput
)

// PlayStatus is the status code carried by a PlayStatus packet.
type PlayStatus int32

const (
	PlayStatusLoginSuccess PlayStatus = iota
	PlayStatusFailedClient
	PlayStatusFailedServer
	PlayStatusPlayerSpawn
	PlayStatusFailedInvalidTenant
	PlayStatusFailedVanillaEdu
	PlayStatusFailedIncompatiblePack
	PlayStatusFailedServerFull
)

// DisconnectReason identifies why a Disconnect packet was sent.
type DisconnectReason int32

const (
	DisconnectUnknown DisconnectReason = iota
	DisconnectBanned
	DisconnectNotWhitelisted
	DisconnectLoginFailed
	DisconnectBadPacket
	DisconnectKicked
	DisconnectServerFull
	DisconnectServerShutdown
)

// MovePlayerMode distinguishes a normal movement update from a forced
// server correction.
type MovePlayerMode int32

const (
	MovePlayerModeNormal MovePlayerMode = iota
	MovePlayerModeReset
	MovePlayerModeTeleport
	MovePlayerModeRotation
)

// CompressionAlgorithm is the negotiated batch compression scheme.
type CompressionAlgorithm int32

const (
	CompressionNone CompressionAlgorithm = iota
	CompressionZlib
	CompressionSnappy
)

// Sub is one decoded sub-packet: an id plus an opaque payload the
// relevant handler knows how to interpret. The concrete payload types
// live alongside their handlers (e.g. PlayerAuthInput in package
// movement) to keep this package free of a dependency cycle.
type Sub struct {
	ID      PacketID
	Payload any
}

// Outbound is a packet queued for delivery to one or more sessions.
type Outbound struct {
	ID      PacketID
	Payload any
}
