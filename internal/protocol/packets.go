package protocol

// Payload types for the sub-packets the core produces or consumes.
// These mirror the fields spec.md names for each packet; the codec is
// responsible for turning these into wire bytes and back.

type RequestNetworkSettings struct {
	ClientProtocol int32
}

type NetworkSettings struct {
	CompressionAlgorithm CompressionAlgorithm
	CompressionThreshold uint16
}

type Login struct {
	IdentityChainJWT string
	ClientDataJWT    string
}

type LoginIdentity struct {
	Identity  string // XUID or offline-mode stable id
	XUID      string
	DisplayName string
	PublicKeyDER string // base64 identityPublicKey
}

type ClientDescription struct {
	SkinID      string
	DeviceOS    int32
	DeviceID    string
	PlayFabID   string
}

type PlayStatusPacket struct {
	Status PlayStatus
}

type ServerToClientHandshake struct {
	JWT string // x5u = server pubkey, payload {salt}
}

type ClientToServerHandshake struct {
	ClientPublicKeyDER []byte
}

type DisconnectPacket struct {
	Reason  DisconnectReason
	Message string
}

type ResourcePacksInfo struct {
	BehaviorPacks []PackEntry
	ResourcePacks []PackEntry
	MustAccept    bool
}

type PackEntry struct {
	UUID    string
	Version string
	SizeBytes uint64
}

type ResourcePackClientResponse struct {
	Status  ResourcePackStatus
	PackIDs []string
}

type ResourcePackStatus int32

const (
	ResourcePackStatusRefused ResourcePackStatus = iota
	ResourcePackStatusSendPacks
	ResourcePackStatusHaveAllPacks
	ResourcePackStatusCompleted
)

type ResourcePackChunkRequest struct {
	PackID string
	ChunkIndex uint32
}

type ResourcePackChunkData struct {
	PackID     string
	ChunkIndex uint32
	Data       []byte
}

type ResourcePackStack struct {
	BehaviorPacks []PackEntry
	ResourcePacks []PackEntry
}

type StartGame struct {
	EntityUniqueID  int64
	EntityRuntimeID uint64
	WorldName       string
	Seed            int64
	Dimension       int32
	GameMode        int32
	SpawnX, SpawnY, SpawnZ float64
}

type CreativeContent struct {
	Items []int32
}

type CraftingData struct {
	RecipeCount int32
}

type BiomeDefinitionList struct{}

type AvailableEntityIdentifiers struct{}

type AvailableCommands struct {
	Names []string
}

type RequestChunkRadius struct {
	Radius int32
}

type ChunkRadiusUpdated struct {
	Radius int32
}

type LevelChunk struct {
	CX, CZ int32
	Dimension int32
}

type SetLocalPlayerAsInitialized struct {
	EntityRuntimeID uint64
}

type PlayerListEntry struct {
	UUID        string
	EntityUniqueID int64
	DisplayName string
}

type PlayerList struct {
	Entries []PlayerListEntry
	Remove  bool
}

type AddPlayer struct {
	UUID string
	Username string
	EntityUniqueID int64
	EntityRuntimeID uint64
	X, Y, Z float64
}

type AddActor struct {
	EntityUniqueID  int64
	EntityRuntimeID uint64
	EntityType      string
	X, Y, Z         float64
}

type RemoveActor struct {
	EntityUniqueID int64
}

type TextPacket struct {
	Type    TextType
	Source  string
	Message string
}

type TextType int32

const (
	TextTypeChat TextType = iota
	TextTypeSystem
	TextTypeTip
	TextTypePopup
)

type MovePlayerPacket struct {
	EntityRuntimeID uint64
	X, Y, Z         float64
	Pitch, Yaw, HeadYaw float32
	Mode            MovePlayerMode
	OnGround        bool
}

type MoveActorAbsolute struct {
	EntityRuntimeID uint64
	X, Y, Z         float64
}

type MobEquipment struct {
	EntityRuntimeID uint64
	Slot            int32
	RuntimeItemID   int32
}

type UpdateBlock struct {
	X, Y, Z   int32
	BlockRuntimeID uint32
}

type LevelEvent struct {
	EventID int32
	X, Y, Z float32
	Data    int32
}

const (
	LevelEventDestroyBlock int32 = 3600
	LevelEventStartRain    int32 = 3001
	LevelEventStopRain     int32 = 3002
	LevelEventStartThunder int32 = 3003
	LevelEventStopThunder  int32 = 3004
)

type BlockActorData struct {
	X, Y, Z int32
	NBT     map[string]any
}

type EntityEvent struct {
	EntityRuntimeID uint64
	EventID         int32
	Data            int32
}

const (
	EntityEventHurt int32 = 2
	EntityEventDeath int32 = 3
	EntityEventCritical int32 = 4
)

type UpdateAttributes struct {
	EntityRuntimeID uint64
	Health          float32
	MaxHealth       float32
}

type SetActorMotion struct {
	EntityRuntimeID uint64
	VX, VY, VZ      float32
}

type MobEffectPacket struct {
	EntityRuntimeID uint64
	Add             bool
	EffectID        int32
	Amplifier       int32
	DurationTicks   int32
}

type RespawnPacket struct {
	X, Y, Z float32
	State   RespawnState
}

type RespawnState int32

const (
	RespawnStateSearchingSpawn RespawnState = iota
	RespawnStateReadyToSpawn
	RespawnStateClientReady
)

type NetworkChunkPublisherUpdate struct {
	X, Y, Z int32
	Radius  uint32
}

type SetTimePacket struct {
	Time int64
}

type CommandRequest struct {
	CommandLine string
}

type CommandOutput struct {
	Success bool
	Messages []string
}
