package clientbound

import (
	"github.com/google/uuid"

	"cobble/protocol"
	"cobble/protocol/nbt"
)

type SpawnPlayer struct {
	EntityID   int32 `wire:"varint"`
	PlayerUUID uuid.UUID
	X, Y, Z    float64
	Yaw        float32 `wire:"angle"`
	Pitch      float32 `wire:"angle"`
}

type EntityAnimation struct {
	EntityID  int32 `wire:"varint"`
	Animation uint8
}

type BlockEntityData struct {
	Location protocol.BlockPosition
	Action   uint8
	NBTData  *nbt.Blob
}

type BlockChange struct {
	Location protocol.BlockPosition
	BlockID  int32 `wire:"varint"`
}

// ChatMessage positions: 0 chat box, 1 system message, 2 above the hotbar.
type ChatMessage struct {
	JSONData string
	Position int8
	Sender   uuid.UUID
}

type SetSlot struct {
	WindowID int8
	Slot     int16
	SlotData protocol.Slot
}

type PluginMessage struct {
	Channel string
	Data    []byte `wire:"rest"`
}

type Disconnect struct {
	Reason string
}

type UnloadChunk struct {
	ChunkX int32
	ChunkZ int32
}

type ChangeGameState struct {
	Reason uint8
	Value  float32
}

type KeepAlive struct {
	ID uint64
}

type JoinGame struct {
	EntityID            int32
	IsHardcore          bool
	Gamemode            uint8
	PreviousGamemode    int8
	WorldNames          []string
	DimensionCodec      *nbt.Blob
	Dimension           *nbt.Blob
	WorldName           string
	HashedSeed          int64
	MaxPlayers          int32 `wire:"varint"`
	ViewDistance        int32 `wire:"varint"`
	ReducedDebugInfo    bool
	EnableRespawnScreen bool
	IsDebug             bool
	IsFlat              bool
}

// EntityPosition deltas are in 1/4096 of a block.
type EntityPosition struct {
	EntityID               int32 `wire:"varint"`
	DeltaX, DeltaY, DeltaZ int16
	OnGround               bool
}

type EntityPositionAndRotation struct {
	EntityID               int32 `wire:"varint"`
	DeltaX, DeltaY, DeltaZ int16
	Yaw                    float32 `wire:"angle"`
	Pitch                  float32 `wire:"angle"`
	OnGround               bool
}

type EntityRotation struct {
	EntityID int32   `wire:"varint"`
	Yaw      float32 `wire:"angle"`
	Pitch    float32 `wire:"angle"`
	OnGround bool
}

type PlayerPositionAndLook struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	Flags      int8
	TeleportID int32 `wire:"varint"`
}

type DestroyEntities struct {
	EntityIDs []int32 `wire:"seq(varint)"`
}

type EntityHeadLook struct {
	EntityID int32   `wire:"varint"`
	HeadYaw  float32 `wire:"angle"`
}

type HeldItemChange struct {
	Slot int8
}

type SpawnPosition struct {
	Location protocol.BlockPosition
}

type TimeUpdate struct {
	WorldAge  int64
	TimeOfDay int64
}

type EntityTeleport struct {
	EntityID int32 `wire:"varint"`
	X, Y, Z  float64
	Yaw      float32 `wire:"angle"`
	Pitch    float32 `wire:"angle"`
	OnGround bool
}
