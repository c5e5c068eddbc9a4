package serverbound

import (
	"github.com/google/uuid"

	"cobble/protocol"
)

type TeleportConfirm struct {
	TeleportID int32 `wire:"varint"`
}

type QueryBlockNbt struct {
	TransactionID int32 `wire:"varint"`
	Position      protocol.BlockPosition
}

type SetDifficulty struct {
	NewDifficulty uint8
}

type ChatMessage struct {
	Message string
}

type ClientStatus struct {
	Action ClientStatusAction
}

type ClientSettings struct {
	Locale             string
	ViewDistance       uint8
	ChatMode           ChatMode
	ChatColors         bool
	DisplayedSkinParts uint8
	MainHand           int32 `wire:"varint"`
}

type TabComplete struct {
	TransactionID int32 `wire:"varint"`
	Text          string
}

type WindowConfirmation struct {
	WindowID     uint8
	ActionNumber uint16
	Accepted     bool
}

type ClickWindowButton struct {
	WindowID uint8
	ButtonID uint8
}

type ClickWindow struct {
	WindowID     uint8
	Slot         int16
	Button       int8
	ActionNumber uint16
	Mode         int32 `wire:"varint"`
	ClickedItem  protocol.Slot
}

type CloseWindow struct {
	WindowID uint8
}

type PluginMessage struct {
	Channel string
	Data    []byte `wire:"rest"`
}

type EditBook struct {
	NewBook   protocol.Slot
	IsSigning bool
	Hand      int32 `wire:"varint"`
}

type QueryEntityNbt struct {
	TransactionID int32 `wire:"varint"`
	EntityID      int32 `wire:"varint"`
}

type InteractEntity struct {
	EntityID int32 `wire:"varint"`
	Kind     InteractEntityKind
}

type GenerateStructure struct {
	Position    protocol.BlockPosition
	Levels      int32 `wire:"varint"`
	KeepJigsaws bool
}

type KeepAlive struct {
	ID uint64
}

type LockDifficulty struct {
	Locked bool
}

type PlayerPosition struct {
	X, FeetY, Z float64
	OnGround    bool
}

type PlayerPositionAndRotation struct {
	X, FeetY, Z float64
	Yaw, Pitch  float32
	OnGround    bool
}

type PlayerRotation struct {
	Yaw, Pitch float32
	OnGround   bool
}

type PlayerMovement struct {
	OnGround bool
}

type VehicleMove struct {
	X, Y, Z    float64
	Yaw, Pitch float32
}

type SteerBoat struct {
	LeftPaddleTurning  bool
	RightPaddleTurning bool
}

type PickItem struct {
	Slot int32 `wire:"varint"`
}

type CraftRecipeRequest struct {
	WindowID uint8
	Recipe   string
	MakeAll  bool
}

type PlayerAbilities struct {
	Flags        uint8
	FlyingSpeed  float32
	WalkingSpeed float32
}

type PlayerDigging struct {
	Status   PlayerDiggingStatus
	Position protocol.BlockPosition
	Face     uint8
}

type EntityAction struct {
	EntityID  int32 `wire:"varint"`
	Action    EntityActionKind
	JumpBoost int32 `wire:"varint"`
}

type SteerVehicle struct {
	Sideways float32
	Forward  float32
	Flags    uint8
}

type RecipeBookData struct {
	Data RecipeBookAction
}

type NameItem struct {
	Name string
}

type ResourcePackStatus struct {
	Result int32 `wire:"varint"`
}

type AdvancementTab struct {
	TabID *string
}

type SelectTrade struct {
	SelectedSlot int32 `wire:"varint"`
}

type SetBeaconEffect struct {
	PrimaryEffect   int32 `wire:"varint"`
	SecondaryEffect int32 `wire:"varint"`
}

type HeldItemChange struct {
	Slot uint16
}

type UpdateCommandBlock struct {
	Position protocol.BlockPosition
	Command  string
	Mode     int32 `wire:"varint"`
	Flags    uint8
}

type UpdateCommandBlockMinecart struct {
	EntityID    int32 `wire:"varint"`
	Command     string
	TrackOutput bool
}

type CreativeInventoryAction struct {
	Slot        int16
	ClickedItem protocol.Slot
}

type UpdateJigsawBlock struct {
	Position       protocol.BlockPosition
	AttachmentType string
	TargetPool     string
	FinalState     string
}

type UpdateStructureBlock struct {
	Position                  protocol.BlockPosition
	Action                    int32 `wire:"varint"`
	Mode                      int32 `wire:"varint"`
	Name                      string
	OffsetX, OffsetY, OffsetZ int8
	SizeX, SizeY, SizeZ       int8
	Mirror                    int32 `wire:"varint"`
	Rotation                  int32 `wire:"varint"`
	Metadata                  string
	Integrity                 float32
	Seed                      uint64
	Flags                     uint8
}

type UpdateSign struct {
	Position protocol.BlockPosition
	Line1    string
	Line2    string
	Line3    string
	Line4    string
}

type Animation struct {
	Hand int32 `wire:"varint"`
}

type Spectate struct {
	TargetPlayer uuid.UUID
}

type PlayerBlockPlacement struct {
	Hand            int32 `wire:"varint"`
	Position        protocol.BlockPosition
	Face            int32 `wire:"varint"`
	CursorPositionX float32
	CursorPositionY float32
	CursorPositionZ float32
	InsideBlock     bool
}

type UseItem struct {
	Hand int32 `wire:"varint"`
}
