package serverbound

import (
	"cobble/protocol"
)

type ClientStatusAction interface {
	clientStatusAction()
}

type (
	PerformRespawn struct{}
	RequestStats   struct{}
)

func (PerformRespawn) clientStatusAction() {}
func (RequestStats) clientStatusAction()   {}

var ClientStatusActions = protocol.RegisterVariant[ClientStatusAction]("ClientStatus", protocol.VarInt,
	protocol.Case(0, "PerformRespawn", PerformRespawn{}),
	protocol.Case(1, "RequestStats", RequestStats{}),
)

type ChatMode interface {
	chatMode()
}

type (
	ChatModeEnabled      struct{}
	ChatModeCommandsOnly struct{}
	ChatModeHidden       struct{}
)

func (ChatModeEnabled) chatMode()      {}
func (ChatModeCommandsOnly) chatMode() {}
func (ChatModeHidden) chatMode()       {}

var ChatModes = protocol.RegisterVariant[ChatMode]("ChatMode", protocol.VarInt,
	protocol.Case(0, "Enabled", ChatModeEnabled{}),
	protocol.Case(1, "CommandsOnly", ChatModeCommandsOnly{}),
	protocol.Case(2, "Hidden", ChatModeHidden{}),
)

type InteractEntityKind interface {
	interactEntityKind()
}

type (
	Interact struct{}
	Attack   struct{}
	// InteractAt carries the point on the entity's hitbox that was used.
	InteractAt struct {
		TargetX, TargetY, TargetZ float64
		Hand                      int32 `wire:"varint"`
	}
)

func (Interact) interactEntityKind()   {}
func (Attack) interactEntityKind()     {}
func (InteractAt) interactEntityKind() {}

var InteractEntityKinds = protocol.RegisterVariant[InteractEntityKind]("InteractEntityKind", protocol.VarInt,
	protocol.Case(0, "Interact", Interact{}),
	protocol.Case(1, "Attack", Attack{}),
	protocol.Case(2, "InteractAt", InteractAt{}),
)

type PlayerDiggingStatus interface {
	playerDiggingStatus()
}

type (
	StartDigging   struct{}
	CancelDigging  struct{}
	FinishDigging  struct{}
	DropItemStack  struct{}
	DropItem       struct{}
	ShootArrow     struct{}
	SwapItemInHand struct{}
)

func (StartDigging) playerDiggingStatus()   {}
func (CancelDigging) playerDiggingStatus()  {}
func (FinishDigging) playerDiggingStatus()  {}
func (DropItemStack) playerDiggingStatus()  {}
func (DropItem) playerDiggingStatus()       {}
func (ShootArrow) playerDiggingStatus()     {}
func (SwapItemInHand) playerDiggingStatus() {}

var PlayerDiggingStatuses = protocol.RegisterVariant[PlayerDiggingStatus]("PlayerDiggingStatus", protocol.VarInt,
	protocol.Case(0, "StartDigging", StartDigging{}),
	protocol.Case(1, "CancelDigging", CancelDigging{}),
	protocol.Case(2, "FinishDigging", FinishDigging{}),
	protocol.Case(3, "DropItemStack", DropItemStack{}),
	protocol.Case(4, "DropItem", DropItem{}),
	protocol.Case(5, "ShootArrow", ShootArrow{}),
	protocol.Case(6, "SwapItemInHand", SwapItemInHand{}),
)

type EntityActionKind interface {
	entityActionKind()
}

type (
	StartSneaking      struct{}
	StopSneaking       struct{}
	LeaveBed           struct{}
	StartSprinting     struct{}
	StopSprinting      struct{}
	StartHorseJump     struct{}
	StopHorseJump      struct{}
	OpenHorseInventory struct{}
	StartElytraFlight  struct{}
)

func (StartSneaking) entityActionKind()      {}
func (StopSneaking) entityActionKind()       {}
func (LeaveBed) entityActionKind()           {}
func (StartSprinting) entityActionKind()     {}
func (StopSprinting) entityActionKind()      {}
func (StartHorseJump) entityActionKind()     {}
func (StopHorseJump) entityActionKind()      {}
func (OpenHorseInventory) entityActionKind() {}
func (StartElytraFlight) entityActionKind()  {}

var EntityActionKinds = protocol.RegisterVariant[EntityActionKind]("EntityActionKind", protocol.VarInt,
	protocol.Case(0, "StartSneaking", StartSneaking{}),
	protocol.Case(1, "StopSneaking", StopSneaking{}),
	protocol.Case(2, "LeaveBed", LeaveBed{}),
	protocol.Case(3, "StartSprinting", StartSprinting{}),
	protocol.Case(4, "StopSprinting", StopSprinting{}),
	protocol.Case(5, "StartHorseJump", StartHorseJump{}),
	protocol.Case(6, "StopHorseJump", StopHorseJump{}),
	protocol.Case(7, "OpenHorseInventory", OpenHorseInventory{}),
	protocol.Case(8, "StartElytraFlight", StartElytraFlight{}),
)

type RecipeBookAction interface {
	recipeBookAction()
}

type DisplayedRecipe struct {
	RecipeID string
}

type RecipeBookStates struct {
	CraftingOpen   bool
	CraftingFilter bool
	SmeltingOpen   bool
	SmeltingFilter bool
	BlastingOpen   bool
	BlastingFilter bool
	SmokingOpen    bool
	SmokingFilter  bool
}

func (DisplayedRecipe) recipeBookAction()  {}
func (RecipeBookStates) recipeBookAction() {}

var RecipeBookActions = protocol.RegisterVariant[RecipeBookAction]("RecipeBookData", protocol.VarInt,
	protocol.Case(0, "DisplayedRecipe", DisplayedRecipe{}),
	protocol.Case(1, "RecipeBookStates", RecipeBookStates{}),
)
