// Package packets binds the serverbound and clientbound packet types to
// their IDs for each connection phase.
package packets

import (
	"fmt"

	"cobble/protocol"
	cb "cobble/protocol/packets/clientbound"
	sb "cobble/protocol/packets/serverbound"
)

var (
	HandshakeServerbound = protocol.NewRegistry(protocol.Handshake, protocol.Serverbound,
		protocol.Bind[sb.Handshake](0x00),
	)
	// HandshakeClientbound is empty: the server never answers a handshake.
	HandshakeClientbound = protocol.NewRegistry(protocol.Handshake, protocol.Clientbound)

	StatusServerbound = protocol.NewRegistry(protocol.Status, protocol.Serverbound,
		protocol.Bind[sb.Request](0x00),
		protocol.Bind[sb.Ping](0x01),
	)
	StatusClientbound = protocol.NewRegistry(protocol.Status, protocol.Clientbound,
		protocol.Bind[cb.Response](0x00),
		protocol.Bind[cb.Pong](0x01),
	)

	LoginServerbound = protocol.NewRegistry(protocol.Login, protocol.Serverbound,
		protocol.Bind[sb.LoginStart](0x00),
		protocol.Bind[sb.EncryptionResponse](0x01),
		protocol.Bind[sb.LoginPluginResponse](0x02),
	)
	LoginClientbound = protocol.NewRegistry(protocol.Login, protocol.Clientbound,
		protocol.Bind[cb.LoginDisconnect](0x00),
		protocol.Bind[cb.EncryptionRequest](0x01),
		protocol.Bind[cb.LoginSuccess](0x02),
		protocol.Bind[cb.SetCompression](0x03),
		protocol.Bind[cb.LoginPluginRequest](0x04),
	)

	PlayServerbound = protocol.NewRegistry(protocol.Play, protocol.Serverbound,
		protocol.Bind[sb.TeleportConfirm](0x00),
		protocol.Bind[sb.QueryBlockNbt](0x01),
		protocol.Bind[sb.SetDifficulty](0x02),
		protocol.Bind[sb.ChatMessage](0x03),
		protocol.Bind[sb.ClientStatus](0x04),
		protocol.Bind[sb.ClientSettings](0x05),
		protocol.Bind[sb.TabComplete](0x06),
		protocol.Bind[sb.WindowConfirmation](0x07),
		protocol.Bind[sb.ClickWindowButton](0x08),
		protocol.Bind[sb.ClickWindow](0x09),
		protocol.Bind[sb.CloseWindow](0x0a),
		protocol.Bind[sb.PluginMessage](0x0b),
		protocol.Bind[sb.EditBook](0x0c),
		protocol.Bind[sb.QueryEntityNbt](0x0d),
		protocol.Bind[sb.InteractEntity](0x0e),
		protocol.Bind[sb.GenerateStructure](0x0f),
		protocol.Bind[sb.KeepAlive](0x10),
		protocol.Bind[sb.LockDifficulty](0x11),
		protocol.Bind[sb.PlayerPosition](0x12),
		protocol.Bind[sb.PlayerPositionAndRotation](0x13),
		protocol.Bind[sb.PlayerRotation](0x14),
		protocol.Bind[sb.PlayerMovement](0x15),
		protocol.Bind[sb.VehicleMove](0x16),
		protocol.Bind[sb.SteerBoat](0x17),
		protocol.Bind[sb.PickItem](0x18),
		protocol.Bind[sb.CraftRecipeRequest](0x19),
		protocol.Bind[sb.PlayerAbilities](0x1a),
		protocol.Bind[sb.PlayerDigging](0x1b),
		protocol.Bind[sb.EntityAction](0x1c),
		protocol.Bind[sb.SteerVehicle](0x1d),
		protocol.Bind[sb.RecipeBookData](0x1e),
		protocol.Bind[sb.NameItem](0x20),
		protocol.Bind[sb.ResourcePackStatus](0x21),
		protocol.Bind[sb.AdvancementTab](0x22),
		protocol.Bind[sb.SelectTrade](0x23),
		protocol.Bind[sb.SetBeaconEffect](0x24),
		protocol.Bind[sb.HeldItemChange](0x25),
		protocol.Bind[sb.UpdateCommandBlock](0x26),
		protocol.Bind[sb.UpdateCommandBlockMinecart](0x27),
		protocol.Bind[sb.CreativeInventoryAction](0x28),
		protocol.Bind[sb.UpdateJigsawBlock](0x29),
		protocol.Bind[sb.UpdateStructureBlock](0x2a),
		protocol.Bind[sb.UpdateSign](0x2b),
		protocol.Bind[sb.Animation](0x2c),
		protocol.Bind[sb.Spectate](0x2d),
		protocol.Bind[sb.PlayerBlockPlacement](0x2e),
		protocol.Bind[sb.UseItem](0x2f),
	)
	PlayClientbound = protocol.NewRegistry(protocol.Play, protocol.Clientbound,
		protocol.Bind[cb.SpawnPlayer](0x04),
		protocol.Bind[cb.EntityAnimation](0x05),
		protocol.Bind[cb.BlockEntityData](0x09),
		protocol.Bind[cb.BlockChange](0x0b),
		protocol.Bind[cb.ChatMessage](0x0e),
		protocol.Bind[cb.SetSlot](0x15),
		protocol.Bind[cb.PluginMessage](0x17),
		protocol.Bind[cb.Disconnect](0x19),
		protocol.Bind[cb.UnloadChunk](0x1c),
		protocol.Bind[cb.ChangeGameState](0x1d),
		protocol.Bind[cb.KeepAlive](0x1f),
		protocol.Bind[cb.JoinGame](0x24),
		protocol.Bind[cb.EntityPosition](0x27),
		protocol.Bind[cb.EntityPositionAndRotation](0x28),
		protocol.Bind[cb.EntityRotation](0x29),
		protocol.Bind[cb.PlayerPositionAndLook](0x34),
		protocol.Bind[cb.DestroyEntities](0x36),
		protocol.Bind[cb.EntityHeadLook](0x3a),
		protocol.Bind[cb.HeldItemChange](0x3f),
		protocol.Bind[cb.SpawnPosition](0x42),
		protocol.Bind[cb.TimeUpdate](0x4e),
		protocol.Bind[cb.EntityTeleport](0x56),
	)
)

var registries = map[protocol.Phase][2]*protocol.Registry{
	protocol.Handshake: {HandshakeServerbound, HandshakeClientbound},
	protocol.Status:    {StatusServerbound, StatusClientbound},
	protocol.Login:     {LoginServerbound, LoginClientbound},
	protocol.Play:      {PlayServerbound, PlayClientbound},
}

func init() {
	for _, r := range All() {
		if err := r.Validate(); err != nil {
			panic(err)
		}
	}
}

// Registry returns the packet set for a phase and direction.
func Registry(phase protocol.Phase, dir protocol.Direction) (*protocol.Registry, error) {
	pair, ok := registries[phase]
	if !ok || dir > protocol.Clientbound {
		return nil, fmt.Errorf("packets: no registry for %v/%v", phase, dir)
	}
	return pair[dir], nil
}

// All lists every registry, serverbound before clientbound within a phase.
func All() []*protocol.Registry {
	var out []*protocol.Registry
	for _, phase := range []protocol.Phase{protocol.Handshake, protocol.Status, protocol.Login, protocol.Play} {
		pair := registries[phase]
		out = append(out, pair[protocol.Serverbound], pair[protocol.Clientbound])
	}
	return out
}
