package schema

import "fmt"

// Category classifies a packet by protocol area
type Category uint8

const (
	CategoryAssetEditor Category = iota
	CategoryAssets
	CategoryAuth
	CategoryBuilderTools
	CategoryCamera
	CategoryConnection
	CategoryEntities
	CategoryInteraction
	CategoryInterface
	CategoryInventory
	CategoryMachinima
	CategoryPlayer
	CategoryServerAccess
	CategorySetup
	CategoryWindow
	CategoryWorld
	CategoryWorldMap
)

var categoryNames = [...]string{
	CategoryAssetEditor:  "ASSET_EDITOR",
	CategoryAssets:       "ASSETS",
	CategoryAuth:         "AUTH",
	CategoryBuilderTools: "BUILDER_TOOLS",
	CategoryCamera:       "CAMERA",
	CategoryConnection:   "CONNECTION",
	CategoryEntities:     "ENTITIES",
	CategoryInteraction:  "INTERACTION",
	CategoryInterface:    "INTERFACE",
	CategoryInventory:    "INVENTORY",
	CategoryMachinima:    "MACHINIMA",
	CategoryPlayer:       "PLAYER",
	CategoryServerAccess: "SERVER_ACCESS",
	CategorySetup:        "SETUP",
	CategoryWindow:       "WINDOW",
	CategoryWorld:        "WORLD",
	CategoryWorldMap:     "WORLD_MAP",
}

// String returns the target's PacketCategory variant name
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// PacketMetadata are the wire constants of a packet root
type PacketMetadata struct {
	ID         int
	MaxSize    int
	Compressed bool
	Category   Category
}

// Definition is one top-level emitted type. Packet is nil for shared types.
type Definition struct {
	Packet *PacketMetadata
	Root   Named
}

// Tainted reports whether the definition must be dropped from all output
func (d Definition) Tainted() bool {
	return IsTainted(d.Root)
}
