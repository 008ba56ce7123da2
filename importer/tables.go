package importer

import "github.com/tempusfrangit/go-packetgen/schema"

// smallStructs are the value-object structs whose optional fields the wire
// format encodes in Fixed mode
var smallStructs = []string{
	"Vector2", "Vector2i", "Vector2f", "Vector3d", "Vector3f", "Vector3i",
	"Position", "Direction", "Transform", "InstantData", "BlockPosition",
	"ColorLight", "SavedMovementStates", "VelocityConfig", "Hitbox", "Color",
	"Tint", "BlockFlags", "ModelTransform", "SleepClock", "EasingConfig",
	"MovementStates", "HalfFloatPosition", "TeleportAck", "BlockRotation",
	"MouseButtonEvent", "WorldInteraction", "NearFar", "FogOptions",
	"ColorAlpha", "Range", "Rangeb", "FloatRange", "Rangef",
	"AmbienceFXSoundEffect", "ServerCameraSettings", "AssetEditorRebuildCaches",
	"AssetEditorPreviewCameraSettings", "BlockMovementSettings", "Edge",
	"IntersectionHighlight", "ClampConfig", "SoundEventLayerRandomSettings",
	"InitialVelocity", "RangeVector2f", "RangeVector3f", "ParticleCollision",
	"ParticleAnimationFrame", "PortalState", "PhysicsConfig", "MovementSettings",
	"BlockMount", "EditorSelection", "FluidFXMovementSettings",
	"BlockPlacementSettings", "WiggleWeights", "Size",
	"ItemPullbackConfiguration", "MountedUpdate", "AssetIconProperties",
	"ItemGlider", "BlockSelectorToolData", "BuilderToolIntArg",
	"BuilderToolBoolArg", "BuilderToolBrushShapeArg", "BuilderToolBrushOriginArg",
	"BuilderToolBrushAxisArg", "BuilderToolRotationArg", "MovementEffects",
	"CameraShakeEffect",
}

// DefaultSmallStructs returns a fresh copy of the Fixed size class allow-list
func DefaultSmallStructs() map[string]bool {
	m := make(map[string]bool, len(smallStructs))
	for _, name := range smallStructs {
		m[name] = true
	}
	return m
}

var categories = map[string]schema.Category{
	"asseteditor":  schema.CategoryAssetEditor,
	"assets":       schema.CategoryAssets,
	"auth":         schema.CategoryAuth,
	"buildertools": schema.CategoryBuilderTools,
	"camera":       schema.CategoryCamera,
	"connection":   schema.CategoryConnection,
	"entities":     schema.CategoryEntities,
	"interaction":  schema.CategoryInteraction,
	"interface_":   schema.CategoryInterface,
	"inventory":    schema.CategoryInventory,
	"machinima":    schema.CategoryMachinima,
	"player":       schema.CategoryPlayer,
	"serveraccess": schema.CategoryServerAccess,
	"setup":        schema.CategorySetup,
	"window":       schema.CategoryWindow,
	"world":        schema.CategoryWorld,
	"worldmap":     schema.CategoryWorldMap,
}

// defaultOverrides pins wire shapes reflection cannot see: self references
// that must be boxed, and strings and byte arrays with contractual bounds
var defaultOverrides = []struct {
	key  FieldKey
	expr string
}{
	{FieldKey{"TagPattern", "not"}, "optional(boxed(self))"},
	{FieldKey{"Model", "phobiaModel"}, "optional(boxed(self))"},
	{FieldKey{"ForkedChainId", "forkedId"}, "optional(boxed(self))"},
	{FieldKey{"Asset", "hash"}, "fixed-string(64)"},
	{FieldKey{"Asset", "name"}, "var-string(512)"},
	{FieldKey{"HostAddress", "host"}, "var-string(256)"},
	{FieldKey{"packets/connection.Connect", "clientVersion"}, "fixed-string(20)"},
	{FieldKey{"packets/connection.Connect", "username"}, "var-string(16)"},
	{FieldKey{"packets/connection.Connect", "identityToken"}, "optional(var-string(8192))"},
	{FieldKey{"packets/connection.Connect", "language"}, "var-string(16)"},
	{FieldKey{"packets/connection.Connect", "referralData"}, "optional(var-bytes(4096))"},
}

// DefaultOverrides returns a fresh copy of the built-in override table
func DefaultOverrides() map[FieldKey]Override {
	m := make(map[FieldKey]Override, len(defaultOverrides))
	for _, o := range defaultOverrides {
		m[o.key] = MustParseOverride(o.expr)
	}
	return m
}
