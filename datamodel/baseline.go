package datamodel

import "github.com/bmx-go/bmx/klv"

// Baseline set keys (SMPTE RP210 / ST 377-1 registered labels, byte 7
// normalized to 0x00 for the current registry version).
var (
	PrefaceKey               = ul(0x01, 0x01, 0x2f, 0x00)
	ContentStorageKey        = ul(0x01, 0x01, 0x18, 0x00)
	MaterialPackageKey       = ul(0x01, 0x01, 0x36, 0x00)
	SourcePackageKey         = ul(0x01, 0x01, 0x37, 0x00)
	TrackKey                 = ul(0x01, 0x01, 0x3a, 0x00)
	SequenceKey               = ul(0x01, 0x01, 0x0f, 0x00)
	SourceClipKey            = ul(0x01, 0x01, 0x11, 0x00)
	TimecodeComponentKey     = ul(0x01, 0x01, 0x14, 0x00)
	DMSegmentKey             = ul(0x01, 0x01, 0x41, 0x00)
	FillerKey                = ul(0x01, 0x01, 0x09, 0x00)
	EssenceContainerDataKey  = ul(0x01, 0x01, 0x23, 0x00)
	MultipleDescriptorKey    = ul(0x01, 0x01, 0x44, 0x00)
	FileDescriptorKey        = ul(0x01, 0x01, 0x25, 0x00)
	GenericPictureDescKey    = ul(0x01, 0x01, 0x27, 0x00)
	GenericSoundDescKey      = ul(0x01, 0x01, 0x42, 0x00)
	GenericDataDescKey       = ul(0x01, 0x01, 0x43, 0x00)
	CDCIDescriptorKey        = ul(0x01, 0x01, 0x28, 0x00)
	RGBADescriptorKey        = ul(0x01, 0x01, 0x29, 0x00)
	WaveAudioDescriptorKey   = ul(0x01, 0x01, 0x48, 0x00)
	NetworkLocatorKey        = ul(0x01, 0x01, 0x32, 0x00)
	IdentificationKey        = ul(0x01, 0x01, 0x30, 0x00)
)

func ul(b12, b13, b14, b15 byte) klv.Key {
	return klv.Key{
		0x06, 0x0e, 0x2b, 0x34, 0x02, 0x53, 0x01, 0x01,
		0x0d, 0x01, 0x01, 0x01, b12, b13, b14, b15,
	}
}

// Item keys shared by most sets.
var (
	InstanceUIDItemKey   = ul(0x01, 0x01, 0x15, 0x02)
	GenerationUIDItemKey = ul(0x01, 0x02, 0x02, 0x03)
)

// Preface item keys.
var (
	PrefaceLastModifiedDateKey = ul(0x02, 0x02, 0x03, 0x02)
	PrefaceVersionKey          = ul(0x02, 0x02, 0x03, 0x03)
	PrefaceContentStorageKey   = ul(0x02, 0x02, 0x03, 0x04)
	PrefaceOperationalPatternKey = ul(0x02, 0x02, 0x03, 0x05)
	PrefaceEssenceContainersKey  = ul(0x02, 0x02, 0x03, 0x06)
	PrefaceIdentificationsKey    = ul(0x02, 0x02, 0x03, 0x07)
)

// ContentStorage item keys.
var (
	ContentStoragePackagesKey            = ul(0x02, 0x02, 0x04, 0x01)
	ContentStorageEssenceContainerDataKey = ul(0x02, 0x02, 0x04, 0x02)
)

// GenericPackage item keys (shared by MaterialPackage and SourcePackage).
var (
	PackageUIDKey              = ul(0x02, 0x02, 0x05, 0x01)
	PackageNameKey             = ul(0x02, 0x02, 0x05, 0x02)
	PackageCreationDateKey     = ul(0x02, 0x02, 0x05, 0x03)
	PackageLastModifiedDateKey = ul(0x02, 0x02, 0x05, 0x04)
	PackageTracksKey           = ul(0x02, 0x02, 0x05, 0x05)
	PackageDescriptorKey       = ul(0x02, 0x02, 0x05, 0x06) // SourcePackage only
)

// Track item keys.
var (
	TrackIDKey       = ul(0x02, 0x02, 0x06, 0x01)
	TrackNumberKey   = ul(0x02, 0x02, 0x06, 0x02)
	TrackNameKey     = ul(0x02, 0x02, 0x06, 0x03)
	TrackSequenceKey = ul(0x02, 0x02, 0x06, 0x04)
	TrackEditRateKey = ul(0x02, 0x02, 0x06, 0x05)
	TrackOriginKey   = ul(0x02, 0x02, 0x06, 0x06)
)

// StructuralComponent item keys, shared by Sequence, SourceClip,
// TimecodeComponent and Filler.
var (
	ComponentDataDefinitionKey = ul(0x02, 0x02, 0x07, 0x01)
	ComponentDurationKey       = ul(0x02, 0x02, 0x07, 0x02)
)

// Sequence item keys.
var (
	SequenceComponentsKey = ul(0x02, 0x02, 0x08, 0x01)
)

// SourceClip item keys.
var (
	SourceClipStartPositionKey = ul(0x02, 0x02, 0x09, 0x01)
	SourceClipSourcePackageIDKey = ul(0x02, 0x02, 0x09, 0x02)
	SourceClipSourceTrackIDKey   = ul(0x02, 0x02, 0x09, 0x03)
)

// TimecodeComponent item keys.
var (
	TimecodeRoundedTimecodeBaseKey = ul(0x02, 0x02, 0x0a, 0x01)
	TimecodeStartTimecodeKey       = ul(0x02, 0x02, 0x0a, 0x02)
	TimecodeDropFrameKey           = ul(0x02, 0x02, 0x0a, 0x03)
)

// FileDescriptor item keys, common to every essence descriptor variant.
var (
	DescriptorLinkedTrackIDKey    = ul(0x02, 0x02, 0x0b, 0x01)
	DescriptorSampleRateKey       = ul(0x02, 0x02, 0x0b, 0x02)
	DescriptorContainerDurationKey = ul(0x02, 0x02, 0x0b, 0x03)
	DescriptorEssenceContainerKey  = ul(0x02, 0x02, 0x0b, 0x04)
	DescriptorCodecKey             = ul(0x02, 0x02, 0x0b, 0x05)
)

// GenericPictureEssenceDescriptor item keys.
var (
	PictureFrameLayoutKey  = ul(0x02, 0x02, 0x0c, 0x01)
	PictureStoredWidthKey  = ul(0x02, 0x02, 0x0c, 0x02)
	PictureStoredHeightKey = ul(0x02, 0x02, 0x0c, 0x03)
	PictureAspectRatioKey  = ul(0x02, 0x02, 0x0c, 0x04)
	PictureVideoLineMapKey = ul(0x02, 0x02, 0x0c, 0x05)
)

// CDCIEssenceDescriptor item keys.
var (
	CDCIHorizontalSubsamplingKey = ul(0x02, 0x02, 0x0d, 0x01)
	CDCIVerticalSubsamplingKey   = ul(0x02, 0x02, 0x0d, 0x02)
	CDCIComponentDepthKey        = ul(0x02, 0x02, 0x0d, 0x03)
)

// GenericSoundEssenceDescriptor item keys.
var (
	SoundAudioSamplingRateKey = ul(0x02, 0x02, 0x0e, 0x01)
	SoundChannelsKey          = ul(0x02, 0x02, 0x0e, 0x02)
	SoundQuantizationBitsKey  = ul(0x02, 0x02, 0x0e, 0x03)
)

// MultipleDescriptor item keys.
var (
	MultipleDescriptorSubDescriptorsKey = ul(0x02, 0x02, 0x0f, 0x01)
)

// BaselineRegistry builds the Registry covering the header-metadata graph
// skeleton named in Preface -> ContentStorage -> Packages ->
// Tracks -> Sequence -> StructuralComponents, plus the EssenceDescriptor
// family. Codec-specific descriptor sub-types are registered by each
// essence/descriptor helper via RegisterSet/RegisterItem on a clone of this
// registry ("Set registration can be cloned into derived
// registries").
func BaselineRegistry() *Registry {
	r := NewRegistry()

	reg := func(key klv.Key, name string, parent *klv.Key) {
		r.RegisterSet(SetDef{Key: key, Name: name, Parent: parent})
	}

	interchangeObject := ul(0x01, 0x01, 0x00, 0x00)
	reg(interchangeObject, "InterchangeObject", nil)
	reg(PrefaceKey, "Preface", &interchangeObject)
	reg(ContentStorageKey, "ContentStorage", &interchangeObject)

	genericPackage := ul(0x01, 0x01, 0x34, 0x00)
	reg(genericPackage, "GenericPackage", &interchangeObject)
	reg(MaterialPackageKey, "MaterialPackage", &genericPackage)
	reg(SourcePackageKey, "SourcePackage", &genericPackage)

	reg(TrackKey, "Track", &interchangeObject)
	reg(SequenceKey, "Sequence", &interchangeObject)

	structuralComponent := ul(0x01, 0x01, 0x0e, 0x00)
	reg(structuralComponent, "StructuralComponent", &interchangeObject)
	reg(SourceClipKey, "SourceClip", &structuralComponent)
	reg(TimecodeComponentKey, "TimecodeComponent", &structuralComponent)
	reg(DMSegmentKey, "DMSegment", &structuralComponent)
	reg(FillerKey, "Filler", &structuralComponent)
	reg(SequenceKey, "Sequence", &structuralComponent)

	reg(EssenceContainerDataKey, "EssenceContainerData", &interchangeObject)

	reg(FileDescriptorKey, "FileDescriptor", &interchangeObject)
	reg(MultipleDescriptorKey, "MultipleDescriptor", &FileDescriptorKey)
	reg(GenericPictureDescKey, "GenericPictureEssenceDescriptor", &FileDescriptorKey)
	reg(GenericSoundDescKey, "GenericSoundEssenceDescriptor", &FileDescriptorKey)
	reg(GenericDataDescKey, "GenericDataEssenceDescriptor", &FileDescriptorKey)
	reg(CDCIDescriptorKey, "CDCIEssenceDescriptor", &GenericPictureDescKey)
	reg(RGBADescriptorKey, "RGBAEssenceDescriptor", &GenericPictureDescKey)
	reg(WaveAudioDescriptorKey, "WaveAudioDescriptor", &GenericSoundDescKey)

	reg(NetworkLocatorKey, "NetworkLocator", &interchangeObject)
	reg(IdentificationKey, "Identification", &interchangeObject)

	item := func(key klv.Key, name string, t ItemType, isArray bool) {
		r.RegisterItem(ItemDef{Key: key, Name: name, Type: t, IsArray: isArray})
	}
	item(InstanceUIDItemKey, "InstanceUID", TypeUUID, false)
	item(GenerationUIDItemKey, "GenerationUID", TypeUUID, false)

	item(PrefaceLastModifiedDateKey, "LastModifiedDate", TypeTimestamp, false)
	item(PrefaceVersionKey, "Version", TypeUInt16, false)
	item(PrefaceContentStorageKey, "ContentStorage", TypeStrongRef, false)
	item(PrefaceOperationalPatternKey, "OperationalPattern", TypeUUID, false)
	item(PrefaceEssenceContainersKey, "EssenceContainers", TypeUUID, true)
	item(PrefaceIdentificationsKey, "Identifications", TypeStrongRefArray, false)

	item(ContentStoragePackagesKey, "Packages", TypeStrongRefArray, false)
	item(ContentStorageEssenceContainerDataKey, "EssenceContainerData", TypeStrongRefArray, false)

	item(PackageUIDKey, "PackageUID", TypeUMID, false)
	item(PackageNameKey, "PackageName", TypeUTF16String, false)
	item(PackageCreationDateKey, "PackageCreationDate", TypeTimestamp, false)
	item(PackageLastModifiedDateKey, "PackageLastModifiedDate", TypeTimestamp, false)
	item(PackageTracksKey, "Tracks", TypeStrongRefArray, false)
	item(PackageDescriptorKey, "Descriptor", TypeStrongRef, false)

	item(TrackIDKey, "TrackID", TypeUInt32, false)
	item(TrackNumberKey, "TrackNumber", TypeUInt32, false)
	item(TrackNameKey, "TrackName", TypeUTF16String, false)
	item(TrackSequenceKey, "Sequence", TypeStrongRef, false)
	item(TrackEditRateKey, "EditRate", TypeRational, false)
	item(TrackOriginKey, "Origin", TypeInt64, false)

	item(ComponentDataDefinitionKey, "DataDefinition", TypeUUID, false)
	item(ComponentDurationKey, "Duration", TypeInt64, false)

	item(SequenceComponentsKey, "StructuralComponents", TypeStrongRefArray, false)

	item(SourceClipStartPositionKey, "StartPosition", TypeInt64, false)
	item(SourceClipSourcePackageIDKey, "SourcePackageID", TypeUMID, false)
	item(SourceClipSourceTrackIDKey, "SourceTrackID", TypeUInt32, false)

	item(TimecodeRoundedTimecodeBaseKey, "RoundedTimecodeBase", TypeUInt16, false)
	item(TimecodeStartTimecodeKey, "StartTimecode", TypeInt64, false)
	item(TimecodeDropFrameKey, "DropFrame", TypeBoolean, false)

	item(DescriptorLinkedTrackIDKey, "LinkedTrackID", TypeUInt32, false)
	item(DescriptorSampleRateKey, "SampleRate", TypeRational, false)
	item(DescriptorContainerDurationKey, "ContainerDuration", TypeInt64, false)
	item(DescriptorEssenceContainerKey, "EssenceContainer", TypeUUID, false)
	item(DescriptorCodecKey, "Codec", TypeUUID, false)

	item(PictureFrameLayoutKey, "FrameLayout", TypeUInt8, false)
	item(PictureStoredWidthKey, "StoredWidth", TypeUInt32, false)
	item(PictureStoredHeightKey, "StoredHeight", TypeUInt32, false)
	item(PictureAspectRatioKey, "AspectRatio", TypeRational, false)
	item(PictureVideoLineMapKey, "VideoLineMap", TypeVideoLineMap, false)

	item(CDCIHorizontalSubsamplingKey, "HorizontalSubsampling", TypeUInt32, false)
	item(CDCIVerticalSubsamplingKey, "VerticalSubsampling", TypeUInt32, false)
	item(CDCIComponentDepthKey, "ComponentDepth", TypeUInt32, false)

	item(SoundAudioSamplingRateKey, "AudioSamplingRate", TypeRational, false)
	item(SoundChannelsKey, "Channels", TypeUInt32, false)
	item(SoundQuantizationBitsKey, "QuantizationBits", TypeUInt32, false)

	item(MultipleDescriptorSubDescriptorsKey, "SubDescriptors", TypeStrongRefArray, false)

	return r
}
