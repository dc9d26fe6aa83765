package metadata

import (
	"github.com/bmx-go/bmx/datamodel"
)

// The constructors below build the core header-metadata sets named in
// (Preface, ContentStorage, Package, Track, Sequence,
// StructuralComponent variants, EssenceDescriptor family). Each wraps
// NewSet/Set with the item keys a caller needs to populate that set type;
// callers are free to add further items (e.g. Avid or AS-11 extension
// properties, SPEC_FULL.md's supplemented-features scheme) with Set.Set
// directly, since a Set is just a generic item bag once built.

// NewPreface creates a Preface set with its mandatory top-level items.
func NewPreface(instanceUID [16]byte, contentStorage [16]byte, operationalPattern [16]byte) *Set {
	s := NewSet(datamodel.PrefaceKey, instanceUID)
	s.Set(NewItem(0, datamodel.InstanceUIDItemKey, instanceUID[:]))

	csItem := NewItem(0, datamodel.PrefaceContentStorageKey, nil)
	csItem.SetUUID(contentStorage)
	s.Set(csItem)

	opItem := NewItem(0, datamodel.PrefaceOperationalPatternKey, nil)
	opItem.SetUUID(operationalPattern)
	s.Set(opItem)

	return s
}

// SetIdentifications installs the Preface's array of Identification strong
// references (one per application/tool that has written the file).
func (s *Set) SetIdentifications(refs [][16]byte) {
	it := NewItem(0, datamodel.PrefaceIdentificationsKey, nil)
	it.SetStrongRefArray(refs)
	s.Set(it)
}

// NewContentStorage creates a ContentStorage set.
func NewContentStorage(instanceUID [16]byte) *Set {
	s := NewSet(datamodel.ContentStorageKey, instanceUID)
	s.Set(NewItem(0, datamodel.InstanceUIDItemKey, instanceUID[:]))
	return s
}

// SetPackages installs ContentStorage's array of Package strong references.
func (s *Set) SetPackages(refs [][16]byte) {
	it := NewItem(0, datamodel.ContentStoragePackagesKey, nil)
	it.SetStrongRefArray(refs)
	s.Set(it)
}

// SetEssenceContainerData installs ContentStorage's array of
// EssenceContainerData strong references.
func (s *Set) SetEssenceContainerData(refs [][16]byte) {
	it := NewItem(0, datamodel.ContentStorageEssenceContainerDataKey, nil)
	it.SetStrongRefArray(refs)
	s.Set(it)
}

// NewMaterialPackage creates a MaterialPackage set.
func NewMaterialPackage(instanceUID [16]byte, packageUID [32]byte) *Set {
	return newGenericPackage(datamodel.MaterialPackageKey, instanceUID, packageUID)
}

// NewSourcePackage creates a SourcePackage set.
func NewSourcePackage(instanceUID [16]byte, packageUID [32]byte) *Set {
	return newGenericPackage(datamodel.SourcePackageKey, instanceUID, packageUID)
}

func newGenericPackage(key [16]byte, instanceUID [16]byte, packageUID [32]byte) *Set {
	s := NewSet(key, instanceUID)
	s.Set(NewItem(0, datamodel.InstanceUIDItemKey, instanceUID[:]))
	s.Set(NewItem(0, datamodel.PackageUIDKey, append([]byte(nil), packageUID[:]...)))
	return s
}

// SetTracks installs a package's array of Track strong references.
func (s *Set) SetTracks(refs [][16]byte) {
	it := NewItem(0, datamodel.PackageTracksKey, nil)
	it.SetStrongRefArray(refs)
	s.Set(it)
}

// SetDescriptor installs a SourcePackage's EssenceDescriptor strong
// reference.
func (s *Set) SetDescriptor(ref [16]byte) {
	it := NewItem(0, datamodel.PackageDescriptorKey, nil)
	it.SetUUID(ref)
	s.Set(it)
}

// NewTrack creates a Track set with its mandatory identifying properties.
func NewTrack(instanceUID [16]byte, trackID, trackNumber uint32, editRateNum, editRateDen int32, sequence [16]byte) *Set {
	s := NewSet(datamodel.TrackKey, instanceUID)
	s.Set(NewItem(0, datamodel.InstanceUIDItemKey, instanceUID[:]))

	idItem := NewItem(0, datamodel.TrackIDKey, nil)
	idItem.SetUint32(trackID)
	s.Set(idItem)

	numItem := NewItem(0, datamodel.TrackNumberKey, nil)
	numItem.SetUint32(trackNumber)
	s.Set(numItem)

	rateItem := NewItem(0, datamodel.TrackEditRateKey, nil)
	rateItem.SetRational(editRateNum, editRateDen)
	s.Set(rateItem)

	seqItem := NewItem(0, datamodel.TrackSequenceKey, nil)
	seqItem.SetUUID(sequence)
	s.Set(seqItem)

	return s
}

// NewSequence creates a Sequence structural component.
func NewSequence(instanceUID [16]byte, dataDefinition [16]byte, duration int64, components [][16]byte) *Set {
	s := newStructuralComponent(datamodel.SequenceKey, instanceUID, dataDefinition, duration)
	compItem := NewItem(0, datamodel.SequenceComponentsKey, nil)
	compItem.SetStrongRefArray(components)
	s.Set(compItem)
	return s
}

// NewSourceClip creates a SourceClip structural component.
func NewSourceClip(instanceUID [16]byte, dataDefinition [16]byte, duration, startPosition int64, sourcePackageID [32]byte, sourceTrackID uint32) *Set {
	s := newStructuralComponent(datamodel.SourceClipKey, instanceUID, dataDefinition, duration)

	startItem := NewItem(0, datamodel.SourceClipStartPositionKey, nil)
	startItem.Value = encodeInt64(startPosition)
	s.Set(startItem)

	s.Set(NewItem(0, datamodel.SourceClipSourcePackageIDKey, append([]byte(nil), sourcePackageID[:]...)))

	trackItem := NewItem(0, datamodel.SourceClipSourceTrackIDKey, nil)
	trackItem.SetUint32(sourceTrackID)
	s.Set(trackItem)

	return s
}

// NewTimecodeComponent creates a TimecodeComponent structural component.
func NewTimecodeComponent(instanceUID [16]byte, dataDefinition [16]byte, duration int64, roundedTimecodeBase uint16, startTimecode int64, dropFrame bool) *Set {
	s := newStructuralComponent(datamodel.TimecodeComponentKey, instanceUID, dataDefinition, duration)

	baseItem := NewItem(0, datamodel.TimecodeRoundedTimecodeBaseKey, nil)
	baseItem.Value = encodeUint16(roundedTimecodeBase)
	s.Set(baseItem)

	startItem := NewItem(0, datamodel.TimecodeStartTimecodeKey, nil)
	startItem.Value = encodeInt64(startTimecode)
	s.Set(startItem)

	var dropByte byte
	if dropFrame {
		dropByte = 1
	}
	s.Set(NewItem(0, datamodel.TimecodeDropFrameKey, []byte{dropByte}))

	return s
}

// NewFiller creates a Filler structural component that pads a track's
// sequence to the enclosing sequence's duration (AS-02
// gap handling).
func NewFiller(instanceUID [16]byte, dataDefinition [16]byte, duration int64) *Set {
	return newStructuralComponent(datamodel.FillerKey, instanceUID, dataDefinition, duration)
}

func newStructuralComponent(key [16]byte, instanceUID [16]byte, dataDefinition [16]byte, duration int64) *Set {
	s := NewSet(key, instanceUID)
	s.Set(NewItem(0, datamodel.InstanceUIDItemKey, instanceUID[:]))
	s.Set(NewItem(0, datamodel.ComponentDataDefinitionKey, append([]byte(nil), dataDefinition[:]...)))
	durItem := NewItem(0, datamodel.ComponentDurationKey, nil)
	durItem.Value = encodeInt64(duration)
	s.Set(durItem)
	return s
}

// SetCommonDescriptorProperties installs the properties shared by every
// FileDescriptor variant (linked track, sample rate,
// container duration, essence container label and picture/sound codec
// label).
func (s *Set) SetCommonDescriptorProperties(linkedTrackID uint32, sampleRateNum, sampleRateDen int32, containerDuration int64, essenceContainer, codec [16]byte) {
	trackItem := NewItem(0, datamodel.DescriptorLinkedTrackIDKey, nil)
	trackItem.SetUint32(linkedTrackID)
	s.Set(trackItem)

	rateItem := NewItem(0, datamodel.DescriptorSampleRateKey, nil)
	rateItem.SetRational(sampleRateNum, sampleRateDen)
	s.Set(rateItem)

	durItem := NewItem(0, datamodel.DescriptorContainerDurationKey, nil)
	durItem.Value = encodeInt64(containerDuration)
	s.Set(durItem)

	s.Set(NewItem(0, datamodel.DescriptorEssenceContainerKey, append([]byte(nil), essenceContainer[:]...)))
	s.Set(NewItem(0, datamodel.DescriptorCodecKey, append([]byte(nil), codec[:]...)))
}

// NewCDCIDescriptor creates a CDCIEssenceDescriptor for 4:2:2/4:2:0-class
// component video (AVC/MPEG-2/DV/VC-3/etc. descriptors).
func NewCDCIDescriptor(instanceUID [16]byte, storedWidth, storedHeight uint32, aspectNum, aspectDen int32, frameLayout uint8, horizSubsampling, vertSubsampling, componentDepth uint32) *Set {
	s := NewSet(datamodel.CDCIDescriptorKey, instanceUID)
	s.Set(NewItem(0, datamodel.InstanceUIDItemKey, instanceUID[:]))

	widthItem := NewItem(0, datamodel.PictureStoredWidthKey, nil)
	widthItem.SetUint32(storedWidth)
	s.Set(widthItem)

	heightItem := NewItem(0, datamodel.PictureStoredHeightKey, nil)
	heightItem.SetUint32(storedHeight)
	s.Set(heightItem)

	aspectItem := NewItem(0, datamodel.PictureAspectRatioKey, nil)
	aspectItem.SetRational(aspectNum, aspectDen)
	s.Set(aspectItem)

	s.Set(NewItem(0, datamodel.PictureFrameLayoutKey, []byte{frameLayout}))

	hItem := NewItem(0, datamodel.CDCIHorizontalSubsamplingKey, nil)
	hItem.SetUint32(horizSubsampling)
	s.Set(hItem)

	vItem := NewItem(0, datamodel.CDCIVerticalSubsamplingKey, nil)
	vItem.SetUint32(vertSubsampling)
	s.Set(vItem)

	depthItem := NewItem(0, datamodel.CDCIComponentDepthKey, nil)
	depthItem.SetUint32(componentDepth)
	s.Set(depthItem)

	return s
}

// NewWaveAudioDescriptor creates a WaveAudioDescriptor for PCM essence
// (WAVE/RF64/BW64 essence, RDD9/D10 audio tracks).
func NewWaveAudioDescriptor(instanceUID [16]byte, sampleRateNum, sampleRateDen int32, channels, quantizationBits uint32) *Set {
	s := NewSet(datamodel.WaveAudioDescriptorKey, instanceUID)
	s.Set(NewItem(0, datamodel.InstanceUIDItemKey, instanceUID[:]))

	rateItem := NewItem(0, datamodel.SoundAudioSamplingRateKey, nil)
	rateItem.SetRational(sampleRateNum, sampleRateDen)
	s.Set(rateItem)

	chItem := NewItem(0, datamodel.SoundChannelsKey, nil)
	chItem.SetUint32(channels)
	s.Set(chItem)

	bitsItem := NewItem(0, datamodel.SoundQuantizationBitsKey, nil)
	bitsItem.SetUint32(quantizationBits)
	s.Set(bitsItem)

	return s
}

// NewMultipleDescriptor creates a MultipleDescriptor wrapping the
// sub-descriptors of a multiplexed essence container (a
// single essence container carrying several tracks, e.g. OP1A with both
// picture and sound).
func NewMultipleDescriptor(instanceUID [16]byte, subDescriptors [][16]byte) *Set {
	s := NewSet(datamodel.MultipleDescriptorKey, instanceUID)
	s.Set(NewItem(0, datamodel.InstanceUIDItemKey, instanceUID[:]))
	subItem := NewItem(0, datamodel.MultipleDescriptorSubDescriptorsKey, nil)
	subItem.SetStrongRefArray(subDescriptors)
	s.Set(subItem)
	return s
}

func encodeUint16(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

func encodeInt64(v int64) []byte {
	b := make([]byte, 8)
	u := uint64(v)
	for i := 7; i >= 0; i-- {
		b[i] = byte(u)
		u >>= 8
	}
	return b
}
