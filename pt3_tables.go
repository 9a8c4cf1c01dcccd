// pt3_tables.go - ProTracker 3 tone and volume tables.

package main

// PT3 tone tables cover 96 notes (8 octaves). Only the bottom octave is
// tabulated; higher octaves halve the period with round-half-up, which is
// how the tracker generated them. Trackers revised some tables over time,
// so tables 0, 2 and 3 exist in an old (version <= 3) and a new revision.

const PT3_NOTE_COUNT = 96

// Bottom-octave seeds, note C to B, largest period first.
var (
	pt3SeedProTrackerOld = [12]uint16{
		0xC21, 0xB73, 0xACE, 0xA33, 0x9A1, 0x917,
		0x894, 0x819, 0x7A4, 0x737, 0x6CF, 0x66D,
	}
	pt3SeedProTrackerNew = [12]uint16{
		0xC22, 0xB73, 0xACE, 0xA33, 0x9A1, 0x917,
		0x894, 0x819, 0x7A4, 0x737, 0x6CF, 0x66D,
	}
	pt3SeedSoundTracker = [12]uint16{
		0xEF8, 0xE10, 0xD60, 0xC80, 0xBD8, 0xB28,
		0xA88, 0x9F0, 0x960, 0x8E0, 0x858, 0x7E0,
	}
	pt3SeedASMOld = [12]uint16{
		0xD3E, 0xC80, 0xBCC, 0xB22, 0xA82, 0x9EC,
		0x95C, 0x8D6, 0x858, 0x7E0, 0x76E, 0x704,
	}
	pt3SeedASMNew = [12]uint16{
		0xD10, 0xC8A, 0xBCC, 0xB22, 0xA82, 0x9EC,
		0x95C, 0x8D6, 0x858, 0x7E0, 0x76E, 0x704,
	}
	pt3SeedRealOld = [12]uint16{
		0xCDA, 0xC24, 0xB73, 0xACF, 0xA33, 0x9A1,
		0x917, 0x894, 0x819, 0x7A4, 0x737, 0x6CF,
	}
	pt3SeedRealNew = [12]uint16{
		0xCDA, 0xC22, 0xB73, 0xACF, 0xA33, 0x9A1,
		0x917, 0x894, 0x819, 0x7A4, 0x737, 0x6CF,
	}
)

var (
	pt3ToneProTrackerOld = expandToneTable(pt3SeedProTrackerOld)
	pt3ToneProTrackerNew = expandToneTable(pt3SeedProTrackerNew)
	pt3ToneSoundTracker  = expandToneTable(pt3SeedSoundTracker)
	pt3ToneASMOld        = expandToneTable(pt3SeedASMOld)
	pt3ToneASMNew        = expandToneTable(pt3SeedASMNew)
	pt3ToneRealOld       = expandToneTable(pt3SeedRealOld)
	pt3ToneRealNew       = expandToneTable(pt3SeedRealNew)
)

func expandToneTable(seed [12]uint16) [PT3_NOTE_COUNT]uint16 {
	var table [PT3_NOTE_COUNT]uint16
	copy(table[:12], seed[:])
	for i := 12; i < PT3_NOTE_COUNT; i++ {
		table[i] = (table[i-12] + 1) >> 1
	}
	return table
}

// pt3ToneTable selects by the header's tone-table id and module version.
func pt3ToneTable(tableID, version int) *[PT3_NOTE_COUNT]uint16 {
	old := version <= 3
	switch tableID & 0x03 {
	case 0:
		if old {
			return &pt3ToneProTrackerOld
		}
		return &pt3ToneProTrackerNew
	case 1:
		return &pt3ToneSoundTracker
	case 2:
		if old {
			return &pt3ToneASMOld
		}
		return &pt3ToneASMNew
	default:
		if old {
			return &pt3ToneRealOld
		}
		return &pt3ToneRealNew
	}
}

// Volume tables map (channel volume, sample amplitude) to a 4-bit level.
// Versions up to 3.4 truncated the product; 3.5 onwards rounds, which is
// audibly slightly louder at low levels.
var (
	pt3VolumeOld = buildVolumeTable(false)
	pt3VolumeNew = buildVolumeTable(true)
)

func buildVolumeTable(rounded bool) [16][16]uint8 {
	var table [16][16]uint8
	for volume := 0; volume < 16; volume++ {
		for amplitude := 0; amplitude < 16; amplitude++ {
			product := volume * amplitude
			if rounded {
				table[volume][amplitude] = uint8((2*product + 15) / 30)
			} else {
				table[volume][amplitude] = uint8(product / 15)
			}
		}
	}
	return table
}

func pt3VolumeTable(version int) *[16][16]uint8 {
	if version <= 4 {
		return &pt3VolumeOld
	}
	return &pt3VolumeNew
}
