package writer

import "sort"

// AssignElementNumbers finalizes each track's essence-element key once
// every track in the assembler is known, suffixing the element number by
// class and registration order ("Essence-element keys are
// finalized when all tracks are known so that per-track element-number
// suffixes are allocated").
func AssignElementNumbers(tracks []*Track) {
	byClass := map[ElementClass][]*Track{}
	for _, t := range tracks {
		byClass[t.Class] = append(byClass[t.Class], t)
	}
	for _, group := range byClass {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].RegistrationOrder < group[j].RegistrationOrder
		})
		for i, t := range group {
			elementNumber := byte(i + 1)
			key := t.ElementKey
			key[15] = elementNumber
			t.ElementKey = key
		}
	}
}

// OrderedTracks returns tracks in content-package element order: system
// item first, then picture, sound, data, each in registration order.
func OrderedTracks(tracks []*Track) []*Track {
	out := append([]*Track(nil), tracks...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		return out[i].RegistrationOrder < out[j].RegistrationOrder
	})
	return out
}
