package avc

// nalUnit is one Annex-B NAL unit found by scanNALUnits: its start offset
// in the original buffer (the first byte of the start code) and its
// emulation-prevention-stripped payload (beginning with the NAL header
// byte). complete is false for a trailing NAL that might still be growing
// (no following start code or end of buffer has been confirmed yet).
type nalUnit struct {
	startOffset int
	payload     []byte
	complete    bool
}

// scanNALUnits finds every 0x000001-prefixed start code in data and
// returns the NAL units between them, with emulation-prevention bytes
// (0x03 following 0x0000) removed from each payload.
func scanNALUnits(data []byte) []nalUnit {
	starts := findStartCodes(data)
	if len(starts) == 0 {
		return nil
	}

	units := make([]nalUnit, 0, len(starts))
	for i, s := range starts {
		payloadStart := s.offset + s.codeLen
		var payloadEnd int
		complete := i+1 < len(starts)
		if complete {
			payloadEnd = starts[i+1].offset
			// trim trailing zero bytes that belong to the next start code's
			// leading zeros, not this NAL's payload.
			for payloadEnd > payloadStart && data[payloadEnd-1] == 0 {
				payloadEnd--
			}
		} else {
			payloadEnd = len(data)
		}
		if payloadStart >= payloadEnd {
			continue
		}
		units = append(units, nalUnit{
			startOffset: s.offset,
			payload:     removeEmulationPrevention(data[payloadStart:payloadEnd]),
			complete:    complete,
		})
	}
	return units
}

type startCode struct {
	offset  int
	codeLen int // 3 for 0x000001, 4 for 0x00000001
}

func findStartCodes(data []byte) []startCode {
	var out []startCode
	for i := 0; i+2 < len(data); i++ {
		if data[i] != 0 || data[i+1] != 0 || data[i+2] != 1 {
			continue
		}
		if i > 0 && data[i-1] == 0 {
			// a 4-byte 0x00000001 code; record the leading-zero byte too so
			// the payload trim above does not eat into the previous NAL.
			out = append(out, startCode{offset: i - 1, codeLen: 4})
		} else {
			out = append(out, startCode{offset: i, codeLen: 3})
		}
		i += 2
	}
	return out
}

func removeEmulationPrevention(nal []byte) []byte {
	out := make([]byte, 0, len(nal))
	zeros := 0
	for _, b := range nal {
		if zeros >= 2 && b == 0x03 {
			zeros = 0
			continue
		}
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
		out = append(out, b)
	}
	return out
}
