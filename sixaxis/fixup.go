package sixaxis

// dpadHat maps the raw 4-bit D-pad field (the high nibble of byte 2 on the
// wire) directly to a HID hat-switch direction in 0..7; 15 = centered/invalid
// (spec.md §4.2, §8 property 6). The table and its indexing are taken
// byte-for-byte from the original fixup; the wire encoding of the 4 bits is
// not independently documented, so entries are not individually named.
var dpadHat = [16]byte{
	15, 0, 2, 1, 4, 15, 3, 15, 6, 7, 15, 15, 5, 15, 15, 15,
}

// DPadToHat looks up the hat value for the raw 4-bit D-pad field.
func DPadToHat(dpad byte) byte { return dpadHat[dpad&0x0F] }

func reverseNibble(n byte) byte {
	var r byte
	for i := 0; i < 4; i++ {
		if n&(1<<i) != 0 {
			r |= 1 << (3 - i)
		}
	}
	return r
}

// FixupInput rewrites a raw interrupt-channel input report in place
// (spec.md §4.2). It is only applied to 49-byte reports whose first byte is
// the input report ID (1); anything else is left untouched.
//
// byte 3 high nibble: face buttons (Square/X/Circle/Triangle), bit-reversed
// so the host sees the order it expects; low nibble untouched.
// byte 4 high nibble: R1/L1 (from byte 3's low-nibble bits 3/2) and
// R3/L3 (from byte 2's bits 2/1).
// byte 5: Start/Select (byte 2 bits 3/0), PS (byte 4's low-nibble bit 0),
// and the D-pad hat (byte 2's high nibble) in the top nibble.
func FixupInput(report []byte) {
	if len(report) != InputReportSize || report[0] != InputReportID {
		return
	}

	faceLow := report[3] & 0x0F
	faceHigh := (report[3] >> 4) & 0x0F
	report[3] = faceLow | (reverseNibble(faceHigh) << 4)

	r1 := (report[3] >> 3) & 0x01
	l1 := (report[3] >> 2) & 0x01
	r3 := (report[2] >> 2) & 0x01
	l3 := (report[2] >> 1) & 0x01
	report[4] = (report[4] & 0x0F) | (r1 << 4) | (l1 << 5) | (r3 << 6) | (l3 << 7)

	start := (report[2] >> 3) & 0x01
	sel := report[2] & 0x01
	ps := report[4] & 0x01
	dpad := (report[2] >> 4) & 0x0F
	report[5] = start | (sel << 1) | (ps << 2) | (DPadToHat(dpad) << 4)
}
