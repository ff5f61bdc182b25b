package sixaxis_test

import (
	"testing"

	"github.com/btsixad/btsixad/sixaxis"
	"github.com/stretchr/testify/assert"
)

func TestDPadToHatTableValues(t *testing.T) {
	want := map[byte]byte{
		0x0: 15, 0x1: 0, 0x2: 2, 0x3: 1, 0x4: 4, 0x5: 15, 0x6: 3, 0x7: 15,
		0x8: 6, 0x9: 7, 0xA: 15, 0xB: 15, 0xC: 5, 0xD: 15, 0xE: 15, 0xF: 15,
	}
	for dpad, hat := range want {
		assert.Equal(t, hat, sixaxis.DPadToHat(dpad), "dpad field %x", dpad)
	}
}

func TestDPadToHatCardinalsAndDiagonalsAreUnique(t *testing.T) {
	seen := map[byte]bool{}
	for _, combo := range []byte{0x1, 0x2, 0x3, 0x4, 0x6, 0x8, 0x9, 0xC} {
		hat := sixaxis.DPadToHat(combo)
		assert.Less(t, hat, byte(8), "combo %x should map into 0..7, got %d", combo, hat)
		assert.False(t, seen[hat], "combo %x produced duplicate hat value %d", combo, hat)
		seen[hat] = true
	}
	assert.Len(t, seen, 8)
}

func TestFixupFaceButtonNibbleIsInvolution(t *testing.T) {
	report := make([]byte, sixaxis.InputReportSize)
	report[0] = sixaxis.InputReportID
	report[3] = 0x5A // low nibble 0xA, high nibble 0x5

	before := append([]byte(nil), report...)

	sixaxis.FixupInput(report)
	firstPass := append([]byte(nil), report...)
	sixaxis.FixupInput(report)

	assert.Equal(t, before[3]&0x0F, report[3]&0x0F, "low nibble untouched")
	assert.NotEqual(t, before, firstPass, "fixup should change a non-palindromic nibble")
	assert.Equal(t, before[3], report[3], "reversing the face-button nibble twice restores the original byte")
}

// TestFixupScenarioS2 reproduces spec.md's S2 scenario byte-for-byte: byte2
// = 0x10, byte3 = 0x80, rest zero. The original fixup yields byte4 = 0x00
// and byte5 = 0x00 for this input.
func TestFixupScenarioS2(t *testing.T) {
	report := make([]byte, sixaxis.InputReportSize)
	report[0] = sixaxis.InputReportID
	report[2] = 0x10
	report[3] = 0x80

	sixaxis.FixupInput(report)

	assert.Equal(t, byte(0x00), report[3]&0x0F, "low nibble untouched")
	assert.Equal(t, byte(0x00), report[4])
	assert.Equal(t, byte(0x00), report[5])
}

func TestFixupGathersShoulderAndThumbBits(t *testing.T) {
	report := make([]byte, sixaxis.InputReportSize)
	report[0] = sixaxis.InputReportID
	report[3] = 0x0C // bit3 (R1) and bit2 (L1) set in the low nibble
	report[2] = 0x06 // bit2 (R3) and bit1 (L3) set

	sixaxis.FixupInput(report)

	assert.Equal(t, byte(0xF0), report[4]&0xF0, "R1/L1/R3/L3 all gathered into byte4's high nibble")
}

func TestFixupGathersSystemButtonsAndHat(t *testing.T) {
	report := make([]byte, sixaxis.InputReportSize)
	report[0] = sixaxis.InputReportID
	report[2] = 0x19 // bit3 (Start), bit0 (Select), D-pad nibble = 0x1
	report[4] = 0x01 // PS bit

	sixaxis.FixupInput(report)

	assert.Equal(t, byte(0x01), report[5]&0x01, "Start")
	assert.Equal(t, byte(0x02), report[5]&0x02, "Select")
	assert.Equal(t, byte(0x04), report[5]&0x04, "PS")
	assert.Equal(t, sixaxis.DPadToHat(0x1)<<4, report[5]&0xF0, "D-pad hat in the high nibble")
}

func TestFixupIgnoresNonInputReports(t *testing.T) {
	report := []byte{0x02, 0x01, 0x02, 0x03}
	orig := append([]byte(nil), report...)
	sixaxis.FixupInput(report)
	assert.Equal(t, orig, report)
}
