package sixaxis_test

import (
	"testing"

	"github.com/btsixad/btsixad/sixaxis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDescriptorLength checks against the original Sixaxis descriptor's
// actual length (122 bytes), not spec.md's rounded "~150 bytes" figure.
func TestDescriptorLength(t *testing.T) {
	d := sixaxis.SixaxisDescriptor
	require.NotNil(t, d)
	assert.Equal(t, 122, d.Len())
	assert.Equal(t, 122, len(d.Bytes()))
}

func TestDescriptorPassthroughIsStable(t *testing.T) {
	a := sixaxis.SixaxisDescriptor.Bytes()
	b := sixaxis.SixaxisDescriptor.Bytes()
	assert.Equal(t, a, b)
}

// TestDescriptorMatchesOriginalBytes pins the descriptor to the original
// sixaxis.c descr[] array byte-for-byte (spec.md §8 property 7).
func TestDescriptorMatchesOriginalBytes(t *testing.T) {
	want := []byte{
		0x05, 0x01, 0x09, 0x05, 0xa1, 0x01, 0x85, 0x01, 0x14, 0x25, 0x01, 0x75,
		0x01, 0x95, 0x14, 0x81, 0x01, 0x05, 0x09, 0x19, 0x01, 0x29, 0x04, 0x95,
		0x04, 0x81, 0x02, 0x81, 0x01, 0x19, 0x05, 0x29, 0x0b, 0x95, 0x07, 0x81,
		0x02, 0x95, 0x01, 0x81, 0x01, 0x05, 0x01, 0x09, 0x39, 0x14, 0x25, 0x07,
		0x34, 0x46, 0x3b, 0x01, 0x65, 0x14, 0x75, 0x04, 0x81, 0x42, 0x64, 0x09,
		0x01, 0xa1, 0x00, 0x09, 0x30, 0x09, 0x31, 0x26, 0xff, 0x00, 0x35, 0x80,
		0x45, 0x7f, 0x75, 0x08, 0x95, 0x02, 0x81, 0x02, 0xc0, 0x09, 0x01, 0xa1,
		0x00, 0x09, 0x33, 0x09, 0x34, 0x81, 0x02, 0xc0, 0x95, 0x08, 0x81, 0x01,
		0x09, 0x38, 0x09, 0x36, 0x34, 0x46, 0xff, 0x00, 0x95, 0x02, 0x81, 0x02,
		0x44, 0x95, 0x1d, 0x81, 0x01, 0x75, 0x08, 0x95, 0x30, 0x91, 0x02, 0xb1,
		0x02, 0xc0,
	}
	assert.Equal(t, want, sixaxis.SixaxisDescriptor.Bytes())
}

func TestFirstReportID(t *testing.T) {
	assert.Equal(t, byte(sixaxis.InputReportID), sixaxis.SixaxisDescriptor.FirstReportID())
}
