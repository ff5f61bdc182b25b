package hidp_test

import (
	"bytes"
	"testing"

	"github.com/btsixad/btsixad/hidp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeGetReport(t *testing.T) {
	h, payload := hidp.EncodeGetReport(hidp.ReportTypeInput, true, 1, 49)
	assert.Equal(t, byte(0x49), byte(h))
	assert.Equal(t, []byte{0x01, 0x31, 0x00}, payload)

	h2, payload2 := hidp.EncodeGetReport(hidp.ReportTypeFeature, false, 0, 48)
	assert.Equal(t, byte(0x4B), byte(h2))
	assert.Equal(t, []byte{0x30, 0x00}, payload2)
}

func TestEncodeSetReport(t *testing.T) {
	body := []byte{0xf4, 0x42, 0x03, 0x00, 0x00}
	h, payload := hidp.EncodeSetReport(hidp.ReportTypeFeature, body)
	assert.Equal(t, byte(0x53), byte(h))
	assert.Equal(t, body, payload)
}

func TestHeaderKindLow(t *testing.T) {
	h := hidp.MakeHeader(hidp.KindData, byte(hidp.ReportTypeInput))
	assert.Equal(t, byte(0xA), h.Kind())
	assert.Equal(t, byte(0x1), h.Low())
}

func TestWriteReadTransactionRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{1, 2, 3, 4}
	err := hidp.WriteTransaction(&buf, hidp.MakeHeader(hidp.KindData, 1), payload)
	require.NoError(t, err)

	scratch := make([]byte, hidp.MaxTransactionSize)
	h, got, err := hidp.ReadTransaction(&buf, scratch)
	require.NoError(t, err)
	assert.Equal(t, byte(0xA1), byte(h))
	assert.Equal(t, payload, got)
}

func TestReadTransactionZeroLengthIsDisconnect(t *testing.T) {
	r := bytes.NewReader(nil)
	scratch := make([]byte, hidp.MaxTransactionSize)
	_, _, err := hidp.ReadTransaction(r, scratch)
	assert.ErrorIs(t, err, hidp.ErrDisconnected)
}

func TestWriteTransactionShortWriteIsDisconnect(t *testing.T) {
	err := hidp.WriteTransaction(failingWriter{}, hidp.MakeHeader(hidp.KindHandshake, 0), nil)
	assert.ErrorIs(t, err, hidp.ErrDisconnected)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, bytes.ErrTooLarge
}
