package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	body := []byte(`{"rooms":[]}`)

	bs, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	_, _, _, ok := decodePayload(nil)
	assert.False(t, ok)

	_, _, _, ok = decodePayload([]byte("short"))
	assert.False(t, ok)

	// Header length pointing past the end of the buffer.
	bs, err := encodePayload(http.StatusOK, http.Header{}, []byte("x"))
	require.NoError(t, err)
	_, _, _, ok = decodePayload(bs[:9])
	assert.False(t, ok)
}
