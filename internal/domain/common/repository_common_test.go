package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 30, 45, 123456789, time.UTC)
	token := EncodeTimeCursor(at, "ord-1")

	gotT, gotID, err := DecodeTimeCursor(token)
	require.NoError(t, err)
	require.Equal(t, at, gotT)
	require.Equal(t, "ord-1", gotID)
}

func TestDecodeTimeCursor_IDWithSeparator(t *testing.T) {
	// Timestamps never contain '|', so an id with one still round-trips.
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	gotT, gotID, err := DecodeTimeCursor(EncodeTimeCursor(at, "a|b"))
	require.NoError(t, err)
	require.Equal(t, at, gotT)
	require.Equal(t, "a|b", gotID)
}

func TestDecodeTimeCursor_Malformed(t *testing.T) {
	for _, bad := range []string{"", "   ", "no-separator", "|id", "2026-01-01T00:00:00Z|", "not-a-time|id"} {
		_, _, err := DecodeTimeCursor(bad)
		require.Error(t, err, "token=%q", bad)
	}
}

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, 20, NormalizeLimit(0, 20, 100))
	require.Equal(t, 20, NormalizeLimit(-5, 20, 100))
	require.Equal(t, 7, NormalizeLimit(7, 20, 100))
	require.Equal(t, 100, NormalizeLimit(500, 20, 100))
}
