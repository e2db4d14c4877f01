package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 123_000_000, time.UTC)
	c, err := decodeCursor(encodeCursor(Document{ID: "abc", CreatedAt: created}))
	require.NoError(t, err)
	assert.Equal(t, "abc", c.id)
	assert.True(t, created.Equal(c.createdAt))

	c, err = decodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, c)
}
