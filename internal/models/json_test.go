package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTripThroughColumn(t *testing.T) {
	j, err := NewJSON(map[string]interface{}{"title": "T", "effort": 3})
	require.NoError(t, err)

	v, err := j.Value()
	require.NoError(t, err)

	var scanned JSON
	require.NoError(t, scanned.Scan(v))

	var out map[string]interface{}
	require.NoError(t, scanned.Decode(&out))
	assert.Equal(t, "T", out["title"])
	assert.Equal(t, float64(3), out["effort"])
}

func TestDecodeEmptyLeavesTarget(t *testing.T) {
	out := []string{"keep"}
	require.NoError(t, JSON{}.Decode(&out))
	assert.Equal(t, []string{"keep"}, out)
}
