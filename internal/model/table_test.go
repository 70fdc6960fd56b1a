package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableEnabledByDefault(t *testing.T) {
	var tb Table
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"x":10,"y":20,"width":100,"shape":"round","capacity":6}`), &tb))
	assert.True(t, tb.Enabled())
	assert.Equal(t, IntID(3), tb.ID)
	assert.Equal(t, 6, tb.Capacity)

	b, err := json.Marshal(tb)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"enabled":true`)

	require.NoError(t, json.Unmarshal([]byte(`{"enabled":false}`), &tb))
	assert.False(t, tb.Enabled())
	assert.Equal(t, 6, tb.Capacity, "partial documents keep the other fields")

	b, err = json.Marshal(Layout{Tables: []Table{tb}})
	require.NoError(t, err)
	var back Layout
	require.NoError(t, json.Unmarshal(b, &back))
	require.Len(t, back.Tables, 1)
	assert.True(t, back.Tables[0].Disabled)
}
