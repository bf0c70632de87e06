package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSnapshotLayout(t *testing.T) {
	data, err := EncodeSnapshot([]Player{{
		ID:        "p-1",
		Name:      "Ana",
		StartTime: 1000,
		Duration:  30,
		Status:    StatusActive,
		CreatedAt: 1000,
	}})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"state": {"players": [
			{"id":"p-1","name":"Ana","startTime":1000,"duration":30,"status":"active","createdAt":1000}
		]},
		"version": 0
	}`, string(data))
}

func TestEncodeSnapshotNilIsEmptyList(t *testing.T) {
	data, err := EncodeSnapshot(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"players":[]},"version":0}`, string(data))
}

func TestDecodeSnapshot(t *testing.T) {
	players, err := DecodeSnapshot([]byte(`{"state":{"players":[
		{"id":"p-1","name":"Ana","startTime":1000,"duration":30,"status":"expired","createdAt":1000}
	]},"version":0}`))
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, PlayerID("p-1"), players[0].ID)
	assert.Equal(t, StatusExpired, players[0].Status)
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"not json":        `not json`,
		"missing state":   `{"version":0}`,
		"missing players": `{"state":{},"version":0}`,
		"missing id":      `{"state":{"players":[{"name":"x","status":"active"}]}}`,
		"bad status":      `{"state":{"players":[{"id":"a","status":"paused"}]}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(doc))
			assert.ErrorIs(t, err, ErrSyncParse)
		})
	}
}
