package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	var payload struct {
		Start Date  `json:"start"`
		End   *Date `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-09-02","end":"2025-07-04T00:00:00Z"}`), &payload))
	assert.Equal(t, "2024-09-02", payload.Start.String())
	require.NotNil(t, payload.End)
	assert.Equal(t, "2025-07-04", payload.End.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-09-02","end":"2025-07-04"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start":"02/09/2024"}`), &payload))
}

func TestDateScanValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 1, 15, 13, 4, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-15", d.String())

	require.NoError(t, d.Scan([]byte("2023-12-31")))
	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", v)

	require.NoError(t, d.Scan(nil))
	v, err = d.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, d.Scan(42))
}

func TestSessionRoles(t *testing.T) {
	s := &Session{User: Identity{ID: "1", Role: RoleAdmin}}
	assert.True(t, s.Authenticated())
	assert.True(t, s.HasRole(RoleAdmin))
	assert.False(t, s.HasRole(RoleTeacher))

	errSession := &Session{Error: "RefreshAccessTokenError"}
	assert.True(t, errSession.IsError())
	assert.False(t, errSession.Authenticated())
	assert.False(t, errSession.HasRole(RoleAdmin, RoleTeacher))

	var nilSession *Session
	assert.False(t, nilSession.Authenticated())
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-3", "abc"} {
		_, ok := ParseID(raw)
		assert.False(t, ok, raw)
	}
}
