package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{"no base", "", "a.json", ""},
		{"no key", "https://cdn.example.com", "", ""},
		{"host only", "https://cdn.example.com", "drawings/d1/a.json", "https://cdn.example.com/drawings/d1/a.json"},
		{"with path", "https://cdn.example.com/archive", "/drawings/a.json", "https://cdn.example.com/archive/drawings/a.json"},
		{"trailing slash", "https://cdn.example.com/archive/", "a.json", "https://cdn.example.com/archive/a.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicURL(tt.base, tt.key))
		})
	}
}

func TestPutJSONMemoryStore(t *testing.T) {
	store := NewMemoryStore("https://cdn.example.com")
	res, err := PutJSON(context.Background(), store, "drawings/d1.json", map[string]int{"units": 4})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/drawings/d1.json", res.Location)

	body, ok := store.Get("drawings/d1.json")
	require.True(t, ok)
	var decoded map[string]int
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, 4, decoded["units"])
	assert.Equal(t, []string{"drawings/d1.json"}, store.Keys())

	require.NoError(t, store.Delete(context.Background(), "drawings/d1.json"))
	assert.Empty(t, store.Keys())
}

func TestMemoryStoreFailure(t *testing.T) {
	store := NewMemoryStore("")
	store.FailWith = errors.New("bucket unavailable")
	_, err := PutJSON(context.Background(), store, "k", 1)
	assert.EqualError(t, err, "bucket unavailable")
}
