package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndGet(t *testing.T) {
	s := New(time.Minute)

	s.Put(context.Background(), "k1", map[string]int{"orders": 12})

	raw, ok := s.Get("k1")
	require.True(t, ok)

	var got map[string]int
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, 12, got["orders"])
}

func TestGetMissing(t *testing.T) {
	s := New(time.Minute)

	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	s := New(-time.Second) // everything is already expired

	s.Put(context.Background(), "k1", "payload")

	_, ok := s.Get("k1")
	assert.False(t, ok)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Sweep())
}

func TestKeyIsDeterministic(t *testing.T) {
	a := Key("acct-1", "meta-ads", "first_click")
	b := Key("acct-1", "meta-ads", "first_click")
	c := Key("acct-1", "meta-ads", "last_click")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
