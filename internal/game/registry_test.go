package game

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(quietLogger())
	s := r.Create(Options{Logger: quietLogger()})
	require.Len(t, s.Code, 8)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	got, ok = r.GetByCode(" " + strings.ToUpper(s.Code) + " ")
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.GetByCode("nope")
	assert.False(t, ok)
	_, ok = r.Get(uuid.New())
	assert.False(t, ok)

	other := r.Create(Options{Logger: quietLogger()})
	assert.NotEqual(t, s.Code, other.Code)
	assert.ElementsMatch(t, []*Session{s, other}, r.List())

	r.Delete(s.ID)
	r.Delete(s.ID)
	_, ok = r.GetByCode(s.Code)
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryDropsEmptySessions(t *testing.T) {
	r := NewRegistry(quietLogger())
	s := r.Create(Options{Logger: quietLogger()})

	require.NoError(t, s.Join("alice", "a"))
	require.NoError(t, s.Join("bob", "b"))
	require.NoError(t, s.Leave("alice"))
	assert.Equal(t, 1, r.Len())

	require.NoError(t, s.Leave("bob"))
	assert.Equal(t, 0, r.Len())
	_, ok := r.GetByCode(s.Code)
	assert.False(t, ok)
}
