package signaling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BindAndRemove(t *testing.T) {
	r := NewRegistry()
	a := &Client{ID: "a"}
	r.Connect(a)

	_, err := r.Bind("a", "a@x.com")
	require.NoError(t, err)

	identity, ok := r.Identity("a")
	require.True(t, ok)
	assert.Equal(t, "a@x.com", identity)

	id, ok := r.ConnectionFor("a@x.com")
	require.True(t, ok)
	assert.Equal(t, "a", id)

	got, ok := r.Remove("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = r.Identity("a")
	assert.False(t, ok)
	_, ok = r.ConnectionFor("a@x.com")
	assert.False(t, ok)
	assert.Zero(t, r.Len())

	_, ok = r.Remove("a")
	assert.False(t, ok)
}

func TestRegistry_RebindOverwritesIdentity(t *testing.T) {
	r := NewRegistry()
	r.Connect(&Client{ID: "a"})

	_, err := r.Bind("a", "old@x.com")
	require.NoError(t, err)
	_, err = r.Bind("a", "new@x.com")
	require.NoError(t, err)

	identity, _ := r.Identity("a")
	assert.Equal(t, "new@x.com", identity)
	_, ok := r.ConnectionFor("old@x.com")
	assert.False(t, ok)
}

func TestRegistry_IdentityHeldByOneConnection(t *testing.T) {
	r := NewRegistry()
	r.Connect(&Client{ID: "a"})
	r.Connect(&Client{ID: "b"})

	_, err := r.Bind("a", "same@x.com")
	require.NoError(t, err)
	evicted, err := r.Bind("b", "same@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a", evicted)

	_, ok := r.Identity("a")
	assert.False(t, ok)
	id, _ := r.ConnectionFor("same@x.com")
	assert.Equal(t, "b", id)

	// Removing the evicted connection must not unbind the new holder.
	r.Remove("a")
	id, ok = r.ConnectionFor("same@x.com")
	require.True(t, ok)
	assert.Equal(t, "b", id)
}

func TestRegistry_BindUnknownConnection(t *testing.T) {
	r := NewRegistry()
	_, err := r.Bind("ghost", "g@x.com")
	assert.ErrorIs(t, err, ErrUnknownConnection)
}
