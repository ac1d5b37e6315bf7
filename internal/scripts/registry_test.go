package scripts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/debugbridge/internal/protocol"
)

func TestRegistryAddFindReset(t *testing.T) {
	r := NewRegistry()
	r.Add(protocol.Script{ID: 2, Name: "/app/b.js", Source: "b()"})
	r.Add(protocol.Script{ID: 1, Name: "/app/a.js", Source: "a()"})

	s, ok := r.FindByID(1)
	require.True(t, ok)
	assert.Equal(t, "/app/a.js", s.Name)

	s, ok = r.FindByPath("/app/b.js")
	require.True(t, ok)
	assert.Equal(t, 2, s.ID)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, 2, all[1].ID)

	r.Reset()
	assert.Equal(t, 0, r.Len())
	_, ok = r.FindByPath("/app/b.js")
	assert.False(t, ok)
}

func TestRegistryReplaceDropsOldPath(t *testing.T) {
	r := NewRegistry()
	r.Add(protocol.Script{ID: 1, Name: "/app/old.js"})
	r.Add(protocol.Script{ID: 1, Name: "/app/new.js"})

	_, ok := r.FindByPath("/app/old.js")
	assert.False(t, ok)
	s, ok := r.FindByPath("/app/new.js")
	require.True(t, ok)
	assert.Equal(t, 1, s.ID)
}

func TestRegistrySourceNotFound(t *testing.T) {
	r := NewRegistry()
	r.Add(protocol.Script{ID: 5, Name: "/app/a.js", Source: "var a = 1;"})

	src, err := r.Source(5)
	require.NoError(t, err)
	assert.Equal(t, "var a = 1;", src)

	_, err = r.Source(6)
	assert.True(t, errors.Is(err, protocol.ErrNotFound))
}

func TestOnDisk(t *testing.T) {
	assert.True(t, OnDisk("/app/a.js"))
	assert.False(t, OnDisk("a.js"))
	assert.False(t, OnDisk(""))
}

func TestURLConversion(t *testing.T) {
	assert.Equal(t, "/app/a b.js", URLToName("file:///app/a%20b.js"))
	assert.Equal(t, "native.js", URLToName("native.js"))
	assert.Equal(t, "file:///app/a.js", NameToURL("/app/a.js"))
	assert.Equal(t, "vm.js", NameToURL("vm.js"))
}
