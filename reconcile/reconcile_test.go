package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestId(t *testing.T) {
	a := NewId()
	b := NewId()
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, Id{})

	parsed, err := ParseId(a.String())
	assert.Equal(t, nil, err)
	assert.Equal(t, a, parsed)

	idJson, err := json.Marshal(&a)
	assert.Equal(t, nil, err)
	var c Id
	err = json.Unmarshal(idJson, &c)
	assert.Equal(t, nil, err)
	assert.Equal(t, a, c)
}

func TestKeysMatch(t *testing.T) {
	// unkeyed views never match by key. Position is the tiebreaker.
	assert.Equal(t, false, keysMatch(Key{}, Key{}))

	assert.Equal(t, true, keysMatch(ValueKey("item", "1"), ValueKey("item", "1")))
	assert.Equal(t, false, keysMatch(ValueKey("item", "1"), ValueKey("item", "2")))
	assert.Equal(t, false, keysMatch(ValueKey("item", "1"), ValueKey("row", "1")))

	ref1 := &testLabel{}
	ref2 := &testLabel{}
	assert.Equal(t, true, keysMatch(ObjectKey(ref1), ObjectKey(ref1)))
	assert.Equal(t, false, keysMatch(ObjectKey(ref1), ObjectKey(ref2)))

	u1 := UniqueKey()
	u2 := UniqueKey()
	assert.Equal(t, true, keysMatch(u1, u1))
	assert.Equal(t, false, keysMatch(u1, u2))

	g := GlobalKey()
	assert.Equal(t, true, keysMatch(g, g))
	assert.Equal(t, false, keysMatch(g, UniqueKey()))
}

func TestCanUpdate(t *testing.T) {
	// same type, both unkeyed: position decides, compatible
	assert.Equal(t, true, canUpdate(label(Key{}, "a"), label(Key{}, "b")))
	// different concrete types never update each other
	assert.Equal(t, false, canUpdate(label(Key{}, "a"), box(Key{})))
	// keys must match when present
	assert.Equal(t, true, canUpdate(label(ValueKey("k", "1"), "a"), label(ValueKey("k", "1"), "b")))
	assert.Equal(t, false, canUpdate(label(ValueKey("k", "1"), "a"), label(ValueKey("k", "2"), "a")))
	assert.Equal(t, false, canUpdate(label(ValueKey("k", "1"), "a"), label(Key{}, "a")))
	assert.Equal(t, false, canUpdate(nil, label(Key{}, "a")))
}

func expectInvariant(t *testing.T, f func()) {
	defer func() {
		r := recover()
		assert.NotEqual(t, nil, r)
		if _, ok := r.(*InvariantError); !ok {
			t.Fatalf("expected an invariant fault, got %v", r)
		}
	}()
	f()
}
