package reconcile

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// comparable
type Id [16]byte

func NewId() Id {
	return Id(ulid.Make())
}

func IdFromBytes(idBytes []byte) (Id, error) {
	if len(idBytes) != 16 {
		return Id{}, errors.New("Id must be 16 bytes")
	}
	return Id(idBytes), nil
}

func RequireIdFromBytes(idBytes []byte) Id {
	id, err := IdFromBytes(idBytes)
	if err != nil {
		panic(err)
	}
	return id
}

func ParseId(idStr string) (Id, error) {
	return parseUuid(idStr)
}

func (self Id) Bytes() []byte {
	return self[0:16]
}

func (self Id) String() string {
	return encodeUuid(self)
}

func (self *Id) MarshalJSON() ([]byte, error) {
	var buf [16]byte
	copy(buf[0:16], self[0:16])
	var buff bytes.Buffer
	buff.WriteByte('"')
	buff.WriteString(encodeUuid(buf))
	buff.WriteByte('"')
	return buff.Bytes(), nil
}

func (self *Id) UnmarshalJSON(src []byte) error {
	if len(src) != 38 {
		return fmt.Errorf("invalid length for UUID: %v", len(src))
	}
	buf, err := parseUuid(string(src[1 : len(src)-1]))
	if err != nil {
		return err
	}
	*self = buf
	return nil
}

func parseUuid(src string) (dst [16]byte, err error) {
	switch len(src) {
	case 36:
		src = src[0:8] + src[9:13] + src[14:18] + src[19:23] + src[24:]
	case 32:
		// dashes already stripped, assume valid
	default:
		// assume invalid.
		return dst, fmt.Errorf("cannot parse UUID %v", src)
	}

	buf, err := hex.DecodeString(src)
	if err != nil {
		return dst, err
	}

	copy(dst[:], buf)
	return dst, err
}

func encodeUuid(src [16]byte) string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", src[0:4], src[4:6], src[6:8], src[8:10], src[10:16])
}

type KeyKind int

const (
	KeyNone KeyKind = iota
	KeyValue
	KeyObject
	KeyUnique
	KeyGlobal
)

func (self KeyKind) String() string {
	switch self {
	case KeyNone:
		return "none"
	case KeyValue:
		return "value"
	case KeyObject:
		return "object"
	case KeyUnique:
		return "unique"
	case KeyGlobal:
		return "global"
	default:
		return fmt.Sprintf("keykind(%d)", int(self))
	}
}

// comparable
// the identity of a view across updates. An element may only be reused for a
// new view when the keys match (see `keysMatch`).
// object key refs must be comparable values, typically pointers.
type Key struct {
	Kind  KeyKind
	Tag   string
	Value string
	Ref   any
	Token Id
}

func ValueKey(tag string, value string) Key {
	return Key{
		Kind:  KeyValue,
		Tag:   tag,
		Value: value,
	}
}

func ObjectKey(ref any) Key {
	return Key{
		Kind: KeyObject,
		Ref:  ref,
	}
}

func UniqueKey() Key {
	return Key{
		Kind:  KeyUnique,
		Token: NewId(),
	}
}

// a global key participates in the tree-wide registry and allows an element
// to move to a different parent without losing its state
func GlobalKey() Key {
	return Key{
		Kind:  KeyGlobal,
		Token: NewId(),
	}
}

// two `KeyNone` keys never match. Position is the tiebreaker for unkeyed
// views, which is applied by the reconciliation scan order and never here.
func keysMatch(a Key, b Key) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KeyNone:
		return false
	case KeyValue:
		return a.Tag == b.Tag && a.Value == b.Value
	case KeyObject:
		return a.Ref == b.Ref
	case KeyUnique, KeyGlobal:
		return a.Token == b.Token
	default:
		return false
	}
}

func (self Key) String() string {
	switch self.Kind {
	case KeyNone:
		return "none"
	case KeyValue:
		return fmt.Sprintf("value(%s:%s)", self.Tag, self.Value)
	case KeyObject:
		return fmt.Sprintf("object(%v)", self.Ref)
	case KeyUnique:
		return fmt.Sprintf("unique(%s)", self.Token)
	case KeyGlobal:
		return fmt.Sprintf("global(%s)", self.Token)
	default:
		return fmt.Sprintf("key(%d)", int(self.Kind))
	}
}

// programming error fault. These are precondition violations
// (wrong lifecycle transition, duplicate global key, moving a handle that is
// not a child, re-entrant scheduling from inside an expansion) and are never
// converted to a recoverable error.
type InvariantError struct {
	message string
}

func (self *InvariantError) Error() string {
	return self.message
}

func invariantf(format string, a ...any) {
	panic(&InvariantError{
		message: fmt.Sprintf(format, a...),
	})
}
