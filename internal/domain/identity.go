package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidIdentity = errors.New("invalid identity")

type IdentityKind string

const (
	IdentityUser   IdentityKind = "user"
	IdentityDevice IdentityKind = "device"
)

// Identity is who is acting: a logged-in user or an anonymous device token.
// It is always passed explicitly into the operations that need it.
type Identity struct {
	Kind IdentityKind
	ID   string
}

func UserIdentity(id string) Identity {
	return Identity{Kind: IdentityUser, ID: id}
}

// DeviceIdentity accepts only UUID tokens, normalized to lower case.
func DeviceIdentity(token string) (Identity, error) {
	u, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return Identity{}, ErrInvalidIdentity
	}
	return Identity{Kind: IdentityDevice, ID: u.String()}, nil
}

// ParseIdentity reverses String.
func ParseIdentity(s string) (Identity, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return Identity{}, ErrInvalidIdentity
	}
	switch IdentityKind(kind) {
	case IdentityUser:
		return UserIdentity(id), nil
	case IdentityDevice:
		return DeviceIdentity(id)
	}
	return Identity{}, ErrInvalidIdentity
}

func (i Identity) String() string {
	if i.IsZero() {
		return ""
	}
	return string(i.Kind) + ":" + i.ID
}

func (i Identity) IsZero() bool {
	return i.ID == ""
}

func (i Identity) IsUser() bool {
	return i.Kind == IdentityUser && i.ID != ""
}
