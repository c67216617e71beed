package session

import "ai-financer/internal/models"

// IdentityKind tags the Identity variant.
type IdentityKind int

const (
	KindNone IdentityKind = iota
	KindGuest
	KindAuthenticated
)

func (k IdentityKind) String() string {
	switch k {
	case KindGuest:
		return "guest"
	case KindAuthenticated:
		return "authenticated"
	}
	return "none"
}

// Identity is Authenticated{uid} | Guest{guestID} | None. The zero value is
// None.
type Identity struct {
	kind IdentityKind
	id   string
}

// None is the absence of a session.
var None = Identity{}

func Authenticated(uid string) Identity {
	return Identity{kind: KindAuthenticated, id: uid}
}

func Guest(guestID string) Identity {
	return Identity{kind: KindGuest, id: guestID}
}

func (i Identity) Kind() IdentityKind { return i.kind }

// ID is the uid or guest id; empty for None.
func (i Identity) ID() string { return i.id }

func (i Identity) IsNone() bool { return i.kind == KindNone }

func (i Identity) String() string {
	if i.kind == KindNone {
		return "none"
	}
	return i.kind.String() + ":" + i.id
}

// Binding is what storage needs to know about an identity.
type Binding struct {
	// Namespace suffixes local cache keys; empty means nothing may be stored.
	Namespace string
	// RemoteUID is the remote namespace; only set when Remote is true.
	RemoteUID string
	Remote    bool
}

// Binding derives cache namespace and remote access for the identity. All
// guest/authenticated branching for storage goes through here.
func (i Identity) Binding() Binding {
	switch i.kind {
	case KindAuthenticated:
		return Binding{Namespace: i.id, RemoteUID: i.id, Remote: true}
	case KindGuest:
		return Binding{Namespace: i.id}
	}
	return Binding{}
}

// CacheKey is the local cache key holding the identity's list of kind.
func (i Identity) CacheKey(kind models.Kind) (string, bool) {
	b := i.Binding()
	if b.Namespace == "" {
		return "", false
	}
	return string(kind) + "_" + b.Namespace, true
}
