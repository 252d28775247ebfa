package identity

import (
	"strconv"
)

// IdentityRef addresses a participant either by stable character id or,
// when no id exists yet, by raw display name. Callers construct it once
// at the edge; everything downstream works with the resolved canonical
// key and never branches on id-vs-name again.
type IdentityRef struct {
	id   int64
	name string
	byID bool
}

func ByID(id int64) IdentityRef {
	return IdentityRef{id: id, byID: true}
}

func ByName(name string) IdentityRef {
	return IdentityRef{name: name}
}

// WithName attaches a display name to an id-keyed reference. The name
// never affects resolution; it only rides along so aggregate rows can
// carry a readable character_name.
func (r IdentityRef) WithName(name string) IdentityRef {
	r.name = name
	return r
}

func (r IdentityRef) ID() (int64, bool) {
	return r.id, r.byID
}

func (r IdentityRef) Name() string {
	return r.name
}

func (r IdentityRef) String() string {
	if r.byID {
		return strconv.FormatInt(r.id, 10)
	}
	return r.name
}
