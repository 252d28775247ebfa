package identity

import (
	"strconv"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"
)

// Canonical is the resolved form of an IdentityRef: one merge key, the
// owning account when the identity is linked, and whether the key came
// from a raw name rather than a stable id.
type Canonical struct {
	Key         string
	Name        string
	AccountID   string
	AccountName string
	FromName    bool
}

// ShadowFunc decides whether a name-sourced key that collides with an
// id-sourced key for the same participant is a shadow row (its
// earned/spent duplicate the id row's events). The condition is inferred
// from drift investigations, not from an authoritative rule, so it is
// injectable.
type ShadowFunc func(nameKey string) bool

// DefaultShadow: the name is literally a character id written out as
// digits.
func DefaultShadow(nameKey string) bool {
	return isDigits(nameKey)
}

// Resolver maps identity references to canonical keys. Pure lookups
// only; built once from the character_account table plus a name index
// harvested from ledger rows that carry both a name and an id.
type Resolver struct {
	accounts map[int64]models.CharacterAccount
	nameToID map[string]int64
	shadow   ShadowFunc
}

func NewResolver(links []models.CharacterAccount, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		accounts: make(map[int64]models.CharacterAccount, len(links)),
		nameToID: make(map[string]int64),
		shadow:   DefaultShadow,
	}
	for _, l := range links {
		r.accounts[l.CharID] = l
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type ResolverOption func(*Resolver)

// WithNameIndex seeds the normalized-name -> char id backfill map, built
// from attendance rows where both fields are present. Digit-only names
// are skipped: those are the shadow rows and must keep their own key so
// the merge layer can treat them selectively.
func WithNameIndex(names map[string]int64) ResolverOption {
	return func(r *Resolver) {
		for name, id := range names {
			n := Normalize(name)
			if n == "" || isDigits(n) {
				continue
			}
			if _, ok := r.nameToID[n]; !ok {
				r.nameToID[n] = id
			}
		}
	}
}

func WithShadowFunc(f ShadowFunc) ResolverOption {
	return func(r *Resolver) {
		if f != nil {
			r.shadow = f
		}
	}
}

// Resolve returns the canonical key for ref. ok is false only when the
// reference normalizes to nothing (blank name).
func (r *Resolver) Resolve(ref IdentityRef) (Canonical, bool) {
	if id, byID := ref.ID(); byID {
		return r.byID(id, ref.Name()), true
	}

	norm := Normalize(ref.Name())
	if norm == "" {
		return Canonical{}, false
	}

	if id, ok := r.nameToID[norm]; ok {
		c := r.byID(id, ref.Name())
		c.FromName = true
		return c, true
	}

	return Canonical{Key: norm, Name: ref.Name(), FromName: true}, true
}

// IsShadow reports whether a name-sourced key colliding with an
// id-sourced key should be treated as a shadow row.
func (r *Resolver) IsShadow(nameKey string) bool {
	return r.shadow(nameKey)
}

func (r *Resolver) byID(id int64, name string) Canonical {
	c := Canonical{Key: strconv.FormatInt(id, 10), Name: name}
	if link, ok := r.accounts[id]; ok {
		c.AccountID = link.AccountID
		c.AccountName = link.AccountName
	}
	return c
}
