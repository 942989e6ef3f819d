package core

import (
	"strings"

	"github.com/samber/lo"
)

// Presence is the set of online identities as of the last roster snapshot.
// Every snapshot replaces the previous one; there are no incremental updates.
type Presence struct {
	self       string
	online     []string
	index      map[string]struct{}
	selfListed bool
}

// NewPresence creates an empty tracker for the local identity self.
func NewPresence(self string) *Presence {
	return &Presence{
		self:  self,
		index: make(map[string]struct{}),
	}
}

// Replace swaps the online set for ids. Entries are trimmed, blanks and duplicates are
// dropped, and the local identity is kept out of the listed set.
func (p *Presence) Replace(ids []string) {
	clean := lo.Uniq(lo.Compact(lo.Map(ids, func(id string, _ int) string {
		return strings.TrimSpace(id)
	})))

	p.selfListed = lo.Contains(clean, p.self)
	p.online = lo.Without(clean, p.self)
	p.index = make(map[string]struct{}, len(p.online))
	for _, id := range p.online {
		p.index[id] = struct{}{}
	}
}

// IsOnline reports whether id was in the last snapshot.
func (p *Presence) IsOnline(id string) bool {
	if id == p.self {
		return p.selfListed
	}
	_, ok := p.index[id]
	return ok
}

// List returns the online identities in snapshot order, without the local identity.
func (p *Presence) List() []string {
	out := make([]string, len(p.online))
	copy(out, p.online)
	return out
}

// SelfListed reports whether the last snapshot contained the local identity.
func (p *Presence) SelfListed() bool {
	return p.selfListed
}

// Self returns the local identity.
func (p *Presence) Self() string {
	return p.self
}
