package riskgate

import "context"

// StaticReputation is a ReputationSource backed by configured address lists.
// An empty allowlist means the allowlist check is disabled.
type StaticReputation struct {
	denylist  map[string]struct{}
	allowlist map[string]struct{}
}

// NewStaticReputation builds a StaticReputation from address slices.
func NewStaticReputation(denylist, allowlist []string) *StaticReputation {
	s := &StaticReputation{
		denylist:  make(map[string]struct{}, len(denylist)),
		allowlist: make(map[string]struct{}, len(allowlist)),
	}
	for _, addr := range denylist {
		s.denylist[addr] = struct{}{}
	}
	for _, addr := range allowlist {
		s.allowlist[addr] = struct{}{}
	}
	return s
}

// Compile-time interface check.
var _ ReputationSource = (*StaticReputation)(nil)

// Reputation reports list membership for a creator address.
func (s *StaticReputation) Reputation(_ context.Context, creator string) (Reputation, error) {
	_, denied := s.denylist[creator]
	_, allowed := s.allowlist[creator]
	return Reputation{
		Denylisted:     denied,
		Allowlisted:    allowed,
		AllowlistInUse: len(s.allowlist) > 0,
	}, nil
}
