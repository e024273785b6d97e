package registry

import (
	"sort"
)

// Token uniquely identifies a listener registration.
// Each call to Add generates a new Token, allowing multiple listeners on the
// same channel with independent lifecycles.
type Token string

// Names is a set of channels and channel groups.
type Names struct {
	Channels []string `json:"channels,omitempty"`
	Groups   []string `json:"groups,omitempty"`
}

// Empty reports whether n names nothing.
func (n Names) Empty() bool {
	return len(n.Channels) == 0 && len(n.Groups) == 0
}

// Equal compares two normalized name sets.
func (n Names) Equal(other Names) bool {
	return equalStrings(n.Channels, other.Channels) && equalStrings(n.Groups, other.Groups)
}

// Minus returns the names in n that are not in other.
func (n Names) Minus(other Names) Names {
	return Names{
		Channels: minus(n.Channels, other.Channels),
		Groups:   minus(n.Groups, other.Groups),
	}
}

func (n Names) normalize() Names {
	return Names{Channels: uniqueSorted(n.Channels), Groups: uniqueSorted(n.Groups)}
}

func uniqueSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func minus(a, b []string) []string {
	if len(a) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(b))
	for _, s := range b {
		drop[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := drop[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// DispatchStats summarizes one DispatchBatch call.
type DispatchStats struct {
	Envelopes  int // envelopes offered
	Deliveries int // envelope copies queued across all listeners
	Dropped    int // older envelopes evicted from full queues
	Unmatched  int // envelopes no listener wanted
}
