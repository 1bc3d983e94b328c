package registry

import (
	"fmt"
	"sort"

	"github.com/clcc2019/stock-intraday-trading/internal/marketdata"
	"github.com/clcc2019/stock-intraday-trading/internal/provider"
)

// Entry pairs a provider client with its failover policy.
type Entry struct {
	Descriptor provider.Descriptor
	Client     provider.Client
}

// Registry holds the ordered provider list per data kind. Ordering is total
// and deterministic: ascending priority, ties broken by name. Static after
// construction; there is no health-based re-ranking.
type Registry struct {
	byKind map[marketdata.Kind][]Entry
}

// New builds a registry from the given entries. It fails when an entry is
// inconsistent (descriptor kinds the client does not implement, missing
// client) or when any supported data kind ends up with zero providers.
func New(entries []Entry) (*Registry, error) {
	byKind := make(map[marketdata.Kind][]Entry)

	for _, e := range entries {
		if e.Client == nil {
			return nil, fmt.Errorf("registry: entry %q has no client", e.Descriptor.Name)
		}
		if e.Descriptor.Name != e.Client.Name() {
			return nil, fmt.Errorf("registry: descriptor %q does not match client %q",
				e.Descriptor.Name, e.Client.Name())
		}
		for _, kind := range e.Descriptor.Kinds {
			if !clientServes(e.Client, kind) {
				return nil, fmt.Errorf("registry: provider %q registered for kind %q it does not serve",
					e.Descriptor.Name, kind)
			}
			byKind[kind] = append(byKind[kind], e)
		}
	}

	for _, kind := range marketdata.Kinds() {
		if len(byKind[kind]) == 0 {
			return nil, fmt.Errorf("registry: no provider registered for kind %q", kind)
		}
		list := byKind[kind]
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Descriptor.Priority != list[j].Descriptor.Priority {
				return list[i].Descriptor.Priority < list[j].Descriptor.Priority
			}
			return list[i].Descriptor.Name < list[j].Descriptor.Name
		})
	}

	return &Registry{byKind: byKind}, nil
}

// ProvidersFor returns the ordered providers eligible for a kind. The
// returned slice must not be mutated.
func (r *Registry) ProvidersFor(kind marketdata.Kind) []Entry {
	return r.byKind[kind]
}

func clientServes(c provider.Client, kind marketdata.Kind) bool {
	for _, k := range c.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}
