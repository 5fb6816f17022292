// Package store implements the in-memory registry model: interface groups
// and their member endpoints, guarded by a single coarse lock. The
// locking discipline follows dexidp/dex's storage/memory package, which
// wraps every mutation in a private tx(func()) helper rather than
// exposing the mutex directly — generalized here so that a whole
// multi-step handler operation (find-or-create a group, then mutate it)
// runs inside one tx, matching spec section 5's "exactly once per
// critical section" rule. Failure conditions are reported as sentinel
// errors, in the style of dexidp/dex/storage's ErrNotFound/
// ErrAlreadyExists: callers use errors.Is rather than inspecting bespoke
// bool returns.
package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a named interface group, or a named
// endpoint within one, does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicateURL is returned by RegisterEndpoint when the url already
// exists in the named group (invariant 1, spec section 3).
var ErrDuplicateURL = errors.New("store: duplicate url")

// ErrAlreadyRegistered is returned by AddGroup when a group already
// exists under that name, mirroring spec section 4.B's add_group
// primitive ("ok | already registered").
var ErrAlreadyRegistered = errors.New("store: interface already registered")

// Endpoint is one registered provider of one interface (spec section 3).
type Endpoint struct {
	URL            string
	ServerToken    []byte
	RequestCounter uint32
}

// InterfaceGroup is the registry's unit of grouping: every endpoint
// registered under one fully-qualified interface name.
type InterfaceGroup struct {
	Name        string
	ClientToken []byte
	Endpoints   []*Endpoint

	// rrCounter is the round-robin cursor described in spec section 4.D;
	// it advances once per round-robin Find against this group and
	// persists across calls, per the "counter persisted on the group"
	// requirement.
	rrCounter uint64
}

// Registry is the process-wide root: the map of interface groups, guarded
// by a single coarse lock. The signing key lives one level up, in the
// façade, since the store has no business knowing about tokens beyond
// treating them as opaque bytes (spec section 3).
type Registry struct {
	mu     sync.Mutex
	groups map[string]*InterfaceGroup
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		groups: make(map[string]*InterfaceGroup),
	}
}

// tx runs f with the store lock held.
func (r *Registry) tx(f func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f()
}

// Ping proves store liveness by acquiring the lock and releasing it
// within budget, the in-memory equivalent of dexidp/dex's
// storage/health.go create-then-delete round trip against a real
// backend. It returns an error if the lock cannot be acquired before ctx
// is done, which for a healthy single-mutex store only happens if some
// other critical section is unexpectedly long-running or deadlocked.
func (r *Registry) Ping(ctx context.Context) error {
	acquired := make(chan struct{})
	go func() {
		r.mu.Lock()
		close(acquired)
		r.mu.Unlock()
	}()

	select {
	case <-acquired:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GroupExists reports whether name has a registered group.
func (r *Registry) GroupExists(name string) bool {
	var ok bool
	r.tx(func() {
		_, ok = r.groups[name]
	})
	return ok
}

// findGroupLocked is spec section 4.B's find_group primitive. Callers
// must hold r.mu.
func (r *Registry) findGroupLocked(name string) *InterfaceGroup {
	return r.groups[name]
}

// addGroupLocked is spec section 4.B's add_group primitive: it creates
// an empty group and returns ErrAlreadyRegistered if one already exists
// under this name. Callers must hold r.mu.
func (r *Registry) addGroupLocked(name string) (*InterfaceGroup, error) {
	if g, ok := r.groups[name]; ok {
		return g, ErrAlreadyRegistered
	}
	g := &InterfaceGroup{Name: name}
	r.groups[name] = g
	return g, nil
}

// AddGroup creates an empty interface group, failing with
// ErrAlreadyRegistered if name is already taken. Exposed as a standalone
// primitive matching spec section 4.B; RegisterEndpoint composes the
// same primitive internally rather than calling through AddGroup, so the
// whole find-or-create-then-append sequence stays inside one critical
// section.
func (r *Registry) AddGroup(name string) error {
	var err error
	r.tx(func() {
		_, err = r.addGroupLocked(name)
	})
	return err
}

// Authorize records token as the most recent client token issued for
// name's group, returning ErrNotFound if that group does not exist.
func (r *Registry) Authorize(name string, token []byte) error {
	var err error
	r.tx(func() {
		g := r.findGroupLocked(name)
		if g == nil {
			err = ErrNotFound
			return
		}
		g.ClientToken = token
	})
	return err
}

// RegisterEndpoint finds or lazily creates the named group, then appends
// an endpoint bound to serverToken. It returns ErrDuplicateURL if the
// group already has an endpoint with this url. The whole find-or-create-
// then-append sequence runs under one lock acquisition; a pre-existing
// group (addGroupLocked's ErrAlreadyRegistered) is the expected, common
// case here and is not propagated.
func (r *Registry) RegisterEndpoint(name, url string, serverToken []byte) error {
	var err error
	r.tx(func() {
		g, gerr := r.addGroupLocked(name)
		if gerr != nil && !errors.Is(gerr, ErrAlreadyRegistered) {
			err = gerr
			return
		}

		for _, ep := range g.Endpoints {
			if ep.URL == url {
				err = ErrDuplicateURL
				return
			}
		}
		g.Endpoints = append(g.Endpoints, &Endpoint{URL: url, ServerToken: serverToken})
	})
	return err
}

// Deregister removes the first endpoint in the named group whose url
// matches, removing the group itself if that empties it (invariant 3).
// It returns ErrNotFound if the group does not exist or no endpoint in
// it matches url.
func (r *Registry) Deregister(name, url string) error {
	var err error
	r.tx(func() {
		g := r.findGroupLocked(name)
		if g == nil {
			err = ErrNotFound
			return
		}

		idx := -1
		for i, ep := range g.Endpoints {
			if ep.URL == url {
				idx = i
				break
			}
		}
		if idx < 0 {
			err = ErrNotFound
			return
		}
		g.Endpoints = append(g.Endpoints[:idx], g.Endpoints[idx+1:]...)
		if len(g.Endpoints) == 0 {
			delete(r.groups, name)
		}
	})
	return err
}

// SelectionPolicy expresses the find preference ladder of spec section
// 4.D.
type SelectionPolicy struct {
	ByLowestUse  bool
	ByRoundRobin bool
}

// Find picks an endpoint url from the named group according to policy,
// under the store lock. It returns ErrNotFound if the group does not
// exist or has no endpoints.
func (r *Registry) Find(name string, policy SelectionPolicy) (string, error) {
	var url string
	var err error
	r.tx(func() {
		g := r.findGroupLocked(name)
		if g == nil || len(g.Endpoints) == 0 {
			err = ErrNotFound
			return
		}

		switch {
		case policy.ByLowestUse:
			best := g.Endpoints[0]
			for _, ep := range g.Endpoints[1:] {
				if ep.RequestCounter < best.RequestCounter {
					best = ep
				}
			}
			url = best.URL

		case policy.ByRoundRobin:
			idx := g.rrCounter % uint64(len(g.Endpoints))
			g.rrCounter++
			url = g.Endpoints[idx].URL

		default:
			url = g.Endpoints[0].URL
		}
	})
	return url, err
}

// KeepAlive writes the request_counter of the endpoint matching url
// within the named group. It returns ErrNotFound only if the group
// itself does not exist or has no endpoints; an unmatched url within an
// existing group is a silent success, per spec section 4.D — see
// DESIGN.md for the open-question resolution.
func (r *Registry) KeepAlive(name, url string, count uint32) error {
	var err error
	r.tx(func() {
		g := r.findGroupLocked(name)
		if g == nil || len(g.Endpoints) == 0 {
			err = ErrNotFound
			return
		}
		for _, ep := range g.Endpoints {
			if ep.URL == url {
				ep.RequestCounter = count
				return
			}
		}
	})
	return err
}

// GroupSnapshot is a point-in-time, detached copy of one interface
// group's endpoints, used only by Report so a concurrent mutation can
// never corrupt a report in flight (mirrors the original implementation's
// dedicated reports.rs snapshot type — see SPEC_FULL.md).
type GroupSnapshot struct {
	Name      string
	Endpoints []EndpointSnapshot
}

// EndpointSnapshot is the reported shape of one endpoint: just enough to
// answer a utilization report, nothing store-internal.
type EndpointSnapshot struct {
	URL            string
	RequestCounter uint32
}

// Snapshot builds a detached copy of every group and its endpoints, in
// map-iteration order for groups and insertion order for endpoints, under
// a single critical section (spec section 4.B's iterate_groups).
func (r *Registry) Snapshot() []GroupSnapshot {
	var out []GroupSnapshot
	r.tx(func() {
		out = make([]GroupSnapshot, 0, len(r.groups))
		for name, g := range r.groups {
			eps := make([]EndpointSnapshot, 0, len(g.Endpoints))
			for _, ep := range g.Endpoints {
				eps = append(eps, EndpointSnapshot{URL: ep.URL, RequestCounter: ep.RequestCounter})
			}
			out = append(out, GroupSnapshot{Name: name, Endpoints: eps})
		}
	})
	return out
}

// HealthTimeout is the budget a health check should give Ping before
// declaring the store unhealthy.
const HealthTimeout = 2 * time.Second
