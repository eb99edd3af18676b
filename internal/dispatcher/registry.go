package dispatcher

import (
	"sort"
	"strings"

	"github.com/dshills/switchyard/internal/dispatcher/action"
)

// RegistryBuilder collects actions during setup.
// It is not safe for concurrent use.
type RegistryBuilder struct {
	actions    map[string]*action.Action
	containers map[string][]*action.Action
}

// NewRegistryBuilder creates an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{
		actions:    make(map[string]*action.Action),
		containers: make(map[string][]*action.Action),
	}
}

// Register adds a under its reverse id and appends it to its namespace
// container. A reverse id that is already taken is left untouched and
// Register reports false.
func (b *RegistryBuilder) Register(a *action.Action) bool {
	key := a.Reverse()
	if _, exists := b.actions[key]; exists {
		return false
	}
	b.actions[key] = a
	b.containers[a.Namespace()] = append(b.containers[a.Namespace()], a)
	return true
}

// Lookup returns the action registered under reverse.
func (b *RegistryBuilder) Lookup(reverse string) (*action.Action, bool) {
	a, ok := b.actions[reverse]
	return a, ok
}

// Freeze produces the immutable registry. The root container is
// snapshotted at this point.
func (b *RegistryBuilder) Freeze() *Registry {
	r := &Registry{
		actions:    make(map[string]*action.Action, len(b.actions)),
		containers: make(map[string][]*action.Action, len(b.containers)),
	}
	for k, a := range b.actions {
		r.actions[k] = a
	}
	for ns, list := range b.containers {
		cp := make([]*action.Action, len(list))
		copy(cp, list)
		r.containers[ns] = cp
	}
	r.root = r.containers[""]
	return r
}

// Registry maps reverse ids and namespaces to actions.
// It is read-only and safe for concurrent use.
type Registry struct {
	actions    map[string]*action.Action
	containers map[string][]*action.Action
	root       []*action.Action
}

// Lookup returns the action registered under reverse.
func (r *Registry) Lookup(reverse string) (*action.Action, bool) {
	a, ok := r.actions[reverse]
	return a, ok
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	return len(r.actions)
}

// Containers returns the actions visible from ns, most specific first:
// ns itself, each ancestor, then the root namespace. "/" means the root only.
func (r *Registry) Containers(ns string) []*action.Action {
	var out []*action.Action
	if ns != "/" {
		for pos := len(ns); pos > 0; {
			out = append(out, r.containers[ns[:pos]]...)
			pos = strings.LastIndexByte(ns[:pos], '/')
		}
	}
	return append(out, r.root...)
}

// Actions returns every action sorted by reverse id.
func (r *Registry) Actions() []*action.Action {
	out := make([]*action.Action, 0, len(r.actions))
	for _, a := range r.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Reverse() < out[j].Reverse()
	})
	return out
}
