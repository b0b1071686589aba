// Package memstore is an in-memory core.Store. Transactions work on a cloned
// copy of the state that replaces the live state on commit, so a failed
// transaction leaves no trace.
//
// Writes made through the root store while a transaction is open wait for
// the transaction to finish.
package memstore

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/JonMunkholm/cdm/internal/core"
)

type state struct {
	drivers   map[string]core.Driver
	objects   map[string]core.Object
	variables map[string]core.Variable
	lists     map[string]core.List
	orders    map[core.Kind]core.DefaultOrder
	prefs     map[string]map[string]json.RawMessage
	audit     []core.AuditEntry
}

func newState() *state {
	return &state{
		drivers:   map[string]core.Driver{},
		objects:   map[string]core.Object{},
		variables: map[string]core.Variable{},
		lists:     map[string]core.List{},
		orders:    map[core.Kind]core.DefaultOrder{},
		prefs:     map[string]map[string]json.RawMessage{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.drivers {
		c.drivers[k] = v
	}
	for k, v := range s.objects {
		c.objects[k] = cloneObject(v)
	}
	for k, v := range s.variables {
		c.variables[k] = cloneVariable(v)
	}
	for k, v := range s.lists {
		c.lists[k] = cloneList(v)
	}
	for k, v := range s.orders {
		c.orders[k] = cloneOrder(v)
	}
	for client, prefs := range s.prefs {
		m := make(map[string]json.RawMessage, len(prefs))
		for k, v := range prefs {
			m[k] = slices.Clone(v)
		}
		c.prefs[client] = m
	}
	c.audit = slices.Clone(s.audit)
	return c
}

func cloneObject(o core.Object) core.Object {
	o.Relationships = slices.Clone(o.Relationships)
	o.Variants = slices.Clone(o.Variants)
	return o
}

func cloneVariable(v core.Variable) core.Variable {
	v.ObjectRelationships = slices.Clone(v.ObjectRelationships)
	return v
}

func cloneList(l core.List) core.List {
	l.Tiers = slices.Clone(l.Tiers)
	l.Values = slices.Clone(l.Values)
	return l
}

func cloneOrder(o core.DefaultOrder) core.DefaultOrder {
	levels := make([]core.DefaultOrderLevel, len(o.Levels))
	for i, l := range o.Levels {
		levels[i] = core.DefaultOrderLevel{Column: l.Column, Values: slices.Clone(l.Values)}
	}
	o.Levels = levels
	return o
}

// Store implements core.Store in memory.
type Store struct {
	mu    sync.RWMutex
	state *state

	root *Store     // set on transaction views
	txMu sync.Mutex // root only; serializes writers
}

var _ core.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{state: newState()}
}

func (s *Store) read(fn func(*state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

func (s *Store) write(fn func(*state) error) error {
	if s.root == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// InTx runs fn on a private copy of the state and publishes it when fn
// succeeds.
func (s *Store) InTx(ctx context.Context, fn func(core.Store) error) error {
	if s.root != nil {
		return fn(s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	work := s.state.clone()
	s.mu.RUnlock()

	tx := &Store{state: work, root: s}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = tx.state
	s.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func notFound(kind core.Kind, id string) error {
	return fmt.Errorf("%w: %s %q", core.ErrNotFound, kind, id)
}

func (s *Store) ListDrivers(context.Context) ([]core.Driver, error) {
	var out []core.Driver
	s.read(func(st *state) {
		for _, d := range st.drivers {
			out = append(out, d)
		}
	})
	slices.SortFunc(out, func(a, b core.Driver) int {
		return cmp.Or(
			cmp.Compare(slices.Index(core.DriverCategories, a.Category), slices.Index(core.DriverCategories, b.Category)),
			cmp.Compare(a.SortOrder, b.SortOrder),
			strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
		)
	})
	return out, nil
}

func (s *Store) GetDriver(_ context.Context, id string) (core.Driver, error) {
	var (
		d  core.Driver
		ok bool
	)
	s.read(func(st *state) { d, ok = st.drivers[id] })
	if !ok {
		return core.Driver{}, notFound(core.KindDrivers, id)
	}
	return d, nil
}

func (s *Store) SaveDriver(_ context.Context, d core.Driver) error {
	return s.write(func(st *state) error {
		st.drivers[d.ID] = d
		return nil
	})
}

func (s *Store) DeleteDriver(_ context.Context, id string) error {
	return s.write(func(st *state) error {
		if _, ok := st.drivers[id]; !ok {
			return notFound(core.KindDrivers, id)
		}
		delete(st.drivers, id)
		return nil
	})
}

func (s *Store) ListObjects(context.Context) ([]core.Object, error) {
	var out []core.Object
	s.read(func(st *state) {
		for _, o := range st.objects {
			out = append(out, cloneObject(o))
		}
	})
	slices.SortFunc(out, func(a, b core.Object) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) GetObject(_ context.Context, id string) (core.Object, error) {
	var (
		o  core.Object
		ok bool
	)
	s.read(func(st *state) { o, ok = st.objects[id] })
	if !ok {
		return core.Object{}, notFound(core.KindObjects, id)
	}
	return cloneObject(o), nil
}

func (s *Store) SaveObject(_ context.Context, o core.Object) error {
	return s.write(func(st *state) error {
		st.objects[o.ID] = cloneObject(o)
		return nil
	})
}

func (s *Store) DeleteObject(_ context.Context, id string) error {
	return s.write(func(st *state) error {
		if _, ok := st.objects[id]; !ok {
			return notFound(core.KindObjects, id)
		}
		delete(st.objects, id)
		return nil
	})
}

func (s *Store) ListVariables(context.Context) ([]core.Variable, error) {
	var out []core.Variable
	s.read(func(st *state) {
		for _, v := range st.variables {
			out = append(out, cloneVariable(v))
		}
	})
	slices.SortFunc(out, func(a, b core.Variable) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) GetVariable(_ context.Context, id string) (core.Variable, error) {
	var (
		v  core.Variable
		ok bool
	)
	s.read(func(st *state) { v, ok = st.variables[id] })
	if !ok {
		return core.Variable{}, notFound(core.KindVariables, id)
	}
	return cloneVariable(v), nil
}

func (s *Store) SaveVariable(_ context.Context, v core.Variable) error {
	return s.write(func(st *state) error {
		st.variables[v.ID] = cloneVariable(v)
		return nil
	})
}

func (s *Store) DeleteVariable(_ context.Context, id string) error {
	return s.write(func(st *state) error {
		if _, ok := st.variables[id]; !ok {
			return notFound(core.KindVariables, id)
		}
		delete(st.variables, id)
		return nil
	})
}

func (s *Store) ListLists(context.Context) ([]core.List, error) {
	var out []core.List
	s.read(func(st *state) {
		for _, l := range st.lists {
			out = append(out, cloneList(l))
		}
	})
	slices.SortFunc(out, func(a, b core.List) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) GetList(_ context.Context, id string) (core.List, error) {
	var (
		l  core.List
		ok bool
	)
	s.read(func(st *state) { l, ok = st.lists[id] })
	if !ok {
		return core.List{}, notFound(core.KindLists, id)
	}
	return cloneList(l), nil
}

func (s *Store) SaveList(_ context.Context, l core.List) error {
	return s.write(func(st *state) error {
		st.lists[l.ID] = cloneList(l)
		return nil
	})
}

func (s *Store) DeleteList(_ context.Context, id string) error {
	return s.write(func(st *state) error {
		if _, ok := st.lists[id]; !ok {
			return notFound(core.KindLists, id)
		}
		delete(st.lists, id)
		return nil
	})
}

func (s *Store) GetDefaultOrder(_ context.Context, kind core.Kind) (*core.DefaultOrder, error) {
	var (
		o  core.DefaultOrder
		ok bool
	)
	s.read(func(st *state) { o, ok = st.orders[kind] })
	if !ok {
		return nil, nil
	}
	o = cloneOrder(o)
	return &o, nil
}

func (s *Store) SaveDefaultOrder(_ context.Context, o core.DefaultOrder) error {
	return s.write(func(st *state) error {
		st.orders[o.Kind] = cloneOrder(o)
		return nil
	})
}

func (s *Store) DeleteDefaultOrder(_ context.Context, kind core.Kind) error {
	return s.write(func(st *state) error {
		delete(st.orders, kind)
		return nil
	})
}

func (s *Store) ListPreferences(_ context.Context, clientID string) (map[string]json.RawMessage, error) {
	out := map[string]json.RawMessage{}
	s.read(func(st *state) {
		for k, v := range st.prefs[clientID] {
			out[k] = slices.Clone(v)
		}
	})
	return out, nil
}

func (s *Store) SavePreference(_ context.Context, clientID, key string, value json.RawMessage) error {
	return s.write(func(st *state) error {
		if st.prefs[clientID] == nil {
			st.prefs[clientID] = map[string]json.RawMessage{}
		}
		st.prefs[clientID][key] = slices.Clone(value)
		return nil
	})
}

func (s *Store) DeletePreference(_ context.Context, clientID, key string) error {
	return s.write(func(st *state) error {
		delete(st.prefs[clientID], key)
		return nil
	})
}

func (s *Store) AppendAudit(_ context.Context, e core.AuditEntry) error {
	return s.write(func(st *state) error {
		st.audit = append(st.audit, e)
		return nil
	})
}

// ListAudit returns matching entries newest first.
func (s *Store) ListAudit(_ context.Context, f core.AuditFilter) ([]core.AuditEntry, error) {
	var matched []core.AuditEntry
	s.read(func(st *state) {
		for i := len(st.audit) - 1; i >= 0; i-- {
			if f.Matches(st.audit[i]) {
				matched = append(matched, st.audit[i])
			}
		}
	})

	if f.Offset >= len(matched) {
		return []core.AuditEntry{}, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}
