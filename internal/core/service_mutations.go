package core

import (
	"context"
	"fmt"
	"slices"
)

// mutate runs fn in a transaction over a fresh snapshot and audits the
// record id it returns.
func (s *Service) mutate(ctx context.Context, kind Kind, action AuditAction, fn func(st Store, snap *snapshot) (string, error)) error {
	err := s.store.InTx(ctx, func(st Store) error {
		snap, err := loadSnapshot(ctx, st)
		if err != nil {
			return err
		}
		id, err := fn(st, snap)
		if err != nil {
			return err
		}
		s.audit(ctx, st, AuditEntry{Action: action, Kind: kind, RecordID: id, RowsAffected: 1})
		return nil
	})
	if err != nil {
		return err
	}
	s.recorder.RecordMutation(kind, action, 1)
	return nil
}

// assignID gives new entities an id and rejects ids that already exist.
func assignID[T any](s *Service, kind Kind, id *string, existing map[string]T) error {
	if *id == "" {
		*id = s.newID()
		return nil
	}
	if _, ok := existing[*id]; ok {
		return fmt.Errorf("%w: %s %q already exists", ErrConflict, kind, *id)
	}
	return nil
}

// save validates rec against snap and writes it through st.
func (s *Service) save(ctx context.Context, st Store, snap *snapshot, rec Record, create bool) error {
	switch r := rec.(type) {
	case *Driver:
		return s.saveDriver(ctx, st, snap, r, create)
	case *Object:
		return s.saveObject(ctx, st, snap, r, create)
	case *Variable:
		return s.saveVariable(ctx, st, snap, r, create)
	case *List:
		return s.saveList(ctx, st, snap, r, create)
	}
	return fmt.Errorf("%w: %T", ErrUnknownKind, rec)
}

func (s *Service) saveDriver(ctx context.Context, st Store, snap *snapshot, d *Driver, create bool) error {
	now := s.now()
	var prev Driver
	if create {
		if err := assignID(s, KindDrivers, &d.ID, snap.drivers); err != nil {
			return err
		}
	} else {
		var ok bool
		if prev, ok = snap.drivers[d.ID]; !ok {
			return notFound(KindDrivers, d.ID)
		}
	}

	if errs := validateDriverEntity(d, snap.driverList()); len(errs) > 0 {
		return errs
	}

	if create {
		d.CreatedAt = now
		if d.SortOrder < 0 {
			d.SortOrder = snap.nextSortOrder(d.Category)
		}
	} else {
		d.CreatedAt = prev.CreatedAt
		if d.SortOrder < 0 {
			d.SortOrder = prev.SortOrder
		}
		if prev.Category != d.Category && snap.driverInUse(prev) {
			return fmt.Errorf("%w: %s %q is used by driver strings and cannot change category", ErrInUse, prev.Category, prev.Name)
		}
	}
	d.UpdatedAt = now

	if err := st.SaveDriver(ctx, *d); err != nil {
		return fmt.Errorf("save driver: %w", err)
	}
	snap.drivers[d.ID] = *d
	snap.refreshCatalog()

	if !create && prev.Category == d.Category && prev.Name != d.Name {
		n, err := s.propagateRename(ctx, st, snap, d.Category, prev.Name, d.Name)
		if err != nil {
			return err
		}
		if n > 0 {
			s.audit(ctx, st, AuditEntry{
				Action:       ActionDriverRename,
				Kind:         KindDrivers,
				RecordID:     d.ID,
				Column:       "Name",
				OldValue:     prev.Name,
				NewValue:     d.Name,
				RowsAffected: n,
			})
		}
	}
	return nil
}

func (snap *snapshot) nextSortOrder(cat DriverCategory) int {
	next := 0
	for _, d := range snap.drivers {
		if d.Category == cat && d.SortOrder >= next {
			next = d.SortOrder + 1
		}
	}
	return next
}

// driverInUse reports whether any object or variable selects d.
func (snap *snapshot) driverInUse(d Driver) bool {
	uses := func(driver string) bool {
		sel, err := ParseDriverString(driver)
		return err == nil && sel.Uses(d.Category, d.Name)
	}
	for _, o := range snap.objects {
		if uses(o.Driver) {
			return true
		}
	}
	for _, v := range snap.variables {
		if uses(v.Driver) {
			return true
		}
	}
	return false
}

// propagateRename rewrites every driver string selecting oldName.
// It returns the number of entities changed.
func (s *Service) propagateRename(ctx context.Context, st Store, snap *snapshot, cat DriverCategory, oldName, newName string) (int, error) {
	rename := func(driver string) (string, bool) {
		sel, err := ParseDriverString(driver)
		if err != nil {
			return driver, false
		}
		renamed, ok := sel.Rename(cat, oldName, newName)
		if !ok {
			return driver, false
		}
		return snap.catalog.Canonicalize(renamed).String(), true
	}

	now := s.now()
	changed := 0
	for id, o := range snap.objects {
		driver, ok := rename(o.Driver)
		if !ok {
			continue
		}
		o.Driver = driver
		o.UpdatedAt = now
		if err := st.SaveObject(ctx, o); err != nil {
			return changed, fmt.Errorf("rename driver in object %s: %w", id, err)
		}
		snap.objects[id] = o
		changed++
	}
	for id, v := range snap.variables {
		driver, ok := rename(v.Driver)
		if !ok {
			continue
		}
		v.Driver = driver
		v.UpdatedAt = now
		if err := st.SaveVariable(ctx, v); err != nil {
			return changed, fmt.Errorf("rename driver in variable %s: %w", id, err)
		}
		snap.variables[id] = v
		changed++
	}
	return changed, nil
}

func (s *Service) saveObject(ctx context.Context, st Store, snap *snapshot, o *Object, create bool) error {
	now := s.now()
	if create {
		if err := assignID(s, KindObjects, &o.ID, snap.objects); err != nil {
			return err
		}
		o.CreatedAt = now
	} else {
		prev, ok := snap.objects[o.ID]
		if !ok {
			return notFound(KindObjects, o.ID)
		}
		o.CreatedAt = prev.CreatedAt
	}
	o.UpdatedAt = now

	for i := range o.Relationships {
		if o.Relationships[i].ID == "" {
			o.Relationships[i].ID = s.newID()
		}
	}
	for i := range o.Variants {
		if o.Variants[i].ID == "" {
			o.Variants[i].ID = s.newID()
		}
	}

	if errs := snap.validateObject(o); len(errs) > 0 {
		return errs
	}
	if err := st.SaveObject(ctx, *o); err != nil {
		return fmt.Errorf("save object: %w", err)
	}
	snap.objects[o.ID] = *o
	return nil
}

func (s *Service) saveVariable(ctx context.Context, st Store, snap *snapshot, v *Variable, create bool) error {
	now := s.now()
	if create {
		if err := assignID(s, KindVariables, &v.ID, snap.variables); err != nil {
			return err
		}
		v.CreatedAt = now
	} else {
		prev, ok := snap.variables[v.ID]
		if !ok {
			return notFound(KindVariables, v.ID)
		}
		v.CreatedAt = prev.CreatedAt
	}
	v.UpdatedAt = now

	if errs := snap.validateVariable(v); len(errs) > 0 {
		return errs
	}
	if err := st.SaveVariable(ctx, *v); err != nil {
		return fmt.Errorf("save variable: %w", err)
	}
	snap.variables[v.ID] = *v
	return nil
}

func (s *Service) saveList(ctx context.Context, st Store, snap *snapshot, l *List, create bool) error {
	now := s.now()
	if create {
		if err := assignID(s, KindLists, &l.ID, snap.lists); err != nil {
			return err
		}
		l.CreatedAt = now
	} else {
		prev, ok := snap.lists[l.ID]
		if !ok {
			return notFound(KindLists, l.ID)
		}
		l.CreatedAt = prev.CreatedAt
	}
	l.UpdatedAt = now

	for i := range l.Values {
		if l.Values[i].ID == "" {
			l.Values[i].ID = s.newID()
		}
	}
	slices.SortStableFunc(l.Tiers, func(a, b ListTier) int { return a.Tier - b.Tier })

	if errs := snap.validateList(l); len(errs) > 0 {
		return errs
	}
	if err := st.SaveList(ctx, *l); err != nil {
		return fmt.Errorf("save list: %w", err)
	}
	snap.lists[l.ID] = *l
	return nil
}

// remove deletes one entity, cascading object references and refusing to
// delete lists and drivers that are still referenced. References held by
// lists in batch are ignored since those lists are being deleted too.
func (s *Service) remove(ctx context.Context, st Store, snap *snapshot, kind Kind, id string, batch map[string]bool) error {
	if _, err := snap.record(kind, id); err != nil {
		return err
	}

	switch kind {
	case KindDrivers:
		d := snap.drivers[id]
		if snap.driverInUse(d) {
			return fmt.Errorf("%w: %s %q is used by driver strings", ErrInUse, d.Category, d.Name)
		}
		if err := st.DeleteDriver(ctx, id); err != nil {
			return fmt.Errorf("delete driver: %w", err)
		}
		delete(snap.drivers, id)
		snap.refreshCatalog()

	case KindObjects:
		if err := s.detachObject(ctx, st, snap, id); err != nil {
			return err
		}
		if err := st.DeleteObject(ctx, id); err != nil {
			return fmt.Errorf("delete object: %w", err)
		}
		delete(snap.objects, id)

	case KindVariables:
		if err := st.DeleteVariable(ctx, id); err != nil {
			return fmt.Errorf("delete variable: %w", err)
		}
		delete(snap.variables, id)

	case KindLists:
		for _, other := range snap.lists {
			if other.ID == id || batch[other.ID] {
				continue
			}
			for _, t := range other.Tiers {
				if t.ListID == id {
					return fmt.Errorf("%w: list is tier %d of %q", ErrInUse, t.Tier, other.List)
				}
			}
		}
		if err := st.DeleteList(ctx, id); err != nil {
			return fmt.Errorf("delete list: %w", err)
		}
		delete(snap.lists, id)
	}
	return nil
}

// detachObject removes relationships and variable links pointing at id.
func (s *Service) detachObject(ctx context.Context, st Store, snap *snapshot, id string) error {
	now := s.now()
	for oid, o := range snap.objects {
		if oid == id {
			continue
		}
		kept := slices.DeleteFunc(slices.Clone(o.Relationships), func(r Relationship) bool { return r.ObjectID == id })
		if len(kept) == len(o.Relationships) {
			continue
		}
		o.Relationships = kept
		o.UpdatedAt = now
		if err := st.SaveObject(ctx, o); err != nil {
			return fmt.Errorf("detach relationships from %s: %w", oid, err)
		}
		snap.objects[oid] = o
	}
	for vid, v := range snap.variables {
		if !slices.Contains(v.ObjectRelationships, id) {
			continue
		}
		v.ObjectRelationships = slices.DeleteFunc(slices.Clone(v.ObjectRelationships), func(x string) bool { return x == id })
		v.UpdatedAt = now
		if err := st.SaveVariable(ctx, v); err != nil {
			return fmt.Errorf("detach variable %s: %w", vid, err)
		}
		snap.variables[vid] = v
	}
	return nil
}

// Delete removes one entity of any kind.
func (s *Service) Delete(ctx context.Context, kind Kind, id string) error {
	if _, err := definition(kind); err != nil {
		return err
	}
	return s.mutate(ctx, kind, ActionDelete, func(st Store, snap *snapshot) (string, error) {
		return id, s.remove(ctx, st, snap, kind, id, nil)
	})
}

// CreateDriver adds a driver at SortOrder, or to the end of its category when
// SortOrder is AppendSortOrder.
func (s *Service) CreateDriver(ctx context.Context, d Driver) (Driver, error) {
	err := s.mutate(ctx, KindDrivers, ActionCreate, func(st Store, snap *snapshot) (string, error) {
		err := s.saveDriver(ctx, st, snap, &d, true)
		return d.ID, err
	})
	return d, err
}

// UpdateDriver saves d; a rename is applied to every driver string using it.
func (s *Service) UpdateDriver(ctx context.Context, d Driver) (Driver, error) {
	err := s.mutate(ctx, KindDrivers, ActionUpdate, func(st Store, snap *snapshot) (string, error) {
		err := s.saveDriver(ctx, st, snap, &d, false)
		return d.ID, err
	})
	return d, err
}

func (s *Service) CreateObject(ctx context.Context, o Object) (Object, error) {
	err := s.mutate(ctx, KindObjects, ActionCreate, func(st Store, snap *snapshot) (string, error) {
		err := s.saveObject(ctx, st, snap, &o, true)
		return o.ID, err
	})
	return o, err
}

func (s *Service) UpdateObject(ctx context.Context, o Object) (Object, error) {
	err := s.mutate(ctx, KindObjects, ActionUpdate, func(st Store, snap *snapshot) (string, error) {
		err := s.saveObject(ctx, st, snap, &o, false)
		return o.ID, err
	})
	return o, err
}

func (s *Service) CreateVariable(ctx context.Context, v Variable) (Variable, error) {
	err := s.mutate(ctx, KindVariables, ActionCreate, func(st Store, snap *snapshot) (string, error) {
		err := s.saveVariable(ctx, st, snap, &v, true)
		return v.ID, err
	})
	return v, err
}

func (s *Service) UpdateVariable(ctx context.Context, v Variable) (Variable, error) {
	err := s.mutate(ctx, KindVariables, ActionUpdate, func(st Store, snap *snapshot) (string, error) {
		err := s.saveVariable(ctx, st, snap, &v, false)
		return v.ID, err
	})
	return v, err
}

func (s *Service) CreateList(ctx context.Context, l List) (List, error) {
	err := s.mutate(ctx, KindLists, ActionCreate, func(st Store, snap *snapshot) (string, error) {
		err := s.saveList(ctx, st, snap, &l, true)
		return l.ID, err
	})
	return l, err
}

func (s *Service) UpdateList(ctx context.Context, l List) (List, error) {
	err := s.mutate(ctx, KindLists, ActionUpdate, func(st Store, snap *snapshot) (string, error) {
		err := s.saveList(ctx, st, snap, &l, false)
		return l.ID, err
	})
	return l, err
}
