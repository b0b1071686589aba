package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// DriverCatalog returns the ordered driver names per category.
func (s *Service) DriverCatalog(ctx context.Context) (DriverCatalog, error) {
	drivers, err := s.store.ListDrivers(ctx)
	if err != nil {
		return DriverCatalog{}, err
	}
	return NewDriverCatalog(drivers), nil
}

// ParseDriver decodes a driver string and checks it against the catalog.
func (s *Service) ParseDriver(ctx context.Context, driver string) (DriverSelection, error) {
	sel, err := ParseDriverString(driver)
	if err != nil {
		return DriverSelection{}, ValidationErrors{{Field: "driver", Value: driver, Message: err.Error()}}
	}
	catalog, err := s.DriverCatalog(ctx)
	if err != nil {
		return DriverSelection{}, err
	}
	if err := catalog.Validate(sel); err != nil {
		return DriverSelection{}, ValidationErrors{{Field: "driver", Value: driver, Message: err.Error()}}
	}
	return catalog.Canonicalize(sel), nil
}

// FormatDriver encodes a selection in canonical form.
func (s *Service) FormatDriver(ctx context.Context, sel DriverSelection) (string, error) {
	catalog, err := s.DriverCatalog(ctx)
	if err != nil {
		return "", err
	}
	if err := catalog.Validate(sel); err != nil {
		return "", ValidationErrors{{Field: "driver", Message: err.Error()}}
	}
	return catalog.Canonicalize(sel).String(), nil
}

// ReorderDrivers sets SortOrder from the position of each id. ids must list
// every driver of the category exactly once.
func (s *Service) ReorderDrivers(ctx context.Context, category string, ids []string) ([]Driver, error) {
	cat, err := ParseDriverCategory(category)
	if err != nil {
		return nil, ValidationErrors{{Field: "category", Value: category, Message: err.Error()}}
	}

	var ordered []Driver
	err = s.mutate(ctx, KindDrivers, ActionDriverReorder, func(st Store, snap *snapshot) (string, error) {
		current := make(map[string]Driver)
		for id, d := range snap.drivers {
			if d.Category == cat {
				current[id] = d
			}
		}

		var errs ValidationErrors
		if len(ids) != len(current) {
			errs.add("ids", "", "expected %d %s ids, got %d", len(current), cat, len(ids))
		}
		seen := make(map[string]bool)
		for _, id := range ids {
			if _, ok := current[id]; !ok {
				errs.add("ids", id, "not a %s driver", cat)
			} else if seen[id] {
				errs.add("ids", id, "duplicate id")
			}
			seen[id] = true
		}
		if err := errs.err(); err != nil {
			return "", err
		}

		now := s.now()
		ordered = make([]Driver, 0, len(ids))
		for i, id := range ids {
			d := current[id]
			if d.SortOrder != i {
				d.SortOrder = i
				d.UpdatedAt = now
				if err := st.SaveDriver(ctx, d); err != nil {
					return "", fmt.Errorf("save driver order: %w", err)
				}
				snap.drivers[id] = d
			}
			ordered = append(ordered, d)
		}
		snap.refreshCatalog()

		// Stored driver strings follow catalog order.
		for oid, o := range snap.objects {
			if canon, changed := recanonicalize(snap.catalog, o.Driver); changed {
				o.Driver, o.UpdatedAt = canon, now
				if err := st.SaveObject(ctx, o); err != nil {
					return "", err
				}
				snap.objects[oid] = o
			}
		}
		for vid, v := range snap.variables {
			if canon, changed := recanonicalize(snap.catalog, v.Driver); changed {
				v.Driver, v.UpdatedAt = canon, now
				if err := st.SaveVariable(ctx, v); err != nil {
					return "", err
				}
				snap.variables[vid] = v
			}
		}
		return string(cat), nil
	})
	if err != nil {
		return nil, err
	}
	return ordered, nil
}

func recanonicalize(catalog DriverCatalog, driver string) (string, bool) {
	if driver == "" {
		return driver, false
	}
	sel, err := ParseDriverString(driver)
	if err != nil {
		return driver, false
	}
	canon := catalog.Canonicalize(sel).String()
	return canon, canon != driver
}

// SeedDrivers appends catalog names that do not exist yet to the end of
// their category. Existing drivers are left untouched. It returns the number
// of drivers added.
func (s *Service) SeedDrivers(ctx context.Context, catalog DriverCatalog) (int, error) {
	added := 0
	err := s.store.InTx(ctx, func(st Store) error {
		added = 0
		snap, err := loadSnapshot(ctx, st)
		if err != nil {
			return err
		}
		for _, cat := range DriverCategories {
			for _, name := range catalog.Values(cat) {
				name = strings.TrimSpace(name)
				if name == "" || slices.ContainsFunc(snap.catalog.Values(cat), func(v string) bool { return strings.EqualFold(v, name) }) {
					continue
				}
				d := Driver{Category: cat, Name: name, SortOrder: AppendSortOrder}
				if err := s.saveDriver(ctx, st, snap, &d, true); err != nil {
					return fmt.Errorf("seed %s %q: %w", cat, name, err)
				}
				added++
			}
		}
		if added > 0 {
			s.audit(ctx, st, AuditEntry{Action: ActionTaxonomySeed, Kind: KindDrivers, RowsAffected: added})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if added > 0 {
		s.recorder.RecordMutation(KindDrivers, ActionTaxonomySeed, added)
	}
	return added, nil
}
