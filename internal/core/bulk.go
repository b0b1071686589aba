package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// BulkFailure explains why one id could not be processed.
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult reports a bulk edit or delete. When Failures is non-empty
// nothing was written.
type BulkResult struct {
	Kind     Kind          `json:"kind"`
	Affected int           `json:"affected"`
	Failures []BulkFailure `json:"failures,omitempty"`
}

// BulkEdit sets column to value on every id inside one transaction. Any
// failure rolls back the whole edit and is reported with ErrBulkRejected.
func (s *Service) BulkEdit(ctx context.Context, kind Kind, ids []string, column, value string) (BulkResult, error) {
	def, err := definition(kind)
	if err != nil {
		return BulkResult{}, err
	}
	spec, ok := def.Spec(column)
	if !ok {
		return BulkResult{}, unknownColumn(kind, column)
	}
	if spec.ReadOnly {
		return BulkResult{}, readOnlyColumn(kind, spec.Name)
	}

	return s.bulk(ctx, kind, ActionBulkEdit, ids, func(st Store, snap *snapshot, id string) error {
		rec, err := snap.record(kind, id)
		if err != nil {
			return err
		}
		if err := def.SetField(rec, spec.Name, value); err != nil {
			return err
		}
		return s.save(ctx, st, snap, rec, false)
	}, AuditEntry{Column: spec.Name, NewValue: value})
}

// BulkDelete removes every id through the regular delete path in one
// transaction, all or nothing.
func (s *Service) BulkDelete(ctx context.Context, kind Kind, ids []string) (BulkResult, error) {
	if _, err := definition(kind); err != nil {
		return BulkResult{}, err
	}
	batch := make(map[string]bool, len(ids))
	for _, id := range uniqueIDs(ids) {
		batch[id] = true
	}
	return s.bulk(ctx, kind, ActionBulkDelete, ids, func(st Store, snap *snapshot, id string) error {
		return s.remove(ctx, st, snap, kind, id, batch)
	}, AuditEntry{})
}

func (s *Service) bulk(ctx context.Context, kind Kind, action AuditAction, ids []string, apply func(Store, *snapshot, string) error, entry AuditEntry) (BulkResult, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return BulkResult{}, ValidationErrors{{Field: "ids", Message: "at least one id is required"}}
	}

	result := BulkResult{Kind: kind}
	err := s.store.InTx(ctx, func(st Store) error {
		snap, err := loadSnapshot(ctx, st)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := apply(st, snap, id); err != nil {
				if !isRowError(err) && !errors.Is(err, ErrNotFound) {
					return fmt.Errorf("%s: %w", id, err)
				}
				result.Failures = append(result.Failures, BulkFailure{ID: id, Reason: err.Error()})
			}
		}
		if len(result.Failures) > 0 {
			return ErrBulkRejected
		}

		entry.Action = action
		entry.Kind = kind
		entry.RowsAffected = len(ids)
		s.audit(ctx, st, entry)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBulkRejected) {
			return result, fmt.Errorf("%w: %d of %d failed", ErrBulkRejected, len(result.Failures), len(ids))
		}
		return BulkResult{}, err
	}

	result.Affected = len(ids)
	s.recorder.RecordMutation(kind, action, len(ids))
	return result, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
