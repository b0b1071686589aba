package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

func (s *Service) ListDrivers(ctx context.Context) ([]Driver, error) {
	return s.store.ListDrivers(ctx)
}

func (s *Service) GetDriver(ctx context.Context, id string) (Driver, error) {
	return s.store.GetDriver(ctx, id)
}

func (s *Service) ListObjects(ctx context.Context) ([]Object, error) {
	return s.store.ListObjects(ctx)
}

func (s *Service) GetObject(ctx context.Context, id string) (Object, error) {
	return s.store.GetObject(ctx, id)
}

func (s *Service) ListVariables(ctx context.Context) ([]Variable, error) {
	return s.store.ListVariables(ctx)
}

func (s *Service) GetVariable(ctx context.Context, id string) (Variable, error) {
	return s.store.GetVariable(ctx, id)
}

func (s *Service) ListLists(ctx context.Context) ([]List, error) {
	return s.store.ListLists(ctx)
}

func (s *Service) GetList(ctx context.Context, id string) (List, error) {
	return s.store.GetList(ctx, id)
}

// View returns one page of the grid for kind.
func (s *Service) View(ctx context.Context, kind Kind, req ViewRequest) (ViewResult, error) {
	def, err := definition(kind)
	if err != nil {
		return ViewResult{}, err
	}
	records, err := s.loadRecords(ctx, kind)
	if err != nil {
		return ViewResult{}, fmt.Errorf("load %s: %w", kind, err)
	}
	order, err := s.viewOrder(ctx, kind, req.Mode)
	if err != nil {
		return ViewResult{}, err
	}

	if req.PageSize <= 0 {
		req.PageSize = s.pageSize
	}
	req.MaxPageSize = s.maxPageSize
	return BuildView(def, records, req, order), nil
}

// Export writes every row matching req as CSV in column order. Paging is ignored.
func (s *Service) Export(ctx context.Context, kind Kind, req ViewRequest, w io.Writer) (int, error) {
	def, err := definition(kind)
	if err != nil {
		return 0, err
	}
	records, err := s.loadRecords(ctx, kind)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", kind, err)
	}
	order, err := s.viewOrder(ctx, kind, req.Mode)
	if err != nil {
		return 0, err
	}

	matched, _, _ := applyView(def, records, req, order)

	cw := csv.NewWriter(w)
	if err := cw.Write(def.Info.Columns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for _, rec := range matched {
		if err := cw.Write(renderRow(def, rec).Cells); err != nil {
			return 0, fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return len(matched), cw.Error()
}

func (s *Service) viewOrder(ctx context.Context, kind Kind, mode SortMode) (*DefaultOrder, error) {
	if mode != SortByDefault {
		return nil, nil
	}
	order, err := s.store.GetDefaultOrder(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load default order: %w", err)
	}
	return order, nil
}

// DefaultOrder returns the stored order for kind, or an empty one.
func (s *Service) DefaultOrder(ctx context.Context, kind Kind) (DefaultOrder, error) {
	if _, err := definition(kind); err != nil {
		return DefaultOrder{}, err
	}
	order, err := s.store.GetDefaultOrder(ctx, kind)
	if err != nil {
		return DefaultOrder{}, err
	}
	if order == nil {
		return DefaultOrder{Kind: kind, Levels: []DefaultOrderLevel{}}, nil
	}
	return *order, nil
}

// SetDefaultOrder validates and replaces the default order of kind.
func (s *Service) SetDefaultOrder(ctx context.Context, kind Kind, levels []DefaultOrderLevel) (DefaultOrder, error) {
	def, err := definition(kind)
	if err != nil {
		return DefaultOrder{}, err
	}
	normalized, err := normalizeDefaultOrder(def, levels)
	if err != nil {
		return DefaultOrder{}, err
	}

	order := DefaultOrder{Kind: kind, Levels: normalized, UpdatedAt: s.now()}
	err = s.store.InTx(ctx, func(st Store) error {
		if err := st.SaveDefaultOrder(ctx, order); err != nil {
			return err
		}
		cols := make([]string, len(normalized))
		for i, l := range normalized {
			cols[i] = l.Column
		}
		s.audit(ctx, st, AuditEntry{Action: ActionDefaultOrder, Kind: kind, NewValue: strings.Join(cols, ", ")})
		return nil
	})
	if err != nil {
		return DefaultOrder{}, err
	}
	return order, nil
}

// ClearDefaultOrder removes the default order of kind. Clearing an absent
// order is not an error.
func (s *Service) ClearDefaultOrder(ctx context.Context, kind Kind) error {
	if _, err := definition(kind); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(st Store) error {
		if err := st.DeleteDefaultOrder(ctx, kind); err != nil {
			return err
		}
		s.audit(ctx, st, AuditEntry{Action: ActionDefaultOrder, Kind: kind, Reason: "cleared"})
		return nil
	})
}

// DefaultOrderCandidates lists values for one column: ranked values first,
// then the other values present in the data.
func (s *Service) DefaultOrderCandidates(ctx context.Context, kind Kind, column string) ([]string, error) {
	def, err := definition(kind)
	if err != nil {
		return nil, err
	}
	spec, ok := def.Spec(column)
	if !ok {
		return nil, unknownColumn(kind, column)
	}
	records, err := s.loadRecords(ctx, kind)
	if err != nil {
		return nil, err
	}
	order, err := s.store.GetDefaultOrder(ctx, kind)
	if err != nil {
		return nil, err
	}
	return orderCandidates(order, spec.Name, records), nil
}
