package core

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/JonMunkholm/cdm/internal/config"
	"github.com/google/uuid"
)

// Recorder receives counters for mutations and uploaded rows.
// internal/metrics provides the Prometheus implementation.
type Recorder interface {
	RecordMutation(kind Kind, action AuditAction, n int)
	RecordUploadRows(kind Kind, outcome string, n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordMutation(Kind, AuditAction, int) {}
func (nopRecorder) RecordUploadRows(Kind, string, int) {}

// Option customizes a Service.
type Option func(*Service)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides uuid generation, mainly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// Service provides the editor's business logic on top of a Store.
type Service struct {
	store    Store
	limiter  *UploadLimiter
	recorder Recorder

	pageSize      int
	maxPageSize   int
	maxUploadRows int
	maxUploadSize int64
	uploadTimeout time.Duration

	now   func() time.Time
	newID func() string
}

// NewService creates a Service. cfg supplies paging and upload limits.
func NewService(store Store, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		store:         store,
		recorder:      nopRecorder{},
		pageSize:      cfg.View.DefaultPageSize,
		maxPageSize:   cfg.View.MaxPageSize,
		maxUploadRows: cfg.Upload.MaxRows,
		maxUploadSize: cfg.Upload.MaxFileSize,
		uploadTimeout: cfg.Upload.Timeout,
		limiter:       NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		now:           func() time.Time { return time.Now().UTC() },
		newID:         func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limiter exposes the upload limiter for status reporting and shutdown.
func (s *Service) Limiter() *UploadLimiter {
	return s.limiter
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Entities returns display information for every kind.
func (s *Service) Entities() []EntityInfo {
	defs := All()
	infos := make([]EntityInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

func notFound(kind Kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

// loadSnapshot reads everything cross-entity validation needs.
func loadSnapshot(ctx context.Context, st Store) (*snapshot, error) {
	drivers, err := st.ListDrivers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	objects, err := st.ListObjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	variables, err := st.ListVariables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}
	lists, err := st.ListLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}

	snap := &snapshot{
		drivers:   make(map[string]Driver, len(drivers)),
		objects:   make(map[string]Object, len(objects)),
		variables: make(map[string]Variable, len(variables)),
		lists:     make(map[string]List, len(lists)),
		catalog:   NewDriverCatalog(drivers),
	}
	for _, d := range drivers {
		snap.drivers[d.ID] = d
	}
	for _, o := range objects {
		snap.objects[o.ID] = o
	}
	for _, v := range variables {
		snap.variables[v.ID] = v
	}
	for _, l := range lists {
		snap.lists[l.ID] = l
	}
	return snap, nil
}

func (snap *snapshot) driverList() []Driver {
	return slices.Collect(maps.Values(snap.drivers))
}

func (snap *snapshot) refreshCatalog() {
	snap.catalog = NewDriverCatalog(snap.driverList())
}

// records returns the snapshot entities of kind as grid records.
func (snap *snapshot) records(kind Kind) []Record {
	var out []Record
	switch kind {
	case KindDrivers:
		for _, d := range snap.drivers {
			out = append(out, &d)
		}
	case KindObjects:
		for _, o := range snap.objects {
			out = append(out, &o)
		}
	case KindVariables:
		for _, v := range snap.variables {
			out = append(out, &v)
		}
	case KindLists:
		for _, l := range snap.lists {
			out = append(out, &l)
		}
	}
	return out
}

// record returns a copy of one entity as a grid record.
func (snap *snapshot) record(kind Kind, id string) (Record, error) {
	switch kind {
	case KindDrivers:
		if d, ok := snap.drivers[id]; ok {
			return &d, nil
		}
	case KindObjects:
		if o, ok := snap.objects[id]; ok {
			o.Relationships = slices.Clone(o.Relationships)
			o.Variants = slices.Clone(o.Variants)
			return &o, nil
		}
	case KindVariables:
		if v, ok := snap.variables[id]; ok {
			v.ObjectRelationships = slices.Clone(v.ObjectRelationships)
			return &v, nil
		}
	case KindLists:
		if l, ok := snap.lists[id]; ok {
			l.Tiers = slices.Clone(l.Tiers)
			l.Values = slices.Clone(l.Values)
			return &l, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return nil, notFound(kind, id)
}

// loadRecords reads every entity of kind outside a transaction.
func (s *Service) loadRecords(ctx context.Context, kind Kind) ([]Record, error) {
	var out []Record
	switch kind {
	case KindDrivers:
		items, err := s.store.ListDrivers(ctx)
		if err != nil {
			return nil, err
		}
		for i := range items {
			out = append(out, &items[i])
		}
	case KindObjects:
		items, err := s.store.ListObjects(ctx)
		if err != nil {
			return nil, err
		}
		for i := range items {
			out = append(out, &items[i])
		}
	case KindVariables:
		items, err := s.store.ListVariables(ctx)
		if err != nil {
			return nil, err
		}
		for i := range items {
			out = append(out, &items[i])
		}
	case KindLists:
		items, err := s.store.ListLists(ctx)
		if err != nil {
			return nil, err
		}
		for i := range items {
			out = append(out, &items[i])
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return out, nil
}
