package core

import (
	"context"
	"encoding/json"
)

// Store persists entities and editor state. Get and Delete report ErrNotFound
// for unknown ids. Save inserts or replaces by id.
//
// InTx runs fn against a Store bound to one transaction; the transaction
// commits when fn returns nil. Calling InTx on a transactional Store runs fn
// in the same transaction.
type Store interface {
	ListDrivers(ctx context.Context) ([]Driver, error)
	GetDriver(ctx context.Context, id string) (Driver, error)
	SaveDriver(ctx context.Context, d Driver) error
	DeleteDriver(ctx context.Context, id string) error

	ListObjects(ctx context.Context) ([]Object, error)
	GetObject(ctx context.Context, id string) (Object, error)
	SaveObject(ctx context.Context, o Object) error
	DeleteObject(ctx context.Context, id string) error

	ListVariables(ctx context.Context) ([]Variable, error)
	GetVariable(ctx context.Context, id string) (Variable, error)
	SaveVariable(ctx context.Context, v Variable) error
	DeleteVariable(ctx context.Context, id string) error

	ListLists(ctx context.Context) ([]List, error)
	GetList(ctx context.Context, id string) (List, error)
	SaveList(ctx context.Context, l List) error
	DeleteList(ctx context.Context, id string) error

	// GetDefaultOrder returns nil when no order is stored for kind.
	GetDefaultOrder(ctx context.Context, kind Kind) (*DefaultOrder, error)
	SaveDefaultOrder(ctx context.Context, o DefaultOrder) error
	DeleteDefaultOrder(ctx context.Context, kind Kind) error

	ListPreferences(ctx context.Context, clientID string) (map[string]json.RawMessage, error)
	SavePreference(ctx context.Context, clientID, key string, value json.RawMessage) error
	DeletePreference(ctx context.Context, clientID, key string) error

	AppendAudit(ctx context.Context, e AuditEntry) error
	ListAudit(ctx context.Context, f AuditFilter) ([]AuditEntry, error)

	InTx(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
}
