package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/cdm/internal/core"
)

func (s *Store) GetDefaultOrder(ctx context.Context, kind core.Kind) (*core.DefaultOrder, error) {
	o := core.DefaultOrder{Kind: kind}
	err := s.db.QueryRow(ctx, `SELECT levels, updated_at FROM default_orders WHERE kind = $1`, string(kind)).
		Scan(&o.Levels, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get default order: %w", err)
	}
	return &o, nil
}

func (s *Store) SaveDefaultOrder(ctx context.Context, o core.DefaultOrder) error {
	levels, err := jsonb(nonNil(o.Levels))
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO default_orders (kind, levels, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind) DO UPDATE SET levels = EXCLUDED.levels, updated_at = EXCLUDED.updated_at`,
		string(o.Kind), levels, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save default order: %w", err)
	}
	return nil
}

// DeleteDefaultOrder is a no-op when no order is stored.
func (s *Store) DeleteDefaultOrder(ctx context.Context, kind core.Kind) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM default_orders WHERE kind = $1`, string(kind)); err != nil {
		return fmt.Errorf("delete default order: %w", err)
	}
	return nil
}

func (s *Store) ListPreferences(ctx context.Context, clientID string) (map[string]json.RawMessage, error) {
	rows, err := s.db.Query(ctx, `SELECT key, value FROM preferences WHERE client_id = $1`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]json.RawMessage)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		prefs[key] = json.RawMessage(value)
	}
	return prefs, rows.Err()
}

func (s *Store) SavePreference(ctx context.Context, clientID, key string, value json.RawMessage) error {
	_, err := s.db.Exec(ctx, `INSERT INTO preferences (client_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (client_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		clientID, key, []byte(value))
	if err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	return nil
}

// DeletePreference is a no-op when key is not stored.
func (s *Store) DeletePreference(ctx context.Context, clientID, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM preferences WHERE client_id = $1 AND key = $2`, clientID, key); err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	return nil
}

func (s *Store) AppendAudit(ctx context.Context, e core.AuditEntry) error {
	_, err := s.db.Exec(ctx, `INSERT INTO audit_log (
			id, action, severity, kind, record_id, column_name, old_value, new_value,
			rows_affected, ip_address, user_agent, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, string(e.Action), string(e.Severity), string(e.Kind),
		toPgText(e.RecordID), toPgText(e.Column), toPgText(e.OldValue), toPgText(e.NewValue),
		toPgInt4(e.RowsAffected), toPgText(e.IPAddress), toPgText(e.UserAgent), toPgText(e.Reason),
		e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// auditQuery builds the filtered audit listing. Placeholders are numbered in
// the order conditions are appended.
func auditQuery(f core.AuditFilter) (string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Kind != "" {
		add("kind = $%d", string(f.Kind))
	}
	if f.Action != "" {
		add("action = $%d", string(f.Action))
	}
	if !f.Since.IsZero() {
		add("created_at >= $%d", f.Since)
	}
	if !f.Until.IsZero() {
		add("created_at <= $%d", f.Until)
	}

	var b strings.Builder
	b.WriteString(`SELECT id, action, severity, kind, record_id, column_name, old_value, new_value,
		rows_affected, ip_address, user_agent, reason, created_at FROM audit_log`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

func (s *Store) ListAudit(ctx context.Context, f core.AuditFilter) ([]core.AuditEntry, error) {
	query, args := auditQuery(f)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (core.AuditEntry, error) {
		var e core.AuditEntry
		var action, severity, kind string
		var recordID, column, oldValue, newValue, ip, ua, reason pgtype.Text
		var affected pgtype.Int4
		err := r.Scan(&e.ID, &action, &severity, &kind, &recordID, &column, &oldValue, &newValue,
			&affected, &ip, &ua, &reason, &e.CreatedAt)
		if err != nil {
			return e, err
		}
		e.Action = core.AuditAction(action)
		e.Severity = core.AuditSeverity(severity)
		e.Kind = core.Kind(kind)
		e.RecordID = recordID.String
		e.Column = column.String
		e.OldValue = oldValue.String
		e.NewValue = newValue.String
		e.RowsAffected = int(affected.Int32)
		e.IPAddress = ip.String
		e.UserAgent = ua.String
		e.Reason = reason.String
		return e, nil
	})
}

func toPgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func toPgInt4(n int) pgtype.Int4 {
	return pgtype.Int4{Int32: int32(n), Valid: n != 0}
}
