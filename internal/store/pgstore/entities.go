package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/cdm/internal/core"
)

const driverColumns = `id, category, name, description, sort_order, created_at, updated_at`

func scanDriver(row pgx.Row) (core.Driver, error) {
	var d core.Driver
	err := row.Scan(&d.ID, &d.Category, &d.Name, &d.Description, &d.SortOrder, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (s *Store) ListDrivers(ctx context.Context) ([]core.Driver, error) {
	rows, err := s.db.Query(ctx, `SELECT `+driverColumns+` FROM drivers
		ORDER BY array_position(ARRAY['sector','domain','country','clarifier'], category), sort_order, lower(name)`)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (core.Driver, error) { return scanDriver(r) })
}

func (s *Store) GetDriver(ctx context.Context, id string) (core.Driver, error) {
	d, err := scanDriver(s.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id))
	if err != nil {
		return core.Driver{}, getErr(err, core.KindDrivers, id)
	}
	return d, nil
}

func (s *Store) SaveDriver(ctx context.Context, d core.Driver) error {
	_, err := s.db.Exec(ctx, `INSERT INTO drivers (`+driverColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			category = EXCLUDED.category,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			sort_order = EXCLUDED.sort_order,
			updated_at = EXCLUDED.updated_at`,
		d.ID, string(d.Category), d.Name, d.Description, d.SortOrder, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save driver: %w", err)
	}
	return nil
}

func (s *Store) DeleteDriver(ctx context.Context, id string) error {
	return s.deleteRow(ctx, core.KindDrivers, `DELETE FROM drivers WHERE id = $1`, id)
}

const objectColumns = `id, being, avatar, object, driver, identifier, relationships, variants, created_at, updated_at`

func scanObject(row pgx.Row) (core.Object, error) {
	var o core.Object
	err := row.Scan(&o.ID, &o.Being, &o.Avatar, &o.Object, &o.Driver, &o.Identifier,
		&o.Relationships, &o.Variants, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (s *Store) ListObjects(ctx context.Context) ([]core.Object, error) {
	rows, err := s.db.Query(ctx, `SELECT `+objectColumns+` FROM objects ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (core.Object, error) { return scanObject(r) })
}

func (s *Store) GetObject(ctx context.Context, id string) (core.Object, error) {
	o, err := scanObject(s.db.QueryRow(ctx, `SELECT `+objectColumns+` FROM objects WHERE id = $1`, id))
	if err != nil {
		return core.Object{}, getErr(err, core.KindObjects, id)
	}
	return o, nil
}

func (s *Store) SaveObject(ctx context.Context, o core.Object) error {
	rels, err := jsonb(nonNil(o.Relationships))
	if err != nil {
		return err
	}
	variants, err := jsonb(nonNil(o.Variants))
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO objects (`+objectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			being = EXCLUDED.being,
			avatar = EXCLUDED.avatar,
			object = EXCLUDED.object,
			driver = EXCLUDED.driver,
			identifier = EXCLUDED.identifier,
			relationships = EXCLUDED.relationships,
			variants = EXCLUDED.variants,
			updated_at = EXCLUDED.updated_at`,
		o.ID, o.Being, o.Avatar, o.Object, o.Driver, o.Identifier, rels, variants, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save object: %w", err)
	}
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, id string) error {
	return s.deleteRow(ctx, core.KindObjects, `DELETE FROM objects WHERE id = $1`, id)
}

const variableColumns = `id, part, section, group_name, variable, format, driver, object_ids, created_at, updated_at`

func scanVariable(row pgx.Row) (core.Variable, error) {
	var v core.Variable
	err := row.Scan(&v.ID, &v.Part, &v.Section, &v.Group, &v.Variable, &v.Format, &v.Driver,
		&v.ObjectRelationships, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (s *Store) ListVariables(ctx context.Context) ([]core.Variable, error) {
	rows, err := s.db.Query(ctx, `SELECT `+variableColumns+` FROM variables ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (core.Variable, error) { return scanVariable(r) })
}

func (s *Store) GetVariable(ctx context.Context, id string) (core.Variable, error) {
	v, err := scanVariable(s.db.QueryRow(ctx, `SELECT `+variableColumns+` FROM variables WHERE id = $1`, id))
	if err != nil {
		return core.Variable{}, getErr(err, core.KindVariables, id)
	}
	return v, nil
}

func (s *Store) SaveVariable(ctx context.Context, v core.Variable) error {
	_, err := s.db.Exec(ctx, `INSERT INTO variables (`+variableColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			part = EXCLUDED.part,
			section = EXCLUDED.section,
			group_name = EXCLUDED.group_name,
			variable = EXCLUDED.variable,
			format = EXCLUDED.format,
			driver = EXCLUDED.driver,
			object_ids = EXCLUDED.object_ids,
			updated_at = EXCLUDED.updated_at`,
		v.ID, v.Part, v.Section, v.Group, v.Variable, v.Format, v.Driver,
		nonNil(v.ObjectRelationships), v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save variable: %w", err)
	}
	return nil
}

func (s *Store) DeleteVariable(ctx context.Context, id string) error {
	return s.deleteRow(ctx, core.KindVariables, `DELETE FROM variables WHERE id = $1`, id)
}

const listColumns = `id, set_name, grouping_name, list, tiers, list_values, created_at, updated_at`

func scanList(row pgx.Row) (core.List, error) {
	var l core.List
	err := row.Scan(&l.ID, &l.Set, &l.Grouping, &l.List, &l.Tiers, &l.Values, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (s *Store) ListLists(ctx context.Context) ([]core.List, error) {
	rows, err := s.db.Query(ctx, `SELECT `+listColumns+` FROM lists ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (core.List, error) { return scanList(r) })
}

func (s *Store) GetList(ctx context.Context, id string) (core.List, error) {
	l, err := scanList(s.db.QueryRow(ctx, `SELECT `+listColumns+` FROM lists WHERE id = $1`, id))
	if err != nil {
		return core.List{}, getErr(err, core.KindLists, id)
	}
	return l, nil
}

func (s *Store) SaveList(ctx context.Context, l core.List) error {
	tiers, err := jsonb(nonNil(l.Tiers))
	if err != nil {
		return err
	}
	values, err := jsonb(nonNil(l.Values))
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO lists (`+listColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			set_name = EXCLUDED.set_name,
			grouping_name = EXCLUDED.grouping_name,
			list = EXCLUDED.list,
			tiers = EXCLUDED.tiers,
			list_values = EXCLUDED.list_values,
			updated_at = EXCLUDED.updated_at`,
		l.ID, l.Set, l.Grouping, l.List, tiers, values, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save list: %w", err)
	}
	return nil
}

func (s *Store) DeleteList(ctx context.Context, id string) error {
	return s.deleteRow(ctx, core.KindLists, `DELETE FROM lists WHERE id = $1`, id)
}
