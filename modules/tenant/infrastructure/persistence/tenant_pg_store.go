package persistence

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/ports"
	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
)

//go:embed schema.sql
var Schema string

const tenantColumns = `id, name, subdomain, licensing, theming, content, settings, create_date, update_date`

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type TenantPGStore struct {
	pool pgBeginner
}

func NewTenantPGStore(pool pgBeginner) ports.TenantStore {
	return &TenantPGStore{pool: pool}
}

// EnsureSchema creates the tenant table when it does not exist yet.
func EnsureSchema(ctx context.Context, pool pgBeginner) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, Schema); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *TenantPGStore) FindByID(ctx context.Context, id int64) (types.Tenant, bool, error) {
	return s.findOne(ctx, `SELECT `+tenantColumns+` FROM tenant WHERE id = $1`, id)
}

// FindBySubdomain returns the oldest tenant on the subdomain. Single-domain
// deployments share one subdomain, so the first row is the main tenant.
func (s *TenantPGStore) FindBySubdomain(ctx context.Context, subdomain string) (types.Tenant, bool, error) {
	return s.findOne(ctx, `SELECT `+tenantColumns+` FROM tenant WHERE subdomain = $1 ORDER BY id LIMIT 1`, subdomain)
}

func (s *TenantPGStore) findOne(ctx context.Context, query string, arg any) (types.Tenant, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Tenant{}, false, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	t, err := scanTenant(tx.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Tenant{}, false, nil
	}
	if err != nil {
		return types.Tenant{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return types.Tenant{}, false, err
	}
	return t, true, nil
}

func (s *TenantPGStore) List(ctx context.Context) ([]types.Tenant, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `SELECT `+tenantColumns+` FROM tenant ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TenantPGStore) Create(ctx context.Context, tenant types.Tenant) (types.Tenant, error) {
	cols, err := encodeTenant(tenant)
	if err != nil {
		return types.Tenant{}, err
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Tenant{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	created, err := scanTenant(tx.QueryRow(ctx, `
INSERT INTO tenant (name, subdomain, licensing, theming, content, settings, create_date, update_date)
VALUES ($1, $2, $3::jsonb, $4::jsonb, $5::jsonb, $6::jsonb, $7, $8)
RETURNING `+tenantColumns,
		tenant.Name, tenant.Subdomain, cols.licensing, cols.theming, cols.content, cols.settings, tenant.CreateDate, tenant.UpdateDate))
	if err != nil {
		return types.Tenant{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return types.Tenant{}, err
	}
	return created, nil
}

func (s *TenantPGStore) Update(ctx context.Context, tenant types.Tenant) (types.Tenant, error) {
	cols, err := encodeTenant(tenant)
	if err != nil {
		return types.Tenant{}, err
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Tenant{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	updated, err := scanTenant(tx.QueryRow(ctx, `
UPDATE tenant
SET name = $2, subdomain = $3, licensing = $4::jsonb, theming = $5::jsonb, content = $6::jsonb, settings = $7::jsonb, update_date = $8
WHERE id = $1
RETURNING `+tenantColumns,
		tenant.ID, tenant.Name, tenant.Subdomain, cols.licensing, cols.theming, cols.content, cols.settings, tenant.UpdateDate))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Tenant{}, fmt.Errorf("tenant %d does not exist", tenant.ID)
	}
	if err != nil {
		return types.Tenant{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return types.Tenant{}, err
	}
	return updated, nil
}

type encodedColumns struct {
	licensing []byte
	theming   []byte
	content   []byte
	settings  []byte
}

func encodeTenant(t types.Tenant) (encodedColumns, error) {
	var out encodedColumns
	var err error
	if out.licensing, err = json.Marshal(t.Licensing); err != nil {
		return encodedColumns{}, err
	}
	if out.theming, err = json.Marshal(t.Theming); err != nil {
		return encodedColumns{}, err
	}
	if out.content, err = json.Marshal(t.Content); err != nil {
		return encodedColumns{}, err
	}
	if out.settings, err = json.Marshal(t.Settings); err != nil {
		return encodedColumns{}, err
	}
	return out, nil
}

func scanTenant(row pgx.Row) (types.Tenant, error) {
	var t types.Tenant
	var licensing, theming, content, settings []byte
	if err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &licensing, &theming, &content, &settings, &t.CreateDate, &t.UpdateDate); err != nil {
		return types.Tenant{}, err
	}
	for _, col := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"licensing", licensing, &t.Licensing},
		{"theming", theming, &t.Theming},
		{"content", content, &t.Content},
		{"settings", settings, &t.Settings},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return types.Tenant{}, fmt.Errorf("decode tenant %s: %w", col.name, err)
		}
	}
	return t, nil
}
