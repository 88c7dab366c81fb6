package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/itcache/portal/internal/data/pgxutil"
	apperrors "github.com/itcache/portal/internal/errors"
	"github.com/itcache/portal/internal/ports"
)

// RoleRepo resolves role names to their backend-assigned ids. Role ids are
// opaque and environment-specific; only names are stable, so gating logic
// always goes through this lookup instead of embedding ids.
type RoleRepo struct {
	DB *sql.DB
}

var _ ports.RoleDirectory = (*RoleRepo)(nil)

func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{DB: db}
}

// IDByName returns the id of the role with the given name, or a not_found
// error when no such role exists.
func (r *RoleRepo) IDByName(ctx context.Context, name string) (string, error) {
	var id string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `SELECT id FROM user_roles WHERE name = $1`, name).Scan(&id)
	})
	if err != nil {
		return "", apperrors.MapDBError(err)
	}
	return id, nil
}
