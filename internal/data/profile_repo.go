package data

// Package data provides Postgres-backed repositories via the pgx stdlib
// bridge. All query errors are normalized through apperrors.MapDBError so
// callers only see the application error taxonomy.

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/itcache/portal/internal/data/pgxutil"
	"github.com/itcache/portal/internal/domain/profile"
	apperrors "github.com/itcache/portal/internal/errors"
	"github.com/itcache/portal/internal/ports"
)

// ProfileRepo provides database operations for profile rows. The row is
// keyed by the identity provider's user id; the application never creates
// identities, only annotates them with role and preference data.
type ProfileRepo struct {
	DB *sql.DB
}

var _ ports.ProfileStore = (*ProfileRepo)(nil)

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db}
}

type profileRow struct {
	UserID string  `db:"user_id"`
	RoleID *string `db:"role_id"`
	Theme  *string `db:"theme"`
}

const profileGetByUserIDQuery = `
	SELECT user_id, role_id, theme
	FROM profiles
	WHERE user_id = $1`

// GetByUserID retrieves the profile row for a subject. A missing row maps to
// a not_found error; callers decide whether that is fatal.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (profile.Profile, error) {
	var row profileRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, profileGetByUserIDQuery, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[profileRow])
		return err
	})
	if err != nil {
		return profile.Profile{}, apperrors.MapDBError(err)
	}

	out := profile.Profile{UserID: row.UserID, Theme: profile.DefaultTheme}
	if row.RoleID != nil {
		out.RoleID = *row.RoleID
	}
	if row.Theme != nil {
		if t := profile.Theme(*row.Theme); t.Valid() {
			out.Theme = t
		}
	}
	return out, nil
}

// UpdateTheme persists the theme preference for a subject. Updating a
// missing row is a not_found error so optimistic callers can roll back.
func (r *ProfileRepo) UpdateTheme(ctx context.Context, userID string, theme profile.Theme) error {
	if !theme.Valid() {
		return apperrors.Validation(fmt.Sprintf("invalid theme %q", theme))
	}

	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `
			UPDATE profiles
			SET theme = $2, updated_at = now()
			WHERE user_id = $1`, userID, string(theme))
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}
