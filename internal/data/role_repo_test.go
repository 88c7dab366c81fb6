package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/itcache/portal/internal/errors"
	"github.com/itcache/portal/internal/testutil"
)

func TestRoleRepo_IDByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewRoleRepo(db)

	adminID, err := repo.IDByName(context.Background(), "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, adminID)

	userID, err := repo.IDByName(context.Background(), "user")
	require.NoError(t, err)
	assert.NotEmpty(t, userID)
	assert.NotEqual(t, adminID, userID)
}

func TestRoleRepo_IDByName_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewRoleRepo(db)

	_, err := repo.IDByName(context.Background(), "superuser")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
