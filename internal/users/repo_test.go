package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL,
  role TEXT NOT NULL,
  location TEXT NOT NULL,
  locked INTEGER NOT NULL DEFAULT 0,
  admin_id TEXT,
  super_admin_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func createUser(t *testing.T, db *gorm.DB, role enums.UserRole, mutate func(*models.User)) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.New(), FullName: "User " + uuid.NewString()[:8], Role: role, Location: "lagos"}
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestFindByID(t *testing.T) {
	t.Parallel()

	db := setupUsersTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	created := createUser(t, db, enums.UserRoleMarketer, nil)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
	require.Equal(t, enums.UserRoleMarketer, found.Role)

	_, err = repo.FindByID(ctx, uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindByRoleSkipsLockedAccounts(t *testing.T) {
	t.Parallel()

	db := setupUsersTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	active := createUser(t, db, enums.UserRoleMasterAdmin, nil)
	createUser(t, db, enums.UserRoleMasterAdmin, func(u *models.User) { u.Locked = true })
	createUser(t, db, enums.UserRoleAdmin, nil)

	masters, err := repo.FindByRole(ctx, enums.UserRoleMasterAdmin)
	require.NoError(t, err)
	require.Len(t, masters, 1)
	require.Equal(t, active.ID, masters[0].ID)
}

func TestStakeholdersResolvesManagementChain(t *testing.T) {
	t.Parallel()

	db := setupUsersTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	admin := createUser(t, db, enums.UserRoleAdmin, nil)
	super := createUser(t, db, enums.UserRoleSuperAdmin, nil)
	master := createUser(t, db, enums.UserRoleMasterAdmin, nil)
	marketer := createUser(t, db, enums.UserRoleMarketer, func(u *models.User) {
		u.AdminID = &admin.ID
		u.SuperAdminID = &super.ID
	})

	chain, err := repo.Stakeholders(ctx, marketer)
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{admin.ID, super.ID, master.ID}, chain)
	require.NotContains(t, chain, marketer.ID)
}

func TestStakeholdersDedupsSharedSupervisor(t *testing.T) {
	t.Parallel()

	db := setupUsersTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	// admin doubles as the super admin on a small team
	admin := createUser(t, db, enums.UserRoleAdmin, nil)
	marketer := createUser(t, db, enums.UserRoleMarketer, func(u *models.User) {
		u.AdminID = &admin.ID
		u.SuperAdminID = &admin.ID
	})

	chain, err := repo.Stakeholders(ctx, marketer)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{admin.ID}, chain)
}
