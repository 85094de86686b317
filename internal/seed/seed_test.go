package seed

import (
	"context"
	"os"
	"testing"
	"time"

	"hymnbook/internal/auth"
	"hymnbook/internal/authz"
	"hymnbook/internal/catalog"
	"hymnbook/internal/config"
	"hymnbook/internal/database"
	"hymnbook/internal/repository"
	"hymnbook/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

func setup(t *testing.T) (*service.UserService, *service.SubmissionService) {
	t.Helper()
	db, err := database.Connect(&config.Config{DBDriver: database.DriverSQLite, DBSQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	users := repository.NewUserRepository(db)
	subs := repository.NewSubmissionRepository(db)
	gate := authz.NewGate(users, 5)
	userSvc := service.NewUserService(users, subs, gate, auth.NewTokenIssuer("seed-secret", time.Hour))
	subSvc := service.NewSubmissionService(subs, gate, catalog.MustDefault(), nil)
	return userSvc, subSvc
}

func TestRun_KeepsApprovedCountsConsistent(t *testing.T) {
	ctx := context.Background()
	users, subs := setup(t)
	admin, err := users.EnsureAdmin(ctx, "seed_admin", DefaultPassword)
	require.NoError(t, err)

	opts := Options{Users: 6, Submissions: 40, ReviewRatio: 0.8, ApproveRatio: 0.6, Seed: 42}
	res, err := NewSeeder(users, subs).Run(ctx, admin.ID, opts)
	require.NoError(t, err)

	assert.Equal(t, 6, res.Users)
	assert.Equal(t, opts.Submissions, res.Submitted+res.Duplicates)
	assert.LessOrEqual(t, res.Published+res.Rejected, res.Submitted)

	drift, err := users.AuditTrust(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)

	pending, err := subs.ListPending(ctx, admin.ID)
	require.NoError(t, err)
	assert.Len(t, pending, res.Submitted-res.Published-res.Rejected)
}

func TestRun_NoUsers(t *testing.T) {
	users, subs := setup(t)
	res, err := NewSeeder(users, subs).Run(context.Background(), 1, Options{Submissions: 5})
	require.NoError(t, err)
	assert.Zero(t, res.Submitted)
}

func TestFakeUsername_IsValid(t *testing.T) {
	faker := gofakeit.New(7)
	for i := 0; i < 50; i++ {
		name := fakeUsername(faker, i)
		assert.GreaterOrEqual(t, len(name), 3)
		assert.LessOrEqual(t, len(name), 30)
		assert.Regexp(t, `^[a-zA-Z0-9][a-zA-Z0-9_]*[a-zA-Z0-9]$`, name)
	}
}

func TestFakeVerses_NumbersEachVerse(t *testing.T) {
	faker := gofakeit.New(3)
	verses := fakeVerses(faker)
	assert.Contains(t, verses, "1. ")
	assert.Contains(t, verses, "2. ")
}
