package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"hymnbook/internal/auth"
	"hymnbook/internal/authz"
	"hymnbook/internal/catalog"
	"hymnbook/internal/config"
	"hymnbook/internal/database"
	"hymnbook/internal/models"
	"hymnbook/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

// recordingPublisher captures events instead of sending them.
type recordingPublisher struct {
	mu       sync.Mutex
	created  []models.HymnSubmission
	reviewed []models.HymnSubmission
	err      error
}

func (p *recordingPublisher) SubmissionCreated(_ context.Context, sub *models.HymnSubmission) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, *sub)
	return p.err
}

func (p *recordingPublisher) SubmissionReviewed(_ context.Context, sub *models.HymnSubmission) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reviewed = append(p.reviewed, *sub)
	return p.err
}

type testEnv struct {
	db          *gorm.DB
	submissions *SubmissionService
	users       *UserService
	events      *recordingPublisher
}

func setupEnv(t *testing.T, threshold int) *testEnv {
	t.Helper()
	db, err := database.Connect(&config.Config{DBDriver: database.DriverSQLite, DBSQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	userRepo := repository.NewUserRepository(db)
	subRepo := repository.NewSubmissionRepository(db)
	gate := authz.NewGate(userRepo, threshold)
	events := &recordingPublisher{}

	return &testEnv{
		db:          db,
		submissions: NewSubmissionService(subRepo, gate, catalog.MustDefault(), events),
		users:       NewUserService(userRepo, subRepo, gate, auth.NewTokenIssuer("test-secret", time.Hour)),
		events:      events,
	}
}

func (e *testEnv) user(t *testing.T, username string, approved int, admin bool) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "hash", IsAdmin: admin}
	require.NoError(t, e.db.Create(u).Error)
	if approved > 0 {
		require.NoError(t, e.db.Model(u).UpdateColumn("approved_count", approved).Error)
		u.ApprovedCount = approved
	}
	return u
}

func (e *testEnv) approvedCount(t *testing.T, id uint) int {
	t.Helper()
	var u models.User
	require.NoError(t, e.db.Unscoped().First(&u, id).Error)
	return u.ApprovedCount
}

func hymn(caller uint, number int) SubmitInput {
	return SubmitInput{
		CallerID:    caller,
		SectionID:   1,
		SectionName: "Chants d'Espérance (Français)",
		Language:    "french",
		HymnNumber:  number,
		Title:       "À toi la gloire",
		Verses:      "Verse 1:\nÀ toi la gloire, ô Ressuscité\n\nVerse 2:\nVois-le paraître",
	}
}
