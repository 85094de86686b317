package repository

import (
	"os"
	"testing"

	"hymnbook/internal/config"
	"hymnbook/internal/database"
	"hymnbook/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

// setupTestDB returns a migrated in-memory SQLite database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(&config.Config{DBDriver: database.DriverSQLite, DBSQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, username string, approved int, admin bool) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "hash", IsAdmin: admin}
	require.NoError(t, db.Create(u).Error)
	if approved > 0 {
		require.NoError(t, db.Model(u).UpdateColumn("approved_count", approved).Error)
		u.ApprovedCount = approved
	}
	return u
}

func newSubmission(submitter uint, number int, status models.SubmissionStatus) *models.HymnSubmission {
	return &models.HymnSubmission{
		SectionID:   1,
		SectionName: "Chants d'Espérance (Français)",
		Language:    models.LanguageFrench,
		HymnNumber:  number,
		Title:       "Hymne",
		Verses:      "Verse 1:\nGloire à Dieu",
		SubmittedBy: submitter,
		Status:      status,
	}
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.Unscoped().First(&u, id).Error)
	return u
}
