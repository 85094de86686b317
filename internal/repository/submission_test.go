package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hymnbook/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionRepository_CreatePendingDoesNotCredit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	u := createUser(t, db, "ana", 0, false)

	sub := newSubmission(u.ID, 28, models.StatusPending)
	require.NoError(t, repo.Create(context.Background(), sub))
	assert.NotZero(t, sub.ID)
	assert.Equal(t, 0, reloadUser(t, db, u.ID).ApprovedCount)
}

func TestSubmissionRepository_CreateApprovedCreditsOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	u := createUser(t, db, "trusted", 5, false)

	now := time.Now()
	sub := newSubmission(u.ID, 30, models.StatusApproved)
	sub.ReviewedBy = &u.ID
	sub.ReviewedAt = &now
	require.NoError(t, repo.Create(context.Background(), sub))
	assert.Equal(t, 6, reloadUser(t, db, u.ID).ApprovedCount)
}

func TestSubmissionRepository_CreateRollsBackWhenCreditFails(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	u := createUser(t, db, "ghost", 0, false)
	// Remove the user row entirely so the credit update matches nothing.
	require.NoError(t, db.Exec("PRAGMA foreign_keys = OFF").Error)
	require.NoError(t, db.Unscoped().Delete(&models.User{}, u.ID).Error)

	err := repo.Create(context.Background(), newSubmission(u.ID, 31, models.StatusApproved))
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.HymnSubmission{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmissionRepository_CreateDuplicateKinds(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()
	a := createUser(t, db, "a", 0, false)
	b := createUser(t, db, "b", 0, false)

	require.NoError(t, repo.Create(ctx, newSubmission(a.ID, 28, models.StatusPending)))

	err := repo.Create(ctx, newSubmission(b.ID, 28, models.StatusPending))
	assert.ErrorIs(t, err, models.ErrDuplicatePending)

	err = repo.Create(ctx, newSubmission(b.ID, 28, models.StatusApproved))
	assert.ErrorIs(t, err, models.ErrDuplicatePending)
	assert.Equal(t, 0, reloadUser(t, db, b.ID).ApprovedCount)

	require.NoError(t, repo.Create(ctx, newSubmission(a.ID, 29, models.StatusApproved)))
	err = repo.Create(ctx, newSubmission(b.ID, 29, models.StatusPending))
	assert.ErrorIs(t, err, models.ErrDuplicateApproved)

	// Same number in another language is a different hymn.
	other := newSubmission(b.ID, 28, models.StatusPending)
	other.Language = models.LanguageKreyol
	other.SectionID = 2
	require.NoError(t, repo.Create(ctx, other))
}

func TestSubmissionRepository_CreateRejectsTerminalStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	u := createUser(t, db, "x", 0, false)

	err := repo.Create(context.Background(), newSubmission(u.ID, 1, models.StatusRejected))
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSubmissionRepository_ConcurrentCreateSameSlot(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	const workers = 8
	users := make([]*models.User, workers)
	for i := range users {
		users[i] = createUser(t, db, "racer"+string(rune('a'+i)), 0, false)
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(context.Background(), newSubmission(users[i].ID, 42, models.StatusPending))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, models.ErrDuplicatePending)
	}
	assert.Equal(t, 1, ok)
}

func TestSubmissionRepository_ReviewApproveCreditsExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "u", 0, false)
	admin := createUser(t, db, "admin", 0, true)

	sub := newSubmission(u.ID, 28, models.StatusPending)
	require.NoError(t, repo.Create(ctx, sub))

	note := "Merci"
	reviewed, err := repo.Review(ctx, sub.ID, admin.ID, models.ActionApprove, &note, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, admin.ID, *reviewed.ReviewedBy)
	require.NotNil(t, reviewed.ReviewNote)
	assert.Equal(t, "Merci", *reviewed.ReviewNote)
	assert.NotNil(t, reviewed.ReviewedAt)
	assert.Equal(t, 1, reloadUser(t, db, u.ID).ApprovedCount)

	_, err = repo.Review(ctx, sub.ID, admin.ID, models.ActionApprove, nil, time.Now())
	assert.ErrorIs(t, err, models.ErrConflict)
	_, err = repo.Review(ctx, sub.ID, admin.ID, models.ActionReject, nil, time.Now())
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, 1, reloadUser(t, db, u.ID).ApprovedCount)

	// Admins never get credited for reviewing.
	assert.Equal(t, 0, reloadUser(t, db, admin.ID).ApprovedCount)
}

func TestSubmissionRepository_ReviewRejectNoCredit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "u", 0, false)
	admin := createUser(t, db, "admin", 0, true)

	sub := newSubmission(u.ID, 5, models.StatusPending)
	require.NoError(t, repo.Create(ctx, sub))

	reviewed, err := repo.Review(ctx, sub.ID, admin.ID, models.ActionReject, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, reviewed.Status)
	assert.Nil(t, reviewed.ReviewNote)
	assert.Equal(t, 0, reloadUser(t, db, u.ID).ApprovedCount)

	// A rejected hymn frees the slot.
	require.NoError(t, repo.Create(ctx, newSubmission(u.ID, 5, models.StatusPending)))
}

func TestSubmissionRepository_ReviewNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	_, err := repo.Review(context.Background(), 404, 1, models.ActionApprove, nil, time.Now())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSubmissionRepository_ConcurrentReviewSingleCredit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "u", 0, false)
	admin := createUser(t, db, "admin", 0, true)

	sub := newSubmission(u.ID, 7, models.StatusPending)
	require.NoError(t, repo.Create(ctx, sub))

	const reviewers = 6
	var wg sync.WaitGroup
	errs := make([]error, reviewers)
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Review(ctx, sub.ID, admin.ID, models.ActionApprove, nil, time.Now())
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, models.ErrConflict)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, reloadUser(t, db, u.ID).ApprovedCount)
}

func TestSubmissionRepository_Statuses(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "u", 0, false)
	admin := createUser(t, db, "admin", 0, true)
	slot := Slot{SectionID: 1, Language: models.LanguageFrench, HymnNumber: 28}

	_, found, err := repo.LatestStatus(ctx, slot)
	require.NoError(t, err)
	assert.False(t, found)

	first := newSubmission(u.ID, 28, models.StatusPending)
	require.NoError(t, repo.Create(ctx, first))
	_, err = repo.Review(ctx, first.ID, admin.ID, models.ActionReject, nil, time.Now())
	require.NoError(t, err)

	status, found, err := repo.LatestStatus(ctx, slot)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.StatusRejected, status)

	_, found, err = repo.ActiveStatus(ctx, slot)
	require.NoError(t, err)
	assert.False(t, found)

	second := newSubmission(u.ID, 28, models.StatusPending)
	require.NoError(t, repo.Create(ctx, second))
	status, _, err = repo.LatestStatus(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, status)

	_, err = repo.Review(ctx, second.ID, admin.ID, models.ActionApprove, nil, time.Now())
	require.NoError(t, err)
	status, _, err = repo.LatestStatus(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, status)
	status, found, err = repo.ActiveStatus(ctx, slot)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.StatusApproved, status)
}

func TestSubmissionRepository_Listings(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "u", 2, false)
	other := createUser(t, db, "other", 0, false)

	for _, n := range []int{3, 1, 2} {
		require.NoError(t, repo.Create(ctx, newSubmission(u.ID, n, models.StatusPending)))
	}
	require.NoError(t, repo.Create(ctx, newSubmission(other.ID, 10, models.StatusApproved)))
	require.NoError(t, repo.Create(ctx, newSubmission(other.ID, 9, models.StatusApproved)))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, 3, pending[0].Submission.HymnNumber)
	assert.Equal(t, "u", pending[0].Submitter.Username)
	assert.Equal(t, 2, pending[0].Submitter.ApprovedCount)

	count, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	mine, err := repo.ListBySubmitter(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, 2, mine[0].HymnNumber, "newest first")

	none, err := repo.ListBySubmitter(ctx, 999)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	approved, err := repo.ListApproved(ctx, 1, models.LanguageFrench)
	require.NoError(t, err)
	require.Len(t, approved, 2)
	assert.Equal(t, 9, approved[0].HymnNumber)

	hymn, err := repo.GetApproved(ctx, approved[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 9, hymn.HymnNumber)
	_, err = repo.GetApproved(ctx, pending[0].Submission.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	counts, err := repo.CountApprovedBySubmitter(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{other.ID: 2}, counts)
}

func TestSubmissionRepository_ListPendingIncludesDeletedSubmitter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "leaver", 0, false)

	require.NoError(t, repo.Create(ctx, newSubmission(u.ID, 12, models.StatusPending)))
	require.NoError(t, NewUserRepository(db).Delete(ctx, u.ID))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "leaver", pending[0].Submitter.Username)
}

func TestSubmissionRepository_ReviewSQLShape(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSubmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "hymn_submissions" SET .*"status"=.* WHERE \(?id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "hymn_submissions" WHERE "hymn_submissions"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "submitted_by", "status", "section_id", "language"}).
			AddRow(11, 3, "approved", 1, "french"))
	mock.ExpectExec(`UPDATE "users" SET "approved_count"=approved_count \+ \$1 WHERE id = \$2`).
		WithArgs(1, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sub, err := repo.Review(context.Background(), 11, 1, models.ActionApprove, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, uint(3), sub.SubmittedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_ReviewSQLShapeConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSubmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "hymn_submissions" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "hymn_submissions" WHERE id = \$1`).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Review(context.Background(), 11, 1, models.ActionApprove, nil, time.Now())
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_ReviewSQLShapeStoreFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSubmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "hymn_submissions" SET`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.Review(context.Background(), 11, 1, models.ActionApprove, nil, time.Now())
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeInternal, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
