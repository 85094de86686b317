package repository

import (
	"context"
	"errors"
	"time"

	"hymnbook/internal/cache"
	"hymnbook/internal/database"
	"hymnbook/internal/models"
	"hymnbook/internal/observability"

	"gorm.io/gorm"
)

// Slot identifies the place a hymn occupies in the book.
type Slot struct {
	SectionID  int
	Language   models.Language
	HymnNumber int
}

// SubmissionRepository owns hymn_submissions and is the only writer of
// users.approved_count.
type SubmissionRepository interface {
	// Create inserts sub. When sub is already approved the submitter is
	// credited in the same transaction. A taken slot yields a DUPLICATE error
	// whose kind names the blocking status.
	Create(ctx context.Context, sub *models.HymnSubmission) error
	GetByID(ctx context.Context, id uint) (*models.HymnSubmission, error)
	// GetApproved returns a published hymn; other statuses read as not found.
	GetApproved(ctx context.Context, id uint) (*models.HymnSubmission, error)
	// ActiveStatus returns the status blocking slot: approved before pending.
	ActiveStatus(ctx context.Context, slot Slot) (models.SubmissionStatus, bool, error)
	// LatestStatus returns the most relevant status recorded for slot:
	// approved, then pending, then rejected.
	LatestStatus(ctx context.Context, slot Slot) (models.SubmissionStatus, bool, error)
	// Review moves a pending submission to the action's status. The status
	// check and the write are one conditional update; approving credits the
	// submitter in the same transaction.
	Review(ctx context.Context, id, reviewerID uint, action models.ReviewAction, note *string, at time.Time) (*models.HymnSubmission, error)
	ListPending(ctx context.Context) ([]models.PendingSubmission, error)
	CountPending(ctx context.Context) (int64, error)
	ListBySubmitter(ctx context.Context, userID uint) ([]models.HymnSubmission, error)
	ListApproved(ctx context.Context, sectionID int, lang models.Language) ([]models.HymnSubmission, error)
	CountApprovedBySubmitter(ctx context.Context) (map[uint]int, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository returns a new SubmissionRepository implementation.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func slotScope(slot Slot) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("section_id = ? AND language = ? AND hymn_number = ?",
			slot.SectionID, slot.Language, slot.HymnNumber)
	}
}

func (r *submissionRepository) Create(ctx context.Context, sub *models.HymnSubmission) error {
	if sub.Status != models.StatusPending && sub.Status != models.StatusApproved {
		return models.NewValidationError("a new submission must be pending or approved")
	}
	defer observability.TrackQuery("create", "hymn_submissions")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Submitter").Create(sub).Error; err != nil {
			return err
		}
		if sub.Status == models.StatusApproved {
			return incrementApprovedCount(tx, sub.SubmittedBy)
		}
		return nil
	})
	if err == nil {
		if sub.Status == models.StatusApproved {
			cache.InvalidateSection(ctx, sub.SectionID, sub.Language)
		}
		return nil
	}

	if database.IsUniqueViolation(err) {
		// PostgreSQL aborts the transaction on the violation, so the
		// blocking row is looked up after rollback.
		slot := Slot{SectionID: sub.SectionID, Language: sub.Language, HymnNumber: sub.HymnNumber}
		status, found, lookupErr := r.ActiveStatus(ctx, slot)
		if lookupErr != nil {
			return lookupErr
		}
		if !found {
			// The blocker was a pending row reviewed in the meantime.
			status = models.StatusPending
		}
		return models.NewDuplicateError(status)
	}
	return models.NewInternalError(err)
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (*models.HymnSubmission, error) {
	var sub models.HymnSubmission
	if err := r.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Submission", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &sub, nil
}

func (r *submissionRepository) GetApproved(ctx context.Context, id uint) (*models.HymnSubmission, error) {
	var sub models.HymnSubmission
	err := cache.Aside(ctx, cache.HymnKey(id), &sub, cache.HymnTTL, func() error {
		err := r.db.WithContext(ctx).
			Where("status = ?", models.StatusApproved).
			First(&sub, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Hymn", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// slotStatuses returns the distinct statuses recorded for slot.
func (r *submissionRepository) slotStatuses(ctx context.Context, slot Slot, only ...models.SubmissionStatus) (map[models.SubmissionStatus]bool, error) {
	q := r.db.WithContext(ctx).Model(&models.HymnSubmission{}).Scopes(slotScope(slot))
	if len(only) > 0 {
		q = q.Where("status IN ?", only)
	}
	var statuses []models.SubmissionStatus
	if err := q.Distinct().Pluck("status", &statuses).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	set := make(map[models.SubmissionStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set, nil
}

func firstPresent(set map[models.SubmissionStatus]bool, order ...models.SubmissionStatus) (models.SubmissionStatus, bool) {
	for _, s := range order {
		if set[s] {
			return s, true
		}
	}
	return "", false
}

func (r *submissionRepository) ActiveStatus(ctx context.Context, slot Slot) (models.SubmissionStatus, bool, error) {
	set, err := r.slotStatuses(ctx, slot, models.StatusApproved, models.StatusPending)
	if err != nil {
		return "", false, err
	}
	status, found := firstPresent(set, models.StatusApproved, models.StatusPending)
	return status, found, nil
}

func (r *submissionRepository) LatestStatus(ctx context.Context, slot Slot) (models.SubmissionStatus, bool, error) {
	set, err := r.slotStatuses(ctx, slot)
	if err != nil {
		return "", false, err
	}
	status, found := firstPresent(set, models.StatusApproved, models.StatusPending, models.StatusRejected)
	return status, found, nil
}

func (r *submissionRepository) Review(ctx context.Context, id, reviewerID uint, action models.ReviewAction, note *string, at time.Time) (*models.HymnSubmission, error) {
	if !action.Valid() {
		return nil, models.NewValidationError("action must be approve or reject")
	}
	defer observability.TrackQuery("review", "hymn_submissions")()

	var sub models.HymnSubmission
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.HymnSubmission{}).
			Where("id = ? AND status = ?", id, models.StatusPending).
			Updates(map[string]interface{}{
				"status":      action.Status(),
				"reviewed_by": reviewerID,
				"review_note": note,
				"reviewed_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.HymnSubmission{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return models.NewNotFoundError("Submission", id)
			}
			return models.NewConflictError("Submission has already been reviewed")
		}

		if err := tx.First(&sub, id).Error; err != nil {
			return err
		}
		if action == models.ActionApprove {
			return incrementApprovedCount(tx, sub.SubmittedBy)
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, models.NewInternalError(err)
	}

	if sub.Status == models.StatusApproved {
		cache.InvalidateSection(ctx, sub.SectionID, sub.Language)
	}
	return &sub, nil
}

func (r *submissionRepository) ListPending(ctx context.Context) ([]models.PendingSubmission, error) {
	var subs []models.HymnSubmission
	err := r.db.WithContext(ctx).
		Preload("Submitter", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("status = ?", models.StatusPending).
		Order("created_at ASC, id ASC").
		Find(&subs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	out := make([]models.PendingSubmission, 0, len(subs))
	for _, s := range subs {
		item := models.PendingSubmission{Submission: s}
		if s.Submitter != nil {
			item.Submitter = s.Submitter.Summary()
		} else {
			item.Submitter = models.SubmitterSummary{ID: s.SubmittedBy}
		}
		item.Submission.Submitter = nil
		out = append(out, item)
	}
	return out, nil
}

func (r *submissionRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.HymnSubmission{}).
		Where("status = ?", models.StatusPending).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *submissionRepository) ListBySubmitter(ctx context.Context, userID uint) ([]models.HymnSubmission, error) {
	subs := []models.HymnSubmission{}
	if err := r.db.WithContext(ctx).
		Where("submitted_by = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&subs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return subs, nil
}

func (r *submissionRepository) ListApproved(ctx context.Context, sectionID int, lang models.Language) ([]models.HymnSubmission, error) {
	subs := []models.HymnSubmission{}
	err := cache.Aside(ctx, cache.SectionHymnsKey(ctx, sectionID, lang), &subs, cache.SectionHymnsTTL, func() error {
		if err := r.db.WithContext(ctx).
			Where("section_id = ? AND language = ? AND status = ?", sectionID, lang, models.StatusApproved).
			Order("hymn_number ASC").
			Find(&subs).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return subs, nil
}

type approvedCountRow struct {
	SubmittedBy uint
	Approved    int
}

func (r *submissionRepository) CountApprovedBySubmitter(ctx context.Context) (map[uint]int, error) {
	var rows []approvedCountRow
	if err := r.db.WithContext(ctx).Model(&models.HymnSubmission{}).
		Select("submitted_by, COUNT(*) AS approved").
		Where("status = ?", models.StatusApproved).
		Group("submitted_by").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	out := make(map[uint]int, len(rows))
	for _, row := range rows {
		out[row.SubmittedBy] = row.Approved
	}
	return out, nil
}
