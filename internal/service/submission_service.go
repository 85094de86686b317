// Package service holds the application workflows that sit between the HTTP
// handlers and the repositories.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hymnbook/internal/authz"
	"hymnbook/internal/middleware"
	"hymnbook/internal/models"
	"hymnbook/internal/observability"
	"hymnbook/internal/repository"
	"hymnbook/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	MessagePublished = "Your hymn has been published."
	MessagePending   = "Your hymn has been submitted for review."
)

// SectionCatalog resolves section ids against the bundled catalog.
type SectionCatalog interface {
	Lookup(id int) (models.Section, bool)
	Sections() []models.Section
}

// EventPublisher receives submission lifecycle events after they commit.
type EventPublisher interface {
	SubmissionCreated(ctx context.Context, sub *models.HymnSubmission) error
	SubmissionReviewed(ctx context.Context, sub *models.HymnSubmission) error
}

// SubmissionService owns every submission status transition.
type SubmissionService struct {
	subRepo  repository.SubmissionRepository
	gate     *authz.Gate
	sections SectionCatalog
	events   EventPublisher
	now      func() time.Time
}

type SubmitInput struct {
	CallerID    uint
	SectionID   int
	SectionName string
	Language    string
	HymnNumber  int
	Title       string
	Verses      string
	Chorus      *string
}

type SubmitResult struct {
	Submission   *models.HymnSubmission `json:"submission"`
	AutoApproved bool                   `json:"autoApproved"`
	Message      string                 `json:"message"`
}

type ReviewInput struct {
	AdminID      uint
	SubmissionID uint
	Action       string
	Note         *string
}

type CheckExistsInput struct {
	SectionID  int
	Language   string
	HymnNumber int
}

type ExistsResult struct {
	Exists bool                     `json:"exists"`
	Status *models.SubmissionStatus `json:"status"`
}

// NewSubmissionService wires the workflow. events may be nil.
func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	gate *authz.Gate,
	sections SectionCatalog,
	events EventPublisher,
) *SubmissionService {
	return &SubmissionService{
		subRepo:  subRepo,
		gate:     gate,
		sections: sections,
		events:   events,
		now:      time.Now,
	}
}

// Submit validates and stores a new hymn. Trusted contributors and admins
// publish directly and are credited in the same transaction; everyone else
// joins the review queue.
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (res *SubmitResult, err error) {
	ctx, span := observability.StartSpan(ctx, "SubmissionService", "Submit",
		attribute.Int("hymn.section_id", in.SectionID),
		attribute.String("hymn.language", in.Language),
		attribute.Int("hymn.number", in.HymnNumber),
	)
	defer func() {
		observability.SubmissionsTotal.WithLabelValues(submitOutcome(res, err)).Inc()
		observability.EndSpan(span, err)
	}()

	caller, err := s.gate.RequireAuthenticated(ctx, in.CallerID)
	if err != nil {
		return nil, err
	}

	v := validation.HymnSubmission{
		SectionID:   in.SectionID,
		SectionName: in.SectionName,
		Language:    in.Language,
		HymnNumber:  in.HymnNumber,
		Title:       in.Title,
		Verses:      in.Verses,
		Chorus:      in.Chorus,
	}
	if err := v.Validate(); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	section, err := s.resolveSection(v.SectionID, models.Language(v.Language))
	if err != nil {
		return nil, err
	}
	sectionName := v.SectionName
	if sectionName == "" {
		sectionName = section.NameFull
	}

	slot := repository.Slot{SectionID: v.SectionID, Language: section.Language, HymnNumber: v.HymnNumber}
	// Fast path for the common case; the unique index settles races in Create.
	if status, found, err := s.subRepo.ActiveStatus(ctx, slot); err != nil {
		return nil, err
	} else if found {
		return nil, models.NewDuplicateError(status)
	}

	sub := &models.HymnSubmission{
		SectionID:   slot.SectionID,
		SectionName: sectionName,
		Language:    slot.Language,
		HymnNumber:  slot.HymnNumber,
		Title:       v.Title,
		Verses:      v.Verses,
		Chorus:      v.Chorus,
		SubmittedBy: caller.ID(),
		Status:      models.StatusPending,
	}
	autoApproved := caller.AutoApproves()
	if autoApproved {
		now := s.now()
		reviewer := caller.ID()
		sub.Status = models.StatusApproved
		sub.ReviewedBy = &reviewer
		sub.ReviewedAt = &now
	}

	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "submission created",
		slog.Uint64("submission_id", uint64(sub.ID)),
		slog.String("status", string(sub.Status)),
		slog.Uint64("submitted_by", uint64(sub.SubmittedBy)),
		slog.Bool("auto_approved", autoApproved),
	)
	s.publish(ctx, "created", sub)

	res = &SubmitResult{Submission: sub, AutoApproved: autoApproved, Message: MessagePending}
	if autoApproved {
		res.Message = MessagePublished
	}
	return res, nil
}

// Review applies an admin decision to a pending submission. Approving
// credits the submitter exactly once; a second review of the same
// submission fails with CONFLICT.
func (s *SubmissionService) Review(ctx context.Context, in ReviewInput) (sub *models.HymnSubmission, err error) {
	ctx, span := observability.StartSpan(ctx, "SubmissionService", "Review",
		attribute.Int64("submission.id", int64(in.SubmissionID)),
		attribute.String("review.action", in.Action),
	)
	defer func() {
		label := in.Action
		if !models.ReviewAction(label).Valid() {
			label = "invalid"
		}
		observability.ReviewsTotal.WithLabelValues(label, reviewOutcome(err)).Inc()
		observability.EndSpan(span, err)
	}()

	caller, err := s.gate.RequireAdmin(ctx, in.AdminID)
	if err != nil {
		return nil, err
	}
	action := models.ReviewAction(in.Action)
	if !action.Valid() {
		return nil, models.NewValidationError("action must be approve or reject")
	}
	note, err := validation.ValidateReviewNote(in.Note)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	sub, err = s.subRepo.Review(ctx, in.SubmissionID, caller.ID(), action, note, s.now())
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "submission reviewed",
		slog.Uint64("submission_id", uint64(sub.ID)),
		slog.String("status", string(sub.Status)),
		slog.Uint64("submitted_by", uint64(sub.SubmittedBy)),
		slog.Uint64("reviewed_by", uint64(caller.ID())),
	)
	s.publish(ctx, "reviewed", sub)
	return sub, nil
}

// CheckExists reports the most relevant status recorded for a hymn slot. It
// is advisory only; Submit re-checks under the unique index.
func (s *SubmissionService) CheckExists(ctx context.Context, in CheckExistsInput) (*ExistsResult, error) {
	lang := models.Language(in.Language)
	switch {
	case in.SectionID <= 0:
		return nil, models.NewValidationError("sectionId must be a positive integer")
	case !lang.Valid():
		return nil, models.NewValidationError("language must be french or kreyol")
	case in.HymnNumber <= 0:
		return nil, models.NewValidationError("hymnNumber must be a positive integer")
	}

	status, found, err := s.subRepo.LatestStatus(ctx, repository.Slot{
		SectionID: in.SectionID, Language: lang, HymnNumber: in.HymnNumber,
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return &ExistsResult{}, nil
	}
	return &ExistsResult{Exists: true, Status: &status}, nil
}

// ListPending returns the review queue, oldest first.
func (s *SubmissionService) ListPending(ctx context.Context, adminID uint) ([]models.PendingSubmission, error) {
	if _, err := s.gate.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	items, err := s.subRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	observability.PendingSubmissions.Set(float64(len(items)))
	return items, nil
}

// PendingCount returns the size of the review queue.
func (s *SubmissionService) PendingCount(ctx context.Context, adminID uint) (int64, error) {
	if _, err := s.gate.RequireAdmin(ctx, adminID); err != nil {
		return 0, err
	}
	count, err := s.subRepo.CountPending(ctx)
	if err != nil {
		return 0, err
	}
	observability.PendingSubmissions.Set(float64(count))
	return count, nil
}

// ListMine returns the caller's submissions, newest first.
func (s *SubmissionService) ListMine(ctx context.Context, callerID uint) ([]models.HymnSubmission, error) {
	caller, err := s.gate.RequireAuthenticated(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return s.subRepo.ListBySubmitter(ctx, caller.ID())
}

// GetHymn returns a published hymn.
func (s *SubmissionService) GetHymn(ctx context.Context, id uint) (*models.HymnSubmission, error) {
	return s.subRepo.GetApproved(ctx, id)
}

// ListHymns returns the published hymns of a section, ordered by number.
func (s *SubmissionService) ListHymns(ctx context.Context, sectionID int, language string) ([]models.HymnSubmission, error) {
	lang := models.Language(language)
	if !lang.Valid() {
		return nil, models.NewValidationError("language must be french or kreyol")
	}
	if _, err := s.resolveSection(sectionID, lang); err != nil {
		return nil, err
	}
	return s.subRepo.ListApproved(ctx, sectionID, lang)
}

// Sections returns the section catalog.
func (s *SubmissionService) Sections() []models.Section {
	return s.sections.Sections()
}

func (s *SubmissionService) resolveSection(id int, lang models.Language) (models.Section, error) {
	section, ok := s.sections.Lookup(id)
	if !ok {
		return models.Section{}, models.NewValidationError("Unknown section")
	}
	if section.Language != lang {
		return models.Section{}, models.NewValidationError("language does not match the section")
	}
	return section, nil
}

// publish runs after commit, so failures are logged and never undo the write.
func (s *SubmissionService) publish(ctx context.Context, what string, sub *models.HymnSubmission) {
	if s.events == nil {
		return
	}
	var err error
	switch what {
	case "created":
		err = s.events.SubmissionCreated(ctx, sub)
	case "reviewed":
		err = s.events.SubmissionReviewed(ctx, sub)
	}
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish submission event",
			slog.String("event", what),
			slog.Uint64("submission_id", uint64(sub.ID)),
			slog.String("error", err.Error()),
		)
	}
}

func submitOutcome(res *SubmitResult, err error) string {
	switch {
	case err == nil && res != nil && res.AutoApproved:
		return "approved"
	case err == nil:
		return "pending"
	case errors.Is(err, models.ErrDuplicateApproved):
		return "duplicate_approved"
	case errors.Is(err, models.ErrDuplicatePending):
		return "duplicate_pending"
	case errors.Is(err, models.ErrValidation):
		return "invalid"
	case errors.Is(err, models.ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "error"
	}
}

func reviewOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrConflict):
		return "conflict"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrUnauthenticated):
		return "denied"
	case errors.Is(err, models.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
