package server

import (
	"hymnbook/internal/models"
	"hymnbook/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitHymnRequest is the body of a hymn submission.
type SubmitHymnRequest struct {
	SectionID   int     `json:"sectionId" example:"1"`
	SectionName string  `json:"sectionName" example:"Chants d'Espérance (Français)"`
	Language    string  `json:"language" example:"french"`
	HymnNumber  int     `json:"hymnNumber" example:"42"`
	Title       string  `json:"title"`
	Verses      string  `json:"verses"`
	Chorus      *string `json:"chorus"`
}

// ReviewRequest carries an admin decision.
type ReviewRequest struct {
	Action     string  `json:"action" example:"approve"`
	ReviewNote *string `json:"reviewNote"`
}

// Submit godoc
// @Summary Submit a hymn
// @Description Trusted contributors and admins publish directly; other submissions wait for review.
// @Tags submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubmitHymnRequest true "Hymn"
// @Success 201 {object} service.SubmitResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "DUPLICATE with kind approved or pending"
// @Router /submissions [post]
func (s *Server) Submit(c *fiber.Ctx) error {
	var req SubmitHymnRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.submissionService.Submit(c.UserContext(), service.SubmitInput{
		CallerID:    currentUserID(c),
		SectionID:   req.SectionID,
		SectionName: req.SectionName,
		Language:    req.Language,
		HymnNumber:  req.HymnNumber,
		Title:       req.Title,
		Verses:      req.Verses,
		Chorus:      req.Chorus,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// GetMySubmissions godoc
// @Summary List the caller's submissions
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.HymnSubmission
// @Router /submissions/mine [get]
func (s *Server) GetMySubmissions(c *fiber.Ctx) error {
	subs, err := s.submissionService.ListMine(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(subs)
}

// GetPendingSubmissions godoc
// @Summary Review queue
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.PendingSubmission
// @Failure 403 {object} models.ErrorResponse
// @Router /submissions/pending [get]
func (s *Server) GetPendingSubmissions(c *fiber.Ctx) error {
	items, err := s.submissionService.ListPending(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(items)
}

// GetPendingCount godoc
// @Summary Review queue size
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Failure 403 {object} models.ErrorResponse
// @Router /submissions/pending/count [get]
func (s *Server) GetPendingCount(c *fiber.Ctx) error {
	count, err := s.submissionService.PendingCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// ReviewSubmission godoc
// @Summary Approve or reject a pending submission
// @Tags submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Param request body ReviewRequest true "Decision"
// @Success 200 {object} models.HymnSubmission
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Already reviewed"
// @Router /submissions/{id}/review [post]
func (s *Server) ReviewSubmission(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req ReviewRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	sub, err := s.submissionService.Review(c.UserContext(), service.ReviewInput{
		AdminID:      currentUserID(c),
		SubmissionID: id,
		Action:       req.Action,
		Note:         req.ReviewNote,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(sub)
}
