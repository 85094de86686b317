package server

import (
	"hymnbook/internal/models"
	"hymnbook/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetSections godoc
// @Summary Section catalog
// @Tags hymns
// @Produce json
// @Success 200 {array} models.Section
// @Router /sections [get]
func (s *Server) GetSections(c *fiber.Ctx) error {
	return c.JSON(s.submissionService.Sections())
}

// CheckExists godoc
// @Summary Check whether a hymn slot is taken
// @Description Advisory only. Reports approved, then pending, then rejected.
// @Tags hymns
// @Produce json
// @Param sectionId query int true "Section ID"
// @Param language query string true "french or kreyol"
// @Param hymnNumber query int true "Hymn number"
// @Success 200 {object} service.ExistsResult
// @Failure 400 {object} models.ErrorResponse
// @Router /hymns/check-exists [get]
func (s *Server) CheckExists(c *fiber.Ctx) error {
	res, err := s.submissionService.CheckExists(c.UserContext(), service.CheckExistsInput{
		SectionID:  c.QueryInt("sectionId"),
		Language:   c.Query("language"),
		HymnNumber: c.QueryInt("hymnNumber"),
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(res)
}

// ListHymns godoc
// @Summary Published hymns of a section
// @Tags hymns
// @Produce json
// @Param sectionId query int true "Section ID"
// @Param language query string true "french or kreyol"
// @Success 200 {array} models.HymnSubmission
// @Failure 400 {object} models.ErrorResponse
// @Router /hymns [get]
func (s *Server) ListHymns(c *fiber.Ctx) error {
	hymns, err := s.submissionService.ListHymns(c.UserContext(), c.QueryInt("sectionId"), c.Query("language"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(hymns)
}

// GetHymn godoc
// @Summary Published hymn
// @Tags hymns
// @Produce json
// @Param id path int true "Hymn ID"
// @Success 200 {object} models.HymnSubmission
// @Failure 404 {object} models.ErrorResponse
// @Router /hymns/{id} [get]
func (s *Server) GetHymn(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	hymn, err := s.submissionService.GetHymn(c.UserContext(), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(hymn)
}
