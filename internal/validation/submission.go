package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"hymnbook/internal/models"
)

const (
	MaxTitleLength      = 200
	MaxVersesLength     = 20000
	MaxChorusLength     = 5000
	MaxSectionNameLen   = 120
	MaxReviewNoteLength = 1000
)

// HymnSubmission holds the fields a contributor sends for a new hymn.
// Title, verses and chorus are trimmed in place.
type HymnSubmission struct {
	SectionID   int
	SectionName string
	Language    string
	HymnNumber  int
	Title       string
	Verses      string
	Chorus      *string
}

// Validate reports the first rule h breaks.
func (h *HymnSubmission) Validate() error {
	h.SectionName = strings.TrimSpace(h.SectionName)
	h.Title = strings.TrimSpace(h.Title)
	h.Verses = strings.TrimSpace(h.Verses)
	if h.Chorus != nil {
		chorus := strings.TrimSpace(*h.Chorus)
		if chorus == "" {
			h.Chorus = nil
		} else {
			h.Chorus = &chorus
		}
	}

	switch {
	case h.SectionID <= 0:
		return fmt.Errorf("sectionId must be a positive integer")
	case !models.Language(h.Language).Valid():
		return fmt.Errorf("language must be french or kreyol")
	case h.HymnNumber <= 0:
		return fmt.Errorf("hymnNumber must be a positive integer")
	case h.Title == "":
		return fmt.Errorf("title is required")
	case h.Verses == "":
		return fmt.Errorf("verses are required")
	case utf8.RuneCountInString(h.Title) > MaxTitleLength:
		return fmt.Errorf("title must not exceed %d characters", MaxTitleLength)
	case utf8.RuneCountInString(h.SectionName) > MaxSectionNameLen:
		return fmt.Errorf("sectionName must not exceed %d characters", MaxSectionNameLen)
	case utf8.RuneCountInString(h.Verses) > MaxVersesLength:
		return fmt.Errorf("verses must not exceed %d characters", MaxVersesLength)
	case h.Chorus != nil && utf8.RuneCountInString(*h.Chorus) > MaxChorusLength:
		return fmt.Errorf("chorus must not exceed %d characters", MaxChorusLength)
	}
	return nil
}

// ValidateReviewNote trims note and drops it when blank.
func ValidateReviewNote(note *string) (*string, error) {
	if note == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > MaxReviewNoteLength {
		return nil, fmt.Errorf("note must not exceed %d characters", MaxReviewNoteLength)
	}
	return &trimmed, nil
}
