package notifications

import (
	"encoding/json"
	"time"

	"hymnbook/internal/models"
)

const (
	EventSubmissionCreated  = "submission.created"
	EventSubmissionReviewed = "submission.reviewed"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SubmissionPayload is the submission summary carried by feed events.
type SubmissionPayload struct {
	SubmissionID uint                    `json:"submissionId"`
	SectionID    int                     `json:"sectionId"`
	Language     models.Language         `json:"language"`
	HymnNumber   int                     `json:"hymnNumber"`
	Title        string                  `json:"title"`
	Status       models.SubmissionStatus `json:"status"`
	SubmittedBy  uint                    `json:"submittedBy"`
	ReviewedBy   *uint                   `json:"reviewedBy,omitempty"`
	ReviewNote   *string                 `json:"reviewNote,omitempty"`
	ReviewedAt   *time.Time              `json:"reviewedAt,omitempty"`
}

func payloadFor(sub *models.HymnSubmission) SubmissionPayload {
	return SubmissionPayload{
		SubmissionID: sub.ID,
		SectionID:    sub.SectionID,
		Language:     sub.Language,
		HymnNumber:   sub.HymnNumber,
		Title:        sub.Title,
		Status:       sub.Status,
		SubmittedBy:  sub.SubmittedBy,
		ReviewedBy:   sub.ReviewedBy,
		ReviewNote:   sub.ReviewNote,
		ReviewedAt:   sub.ReviewedAt,
	}
}

func encodeEvent(eventType string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(Event{Type: eventType, Payload: raw})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
