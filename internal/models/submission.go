package models

import "time"

// SubmissionStatus is the lifecycle state of a hymn submission.
type SubmissionStatus string

const (
	// StatusPending indicates the submission is awaiting review.
	StatusPending SubmissionStatus = "pending"
	// StatusApproved indicates the hymn is published. Terminal.
	StatusApproved SubmissionStatus = "approved"
	// StatusRejected indicates a reviewer declined the submission. Terminal.
	StatusRejected SubmissionStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Language is the language a hymn section is written in.
type Language string

const (
	LanguageFrench Language = "french"
	LanguageKreyol Language = "kreyol"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == LanguageFrench || l == LanguageKreyol
}

// ReviewAction is the decision an admin takes on a pending submission.
type ReviewAction string

const (
	ActionApprove ReviewAction = "approve"
	ActionReject  ReviewAction = "reject"
)

// Valid reports whether a is approve or reject.
func (a ReviewAction) Valid() bool {
	return a == ActionApprove || a == ActionReject
}

// Status is the status a submission ends in after a.
func (a ReviewAction) Status() SubmissionStatus {
	if a == ActionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// HymnSubmission is a contributed hymn. The (SectionID, Language, HymnNumber)
// slot holds at most one pending and at most one approved row; the database
// enforces this with the uniq_hymn_submissions_active partial index.
type HymnSubmission struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	SectionID   int              `gorm:"not null;index:idx_hymn_submissions_slot,priority:1" json:"sectionId"`
	SectionName string           `gorm:"size:120;not null" json:"sectionName"`
	Language    Language         `gorm:"type:varchar(16);not null;index:idx_hymn_submissions_slot,priority:2" json:"language"`
	HymnNumber  int              `gorm:"not null;index:idx_hymn_submissions_slot,priority:3" json:"hymnNumber"`
	Title       string           `gorm:"size:255;not null" json:"title"`
	Verses      string           `gorm:"type:text;not null" json:"verses"`
	Chorus      *string          `gorm:"type:text" json:"chorus"`
	SubmittedBy uint             `gorm:"not null;index" json:"submittedBy"`
	Submitter   *User            `gorm:"foreignKey:SubmittedBy" json:"-"`
	Status      SubmissionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedBy  *uint            `json:"reviewedBy"`
	ReviewNote  *string          `gorm:"type:text" json:"reviewNote"`
	CreatedAt   time.Time        `json:"createdAt"`
	ReviewedAt  *time.Time       `json:"reviewedAt"`
}

// TableName pins the table name used by the SQL migrations.
func (HymnSubmission) TableName() string {
	return "hymn_submissions"
}

// PendingSubmission pairs a queued submission with its submitter for reviewers.
type PendingSubmission struct {
	Submission HymnSubmission   `json:"submission"`
	Submitter  SubmitterSummary `json:"submitter"`
}

// Section is an entry of the static hymn section catalog.
type Section struct {
	ID            int      `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	NameFull      string   `yaml:"name_full" json:"nameFull"`
	Description   string   `yaml:"description" json:"description"`
	HymnCount     int      `yaml:"hymn_count" json:"hymnCount"`
	Language      Language `yaml:"language" json:"language"`
	ParentSection string   `yaml:"parent_section,omitempty" json:"parentSection,omitempty"`
}
