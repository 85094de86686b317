// Package models contains the persistent domain types of the hymnbook API.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a registered contributor. ApprovedCount is only ever changed by the
// submission store, in the transaction that publishes one of the user's hymns.
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Username      string         `gorm:"size:64;not null;uniqueIndex:idx_users_username,where:deleted_at IS NULL" json:"username"`
	Password      string         `gorm:"not null" json:"-"`
	IsAdmin       bool           `gorm:"not null;default:false" json:"isAdmin"`
	ApprovedCount int            `gorm:"not null;default:0" json:"approvedCount"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"-"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsTrusted reports whether the user's approved contributions reach threshold.
func (u *User) IsTrusted(threshold int) bool {
	return u != nil && u.ApprovedCount >= threshold
}

// SubmitterSummary is the public view of a submitter shown to reviewers.
type SubmitterSummary struct {
	ID            uint   `json:"id"`
	Username      string `json:"username"`
	ApprovedCount int    `json:"approvedCount"`
}

// Summary returns the reviewer facing view of u.
func (u *User) Summary() SubmitterSummary {
	return SubmitterSummary{ID: u.ID, Username: u.Username, ApprovedCount: u.ApprovedCount}
}
