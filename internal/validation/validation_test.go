package validation

import (
	"strings"
	"sync"
	"testing"

	"hymnbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "cantique", false},
		{"Exactly Min Length", "abcdef", false},
		{"Too Short", "abc12", true},
		{"Exactly Max Bytes", strings.Repeat("a", 72), false},
		{"Too Long", strings.Repeat("a", 73), true},
		{"Unicode Counts Runes", "éèêëàâ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "frere_jean", false},
		{"Too Short", "fj", true},
		{"Too Long", strings.Repeat("a", 31), true},
		{"Illegal Chars", "jean@eglise", true},
		{"Starts Dash", "-jean", true},
		{"Ends Underscore", "jean_", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func validSubmission() HymnSubmission {
	return HymnSubmission{
		SectionID:   1,
		SectionName: "Chants d'Espérance",
		Language:    "french",
		HymnNumber:  28,
		Title:       "  À toi la gloire  ",
		Verses:      "Verse 1:\nÀ toi la gloire, ô Ressuscité",
	}
}

func TestHymnSubmission_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*HymnSubmission)
		want   string
	}{
		{"zero section", func(h *HymnSubmission) { h.SectionID = 0 }, "sectionId"},
		{"unknown language", func(h *HymnSubmission) { h.Language = "english" }, "language"},
		{"negative number", func(h *HymnSubmission) { h.HymnNumber = -1 }, "hymnNumber"},
		{"blank title", func(h *HymnSubmission) { h.Title = "   " }, "title is required"},
		{"blank verses", func(h *HymnSubmission) { h.Verses = "\n\n" }, "verses are required"},
		{"long title", func(h *HymnSubmission) { h.Title = strings.Repeat("t", MaxTitleLength+1) }, "title must not exceed"},
		{"long section name", func(h *HymnSubmission) { h.SectionName = strings.Repeat("é", MaxSectionNameLen+1) }, "sectionName must not exceed"},
		{"long chorus", func(h *HymnSubmission) {
			c := strings.Repeat("c", MaxChorusLength+1)
			h.Chorus = &c
		}, "chorus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validSubmission()
			tt.mutate(&h)
			err := h.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestHymnSubmission_ValidateAtColumnLimits(t *testing.T) {
	t.Parallel()
	h := validSubmission()
	h.SectionName = strings.Repeat("é", MaxSectionNameLen)
	h.Title = strings.Repeat("t", MaxTitleLength)
	assert.NoError(t, h.Validate())
}

// Every accepted length must fit the varchar columns, or PostgreSQL rejects
// the insert after validation passed.
func TestLengthLimitsFitColumns(t *testing.T) {
	t.Parallel()
	s, err := schema.Parse(&models.HymnSubmission{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	limits := map[string]int{
		"section_name": MaxSectionNameLen,
		"title":        MaxTitleLength,
	}
	for column, limit := range limits {
		field := s.LookUpField(column)
		require.NotNil(t, field, column)
		require.Positive(t, field.Size, column)
		assert.LessOrEqual(t, limit, field.Size, column)
	}
}

func TestHymnSubmission_ValidateTrims(t *testing.T) {
	t.Parallel()
	h := validSubmission()
	blank := "   "
	h.Chorus = &blank

	require.NoError(t, h.Validate())
	assert.Equal(t, "À toi la gloire", h.Title)
	assert.Nil(t, h.Chorus)

	chorus := " Gloire! "
	h.Chorus = &chorus
	require.NoError(t, h.Validate())
	require.NotNil(t, h.Chorus)
	assert.Equal(t, "Gloire!", *h.Chorus)
}

func TestValidateReviewNote(t *testing.T) {
	t.Parallel()
	note, err := ValidateReviewNote(nil)
	require.NoError(t, err)
	assert.Nil(t, note)

	blank := "  "
	note, err = ValidateReviewNote(&blank)
	require.NoError(t, err)
	assert.Nil(t, note)

	text := " Merci "
	note, err = ValidateReviewNote(&text)
	require.NoError(t, err)
	assert.Equal(t, "Merci", *note)

	long := strings.Repeat("n", MaxReviewNoteLength+1)
	_, err = ValidateReviewNote(&long)
	assert.Error(t, err)
}
