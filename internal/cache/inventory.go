package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hymnbook/internal/models"
)

const (
	HymnKeyPrefix      = "hymn:%d"
	SectionHymnsPrefix = "section:%d:%s:v%d:hymns"
	SectionVerPrefix   = "section:%d:%s:ver"
	RevokedTokenPrefix = "blacklist:%s"
)

const (
	// HymnTTL is long because approved submissions never change.
	HymnTTL         = 24 * time.Hour
	SectionHymnsTTL = 10 * time.Minute
)

func HymnKey(id uint) string {
	return fmt.Sprintf(HymnKeyPrefix, id)
}

// SectionHymnsKey returns the key of the published hymn list of a section at
// its current version. Lists cached under an older version are never read again.
func SectionHymnsKey(ctx context.Context, sectionID int, lang models.Language) string {
	return fmt.Sprintf(SectionHymnsPrefix, sectionID, lang, sectionVersion(ctx, sectionID, lang))
}

func sectionVersionKey(sectionID int, lang models.Language) string {
	return fmt.Sprintf(SectionVerPrefix, sectionID, lang)
}

func sectionVersion(ctx context.Context, sectionID int, lang models.Language) int64 {
	if client == nil {
		return 0
	}
	v, err := client.Get(ctx, sectionVersionKey(sectionID, lang)).Int64()
	if err != nil {
		return 0
	}
	return v
}

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenPrefix, jti)
}

// InvalidateSection moves a section to a new list version. A reader that
// fetched the list before the write commits stores it under the old version.
func InvalidateSection(ctx context.Context, sectionID int, lang models.Language) {
	if client != nil {
		client.Incr(ctx, sectionVersionKey(sectionID, lang))
	}
}

// family labels a key for the lookup metrics.
func family(key string) string {
	switch {
	case strings.HasPrefix(key, "hymn:"):
		return "hymn"
	case strings.HasPrefix(key, "section:"):
		return "section_hymns"
	default:
		return "other"
	}
}
