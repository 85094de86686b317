package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"hymnbook/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(mr.Addr())
	require.NoError(t, err)
	SetClient(c)
	t.Cleanup(func() {
		SetClient(nil)
		_ = c.Close()
	})
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *models.HymnSubmission) func() error {
		return func() error {
			calls++
			*dest = models.HymnSubmission{ID: 7, Title: "Grand Dieu", Status: models.StatusApproved}
			return nil
		}
	}

	var first models.HymnSubmission
	require.NoError(t, Aside(ctx, HymnKey(7), &first, HymnTTL, fetch(&first)))
	assert.Equal(t, "Grand Dieu", first.Title)
	assert.True(t, mr.Exists(HymnKey(7)))

	var second models.HymnSubmission
	require.NoError(t, Aside(ctx, HymnKey(7), &second, HymnTTL, fetch(&second)))
	assert.Equal(t, "Grand Dieu", second.Title)
	assert.Equal(t, 1, calls)

	mr.FastForward(HymnTTL + time.Second)
	var third models.HymnSubmission
	require.NoError(t, Aside(ctx, HymnKey(7), &third, HymnTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := setupMiniredis(t)
	boom := errors.New("db down")

	var dest models.HymnSubmission
	err := Aside(context.Background(), HymnKey(9), &dest, HymnTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(HymnKey(9)))
}

func TestAside_WithoutRedis(t *testing.T) {
	SetClient(nil)
	calls := 0
	var dest []models.HymnSubmission
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), SectionHymnsKey(context.Background(), 1, models.LanguageFrench), &dest, SectionHymnsTTL, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestInvalidateSection(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()
	key := SectionHymnsKey(ctx, 2, models.LanguageKreyol)
	assert.Equal(t, "section:2:kreyol:v0:hymns", key)

	InvalidateSection(ctx, 2, models.LanguageKreyol)
	assert.Equal(t, "section:2:kreyol:v1:hymns", SectionHymnsKey(ctx, 2, models.LanguageKreyol))
	// Other sections keep their version.
	assert.Equal(t, "section:3:kreyol:v0:hymns", SectionHymnsKey(ctx, 3, models.LanguageKreyol))
}

func TestInvalidateSection_LateWriteIsNotServed(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	// A reader resolves the key and fetches before the approve commits.
	staleKey := SectionHymnsKey(ctx, 4, models.LanguageFrench)
	stale := []models.HymnSubmission{}

	// The approve commits and invalidates.
	InvalidateSection(ctx, 4, models.LanguageFrench)

	// The slow reader now stores the list it read before the commit.
	require.NoError(t, SetJSON(ctx, staleKey, stale, SectionHymnsTTL))

	calls := 0
	var fresh []models.HymnSubmission
	require.NoError(t, Aside(ctx, SectionHymnsKey(ctx, 4, models.LanguageFrench), &fresh, SectionHymnsTTL, func() error {
		calls++
		fresh = []models.HymnSubmission{{ID: 1, Status: models.StatusApproved}}
		return nil
	}))
	assert.Equal(t, 1, calls)
	require.Len(t, fresh, 1)
}

func TestInitRedis_Unreachable(t *testing.T) {
	InitRedis("127.0.0.1:1")
	assert.Nil(t, GetClient())

	InitRedis("redis://%%bad")
	assert.Nil(t, GetClient())

	InitRedis("  ")
	assert.Nil(t, GetClient())
}

func TestFamily(t *testing.T) {
	assert.Equal(t, "hymn", family(HymnKey(1)))
	assert.Equal(t, "section_hymns", family(SectionHymnsKey(context.Background(), 1, models.LanguageFrench)))
	assert.Equal(t, "other", family(RevokedTokenKey("abc")))
}
