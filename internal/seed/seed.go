// Package seed fills a development database with demo contributors and hymn
// submissions. Everything goes through the services, so approved counts
// stay consistent with the submissions that earned them.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"hymnbook/internal/middleware"
	"hymnbook/internal/models"
	"hymnbook/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Options controls how much data Run creates.
type Options struct {
	Users       int
	Submissions int
	// ReviewRatio is the share of pending submissions the admin reviews.
	ReviewRatio float64
	// ApproveRatio is the share of reviews that approve.
	ApproveRatio float64
	// Seed makes runs reproducible. Zero picks a random seed.
	Seed int64
}

// DefaultOptions returns a small, mixed data set.
func DefaultOptions() Options {
	return Options{Users: 10, Submissions: 60, ReviewRatio: 0.7, ApproveRatio: 0.8}
}

// Result counts what Run created.
type Result struct {
	Users      int `json:"users"`
	Submitted  int `json:"submitted"`
	Published  int `json:"published"`
	Rejected   int `json:"rejected"`
	Duplicates int `json:"duplicates"`
}

// Seeder drives the account and submission services with fake data.
type Seeder struct {
	users       *service.UserService
	submissions *service.SubmissionService
}

func NewSeeder(users *service.UserService, submissions *service.SubmissionService) *Seeder {
	return &Seeder{users: users, submissions: submissions}
}

var usernameCleaner = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Run registers contributors, submits hymns in their name and reviews part of
// the queue as adminID.
func (s *Seeder) Run(ctx context.Context, adminID uint, opts Options) (*Result, error) {
	faker := gofakeit.New(opts.Seed)
	res := &Result{}

	contributors := make([]uint, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		username := fakeUsername(faker, i)
		auth, err := s.users.Register(ctx, service.RegisterInput{Username: username, Password: DefaultPassword})
		if errors.Is(err, models.ErrConflict) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("register %s: %w", username, err)
		}
		contributors = append(contributors, auth.User.ID)
		res.Users++
	}
	if len(contributors) == 0 {
		return res, nil
	}

	sections := s.submissions.Sections()
	var queue []uint
	for i := 0; i < opts.Submissions; i++ {
		section := sections[faker.Number(0, len(sections)-1)]
		maxNumber := section.HymnCount
		if maxNumber <= 0 {
			maxNumber = 100
		}

		in := service.SubmitInput{
			CallerID:   contributors[faker.Number(0, len(contributors)-1)],
			SectionID:  section.ID,
			Language:   string(section.Language),
			HymnNumber: faker.Number(1, maxNumber),
			Title:      strings.TrimSuffix(faker.Sentence(faker.Number(2, 5)), "."),
			Verses:     fakeVerses(faker),
		}
		if faker.Bool() {
			chorus := faker.Sentence(8)
			in.Chorus = &chorus
		}

		out, err := s.submissions.Submit(ctx, in)
		if errors.Is(err, models.ErrDuplicate) {
			res.Duplicates++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("submit hymn: %w", err)
		}
		res.Submitted++
		if out.AutoApproved {
			res.Published++
		} else {
			queue = append(queue, out.Submission.ID)
		}
	}

	for _, id := range queue {
		if faker.Float64Range(0, 1) >= opts.ReviewRatio {
			continue
		}
		action := string(models.ActionReject)
		if faker.Float64Range(0, 1) < opts.ApproveRatio {
			action = string(models.ActionApprove)
		}
		sub, err := s.submissions.Review(ctx, service.ReviewInput{AdminID: adminID, SubmissionID: id, Action: action})
		if err != nil {
			return res, fmt.Errorf("review submission %d: %w", id, err)
		}
		if sub.Status == models.StatusApproved {
			res.Published++
		} else {
			res.Rejected++
		}
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		slog.Int("users", res.Users),
		slog.Int("submitted", res.Submitted),
		slog.Int("published", res.Published),
		slog.Int("rejected", res.Rejected),
		slog.Int("duplicates", res.Duplicates),
	)
	return res, nil
}

func fakeUsername(faker *gofakeit.Faker, i int) string {
	name := usernameCleaner.ReplaceAllString(faker.Username(), "")
	name = strings.Trim(name, "_")
	if len(name) > 24 {
		name = name[:24]
	}
	if len(name) < 3 {
		name = "singer"
	}
	return fmt.Sprintf("%s_%d", name, i)
}

func fakeVerses(faker *gofakeit.Faker) string {
	count := faker.Number(2, 4)
	verses := make([]string, count)
	for i := range verses {
		verses[i] = fmt.Sprintf("%d. %s", i+1, faker.Paragraph(1, 4, 6, "\n"))
	}
	return strings.Join(verses, "\n\n")
}
