// Package bootstrap wires configuration, storage and services for the
// server and the operations CLI.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hymnbook/internal/auth"
	"hymnbook/internal/authz"
	"hymnbook/internal/cache"
	"hymnbook/internal/catalog"
	"hymnbook/internal/config"
	"hymnbook/internal/database"
	"hymnbook/internal/middleware"
	"hymnbook/internal/notifications"
	"hymnbook/internal/repository"
	"hymnbook/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs ApplySchema after connecting. Migration commands
	// leave it off and drive the schema themselves.
	ApplySchema bool
}

// InitRuntime connects to the database and Redis. A nil Redis client means
// the service runs without cache, revocation and live feed.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, nil, fmt.Errorf("schema apply failed: %w", err)
		}
	}

	cache.InitRedis(cfg.RedisURL)
	return db, cache.GetClient(), nil
}

// Services is the wired application graph.
type Services struct {
	UserRepo       repository.UserRepository
	SubmissionRepo repository.SubmissionRepository
	Gate           *authz.Gate
	Tokens         *auth.TokenIssuer
	Sections       *catalog.Catalog
	// Notifier is nil without Redis.
	Notifier    *notifications.Notifier
	Users       *service.UserService
	Submissions *service.SubmissionService
}

// NewServices builds repositories and services over db. rdb may be nil.
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Services, error) {
	sections, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("load section catalog: %w", err)
	}
	cache.SetClient(rdb)

	ttl := time.Duration(cfg.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	s := &Services{
		UserRepo:       repository.NewUserRepository(db),
		SubmissionRepo: repository.NewSubmissionRepository(db),
		Tokens:         auth.NewTokenIssuer(cfg.JWTSecret, ttl),
		Sections:       sections,
	}
	s.Gate = authz.NewGate(s.UserRepo, cfg.TrustedThreshold)

	var events service.EventPublisher
	if rdb != nil {
		s.Notifier = notifications.NewNotifier(rdb)
		events = s.Notifier
	}

	s.Submissions = service.NewSubmissionService(s.SubmissionRepo, s.Gate, sections, events)
	s.Users = service.NewUserService(s.UserRepo, s.SubmissionRepo, s.Gate, s.Tokens)
	return s, nil
}

// EnsureDevAdmin creates or promotes the configured admin account. It only
// acts in development with DEV_BOOTSTRAP_ADMIN enabled.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, users *service.UserService) error {
	if cfg == nil || users == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	username := strings.TrimSpace(cfg.DevAdminUsername)
	if username == "" {
		username = "admin"
	}
	if cfg.DevAdminPassword == "" {
		return fmt.Errorf("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	admin, err := users.EnsureAdmin(ctx, username, cfg.DevAdminPassword)
	if err != nil {
		return fmt.Errorf("ensure development admin: %w", err)
	}
	middleware.Logger.InfoContext(ctx, "development admin bootstrap ensured",
		slog.Uint64("user_id", uint64(admin.ID)), slog.String("username", admin.Username))
	return nil
}
