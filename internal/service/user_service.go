package service

import (
	"context"
	"log/slog"
	"strings"

	"hymnbook/internal/auth"
	"hymnbook/internal/authz"
	"hymnbook/internal/middleware"
	"hymnbook/internal/models"
	"hymnbook/internal/repository"
	"hymnbook/internal/validation"
)

// UserService covers registration, sessions and admin account management.
type UserService struct {
	userRepo repository.UserRepository
	subRepo  repository.SubmissionRepository
	gate     *authz.Gate
	tokens   *auth.TokenIssuer
}

type RegisterInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

// UserView is the client-facing shape of an account.
type UserView struct {
	ID            uint   `json:"id"`
	Username      string `json:"username"`
	IsAdmin       bool   `json:"isAdmin"`
	ApprovedCount int    `json:"approvedCount"`
	IsTrusted     bool   `json:"isTrusted"`
}

type AuthResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// TrustDrift is a user whose stored approved count disagrees with the number
// of approved submissions attributed to them.
type TrustDrift struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Stored   int    `json:"stored"`
	Actual   int    `json:"actual"`
}

func NewUserService(
	userRepo repository.UserRepository,
	subRepo repository.SubmissionRepository,
	gate *authz.Gate,
	tokens *auth.TokenIssuer,
) *UserService {
	return &UserService{userRepo: userRepo, subRepo: subRepo, gate: gate, tokens: tokens}
}

func (s *UserService) view(u *models.User) UserView {
	return UserView{
		ID:            u.ID,
		Username:      u.Username,
		IsAdmin:       u.IsAdmin,
		ApprovedCount: u.ApprovedCount,
		IsTrusted:     u.IsTrusted(s.gate.Threshold()),
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username already exists")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{Username: username, Password: hash}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered", slog.Uint64("user_id", uint64(user.ID)))
	return s.issue(user)
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.Password, in.Password) {
		return nil, models.NewUnauthenticatedError("Invalid credentials")
	}
	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, _, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: s.view(user)}, nil
}

// Me returns the caller's account with trust freshly derived.
func (s *UserService) Me(ctx context.Context, userID uint) (*UserView, error) {
	caller, err := s.gate.RequireAuthenticated(ctx, userID)
	if err != nil {
		return nil, err
	}
	v := s.view(caller.User)
	return &v, nil
}

// Logout revokes the presented token. Anonymous logout succeeds.
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return nil
	}
	if err := auth.Revoke(ctx, claims); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteAccount soft-deletes the caller after re-checking their password.
// Their submissions stay attributed.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint, password string) error {
	caller, err := s.gate.RequireAuthenticated(ctx, userID)
	if err != nil {
		return err
	}
	if password == "" {
		return models.NewValidationError("Password is required")
	}
	if !auth.CheckPassword(caller.User.Password, password) {
		return models.NewUnauthenticatedError("Incorrect password")
	}
	if err := s.userRepo.Delete(ctx, caller.ID()); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "account deleted", slog.Uint64("user_id", uint64(caller.ID())))
	return nil
}

// SetAdminByUsername grants or revokes the admin flag. It is an operator
// action and performs no caller check.
func (s *UserService) SetAdminByUsername(ctx context.Context, username string, isAdmin bool) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	if err := s.userRepo.SetAdmin(ctx, user.ID, isAdmin); err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin
	middleware.Logger.InfoContext(ctx, "admin flag changed",
		slog.Uint64("user_id", uint64(user.ID)), slog.Bool("is_admin", isAdmin))
	return user, nil
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListAdmins(ctx)
}

// EnsureAdmin creates username as an admin, or promotes it when it exists.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (*models.User, error) {
	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.IsAdmin {
			return existing, nil
		}
		return s.SetAdminByUsername(ctx, username, true)
	}

	if err := validation.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{Username: username, Password: hash, IsAdmin: true}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

const auditPageSize = 500

// AuditTrust compares every live user's approved count with their approved
// submissions and returns the mismatches.
func (s *UserService) AuditTrust(ctx context.Context) ([]TrustDrift, error) {
	actual, err := s.subRepo.CountApprovedBySubmitter(ctx)
	if err != nil {
		return nil, err
	}

	drifts := []TrustDrift{}
	for offset := 0; ; offset += auditPageSize {
		users, err := s.userRepo.List(ctx, auditPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			if u.ApprovedCount != actual[u.ID] {
				drifts = append(drifts, TrustDrift{
					UserID:   u.ID,
					Username: u.Username,
					Stored:   u.ApprovedCount,
					Actual:   actual[u.ID],
				})
			}
		}
		if len(users) < auditPageSize {
			break
		}
	}
	return drifts, nil
}
