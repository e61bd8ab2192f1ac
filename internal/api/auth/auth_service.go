package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/shophub-api/app/observability/metrics"
	"github.com/FACorreiaa/shophub-api/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService is the authentication contract used by the handlers and the
// Authenticate middleware. Inputs are expected to be validated already.
type AuthService interface {
	// Signup creates a user and returns it with a fresh token.
	// Duplicate email or username yields a *types.ConflictError.
	Signup(ctx context.Context, params SignupParams) (*types.AuthenticatedUser, error)
	// Login returns types.ErrInvalidCredentials for an unknown email and for a
	// wrong password alike.
	Login(ctx context.Context, email, password string) (*types.AuthenticatedUser, error)
	// GetProfile returns types.ErrNotFound when the user no longer exists.
	GetProfile(ctx context.Context, userID string) (*types.UserAuth, error)
	// Authenticate verifies a bearer token and re-resolves its subject in the
	// store. Any failure to do so is types.ErrUnauthenticated.
	Authenticate(ctx context.Context, token string) (*types.UserAuth, error)
}

// SignupParams are the normalized signup fields.
type SignupParams struct {
	Email     string
	Username  string
	Password  string
	Firstname string
	Lastname  string
	Phone     string
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewAuthService(repo UserRepo, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
	}
}

func (s *AuthServiceImpl) Signup(ctx context.Context, params SignupParams) (result *types.AuthenticatedUser, err error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Signup")
	defer span.End()
	start := time.Now()
	defer func() { metrics.Get().RecordSignup(ctx, outcome(err), time.Since(start)) }()

	l := s.logger.With(slog.String("method", "Signup"))

	existing, err := s.repo.FindByEmailOrUsername(ctx, params.Email, params.Username)
	switch {
	case err == nil:
		field := "username"
		if existing.Email == params.Email {
			field = "email"
		}
		l.InfoContext(ctx, "Signup rejected, duplicate field", slog.String("field", field))
		span.SetStatus(codes.Error, "conflict")
		return nil, &types.ConflictError{Field: field}
	case !errors.Is(err, types.ErrNotFound):
		return nil, s.fail(ctx, span, l, "Failed to check existing user", err)
	}

	digest, err := s.hasher.Hash(ctx, params.Password)
	if err != nil {
		return nil, s.fail(ctx, span, l, "Failed to hash password", err)
	}

	user, err := s.repo.CreateUser(ctx, types.NewUserParams{
		Email:        params.Email,
		Username:     params.Username,
		PasswordHash: digest,
		Firstname:    params.Firstname,
		Lastname:     params.Lastname,
		Phone:        params.Phone,
	})
	if err != nil {
		var conflict *types.ConflictError
		if errors.As(err, &conflict) {
			// lost a race against a concurrent signup; the store caught it
			l.InfoContext(ctx, "Signup rejected by store uniqueness", slog.String("field", conflict.Field))
			span.SetStatus(codes.Error, "conflict")
			return nil, conflict
		}
		return nil, s.fail(ctx, span, l, "Failed to create user", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, s.fail(ctx, span, l, "Failed to issue token", err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	span.SetStatus(codes.Ok, "user created")
	l.InfoContext(ctx, "User signed up", slog.String("userID", user.ID))
	return &types.AuthenticatedUser{User: user, Token: token}, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (result *types.AuthenticatedUser, err error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()
	start := time.Now()
	defer func() { metrics.Get().RecordLogin(ctx, outcome(err), time.Since(start)) }()

	l := s.logger.With(slog.String("method", "Login"))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, types.ErrNotFound) {
		s.hasher.Burn(ctx, password)
		l.InfoContext(ctx, "Login failed")
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, types.ErrInvalidCredentials
	}
	if err != nil {
		return nil, s.fail(ctx, span, l, "Failed to look up user", err)
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, s.fail(ctx, span, l, "Failed to verify password", err)
	}
	if !ok {
		l.InfoContext(ctx, "Login failed")
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, types.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, s.fail(ctx, span, l, "Failed to issue token", err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	span.SetStatus(codes.Ok, "logged in")
	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID))
	return &types.AuthenticatedUser{User: user, Token: token}, nil
}

func (s *AuthServiceImpl) GetProfile(ctx context.Context, userID string) (*types.UserAuth, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "GetProfile", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "profile lookup failed")
		return nil, fmt.Errorf("get profile: %w", err)
	}
	span.SetStatus(codes.Ok, "profile loaded")
	return user, nil
}

func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*types.UserAuth, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Authenticate")
	defer span.End()

	userID, err := s.tokens.Verify(token)
	if err != nil {
		metrics.Get().RecordAuthFailure(ctx, tokenFailureReason(err))
		span.SetStatus(codes.Error, "token rejected")
		return nil, fmt.Errorf("%w: %w", types.ErrUnauthenticated, err)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, types.ErrNotFound) {
		metrics.Get().RecordAuthFailure(ctx, "user_not_found")
		span.SetStatus(codes.Error, "subject not found")
		return nil, fmt.Errorf("%w: %w", types.ErrUnauthenticated, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "subject lookup failed")
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	span.SetStatus(codes.Ok, "authenticated")
	return user, nil
}

func (s *AuthServiceImpl) fail(ctx context.Context, span trace.Span, l *slog.Logger, msg string, err error) error {
	l.ErrorContext(ctx, msg, slog.Any("error", err))
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return fmt.Errorf("%s: %w", msg, err)
}

func outcome(err error) string {
	var conflict *types.ConflictError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &conflict):
		return "conflict"
	case errors.Is(err, types.ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, types.ErrTokenExpired):
		return "expired"
	case errors.Is(err, types.ErrTokenInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}
