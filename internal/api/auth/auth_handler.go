package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/shophub-api/internal/api"
	"github.com/FACorreiaa/shophub-api/internal/types"
)

const invalidCredentialsMessage = "Invalid email or password"

type HandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
}

func NewAuthHandlerImpl(authService AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		authService: authService,
		logger:      logger,
	}
}

// Signup godoc
// @Summary      Register a new user
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body SignupRequest true "New user"
// @Success      201 {object} SignupResponse
// @Failure      400 {object} api.ValidationResponse
// @Failure      409 {object} api.MessageResponse
// @Failure      500 {object} api.MessageResponse
// @Router       /auth/signup [post]
func (h *HandlerImpl) Signup(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Signup", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/auth/signup"),
	))
	defer span.End()
	r = r.WithContext(ctx)
	l := h.logger.With(slog.String("handler", "Signup"))

	var req SignupRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid request format: %s", err.Error()))
		return
	}
	req.Normalize()
	if !h.validate(w, r, &req) {
		span.SetStatus(codes.Error, "validation failed")
		return
	}

	result, err := h.authService.Signup(ctx, req.params())
	if err != nil {
		var conflict *types.ConflictError
		if errors.As(err, &conflict) {
			span.SetStatus(codes.Error, "conflict")
			api.ErrorResponse(w, r, http.StatusConflict, conflict.Message())
			return
		}
		l.ErrorContext(ctx, "Signup failed", slog.Any("error", err))
		span.SetStatus(codes.Error, "signup failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Server error")
		return
	}

	span.SetStatus(codes.Ok, "created")
	api.WriteJSONResponse(w, r, http.StatusCreated, newSignupResponse(result))
}

// Login godoc
// @Summary      Log in with email and password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body LoginRequest true "Credentials"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} api.ValidationResponse
// @Failure      401 {object} api.MessageResponse
// @Failure      500 {object} api.MessageResponse
// @Router       /auth/login [post]
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Login", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/auth/login"),
	))
	defer span.End()
	r = r.WithContext(ctx)
	l := h.logger.With(slog.String("handler", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid request format: %s", err.Error()))
		return
	}
	req.Normalize()
	if !h.validate(w, r, &req) {
		span.SetStatus(codes.Error, "validation failed")
		return
	}

	result, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, types.ErrInvalidCredentials) {
			span.SetStatus(codes.Error, "invalid credentials")
			api.ErrorResponse(w, r, http.StatusUnauthorized, invalidCredentialsMessage)
			return
		}
		l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
		span.SetStatus(codes.Error, "login failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Server error")
		return
	}

	span.SetStatus(codes.Ok, "logged in")
	api.WriteJSONResponse(w, r, http.StatusOK, newLoginResponse(result))
}

// Profile godoc
// @Summary      Current user's profile
// @Tags         Auth
// @Produce      json
// @Success      200 {object} ProfileResponse
// @Failure      401 {object} api.MessageResponse
// @Failure      404 {object} api.MessageResponse
// @Security     BearerAuth
// @Router       /auth/profile [get]
func (h *HandlerImpl) Profile(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Profile", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/auth/profile"),
	))
	defer span.End()
	r = r.WithContext(ctx)
	l := h.logger.With(slog.String("handler", "Profile"))

	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "no identity in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, UnauthorizedMessage)
		return
	}

	user, err := h.authService.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "user not found")
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
			return
		}
		l.ErrorContext(ctx, "Failed to load profile", slog.Any("error", err))
		span.SetStatus(codes.Error, "profile failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Server error")
		return
	}

	span.SetStatus(codes.Ok, "profile loaded")
	api.WriteJSONResponse(w, r, http.StatusOK, newProfileResponse(user))
}

func (h *HandlerImpl) validate(w http.ResponseWriter, r *http.Request, req any) bool {
	err := api.Validate(req)
	if err == nil {
		return true
	}
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		api.ValidationErrorResponse(w, r, verr)
		return false
	}
	h.logger.ErrorContext(r.Context(), "Validator failed", slog.Any("error", err))
	api.ErrorResponse(w, r, http.StatusInternalServerError, "Server error")
	return false
}
