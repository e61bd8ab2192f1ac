package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	database "github.com/FACorreiaa/shophub-api/app/db"
	"github.com/FACorreiaa/shophub-api/app/observability/metrics"
	"github.com/FACorreiaa/shophub-api/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo is the credential store. Implementations MUST reject a second
// user with the same email or username with a *types.ConflictError, whatever
// the caller checked beforehand.
type UserRepo interface {
	// FindByEmailOrUsername returns a user matching either field, or types.ErrNotFound.
	FindByEmailOrUsername(ctx context.Context, email, username string) (*types.UserAuth, error)
	GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error)
	GetUserByID(ctx context.Context, userID string) (*types.UserAuth, error)
	CreateUser(ctx context.Context, params types.NewUserParams) (*types.UserAuth, error)
}

const userColumns = `id::text, email, username, password_hash, firstname, lastname, phone, address, created_at, updated_at`

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool database.Querier
}

func NewPostgresUserRepo(pgpool database.Querier, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresUserRepo) FindByEmailOrUsername(ctx context.Context, email, username string) (*types.UserAuth, error) {
	// email first, so the caller reports the email collision when both match
	return r.queryOne(ctx, "FindByEmailOrUsername",
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $2
		 ORDER BY (email = $1) DESC LIMIT 1`, email, username)
}

func (r *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error) {
	return r.queryOne(ctx, "GetUserByEmail", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID string) (*types.UserAuth, error) {
	if !isUUID(userID) {
		return nil, types.ErrNotFound
	}
	return r.queryOne(ctx, "GetUserByID", `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

func (r *PostgresUserRepo) CreateUser(ctx context.Context, params types.NewUserParams) (*types.UserAuth, error) {
	start := time.Now()
	row := r.pgpool.QueryRow(ctx,
		`INSERT INTO users (email, username, password_hash, firstname, lastname, phone)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		params.Email, params.Username, params.PasswordHash, params.Firstname, params.Lastname, params.Phone)

	user, err := scanUser(row)
	metrics.Get().RecordQuery(ctx, "users.create", time.Since(start), err)
	if err != nil {
		if constraint, ok := database.IsUniqueViolation(err); ok {
			return nil, conflictFromConstraint(constraint)
		}
		r.logger.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) queryOne(ctx context.Context, op, query string, args ...any) (*types.UserAuth, error) {
	start := time.Now()
	user, err := scanUser(r.pgpool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.Get().RecordQuery(ctx, "users."+op, time.Since(start), nil)
		return nil, types.ErrNotFound
	}
	metrics.Get().RecordQuery(ctx, "users."+op, time.Since(start), err)
	if err != nil {
		r.logger.ErrorContext(ctx, "User query failed", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: query failed: %w", op, err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*types.UserAuth, error) {
	var (
		u       types.UserAuth
		address []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Firstname, &u.Lastname,
		&u.Phone, &address, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(address) > 0 && string(address) != "null" {
		var a types.Address
		if err := json.Unmarshal(address, &a); err != nil {
			return nil, fmt.Errorf("decode address: %w", err)
		}
		u.Address = &a
	}
	return &u, nil
}

func conflictFromConstraint(constraint string) error {
	switch {
	case strings.Contains(constraint, "email"):
		return &types.ConflictError{Field: "email"}
	case strings.Contains(constraint, "username"):
		return &types.ConflictError{Field: "username"}
	default:
		return &types.ConflictError{Field: "user"}
	}
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
