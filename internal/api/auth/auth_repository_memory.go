package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/shophub-api/internal/types"
)

var _ UserRepo = (*MemoryUserRepo)(nil)

// MemoryUserRepo keeps users in process memory. The uniqueness check and the
// insert happen under one lock, which gives the same guarantee as a unique
// index.
type MemoryUserRepo struct {
	mu         sync.RWMutex
	byID       map[string]*types.UserAuth
	byEmail    map[string]string
	byUsername map[string]string
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:       make(map[string]*types.UserAuth),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func (r *MemoryUserRepo) FindByEmailOrUsername(_ context.Context, email, username string) (*types.UserAuth, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byEmail[email]; ok {
		return clone(r.byID[id]), nil
	}
	if id, ok := r.byUsername[username]; ok {
		return clone(r.byID[id]), nil
	}
	return nil, types.ErrNotFound
}

func (r *MemoryUserRepo) GetUserByEmail(_ context.Context, email string) (*types.UserAuth, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, types.ErrNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryUserRepo) GetUserByID(_ context.Context, userID string) (*types.UserAuth, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[userID]
	if !ok {
		return nil, types.ErrNotFound
	}
	return clone(u), nil
}

func (r *MemoryUserRepo) CreateUser(ctx context.Context, params types.NewUserParams) (*types.UserAuth, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[params.Email]; ok {
		return nil, &types.ConflictError{Field: "email"}
	}
	if _, ok := r.byUsername[params.Username]; ok {
		return nil, &types.ConflictError{Field: "username"}
	}

	now := time.Now().UTC()
	u := &types.UserAuth{
		ID:           uuid.NewString(),
		Email:        params.Email,
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
		Firstname:    params.Firstname,
		Lastname:     params.Lastname,
		Phone:        params.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	r.byUsername[u.Username] = u.ID
	return clone(u), nil
}

// Delete removes a user. The API never deletes users; tests and admin
// tooling do.
func (r *MemoryUserRepo) Delete(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[userID]; ok {
		delete(r.byEmail, u.Email)
		delete(r.byUsername, u.Username)
		delete(r.byID, userID)
	}
}

func clone(u *types.UserAuth) *types.UserAuth {
	c := *u
	if u.Address != nil {
		a := *u.Address
		c.Address = &a
	}
	return &c
}
