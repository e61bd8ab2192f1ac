package auth

import (
	"strings"

	"github.com/FACorreiaa/shophub-api/internal/types"
)

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Email     string `json:"email" validate:"required,email" message:"Please enter a valid email" example:"jane@example.com"`
	Username  string `json:"username" validate:"min=3" message:"Username must be at least 3 characters" example:"jane"`
	Password  string `json:"password" validate:"min=6,max_bytes=72" message:"Password must be at least 6 characters" message_max_bytes:"Password must be at most 72 bytes" example:"secret123"`
	Firstname string `json:"firstname" validate:"required" message:"First name is required" example:"Jane"`
	Lastname  string `json:"lastname" validate:"required" message:"Last name is required" example:"Doe"`
	Phone     string `json:"phone,omitempty" example:"+351 912 345 678"`
}

// Normalize trims the display fields and lowercases the email.
func (r *SignupRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Username = strings.TrimSpace(r.Username)
	r.Firstname = strings.TrimSpace(r.Firstname)
	r.Lastname = strings.TrimSpace(r.Lastname)
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r *SignupRequest) params() SignupParams {
	return SignupParams{
		Email:     r.Email,
		Username:  r.Username,
		Password:  r.Password,
		Firstname: r.Firstname,
		Lastname:  r.Lastname,
		Phone:     r.Phone,
	}
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" message:"Please enter a valid email" example:"jane@example.com"`
	Password string `json:"password" validate:"required" message:"Password is required" example:"secret123"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type SignupResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Token     string `json:"token"`
}

type LoginResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Phone     string `json:"phone"`
	Token     string `json:"token"`
}

type ProfileName struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

type ProfileResponse struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Username string         `json:"username"`
	Name     ProfileName    `json:"name"`
	Phone    string         `json:"phone"`
	Address  *types.Address `json:"address"`
}

func newSignupResponse(a *types.AuthenticatedUser) SignupResponse {
	return SignupResponse{
		ID:        a.User.ID,
		Email:     a.User.Email,
		Username:  a.User.Username,
		Firstname: a.User.Firstname,
		Lastname:  a.User.Lastname,
		Token:     a.Token,
	}
}

func newLoginResponse(a *types.AuthenticatedUser) LoginResponse {
	return LoginResponse{
		ID:        a.User.ID,
		Email:     a.User.Email,
		Username:  a.User.Username,
		Firstname: a.User.Firstname,
		Lastname:  a.User.Lastname,
		Phone:     a.User.Phone,
		Token:     a.Token,
	}
}

func newProfileResponse(u *types.UserAuth) ProfileResponse {
	return ProfileResponse{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Name:     ProfileName{Firstname: u.Firstname, Lastname: u.Lastname},
		Phone:    u.Phone,
		Address:  u.Address,
	}
}
