package types

import "time"

// Address is an optional postal address attached to a user profile.
type Address struct {
	Street  string `json:"street,omitempty" bson:"street,omitempty"`
	Number  string `json:"number,omitempty" bson:"number,omitempty"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
	Zipcode string `json:"zipcode,omitempty" bson:"zipcode,omitempty"`
}

// IsZero reports whether no address field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// UserAuth is the stored user record. PasswordHash never leaves the server.
type UserAuth struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Firstname    string    `json:"firstname"`
	Lastname     string    `json:"lastname"`
	Phone        string    `json:"phone"`
	Address      *Address  `json:"address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUserParams carries the fields persisted at signup.
type NewUserParams struct {
	Email        string
	Username     string
	PasswordHash string
	Firstname    string
	Lastname     string
	Phone        string
}

// AuthenticatedUser is returned by signup and login.
type AuthenticatedUser struct {
	User  *UserAuth
	Token string
}
