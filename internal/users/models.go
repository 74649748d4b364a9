package users

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrBadCredential = errors.New("invalid username or password")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
	ErrInactive      = errors.New("account is deactivated")
	ErrHasOrders     = errors.New("cannot delete user with existing orders")
	ErrIsAdmin       = errors.New("cannot delete admin users")
)

// Address lives on the user profile; orders copy it at checkout.
type Address struct {
	Label    string `json:"label,omitempty"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Line1    string `json:"line1"`
	City     string `json:"city"`
	Province string `json:"province"`
	ZIP      string `json:"zip,omitempty"`
}

type User struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"` // display-facing, USR-%06d
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Gender     string    `json:"gender,omitempty"`
	DOB        string    `json:"dob,omitempty"`
	ProfilePic string    `json:"profile_pic,omitempty"`
	Addresses  []Address `json:"addresses,omitempty"`
	IsAdmin    bool      `json:"is_admin"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// DisplayName is "First Last", falling back to the username.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

type ProfileUpdate struct {
	FirstName  *string    `json:"first_name"`
	LastName   *string    `json:"last_name"`
	Phone      *string    `json:"phone"`
	Gender     *string    `json:"gender"`
	DOB        *string    `json:"dob"`
	ProfilePic *string    `json:"profile_pic"`
	Addresses  *[]Address `json:"addresses"`
}
