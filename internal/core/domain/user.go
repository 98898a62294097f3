package domain

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User models an account as seen by the authentication core. The record is
// owned by the user directory; this service only reads it and requests
// password hash updates.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	IsVerified   bool   `json:"is_verified"`
}
