package models

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // don’t expose hash
}

// Identity is the authenticated caller carried by a session.
type Identity struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}
