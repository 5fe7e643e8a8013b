// Package auth authenticates staff by working id and password and tracks
// bearer tokens in redis so every API route can recover the caller.
package auth

import "time"

// User is an account row able to log in.
type User struct {
	ID           int64     `json:"user_id"`
	WorkingID    string    `json:"working_id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is the authenticated result handed back on login.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
