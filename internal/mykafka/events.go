package mykafka

import "time"

const (
	EventUserRegistered = "user_registered"
	EventUserLoggedIn   = "user_logged_in"
)

type UserEvent struct {
	Type   string    `json:"type"`
	UserID uint      `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	At     time.Time `json:"at"`
}
