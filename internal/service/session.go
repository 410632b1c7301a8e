package service

import "github.com/google/uuid"

// newSessionID returns a fresh opaque session token
func newSessionID() string {
	return uuid.NewString()
}
