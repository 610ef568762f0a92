// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxUserIDLen = 36
	MaxNameLen   = 36
)

var (
	ErrUserIDInvalid = errors.New("user id invalid")
	ErrNameTooLong   = errors.New("name too long")
	ErrNameEmpty     = errors.New("name empty")
)

type UserID string

// ProfileSummary is the public face of a user shown to the other call
// participant before any media flows.
type ProfileSummary struct {
	ID        UserID `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// NewProfile validates the identity a client presents with its offer.
func NewProfile(id UserID, name string) (*ProfileSummary, error) {
	if id == "" || len(id) > MaxUserIDLen {
		return nil, ErrUserIDInvalid
	}
	if len(name) == 0 {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	return &ProfileSummary{ID: id, Name: name}, nil
}
