package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewProfile(t *testing.T) {
	p, err := NewProfile("u1", "Maya")
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "u1" || p.Name != "Maya" {
		t.Fatalf("profile = %+v", p)
	}
}

func TestNewProfileValidation(t *testing.T) {
	cases := []struct {
		label string
		id    UserID
		name  string
		want  error
	}{
		{"empty id", "", "Maya", ErrUserIDInvalid},
		{"long id", UserID(strings.Repeat("x", MaxUserIDLen+1)), "Maya", ErrUserIDInvalid},
		{"empty name", "u1", "", ErrNameEmpty},
		{"long name", "u1", strings.Repeat("x", MaxNameLen+1), ErrNameTooLong},
	}
	for _, c := range cases {
		if _, err := NewProfile(c.id, c.name); !errors.Is(err, c.want) {
			t.Errorf("%s: err = %v, want %v", c.label, err, c.want)
		}
	}
}

func TestCallStatusActive(t *testing.T) {
	for _, s := range []CallStatus{StatusCalling, StatusConnecting, StatusConnected} {
		if !s.Active() {
			t.Errorf("%q should be active", s)
		}
	}
	for _, s := range []CallStatus{StatusIdle, StatusEnded} {
		if s.Active() {
			t.Errorf("%q should not be active", s)
		}
	}
}
