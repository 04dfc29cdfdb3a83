package utils

import (
	"strings"
	"time"
)

func ParseYMD(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	// strip time to midnight UTC to match DATE semantics
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// OptionalYMD parses s with ParseYMD; blank input yields nil.
func OptionalYMD(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := ParseYMD(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ContentDisposition builds an attachment header value for name.
func ContentDisposition(name string) string {
	name = strings.NewReplacer(`"`, "", "\r", "", "\n", "").Replace(name)
	return `attachment; filename="` + name + `"`
}
