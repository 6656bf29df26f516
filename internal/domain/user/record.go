package user

import (
	"fmt"
	"strings"
)

const (
	HeaderUserID       = "user_id"
	HeaderLoginID      = "login_id"
	HeaderFirstName    = "first_name"
	HeaderLastName     = "last_name"
	HeaderEmail        = "email"
	HeaderStatus       = "status"
	HeaderPassword     = "password"
	HeaderPasswordHash = "ssha_password"
)

// IsUserHeader reports whether a header row describes a user file.
func IsUserHeader(headers []string) bool {
	var hasUserID, hasLoginID bool
	for _, h := range headers {
		switch strings.TrimSpace(h) {
		case HeaderUserID:
			hasUserID = true
		case HeaderLoginID:
			hasLoginID = true
		}
	}
	return hasUserID && hasLoginID
}

type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(StatusActive):
		return StatusActive, nil
	case string(StatusDeleted):
		return StatusDeleted, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// ImportRecord is one input row. Line is the 1-based source line and is not
// part of the row content.
type ImportRecord struct {
	Line           int
	ExternalUserID string
	LoginID        string
	FirstName      string
	LastName       string
	Email          string
	Status         string
	Password       string
	PasswordHash   string
}

func RecordFromFields(line int, fields map[string]string) ImportRecord {
	return ImportRecord{
		Line:           line,
		ExternalUserID: fields[HeaderUserID],
		LoginID:        fields[HeaderLoginID],
		FirstName:      fields[HeaderFirstName],
		LastName:       fields[HeaderLastName],
		Email:          fields[HeaderEmail],
		Status:         fields[HeaderStatus],
		Password:       fields[HeaderPassword],
		PasswordHash:   fields[HeaderPasswordHash],
	}
}

func (r ImportRecord) FullName() string {
	return r.FirstName + " " + r.LastName
}

func (r ImportRecord) SameContent(other ImportRecord) bool {
	r.Line, other.Line = 0, 0
	return r == other
}

func (r ImportRecord) ParsedStatus() (Status, error) {
	return ParseStatus(r.Status)
}

func Blank(value string) bool {
	return strings.TrimSpace(value) == ""
}
