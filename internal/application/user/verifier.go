package user

import (
	"context"
	"errors"
	"fmt"
	"io"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
)

// Verification lists the source lines that produced a verifier error.
type Verification struct {
	rejected map[int]struct{}
}

func (v Verification) Rejected(line int) bool {
	_, ok := v.rejected[line]
	return ok
}

func (v Verification) RejectedCount() int {
	return len(v.rejected)
}

type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify walks the whole stream and records duplicate and missing-field
// problems on report. It never touches the identity store.
func (v *Verifier) Verify(ctx context.Context, stream domain.RecordStream, report *domain.RunReport) (Verification, error) {
	out := Verification{rejected: make(map[int]struct{})}
	firstSeen := make(map[string]domain.ImportRecord)

	reject := func(line int, format string, args ...any) {
		report.AddError(format, args...)
		out.rejected[line] = struct{}{}
	}

	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		rec, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("%w: %v", ErrReadRecordSource, err)
		}

		userID := rec.ExternalUserID
		if first, ok := firstSeen[userID]; ok {
			if !first.SameContent(rec) {
				reject(rec.Line, "non-identical duplicate user rows for %s", userID)
			} else {
				report.AddWarning("duplicate user id %s", userID)
			}
		} else {
			firstSeen[userID] = rec
		}

		if domain.Blank(userID) {
			reject(rec.Line, "no user_id given for a user")
		}
		if domain.Blank(rec.LoginID) {
			reject(rec.Line, "no login_id given for user %s", userID)
		}
		if _, err := rec.ParsedStatus(); err != nil {
			reject(rec.Line, "improper status for user %s", userID)
		}
	}
}
