package scoring

import (
	"path"
	"regexp"
	"time"

	"github.com/turtacn/molscore/pkg/errors"
)

// requestIDPattern bounds caller-supplied ids to a single safe path segment.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidRequestID reports whether id can be used verbatim as a storage path
// segment and log correlation key.
func ValidRequestID(id string) bool {
	return requestIDPattern.MatchString(id)
}

// RunRecord is the archived trace of one engine run: the document the
// engine received and the raw output it produced.
type RunRecord struct {
	RequestID string
	// RunID is minted per engine run so that reused request ids never share
	// an archive prefix.
	RunID    string
	Property string
	Label    string
	Job      map[string]any
	Output   []byte
	At       time.Time
}

// Validate rejects records whose ids would not form a clean storage prefix.
func (r RunRecord) Validate() error {
	if !ValidRequestID(r.RequestID) {
		return errors.New(errors.ErrCodeValidation, "run record has no valid request id").WithDetail(r.RequestID)
	}
	if r.RunID != "" && !ValidRequestID(r.RunID) {
		return errors.New(errors.ErrCodeValidation, "run record has an invalid run id").WithDetail(r.RunID)
	}
	return nil
}

// Prefix is the storage prefix for the record,
// "runs/<yyyy-mm-dd>/<request id>[/<run id>]".  Callers validate first.
func (r RunRecord) Prefix() string {
	return path.Join("runs", r.At.UTC().Format("2006-01-02"), r.RequestID, r.RunID)
}

//Personal.AI order the ending
