package wizard

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/zofin/loanflow/pkg/document"
	"github.com/zofin/loanflow/pkg/product"
)

// SubmissionStatus tracks the terminal submission call.
type SubmissionStatus string

const (
	SubmissionNotSubmitted SubmissionStatus = "not-submitted"
	SubmissionSubmitting   SubmissionStatus = "submitting"
	SubmissionSucceeded    SubmissionStatus = "succeeded"
	SubmissionFailed       SubmissionStatus = "failed"
)

// Submission is the state of the one-shot relay call. It is never persisted.
type Submission struct {
	Status  SubmissionStatus
	Message string
	// Reference is the server-issued application ID captured from a
	// successful submission.
	Reference string
}

// Session is the full in-progress state of one wizard instance for one
// product.
type Session struct {
	ID         string
	Product    product.Code
	Step       Step
	Accepted   bool
	Fields     map[string]string
	Documents  []document.File
	Errors     map[string]string
	Submission Submission
}

func newSession(code product.Code) Session {
	return Session{
		ID:         uuid.NewString(),
		Product:    code,
		Step:       StepIntro,
		Fields:     make(map[string]string),
		Submission: Submission{Status: SubmissionNotSubmitted},
	}
}

// Clone returns a deep copy so callers can inspect a snapshot without
// aliasing the controller's state.
func (s Session) Clone() Session {
	out := s
	out.Fields = make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		out.Fields[k] = v
	}
	if s.Errors != nil {
		out.Errors = make(map[string]string, len(s.Errors))
		for k, v := range s.Errors {
			out.Errors[k] = v
		}
	}
	if s.Documents != nil {
		out.Documents = append([]document.File(nil), s.Documents...)
	}
	return out
}

// snapshot is the persisted session layout: durable input data and the
// current position only. Errors and submission state are recomputed, never
// stored. Document content is dropped by the document.File JSON tags.
type snapshot struct {
	Step      Step              `json:"step"`
	Accepted  bool              `json:"accepted"`
	Fields    map[string]string `json:"fields"`
	Documents []document.File   `json:"documents,omitempty"`
}

// MarshalSnapshot encodes the persistable subset of the session.
func (s Session) MarshalSnapshot() ([]byte, error) {
	payload, err := json.Marshal(snapshot{
		Step:      s.Step,
		Accepted:  s.Accepted,
		Fields:    s.Fields,
		Documents: s.Documents,
	})
	if err != nil {
		return nil, fmt.Errorf("wizard: encode snapshot: %w", err)
	}
	return payload, nil
}

// RestoreSnapshot rebuilds a session from a persisted payload. A payload that
// cannot be decoded, or that carries an unknown step, yields an error; callers
// treat that as an absent session and start fresh.
func RestoreSnapshot(code product.Code, payload []byte) (Session, error) {
	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Session{}, fmt.Errorf("wizard: decode snapshot: %w", err)
	}
	if !snap.Step.Known() {
		return Session{}, fmt.Errorf("wizard: unknown step %q in snapshot", snap.Step)
	}

	session := newSession(code)
	session.Step = snap.Step
	session.Accepted = snap.Accepted
	if snap.Fields != nil {
		session.Fields = snap.Fields
	}
	session.Documents = snap.Documents
	return session, nil
}
