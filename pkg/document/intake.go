// Package document validates and accumulates the files an applicant attaches
// to a loan application.
package document

import (
	"errors"
	"fmt"
)

// MaxFileSize is the per-file ceiling applied to every upload batch.
const MaxFileSize = 5 << 20

// DefaultAllowedTypes lists the declared MIME types accepted for supporting
// documents.
var DefaultAllowedTypes = []string{"application/pdf", "image/jpeg", "image/png"}

var (
	// ErrFileTooLarge rejects a whole batch containing at least one file over
	// the size ceiling.
	ErrFileTooLarge = errors.New("document: file exceeds the maximum size")
	// ErrFileType rejects a whole batch containing at least one file outside
	// the MIME allow-list.
	ErrFileType = errors.New("document: file type is not allowed")
)

// File is one accepted supporting document. Content is carried in memory for
// submission and never persisted; only the metadata survives a session
// round-trip.
type File struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mimeType"`
	Content  []byte `json:"-"`
}

// Option customises an Intake.
type Option func(*Intake)

// WithMaxFileSize overrides the per-file size ceiling.
func WithMaxFileSize(limit int64) Option {
	return func(i *Intake) {
		if limit > 0 {
			i.maxSize = limit
		}
	}
}

// WithAllowedTypes replaces the MIME allow-list.
func WithAllowedTypes(types ...string) Option {
	return func(i *Intake) {
		if len(types) == 0 {
			return
		}
		i.allowed = make(map[string]struct{}, len(types))
		for _, t := range types {
			i.allowed[t] = struct{}{}
		}
	}
}

// Intake applies the batch checks of the documents step: size ceiling first,
// MIME allow-list second, then append with (name,size) de-duplication. A batch
// failing either check is rejected as a whole; no partial acceptance.
type Intake struct {
	maxSize int64
	allowed map[string]struct{}
}

// NewIntake builds an Intake with the default ceiling and allow-list.
func NewIntake(options ...Option) *Intake {
	i := &Intake{maxSize: MaxFileSize}
	WithAllowedTypes(DefaultAllowedTypes...)(i)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(i)
	}
	return i
}

// MaxSize reports the configured per-file ceiling.
func (i *Intake) MaxSize() int64 { return i.maxSize }

// Allowed reports whether a declared MIME type passes the allow-list.
func (i *Intake) Allowed(mimeType string) bool {
	_, ok := i.allowed[mimeType]
	return ok
}

// Add validates a candidate batch against the existing document list and
// returns the extended list plus the count of files actually appended.
// Duplicates (same name and size as an existing entry) are silently skipped
// and do not count as added.
func (i *Intake) Add(existing []File, batch []File) ([]File, int, error) {
	for _, f := range batch {
		if f.Size > i.maxSize {
			return existing, 0, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, f.Name, f.Size)
		}
	}
	for _, f := range batch {
		if !i.Allowed(f.MIMEType) {
			return existing, 0, fmt.Errorf("%w: %s (%s)", ErrFileType, f.Name, f.MIMEType)
		}
	}

	seen := make(map[string]struct{}, len(existing))
	for _, f := range existing {
		seen[dedupKey(f)] = struct{}{}
	}

	out := existing
	added := 0
	for _, f := range batch {
		key := dedupKey(f)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
		added++
	}
	return out, added, nil
}

// Remove drops the document at index. Out-of-range indices are a no-op; removal
// never re-locks a step retroactively.
func Remove(documents []File, index int) []File {
	if index < 0 || index >= len(documents) {
		return documents
	}
	out := make([]File, 0, len(documents)-1)
	out = append(out, documents[:index]...)
	out = append(out, documents[index+1:]...)
	return out
}

func dedupKey(f File) string {
	return fmt.Sprintf("%s\x00%d", f.Name, f.Size)
}
