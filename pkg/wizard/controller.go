// Package wizard implements the multi-step loan-application state machine
// shared by every credit product: one controller owning the session, guarded
// forward transitions, unconditional backward transitions, and a persistence
// side-effect after each accepted mutation.
package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/zofin/loanflow/pkg/document"
	"github.com/zofin/loanflow/pkg/product"
	"github.com/zofin/loanflow/pkg/store"
	"github.com/zofin/loanflow/pkg/submit"
	"github.com/zofin/loanflow/pkg/validate"
)

var (
	// ErrInvalidTransition rejects an operation not available from the
	// current step.
	ErrInvalidTransition = errors.New("wizard: transition not allowed from current step")
	// ErrNotAccepted blocks leaving the conditions step without the
	// terms-of-service acknowledgement.
	ErrNotAccepted = errors.New("wizard: conditions must be accepted before continuing")
	// ErrValidation blocks the personal-form step while field errors remain;
	// the per-field messages are on Session.Errors.
	ErrValidation = errors.New("wizard: form fields are invalid")
	// ErrNoDocuments blocks the documents step with an empty document list.
	ErrNoDocuments = errors.New("wizard: at least one document is required")
	// ErrSubmissionInFlight rejects a second submission while one is running.
	ErrSubmissionInFlight = errors.New("wizard: a submission is already in flight")
	// ErrNoSubmitter is returned by Submit when no submission client is
	// configured.
	ErrNoSubmitter = errors.New("wizard: no submitter configured")
)

// Submitter posts a completed application; *submit.Client satisfies it.
type Submitter interface {
	Submit(ctx context.Context, req submit.Request) (submit.Receipt, error)
}

// Validator checks the personal-form fields; validate.Fields is the default.
type Validator func(p product.Product, values map[string]string) map[string]string

// Option customises the controller configuration.
type Option func(*Controller)

// WithStore injects the persistence adapter. Defaults to an in-memory store.
func WithStore(s store.Store) Option {
	return func(c *Controller) {
		if s != nil {
			c.store = s
		}
	}
}

// WithSubmitter injects the submission client used on the summary step.
func WithSubmitter(s Submitter) Option {
	return func(c *Controller) {
		c.submitter = s
	}
}

// WithIntake overrides the document intake rules.
func WithIntake(i *document.Intake) Option {
	return func(c *Controller) {
		if i != nil {
			c.intake = i
		}
	}
}

// WithValidator overrides the personal-form validator.
func WithValidator(v Validator) Option {
	return func(c *Controller) {
		if v != nil {
			c.validator = v
		}
	}
}

// Controller drives one wizard session for one product. It is not safe for
// concurrent use; all transitions happen on discrete user events.
type Controller struct {
	product   product.Product
	store     store.Store
	submitter Submitter
	intake    *document.Intake
	validator Validator
	session   Session
}

// New builds a controller for the product and restores a prior in-progress
// session from the store when one exists under the product key. Absent or
// unparsable payloads silently yield a fresh session at the intro step;
// store read failures are returned.
func New(ctx context.Context, p product.Product, options ...Option) (*Controller, error) {
	if ctx == nil {
		return nil, errors.New("wizard: context is required")
	}
	if p.Code == "" {
		return nil, errors.New("wizard: product is required")
	}

	c := &Controller{
		product:   p,
		store:     store.NewMemory(),
		intake:    document.NewIntake(),
		validator: validate.Fields,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}

	c.session = newSession(p.Code)
	payload, err := c.store.Load(ctx, p.StorageKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// First visit for this product.
	case err != nil:
		// A reachable store that cannot be read would silently discard a
		// resumable session; surface that instead.
		return nil, fmt.Errorf("wizard: load persisted session: %w", err)
	default:
		if restored, err := RestoreSnapshot(p.Code, payload); err == nil {
			c.session = restored
		}
	}
	return c, nil
}

// Product returns the controller's product configuration.
func (c *Controller) Product() product.Product { return c.product }

// Session returns a deep copy of the current session state.
func (c *Controller) Session() Session { return c.session.Clone() }

// SetField records one field value and clears any error previously attached
// to that field, then persists the snapshot.
func (c *Controller) SetField(ctx context.Context, name, value string) error {
	c.session.Fields[name] = value
	if c.session.Errors != nil {
		delete(c.session.Errors, name)
		if len(c.session.Errors) == 0 {
			c.session.Errors = nil
		}
	}
	return c.persist(ctx)
}

// SetAccepted records the terms-of-service acknowledgement.
func (c *Controller) SetAccepted(ctx context.Context, accepted bool) error {
	c.session.Accepted = accepted
	return c.persist(ctx)
}

// Start advances Intro → Conditions. No guard.
func (c *Controller) Start(ctx context.Context) error {
	if c.session.Step != StepIntro {
		return c.transitionErr(StepIntro)
	}
	return c.advance(ctx)
}

// Accept advances Conditions → PersonalForm, guarded by the acknowledgement.
// On refusal the step does not change.
func (c *Controller) Accept(ctx context.Context) error {
	if c.session.Step != StepConditions {
		return c.transitionErr(StepConditions)
	}
	if !c.session.Accepted {
		return ErrNotAccepted
	}
	return c.advance(ctx)
}

// SubmitForm advances PersonalForm → Documents when every field passes
// validation. On failure the field errors land on the session and the step
// does not change.
func (c *Controller) SubmitForm(ctx context.Context) error {
	if c.session.Step != StepForm {
		return c.transitionErr(StepForm)
	}
	if errs := c.validator(c.product, c.session.Fields); len(errs) > 0 {
		c.session.Errors = errs
		return ErrValidation
	}
	c.session.Errors = nil
	return c.advance(ctx)
}

// AddDocuments runs the intake checks on a candidate batch and appends the
// accepted files, reporting how many were actually added. A batch failing a
// check is rejected as a whole and the document list is untouched.
func (c *Controller) AddDocuments(ctx context.Context, batch []document.File) (int, error) {
	docs, added, err := c.intake.Add(c.session.Documents, batch)
	if err != nil {
		return 0, err
	}
	c.session.Documents = docs
	if err := c.persist(ctx); err != nil {
		return added, err
	}
	return added, nil
}

// RemoveDocument drops the document at index. Removing the last document does
// not re-lock a later step; the guard re-runs on the next forward attempt.
func (c *Controller) RemoveDocument(ctx context.Context, index int) error {
	c.session.Documents = document.Remove(c.session.Documents, index)
	return c.persist(ctx)
}

// SubmitDocuments advances Documents → Summary, guarded by a non-empty
// document list.
func (c *Controller) SubmitDocuments(ctx context.Context) error {
	if c.session.Step != StepDocuments {
		return c.transitionErr(StepDocuments)
	}
	if len(c.session.Documents) == 0 {
		return ErrNoDocuments
	}
	return c.advance(ctx)
}

// Submit performs the terminal submission. While the call is in flight the
// session is marked submitting and re-entry is rejected. On failure the step
// stays at Summary with the relay's message retained for display; the user may
// retry any number of times. On success the session advances to Confirmation
// carrying the server-issued application reference.
func (c *Controller) Submit(ctx context.Context) error {
	if c.session.Step != StepSummary {
		return c.transitionErr(StepSummary)
	}
	if c.session.Submission.Status == SubmissionSubmitting {
		return ErrSubmissionInFlight
	}
	if c.submitter == nil {
		return ErrNoSubmitter
	}

	c.session.Submission = Submission{Status: SubmissionSubmitting}
	receipt, err := c.submitter.Submit(ctx, submit.Request{
		Label:      c.product.Label,
		Fields:     c.session.Fields,
		FieldOrder: c.product.FieldNames(),
		Documents:  c.session.Documents,
	})
	if err != nil {
		c.session.Submission = Submission{Status: SubmissionFailed, Message: err.Error()}
		return err
	}

	c.session.Submission = Submission{Status: SubmissionSucceeded, Reference: receipt.Reference}
	return c.advance(ctx)
}

// Back moves to the immediate predecessor, unconditionally, from any
// non-initial non-terminal step. No validation re-runs and no data is lost.
func (c *Controller) Back(ctx context.Context) error {
	if c.session.Step == StepIntro || c.session.Step == StepConfirmation {
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, c.session.Step)
	}
	prev, ok := c.session.Step.Prev()
	if !ok {
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, c.session.Step)
	}
	c.session.Step = prev
	return c.persist(ctx)
}

// Reset discards the session: fields, documents, errors, and the persisted
// snapshot are cleared and a fresh session with a new ID starts at Intro.
func (c *Controller) Reset(ctx context.Context) error {
	c.session = newSession(c.product.Code)
	if err := c.store.Delete(ctx, c.product.StorageKey); err != nil {
		return fmt.Errorf("wizard: clear persisted session: %w", err)
	}
	return nil
}

func (c *Controller) advance(ctx context.Context) error {
	next, ok := c.session.Step.Next()
	if !ok {
		return fmt.Errorf("%w: advance from %s", ErrInvalidTransition, c.session.Step)
	}
	c.session.Step = next
	if next == StepConfirmation {
		// Successful submission destroys the persisted in-progress state.
		if err := c.store.Delete(ctx, c.product.StorageKey); err != nil {
			return fmt.Errorf("wizard: clear persisted session: %w", err)
		}
		return nil
	}
	return c.persist(ctx)
}

func (c *Controller) persist(ctx context.Context) error {
	payload, err := c.session.MarshalSnapshot()
	if err != nil {
		return err
	}
	if err := c.store.Save(ctx, c.product.StorageKey, payload); err != nil {
		return fmt.Errorf("wizard: persist session: %w", err)
	}
	return nil
}

func (c *Controller) transitionErr(want Step) error {
	return fmt.Errorf("%w: at %s, operation requires %s", ErrInvalidTransition, c.session.Step, want)
}
