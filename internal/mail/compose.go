// Package mail renders and sends the two notification mails produced by a
// submitted application: the operator summary and the applicant confirmation.
package mail

import (
	"embed"
	"fmt"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// FieldValue is one application field ready for display.
type FieldValue struct {
	Label string
	Value string
}

// Attachment is one uploaded document carried on the operator mail.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Application is the composed view of one submitted application.
type Application struct {
	// Reference is the server-issued application ID.
	Reference string
	// Label is the product display name, e.g. "Crédit Personnel".
	Label string
	// ApplicantName and ApplicantEmail address the confirmation mail.
	ApplicantName  string
	ApplicantEmail string
	Fields         []FieldValue
	Attachments    []Attachment
}

// Message is a rendered mail body pair plus subject.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// Composer renders the notification mails from the embedded templates. All
// applicant-supplied values are stripped of markup before rendering.
type Composer struct {
	set      *pongo2.TemplateSet
	policy   *bluemonday.Policy
	fromName string
}

// NewComposer builds a composer signing mails with the given sender name.
func NewComposer(fromName string) *Composer {
	return &Composer{
		set:      pongo2.NewSet("loanflow-mail", pongo2.NewFSLoader(embeddedTemplates)),
		policy:   bluemonday.StrictPolicy(),
		fromName: fromName,
	}
}

// Operator renders the internal summary mail listing every submitted field
// and the attachment names.
func (c *Composer) Operator(app Application) (Message, error) {
	names := make([]string, 0, len(app.Attachments))
	for _, a := range app.Attachments {
		names = append(names, c.policy.Sanitize(a.Filename))
	}
	html, err := c.render("templates/operator.tpl", pongo2.Context{
		"label":       c.policy.Sanitize(app.Label),
		"reference":   app.Reference,
		"fields":      c.sanitizeFields(app.Fields),
		"attachments": names,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		Subject: fmt.Sprintf("Nouvelle demande de crédit [%s] - %s", app.Reference, app.Label),
		HTML:    html,
	}, nil
}

// Applicant renders the confirmation mail sent back to the applicant.
func (c *Composer) Applicant(app Application) (Message, error) {
	ctx := pongo2.Context{
		"name":      c.policy.Sanitize(app.ApplicantName),
		"label":     c.policy.Sanitize(app.Label),
		"reference": app.Reference,
		"sender":    c.fromName,
	}
	html, err := c.render("templates/applicant.tpl", ctx)
	if err != nil {
		return Message{}, err
	}
	text, err := c.render("templates/applicant_text.tpl", ctx)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Subject: fmt.Sprintf("Votre demande de crédit %s", app.Reference),
		HTML:    html,
		Text:    text,
	}, nil
}

func (c *Composer) sanitizeFields(fields []FieldValue) []FieldValue {
	out := make([]FieldValue, len(fields))
	for i, f := range fields {
		out[i] = FieldValue{
			Label: c.policy.Sanitize(f.Label),
			Value: c.policy.Sanitize(f.Value),
		}
	}
	return out
}

func (c *Composer) render(name string, ctx pongo2.Context) (string, error) {
	tpl, err := c.set.FromFile(name)
	if err != nil {
		return "", fmt.Errorf("mail: load template %s: %w", name, err)
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("mail: execute template %s: %w", name, err)
	}
	return out, nil
}
