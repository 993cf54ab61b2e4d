package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/zofin/loanflow/pkg/document"
	"github.com/zofin/loanflow/pkg/product"
	"github.com/zofin/loanflow/pkg/wizard"
)

const conditionsText = `Conditions générales :
  - Les informations fournies doivent être exactes et vérifiables.
  - Les documents transmis sont utilisés uniquement pour l'étude du dossier.
  - L'acceptation du dossier reste soumise à l'étude de votre situation.`

// Runner drives one wizard controller through an interactive session.
type Runner struct {
	driver     PromptDriver
	controller *wizard.Controller
	readFile   func(path string) ([]byte, error)
}

// RunnerOption customises the runner.
type RunnerOption func(*Runner)

// WithReadFile overrides how document paths are resolved to content.
func WithReadFile(fn func(path string) ([]byte, error)) RunnerOption {
	return func(r *Runner) {
		if fn != nil {
			r.readFile = fn
		}
	}
}

// NewRunner builds a runner over an already-constructed controller.
func NewRunner(driver PromptDriver, controller *wizard.Controller, options ...RunnerOption) *Runner {
	r := &Runner{
		driver:     driver,
		controller: controller,
		readFile:   os.ReadFile,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Run loops over the wizard steps until the application is confirmed or the
// user leaves. Leaving mid-way is not an error; the session stays persisted
// and resumes on the next run.
func (r *Runner) Run(ctx context.Context) error {
	for {
		session := r.controller.Session()
		var (
			done bool
			err  error
		)
		switch session.Step {
		case wizard.StepIntro:
			done, err = r.runIntro(ctx)
		case wizard.StepConditions:
			done, err = r.runConditions(ctx)
		case wizard.StepForm:
			err = r.runForm(ctx)
		case wizard.StepDocuments:
			err = r.runDocuments(ctx)
		case wizard.StepSummary:
			done, err = r.runSummary(ctx)
		case wizard.StepConfirmation:
			return r.runConfirmation(ctx)
		default:
			return fmt.Errorf("tui: unexpected step %q", session.Step)
		}
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (r *Runner) runIntro(ctx context.Context) (bool, error) {
	p := r.controller.Product()
	msg := fmt.Sprintf("%s : de %d à %d sur %d à %d mois.",
		p.Name, p.MinAmount, p.MaxAmount, p.MinDuration, p.MaxDuration)
	if err := r.driver.Info(ctx, msg); err != nil {
		return false, err
	}
	start, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Commencer la demande ?", Default: true})
	if err != nil {
		return false, err
	}
	if !start {
		return true, nil
	}
	return false, r.controller.Start(ctx)
}

func (r *Runner) runConditions(ctx context.Context) (bool, error) {
	if err := r.driver.Info(ctx, conditionsText); err != nil {
		return false, err
	}
	accepted, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Acceptez-vous les conditions générales ?"})
	if err != nil {
		return false, err
	}
	if err := r.controller.SetAccepted(ctx, accepted); err != nil {
		return false, err
	}
	if err := r.controller.Accept(ctx); err != nil {
		if errors.Is(err, wizard.ErrNotAccepted) {
			if err := r.driver.Info(ctx, "Vous devez accepter les conditions pour continuer."); err != nil {
				return false, err
			}
			quit, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Quitter la demande ?"})
			return quit, err
		}
		return false, err
	}
	return false, nil
}

func (r *Runner) runForm(ctx context.Context) error {
	p := r.controller.Product()
	session := r.controller.Session()

	for _, name := range product.SharedFieldNames() {
		value, err := r.driver.Input(ctx, InputConfig{
			Message: product.FieldLabel(name),
			Default: session.Fields[name],
			Help:    fieldHelp(p, name),
		})
		if err != nil {
			return err
		}
		if err := r.controller.SetField(ctx, name, strings.TrimSpace(value)); err != nil {
			return err
		}
	}
	for _, extra := range p.Extra {
		value, err := r.promptExtra(ctx, extra, session.Fields[extra.Name])
		if err != nil {
			return err
		}
		if err := r.controller.SetField(ctx, extra.Name, strings.TrimSpace(value)); err != nil {
			return err
		}
	}

	if err := r.controller.SubmitForm(ctx); err != nil {
		if errors.Is(err, wizard.ErrValidation) {
			return r.reportErrors(ctx)
		}
		return err
	}
	return nil
}

func (r *Runner) reportErrors(ctx context.Context) error {
	session := r.controller.Session()
	names := make([]string, 0, len(session.Errors))
	for name := range session.Errors {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Certains champs sont invalides :")
	for _, name := range names {
		fmt.Fprintf(&b, "\n  - %s", session.Errors[name])
	}
	return r.driver.Info(ctx, b.String())
}

func (r *Runner) promptExtra(ctx context.Context, field product.Field, current string) (string, error) {
	if field.Type == product.FieldTypeSelect && len(field.Enum) > 0 {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      field.Label,
			Options:      field.Enum,
			DefaultIndex: indexOf(field.Enum, current),
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(field.Enum) {
			return "", nil
		}
		return field.Enum[idx], nil
	}
	return r.driver.Input(ctx, InputConfig{Message: field.Label, Default: current})
}

func (r *Runner) runDocuments(ctx context.Context) error {
	session := r.controller.Session()
	if n := len(session.Documents); n > 0 {
		if err := r.driver.Info(ctx, fmt.Sprintf("%d document(s) déjà ajouté(s).", n)); err != nil {
			return err
		}
	}
	path, err := r.driver.Input(ctx, InputConfig{
		Message: "Chemin d'un document à joindre (vide pour continuer)",
		Help:    "PDF, JPEG ou PNG, 5 Mo maximum",
	})
	if err != nil {
		return err
	}
	path = strings.TrimSpace(path)

	if path == "" {
		if err := r.controller.SubmitDocuments(ctx); err != nil {
			if errors.Is(err, wizard.ErrNoDocuments) {
				return r.driver.Info(ctx, "Veuillez joindre au moins un document.")
			}
			return err
		}
		return nil
	}

	file, err := r.loadDocument(path)
	if err != nil {
		return r.driver.Info(ctx, fmt.Sprintf("Impossible de lire %s : %v", path, err))
	}
	added, err := r.controller.AddDocuments(ctx, []document.File{file})
	switch {
	case errors.Is(err, document.ErrFileTooLarge):
		return r.driver.Info(ctx, fmt.Sprintf("%s dépasse la taille maximale de 5 Mo.", file.Name))
	case errors.Is(err, document.ErrFileType):
		return r.driver.Info(ctx, fmt.Sprintf("%s n'est pas un type de fichier accepté.", file.Name))
	case err != nil:
		return err
	case added == 0:
		return r.driver.Info(ctx, fmt.Sprintf("%s est déjà dans la liste.", file.Name))
	}
	return nil
}

func (r *Runner) loadDocument(path string) (document.File, error) {
	content, err := r.readFile(path)
	if err != nil {
		return document.File{}, err
	}
	detected := mimetype.Detect(content)
	mime := detected.String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return document.File{
		Name:     filepath.Base(path),
		Size:     int64(len(content)),
		MIMEType: mime,
		Content:  content,
	}, nil
}

func (r *Runner) runSummary(ctx context.Context) (bool, error) {
	if err := r.driver.Info(ctx, r.summaryText()); err != nil {
		return false, err
	}
	if msg := r.controller.Session().Submission.Message; msg != "" {
		if err := r.driver.Info(ctx, "Échec de l'envoi précédent : "+msg); err != nil {
			return false, err
		}
	}

	const (
		actionSend = iota
		actionBack
		actionReset
		actionQuit
	)
	choice, err := r.driver.Select(ctx, SelectConfig{
		Message: "Que souhaitez-vous faire ?",
		Options: []string{"Envoyer la demande", "Revenir aux documents", "Tout recommencer", "Quitter"},
	})
	if err != nil {
		return false, err
	}
	switch choice {
	case actionSend:
		if err := r.controller.Submit(ctx); err != nil {
			msg := r.controller.Session().Submission.Message
			if msg == "" {
				msg = err.Error()
			}
			return false, r.driver.Info(ctx, "L'envoi a échoué : "+msg)
		}
		return false, nil
	case actionBack:
		return false, r.controller.Back(ctx)
	case actionReset:
		return false, r.controller.Reset(ctx)
	default:
		return true, nil
	}
}

func (r *Runner) runConfirmation(ctx context.Context) error {
	session := r.controller.Session()
	msg := "Votre demande a bien été envoyée."
	if ref := session.Submission.Reference; ref != "" {
		msg = fmt.Sprintf("Votre demande a bien été envoyée. Numéro de dossier : %s.", ref)
	}
	return r.driver.Info(ctx, msg)
}

func (r *Runner) summaryText() string {
	p := r.controller.Product()
	session := r.controller.Session()

	var b strings.Builder
	fmt.Fprintf(&b, "Récapitulatif - %s\n", p.Name)
	for _, name := range p.FieldNames() {
		if value := session.Fields[name]; value != "" {
			fmt.Fprintf(&b, "  %s : %s\n", labelFor(p, name), value)
		}
	}
	names := make([]string, 0, len(session.Documents))
	for _, doc := range session.Documents {
		names = append(names, doc.Name)
	}
	sort.Strings(names)
	fmt.Fprintf(&b, "  Documents : %s", strings.Join(names, ", "))
	return b.String()
}

func labelFor(p product.Product, name string) string {
	if field, ok := p.ExtraField(name); ok && field.Label != "" {
		return field.Label
	}
	return product.FieldLabel(name)
}

func fieldHelp(p product.Product, name string) string {
	switch name {
	case product.FieldAmount:
		return fmt.Sprintf("Entre %d et %d", p.MinAmount, p.MaxAmount)
	case product.FieldDuration:
		return fmt.Sprintf("Entre %d et %d mois", p.MinDuration, p.MaxDuration)
	default:
		return ""
	}
}
