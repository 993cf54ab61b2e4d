// Package loanflow exposes the loan-application wizard engine from the module
// root: product catalog, step controller, and relay client, re-exported for
// callers that just want to run a wizard without importing each subpackage.
package loanflow

import (
	"context"

	"github.com/zofin/loanflow/pkg/product"
	"github.com/zofin/loanflow/pkg/store"
	"github.com/zofin/loanflow/pkg/submit"
	"github.com/zofin/loanflow/pkg/wizard"
)

// Product aliases the catalog product configuration.
type Product = product.Product

// Controller aliases the wizard step controller.
type Controller = wizard.Controller

// Session is a point-in-time copy of one wizard's state.
type Session = wizard.Session

// Option configures a wizard controller.
type Option = wizard.Option

// Products returns the built-in product catalog.
func Products() *product.Catalog {
	return product.Builtin()
}

// NewWizard builds a controller for the named product. It is the simplest
// entry point: pass a relay endpoint and the wizard is ready to submit.
func NewWizard(ctx context.Context, code product.Code, relayURL string, options ...Option) (*Controller, error) {
	p, err := product.Builtin().ByCode(code)
	if err != nil {
		return nil, err
	}
	opts := make([]Option, 0, len(options)+1)
	if relayURL != "" {
		opts = append(opts, wizard.WithSubmitter(submit.NewClient(relayURL)))
	}
	opts = append(opts, options...)
	return wizard.New(ctx, p, opts...)
}

// WithStore injects a persistence adapter, e.g. store.OpenSQLite.
func WithStore(s store.Store) Option {
	return wizard.WithStore(s)
}

// WithSubmitter overrides the submission client.
func WithSubmitter(s wizard.Submitter) Option {
	return wizard.WithSubmitter(s)
}
