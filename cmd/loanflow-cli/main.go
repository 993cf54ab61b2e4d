// Command loanflow-cli runs the loan-application wizard in the terminal and
// submits completed applications to a relay endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/zofin/loanflow/internal/tui"
	"github.com/zofin/loanflow/pkg/product"
	"github.com/zofin/loanflow/pkg/store"
	"github.com/zofin/loanflow/pkg/submit"
	"github.com/zofin/loanflow/pkg/wizard"
)

func main() {
	var (
		productCode = flag.String("product", "", "credit product (auto, personal, realestate, business); prompted when omitted")
		relayURL    = flag.String("relay", "http://localhost:8080/send-mail", "relay endpoint applications are submitted to")
		storePath   = flag.String("store", defaultStorePath(), "session database; empty keeps sessions in memory only")
		catalogPath = flag.String("catalog", "", "optional YAML file overriding product bounds")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *productCode, *relayURL, *storePath, *catalogPath); err != nil {
		if errors.Is(err, tui.ErrAborted) || errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "loanflow:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, productCode, relayURL, storePath, catalogPath string) error {
	catalog := product.Builtin()
	if catalogPath != "" {
		if err := catalog.LoadOverridesFile(catalogPath); err != nil {
			return err
		}
	}

	driver := tui.NewSurveyDriver()

	p, err := pickProduct(ctx, driver, catalog, productCode)
	if err != nil {
		return err
	}

	sessions, closeStore, err := openStore(ctx, storePath)
	if err != nil {
		return err
	}
	defer closeStore()

	controller, err := wizard.New(ctx, p,
		wizard.WithStore(sessions),
		wizard.WithSubmitter(submit.NewClient(relayURL)),
	)
	if err != nil {
		return err
	}

	return tui.NewRunner(driver, controller).Run(ctx)
}

func pickProduct(ctx context.Context, driver tui.PromptDriver, catalog *product.Catalog, code string) (product.Product, error) {
	if code != "" {
		return catalog.ByCode(product.Code(code))
	}

	codes := catalog.Codes()
	names := make([]string, len(codes))
	byName := make(map[string]product.Code, len(codes))
	for i, c := range codes {
		p, err := catalog.ByCode(c)
		if err != nil {
			return product.Product{}, err
		}
		names[i] = p.Name
		byName[p.Name] = c
	}
	sort.Strings(names)

	idx, err := driver.Select(ctx, tui.SelectConfig{
		Message: "Quel crédit souhaitez-vous demander ?",
		Options: names,
	})
	if err != nil {
		return product.Product{}, err
	}
	if idx < 0 || idx >= len(names) {
		return product.Product{}, errors.New("no product selected")
	}
	return catalog.ByCode(byName[names[idx]])
}

func openStore(ctx context.Context, path string) (store.Store, func(), error) {
	if path == "" {
		return store.NewMemory(), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	db, err := store.OpenSQLite(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { db.Close() }, nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "loanflow", "sessions.db")
}
