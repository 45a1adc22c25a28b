package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jask/moneyvault/internal/config"
	"github.com/jask/moneyvault/internal/currency"
	"github.com/jask/moneyvault/internal/ledger"
	"github.com/jask/moneyvault/internal/logging"
	"github.com/jask/moneyvault/internal/prefs"
	"github.com/jask/moneyvault/internal/tui"
)

var errPasswordRequired = errors.New("account is encrypted: pass --password or run interactively")

// app is the state shared by every command of one invocation.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	rates    *currency.BoltCache
	currency *currency.Service
	recent   *prefs.Store

	account  string
	password string
	debug    bool

	// stdin and interactive are swapped out by tests.
	stdin       io.Reader
	interactive func() bool
}

func newApp() *app {
	return &app{stdin: os.Stdin, interactive: stdinIsTerminal}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "moneyvault",
		Short: "Password-protected personal finance ledgers",
		Long: `moneyvault keeps income and expenses in single-file accounts that can be
encrypted with a password.

Example:
  moneyvault init ~/money/checking.nmoney --sample
  moneyvault import statement.ofx --account ~/money/checking.nmoney
  moneyvault summary`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.account, "account", "a", "", "account file (default from config ledger.path)")
	root.PersistentFlags().StringVar(&a.password, "password", "", "account password (default $MONEYVAULT_PASSWORD)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		a.initCmd(),
		a.summaryCmd(),
		a.importCmd(),
		a.exportCmd(),
		a.passwdCmd(),
		a.remindersCmd(),
		a.duplicatesCmd(),
		a.transferCmd(),
		a.recentCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.debug {
		level = "debug"
	}
	if a.log, err = logging.New(cmd.ErrOrStderr(), level); err != nil {
		return err
	}

	if a.account == "" {
		a.account = cfg.Ledger.Path
	}
	if a.password == "" {
		a.password = os.Getenv("MONEYVAULT_PASSWORD")
	}

	static, err := currency.ParseStaticRates(cfg.Rates.Static)
	if err != nil {
		return fmt.Errorf("rates.static: %w", err)
	}
	opts := currency.ServiceOptions{Logger: a.log}
	if len(static) > 0 {
		opts.Source = static
	}
	if cfg.Ledger.Locale != "" {
		opts.System = currency.ForLocale(cfg.Ledger.Locale)
	}
	if cfg.Rates.CachePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Rates.CachePath), 0o755); err != nil {
			return fmt.Errorf("mkdir rate cache dir: %w", err)
		}
		if a.rates, err = currency.OpenBoltCache(cfg.Rates.CachePath); err != nil {
			// another process holds the cache; fall back to memory
			a.log.Warn("rate cache unavailable", "path", cfg.Rates.CachePath, "err", err)
		} else {
			opts.Cache = a.rates
		}
	}
	a.currency = currency.NewService(opts)

	if a.recent, err = prefs.DefaultStore(); err != nil {
		return err
	}
	return nil
}

// execute runs the command line and releases what setup opened.
func (a *app) execute(args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	return errors.Join(root.Execute(), a.teardown())
}

func (a *app) teardown() error {
	if a.rates == nil {
		return nil
	}
	err := a.rates.Close()
	a.rates = nil
	return err
}

func (a *app) ledgerOptions() ledger.Options {
	return ledger.Options{Logger: a.log, Currency: a.currency}
}

// open opens path and logs in with --password, or with an interactive
// prompt when the account is encrypted and no password was given.
func (a *app) open(ctx context.Context, path string) (*ledger.Account, error) {
	acct, err := ledger.Open(path, a.ledgerOptions())
	if err != nil {
		return nil, err
	}
	if err := a.login(ctx, acct); err != nil {
		_ = acct.Close()
		return nil, err
	}
	if err := a.recent.Touch(acct.Path(), acct.Metadata().Name, time.Now()); err != nil {
		a.log.Warn("recent accounts not updated", "err", err)
	}
	return acct, nil
}

func (a *app) login(ctx context.Context, acct *ledger.Account) error {
	switch {
	case !acct.IsEncrypted():
		_, err := acct.Login(ctx, "")
		return err
	case a.password != "":
		ok, err := acct.Login(ctx, a.password)
		if err != nil {
			return err
		}
		if !ok {
			return ledger.ErrWrongPassword
		}
		return nil
	case !a.interactive():
		return errPasswordRequired
	}
	label := "Unlock " + filepath.Base(acct.Path())
	err := tui.AskPassword(label, tui.DefaultAttempts, func(pw string) (bool, error) {
		return acct.Login(ctx, pw)
	}, a.programOptions()...)
	if errors.Is(err, tui.ErrTooManyAttempts) {
		return ledger.ErrWrongPassword
	}
	return err
}

func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// withAccount opens the selected account, runs fn and closes it again.
func (a *app) withAccount(cmd *cobra.Command, fn func(acct *ledger.Account) error) error {
	acct, err := a.open(cmd.Context(), a.account)
	if err != nil {
		return err
	}
	return errors.Join(fn(acct), acct.Close())
}
