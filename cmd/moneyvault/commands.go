package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jask/moneyvault/internal/currency"
	"github.com/jask/moneyvault/internal/ledger"
	"github.com/jask/moneyvault/internal/models"
	"github.com/jask/moneyvault/internal/service"
	"github.com/jask/moneyvault/internal/testdata"
	"github.com/jask/moneyvault/internal/tui"
)

func (a *app) programOptions() []tea.ProgramOption {
	return []tea.ProgramOption{tea.WithInput(a.stdin), tea.WithOutput(os.Stderr)}
}

func (a *app) initCmd() *cobra.Command {
	var (
		name   string
		sample bool
		code   string
	)
	c := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a new account file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.account
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("mkdir account dir: %w", err)
			}
			acct, err := ledger.Open(path, a.ledgerOptions())
			if err != nil {
				return err
			}
			err = a.initAccount(cmd, acct, name, code, sample)
			if cerr := acct.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			if err := a.recent.Touch(path, acct.Metadata().Name, time.Now()); err != nil {
				a.log.Warn("recent accounts not updated", "err", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
			return nil
		},
	}
	c.Flags().StringVar(&name, "name", "", "account name (default file name)")
	c.Flags().StringVar(&code, "currency", "", "custom currency code instead of the system currency")
	c.Flags().BoolVar(&sample, "sample", false, "seed the account with sample groups and transactions")
	return c
}

func (a *app) initAccount(cmd *cobra.Command, acct *ledger.Account, name, code string, sample bool) error {
	ctx := cmd.Context()
	if _, err := acct.Login(ctx, ""); err != nil {
		return err
	}
	meta := acct.Metadata()
	if name != "" {
		meta.Name = name
	}
	if code != "" {
		c := currency.FromCode(code)
		if c.Code != strings.ToUpper(strings.TrimSpace(code)) || c.Validate() != currency.Valid {
			return fmt.Errorf("unknown currency %q", code)
		}
		meta.UseCustomCurrency = true
		meta.CustomCurrency = c
	}
	if err := acct.SetMetadata(ctx, meta); err != nil {
		return err
	}
	if sample {
		if err := testdata.Seed(ctx, acct, 1); err != nil {
			return err
		}
	}
	if a.password != "" {
		return acct.ChangePassword(ctx, a.password)
	}
	return nil
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show group and account totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAccount(cmd, func(acct *ledger.Account) error {
				fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary(acct))
				return nil
			})
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import transactions from CSV, OFX/QFX or QIF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAccount(cmd, func(acct *ledger.Account) error {
				res, err := acct.ImportFromFile(cmd.Context(), args[0],
					models.ParseColor(a.cfg.Import.TransactionColor), models.ParseColor(a.cfg.Import.GroupColor))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tui.RenderImport(res))
				if res.IsEmpty() && len(res.Errors) > 0 {
					return fmt.Errorf("nothing imported from %s", args[0])
				}
				return nil
			})
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.csv>",
		Short: "Export every transaction as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAccount(cmd, func(acct *ledger.Account) error {
				if err := acct.ExportToCSV(args[0], nil); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d transactions to %s\n", len(acct.Transactions()), args[0])
				return nil
			})
		},
	}
}

func (a *app) passwdCmd() *cobra.Command {
	var newPassword string
	c := &cobra.Command{
		Use:   "passwd",
		Short: "Change, set or remove the account password",
		Long: `Change the account password. An empty new password removes encryption.

Example:
  moneyvault passwd --new hunter2
  moneyvault passwd --new ""`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAccount(cmd, func(acct *ledger.Account) error {
				if !cmd.Flags().Changed("new") {
					if !a.interactive() {
						return errors.New("pass --new or run interactively")
					}
					err := tui.AskPassword("New password (empty removes encryption)", 1, func(pw string) (bool, error) {
						newPassword = pw
						return true, nil
					}, a.programOptions()...)
					if err != nil {
						return err
					}
				}
				if err := acct.ChangePassword(cmd.Context(), newPassword); err != nil {
					return err
				}
				if newPassword == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "encryption removed")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "password changed")
				}
				return nil
			})
		},
	}
	c.Flags().StringVar(&newPassword, "new", "", "new password")
	return c
}

func (a *app) remindersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "List upcoming repeat occurrences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAccount(cmd, func(acct *ledger.Account) error {
				rs, err := acct.TransactionReminders(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tui.RenderReminders(rs, acct.FormatAmount))
				return nil
			})
		},
	}
}

func (a *app) duplicatesCmd() *cobra.Command {
	var (
		window int
		merge  bool
	)
	c := &cobra.Command{
		Use:   "duplicates",
		Short: "Find transactions that look like the same payment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAccount(cmd, func(acct *ledger.Account) error {
				r := &service.Reconciler{Ledger: acct, WindowDays: window}
				found := r.Detect()
				fmt.Fprintln(cmd.OutOrStdout(), tui.RenderDuplicates(found, acct.FormatAmount))
				if !merge {
					return nil
				}
				merged := make(map[uint]bool)
				for _, c := range found {
					if !c.Exact || merged[c.A.ID] || merged[c.B.ID] {
						continue
					}
					keep, err := r.Merge(cmd.Context(), c)
					if err != nil {
						return err
					}
					merged[c.A.ID], merged[c.B.ID] = true, true
					a.log.Info("merged duplicate", "kept", keep.ID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "merged %d exact pairs\n", len(merged)/2)
				return nil
			})
		},
	}
	c.Flags().IntVar(&window, "days", service.DefaultWindowDays, "maximum days between matching entries")
	c.Flags().BoolVar(&merge, "merge", false, "merge exact duplicates")
	return c
}

func (a *app) transferCmd() *cobra.Command {
	var (
		rate        string
		dstPassword string
	)
	c := &cobra.Command{
		Use:   "transfer <destination> <amount>",
		Short: "Move money into another account file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[1], err)
			}
			tr := models.Transfer{
				DestinationPath:     args[0],
				DestinationPassword: dstPassword,
				SourceAmount:        amount,
			}
			if rate != "" {
				if tr.ConversionRate, err = decimal.NewFromString(rate); err != nil {
					return fmt.Errorf("rate %q: %w", rate, err)
				}
			}
			return a.withAccount(cmd, func(acct *ledger.Account) error {
				sent, received, err := acct.Transfer(cmd.Context(), tr)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n%s: %s\n",
					sent.Description, acct.FormatAmount(sent.Signed(), true),
					received.Description, received.Amount.StringFixed(2))
				return nil
			})
		},
	}
	c.Flags().StringVar(&rate, "rate", "", "conversion rate (default from rates.static)")
	c.Flags().StringVar(&dstPassword, "to-password", "", "destination account password")
	return c
}

func (a *app) recentCmd() *cobra.Command {
	var forget string
	c := &cobra.Command{
		Use:   "recent",
		Short: "List recently opened accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if forget != "" {
				return a.recent.Forget(forget)
			}
			list, err := a.recent.Recent()
			if err != nil {
				return err
			}
			for i, r := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%d  %-20s %s  %s\n", i+1, r.Name, r.LastOpened.Local().Format("2006-01-02 15:04"), r.Path)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no recent accounts")
			}
			return nil
		},
	}
	c.Flags().StringVar(&forget, "forget", "", "remove an account from the list")
	return c
}
