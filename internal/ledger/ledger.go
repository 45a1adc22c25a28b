// Package ledger is the in-memory view of one account file. Every mutation is
// persisted through the repository first and only then applied to the maps.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jask/moneyvault/internal/currency"
	"github.com/jask/moneyvault/internal/database"
	"github.com/jask/moneyvault/internal/database/repository"
	"github.com/jask/moneyvault/internal/models"
	"github.com/jask/moneyvault/internal/vault"
)

var (
	ErrInvalidID      = errors.New("ledger: invalid id")
	ErrDuplicateID    = errors.New("ledger: id already in use")
	ErrGroupNameTaken = errors.New("ledger: group name already in use")
	ErrUnknownGroup   = errors.New("ledger: unknown group")
	ErrNotFound       = errors.New("ledger: not found")
	ErrReservedGroup  = errors.New("ledger: the ungrouped group cannot be changed")
	ErrNegativeAmount = errors.New("ledger: amount must not be negative")
	ErrWrongPassword  = errors.New("ledger: wrong password")
	ErrLocked         = database.ErrLocked
)

// Options configure an Account. Zero values pick defaults.
type Options struct {
	Logger *slog.Logger
	// Currency supplies the system currency and conversion rates.
	Currency *currency.Service
	KDF      vault.Params
	// Today overrides the calendar, mostly for tests.
	Today func() models.Date
}

type Account struct {
	repo     *repository.Repository
	log      *slog.Logger
	opts     Options
	today    func() models.Date
	loggedIn bool

	metadata     models.AccountMetadata
	groups       map[int]*models.Group
	transactions map[uint]models.Transaction
	tags         []string
}

// Open claims the account file at path. Nothing is read until Login.
func Open(path string, opts Options) (*Account, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Today == nil {
		opts.Today = models.Today
	}
	repo, err := repository.Open(path, database.Options{KDF: opts.KDF, Logger: opts.Logger})
	if err != nil {
		return nil, err
	}
	a := &Account{
		repo:  repo,
		log:   opts.Logger.With("account", filepath.Base(repo.Path())),
		opts:  opts,
		today: opts.Today,
	}
	a.reset()
	return a, nil
}

func (a *Account) reset() {
	a.metadata = models.DefaultMetadata(a.defaultName())
	a.groups = map[int]*models.Group{models.UngroupedID: models.Ungrouped()}
	a.transactions = make(map[uint]models.Transaction)
	a.tags = nil
}

func (a *Account) defaultName() string {
	base := filepath.Base(a.repo.Path())
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (a *Account) Path() string { return a.repo.Path() }

// IsEncrypted reports whether the file on disk is sealed with a password.
func (a *Account) IsEncrypted() bool { return a.repo.IsEncrypted() }

func (a *Account) IsLoggedIn() bool { return a.loggedIn }

// Login unlocks the file, loads it and catches up repeat transactions.
// A wrong password returns false and a nil error.
func (a *Account) Login(ctx context.Context, password string) (bool, error) {
	if a.loggedIn {
		return true, nil
	}
	ok, err := a.repo.Login(ctx, password)
	if err != nil || !ok {
		return false, err
	}
	if err := a.load(ctx); err != nil {
		return false, err
	}
	a.loggedIn = true
	if _, err := a.Sync(ctx); err != nil {
		a.loggedIn = false
		return false, fmt.Errorf("sync repeat transactions: %w", err)
	}
	a.log.Debug("logged in", "transactions", len(a.transactions), "groups", len(a.groups)-1)
	return true, nil
}

// Close releases the file. It is safe to call more than once.
func (a *Account) Close() error {
	a.loggedIn = false
	return a.repo.Close()
}

// ChangePassword re-keys the file; an empty password removes encryption.
func (a *Account) ChangePassword(ctx context.Context, password string) error {
	if !a.loggedIn {
		return ErrLocked
	}
	if err := a.repo.ChangePassword(ctx, password); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	a.log.Info("password changed", "encrypted", password != "")
	return nil
}

// load replaces the in-memory state with what the repository holds.
func (a *Account) load(ctx context.Context) error {
	meta, err := a.repo.GetMetadata(ctx, a.defaultName())
	if err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}
	groups, err := a.repo.GetGroups(ctx)
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}
	txns, err := a.repo.GetTransactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	tags, err := a.repo.GetTags(ctx)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}

	a.reset()
	a.metadata = meta
	for _, g := range groups {
		a.groups[g.ID] = g
	}
	for _, t := range txns {
		if _, ok := a.groups[t.GroupID]; !ok {
			a.log.Warn("transaction references a missing group", "id", t.ID, "group", t.GroupID)
		}
		a.transactions[t.ID] = t
		a.groupFor(t.GroupID).UpdateBalance(t, false)
	}
	a.tags = tags
	return nil
}

// groupFor returns the balance owner of gid; dangling ids count as ungrouped.
func (a *Account) groupFor(gid int) *models.Group {
	if g, ok := a.groups[gid]; ok {
		return g
	}
	return a.groups[models.UngroupedID]
}

// batch runs fn inside one repository guard. A failure rolls the file back
// and reloads the maps. Inside an open guard fn simply runs; the outer batch
// owns the outcome.
func (a *Account) batch(ctx context.Context, fn func() error) error {
	if !a.loggedIn {
		return ErrLocked
	}
	if a.repo.InTransaction() {
		return fn()
	}
	if err := a.repo.BeginTransaction(ctx); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return errors.Join(err, a.repo.RollbackTransaction(), a.load(ctx))
	}
	if err := a.repo.CommitTransaction(ctx); err != nil {
		return errors.Join(err, a.load(ctx))
	}
	return nil
}

// Metadata returns a copy of the account preferences.
func (a *Account) Metadata() models.AccountMetadata { return a.metadata }

// SetMetadata replaces the preferences as a whole.
func (a *Account) SetMetadata(ctx context.Context, m models.AccountMetadata) error {
	if !a.loggedIn {
		return ErrLocked
	}
	if err := a.repo.SetMetadata(ctx, m); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	a.metadata = m
	return nil
}

// Currency is the account's custom currency when enabled, else the system one.
func (a *Account) Currency() currency.Currency {
	return a.metadata.Currency(a.systemCurrency())
}

func (a *Account) systemCurrency() currency.Currency {
	if a.opts.Currency != nil {
		return a.opts.Currency.SystemCurrency()
	}
	return currency.ForLocale(currency.LocaleFromEnv())
}

// FormatAmount renders amount in the account currency.
func (a *Account) FormatAmount(amount decimal.Decimal, showSymbol bool) string {
	return currency.Format(amount, a.Currency(), showSymbol, true)
}

// Tags lists every tag in use.
func (a *Account) Tags() []string { return append([]string(nil), a.tags...) }

func (a *Account) addTags(tags []string) []string {
	var added []string
	for _, tag := range tags {
		if !containsString(a.tags, tag) {
			a.tags = append(a.tags, tag)
			added = append(added, tag)
		}
	}
	return added
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func (a *Account) sortedIDs() []uint {
	ids := make([]uint, 0, len(a.transactions))
	for id := range a.transactions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
