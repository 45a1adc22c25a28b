package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/moneyvault/internal/currency"
	"github.com/jask/moneyvault/internal/database"
	"github.com/jask/moneyvault/internal/models"
	"github.com/jask/moneyvault/internal/vault"
)

var testOpts = database.Options{KDF: vault.Params{Time: 1, Memory: 8 * 1024, Threads: 1}}

func openRepo(t *testing.T, path string) *Repository {
	t.Helper()
	repo, err := Open(path, testOpts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	ok, err := repo.Login(context.Background(), "")
	require.NoError(t, err)
	require.True(t, ok)
	return repo
}

func sample(id uint, date models.Date) models.Transaction {
	tx := models.NewTransaction(id)
	tx.Date = date
	tx.Description = "Groceries"
	tx.Type = models.Expense
	tx.Amount = decimal.RequireFromString("42.17")
	tx.Color = models.ParseColor("#336699")
	tx.Notes = "weekly shop"
	tx.Tags = []string{"food", "home"}
	tx.Receipt = models.Receipt{Type: models.ReceiptJPEG, Data: []byte{0xff, 0xd8, 0xff}}
	return tx
}

func TestMetadataSeededAndReplaced(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, filepath.Join(t.TempDir(), "meta.nmoney"))

	m, err := repo.GetMetadata(ctx, "Checking")
	require.NoError(t, err)
	require.Equal(t, "Checking", m.Name)
	require.Equal(t, models.RemindOneDayBefore, m.RemindersThreshold)

	c := currency.New("€", "EUR")
	c.SetDecimalSeparator(",")
	require.True(t, c.SetGroupSeparator("."))
	c.SetDecimalDigits(3)
	c.Style = currency.NumberSpaceSymbol
	m.UseCustomCurrency = true
	m.CustomCurrency = c
	m.Type = models.Savings
	m.SortTransactionsBy = models.SortByAmount
	m.ShowTagsList = false
	require.NoError(t, repo.SetMetadata(ctx, m))

	got, err := repo.GetMetadata(ctx, "ignored")
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestTransactionRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "round.nmoney")
	repo, err := Open(path, testOpts)
	require.NoError(t, err)
	_, err = repo.Login(ctx, "")
	require.NoError(t, err)

	want := sample(1, models.NewDate(2024, time.February, 29))
	want.RepeatEndDate = models.NewDate(2024, time.December, 31)
	require.NoError(t, repo.AddTransaction(ctx, want))
	empty := models.NewTransaction(2)
	empty.Date = models.NewDate(2024, time.March, 1)
	require.NoError(t, repo.AddTransaction(ctx, empty))
	require.NoError(t, repo.Close())

	repo = openRepo(t, path)
	got, err := repo.GetTransaction(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.Amount.Equal(want.Amount))
	require.True(t, got.Date.Equal(want.Date))
	require.True(t, got.RepeatEndDate.Equal(want.RepeatEndDate))
	require.Equal(t, want.Tags, got.Tags)
	require.Equal(t, want.Receipt, got.Receipt)
	require.Equal(t, want.Color, got.Color)
	require.Equal(t, want.Notes, got.Notes)
	require.Equal(t, models.Expense, got.Type)

	second, err := repo.GetTransaction(ctx, 2)
	require.NoError(t, err)
	require.Empty(t, second.Tags)
	require.True(t, second.Receipt.IsEmpty())

	missing, err := repo.GetTransaction(ctx, 99)
	require.NoError(t, err)
	require.Nil(t, missing)

	tags, err := repo.GetTags(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"food", "home"}, tags)
}

func TestDeleteGroupReassigns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, filepath.Join(t.TempDir(), "groups.nmoney"))

	g := models.NewGroup(1)
	g.Name = "Bills"
	g.Color = models.ParseColor("#ff0000")
	require.NoError(t, repo.AddGroup(ctx, g))
	g.Description = "monthly"
	require.NoError(t, repo.UpdateGroup(ctx, g))

	tx := sample(1, models.NewDate(2024, time.January, 5))
	tx.GroupID = 1
	tx.UseGroupColor = true
	require.NoError(t, repo.AddTransaction(ctx, tx))

	require.NoError(t, repo.DeleteGroup(ctx, 1))
	require.ErrorIs(t, repo.DeleteGroup(ctx, 1), ErrNotFound)

	groups, err := repo.GetGroups(ctx)
	require.NoError(t, err)
	require.Empty(t, groups)

	got, err := repo.GetTransaction(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, models.UngroupedID, got.GroupID)
	require.False(t, got.UseGroupColor)
}

func TestSourceCascade(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, filepath.Join(t.TempDir(), "cascade.nmoney"))

	src := sample(1, models.NewDate(2024, time.January, 1))
	src.RepeatFrom = models.RepeatSource
	src.RepeatInterval = models.RepeatMonthly
	require.NoError(t, repo.AddTransaction(ctx, src))
	for i, d := range []models.Date{models.NewDate(2024, time.February, 1), models.NewDate(2024, time.March, 1)} {
		require.NoError(t, repo.AddTransaction(ctx, src.Repeat(uint(i+2), d)))
	}

	src.Description = "Rent"
	src.Amount = decimal.NewFromInt(900)
	src.Tags = []string{"housing"}
	require.NoError(t, repo.UpdateTransaction(ctx, src, true))
	gen, err := repo.GetTransaction(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, "Rent", gen.Description)
	require.True(t, gen.Amount.Equal(decimal.NewFromInt(900)))
	require.Equal(t, []string{"housing"}, gen.Tags)
	require.True(t, gen.Date.Equal(models.NewDate(2024, time.March, 1)))
	require.Equal(t, 1, gen.RepeatFrom)

	require.NoError(t, repo.UpdateTransaction(ctx, src, false))
	gen, err = repo.GetTransaction(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, models.NotRepeating, gen.RepeatFrom)
	require.Equal(t, models.RepeatNever, gen.RepeatInterval)
	require.True(t, gen.RepeatEndDate.IsZero())

	require.NoError(t, repo.AddTransaction(ctx, src.Repeat(4, models.NewDate(2024, time.April, 1))))
	require.NoError(t, repo.DeleteTransaction(ctx, 1, true))
	all, err := repo.GetTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.ErrorIs(t, repo.DeleteTransaction(ctx, 1, true), ErrNotFound)
}

func TestUpcomingTransactions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, filepath.Join(t.TempDir(), "upcoming.nmoney"))
	today := models.NewDate(2024, time.June, 10)

	weekly := sample(1, models.NewDate(2024, time.May, 27))
	weekly.RepeatFrom = models.RepeatSource
	weekly.RepeatInterval = models.RepeatWeekly
	require.NoError(t, repo.AddTransaction(ctx, weekly))
	require.NoError(t, repo.AddTransaction(ctx, weekly.Repeat(2, models.NewDate(2024, time.June, 3))))
	require.NoError(t, repo.AddTransaction(ctx, weekly.Repeat(3, models.NewDate(2024, time.June, 10))))

	yearly := sample(4, models.NewDate(2024, time.January, 1))
	yearly.RepeatFrom = models.RepeatSource
	yearly.RepeatInterval = models.RepeatYearly
	require.NoError(t, repo.AddTransaction(ctx, yearly))

	ended := sample(5, models.NewDate(2024, time.June, 9))
	ended.RepeatFrom = models.RepeatSource
	ended.RepeatInterval = models.RepeatDaily
	ended.RepeatEndDate = models.NewDate(2024, time.June, 9)
	require.NoError(t, repo.AddTransaction(ctx, ended))

	future := sample(6, models.NewDate(2024, time.June, 12))
	require.NoError(t, repo.AddTransaction(ctx, future))
	past := sample(7, models.NewDate(2024, time.June, 1))
	require.NoError(t, repo.AddTransaction(ctx, past))
	tooFar := sample(8, models.NewDate(2024, time.July, 30))
	require.NoError(t, repo.AddTransaction(ctx, tooFar))

	up, err := repo.GetUpcomingTransactions(ctx, today, today.AddDays(7))
	require.NoError(t, err)
	require.Len(t, up, 2)
	require.Equal(t, uint(6), up[0].Transaction.ID)
	require.True(t, up[0].Due.Equal(models.NewDate(2024, time.June, 12)))
	require.Equal(t, uint(3), up[1].Transaction.ID)
	require.True(t, up[1].Due.Equal(models.NewDate(2024, time.June, 17)))
}

func TestGuardThroughRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openRepo(t, filepath.Join(t.TempDir(), "batch.nmoney"))

	require.NoError(t, repo.BeginTransaction(ctx))
	require.ErrorIs(t, repo.BeginTransaction(ctx), database.ErrTransactionInProgress)
	g := models.NewGroup(1)
	g.Name = "Batch"
	require.NoError(t, repo.AddGroup(ctx, g))
	require.NoError(t, repo.AddTransaction(ctx, sample(1, models.NewDate(2024, time.January, 1))))
	// DeleteGroup joins the open transaction instead of starting another.
	require.NoError(t, repo.DeleteGroup(ctx, 1))
	require.NoError(t, repo.CommitTransaction(ctx))
	require.ErrorIs(t, repo.CommitTransaction(ctx), database.ErrNoTransaction)

	groups, err := repo.GetGroups(ctx)
	require.NoError(t, err)
	require.Empty(t, groups)
}

func TestEncryptedLogin(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	path := filepath.Join(t.TempDir(), "enc.nmoney")

	repo, err := Open(path, testOpts)
	require.NoError(t, err)
	_, err = repo.Login(ctx, "")
	require.NoError(t, err)
	require.NoError(t, repo.AddTransaction(ctx, sample(1, models.NewDate(2024, time.January, 1))))
	require.NoError(t, repo.ChangePassword(ctx, "s3cret"))
	require.NoError(t, repo.Close())

	repo, err = Open(path, testOpts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	require.True(t, repo.IsEncrypted())
	ok, err := repo.Login(ctx, "nope")
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = repo.Login(ctx, "s3cret")
	require.NoError(t, err)
	require.True(t, ok)

	all, err := repo.GetTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, []string{"food", "home"}, all[0].Tags)
}
