// Package testdata builds deterministic sample ledgers for tests and the
// CLI's sample account.
package testdata

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/jask/moneyvault/internal/importer"
	"github.com/jask/moneyvault/internal/models"
)

// Ledger is the part of an account Seed writes through.
type Ledger interface {
	NextGroupID() int
	AddGroup(ctx context.Context, g *models.Group) error
	NextTransactionID() uint
	AddTransaction(ctx context.Context, t models.Transaction) ([]string, error)
}

// Fixture is a generated set of groups and non-repeating transactions.
type Fixture struct {
	Groups       map[int]*models.Group
	Transactions []models.Transaction
	// Net is income minus expense over every transaction.
	Net decimal.Decimal
}

var descriptions = []string{"UBER EATS* SUSHI", "AMAZON.COM*XYZ", "WOOLWORTHS", "SPOTIFY", "SALARY ACME", "RENT", "PHARMACY"}

// Generate builds n transactions spread over two groups and the ungrouped
// bucket, dated from 1/1/2020 onward. The same seed gives the same fixture.
func Generate(n int, seed int64) Fixture {
	r := rand.New(rand.NewSource(seed))

	work := models.NewGroup(1)
	work.Name, work.Description = "Work", "Salary and reimbursements"
	work.Color = models.Color{R: 0x33, G: 0x66, B: 0x99, A: 0xff}
	home := models.NewGroup(2)
	home.Name, home.Description = "Home", "Household spending"
	home.Color = models.Color{R: 0x99, G: 0x33, B: 0x33, A: 0xff}

	f := Fixture{
		Groups: map[int]*models.Group{work.ID: work, home.ID: home},
		Net:    decimal.Zero,
	}
	start := models.NewDate(2020, 1, 1)
	for i := 0; i < n; i++ {
		t := models.NewTransaction(uint(i + 1))
		t.Date = start.AddDays(i % 1000)
		t.Description = descriptions[r.Intn(len(descriptions))]
		t.Amount = decimal.New(int64(r.Intn(200000)+1), -2)
		t.Type = models.Expense
		if r.Intn(4) == 0 {
			t.Type = models.Income
		}
		switch r.Intn(3) {
		case 0:
			t.GroupID = work.ID
			t.UseGroupColor = true
		case 1:
			t.GroupID = home.ID
		default:
			t.GroupID = models.UngroupedID
		}
		if r.Intn(5) == 0 {
			t.Tags = []string{"sample"}
		} else {
			t.Tags = []string{}
		}
		f.Transactions = append(f.Transactions, t)
		f.Net = f.Net.Add(t.Signed())
	}
	return f
}

// WriteCSV generates a fixture and writes it to path in the export layout.
func WriteCSV(path string, n int, seed int64) (Fixture, error) {
	f := Generate(n, seed)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return f, err
	}
	out, err := os.Create(path)
	if err != nil {
		return f, err
	}
	if err := importer.WriteCSV(out, f.Transactions, f.Groups); err != nil {
		out.Close()
		return f, err
	}
	return f, out.Close()
}

// Seed adds a small sample ledger through l, renumbering ids to fit.
func Seed(ctx context.Context, l Ledger, seed int64) error {
	f := Generate(20, seed)
	remap := make(map[int]int, len(f.Groups))
	for _, id := range []int{1, 2} {
		g := f.Groups[id]
		g.ID = l.NextGroupID()
		if err := l.AddGroup(ctx, g); err != nil {
			return fmt.Errorf("seed group %q: %w", g.Name, err)
		}
		remap[id] = g.ID
	}
	for _, t := range f.Transactions {
		t.ID = l.NextTransactionID()
		if gid, ok := remap[t.GroupID]; ok {
			t.GroupID = gid
		}
		if _, err := l.AddTransaction(ctx, t); err != nil {
			return fmt.Errorf("seed transaction: %w", err)
		}
	}
	return nil
}
