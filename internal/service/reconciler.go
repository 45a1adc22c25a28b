package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/moneyvault/internal/models"
)

// DefaultWindowDays is how far apart two entries may be dated and still be
// considered the same payment.
const DefaultWindowDays = 7

const fuzzyThreshold = 0.4

// Ledger is the account surface the reconciler reads and writes through.
type Ledger interface {
	Transactions() []models.Transaction
	UpdateTransaction(ctx context.Context, t models.Transaction, updateGenerated bool) ([]string, error)
	DeleteTransaction(ctx context.Context, id uint, deleteGenerated bool) error
}

// Candidate is a pair of transactions that look like the same payment.
type Candidate struct {
	A, B       models.Transaction
	Similarity float64
	Exact      bool
}

// Reconciler implements duplicate detection.
type Reconciler struct {
	Ledger Ledger
	// WindowDays defaults to DefaultWindowDays when zero.
	WindowDays int
}

// Detect runs the exact then fuzzy stages over the ledger and returns every
// candidate pair, most similar first. Occurrences of one repeat series are
// never paired with each other.
func (r *Reconciler) Detect() []Candidate {
	window := r.WindowDays
	if window <= 0 {
		window = DefaultWindowDays
	}
	txs := r.Ledger.Transactions()
	sort.Slice(txs, func(i, j int) bool {
		if c := txs[i].Date.Compare(txs[j].Date); c != 0 {
			return c < 0
		}
		return txs[i].ID < txs[j].ID
	})

	var out []Candidate
	for i := 0; i < len(txs); i++ {
		for j := i + 1; j < len(txs); j++ {
			a, b := txs[i], txs[j]
			if daysApart(a.Date, b.Date) > window {
				break
			}
			if sameSeries(a, b) {
				continue
			}
			// Stage1 exact
			if matchExact(a, b) {
				out = append(out, Candidate{A: a, B: b, Similarity: 1, Exact: true})
				continue
			}
			// Stage2 fuzzy
			if matchFuzzyCandidate(a, b) {
				out = append(out, Candidate{A: a, B: b, Similarity: similarity(a, b)})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out
}

// Merge folds the pair into one transaction. The kept entry picks up the
// other's group, notes, receipt and tags where it has none of its own.
func (r *Reconciler) Merge(ctx context.Context, c Candidate) (models.Transaction, error) {
	keep, drop := chooseKeep(c.A, c.B)
	keep = keep.Clone()
	changed := false
	// carry metadata
	if keep.GroupID == models.UngroupedID && drop.GroupID != models.UngroupedID {
		keep.GroupID = drop.GroupID
		keep.UseGroupColor = drop.UseGroupColor
		changed = true
	}
	if keep.Notes == "" && drop.Notes != "" {
		keep.Notes = drop.Notes
		changed = true
	}
	if keep.Receipt.IsEmpty() && !drop.Receipt.IsEmpty() {
		keep.Receipt = drop.Receipt.Clone()
		changed = true
	}
	for _, tag := range drop.Tags {
		if keep.AddTag(tag) {
			changed = true
		}
	}
	if changed {
		// A kept source carries its occurrences along; detaching them would
		// make the next sync generate the series a second time.
		if _, err := r.Ledger.UpdateTransaction(ctx, keep, keep.IsSource()); err != nil {
			return keep, fmt.Errorf("update kept transaction %d: %w", keep.ID, err)
		}
	}
	if err := r.Ledger.DeleteTransaction(ctx, drop.ID, false); err != nil {
		return keep, fmt.Errorf("delete duplicate %d: %w", drop.ID, err)
	}
	return keep, nil
}

func matchExact(a, b models.Transaction) bool {
	return a.Type == b.Type && a.Amount.Equal(b.Amount) && a.Date.Equal(b.Date) &&
		normalize(a.Description) == normalize(b.Description)
}

func matchFuzzyCandidate(a, b models.Transaction) bool {
	if a.Type != b.Type || !a.Amount.Equal(b.Amount) {
		return false
	}
	da, db := normalize(a.Description), normalize(b.Description)
	maxlen := max(len(da), len(db))
	if maxlen == 0 {
		return false
	}
	dist := levenshtein.ComputeDistance(da, db)
	return float64(dist)/float64(maxlen) < fuzzyThreshold
}

func normalize(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func daysApart(a, b models.Date) int {
	d := a.Time().Sub(b.Time())
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

func similarity(a, b models.Transaction) float64 {
	if !a.Amount.Equal(b.Amount) {
		return 0
	}
	da, db := normalize(a.Description), normalize(b.Description)
	maxlen := max(len(da), len(db))
	if maxlen == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(da, db))/float64(maxlen)
}

// seriesOf is the source id a transaction belongs to, or 0.
func seriesOf(t models.Transaction) uint {
	switch {
	case t.IsGenerated():
		return uint(t.RepeatFrom)
	case t.IsSource():
		return t.ID
	}
	return 0
}

func sameSeries(a, b models.Transaction) bool {
	sa := seriesOf(a)
	return sa != 0 && sa == seriesOf(b)
}

// chooseKeep prefers repeat sources, then grouped entries, then the older id.
func chooseKeep(a, b models.Transaction) (keep, drop models.Transaction) {
	if a.IsSource() != b.IsSource() {
		if a.IsSource() {
			return a, b
		}
		return b, a
	}
	if a.IsGenerated() != b.IsGenerated() {
		if a.IsGenerated() {
			return a, b
		}
		return b, a
	}
	ag, bg := a.GroupID != models.UngroupedID, b.GroupID != models.UngroupedID
	if ag != bg {
		if ag {
			return a, b
		}
		return b, a
	}
	if b.ID < a.ID {
		return b, a
	}
	return a, b
}
