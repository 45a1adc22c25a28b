package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jask/moneyvault/internal/models"
)

var ErrInvalidRepeat = errors.New("ledger: invalid repeat interval")

// Transactions returns copies of every transaction ordered by id.
func (a *Account) Transactions() []models.Transaction {
	out := make([]models.Transaction, 0, len(a.transactions))
	for _, id := range a.sortedIDs() {
		out = append(out, a.transactions[id].Clone())
	}
	return out
}

// SortedTransactions orders transactions the way the account metadata asks.
func (a *Account) SortedTransactions() []models.Transaction {
	out := a.Transactions()
	by, asc := a.metadata.SortTransactionsBy, a.metadata.SortFirstToLast
	sort.SliceStable(out, func(i, j int) bool {
		x, y := out[i], out[j]
		c := 0
		switch by {
		case models.SortByDate:
			c = x.Date.Compare(y.Date)
		case models.SortByAmount:
			c = x.Signed().Cmp(y.Signed())
		}
		if c == 0 {
			switch {
			case x.ID < y.ID:
				c = -1
			case x.ID > y.ID:
				c = 1
			}
		}
		if asc {
			return c < 0
		}
		return c > 0
	})
	return out
}

func (a *Account) Transaction(id uint) (models.Transaction, bool) {
	t, ok := a.transactions[id]
	if !ok {
		return models.Transaction{}, false
	}
	return t.Clone(), true
}

// NextTransactionID is one more than the largest transaction id, starting at 1.
func (a *Account) NextTransactionID() uint {
	var next uint = 1
	for id := range a.transactions {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// GeneratedFrom lists the ids of transactions generated from sourceID.
func (a *Account) GeneratedFrom(sourceID uint) []uint {
	var ids []uint
	for _, id := range a.sortedIDs() {
		if a.transactions[id].RepeatFrom == int(sourceID) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (a *Account) validate(t models.Transaction, isNew bool) error {
	if t.ID == 0 {
		return fmt.Errorf("%w: transaction 0", ErrInvalidID)
	}
	_, exists := a.transactions[t.ID]
	if isNew && exists {
		return fmt.Errorf("%w: transaction %d", ErrDuplicateID, t.ID)
	}
	if !isNew && !exists {
		return fmt.Errorf("%w: transaction %d", ErrNotFound, t.ID)
	}
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !t.RepeatInterval.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRepeat, t.RepeatInterval)
	}
	if _, ok := a.groups[t.GroupID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownGroup, t.GroupID)
	}
	return nil
}

func prepare(t models.Transaction) models.Transaction {
	t = t.Clone()
	t.Tags = models.NormalizeTags(t.Tags)
	if t.RepeatFrom < models.NotRepeating {
		t.RepeatFrom = models.NotRepeating
	}
	if t.RepeatFrom == models.NotRepeating && t.RepeatInterval != models.RepeatNever {
		t.RepeatFrom = models.RepeatSource
	}
	return t
}

// insert persists t and records it in the maps.
func (a *Account) insert(ctx context.Context, t models.Transaction) ([]string, error) {
	if err := a.repo.AddTransaction(ctx, t); err != nil {
		return nil, fmt.Errorf("add transaction %d: %w", t.ID, err)
	}
	a.transactions[t.ID] = t
	a.groupFor(t.GroupID).UpdateBalance(t, false)
	return a.addTags(t.Tags), nil
}

// remove drops id from the maps only.
func (a *Account) remove(id uint) {
	if t, ok := a.transactions[id]; ok {
		a.groupFor(t.GroupID).UpdateBalance(t, true)
		delete(a.transactions, id)
	}
}

// replace swaps the stored copy of t.ID for t, keeping balances in step.
func (a *Account) replace(t models.Transaction) {
	a.remove(t.ID)
	a.transactions[t.ID] = t
	a.groupFor(t.GroupID).UpdateBalance(t, false)
}

// AddTransaction stores t and returns the tags it introduced. Adding a
// repeat source catches up its occurrences.
func (a *Account) AddTransaction(ctx context.Context, t models.Transaction) ([]string, error) {
	if !a.loggedIn {
		return nil, ErrLocked
	}
	t = prepare(t)
	if t.RepeatFrom == models.RepeatSource && t.RepeatInterval == models.RepeatNever {
		t.RepeatFrom = models.NotRepeating
	}
	if err := a.validate(t, true); err != nil {
		return nil, err
	}
	var added []string
	err := a.batch(ctx, func() error {
		var err error
		if added, err = a.insert(ctx, t); err != nil {
			return err
		}
		if t.IsSource() {
			_, err = a.syncSource(ctx, t.ID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// UpdateTransaction rewrites t. For a repeat source, generated rows take over
// the new values with updateGenerated or are detached from the series.
func (a *Account) UpdateTransaction(ctx context.Context, t models.Transaction, updateGenerated bool) ([]string, error) {
	if !a.loggedIn {
		return nil, ErrLocked
	}
	t = prepare(t)
	if err := a.validate(t, false); err != nil {
		return nil, err
	}
	var added []string
	err := a.batch(ctx, func() error {
		if err := a.repo.UpdateTransaction(ctx, t, updateGenerated); err != nil {
			return fmt.Errorf("update transaction %d: %w", t.ID, err)
		}
		a.replace(t)
		added = a.addTags(t.Tags)
		if t.RepeatFrom != models.RepeatSource {
			return nil
		}
		for _, id := range a.GeneratedFrom(t.ID) {
			g := a.transactions[id]
			if updateGenerated {
				g = follow(g, t)
			} else {
				g.RepeatInterval = models.RepeatNever
				g.RepeatFrom = models.NotRepeating
				g.RepeatEndDate = models.Date{}
			}
			a.replace(g)
		}
		if t.IsSource() {
			_, err := a.syncSource(ctx, t.ID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// follow copies the series fields of src onto generated row g.
func follow(g, src models.Transaction) models.Transaction {
	g.Description = src.Description
	g.Type = src.Type
	g.RepeatInterval = src.RepeatInterval
	g.Amount = src.Amount
	g.GroupID = src.GroupID
	g.Color = src.Color
	g.UseGroupColor = src.UseGroupColor
	g.Receipt = src.Receipt.Clone()
	g.RepeatEndDate = src.RepeatEndDate
	g.Notes = src.Notes
	g.Tags = append([]string(nil), src.Tags...)
	return g
}

// DeleteTransaction removes id. Rows generated from it are deleted too with
// deleteGenerated, otherwise they are detached.
func (a *Account) DeleteTransaction(ctx context.Context, id uint, deleteGenerated bool) error {
	if !a.loggedIn {
		return ErrLocked
	}
	if _, ok := a.transactions[id]; !ok {
		return fmt.Errorf("%w: transaction %d", ErrNotFound, id)
	}
	if err := a.repo.DeleteTransaction(ctx, id, deleteGenerated); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	a.remove(id)
	for _, gid := range a.GeneratedFrom(id) {
		if deleteGenerated {
			a.remove(gid)
			continue
		}
		g := a.transactions[gid]
		g.RepeatInterval = models.RepeatNever
		g.RepeatFrom = models.NotRepeating
		g.RepeatEndDate = models.Date{}
		a.transactions[gid] = g
	}
	return nil
}

// DeleteGeneratedTransactions removes every row generated from sourceID and
// keeps the source.
func (a *Account) DeleteGeneratedTransactions(ctx context.Context, sourceID uint) error {
	if !a.loggedIn {
		return ErrLocked
	}
	if _, ok := a.transactions[sourceID]; !ok {
		return fmt.Errorf("%w: transaction %d", ErrNotFound, sourceID)
	}
	if err := a.repo.DeleteGeneratedTransactions(ctx, sourceID); err != nil {
		return fmt.Errorf("delete generated from %d: %w", sourceID, err)
	}
	for _, id := range a.GeneratedFrom(sourceID) {
		a.remove(id)
	}
	return nil
}
