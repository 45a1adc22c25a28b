package ledger

import (
	"context"
)

// Sync brings every repeat series up to today: missing occurrences are
// inserted, catching up several periods at once, and generated rows past the
// series end date are deleted. It reports whether anything changed and is
// idempotent.
func (a *Account) Sync(ctx context.Context) (bool, error) {
	var sources []uint
	for _, id := range a.sortedIDs() {
		if a.transactions[id].IsSource() {
			sources = append(sources, id)
		}
	}
	if len(sources) == 0 {
		return false, nil
	}
	modified := false
	err := a.batch(ctx, func() error {
		for _, id := range sources {
			changed, err := a.syncSource(ctx, id)
			if err != nil {
				return err
			}
			modified = modified || changed
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if modified {
		a.log.Info("repeat transactions synced", "sources", len(sources))
	}
	return modified, nil
}

// syncSource handles one series. Callers hold the guard.
func (a *Account) syncSource(ctx context.Context, sourceID uint) (bool, error) {
	src, ok := a.transactions[sourceID]
	if !ok || !src.IsSource() || !src.RepeatInterval.Valid() {
		return false, nil
	}
	modified := false
	latest := src.Date
	for _, id := range a.GeneratedFrom(sourceID) {
		g := a.transactions[id]
		if src.HasEndDate() && g.Date.After(src.RepeatEndDate) {
			if err := a.repo.DeleteTransaction(ctx, id, false); err != nil {
				return modified, err
			}
			a.remove(id)
			modified = true
			continue
		}
		if g.Date.After(latest) {
			latest = g.Date
		}
	}

	today := a.today()
	for next := src.RepeatInterval.Next(latest); next.After(latest); next = src.RepeatInterval.Next(latest) {
		if next.After(today) || (src.HasEndDate() && next.After(src.RepeatEndDate)) {
			break
		}
		occurrence := src.Repeat(a.NextTransactionID(), next)
		if _, err := a.insert(ctx, occurrence); err != nil {
			return modified, err
		}
		latest = next
		modified = true
	}
	return modified, nil
}
