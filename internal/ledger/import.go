package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jask/moneyvault/internal/importer"
	"github.com/jask/moneyvault/internal/models"
)

// ImportFromFile parses path and applies it in one guard: missing groups
// first, then transactions, then a repeat catch-up. Files that cannot be
// parsed give an empty result carrying the parse error. A storage failure
// rolls the whole import back.
func (a *Account) ImportFromFile(ctx context.Context, path string, txColor, groupColor models.Color) (*models.ImportResult, error) {
	res := &models.ImportResult{BatchID: uuid.NewString()}
	if !a.loggedIn {
		return res, ErrLocked
	}
	b, err := importer.ParseFile(path)
	if err != nil {
		res.Errors = append(res.Errors, err)
		a.log.Warn("import failed", "path", path, "err", err)
		return res, nil
	}
	return a.Import(ctx, b, txColor, groupColor, res.BatchID)
}

// Import applies an already parsed batch. See ImportFromFile.
func (a *Account) Import(ctx context.Context, b *importer.Batch, txColor, groupColor models.Color, batchID string) (*models.ImportResult, error) {
	if batchID == "" {
		batchID = uuid.NewString()
	}
	res := &models.ImportResult{BatchID: batchID, Skipped: b.Skipped}
	res.Errors = append(res.Errors, b.Errors...)
	err := a.batch(ctx, func() error {
		return a.apply(ctx, b, txColor, groupColor, res)
	})
	if err != nil {
		return &models.ImportResult{BatchID: batchID, Errors: append(res.Errors, err)}, err
	}
	a.log.Info("import applied", "batch", batchID,
		"transactions", len(res.NewTransactionIDs()), "groups", len(res.NewGroupIDs()), "skipped", res.Skipped)
	return res, nil
}

func (a *Account) apply(ctx context.Context, b *importer.Batch, txColor, groupColor models.Color, res *models.ImportResult) error {
	byID := make(map[int]int)
	byName := make(map[string]int)
	for _, rec := range b.Groups {
		if rec.ID > 0 {
			if _, ok := a.groups[rec.ID]; ok {
				byID[rec.ID] = rec.ID
				continue
			}
		}
		if g, ok := a.GroupByName(rec.Name); ok {
			byID[rec.ID] = g.ID
			byName[rec.Name] = g.ID
			continue
		}
		id := rec.ID
		if id <= 0 {
			id = a.NextGroupID()
		}
		g := models.NewGroup(id)
		g.Name = rec.Name
		if g.Name == "" {
			g.Name = fmt.Sprintf("Group %d", id)
		}
		g.Description = rec.Description
		g.Color = rec.Color
		if g.Color.IsEmpty() {
			g.Color = groupColor
		}
		if err := a.AddGroup(ctx, g); err != nil {
			return err
		}
		byID[rec.ID] = id
		byName[rec.Name] = id
		res.AddGroup(id)
	}

	for _, rec := range b.Records {
		t := rec.Transaction
		if t.ID == 0 {
			t.ID = a.NextTransactionID()
		} else if _, ok := a.transactions[t.ID]; ok {
			res.Skipped++
			continue
		}
		switch {
		case t.GroupID > 0:
			gid, ok := byID[t.GroupID]
			if !ok {
				gid = models.UngroupedID
			}
			t.GroupID = gid
		case rec.GroupName != "":
			gid, ok := byName[rec.GroupName]
			if !ok {
				gid = models.UngroupedID
			}
			t.GroupID = gid
		default:
			t.GroupID = models.UngroupedID
		}
		if t.GroupID == models.UngroupedID {
			t.UseGroupColor = false
		}
		if t.Color.IsEmpty() {
			t.Color = txColor
		}
		t = prepare(t)
		if err := a.validate(t, true); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", rec.Line, err))
			continue
		}
		tags, err := a.insert(ctx, t)
		if err != nil {
			return err
		}
		res.AddTransaction(t.ID)
		for _, tag := range tags {
			res.AddTag(tag)
		}
	}

	first := a.NextTransactionID()
	for _, id := range a.sortedIDs() {
		if _, err := a.syncSource(ctx, id); err != nil {
			return err
		}
	}
	for _, id := range a.sortedIDs() {
		if id >= first {
			res.AddTransaction(id)
		}
	}
	return nil
}
