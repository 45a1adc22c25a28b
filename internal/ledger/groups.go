package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jask/moneyvault/internal/models"
)

var ErrEmptyGroupName = errors.New("ledger: group name is empty")

// Groups returns copies of every group, the ungrouped one first.
func (a *Account) Groups() []*models.Group {
	out := make([]*models.Group, 0, len(a.groups))
	for _, g := range a.groups {
		out = append(out, g.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Group returns a copy of group id.
func (a *Account) Group(id int) (*models.Group, bool) {
	g, ok := a.groups[id]
	if !ok {
		return nil, false
	}
	return g.Clone(), true
}

// GroupByName finds a real group by exact name.
func (a *Account) GroupByName(name string) (*models.Group, bool) {
	for id, g := range a.groups {
		if id != models.UngroupedID && g.Name == name {
			return g.Clone(), true
		}
	}
	return nil, false
}

// NextGroupID is one more than the largest group id, starting at 1.
func (a *Account) NextGroupID() int {
	next := 1
	for id := range a.groups {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

func (a *Account) checkGroupName(id int, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyGroupName
	}
	for gid, g := range a.groups {
		if gid != id && gid != models.UngroupedID && g.Name == name {
			return fmt.Errorf("%w: %q", ErrGroupNameTaken, name)
		}
	}
	return nil
}

// AddGroup stores a new group. Its id must be positive and unused and its
// name unique.
func (a *Account) AddGroup(ctx context.Context, g *models.Group) error {
	if !a.loggedIn {
		return ErrLocked
	}
	if g.ID <= 0 {
		return fmt.Errorf("%w: group %d", ErrInvalidID, g.ID)
	}
	if _, ok := a.groups[g.ID]; ok {
		return fmt.Errorf("%w: group %d", ErrDuplicateID, g.ID)
	}
	if err := a.checkGroupName(g.ID, g.Name); err != nil {
		return err
	}
	if err := a.repo.AddGroup(ctx, g); err != nil {
		return fmt.Errorf("add group %d: %w", g.ID, err)
	}
	stored := models.NewGroup(g.ID)
	stored.Name, stored.Description, stored.Color = g.Name, g.Description, g.Color
	a.groups[g.ID] = stored
	return nil
}

// UpdateGroup rewrites name, description and colour of an existing group.
func (a *Account) UpdateGroup(ctx context.Context, g *models.Group) error {
	if !a.loggedIn {
		return ErrLocked
	}
	if g.ID == models.UngroupedID {
		return ErrReservedGroup
	}
	cur, ok := a.groups[g.ID]
	if !ok {
		return fmt.Errorf("%w: group %d", ErrNotFound, g.ID)
	}
	if err := a.checkGroupName(g.ID, g.Name); err != nil {
		return err
	}
	if err := a.repo.UpdateGroup(ctx, g); err != nil {
		return fmt.Errorf("update group %d: %w", g.ID, err)
	}
	cur.Name, cur.Description, cur.Color = g.Name, g.Description, g.Color
	return nil
}

// DeleteGroup removes group id. Its transactions become ungrouped and stop
// using the group colour.
func (a *Account) DeleteGroup(ctx context.Context, id int) error {
	if !a.loggedIn {
		return ErrLocked
	}
	if id == models.UngroupedID {
		return ErrReservedGroup
	}
	g, ok := a.groups[id]
	if !ok {
		return fmt.Errorf("%w: group %d", ErrNotFound, id)
	}
	if err := a.repo.DeleteGroup(ctx, id); err != nil {
		return fmt.Errorf("delete group %d: %w", id, err)
	}
	for tid, t := range a.transactions {
		if t.GroupID == id {
			t.GroupID = models.UngroupedID
			t.UseGroupColor = false
			a.transactions[tid] = t
		}
	}
	g.MoveBalances(a.groups[models.UngroupedID])
	delete(a.groups, id)
	a.log.Debug("group deleted", "group", id)
	return nil
}
