package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Group is a named bucket of transactions with a cached per-transaction balance.
type Group struct {
	ID          int
	Name        string
	Description string
	Color       Color

	balances map[uint]decimal.Decimal
}

func NewGroup(id int) *Group {
	return &Group{ID: id, balances: make(map[uint]decimal.Decimal)}
}

// Ungrouped returns the synthetic group that collects ungrouped transactions.
func Ungrouped() *Group {
	g := NewGroup(UngroupedID)
	g.Name = "Ungrouped"
	return g
}

// UpdateBalance records t's signed amount, or forgets it when remove is set.
func (g *Group) UpdateBalance(t Transaction, remove bool) {
	if g.balances == nil {
		g.balances = make(map[uint]decimal.Decimal)
	}
	if remove {
		delete(g.balances, t.ID)
		return
	}
	g.balances[t.ID] = t.Signed()
}

// Contains reports whether the cache holds transaction id.
func (g *Group) Contains(id uint) bool {
	_, ok := g.balances[id]
	return ok
}

// TransactionIDs lists cached ids in ascending order.
func (g *Group) TransactionIDs() []uint {
	ids := make([]uint, 0, len(g.balances))
	for id := range g.balances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MoveBalances transfers every cached entry into dst and empties g.
func (g *Group) MoveBalances(dst *Group) {
	if dst.balances == nil {
		dst.balances = make(map[uint]decimal.Decimal, len(g.balances))
	}
	for id, v := range g.balances {
		dst.balances[id] = v
	}
	g.balances = make(map[uint]decimal.Decimal)
}

func (g *Group) Balance() decimal.Decimal { return g.sum(nil, 0) }

// Income is the sum of positive entries.
func (g *Group) Income() decimal.Decimal { return g.sum(nil, 1) }

// Expense is the sum of negative entries, so it is never positive.
func (g *Group) Expense() decimal.Decimal { return g.sum(nil, -1) }

// BalanceOf restricts Balance to the given transaction ids.
func (g *Group) BalanceOf(ids []uint) decimal.Decimal { return g.sum(idSet(ids), 0) }
func (g *Group) IncomeOf(ids []uint) decimal.Decimal  { return g.sum(idSet(ids), 1) }
func (g *Group) ExpenseOf(ids []uint) decimal.Decimal { return g.sum(idSet(ids), -1) }

// Clone copies the group including its cache.
func (g *Group) Clone() *Group {
	c := *g
	c.balances = make(map[uint]decimal.Decimal, len(g.balances))
	for id, v := range g.balances {
		c.balances[id] = v
	}
	return &c
}

func (g *Group) sum(filter map[uint]struct{}, sign int) decimal.Decimal {
	total := decimal.Zero
	for id, v := range g.balances {
		if filter != nil {
			if _, ok := filter[id]; !ok {
				continue
			}
		}
		if sign != 0 && v.Sign() != sign {
			continue
		}
		total = total.Add(v)
	}
	return total
}

func idSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
