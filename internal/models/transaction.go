package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// UngroupedID is the group id of transactions that belong to no group.
const UngroupedID = -1

// RepeatFrom markers.
const (
	NotRepeating = -1
	RepeatSource = 0
)

type TransactionType int

const (
	Income TransactionType = iota
	Expense
)

func (t TransactionType) String() string {
	if t == Expense {
		return "expense"
	}
	return "income"
}

// Transaction is a single ledger entry.
type Transaction struct {
	ID             uint
	Date           Date
	Description    string
	Type           TransactionType
	RepeatInterval RepeatInterval
	Amount         decimal.Decimal
	GroupID        int
	Color          Color
	UseGroupColor  bool
	Receipt        Receipt
	// RepeatFrom is NotRepeating, RepeatSource, or the id of the source transaction.
	RepeatFrom    int
	RepeatEndDate Date
	Notes         string
	Tags          []string
}

// NewTransaction returns an ungrouped, non-repeating income entry dated today.
func NewTransaction(id uint) Transaction {
	return Transaction{
		ID:         id,
		Date:       Today(),
		Type:       Income,
		GroupID:    UngroupedID,
		RepeatFrom: NotRepeating,
		Amount:     decimal.Zero,
	}
}

// Signed is +Amount for income and -Amount for expenses.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsSource reports whether t drives generated occurrences.
func (t Transaction) IsSource() bool {
	return t.RepeatFrom == RepeatSource && t.RepeatInterval != RepeatNever
}

func (t Transaction) IsGenerated() bool { return t.RepeatFrom > 0 }

// HasEndDate reports whether the repeat series stops at RepeatEndDate.
func (t Transaction) HasEndDate() bool { return !t.RepeatEndDate.IsZero() }

// Repeat builds the occurrence of t on date with a fresh id.
func (t Transaction) Repeat(id uint, date Date) Transaction {
	r := t.Clone()
	r.ID = id
	r.Date = date
	r.RepeatFrom = int(t.ID)
	return r
}

// Clone deep-copies t.
func (t Transaction) Clone() Transaction {
	c := t
	c.Receipt = t.Receipt.Clone()
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	return c
}

func (t Transaction) HasTag(tag string) bool {
	for _, x := range t.Tags {
		if x == tag {
			return true
		}
	}
	return false
}

// AddTag appends tag unless it is empty or already present.
func (t *Transaction) AddTag(tag string) bool {
	tag = cleanTag(tag)
	if tag == "" || t.HasTag(tag) {
		return false
	}
	t.Tags = append(t.Tags, tag)
	return true
}

func (t *Transaction) RemoveTag(tag string) bool {
	for i, x := range t.Tags {
		if x == tag {
			t.Tags = append(t.Tags[:i], t.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// NormalizeTags trims, strips commas, drops empties and duplicates, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = cleanTag(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// JoinTags produces the stored comma form; an empty list is "".
func JoinTags(tags []string) string {
	return strings.Join(NormalizeTags(tags), ",")
}

// SplitTags parses the stored comma form.
func SplitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(s, ","))
}

func cleanTag(tag string) string {
	return strings.TrimSpace(strings.ReplaceAll(tag, ",", ""))
}
