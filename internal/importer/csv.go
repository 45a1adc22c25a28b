package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jask/moneyvault/internal/currency"
	"github.com/jask/moneyvault/internal/models"
)

// Full export columns:
// ID;Date;Description;Type;RepeatInterval;RepeatFrom;RepeatEndDate;Amount;RGBA;
// UseGroupColor;Group;GroupName;GroupDescription;GroupRGBA[;Tags]
const (
	fullColumns        = 14
	fullColumnsWithTag = 15
	simpleColumns      = 4
)

// en-US amounts as written by exports.
var exportCurrency = currency.New("$", "USD")

// CSVParser reads the full semicolon export layout and the simple
// date, description, type, amount[, group] layout.
type CSVParser struct{}

func (CSVParser) Parse(r io.Reader) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bufio.NewReader(bytes.NewReader(data)))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	b := &Batch{}
	line := 0
	for {
		line++
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			b.skip(line, err)
			continue
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		switch {
		case len(rec) == fullColumns || len(rec) == fullColumnsWithTag:
			parseFullRow(b, line, rec)
		case len(rec) >= simpleColumns && len(rec) <= simpleColumns+1:
			parseSimpleRow(b, line, rec)
		default:
			b.skip(line, fmt.Errorf("unexpected column count %d", len(rec)))
		}
	}
	return b, nil
}

func sniffDelimiter(data []byte) rune {
	first := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		first = data[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{';', '\t', ','} {
		if n := bytes.Count(first, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	first := strings.TrimSpace(rec[0])
	if _, err := strconv.ParseUint(first, 10, 64); err == nil {
		return false
	}
	if _, err := models.ParseDate(first); err == nil && first != "" {
		return false
	}
	return true
}

func parseFullRow(b *Batch, line int, rec []string) {
	f := func(i int) string { return strings.TrimSpace(rec[i]) }

	id, err := strconv.ParseUint(f(0), 10, 32)
	if err != nil || id == 0 {
		b.skip(line, fmt.Errorf("id %q: invalid", f(0)))
		return
	}
	date, err := models.ParseDate(f(1))
	if err != nil || date.IsZero() {
		b.skip(line, fmt.Errorf("date %q: invalid", f(1)))
		return
	}
	typ, err := strconv.Atoi(f(3))
	if err != nil || (typ != int(models.Income) && typ != int(models.Expense)) {
		b.skip(line, fmt.Errorf("type %q: invalid", f(3)))
		return
	}
	repeat, err := strconv.Atoi(f(4))
	if err != nil || !models.RepeatInterval(repeat).Valid() {
		b.skip(line, fmt.Errorf("repeat interval %q: invalid", f(4)))
		return
	}
	repeatFrom, err := strconv.Atoi(f(5))
	if err != nil || repeatFrom < models.NotRepeating {
		b.skip(line, fmt.Errorf("repeat from %q: invalid", f(5)))
		return
	}
	// unreadable end dates mean no end date
	endDate, _ := models.ParseDate(f(6))
	amount, err := currency.ParseAmount(f(7), exportCurrency)
	if err != nil {
		b.skip(line, fmt.Errorf("amount %q: %w", f(7), err))
		return
	}
	useGroupColor, err := strconv.Atoi(f(9))
	if err != nil {
		b.skip(line, fmt.Errorf("use group colour %q: invalid", f(9)))
		return
	}
	gid, err := strconv.Atoi(f(10))
	if err != nil || gid == 0 || gid < models.UngroupedID {
		b.skip(line, fmt.Errorf("group %q: invalid", f(10)))
		return
	}

	t := models.Transaction{
		ID:             uint(id),
		Date:           date,
		Description:    rec[2],
		Type:           models.TransactionType(typ),
		RepeatInterval: models.RepeatInterval(repeat),
		Amount:         amount.Abs(),
		GroupID:        gid,
		Color:          models.ParseColor(f(8)),
		UseGroupColor:  useGroupColor != 0,
		RepeatFrom:     repeatFrom,
		RepeatEndDate:  endDate,
		Tags:           []string{},
	}
	if len(rec) == fullColumnsWithTag {
		t.Tags = models.SplitTags(f(14))
	}
	var groupName string
	if gid != models.UngroupedID {
		groupName = f(11)
		b.addGroup(GroupRecord{ID: gid, Name: groupName, Description: rec[12], Color: models.ParseColor(f(13))})
	}
	b.Records = append(b.Records, Record{Transaction: t, GroupName: groupName, Line: line})
}

var errNoType = errors.New("type must be income, expense, 0 or 1")

func parseSimpleRow(b *Batch, line int, rec []string) {
	f := func(i int) string { return strings.TrimSpace(rec[i]) }

	date, err := models.ParseDate(f(0))
	if err != nil || date.IsZero() {
		b.skip(line, fmt.Errorf("date %q: invalid", f(0)))
		return
	}
	amount, err := currency.ParseAmount(f(3), exportCurrency)
	if err != nil {
		b.skip(line, fmt.Errorf("amount %q: %w", f(3), err))
		return
	}
	typ, err := simpleType(f(2), amount)
	if err != nil {
		b.skip(line, fmt.Errorf("type %q: %w", f(2), err))
		return
	}

	t := models.NewTransaction(0)
	t.Date = date
	t.Description = f(1)
	t.Type = typ
	t.Amount = amount.Abs()
	t.Tags = []string{}
	var groupName string
	if len(rec) > simpleColumns {
		groupName = f(4)
	}
	if groupName != "" {
		b.addGroup(GroupRecord{Name: groupName})
	}
	b.Records = append(b.Records, Record{Transaction: t, GroupName: groupName, Line: line})
}

func simpleType(s string, amount decimal.Decimal) (models.TransactionType, error) {
	switch strings.ToLower(s) {
	case "":
		if amount.IsNegative() {
			return models.Expense, nil
		}
		return models.Income, nil
	case "income", "0", "credit":
		return models.Income, nil
	case "expense", "1", "debit":
		return models.Expense, nil
	}
	return 0, errNoType
}
