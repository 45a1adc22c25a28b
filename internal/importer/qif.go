package importer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jask/moneyvault/internal/currency"
	"github.com/jask/moneyvault/internal/models"
)

// QIFParser reads Quicken interchange files. Bank, Cash and CCard sections
// become transactions; a Cat list becomes groups.
type QIFParser struct{}

type qifEntry struct {
	fields map[byte]string
	start  int
}

func (QIFParser) Parse(r io.Reader) (*Batch, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	b := &Batch{}
	section := ""
	var cur *qifEntry
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if text[0] == '!' {
			switch lower := strings.ToLower(text); {
			case strings.HasPrefix(lower, "!type:"):
				section = strings.TrimSpace(lower[len("!type:"):])
			case strings.HasPrefix(lower, "!account"):
				section = "account"
			}
			continue
		}
		if text[0] == '^' {
			if cur != nil {
				b.flush(section, cur)
			}
			cur = nil
			continue
		}
		if cur == nil {
			cur = &qifEntry{fields: map[byte]string{}, start: line}
		}
		code, value := text[0], strings.TrimSpace(text[1:])
		// first payee or memo wins; splits repeat S/E/$ and are ignored
		if _, seen := cur.fields[code]; !seen {
			cur.fields[code] = value
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read qif: %w", err)
	}
	if cur != nil {
		b.flush(section, cur)
	}
	return b, nil
}

func (b *Batch) flush(section string, e *qifEntry) {
	switch section {
	case "cat":
		if name := e.fields['N']; name != "" {
			b.addGroup(GroupRecord{Name: name, Description: e.fields['D']})
		}
	case "bank", "cash", "ccard", "oth a", "oth l":
		b.qifTransaction(e)
	}
}

func (b *Batch) qifTransaction(e *qifEntry) {
	raw, ok := e.fields['T']
	if !ok {
		raw, ok = e.fields['U']
	}
	if !ok {
		b.skip(e.start, errors.New("missing amount"))
		return
	}
	amount, err := currency.ParseAmount(raw, exportCurrency)
	if err != nil {
		b.skip(e.start, err)
		return
	}
	if amount.IsZero() {
		b.Skipped++
		return
	}
	date, err := models.ParseDate(strings.ReplaceAll(e.fields['D'], "'", "/"))
	if err != nil || date.IsZero() {
		b.skip(e.start, fmt.Errorf("date %q: invalid", e.fields['D']))
		return
	}

	t := models.NewTransaction(0)
	t.Date = date
	t.Description = ofxDescription(e.fields['P'], e.fields['M'])
	t.Type = models.Income
	if amount.IsNegative() {
		t.Type = models.Expense
	}
	t.Amount = amount.Abs()
	t.Tags = []string{}
	if e.fields['P'] != "" && e.fields['M'] != "" {
		t.Notes = e.fields['M']
	}

	group := strings.TrimSpace(e.fields['L'])
	if strings.HasPrefix(group, "[") && strings.HasSuffix(group, "]") {
		group = strings.TrimSpace(group[1 : len(group)-1])
	}
	if group != "" {
		b.addGroup(GroupRecord{Name: group})
		t.UseGroupColor = true
	}
	b.Records = append(b.Records, Record{Transaction: t, GroupName: group, Line: e.start})
}
