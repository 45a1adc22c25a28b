package importer

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/jask/moneyvault/internal/models"
)

const missingDescription = "N/A"

// OFXParser reads OFX/QFX statements. Bank and credit card statements are
// read with ofxgo; files it rejects fall back to a tolerant STMTTRN scan.
type OFXParser struct{}

type ofxTxn struct {
	name, memo string
	amount     decimal.Decimal
	posted     time.Time
	err        error
}

func (OFXParser) Parse(r io.Reader) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read ofx: %w", err)
	}
	data = bytes.ReplaceAll(data, []byte("SECURITY:TYPE1"), []byte("SECURITY:NONE"))

	txns, err := parseOFXStrict(data)
	if err != nil {
		txns, err = scanOFX(data)
		if err != nil {
			return nil, err
		}
	}

	b := &Batch{}
	for i, o := range txns {
		if o.err != nil {
			b.skip(i+1, o.err)
			continue
		}
		if o.amount.IsZero() {
			b.Skipped++
			continue
		}
		t := models.NewTransaction(0)
		t.Date = models.DateOf(o.posted)
		t.Description = ofxDescription(o.name, o.memo)
		t.Type = models.Income
		if o.amount.IsNegative() {
			t.Type = models.Expense
		}
		t.Amount = o.amount.Abs()
		t.Tags = []string{}
		b.Records = append(b.Records, Record{Transaction: t, Line: i + 1})
	}
	return b, nil
}

func ofxDescription(name, memo string) string {
	if s := strings.TrimSpace(name); s != "" {
		return s
	}
	if s := strings.TrimSpace(memo); s != "" {
		return s
	}
	return missingDescription
}

func parseOFXStrict(data []byte) ([]ofxTxn, error) {
	resp, err := ofxgo.ParseResponse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse ofx: %w", err)
	}
	var lists []*ofxgo.TransactionList
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			lists = append(lists, stmt.BankTranList)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			lists = append(lists, stmt.BankTranList)
		}
	}
	if len(lists) == 0 {
		return nil, fmt.Errorf("parse ofx: no bank or credit card statements")
	}
	var out []ofxTxn
	for _, list := range lists {
		for _, t := range list.Transactions {
			o := ofxTxn{name: string(t.Name), memo: string(t.Memo)}
			amount, err := decimal.NewFromString(t.TrnAmt.String())
			if err != nil {
				o.err = fmt.Errorf("parse ofx amount %q: %w", t.TrnAmt.String(), err)
				out = append(out, o)
				continue
			}
			o.amount = amount
			o.posted = t.DtPosted.Time
			if o.posted.IsZero() && t.DtUser != nil {
				o.posted = t.DtUser.Time
			}
			if o.posted.IsZero() {
				o.err = fmt.Errorf("parse ofx: transaction %q has no date", string(t.FiTID))
			}
			out = append(out, o)
		}
	}
	return out, nil
}

var (
	stmtTrnRe = regexp.MustCompile(`(?is)<STMTTRN>(.*?)</STMTTRN>`)
	ofxTagRe  = regexp.MustCompile(`(?i)<([A-Z0-9.]+)>([^<\r\n]*)`)
)

// scanOFX reads SGML statements whose structure ofxgo refuses, such as
// unclosed aggregates or missing headers.
func scanOFX(data []byte) ([]ofxTxn, error) {
	blocks := stmtTrnRe.FindAllSubmatch(data, -1)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("parse ofx: no transactions found")
	}
	out := make([]ofxTxn, 0, len(blocks))
	for _, block := range blocks {
		fields := map[string]string{}
		for _, m := range ofxTagRe.FindAllSubmatch(block[1], -1) {
			fields[strings.ToUpper(string(m[1]))] = strings.TrimSpace(string(m[2]))
		}
		o := ofxTxn{name: fields["NAME"], memo: fields["MEMO"]}
		amount, err := decimal.NewFromString(strings.ReplaceAll(fields["TRNAMT"], ",", "."))
		if err != nil {
			o.err = fmt.Errorf("parse ofx amount %q: %w", fields["TRNAMT"], err)
			out = append(out, o)
			continue
		}
		o.amount = amount
		raw := fields["DTPOSTED"]
		if raw == "" {
			raw = fields["DTUSER"]
		}
		if o.posted, err = parseOFXDate(raw); err != nil {
			o.err = err
		}
		out = append(out, o)
	}
	return out, nil
}

// parseOFXDate reads YYYYMMDD with optional time, fraction and [tz] suffix.
func parseOFXDate(s string) (time.Time, error) {
	if i := strings.IndexAny(s, "[."); i >= 0 {
		s = s[:i]
	}
	for _, layout := range []string{"20060102150405", "200601021504", "20060102"} {
		if len(s) == len(layout) {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("parse ofx date %q: unsupported format", s)
}
