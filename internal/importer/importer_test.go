package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/moneyvault/internal/models"
)

func TestForPath(t *testing.T) {
	t.Parallel()
	for path, want := range map[string]Parser{
		"a.csv": CSVParser{},
		"b.OFX": OFXParser{},
		"c.qfx": OFXParser{},
		"d.qif": QIFParser{},
	} {
		p, err := ForPath(path)
		require.NoError(t, err)
		require.IsType(t, want, p)
	}
	_, err := ForPath("e.xlsx")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestCSVFullLayout(t *testing.T) {
	t.Parallel()
	in := strings.Join([]string{
		strings.Join(exportHeader, ";"),
		"1;1/15/2024;Paycheck;0;3;0;;1500.00;#00ff00ff;0;1;Work;Job income;#112233ff;salary,monthly",
		"2;2/15/2024;Paycheck;0;3;1;;1500.00;#00ff00ff;0;1;Work;Job income;#112233ff;salary,monthly",
		"3;1/20/2024;Coffee;1;0;-1;;$4.25;;1;-1;;;;",
		"x;1/20/2024;Broken;1;0;-1;;4.25;;1;-1;;;;",
		"4;13/40/2024;Bad date;1;0;-1;;4.25;;1;-1;;;;",
	}, "\n")
	b, err := CSVParser{}.Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, b.Records, 3)
	require.Equal(t, 2, b.Skipped)
	require.Len(t, b.Errors, 2)

	require.Len(t, b.Groups, 1)
	require.Equal(t, GroupRecord{ID: 1, Name: "Work", Description: "Job income", Color: models.Color{R: 0x11, G: 0x22, B: 0x33, A: 0xff}}, b.Groups[0])

	first := b.Records[0].Transaction
	require.Equal(t, uint(1), first.ID)
	require.Equal(t, models.NewDate(2024, 1, 15), first.Date)
	require.Equal(t, models.RepeatMonthly, first.RepeatInterval)
	require.Equal(t, models.RepeatSource, first.RepeatFrom)
	require.True(t, first.Amount.Equal(decimal.RequireFromString("1500")))
	require.Equal(t, []string{"salary", "monthly"}, first.Tags)
	require.Equal(t, 1, b.Records[1].Transaction.RepeatFrom)

	coffee := b.Records[2].Transaction
	require.Equal(t, models.Expense, coffee.Type)
	require.Equal(t, models.UngroupedID, coffee.GroupID)
	require.True(t, coffee.Color.IsEmpty())
	require.True(t, coffee.Amount.Equal(decimal.RequireFromString("4.25")))
	require.Empty(t, coffee.Tags)
}

func TestCSVSimpleLayout(t *testing.T) {
	t.Parallel()
	in := "date,description,type,amount,group\n" +
		"2024-03-01,Rent,expense,1200.00,Housing\n" +
		"3/2/2024,Refund,,25.10,\n" +
		"3/3/2024,Groceries,,-80.5,Food\n" +
		"3/4/2024,Mystery,sideways,1,\n"
	b, err := CSVParser{}.Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, b.Records, 3)
	require.Equal(t, 1, b.Skipped)

	require.Equal(t, []GroupRecord{{Name: "Housing"}, {Name: "Food"}}, b.Groups)
	require.Equal(t, models.Expense, b.Records[0].Transaction.Type)
	require.Equal(t, "Housing", b.Records[0].GroupName)
	require.Equal(t, models.Income, b.Records[1].Transaction.Type)
	require.Equal(t, models.Expense, b.Records[2].Transaction.Type)
	require.True(t, b.Records[2].Transaction.Amount.Equal(decimal.RequireFromString("80.5")))
	require.Zero(t, b.Records[0].Transaction.ID)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	t.Parallel()
	g := models.NewGroup(2)
	g.Name = "Food; drink"
	g.Color = models.ParseColor("#aabbcc")
	groups := map[int]*models.Group{2: g, models.UngroupedID: models.Ungrouped()}

	a := models.NewTransaction(7)
	a.Date = models.NewDate(2024, 5, 6)
	a.Description = "Lunch; with team"
	a.Type = models.Expense
	a.Amount = decimal.RequireFromString("12.34")
	a.GroupID = 2
	a.UseGroupColor = true
	a.Tags = []string{"work"}
	b := models.NewTransaction(8)
	b.Date = models.NewDate(2024, 5, 7)
	b.Description = "Gift"
	b.Amount = decimal.RequireFromString("50")
	b.RepeatInterval = models.RepeatYearly
	b.RepeatFrom = models.RepeatSource
	b.RepeatEndDate = models.NewDate(2030, 1, 1)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []models.Transaction{a, b}, groups))

	batch, err := CSVParser{}.Parse(&buf)
	require.NoError(t, err)
	require.Zero(t, batch.Skipped)
	require.Len(t, batch.Records, 2)
	require.Equal(t, "Lunch; with team", batch.Records[0].Transaction.Description)
	require.Equal(t, "Food; drink", batch.Groups[0].Name)
	require.Equal(t, g.Color, batch.Groups[0].Color)
	require.Equal(t, models.NewDate(2030, 1, 1), batch.Records[1].Transaction.RepeatEndDate)
	require.Equal(t, models.RepeatYearly, batch.Records[1].Transaction.RepeatInterval)
}

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:TYPE1
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240201120000
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>000111222
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101
<DTEND>20240131
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240105
<TRNAMT>-42.50
<FITID>1001
<NAME>HARDWARE STORE
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240115
<TRNAMT>1000.00
<FITID>1002
<MEMO>Salary
</STMTTRN>
<STMTTRN>
<TRNTYPE>OTHER
<DTPOSTED>20240120
<TRNAMT>0.00
<FITID>1003
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240125
<TRNAMT>5.00
<FITID>1004
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>957.50
<DTASOF>20240131
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

func TestOFX(t *testing.T) {
	t.Parallel()
	b, err := OFXParser{}.Parse(strings.NewReader(sampleOFX))
	require.NoError(t, err)
	require.Equal(t, 1, b.Skipped)
	require.Len(t, b.Records, 3)

	store := b.Records[0].Transaction
	require.Equal(t, "HARDWARE STORE", store.Description)
	require.Equal(t, models.Expense, store.Type)
	require.True(t, store.Amount.Equal(decimal.RequireFromString("42.50")))
	require.Equal(t, models.NewDate(2024, 1, 5), store.Date)

	require.Equal(t, "Salary", b.Records[1].Transaction.Description)
	require.Equal(t, models.Income, b.Records[1].Transaction.Type)
	require.Equal(t, missingDescription, b.Records[2].Transaction.Description)
}

func TestOFXScannerFallback(t *testing.T) {
	t.Parallel()
	in := "<OFX><STMTTRN><TRNTYPE>DEBIT<DTUSER>20240302093000[-5:EST]<TRNAMT>-3,20<NAME>BUS</STMTTRN></OFX>"
	b, err := OFXParser{}.Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, b.Records, 1)
	tx := b.Records[0].Transaction
	require.Equal(t, models.NewDate(2024, 3, 2), tx.Date)
	require.True(t, tx.Amount.Equal(decimal.RequireFromString("3.2")))

	_, err = OFXParser{}.Parse(strings.NewReader("not an ofx file"))
	require.Error(t, err)
}

func TestQIF(t *testing.T) {
	t.Parallel()
	in := `!Type:Cat
NGroceries
DFood and household
^
NRent
^
!Type:Bank
D01/05/2024
T-1,250.00
PLandlord
LRent
^
D1/6'24
T0.00
PNothing
^
D01/07/2024
U300.00
MInterest
L[Savings]
^
D01/08/2024
PNo amount
^
`
	b, err := QIFParser{}.Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 2, b.Skipped)
	require.Len(t, b.Errors, 1)
	require.Len(t, b.Records, 2)
	require.Equal(t, []GroupRecord{
		{Name: "Groceries", Description: "Food and household"},
		{Name: "Rent"},
		{Name: "Savings"},
	}, b.Groups)

	rent := b.Records[0]
	require.Equal(t, "Rent", rent.GroupName)
	require.Equal(t, "Landlord", rent.Transaction.Description)
	require.Equal(t, models.Expense, rent.Transaction.Type)
	require.True(t, rent.Transaction.Amount.Equal(decimal.RequireFromString("1250")))
	require.True(t, rent.Transaction.UseGroupColor)

	interest := b.Records[1]
	require.Equal(t, "Interest", interest.Transaction.Description)
	require.Equal(t, "Savings", interest.GroupName)
	require.Equal(t, models.Income, interest.Transaction.Type)
}

func TestParseFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "statement.qif")
	require.NoError(t, os.WriteFile(path, []byte("!Type:Cash\nD2/2/2024\nT-9.99\nPSnacks\n^\n"), 0o600))
	b, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, b.Records, 1)

	_, err = ParseFile(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
}
