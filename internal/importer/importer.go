package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jask/moneyvault/internal/models"
)

var ErrUnsupported = errors.New("importer: unsupported file type")

// GroupRecord describes a group named by an import file. ID is zero when the
// format has no group ids.
type GroupRecord struct {
	ID          int
	Name        string
	Description string
	Color       models.Color
}

// Record is one parsed transaction. A zero Transaction.ID asks the ledger for
// the next free id. GroupName is resolved by name when Transaction.GroupID is
// not a positive id.
type Record struct {
	Transaction models.Transaction
	GroupName   string
	Line        int
}

// Batch is everything a parser read from one file.
type Batch struct {
	Groups  []GroupRecord
	Records []Record
	Skipped int
	Errors  []error
}

func (b *Batch) skip(line int, err error) {
	b.Skipped++
	b.Errors = append(b.Errors, fmt.Errorf("line %d: %w", line, err))
}

func (b *Batch) addGroup(g GroupRecord) {
	for _, existing := range b.Groups {
		if g.ID != 0 && existing.ID == g.ID {
			return
		}
		if g.ID == 0 && existing.Name == g.Name {
			return
		}
	}
	b.Groups = append(b.Groups, g)
}

// Parser reads one import format.
type Parser interface {
	Parse(r io.Reader) (*Batch, error)
}

// ForPath picks a parser from the file extension.
func ForPath(path string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSVParser{}, nil
	case ".ofx", ".qfx", ".ofc":
		return OFXParser{}, nil
	case ".qif":
		return QIFParser{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(path))
}

// ParseFile opens path and parses it with the parser chosen by ForPath.
func ParseFile(path string) (*Batch, error) {
	p, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()
	return p.Parse(f)
}
