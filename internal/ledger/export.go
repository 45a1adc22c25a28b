package ledger

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jask/moneyvault/internal/importer"
	"github.com/jask/moneyvault/internal/models"
	"github.com/jask/moneyvault/internal/vault"
)

// ExportToCSV writes the transactions in ids, or all of them when ids is nil,
// in the layout ImportFromFile reads back.
func (a *Account) ExportToCSV(path string, ids []uint) error {
	if !a.loggedIn {
		return ErrLocked
	}
	var txns []models.Transaction
	if ids == nil {
		txns = a.Transactions()
	} else {
		for _, id := range ids {
			if t, ok := a.transactions[id]; ok {
				txns = append(txns, t.Clone())
			}
		}
	}
	var buf bytes.Buffer
	if err := importer.WriteCSV(&buf, txns, a.groups); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir export dir: %w", err)
	}
	return vault.WriteFile(path, buf.Bytes())
}
