package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jask/moneyvault/internal/models"
)

var exportHeader = []string{
	"ID", "Date (en_US Format)", "Description", "Type", "RepeatInterval",
	"RepeatFrom (-1=None,0=Original,Other=Id Of Source)", "RepeatEndDate (en_US Format)",
	"Amount (en_US Format)", "RGBA", "UseGroupColor (0 for false, 1 for true)",
	"Group(Id Starts At 1)", "GroupName", "GroupDescription", "GroupRGBA", "Tags",
}

// WriteCSV writes txns in the full semicolon layout that CSVParser reads back.
// Group columns are filled from groups; unknown ids leave them blank.
func WriteCSV(w io.Writer, txns []models.Transaction, groups map[int]*models.Group) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txns {
		var name, desc, rgba string
		if g, ok := groups[t.GroupID]; ok && t.GroupID != models.UngroupedID {
			name, desc = g.Name, g.Description
			if !g.Color.IsEmpty() {
				rgba = g.Color.Hex()
			}
		}
		var color string
		if !t.Color.IsEmpty() {
			color = t.Color.Hex()
		}
		useGroupColor := "0"
		if t.UseGroupColor {
			useGroupColor = "1"
		}
		row := []string{
			strconv.FormatUint(uint64(t.ID), 10),
			t.Date.String(),
			t.Description,
			strconv.Itoa(int(t.Type)),
			strconv.Itoa(int(t.RepeatInterval)),
			strconv.Itoa(t.RepeatFrom),
			t.RepeatEndDate.String(),
			t.Amount.String(),
			color,
			useGroupColor,
			strconv.Itoa(t.GroupID),
			name, desc, rgba,
			models.JoinTags(t.Tags),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write transaction %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
