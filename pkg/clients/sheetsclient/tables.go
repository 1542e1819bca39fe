package sheetsclient

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/pkg/export"
)

// maxRowsPerWrite bounds the payload of a single values update
const maxRowsPerWrite = 5000

// PublishTables writes each table to the tab named after it.
// Missing tabs are created; existing tabs are cleared and overwritten.
func (c *Client) PublishTables(ctx context.Context, spreadsheetID string, tables []export.Table) error {
	titles, err := c.SheetTitles(ctx, spreadsheetID)
	if err != nil {
		return err
	}

	for _, table := range tables {
		if _, exists := titles[table.Name]; exists {
			if err := c.ClearSheet(ctx, spreadsheetID, table.Name); err != nil {
				return err
			}
		} else {
			if _, err := c.CreateSheet(ctx, spreadsheetID, table.Name); err != nil {
				return fmt.Errorf("failed to create tab %s: %w", table.Name, err)
			}
		}

		if err := c.writeTable(ctx, spreadsheetID, table); err != nil {
			return err
		}
		c.logger.Debug("Published table",
			zap.String("tab", table.Name),
			zap.Int("rows", len(table.Rows)))
	}

	return nil
}

func (c *Client) writeTable(ctx context.Context, spreadsheetID string, table export.Table) error {
	values := toSheetRows(table)
	for start := 0; start < len(values); start += maxRowsPerWrite {
		end := min(start+maxRowsPerWrite, len(values))
		sheetRange := fmt.Sprintf("%s!A%d", quoteTitle(table.Name), start+1)
		if err := c.UpdateValues(ctx, spreadsheetID, sheetRange, values[start:end]); err != nil {
			return fmt.Errorf("failed to write %s rows %d-%d: %w", table.Name, start+1, end, err)
		}
	}
	return nil
}

// toSheetRows puts the header first, followed by the data rows
func toSheetRows(table export.Table) [][]interface{} {
	values := make([][]interface{}, 0, len(table.Rows)+1)
	values = append(values, toRow(table.Header))
	for _, row := range table.Rows {
		values = append(values, toRow(row))
	}
	return values
}

func toRow(cells []string) []interface{} {
	row := make([]interface{}, len(cells))
	for i, cell := range cells {
		row[i] = cell
	}
	return row
}

// quoteTitle wraps a tab title for A1 notation
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
