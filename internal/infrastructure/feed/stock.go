package feed

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/modaretail/backend/internal/domain/integration"
)

// ColumnMap names the header cells carrying each stock field. Price and Name
// are optional; leave them empty to skip.
type ColumnMap struct {
	SKU      string
	Quantity string
	Price    string
	Name     string
}

// erpExportColumns is the fixed layout of ERP pipe-delimited export files
var erpExportColumns = ColumnMap{
	SKU:      "sku",
	Quantity: "quantity",
	Price:    "price",
	Name:     "name",
}

// Result is the outcome of parsing one feed file. Rows that could not be
// converted land in Issues with their line number; they never fail the parse.
type Result struct {
	Records []integration.StockRecord
	Issues  []integration.RowIssue
}

// ParseStock reads a delimited feed and converts each row to a stock record
// using the given column map.
func ParseStock(r io.Reader, columns ColumnMap, opts ...Option) (*Result, error) {
	p, err := NewParser(r, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.ParseHeader(); err != nil {
		return nil, err
	}
	if !p.HasColumn(columns.SKU) {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, columns.SKU)
	}
	if !p.HasColumn(columns.Quantity) {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, columns.Quantity)
	}

	result := &Result{}
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Issues = append(result.Issues, integration.RowIssue{Message: err.Error()})
			continue
		}
		if row.IsEmpty() {
			continue
		}
		record, issue := convertRow(row, columns)
		if issue != nil {
			result.Issues = append(result.Issues, *issue)
			continue
		}
		result.Records = append(result.Records, *record)
	}
	return result, nil
}

// ParseERPExport reads a pipe-delimited ERP stock export with the fixed
// sku|quantity|price|name layout.
func ParseERPExport(r io.Reader) (*Result, error) {
	return ParseStock(r, erpExportColumns, WithDelimiter('|'))
}

func convertRow(row *Row, columns ColumnMap) (*integration.StockRecord, *integration.RowIssue) {
	sku := row.Get(columns.SKU)
	if sku == "" {
		return nil, &integration.RowIssue{
			Message: fmt.Sprintf("line %d: empty sku", row.LineNumber),
		}
	}

	rawQty := row.Get(columns.Quantity)
	qty, err := decimal.NewFromString(rawQty)
	if err != nil {
		return nil, &integration.RowIssue{
			SKU:     sku,
			Message: fmt.Sprintf("line %d: invalid quantity %q", row.LineNumber, rawQty),
		}
	}
	if qty.IsNegative() {
		return nil, &integration.RowIssue{
			SKU:     sku,
			Message: fmt.Sprintf("line %d: negative quantity %s", row.LineNumber, qty),
		}
	}

	record := &integration.StockRecord{SKU: sku, Quantity: qty}

	if columns.Price != "" {
		if raw := row.Get(columns.Price); raw != "" {
			price, err := decimal.NewFromString(raw)
			if err != nil || price.IsNegative() {
				return nil, &integration.RowIssue{
					SKU:     sku,
					Message: fmt.Sprintf("line %d: invalid price %q", row.LineNumber, raw),
				}
			}
			record.Price = &price
		}
	}
	if columns.Name != "" {
		record.DisplayName = row.Get(columns.Name)
	}
	return record, nil
}
