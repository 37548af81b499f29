package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"customerdash/backend/models"
)

var (
	// ErrNoSheet is returned for a workbook without any sheet.
	ErrNoSheet = errors.New("workbook has no sheets")
	// ErrNoRows is returned when a file has a header but no data rows.
	ErrNoRows = errors.New("file contains no data rows")
	// ErrNoValidRows is returned when every row was rejected.
	ErrNoValidRows = errors.New("no valid rows to import")
	// ErrUnsupportedFormat is returned for files that are not .xlsx, .xls or .csv.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrUnreadableFile is returned when a file has a supported extension
	// but its content cannot be parsed.
	ErrUnreadableFile = errors.New("unreadable file")
)

// Import column headers.
const (
	ColumnID            = "ID"
	ColumnCustomerName  = "Customer Name"
	ColumnDivision      = "Division"
	ColumnGender        = "Gender"
	ColumnMaritalStatus = "MaritalStatus"
	ColumnAge           = "Age"
	ColumnIncome        = "Income"
)

// RequiredColumns must hold a non-blank value in every imported row.
var RequiredColumns = []string{
	ColumnID,
	ColumnCustomerName,
	ColumnDivision,
	ColumnGender,
	ColumnMaritalStatus,
	ColumnAge,
	ColumnIncome,
}

// Row is one spreadsheet row keyed by header. Cells are strings, numbers
// or nil when blank.
type Row map[string]any

// Cell returns the trimmed text of the cell under header, matching the
// header without regard to case or spaces.
func (r Row) Cell(header string) string {
	want := headerKey(header)
	for k, v := range r {
		if headerKey(k) == want {
			return cellText(v)
		}
	}
	return ""
}

func headerKey(h string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(h), " ", ""))
}

func cellText(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case int64:
		return strconv.FormatInt(c, 10)
	default:
		return strings.TrimSpace(fmt.Sprint(c))
	}
}

// RowResult is the outcome of validating one row: either Customer is set
// or Reason explains the rejection.
type RowResult struct {
	Line     int              `json:"line"`
	Customer *models.Customer `json:"customer,omitempty"`
	Reason   string           `json:"reason,omitempty"`
}

// Valid reports whether the row produced a record.
func (r RowResult) Valid() bool { return r.Customer != nil }

// ValidateRows checks every row for the required columns and converts the
// complete ones. All accepted rows share the addedAt of now. Line numbers
// count data rows from 1.
func ValidateRows(rows []Row, now time.Time) []RowResult {
	addedAt := now.UTC().Format(time.RFC3339Nano)
	out := make([]RowResult, 0, len(rows))
	for i, row := range rows {
		res := RowResult{Line: i + 1}

		var missing []string
		for _, col := range RequiredColumns {
			if row.Cell(col) == "" {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			res.Reason = "missing required fields: " + strings.Join(missing, ", ")
			out = append(out, res)
			continue
		}

		res.Customer = &models.Customer{
			ID:            row.Cell(ColumnID),
			CustomerName:  row.Cell(ColumnCustomerName),
			Division:      row.Cell(ColumnDivision),
			Gender:        models.NormalizeGender(row.Cell(ColumnGender)),
			MaritalStatus: row.Cell(ColumnMaritalStatus),
			Age:           int(models.ParseNumber(row.Cell(ColumnAge))),
			Income:        models.ParseNumber(row.Cell(ColumnIncome)),
			AddedAt:       addedAt,
		}
		out = append(out, res)
	}
	return out
}

// PartitionRows splits validation results into accepted records and
// rejected rows.
func PartitionRows(results []RowResult) (valid []models.Customer, rejected []RowResult) {
	valid = []models.Customer{}
	for _, r := range results {
		if r.Valid() {
			valid = append(valid, *r.Customer)
		} else {
			rejected = append(rejected, r)
		}
	}
	return valid, rejected
}

// ReadWorkbook reads the first sheet of an .xlsx workbook. The first
// non-blank row is the header; blank rows are skipped.
func ReadWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %w", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %w", ErrUnreadableFile, sheets[0], err)
	}
	return rowsFromGrid(grid), nil
}

// ReadLegacyWorkbook reads the first sheet of a BIFF (.xls) workbook.
func ReadLegacyWorkbook(r io.Reader) (rows []Row, err error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, readErr := io.ReadAll(r)
		if readErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnreadableFile, readErr)
		}
		rs = bytes.NewReader(data)
	}

	// the BIFF parser panics on some truncated records
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, fmt.Errorf("%w: malformed xls workbook: %v", ErrUnreadableFile, p)
		}
	}()

	wb, err := xls.OpenReader(rs, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %w", ErrUnreadableFile, err)
	}
	if wb == nil {
		return nil, fmt.Errorf("%w: no workbook stream", ErrUnreadableFile)
	}
	// a BIFF file always has a sheet, so none means the stream did not parse
	sheet := wb.GetSheet(0)
	if wb.NumSheets() == 0 || sheet == nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableFile, ErrNoSheet)
	}

	grid := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, 0, row.LastCol()+1)
		for j := 0; j <= row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		grid = append(grid, trimTrailingBlanks(cells))
	}
	return rowsFromGrid(grid), nil
}

// ReadCSV reads a comma separated file with a header row.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	grid, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read csv: %w", ErrUnreadableFile, err)
	}
	return rowsFromGrid(grid), nil
}

func rowsFromGrid(grid [][]string) []Row {
	var header []string
	rows := []Row{}
	for _, cells := range grid {
		if blankLine(cells) {
			continue
		}
		if header == nil {
			header = cells
			continue
		}
		row := make(Row, len(header))
		for i, h := range header {
			if strings.TrimSpace(h) == "" {
				continue
			}
			if i < len(cells) && strings.TrimSpace(cells[i]) != "" {
				row[h] = cells[i]
			} else {
				row[h] = nil
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func blankLine(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimTrailingBlanks(cells []string) []string {
	n := len(cells)
	for n > 0 && strings.TrimSpace(cells[n-1]) == "" {
		n--
	}
	return cells[:n]
}
