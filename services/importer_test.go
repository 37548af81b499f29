package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"customerdash/backend/blob"
	"customerdash/backend/database"
	"customerdash/backend/models"
	"customerdash/backend/store"
)

var importTime = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func completeRow(id string) Row {
	return Row{
		"ID":            id,
		"Customer Name": "Customer " + id,
		"Division":      "Dhaka",
		"Gender":        "Female",
		"MaritalStatus": "Single",
		"Age":           float64(30),
		"Income":        "45,000",
	}
}

func TestValidateRowsRejectsIncompleteRows(t *testing.T) {
	rows := []Row{completeRow("1"), completeRow("2"), completeRow("3"), completeRow("4"), completeRow("5")}

	missingGender := completeRow("6")
	missingGender["Gender"] = nil
	blankName := completeRow("7")
	blankName["Customer Name"] = "   "
	rows = append(rows, missingGender, blankName)

	results := ValidateRows(rows, importTime)
	require.Len(t, results, 7)

	valid, rejected := PartitionRows(results)
	assert.Len(t, valid, 5)
	require.Len(t, rejected, 2)
	assert.Equal(t, 6, rejected[0].Line)
	assert.Contains(t, rejected[0].Reason, "Gender")
	assert.Contains(t, rejected[1].Reason, "Customer Name")

	for _, c := range valid {
		assert.Equal(t, "2025-03-14T10:00:00Z", c.AddedAt)
		assert.Equal(t, models.GenderFemale, c.Gender)
		assert.Equal(t, 30, c.Age)
		assert.Equal(t, 45000.0, c.Income)
	}
}

func TestValidateRowsHeaderMatching(t *testing.T) {
	row := Row{
		" id ":           "A1",
		"customer name":  "Ann",
		"DIVISION":       "Sylhet",
		"gender":         "m",
		"Marital Status": "Married",
		"age":            "not a number",
		"INCOME":         0,
	}
	results := ValidateRows([]Row{row}, importTime)
	require.True(t, results[0].Valid(), results[0].Reason)

	c := results[0].Customer
	assert.Equal(t, "A1", c.ID)
	assert.Equal(t, models.GenderMale, c.Gender)
	assert.Equal(t, 0, c.Age)
	assert.Equal(t, 0.0, c.Income)
}

func TestValidateRowsEmpty(t *testing.T) {
	assert.Empty(t, ValidateRows(nil, importTime))
	valid, rejected := PartitionRows(nil)
	assert.Empty(t, valid)
	assert.Empty(t, rejected)
}

const sampleCSV = `ID,Customer Name,Division,Gender,MaritalStatus,Age,Income
1,Ann,Dhaka,Female,Single,28,50000

2,Bob,Sylhet,Male,Married,41,82000
3,Cara,,Female,Married,35,61000
`

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Bob", rows[1].Cell("Customer Name"))
	assert.Nil(t, rows[2]["Division"])
}

func workbookBytes(t *testing.T, grid [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range grid {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadWorkbook(t *testing.T) {
	data := workbookBytes(t, [][]any{
		{},
		{"ID", "Customer Name", "Division", "Gender", "MaritalStatus", "Age", "Income"},
		{"1", "Ann", "Dhaka", "F", "Single", 28, 50000},
		{},
		{"2", "Bob", "Sylhet", "M", "Married", 41, 82000},
	})

	rows, err := ReadWorkbook(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ann", rows[0].Cell("Customer Name"))
	assert.Equal(t, "41", rows[1].Cell("Age"))
}

func TestReadWorkbookRejectsGarbage(t *testing.T) {
	_, err := ReadWorkbook(strings.NewReader("not a zip"))
	assert.ErrorIs(t, err, ErrUnreadableFile)
}

func TestReadCSVRejectsMalformedQuotes(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("ID,Customer Name\n1,\"Ann\n"))
	assert.ErrorIs(t, err, ErrUnreadableFile)
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestReadLegacyWorkbook(t *testing.T) {
	rows, err := ReadLegacyWorkbook(bytes.NewReader(readFixture(t, "customers.xls")))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "x1", rows[0].Cell(ColumnID))
	assert.Equal(t, "Ann Rahman", rows[0].Cell(ColumnCustomerName))
	assert.Equal(t, "52000", rows[0].Cell(ColumnIncome))
	assert.Equal(t, "Sylhet", rows[1].Cell(ColumnDivision))
	assert.Equal(t, "", rows[2].Cell(ColumnCustomerName))
}

func TestReadLegacyWorkbookRejectsGarbage(t *testing.T) {
	_, err := ReadLegacyWorkbook(strings.NewReader("this is not an ole2 document"))
	assert.ErrorIs(t, err, ErrUnreadableFile)
}

type importFixture struct {
	store   *store.Store
	storage *database.MemoryStore
	blobs   *blob.Memory
	svc     *ImportService
}

func newImportFixture(t *testing.T, opts ...ImportOption) importFixture {
	t.Helper()
	storage := database.NewMemoryStore()
	st := store.New(context.Background(), storage)
	blobs := blob.NewMemory()
	opts = append([]ImportOption{WithArchive(blobs), WithImportClock(func() time.Time { return importTime })}, opts...)
	return importFixture{
		store:   st,
		storage: storage,
		blobs:   blobs,
		svc:     NewImportService(st, store.NewUploadLog(storage, nil), opts...),
	}
}

func TestImportServiceImportsValidRows(t *testing.T) {
	fx := newImportFixture(t)
	ctx := context.Background()

	res, err := fx.svc.Import(ctx, "customers.csv", 0, strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Rejected)
	assert.Len(t, fx.store.Records(), 2)
	assert.Equal(t, int64(len(sampleCSV)), res.File.Size)

	for _, r := range fx.store.Records() {
		assert.NotEqual(t, "1", r.ID, "sheet ids are regenerated by default")
	}

	files, err := fx.svc.Files(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "customers.csv", files[0].Name)
	assert.Equal(t, 2, files[0].Imported)
	assert.NotEmpty(t, files[0].BlobKey)

	archived, err := fx.blobs.List(ctx, "uploads/")
	require.NoError(t, err)
	assert.Len(t, archived, 1)
}

func TestImportServicePreservesSheetIDs(t *testing.T) {
	fx := newImportFixture(t, WithPreservedIDs(true))
	_, err := fx.svc.Import(context.Background(), "customers.csv", 0, strings.NewReader(sampleCSV))
	require.NoError(t, err)

	var got []string
	for _, r := range fx.store.Records() {
		got = append(got, r.ID)
	}
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestImportServiceRejectsWhenNothingValid(t *testing.T) {
	fx := newImportFixture(t)
	csv := "ID,Customer Name,Division,Gender,MaritalStatus,Age,Income\n1,Ann,,F,Single,1,1\n"

	_, err := fx.svc.Import(context.Background(), "bad.csv", 0, strings.NewReader(csv))
	require.ErrorIs(t, err, ErrNoValidRows)
	assert.Empty(t, fx.store.Records())

	files, err := fx.svc.Files(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestImportServiceErrors(t *testing.T) {
	fx := newImportFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Import(ctx, "empty.csv", 0, strings.NewReader("ID,Customer Name\n"))
	assert.True(t, errors.Is(err, ErrNoRows))

	_, err = fx.svc.Import(ctx, "notes.txt", 0, strings.NewReader("x"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = fx.svc.Import(ctx, "broken.xlsx", 0, strings.NewReader("this is not a zip"))
	assert.ErrorIs(t, err, ErrUnreadableFile)
	assert.Empty(t, fx.store.Records())
}

func TestImportServiceLegacyWorkbook(t *testing.T) {
	fx := newImportFixture(t)
	data := readFixture(t, "customers.xls")

	res, err := fx.svc.Import(context.Background(), "customers.xls", int64(len(data)), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Rejected)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 3, res.Rows[0].Line)
	assert.Contains(t, res.Rows[0].Reason, ColumnCustomerName)

	var names []string
	for _, r := range fx.store.Records() {
		names = append(names, r.CustomerName)
	}
	assert.Equal(t, []string{"Ann Rahman", "Tanvir Hasan"}, names)

	archived, err := fx.blobs.List(context.Background(), "uploads/")
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "application/vnd.ms-excel", archived[0].ContentType)
}

func TestImportServiceWorkbook(t *testing.T) {
	fx := newImportFixture(t)
	data := workbookBytes(t, [][]any{
		{"ID", "Customer Name", "Division", "Gender", "MaritalStatus", "Age", "Income"},
		{"1", "Ann", "Dhaka", "F", "Single", 28, 50000},
		{"2", "Bob", "Sylhet", "M", "Married", 41, 82000},
		{"3", "Cara", "Khulna", "F", "Married", 35, 61000},
		{"4", "Dev", "Rangpur", "O", "Divorced", 52, 30000},
		{"5", "Eve", "Barishal", "F", "Single", 19, 12000},
		{"6", "Fay", "Dhaka", "", "Single", 22, 15000},
		{"7", "", "Dhaka", "M", "Single", 33, 40000},
	})

	res, err := fx.svc.Import(context.Background(), "customers.xlsx", int64(len(data)), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Imported)
	assert.Equal(t, 2, res.Rejected)
	assert.Len(t, fx.store.Records(), 5)
}
