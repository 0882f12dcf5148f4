package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"example.com/textile/erp/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubData struct {
	orders     []models.ProductionOrder
	records    []models.FoldingRecord
	items      []models.InventoryItem
	dispatches []models.Dispatch
	employees  []models.Employee
	attendance []models.Attendance
}

func (s *stubData) Orders(context.Context, time.Time, time.Time) ([]models.ProductionOrder, error) {
	return s.orders, nil
}

func (s *stubData) FoldingRecords(context.Context, time.Time, time.Time) ([]models.FoldingRecord, error) {
	return s.records, nil
}

func (s *stubData) Items(context.Context) ([]models.InventoryItem, error) {
	return s.items, nil
}

func (s *stubData) Dispatches(context.Context, time.Time, time.Time) ([]models.Dispatch, error) {
	return s.dispatches, nil
}

func (s *stubData) Employees(context.Context) ([]models.Employee, error) {
	return s.employees, nil
}

func (s *stubData) Attendance(context.Context, time.Time, time.Time) ([]models.Attendance, error) {
	return s.attendance, nil
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestProductionSummary(t *testing.T) {
	orders := []models.ProductionOrder{
		{OrderNumber: "PO-1", PlannedQuantity: d("1000"), CompletedQuantity: d("400"), Status: models.StatusInProgress},
		{OrderNumber: "PO-2", PlannedQuantity: d("500"), CompletedQuantity: d("500"), Status: models.StatusCompleted,
			Customer: &models.Customer{Name: "Acme"}},
	}

	wb := ProductionSummary(orders)

	require.Len(t, wb.Detail.Rows, 2)
	assert.Equal(t, "PO-1", wb.Detail.Rows[0][0])
	assert.Equal(t, "Acme", wb.Detail.Rows[1][1])
	assert.Equal(t, [2]interface{}{"Planned quantity", 1500.0}, wb.Totals[1])
	assert.Equal(t, [2]interface{}{"Completed quantity", 900.0}, wb.Totals[2])
}

func TestQCSummaryTotals(t *testing.T) {
	records := []models.FoldingRecord{
		{BatchNumber: "B1", InputMeters: d("100"), CheckedMeters: d("90"), RejectedMeters: d("10"), QCStatus: models.QCPartial},
		{BatchNumber: "B2", InputMeters: d("100"), CheckedMeters: d("100"), RejectedMeters: d("0"), QCStatus: models.QCPass,
			Defects: []string{"slub", "hole"}},
	}

	wb := QCSummary(records)

	require.Len(t, wb.Detail.Rows, 2)
	assert.Equal(t, "slub, hole", wb.Detail.Rows[1][9])
	assert.Contains(t, wb.Totals, [2]interface{}{"Rejection rate %", 5.0})
	assert.Contains(t, wb.Totals, [2]interface{}{"QC pass", int64(1)})
}

func TestInventoryStockFlagsLowItems(t *testing.T) {
	items := []models.InventoryItem{
		{SKU: "DYE-1", Quantity: d("5"), ReorderLevel: d("10"), UnitCost: d("2")},
		{SKU: "GF-1", Quantity: d("100"), ReorderLevel: d("10"), UnitCost: d("3")},
	}

	wb := InventoryStock(items)

	assert.Equal(t, "LOW", wb.Detail.Rows[0][9])
	assert.Equal(t, "", wb.Detail.Rows[1][9])
	assert.Equal(t, [2]interface{}{"Stock value", 310.0}, wb.Totals[1])
	assert.Equal(t, [2]interface{}{"Low stock items", 1}, wb.Totals[2])
}

func TestDispatchSummaryExcludesCancelledFromTotals(t *testing.T) {
	dispatches := []models.Dispatch{
		{DispatchNumber: "DS-1", Status: models.DispatchDelivered, TotalMeters: d("100"), TotalAmount: d("1000"),
			Items: []models.DispatchItem{{Description: "Printed voile", Meters: d("100"), Rate: d("10"), Amount: d("1000")}}},
		{DispatchNumber: "DS-2", Status: models.DispatchCancelled, TotalMeters: d("50"), TotalAmount: d("500")},
	}

	wb := DispatchSummary(dispatches)

	assert.Len(t, wb.Detail.Rows, 2)
	assert.Equal(t, [2]interface{}{"Meters (excl. cancelled)", 100.0}, wb.Totals[1])
	require.Len(t, wb.Extra, 1)
	assert.Len(t, wb.Extra[0].Rows, 1)
}

func TestAttendanceSummaryPayableDays(t *testing.T) {
	emp := models.Employee{Base: models.Base{ID: uuid.New()}, EmployeeCode: "E1", FullName: "Worker"}
	marks := []models.Attendance{
		{EmployeeID: emp.ID, Status: models.AttendancePresent},
		{EmployeeID: emp.ID, Status: models.AttendanceHalfDay},
	}

	wb := AttendanceSummary([]models.Employee{emp}, marks)

	require.Len(t, wb.Detail.Rows, 1)
	assert.Equal(t, 1.5, wb.Detail.Rows[0][6])
}

func TestGenerateRendersReadableWorkbook(t *testing.T) {
	data := &stubData{items: []models.InventoryItem{
		{SKU: "CHEM-9", Name: "Soda ash", Category: models.CategoryChemical, Unit: "kg",
			Quantity: d("40"), ReorderLevel: d("50"), UnitCost: d("1.25")},
	}}
	g := NewGenerator(data)
	g.now = func() time.Time { return time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC) }

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	out, rows, err := g.Generate(context.Background(), models.ReportInventoryStock, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Stock"}, f.GetSheetList())

	title, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Inventory stock", title)

	sheetRows, err := f.GetRows("Stock")
	require.NoError(t, err)
	require.Len(t, sheetRows, 2)
	assert.Equal(t, "SKU", sheetRows[0][0])
	assert.Equal(t, "CHEM-9", sheetRows[1][0])
}

func TestGenerateRejectsUnknownType(t *testing.T) {
	g := NewGenerator(&stubData{})

	_, _, err := g.Generate(context.Background(), models.ReportType("payroll"), time.Now(), time.Now())
	assert.Error(t, err)
}
