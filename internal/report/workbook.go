package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	timeLayout   = "2006-01-02 15:04"
	dateLayout   = "2006-01-02"
)

// Sheet is one tabular worksheet of a report
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// Workbook is a report before it is rendered to xlsx
type Workbook struct {
	Title   string
	From    time.Time
	To      time.Time
	Totals  [][2]interface{}
	Detail  Sheet
	Extra   []Sheet
	Created time.Time
}

// Generator builds report workbooks from tenant data
type Generator struct {
	data repository.ReportDataRepository
	now  func() time.Time
}

// NewGenerator creates a new report generator
func NewGenerator(data repository.ReportDataRepository) *Generator {
	return &Generator{data: data, now: time.Now}
}

// Generate renders the report to xlsx bytes and returns the number of detail
// rows
func (g *Generator) Generate(ctx context.Context, reportType models.ReportType, from, to time.Time) ([]byte, int, error) {
	wb, err := g.Build(ctx, reportType, from, to)
	if err != nil {
		return nil, 0, err
	}
	data, err := Render(wb)
	if err != nil {
		return nil, 0, err
	}
	return data, len(wb.Detail.Rows), nil
}

// Build loads the data of a report and lays it out
func (g *Generator) Build(ctx context.Context, reportType models.ReportType, from, to time.Time) (*Workbook, error) {
	var (
		wb  *Workbook
		err error
	)
	switch reportType {
	case models.ReportProductionSummary:
		var orders []models.ProductionOrder
		if orders, err = g.data.Orders(ctx, from, to); err == nil {
			wb = ProductionSummary(orders)
		}
	case models.ReportQCSummary:
		var records []models.FoldingRecord
		if records, err = g.data.FoldingRecords(ctx, from, to); err == nil {
			wb = QCSummary(records)
		}
	case models.ReportInventoryStock:
		var items []models.InventoryItem
		if items, err = g.data.Items(ctx); err == nil {
			wb = InventoryStock(items)
		}
	case models.ReportDispatchSummary:
		var dispatches []models.Dispatch
		if dispatches, err = g.data.Dispatches(ctx, from, to); err == nil {
			wb = DispatchSummary(dispatches)
		}
	case models.ReportAttendanceSummary:
		var employees []models.Employee
		var rows []models.Attendance
		if employees, err = g.data.Employees(ctx); err == nil {
			if rows, err = g.data.Attendance(ctx, from, to); err == nil {
				wb = AttendanceSummary(employees, rows)
			}
		}
	default:
		return nil, fmt.Errorf("unknown report type %q", reportType)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s data", reportType)
	}
	wb.From, wb.To, wb.Created = from.UTC(), to.UTC(), g.now().UTC()
	return wb, nil
}

// ProductionSummary lays out production orders
func ProductionSummary(orders []models.ProductionOrder) *Workbook {
	planned, completed := decimal.Zero, decimal.Zero
	byStatus := make(map[models.StageStatus]int)
	rows := make([][]interface{}, 0, len(orders))
	for _, o := range orders {
		planned = planned.Add(o.PlannedQuantity)
		completed = completed.Add(o.CompletedQuantity)
		byStatus[o.Status]++
		customer := ""
		if o.Customer != nil {
			customer = o.Customer.Name
		}
		rows = append(rows, []interface{}{
			o.OrderNumber, customer, o.FabricType, o.Color, string(o.Status), string(o.CurrentStage),
			num(o.PlannedQuantity), num(o.CompletedQuantity), num(o.Progress), string(o.Priority),
			optDate(o.DueDate), o.CreatedAt.UTC().Format(timeLayout),
		})
	}

	totals := [][2]interface{}{
		{"Orders", len(orders)},
		{"Planned quantity", num(planned)},
		{"Completed quantity", num(completed)},
	}
	for _, s := range models.AllStageStatuses {
		totals = append(totals, [2]interface{}{"Status " + string(s), byStatus[s]})
	}
	return &Workbook{
		Title:  "Production summary",
		Totals: totals,
		Detail: Sheet{
			Name: "Orders",
			Headers: []string{"Order Number", "Customer", "Fabric", "Color", "Status", "Current Stage",
				"Planned", "Completed", "Progress %", "Priority", "Due Date", "Created"},
			Rows: rows,
		},
	}
}

// QCSummary lays out folding and checking records
func QCSummary(records []models.FoldingRecord) *Workbook {
	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		order := ""
		if r.OrderID != nil {
			order = r.OrderID.String()
		}
		rows = append(rows, []interface{}{
			r.BatchNumber, order, r.CheckedAt.UTC().Format(timeLayout),
			num(r.InputMeters), num(r.CheckedMeters), num(r.RejectedMeters),
			string(r.QCStatus), r.Inspector, r.Shift, strings.Join(r.Defects, ", "),
		})
	}

	sum := models.SummarizeFolding(records)
	totals := [][2]interface{}{
		{"Records", sum.Records},
		{"Input meters", num(sum.InputMeters)},
		{"Checked meters", num(sum.CheckedMeters)},
		{"Rejected meters", num(sum.RejectedMeters)},
		{"Rejection rate %", num(sum.RejectionRate)},
	}
	for _, s := range models.AllQCStatuses {
		totals = append(totals, [2]interface{}{"QC " + string(s), sum.ByStatus[s]})
	}
	return &Workbook{
		Title:  "QC summary",
		Totals: totals,
		Detail: Sheet{
			Name: "Folding",
			Headers: []string{"Batch", "Order", "Checked At", "Input", "Checked", "Rejected",
				"QC Status", "Inspector", "Shift", "Defects"},
			Rows: rows,
		},
	}
}

// InventoryStock lays out the current stock position
func InventoryStock(items []models.InventoryItem) *Workbook {
	value := decimal.Zero
	low := 0
	rows := make([][]interface{}, 0, len(items))
	for i := range items {
		it := &items[i]
		value = value.Add(it.StockValue())
		flag := ""
		if it.IsLow() {
			low++
			flag = "LOW"
		}
		rows = append(rows, []interface{}{
			it.SKU, it.Name, string(it.Category), it.Unit, num(it.Quantity), num(it.ReorderLevel),
			num(it.UnitCost), num(it.StockValue()), it.Location, flag,
		})
	}

	return &Workbook{
		Title: "Inventory stock",
		Totals: [][2]interface{}{
			{"Items", len(items)},
			{"Stock value", num(value)},
			{"Low stock items", low},
		},
		Detail: Sheet{
			Name: "Stock",
			Headers: []string{"SKU", "Name", "Category", "Unit", "Quantity", "Reorder Level",
				"Unit Cost", "Stock Value", "Location", "Low"},
			Rows: rows,
		},
	}
}

// DispatchSummary lays out dispatches with their line items on a second sheet
func DispatchSummary(dispatches []models.Dispatch) *Workbook {
	meters, amount := decimal.Zero, decimal.Zero
	rows := make([][]interface{}, 0, len(dispatches))
	lines := [][]interface{}{}
	for _, d := range dispatches {
		if d.Status != models.DispatchCancelled {
			meters = meters.Add(d.TotalMeters)
			amount = amount.Add(d.TotalAmount)
		}
		customer := ""
		if d.Customer != nil {
			customer = d.Customer.Name
		}
		rows = append(rows, []interface{}{
			d.DispatchNumber, customer, string(d.Status), d.InvoiceNumber, d.VehicleNumber,
			num(d.TotalMeters), d.TotalRolls, num(d.TotalAmount),
			optTime(d.DispatchedAt), optTime(d.DeliveredAt),
		})
		for _, it := range d.Items {
			lines = append(lines, []interface{}{
				d.DispatchNumber, it.Description, num(it.Meters), it.Rolls, num(it.Rate), num(it.Amount),
			})
		}
	}

	wb := &Workbook{
		Title: "Dispatch summary",
		Totals: [][2]interface{}{
			{"Dispatches", len(dispatches)},
			{"Meters (excl. cancelled)", num(meters)},
			{"Amount (excl. cancelled)", num(amount)},
		},
		Detail: Sheet{
			Name: "Dispatches",
			Headers: []string{"Number", "Customer", "Status", "Invoice", "Vehicle",
				"Meters", "Rolls", "Amount", "Dispatched At", "Delivered At"},
			Rows: rows,
		},
	}
	if len(lines) > 0 {
		wb.Extra = append(wb.Extra, Sheet{
			Name:    "Items",
			Headers: []string{"Dispatch", "Description", "Meters", "Rolls", "Rate", "Amount"},
			Rows:    lines,
		})
	}
	return wb
}

// AttendanceSummary lays out per-employee attendance counts
func AttendanceSummary(employees []models.Employee, marks []models.Attendance) *Workbook {
	summaries := models.SummarizeAttendance(employees, marks)
	payable := decimal.Zero
	rows := make([][]interface{}, 0, len(summaries))
	for _, s := range summaries {
		payable = payable.Add(s.PayableDays)
		rows = append(rows, []interface{}{
			s.EmployeeCode, s.FullName,
			s.Counts[models.AttendancePresent], s.Counts[models.AttendanceHalfDay],
			s.Counts[models.AttendanceAbsent], s.Counts[models.AttendanceLeave],
			num(s.PayableDays), num(s.Overtime),
		})
	}
	return &Workbook{
		Title: "Attendance summary",
		Totals: [][2]interface{}{
			{"Employees", len(summaries)},
			{"Marks", len(marks)},
			{"Payable days", num(payable)},
		},
		Detail: Sheet{
			Name:    "Attendance",
			Headers: []string{"Code", "Name", "Present", "Half Day", "Absent", "Leave", "Payable Days", "Overtime Hours"},
			Rows:    rows,
		},
	}
}

// Render writes the workbook as xlsx: a summary sheet first, then the detail
// and any extra sheets.
func Render(wb *Workbook) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, errors.Wrap(err, "failed to name summary sheet")
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create header style")
	}

	meta := [][2]interface{}{
		{"Report", wb.Title},
		{"Period from", wb.From.Format(timeLayout)},
		{"Period to", wb.To.Format(timeLayout)},
		{"Generated at", wb.Created.Format(timeLayout)},
	}
	row := 1
	for _, kv := range append(meta, wb.Totals...) {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", row), &[]interface{}{kv[0], kv[1]}); err != nil {
			return nil, errors.Wrap(err, "failed to write summary")
		}
		row++
	}
	_ = f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", row-1), bold)
	_ = f.SetColWidth(summarySheet, "A", "A", 28)
	_ = f.SetColWidth(summarySheet, "B", "B", 24)

	for _, sheet := range append([]Sheet{wb.Detail}, wb.Extra...) {
		if err := writeSheet(f, sheet, bold); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to write workbook")
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet Sheet, headerStyle int) error {
	if _, err := f.NewSheet(sheet.Name); err != nil {
		return errors.Wrapf(err, "failed to create sheet %s", sheet.Name)
	}

	header := make([]interface{}, len(sheet.Headers))
	for i, h := range sheet.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
		return errors.Wrapf(err, "failed to write %s header", sheet.Name)
	}
	last, _ := excelize.ColumnNumberToName(len(sheet.Headers))
	_ = f.SetCellStyle(sheet.Name, "A1", last+"1", headerStyle)
	_ = f.SetColWidth(sheet.Name, "A", last, 16)

	for i, r := range sheet.Rows {
		r := r
		if err := f.SetSheetRow(sheet.Name, fmt.Sprintf("A%d", i+2), &r); err != nil {
			return errors.Wrapf(err, "failed to write %s row %d", sheet.Name, i+1)
		}
	}
	return nil
}

// num keeps quantities numeric in the sheet
func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func optDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func optTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
