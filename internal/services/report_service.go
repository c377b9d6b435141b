package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/jung-kurt/gofpdf"
	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

//go:embed templates/reports/*.html
var reportTemplates embed.FS

// ReportService renders statements and the balance sheet. Every figure
// comes from BalanceService, so paid amounts are already clamped.
type ReportService struct {
	balances *BalanceService
}

func NewReportService(balances *BalanceService) *ReportService {
	return &ReportService{balances: balances}
}

// money formats an amount as "Rs 1,234.50"
func money(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return fmt.Sprintf("%sRs %s.%s", sign, grouped.String(), frac)
}

func statementFilename(partyName, ext string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, partyName)
	return fmt.Sprintf("%s_statement_%s.%s", safe, time.Now().Format("2006-01-02"), ext)
}

// PartyStatementPDF renders a party's transaction statement with gofpdf
func (s *ReportService) PartyStatementPDF(ctx context.Context, partyType, partyName string) ([]byte, string, error) {
	report, err := s.balances.PartyReport(ctx, partyType, partyName)
	if err != nil {
		return nil, "", err
	}
	if len(report.Orders) == 0 {
		return nil, "", ErrNotFound
	}

	title := "Customer Transaction Report"
	if partyType == models.PartyTypeSupplier {
		title = "Supplier Transaction Report"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, "RK & Co", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 13)
	pdf.CellFormat(0, 8, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, "Name: "+report.PartyName)
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, "Report generated: "+time.Now().Format("January 2, 2006"))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, "Summary")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	summaryRows := [][2]string{
		{"Total orders", fmt.Sprintf("%d", report.Summary.OrderCount)},
		{"Total amount", money(report.Summary.TotalAmount)},
		{"Total paid", money(report.Summary.TotalPaid)},
		{"Outstanding balance", money(report.Summary.Balance)},
	}
	for _, row := range summaryRows {
		pdf.Cell(50, 6, row[0]+":")
		pdf.Cell(60, 6, row[1])
		pdf.Ln(6)
	}
	pdf.SetFont("Arial", "I", 9)
	pdf.MultiCell(0, 5, AmountToWords(report.Summary.Balance), "", "L", false)
	pdf.Ln(4)

	headers := []string{"Date", "Product", "Liters", "Rate/L", "Total", "Paid", "Balance", "Status"}
	widths := []float64{22, 24, 18, 20, 26, 26, 26, 18}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, o := range report.Orders {
		liters, rate := "-", "-"
		if o.Liters != nil {
			liters = o.Liters.StringFixed(2) + "L"
		}
		if o.RatePerLitre != nil {
			rate = money(*o.RatePerLitre)
		}
		cells := []string{
			o.Date.Format("Jan 2, 2006"),
			o.Product,
			liters,
			rate,
			money(o.TotalAmount),
			money(o.PaidAmount),
			money(o.Balance),
			strings.ToUpper(o.PaymentStatus),
		}
		for i, c := range cells {
			align := "R"
			if i < 2 || i == len(cells)-1 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), statementFilename(report.PartyName, "pdf"), nil
}

// PartyStatementXLSX exports a party's orders as a spreadsheet
func (s *ReportService) PartyStatementXLSX(ctx context.Context, partyType, partyName string) ([]byte, string, error) {
	report, err := s.balances.PartyReport(ctx, partyType, partyName)
	if err != nil {
		return nil, "", err
	}
	if len(report.Orders) == 0 {
		return nil, "", ErrNotFound
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Statement"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4})

	_ = f.SetCellValue(sheet, "A1", report.PartyName)
	_ = f.SetCellValue(sheet, "A2", "Total amount")
	_ = f.SetCellValue(sheet, "B2", report.Summary.TotalAmount.InexactFloat64())
	_ = f.SetCellValue(sheet, "A3", "Total paid")
	_ = f.SetCellValue(sheet, "B3", report.Summary.TotalPaid.InexactFloat64())
	_ = f.SetCellValue(sheet, "A4", "Balance")
	_ = f.SetCellValue(sheet, "B4", report.Summary.Balance.InexactFloat64())
	_ = f.SetCellStyle(sheet, "B2", "B4", moneyStyle)

	headers := []string{"Order", "Date", "Product", "Liters", "Rate/L", "Total", "Paid", "Balance", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 6)
		_ = f.SetCellValue(sheet, cell, h)
	}
	_ = f.SetCellStyle(sheet, "A6", "I6", headerStyle)

	for r, o := range report.Orders {
		row := r + 7
		values := []any{
			o.ID,
			o.Date.Format("2006-01-02"),
			o.Product,
			optionalFloat(o.Liters),
			optionalFloat(o.RatePerLitre),
			o.TotalAmount.InexactFloat64(),
			o.PaidAmount.InexactFloat64(),
			o.Balance.InexactFloat64(),
			o.PaymentStatus,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	if last := len(report.Orders) + 6; last >= 7 {
		_ = f.SetCellStyle(sheet, "F7", fmt.Sprintf("H%d", last), moneyStyle)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), statementFilename(report.PartyName, "xlsx"), nil
}

func optionalFloat(d *decimal.Decimal) any {
	if d == nil {
		return ""
	}
	return d.InexactFloat64()
}

// BalanceSheetHTML renders the station-wide balance sheet page
func (s *ReportService) BalanceSheetHTML(ctx context.Context) ([]byte, error) {
	balance, err := s.balances.GlobalBalance(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.balances.PartyReports(ctx, models.PartyTypeCustomer)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.balances.PartyReports(ctx, models.PartyTypeSupplier)
	if err != nil {
		return nil, err
	}

	data := struct {
		Date      string
		Balance   *GlobalBalance
		Net       decimal.Decimal
		Customers []PartyReport
		Suppliers []PartyReport
	}{
		Date:      time.Now().Format("January 2, 2006"),
		Balance:   balance,
		Net:       balance.NetReceivable.Sub(balance.NetPayable),
		Customers: customers,
		Suppliers: suppliers,
	}

	tmpl, err := template.New("balance_sheet.html").
		Funcs(template.FuncMap{"money": money}).
		ParseFS(reportTemplates, "templates/reports/balance_sheet.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance sheet template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute balance sheet template: %w", err)
	}
	return buf.Bytes(), nil
}

// BalanceSheetPDF converts the balance sheet page with wkhtmltopdf
func (s *ReportService) BalanceSheetPDF(ctx context.Context) ([]byte, string, error) {
	html, err := s.BalanceSheetHTML(ctx)
	if err != nil {
		return nil, "", err
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create pdf generator: %w", err)
	}
	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, "", fmt.Errorf("failed to create pdf: %w", err)
	}

	filename := fmt.Sprintf("balance_sheet_%s.pdf", time.Now().Format("2006-01-02"))
	return pdfg.Bytes(), filename, nil
}
