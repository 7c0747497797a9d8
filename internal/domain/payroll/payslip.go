package payroll

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

type PayslipData struct {
	FirstName  string
	LastName   string
	Email      string
	Period     string
	BaseSalary float64
	Allowances float64
	Deductions float64
	GrossPay   float64
	NetPay     float64
	Status     string
}

func (s *Service) PayslipData(ctx context.Context, unitID, recordID string) (PayslipData, error) {
	var data PayslipData
	err := s.DB.QueryRow(ctx, `
    SELECT e.first_name, e.last_name, e.email,
           p.period, p.base_salary, p.allowances, p.deductions, p.gross_pay, p.net_pay, p.status
    FROM payroll_records p
    JOIN employees e ON p.employee_id = e.id
    WHERE p.unit_id = $1 AND p.id = $2
  `, unitID, recordID).Scan(
		&data.FirstName, &data.LastName, &data.Email,
		&data.Period, &data.BaseSalary, &data.Allowances, &data.Deductions,
		&data.GrossPay, &data.NetPay, &data.Status,
	)
	if err != nil {
		return PayslipData{}, err
	}
	return data, nil
}

// RenderPayslip produces the payslip PDF bytes for download.
func RenderPayslip(data PayslipData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s %s", data.FirstName, data.LastName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", data.Email))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", data.Period))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", data.Status))
	pdf.Ln(12)

	rows := []struct {
		label  string
		amount float64
	}{
		{"Base salary", data.BaseSalary},
		{"Allowances", data.Allowances},
		{"Gross pay", data.GrossPay},
		{"Deductions", data.Deductions},
		{"Net pay", data.NetPay},
	}
	for _, row := range rows {
		pdf.CellFormat(90, 8, row.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, fmt.Sprintf("%.2f", row.amount), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
