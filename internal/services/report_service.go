package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/grupoterrena/terrena-api/internal/repository"
	"github.com/jung-kurt/gofpdf"
)

type ReportService struct {
	saleSvc *SaleService
}

func NewReportService(saleSvc *SaleService) *ReportService {
	return &ReportService{saleSvc: saleSvc}
}

var spanishMonths = []string{"", "Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio", "Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"}

func formatLongDate(t time.Time) string {
	return fmt.Sprintf("%d de %s del %d", t.Day(), spanishMonths[t.Month()], t.Year())
}

var paymentKindLabels = map[string]string{
	"small_advance": "Reserva",
	"big_advance":   "Prima",
	"installment":   "Cuota",
	"full":          "Pago Total",
	"refund":        "Reembolso",
}

// GenerateStatementPDF builds the account statement of a sale: client data,
// unit list, installment table and payment ledger.
func (s *ReportService) GenerateStatementPDF(ctx context.Context, saleID uint) ([]byte, string, error) {
	sale, err := s.saleSvc.FindByIDWithDetails(ctx, saleID)
	if err != nil {
		return nil, "", err
	}
	today := time.Now()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Estado de Cuenta")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 6, "Cliente:")
	pdf.Cell(80, 6, sale.Client.FullName)
	pdf.Ln(6)
	pdf.Cell(60, 6, "Venta:")
	pdf.Cell(80, 6, sale.GUID)
	pdf.Ln(6)
	pdf.Cell(60, 6, "Fecha:")
	pdf.Cell(80, 6, formatLongDate(today))
	pdf.Ln(6)
	pdf.Cell(60, 6, "Precio Total:")
	pdf.Cell(80, 6, fmt.Sprintf("%.2f", sale.TotalPrice))
	pdf.Ln(6)
	pdf.Cell(60, 6, "Total Recibido:")
	pdf.Cell(80, 6, fmt.Sprintf("%.2f", sale.CashReceived()))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 8, "Unidades")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	for _, u := range sale.Units() {
		pdf.Cell(40, 6, u.Number)
		pdf.Cell(40, 6, fmt.Sprintf("%.2f m2", u.Area))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	if len(sale.Installments) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(40, 8, "Cuotas")
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 9)
		pdf.Cell(15, 6, "No.")
		pdf.Cell(30, 6, "Vencimiento")
		pdf.Cell(30, 6, "Monto")
		pdf.Cell(30, 6, "Pagado")
		pdf.Cell(30, 6, "Pendiente")
		pdf.Cell(30, 6, "Estado")
		pdf.Ln(6)

		pdf.SetFont("Arial", "", 9)
		for i := range sale.Installments {
			inst := &sale.Installments[i]
			status := inst.Status
			if inst.IsOverdueAt(today) {
				status = fmt.Sprintf("mora (%d dias)", inst.OverdueDaysAt(today))
			}
			pdf.Cell(15, 6, fmt.Sprintf("%d", inst.Sequence))
			pdf.Cell(30, 6, inst.DueDate.Format("02/01/2006"))
			pdf.Cell(30, 6, fmt.Sprintf("%.2f", inst.AmountDue+inst.StackedAmount))
			pdf.Cell(30, 6, fmt.Sprintf("%.2f", inst.AmountPaid))
			pdf.Cell(30, 6, fmt.Sprintf("%.2f", inst.Outstanding()))
			pdf.Cell(30, 6, status)
			pdf.Ln(6)
		}
		pdf.Ln(4)
	}

	if len(sale.Payments) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(40, 8, "Pagos")
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 9)
		pdf.Cell(30, 6, "Fecha")
		pdf.Cell(40, 6, "Tipo")
		pdf.Cell(30, 6, "Monto")
		pdf.Cell(40, 6, "Recibo")
		pdf.Ln(6)

		pdf.SetFont("Arial", "", 9)
		for i := range sale.Payments {
			p := &sale.Payments[i]
			kind := p.Kind
			if label, ok := paymentKindLabels[kind]; ok {
				kind = label
			}
			receipt := ""
			if p.ReceiptNumber != nil {
				receipt = *p.ReceiptNumber
			}
			amount := p.Amount
			if p.IsRefund() {
				amount = -amount
			}
			pdf.Cell(30, 6, p.PaymentDate.Format("02/01/2006"))
			pdf.Cell(40, 6, kind)
			pdf.Cell(30, 6, fmt.Sprintf("%.2f", amount))
			pdf.Cell(40, 6, receipt)
			pdf.Ln(6)
		}
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("estado_cuenta_%s_%s.pdf", sale.GUID, today.Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// GenerateOverdueCSV builds the collections report: every overdue installment
// as of today, oldest first, with client contact data.
func (s *ReportService) GenerateOverdueCSV(ctx context.Context, today time.Time) (*bytes.Buffer, error) {
	overdue, err := s.saleSvc.FindOverdueInstallments(ctx, today)
	if err != nil {
		return nil, err
	}

	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{"Cuota ID", "Venta", "Cliente", "Teléfono", "Vencimiento", "Días Mora", "Monto", "Pendiente"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i := range overdue {
		inst := &overdue[i]
		clientName := "N/A"
		phone := "N/A"
		saleGUID := fmt.Sprintf("%d", inst.SaleID)
		if inst.Sale.ID != 0 {
			saleGUID = inst.Sale.GUID
			if inst.Sale.Client.ID != 0 {
				clientName = inst.Sale.Client.FullName
				phone = inst.Sale.Client.Phone
			}
		}

		record := []string{
			fmt.Sprintf("%d", inst.ID),
			saleGUID,
			clientName,
			phone,
			inst.DueDate.Format("2006-01-02"),
			fmt.Sprintf("%d", inst.OverdueDaysAt(today)),
			fmt.Sprintf("%.2f", inst.AmountDue+inst.StackedAmount),
			fmt.Sprintf("%.2f", inst.Outstanding()),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateSalesCSV dumps the sale list matching the query
func (s *ReportService) GenerateSalesCSV(ctx context.Context, query *repository.SaleQuery) (*bytes.Buffer, error) {
	sales, _, err := s.saleSvc.List(ctx, query)
	if err != nil {
		return nil, err
	}

	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{"Venta", "Cliente", "Modo", "Estado", "Unidades", "Precio", "Costo", "Ganancia", "Recibido", "Creada"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i := range sales {
		sale := &sales[i]
		record := []string{
			sale.GUID,
			sale.Client.FullName,
			sale.PaymentMode,
			sale.Status,
			fmt.Sprintf("%d", len(sale.SaleUnits)),
			fmt.Sprintf("%.2f", sale.TotalPrice),
			fmt.Sprintf("%.2f", sale.TotalCost),
			fmt.Sprintf("%.2f", sale.Profit),
			fmt.Sprintf("%.2f", sale.CashReceived()),
			sale.CreatedAt.Format("2006-01-02"),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return b, nil
}
