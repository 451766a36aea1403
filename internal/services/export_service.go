package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

type ExportService struct {
	saleSvc *SaleService
}

func NewExportService(saleSvc *SaleService) *ExportService {
	return &ExportService{saleSvc: saleSvc}
}

// ExportScheduleXLSX builds the installment schedule workbook of a sale
func (s *ExportService) ExportScheduleXLSX(ctx context.Context, saleID uint) ([]byte, string, error) {
	sale, err := s.saleSvc.FindByIDWithDetails(ctx, saleID)
	if err != nil {
		return nil, "", err
	}
	today := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Cuotas"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "Plan de Pagos")
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	_ = f.SetCellValue(sheet, "A3", "Cliente")
	_ = f.SetCellValue(sheet, "B3", sale.Client.FullName)
	_ = f.SetCellValue(sheet, "A4", "Venta")
	_ = f.SetCellValue(sheet, "B4", sale.GUID)
	_ = f.SetCellValue(sheet, "A5", "Precio Total")
	_ = f.SetCellValue(sheet, "B5", sale.TotalPrice)
	_ = f.SetCellValue(sheet, "A6", "Reserva")
	_ = f.SetCellValue(sheet, "B6", sale.ReservationAmount)
	_ = f.SetCellValue(sheet, "A7", "Prima")
	_ = f.SetCellValue(sheet, "B7", sale.AdvanceAmount)

	_ = f.SetCellValue(sheet, "A9", "No.")
	_ = f.SetCellValue(sheet, "B9", "Vencimiento")
	_ = f.SetCellValue(sheet, "C9", "Monto")
	_ = f.SetCellValue(sheet, "D9", "Pagado")
	_ = f.SetCellValue(sheet, "E9", "Pendiente")
	_ = f.SetCellValue(sheet, "F9", "Estado")
	_ = f.SetCellValue(sheet, "G9", "Días Mora")

	row := 10
	for i := range sale.Installments {
		inst := &sale.Installments[i]
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), inst.Sequence)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), inst.DueDate.Format("2006-01-02"))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), inst.AmountDue+inst.StackedAmount)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), inst.AmountPaid)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), inst.Outstanding())
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), inst.Status)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), inst.OverdueDaysAt(today))
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("plan_pagos_%s_%s.xlsx", sale.GUID, today.Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
