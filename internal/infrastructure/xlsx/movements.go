// Package xlsx lee y escribe movimientos en hojas de cálculo con el formato de importación.
package xlsx

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// SheetName hoja que generan WriteMovements y WriteTemplate.
const SheetName = "Movimientos"

// templateRows filas con lista desplegable en la plantilla.
const templateRows = 5000

// exportExtraColumns columnas informativas después del formato de importación; el parser las ignora.
var exportExtraColumns = []string{"Id", "WarehouseName", "WarehouseToName", "ProductCode", "ProductName", "CreatedAt"}

// ParseMovementRows lee la primera hoja. La fila de encabezados (si existe) y las filas vacías se
// omiten; RowIndex es el número de fila de la hoja. Una fecha guardada como número de serie de
// Excel en OccurredAt se convierte a RFC3339.
func ParseMovementRows(r io.Reader) ([]inventory.RawImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("abrir xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("el archivo no tiene hojas")
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("leer hoja %s: %w", sheet, err)
	}

	out := make([]inventory.RawImportRow, 0, len(rows))
	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), inventory.ImportColumns[inventory.ColType]) {
			continue
		}
		if isEmpty(row) {
			continue
		}
		cells := make([]string, len(inventory.ImportColumns))
		copy(cells, row)
		cells[inventory.ColOccurredAt] = normalizeDate(cells[inventory.ColOccurredAt])
		out = append(out, inventory.RawImportRow{RowIndex: i + 1, Cells: cells})
	}
	return out, nil
}

func isEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// normalizeDate convierte un número de serie de Excel a RFC3339; cualquier otro texto queda igual.
func normalizeDate(v string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return t.UTC().Format(time.RFC3339)
}

// WriteMovements escribe los movimientos con el formato de importación más columnas informativas.
func WriteMovements(w io.Writer, movements []*entity.StockMovement) error {
	f, err := newWorkbook(append(append([]string{}, inventory.ImportColumns...), exportExtraColumns...))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	for i, m := range movements {
		unitCost := ""
		if m.UnitCost != nil {
			unitCost = m.UnitCost.String()
		}
		row := []any{
			string(m.Type), string(m.RefType), m.RefID, m.WarehouseID, m.WarehouseToID, m.ProductID,
			m.Qty, unitCost, m.Reason, m.OccurredAt.UTC().Format(time.RFC3339), m.CreatedBy, string(m.Direction),
			m.ID, m.WarehouseName, m.WarehouseToName, m.ProductCode, m.ProductName, m.CreatedAt.UTC().Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("escribir fila %d: %w", i+2, err)
		}
	}
	return f.Write(w)
}

// WriteTemplate plantilla vacía de importación con listas desplegables para Type, RefType y Direction.
func WriteTemplate(w io.Writer) error {
	f, err := newWorkbook(inventory.ImportColumns)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	types := make([]string, 0, len(entity.MovementTypes))
	for _, t := range entity.MovementTypes {
		types = append(types, string(t))
	}
	refTypes := make([]string, 0, len(entity.RefTypes))
	for _, t := range entity.RefTypes {
		refTypes = append(refTypes, string(t))
	}
	lists := map[int][]string{
		inventory.ColType:      types,
		inventory.ColRefType:   refTypes,
		inventory.ColDirection: {string(entity.DirectionIncrease), string(entity.DirectionDecrease)},
	}
	for col, values := range lists {
		if err := addDropList(f, col, values); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func newWorkbook(headers []string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, err
	}
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &row); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("escribir encabezados: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, style); err != nil {
		_ = f.Close()
		return nil, err
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(SheetName, "A", last, 20)
	return f, nil
}

func addDropList(f *excelize.File, col int, values []string) error {
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return err
	}
	dv := excelize.NewDataValidation(true)
	dv.Sqref = fmt.Sprintf("%s2:%s%d", name, name, templateRows+1)
	if err := dv.SetDropList(values); err != nil {
		return fmt.Errorf("lista %s: %w", name, err)
	}
	return f.AddDataValidation(SheetName, dv)
}
