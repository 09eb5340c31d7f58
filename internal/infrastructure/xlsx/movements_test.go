package xlsx_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/xlsx"
)

func TestWriteMovements_RelecturaConFormatoDeImportacion(t *testing.T) {
	cost := decimal.RequireFromString("12.5")
	at := time.Date(2026, 9, 30, 8, 15, 0, 0, time.UTC)
	movements := []*entity.StockMovement{
		{ID: "m-1", Type: entity.MovementTypeIn, WarehouseID: "w-1", ProductID: "p-1", Qty: 10, UnitCost: &cost, OccurredAt: at, CreatedBy: "u-1"},
		{ID: "m-2", Type: entity.MovementTypeTransfer, WarehouseID: "w-1", WarehouseToID: "w-2", ProductID: "p-1", Qty: 3, Reason: "traslado", OccurredAt: at, CreatedBy: "u-1"},
	}

	var buf bytes.Buffer
	require.NoError(t, xlsx.WriteMovements(&buf, movements))

	rows, err := xlsx.ParseMovementRows(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].RowIndex)
	assert.Equal(t, "IN", rows[0].Cells[inventory.ColType])
	assert.Equal(t, "10", rows[0].Cells[inventory.ColQty])
	assert.Equal(t, "12.5", rows[0].Cells[inventory.ColUnitCost])
	assert.Equal(t, "2026-09-30T08:15:00Z", rows[0].Cells[inventory.ColOccurredAt])

	assert.Equal(t, 3, rows[1].RowIndex)
	assert.Equal(t, "w-2", rows[1].Cells[inventory.ColWarehouseToID])
	assert.Equal(t, "traslado", rows[1].Cells[inventory.ColReason])
	assert.Len(t, rows[1].Cells, len(inventory.ImportColumns))
}

func TestParseMovementRows_OmiteFilasVaciasYConvierteFechas(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	header := []any{"Type", "RefType", "RefId", "WarehouseId", "WarehouseToId", "ProductId", "Qty", "UnitCost", "Reason", "OccurredAt", "CreatedBy"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	row := []any{"OUT", "", "", "w-1", "", "p-1", 2, "", "", 46295, "u-1"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &row))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := xlsx.ParseMovementRows(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].RowIndex)
	assert.Equal(t, "2026-09-30T00:00:00Z", rows[0].Cells[inventory.ColOccurredAt])
	assert.Empty(t, rows[0].Cells[inventory.ColDirection])
}

func TestWriteTemplate_EncabezadosYListas(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, xlsx.WriteTemplate(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(xlsx.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, inventory.ImportColumns, rows[0])

	dvs, err := f.GetDataValidations(xlsx.SheetName)
	require.NoError(t, err)
	assert.Len(t, dvs, 3)
}
