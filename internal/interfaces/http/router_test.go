package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/inventario-ledger/pkg/jwt"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// App completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

type apiEnv struct {
	app        *fiber.App
	whA, whB   string
	whInactive string
	prod       string
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	s := memory.NewStore()
	e := &apiEnv{
		whA:        uuid.NewString(),
		whB:        uuid.NewString(),
		whInactive: uuid.NewString(),
		prod:       uuid.NewString(),
	}
	s.AddWarehouse(entity.Warehouse{ID: e.whA, Code: "CEN", Name: "Central", Active: true})
	s.AddWarehouse(entity.Warehouse{ID: e.whB, Code: "NOR", Name: "Norte", Active: true})
	s.AddWarehouse(entity.Warehouse{ID: e.whInactive, Code: "OLD", Name: "Cerrada", Active: false})
	s.AddProduct(entity.Product{ID: e.prod, Code: "CAF-500", Name: "Café 500g", Active: true})

	log := logger.Nop()
	validator := inventory.NewMovementValidator(s.Warehouses(), s.Products(), s.Documents(), nil)
	journal := inventory.NewMovementJournal(s.Movements())
	transfers := inventory.NewTransferCoordinator(validator, journal)

	e.app = fiber.New()
	apphttp.Router(e.app, apphttp.RouterDeps{
		Movements:     inventory.NewRegisterMovementUseCase(s, validator, transfers, journal, nil, nil, log, 100),
		Ledger:        inventory.NewStockLedger(s, s.Stocks(), s.Stats(), validator, journal, nil, nil, log),
		Stats:         inventory.NewStatsAggregator(s.Stats(), s.Stocks(), nil, log),
		Replenishment: inventory.NewReplenishmentUseCase(s.Stocks()),
		Reconcile:     inventory.NewReconcileUseCase(s.Stats(), log),
		Warehouses:    s.Warehouses(),
		Products:      s.Products(),
		JWTSecret:     testJWTSecret,
	})
	return e
}

func (e *apiEnv) do(t *testing.T, role, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *apiEnv) movement(typ, wh string, qty int64) dto.CreateMovementRequest {
	at := time.Now().UTC().Add(-time.Hour)
	return dto.CreateMovementRequest{Type: typ, WarehouseID: wh, ProductID: e.prod, Qty: qty, OccurredAt: &at}
}

func (e *apiEnv) createStock(t *testing.T, wh string, qty int64) dto.StockResponse {
	t.Helper()
	resp := e.do(t, pkgjwt.RoleBodeguero, http.MethodPost, "/api/inventory/stocks", dto.CreateStockRequest{
		WarehouseID: wh, ProductID: e.prod, QtyOnHand: qty, ReorderPoint: 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.StockResponse](t, resp)
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestMovements_CrearYListar(t *testing.T) {
	e := newAPI(t)

	resp := e.do(t, pkgjwt.RoleBodeguero, http.MethodPost, "/api/inventory/movements", e.movement("IN", e.whA, 25))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.MovementResponse](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, testUserID, created.CreatedBy, "createdBy sale del token")

	resp = e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/movements?search=caf%C3%A9&pageSize=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[dto.MovementPageResponse](t, resp)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, 5, page.PageSize)
	assert.Equal(t, created.ID, page.Items[0].ID)
	assert.Equal(t, "Central", page.Items[0].WarehouseName)

	resp = e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/movements/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(25), decode[dto.MovementResponse](t, resp).Qty)
}

func TestMovements_FiltroDeBodegaEsElOrigen(t *testing.T) {
	e := newAPI(t)
	e.createStock(t, e.whA, 40)

	tr := e.movement("TRANSFER", e.whA, 15)
	tr.WarehouseToID = e.whB
	resp := e.do(t, pkgjwt.RoleBodeguero, http.MethodPost, "/api/inventory/movements", tr)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	transfer := decode[dto.MovementResponse](t, resp)

	resp = e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/movements?type=TRANSFER&warehouseId="+e.whB, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, decode[dto.MovementPageResponse](t, resp).Total, "el destino no cuenta como bodega de origen")

	resp = e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/movements?warehouseToId="+e.whB, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[dto.MovementPageResponse](t, resp)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, transfer.ID, page.Items[0].ID)

	resp = e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/movements?type=TRANSFER&warehouseId="+e.whA, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[dto.MovementPageResponse](t, resp).Total)
}

func TestMovements_MapeoDeErrores(t *testing.T) {
	e := newAPI(t)
	e.createStock(t, e.whA, 5)

	cases := []struct {
		name   string
		body   dto.CreateMovementRequest
		status int
		code   string
		field  string
	}{
		{"stock insuficiente", e.movement("OUT", e.whA, 6), http.StatusConflict, "INSUFFICIENT_STOCK", "qty"},
		{"bodega inactiva", e.movement("IN", e.whInactive, 1), http.StatusUnprocessableEntity, "INACTIVE_ENTITY", "warehouseId"},
		{"bodega inexistente", e.movement("IN", uuid.NewString(), 1), http.StatusNotFound, "NOT_FOUND", "warehouseId"},
		{"cantidad cero", e.movement("IN", e.whA, 0), http.StatusBadRequest, "INVALID_INPUT", "qty"},
		{"transfer misma bodega", func() dto.CreateMovementRequest {
			m := e.movement("TRANSFER", e.whA, 1)
			m.WarehouseToID = e.whA
			return m
		}(), http.StatusBadRequest, "INVALID_INPUT", "warehouseToId"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := e.do(t, pkgjwt.RoleBodeguero, http.MethodPost, "/api/inventory/movements", tc.body)
			require.Equal(t, tc.status, resp.StatusCode)
			body := decode[dto.ErrorResponse](t, resp)
			assert.Equal(t, tc.code, body.Code)
			assert.Contains(t, body.Fields, tc.field)
		})
	}
}

func TestMovements_CamposObligatorios(t *testing.T) {
	e := newAPI(t)
	resp := e.do(t, pkgjwt.RoleBodeguero, http.MethodPost, "/api/inventory/movements", dto.CreateMovementRequest{Qty: 1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.ElementsMatch(t, []string{"type", "warehouseId", "productId"}, body.Fields)
}

func TestMovements_PatchSoloMotivo(t *testing.T) {
	e := newAPI(t)
	resp := e.do(t, pkgjwt.RoleBodeguero, http.MethodPost, "/api/inventory/movements", e.movement("IN", e.whA, 3))
	m := decode[dto.MovementResponse](t, resp)

	resp = e.do(t, pkgjwt.RoleBodeguero, http.MethodPatch, "/api/inventory/movements/"+m.ID, map[string]any{"qty": 30})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[dto.ErrorResponse](t, resp).Fields, "qty")

	resp = e.do(t, pkgjwt.RoleBodeguero, http.MethodPatch, "/api/inventory/movements/"+m.ID, map[string]any{"reason": "conteo de cierre"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[dto.MovementResponse](t, resp)
	assert.Equal(t, "conteo de cierre", updated.Reason)
	assert.Equal(t, int64(3), updated.Qty)
}

func TestMovements_EliminarRestauraStock(t *testing.T) {
	e := newAPI(t)
	st := e.createStock(t, e.whA, 10)
	resp := e.do(t, pkgjwt.RoleBodeguero, http.MethodPost, "/api/inventory/movements", e.movement("OUT", e.whA, 4))
	m := decode[dto.MovementResponse](t, resp)

	resp = e.do(t, pkgjwt.RoleBodeguero, http.MethodDelete, "/api/inventory/movements/"+m.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, pkgjwt.RoleBodeguero, http.MethodGet, "/api/inventory/stocks/"+st.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(10), decode[dto.StockResponse](t, resp).QtyOnHand)

	resp = e.do(t, pkgjwt.RoleBodeguero, http.MethodGet, "/api/inventory/movements/"+m.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMovements_ImportacionParcial(t *testing.T) {
	e := newAPI(t)
	at := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	row := func(typ, qty string) []string {
		return []string{typ, "", "", e.whA, "", e.prod, qty, "", "", at, "", ""}
	}

	resp := e.do(t, pkgjwt.RoleBodeguero, http.MethodPost, "/api/inventory/movements/bulk", dto.BulkImportRequest{
		Rows: [][]string{row("IN", "10"), row("OUT", "abc"), row("OUT", "4")},
	})
	require.Equal(t, http.StatusMultiStatus, resp.StatusCode)
	res := decode[dto.ImportResultResponse](t, resp)
	assert.Equal(t, 2, res.InsertedCount)
	require.Len(t, res.InvalidRows, 1)
	assert.Equal(t, 2, res.InvalidRows[0].RowIndex)
	assert.Equal(t, []int{inventory.ColQty}, res.InvalidRows[0].ErrorCells)
	assert.NotEmpty(t, res.InvalidRows[0].Message)

	resp = e.do(t, pkgjwt.RoleBodeguero, http.MethodPost, "/api/inventory/movements/bulk", dto.BulkImportRequest{
		Rows: [][]string{row("IN", "1")},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMovements_ExportarEImportarXLSX(t *testing.T) {
	e := newAPI(t)
	resp := e.do(t, pkgjwt.RoleBodeguero, http.MethodPost, "/api/inventory/movements", e.movement("IN", e.whA, 7))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, pkgjwt.RoleBodeguero, http.MethodGet, "/api/inventory/movements/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	file, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "movimientos.xlsx")
	require.NoError(t, err)
	_, err = part.Write(file)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/movements/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleBodeguero))
	resp, err = e.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[dto.ImportResultResponse](t, resp).InsertedCount)

	resp = e.do(t, pkgjwt.RoleBodeguero, http.MethodGet, "/api/inventory/movements", nil)
	assert.Equal(t, 2, decode[dto.MovementPageResponse](t, resp).Total)
}

func TestMovements_PlantillaYEstadisticas(t *testing.T) {
	e := newAPI(t)

	resp := e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/movements/template", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "plantilla_movimientos.xlsx")
	resp.Body.Close()

	resp = e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/movements/stats?from=2020-01-01&to=2020-01-31", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[dto.StatsResponse](t, resp)
	assert.Zero(t, stats.TotalMovements)
	assert.True(t, stats.TotalValue.IsZero())
	assert.Empty(t, stats.ByType)

	resp = e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/movements/stats?from=ayer", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[dto.ErrorResponse](t, resp).Fields, "from")
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock
// ──────────────────────────────────────────────────────────────────────────────

func TestStocks_TransferenciaYResumen(t *testing.T) {
	e := newAPI(t)
	e.createStock(t, e.whA, 50)
	e.createStock(t, e.whB, 10)

	tr := e.movement("TRANSFER", e.whA, 20)
	tr.WarehouseToID = e.whB
	resp := e.do(t, pkgjwt.RoleBodeguero, http.MethodPost, "/api/inventory/movements", tr)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/stocks/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum := decode[dto.StockSummaryResponse](t, resp)
	assert.Equal(t, int64(60), sum.TotalStock)
	require.Len(t, sum.ByWarehouse, 2)
	for _, w := range sum.ByWarehouse {
		assert.Equal(t, int64(30), w.QtyOnHand, w.WarehouseName)
	}

	resp = e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/stocks?warehouseId="+e.whB, nil)
	page := decode[dto.StockPageResponse](t, resp)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(30), page.Items[0].Available)
}

func TestStocks_UpdateRechazaOnHand(t *testing.T) {
	e := newAPI(t)
	st := e.createStock(t, e.whA, 8)

	resp := e.do(t, pkgjwt.RoleBodeguero, http.MethodPut, "/api/inventory/stocks/"+st.ID, map[string]any{"qtyOnHand": 100})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, pkgjwt.RoleBodeguero, http.MethodPut, "/api/inventory/stocks/"+st.ID, map[string]any{"qtyReserved": 9})
	require.Equal(t, http.StatusConflict, resp.StatusCode, "reserva mayor que el disponible")
	resp.Body.Close()

	resp = e.do(t, pkgjwt.RoleBodeguero, http.MethodPut, "/api/inventory/stocks/"+st.ID, map[string]any{"qtyReserved": 3, "safetyStock": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.StockResponse](t, resp)
	assert.Equal(t, int64(5), out.Available)
	assert.Equal(t, int64(2), out.SafetyStock)
}

func TestStocks_ReinicioExigeRolYCuadra(t *testing.T) {
	e := newAPI(t)
	st := e.createStock(t, e.whA, 12)
	path := "/api/inventory/stocks/" + st.ID + "/reset"

	resp := e.do(t, pkgjwt.RoleVendedor, http.MethodPost, path, map[string]any{"qtyOnHand": 7})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, pkgjwt.RoleBodeguero, http.MethodPost, path, map[string]any{"qtyOnHand": 7})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(7), decode[dto.StockResponse](t, resp).QtyOnHand)

	resp = e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/reconcile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[dto.ReconcileResponse](t, resp)
	assert.True(t, rec.Consistent)
	assert.Empty(t, rec.Drifts)
}

func TestStocks_EliminarReferenciadoEsConflicto(t *testing.T) {
	e := newAPI(t)
	st := e.createStock(t, e.whA, 4)

	resp := e.do(t, pkgjwt.RoleAdmin, http.MethodDelete, "/api/inventory/stocks/"+st.ID, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decode[dto.ErrorResponse](t, resp).Code)

	empty := e.createStock(t, e.whB, 0)
	resp = e.do(t, pkgjwt.RoleAdmin, http.MethodDelete, "/api/inventory/stocks/"+empty.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestStocks_BajoYReposicion(t *testing.T) {
	e := newAPI(t)
	e.createStock(t, e.whA, 4)  // reorderPoint 10: bajo
	e.createStock(t, e.whB, 40) // sobre el umbral

	resp := e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/stocks/low", nil)
	low := decode[dto.StockPageResponse](t, resp)
	require.Len(t, low.Items, 1)
	assert.True(t, low.Items[0].Low)

	resp = e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/stocks/replenishment", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := decode[dto.ReplenishmentResponse](t, resp)
	require.Equal(t, 1, rep.Total)
	assert.Equal(t, int64(15), rep.Replenishments[0].IdealStock)
	assert.Equal(t, int64(11), rep.Replenishments[0].SuggestedOrderQty)
	assert.Equal(t, 1, rep.Replenishments[0].Priority)
}

func TestMasterData_ConsultaPorID(t *testing.T) {
	e := newAPI(t)

	resp := e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/warehouses/"+e.whInactive, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[dto.WarehouseResponse](t, resp).Active)

	resp = e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/products/"+e.prod, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CAF-500", decode[dto.ProductResponse](t, resp).Code)

	resp = e.do(t, pkgjwt.RoleVendedor, http.MethodGet, "/api/inventory/products/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
