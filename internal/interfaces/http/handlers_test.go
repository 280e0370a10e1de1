package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-api/internal/application/apptest"
	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/ventas-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/ventas-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

type apiEnv struct {
	app *fiber.App
	f   *apptest.Fixture
}

func newAPI(t *testing.T, limiter *apphttp.StoreRateLimiter) *apiEnv {
	t.Helper()
	f := apptest.New(t)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Sales:       f.Sales,
		Payments:    f.Payments,
		Refunds:     f.Refunds,
		Shifts:      f.Shifts,
		Stock:       f.Stock,
		Idempotency: memory.NewIdempotencyStore(),
		RateLimiter: limiter,
		JWTSecret:   testJWTSecret,
	})
	return &apiEnv{app: app, f: f}
}

func bearer(t *testing.T, a entity.Actor) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, pkgjwt.Identity{
		UserID: a.UserID, StoreID: a.StoreID, TenantID: a.TenantID, Role: a.Role,
	}, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (e *apiEnv) do(t *testing.T, a entity.Actor, method, path string, body any, headers ...string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, a))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
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

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo por HTTP
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_VentaEmitidaYCobrada(t *testing.T) {
	e := newAPI(t, nil)
	f := e.f

	resp := e.do(t, f.Seller, http.MethodPost, "/api/sales", map[string]any{"customer_id": f.CustomerID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sale := decode[dto.SaleResponse](t, resp)
	assert.Equal(t, "DRAFT", sale.Status)

	resp = e.do(t, f.Seller, http.MethodPost, "/api/sales/"+sale.ID+"/items", map[string]any{"product_id": f.Widget, "quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[dto.SaleDetailResponse](t, resp)
	require.Len(t, detail.Items, 1)

	resp = e.do(t, f.Seller, http.MethodPost, "/api/sales/"+sale.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, f.Cashier, http.MethodPost, "/api/shifts", map[string]any{"opening_float": "0"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sh := decode[dto.ShiftResponse](t, resp)

	payBody := map[string]any{"shift_id": sh.ID, "lines": []map[string]any{{"method": "cash", "amount": "60000"}}}
	resp = e.do(t, f.Cashier, http.MethodPost, "/api/sales/"+sale.ID+"/payments", payBody, "Idempotency-Key", "cobro-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(apphttp.IdempotencyReplayedHeader))
	paid := decode[dto.ProcessPaymentResponse](t, resp)
	assert.Equal(t, "PAID", paid.Sale.Status)
	assert.Equal(t, "10000", paid.Change.String())

	// Reintento con la misma clave: misma respuesta, sin un segundo cobro.
	resp = e.do(t, f.Cashier, http.MethodPost, "/api/sales/"+sale.ID+"/payments", payBody, "Idempotency-Key", "cobro-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get(apphttp.IdempotencyReplayedHeader))
	replayed := decode[dto.ProcessPaymentResponse](t, resp)
	assert.Equal(t, paid.Payments[0].ID, replayed.Payments[0].ID)
	assert.Len(t, f.Mem.Payments(), 1)
	assert.Equal(t, 8, f.Mem.Stock(f.StoreID, f.Widget).Quantity)

	// Con otra clave la venta ya no admite cobros.
	resp = e.do(t, f.Cashier, http.MethodPost, "/api/sales/"+sale.ID+"/payments", payBody, "Idempotency-Key", "cobro-2")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "SALE_NOT_PAYABLE", errBody.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Traducción de errores
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_MapeoDeErrores(t *testing.T) {
	e := newAPI(t, nil)
	f := e.f
	draft := f.DraftSale(t, false, apptest.Line{ProductID: f.Widget, Qty: 9})

	cases := []struct {
		name   string
		actor  entity.Actor
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"venta inexistente", f.Seller, http.MethodGet, "/api/sales/00000000-0000-0000-0000-00000000dead", nil, http.StatusNotFound, "NOT_FOUND"},
		{"stock insuficiente", f.Seller, http.MethodPost, "/api/sales/" + draft.Sale.ID + "/items", map[string]any{"product_id": f.Widget, "quantity": 2}, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"cantidad inválida", f.Seller, http.MethodPost, "/api/sales/" + draft.Sale.ID + "/items", map[string]any{"product_id": f.Widget, "quantity": 0}, http.StatusBadRequest, "VALIDATION"},
		{"anular sin motivo", f.Seller, http.MethodPost, "/api/sales/" + draft.Sale.ID + "/cancel", map[string]any{}, http.StatusBadRequest, "VALIDATION"},
		{"vendedor no cobra", f.Seller, http.MethodPost, "/api/sales/" + draft.Sale.ID + "/payments", map[string]any{}, http.StatusForbidden, "FORBIDDEN"},
		{"cajero no devuelve", f.Cashier, http.MethodPost, "/api/sales/" + draft.Sale.ID + "/refunds", map[string]any{}, http.StatusForbidden, "FORBIDDEN"},
		{"sin turno", f.Cashier, http.MethodGet, "/api/shifts/current", nil, http.StatusNotFound, "NOT_FOUND"},
		{"ajuste sin motivo", f.Manager, http.MethodPost, "/api/stock/adjustments", map[string]any{"lines": []map[string]any{{"product_id": f.Widget, "delta": 1}}}, http.StatusBadRequest, "VALIDATION"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := e.do(t, tc.actor, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			body := decode[dto.ErrorResponse](t, resp)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestAPI_NoSeGuardaRespuestaDeError(t *testing.T) {
	e := newAPI(t, nil)
	f := e.f
	d := f.SubmittedSale(t, false, apptest.Line{ProductID: f.Service, Qty: 1})
	sh := f.OpenShift(t)
	path := "/api/sales/" + d.Sale.ID + "/payments"

	bad := map[string]any{"shift_id": sh.ID, "lines": []map[string]any{{"method": "trueque", "amount": "5000"}}}
	resp := e.do(t, f.Cashier, http.MethodPost, path, bad, "Idempotency-Key", "k1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// La misma clave sirve para reintentar con el cuerpo corregido.
	good := map[string]any{"shift_id": sh.ID, "lines": []map[string]any{{"method": "cash", "amount": "5000"}}}
	resp = e.do(t, f.Cashier, http.MethodPost, path, good, "Idempotency-Key", "k1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(apphttp.IdempotencyReplayedHeader))
	resp.Body.Close()
}

func TestAPI_StockBajoYAjuste(t *testing.T) {
	e := newAPI(t, nil)
	f := e.f

	body := map[string]any{
		"reason": "conteo",
		"lines":  []map[string]any{{"product_id": f.Gadget, "delta": 3}},
	}
	resp := e.do(t, f.Manager, http.MethodPost, "/api/stock/adjustments", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	adj := decode[dto.StockAdjustmentResponse](t, resp)
	resp = e.do(t, f.Seller, http.MethodGet, "/api/stock/movements?reference="+adj.BatchID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	movs := decode[[]dto.MovementResponse](t, resp)
	require.Len(t, movs, 1)
	assert.Equal(t, 3, movs[0].Quantity)
	assert.Equal(t, "ADJUST", movs[0].Type)

	resp = e.do(t, f.Seller, http.MethodGet, "/api/stock/low", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	low := decode[[]dto.StockResponse](t, resp)
	assert.Empty(t, low)

	resp = e.do(t, f.Seller, http.MethodGet, "/api/stock/"+f.Gadget, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[dto.StockResponse](t, resp)
	assert.Equal(t, 8, st.Quantity)
	assert.Equal(t, 8, st.Available)
}

// ──────────────────────────────────────────────────────────────────────────────
// Límite de peticiones
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_LimitePorTienda(t *testing.T) {
	e := newAPI(t, apphttp.NewStoreRateLimiter(0.001, 2))
	f := e.f

	for i := 0; i < 2; i++ {
		resp := e.do(t, f.Seller, http.MethodGet, "/api/stock/low", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
	resp := e.do(t, f.Seller, http.MethodGet, "/api/stock/low", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get(fiber.HeaderRetryAfter))
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "RATE_LIMITED", body.Code)
}
