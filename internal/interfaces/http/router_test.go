package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/auth"
	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/sales"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/backoffice-api/internal/interfaces/http"
)

const (
	testJWTSecret = "router-test-secret"
	testIssuer    = "backoffice-test"
	testExpMin    = 60
)

type fakeReceipts struct{}

func (fakeReceipts) GenerateSaleReceipt(_ context.Context, s *entity.Sale, _ *entity.Customer) ([]byte, error) {
	return []byte("%PDF-" + s.Code), nil
}

type fakeLimiter struct {
	limit int
	calls int
	err   error
}

func (l *fakeLimiter) Allow(context.Context, string) (bool, int, error) {
	if l.err != nil {
		return false, 0, l.err
	}
	l.calls++
	return l.calls <= l.limit, l.limit - l.calls, nil
}

type apiClient struct {
	t   *testing.T
	app *fiber.App
}

func newAPI(t *testing.T, limiter apphttp.RateLimiter) *apiClient {
	t.Helper()
	store := memory.New(time.Second)
	log := zerolog.Nop()

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.FiberErrorHandler})
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(store.Users(), auth.JWTConfig{
			Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer,
		}),
		CustomerUC:  usecase.NewCustomerUseCase(store.Customers()),
		CatalogUC:   inventory.NewCatalogUseCase(store, store.Products(), store.Movements(), log),
		Coordinator: sales.NewCoordinator(store, store.Customers(), store.Sales(), log, sales.Config{MaxRetries: 1}, nil),
		ReportUC:    sales.NewReportUseCase(store.Sales(), store.Products()),
		ReceiptUC:   sales.NewReceiptUseCase(store.Sales(), store.Customers(), fakeReceipts{}),
		RateLimiter: limiter,
		JWTSecret:   testJWTSecret,
		AppName:     "backoffice-test",
	})
	return &apiClient{t: t, app: app}
}

// do envía body como JSON y decodifica la respuesta en out (si no es nil).
func (a *apiClient) do(method, path, token string, body any, out any) int {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(a.t, err)
		if len(raw) > 0 {
			require.NoError(a.t, json.Unmarshal(raw, out), string(raw))
		}
	}
	return resp.StatusCode
}

func (a *apiClient) login(email, password string) string {
	a.t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	status := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password}, &out)
	require.Equal(a.t, http.StatusOK, status)
	return out.Token
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type productBody struct {
	ID          string  `json:"id"`
	SKU         string  `json:"sku"`
	Quantity    int     `json:"quantity"`
	Reserved    int     `json:"reserved"`
	FactoryCost *string `json:"factory_cost"`
}

type saleBody struct {
	ID               string `json:"id"`
	Code             string `json:"code"`
	Status           string `json:"status"`
	RequiresApproval bool   `json:"requires_approval"`
}

// bootstrap registra admin + vendedor, un cliente y un producto con stock 5.
func bootstrap(t *testing.T, a *apiClient) (adminTok, sellerTok, clientID, productID string) {
	t.Helper()
	status := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "admin@loja.com", "password": "admin-123", "name": "Admin",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	adminTok = a.login("admin@loja.com", "admin-123")

	// Después del primer usuario, register sin token es 401.
	var e errorBody
	status = a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "intruso@loja.com", "password": "intruso-123",
	}, &e)
	require.Equal(t, http.StatusUnauthorized, status)

	status = a.do(http.MethodPost, "/api/auth/register", adminTok, map[string]string{
		"email": "vendedor@loja.com", "password": "vende-123", "role": "vendedor",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	sellerTok = a.login("vendedor@loja.com", "vende-123")

	var client struct {
		ID string `json:"id"`
	}
	status = a.do(http.MethodPost, "/api/clients", sellerTok, map[string]string{"name": "Maria"}, &client)
	require.Equal(t, http.StatusCreated, status)

	var p productBody
	status = a.do(http.MethodPost, "/api/products", adminTok, map[string]any{
		"name": "Caneca", "price": "10", "factory_cost": "4", "initial_quantity": 5,
	}, &p)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, p.SKU)
	require.Equal(t, 5, p.Quantity)
	return adminTok, sellerTok, client.ID, p.ID
}

func saleRequest(draftID, clientID, productID string, qty int) map[string]any {
	return map[string]any{
		"draft_id":  draftID,
		"client_id": clientID,
		"items":     []map[string]any{{"product_id": productID, "quantity": qty}},
		"payments":  []map[string]any{{"method": "pix", "amount": fmt.Sprintf("%d", qty*10)}},
	}
}

func TestAPI_ReservaSinSobreventaYCancelacion(t *testing.T) {
	a := newAPI(t, nil)
	adminTok, sellerTok, clientID, productID := bootstrap(t, a)

	var s saleBody
	status := a.do(http.MethodPost, "/api/sales", sellerTok, saleRequest("d-1", clientID, productID, 3), &s)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, entity.SaleStatusPending, s.Status)
	assert.Regexp(t, `^PED-\d{6}$`, s.Code)

	var p productBody
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/products/"+productID, sellerTok, nil, &p))
	assert.Equal(t, 2, p.Quantity)
	assert.Equal(t, 3, p.Reserved)
	assert.Nil(t, p.FactoryCost, "vendedor no ve el costo de fábrica")

	// Reenviar el mismo draft no reserva de nuevo.
	var again saleBody
	status = a.do(http.MethodPost, "/api/sales", sellerTok, saleRequest("d-1", clientID, productID, 3), &again)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, s.ID, again.ID)

	var e errorBody
	status = a.do(http.MethodPost, "/api/sales", sellerTok, saleRequest("d-2", clientID, productID, 3), &e)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)

	status = a.do(http.MethodPost, "/api/sales/"+s.ID+"/cancel", sellerTok, nil, &e)
	assert.Equal(t, http.StatusForbidden, status)

	var cancelled saleBody
	status = a.do(http.MethodPost, "/api/sales/"+s.ID+"/cancel", adminTok, nil, &cancelled)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, entity.SaleStatusCancelled, cancelled.Status)

	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/products/"+productID, adminTok, nil, &p))
	assert.Equal(t, 5, p.Quantity)
	assert.Equal(t, 0, p.Reserved)
	require.NotNil(t, p.FactoryCost)

	var hist struct {
		Items      []map[string]any `json:"items"`
		Consistent bool             `json:"consistent"`
	}
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/products/"+productID+"/movements", adminTok, nil, &hist))
	assert.Len(t, hist.Items, 3) // inicial, reserva, estorno
	assert.True(t, hist.Consistent)
}

func TestAPI_ItemPersonalizadoRequiereAprobacion(t *testing.T) {
	a := newAPI(t, nil)
	adminTok, sellerTok, clientID, productID := bootstrap(t, a)

	body := map[string]any{
		"client_id": clientID,
		"items": []map[string]any{
			{"is_custom": true, "custom_name": "Almofada X", "quantity": 1, "unit_price": "50"},
			{"product_id": productID, "quantity": 2},
		},
		"payments": []map[string]any{{"method": "cartao_credito", "amount": "70", "installments": 2}},
	}
	var s saleBody
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/sales", sellerTok, body, &s))
	assert.True(t, s.RequiresApproval)

	var e errorBody
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/api/sales/"+s.ID+"/deliver", sellerTok, nil, &e))
	assert.Equal(t, "APPROVAL_REQUIRED", e.Code)

	var pending struct {
		Items []saleBody `json:"items"`
	}
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/sales?requires_approval=true", adminTok, nil, &pending))
	require.Len(t, pending.Items, 1)

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/api/sales/"+s.ID+"/approve", sellerTok, nil, &e))
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/sales/"+s.ID+"/approve", adminTok, nil, &s))
	assert.False(t, s.RequiresApproval)

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/sales/"+s.ID+"/deliver", sellerTok, nil, &s))
	assert.Equal(t, entity.SaleStatusDelivered, s.Status)

	var p productBody
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/products/"+productID, adminTok, nil, &p))
	assert.Equal(t, 3, p.Quantity)
	assert.Equal(t, 0, p.Reserved)

	var summary struct {
		Revenue     string `json:"revenue"`
		CostOfGoods string `json:"cost_of_goods"`
	}
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/reports/summary", sellerTok, nil, &e))
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/reports/summary", adminTok, nil, &summary))
	assert.Equal(t, "70", summary.Revenue)
	assert.Equal(t, "8", summary.CostOfGoods)
}

func TestAPI_ValidacionYErrores(t *testing.T) {
	a := newAPI(t, nil)
	_, sellerTok, clientID, productID := bootstrap(t, a)

	var e errorBody
	status := a.do(http.MethodPost, "/api/sales", sellerTok, map[string]any{
		"client_id": clientID,
		"items":     []map[string]any{{"product_id": productID, "quantity": 1}},
		"payments":  []map[string]any{{"method": "pix", "amount": "3"}},
	}, &e)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "PAYMENT_MISMATCH", e.Code)

	status = a.do(http.MethodPost, "/api/sales", sellerTok, saleRequest("", "no-existe", productID, 1), &e)
	assert.Equal(t, http.StatusNotFound, status)

	status = a.do(http.MethodGet, "/api/sales/no-existe", sellerTok, nil, &e)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", e.Code)

	status = a.do(http.MethodPost, "/api/products/"+productID+"/movements", sellerTok,
		map[string]any{"type": "entrada", "amount": 3}, &e)
	assert.Equal(t, http.StatusForbidden, status)

	status = a.do(http.MethodDelete, "/api/products/"+productID, sellerTok, nil, &e)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_STATE", e.Code)

	status = a.do(http.MethodGet, "/api/sales?from=ayer", sellerTok, nil, &e)
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/sales", "", nil, nil))
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health", "", nil, nil))
}

func TestAPI_Comprobante(t *testing.T) {
	a := newAPI(t, nil)
	_, sellerTok, clientID, productID := bootstrap(t, a)

	var s saleBody
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/sales", sellerTok, saleRequest("r-1", clientID, productID, 1), &s))

	req := httptest.NewRequest(http.MethodGet, "/api/sales/"+s.ID+"/receipt", nil)
	req.Header.Set("Authorization", "Bearer "+sellerTok)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), s.Code+".pdf")
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "%PDF-"+s.Code, string(body))
}

func TestAPI_RateLimitEnMutacionesDeVentas(t *testing.T) {
	limiter := &fakeLimiter{limit: 1}
	a := newAPI(t, limiter)
	_, sellerTok, clientID, productID := bootstrap(t, a)

	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/sales", sellerTok, saleRequest("l-1", clientID, productID, 1), nil))

	var e errorBody
	assert.Equal(t, http.StatusTooManyRequests, a.do(http.MethodPost, "/api/sales", sellerTok, saleRequest("l-2", clientID, productID, 1), &e))
	assert.Equal(t, "RATE_LIMITED", e.Code)

	// Las lecturas no pasan por el limitador.
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/sales", sellerTok, nil, nil))
	assert.Equal(t, 2, limiter.calls)
}

func TestAPI_RateLimitCaidoNoBloquea(t *testing.T) {
	a := newAPI(t, &fakeLimiter{err: errors.New("redis caído")})
	_, sellerTok, clientID, productID := bootstrap(t, a)

	assert.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/sales", sellerTok, saleRequest("x-1", clientID, productID, 1), nil))
}
