package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"farmacia-bermat/backend/internal/domain"
	"farmacia-bermat/backend/internal/service"
	"farmacia-bermat/backend/internal/store/memory"
)

// newTestAPI builds a full API with the seeded in-memory store, a real
// AuthManager and a real Service so handler tests exercise the complete
// request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded(time.Now(), memory.SeedCredentials{})
	svc := service.New(repo, nil)
	auth := NewAuthManager("test-secret-key-0123456789abcdef", time.Hour, svc)

	return New(svc, auth, "*")
}

type session struct {
	token string
	csrf  string
}

func login(t *testing.T, api *API, username string, password string) session {
	t.Helper()

	body, _ := json.Marshal(domain.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("login %s failed, status %d: %s", username, res.Code, res.Body.String())
	}

	var payload domain.LoginResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login response failed: %v", err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		t.Fatalf("expected access token in login response")
	}
	return session{token: payload.AccessToken, csrf: fetchCSRFToken(t, api)}
}

func (s session) do(t *testing.T, api *API, method string, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("X-CSRF-Token", s.csrf)
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	return res
}

func decodeBody(t *testing.T, res *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		t.Fatalf("decode body: %v (%s)", err, res.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLoginReturnsModules(t *testing.T) {
	api := newTestAPI(t)

	payload, _ := json.Marshal(map[string]string{"username": "farmaceutico1", "password": "farmacia123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	decodeBody(t, rec, &resp)
	if resp.Role != domain.RoleOperator || resp.Username != "farmaceutico1" {
		t.Fatalf("unexpected login response %+v", resp)
	}
	if strings.Join(resp.Modules, ",") != "billing,proforma,batches,customers" {
		t.Fatalf("unexpected modules %v", resp.Modules)
	}
}

func TestHandleLoginWrongPassword(t *testing.T) {
	api := newTestAPI(t)
	payload, _ := json.Marshal(map[string]string{"username": "admin", "password": "nope"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleLoginMissingPassword(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"admin"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "internal server error") {
		t.Fatalf("missing password must not surface as a server error: %s", rec.Body.String())
	}
}

func TestProtectedRouteNeedsToken(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSaleFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	op := login(t, api, "farmaceutico1", "farmacia123")

	var view domain.CartView
	for i := 0; i < 3; i++ {
		res := op.do(t, api, http.MethodPost, "/api/v1/carts/sale/lines", domain.CartLineRequest{BatchID: "b1"})
		if res.Code != http.StatusOK {
			t.Fatalf("add line %d: status %d: %s", i+1, res.Code, res.Body.String())
		}
		decodeBody(t, res, &view)
	}
	if !view.Totals.GrandTotal.Equal(view.Totals.Subtotal.Add(view.Totals.TaxTotal)) {
		t.Fatalf("cart totals do not balance: %+v", view.Totals)
	}

	res := op.do(t, api, http.MethodPost, "/api/v1/carts/sale/finalize", map[string]any{"payment_method": "multicaixa", "customer_id": "c1"})
	if res.Code != http.StatusCreated {
		t.Fatalf("finalize: status %d: %s", res.Code, res.Body.String())
	}
	var finalized struct {
		Invoice domain.Invoice `json:"invoice"`
	}
	decodeBody(t, res, &finalized)
	if finalized.Invoice.Number != "F000001" || finalized.Invoice.Total.String() != "553.5" {
		t.Fatalf("unexpected invoice %+v", finalized.Invoice)
	}

	res = op.do(t, api, http.MethodGet, "/api/v1/batches?product_id=p1", nil)
	var listed struct {
		Batches []domain.Batch `json:"batches"`
	}
	decodeBody(t, res, &listed)
	found := false
	for _, b := range listed.Batches {
		if b.ID == "b1" {
			found = true
			if b.Quantity != 47 {
				t.Fatalf("expected b1 = 47, got %d", b.Quantity)
			}
		}
	}
	if !found {
		t.Fatalf("b1 missing from %+v", listed.Batches)
	}

	res = op.do(t, api, http.MethodPost, "/api/v1/invoices/"+finalized.Invoice.ID+"/cancel", domain.ConfirmRequest{})
	if res.Code != http.StatusPreconditionRequired {
		t.Fatalf("expected 428 without confirmation, got %d", res.Code)
	}
	res = op.do(t, api, http.MethodPost, "/api/v1/invoices/"+finalized.Invoice.ID+"/cancel", domain.ConfirmRequest{Confirm: true})
	if res.Code != http.StatusOK {
		t.Fatalf("cancel: status %d: %s", res.Code, res.Body.String())
	}
	res = op.do(t, api, http.MethodPost, "/api/v1/invoices/"+finalized.Invoice.ID+"/cancel", domain.ConfirmRequest{Confirm: true})
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second cancel, got %d", res.Code)
	}
}

func TestFinalizeEmptyCartConflict(t *testing.T) {
	api := newTestAPI(t)
	op := login(t, api, "farmaceutico1", "farmacia123")

	res := op.do(t, api, http.MethodPost, "/api/v1/carts/quotation/finalize", map[string]any{"payment_method": "cash"})
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
}

func TestExpiredBatchConflict(t *testing.T) {
	api := newTestAPI(t)
	op := login(t, api, "farmaceutico1", "farmacia123")

	res := op.do(t, api, http.MethodPost, "/api/v1/carts/sale/lines", domain.CartLineRequest{BatchID: "b3"})
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409 for expired batch, got %d", res.Code)
	}
	res = op.do(t, api, http.MethodGet, "/api/v1/carts/layaway", nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown cart kind, got %d", res.Code)
	}
}

func TestOperatorForbiddenOnAdminRoutes(t *testing.T) {
	api := newTestAPI(t)
	op := login(t, api, "farmaceutico1", "farmacia123")

	for _, tc := range []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/v1/products?all=true", nil},
		{http.MethodGet, "/api/v1/users", nil},
		{http.MethodGet, "/api/v1/reports/sales", nil},
		{http.MethodPost, "/api/v1/batches/b1/adjust", domain.StockAdjustRequest{Delta: -1, Note: "x", Confirm: true}},
	} {
		res := op.do(t, api, tc.method, tc.path, tc.body)
		if res.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", tc.method, tc.path, res.Code)
		}
	}

	res := op.do(t, api, http.MethodGet, "/api/v1/products?q=para", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("operator product search: expected 200, got %d", res.Code)
	}
}

func TestProductRegistrationPriceCap(t *testing.T) {
	api := newTestAPI(t)
	admin := login(t, api, "admin", "admin123")

	req := map[string]any{
		"name":           "Amoxicilina 500mg",
		"category":       "Antibióticos",
		"price_regime":   "price-capped",
		"purchase_price": "120",
		"sell_price":     "200",
		"price_cap":      "160",
		"taxable":        true,
	}
	res := admin.do(t, api, http.MethodPost, "/api/v1/products", req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for price above cap, got %d: %s", res.Code, res.Body.String())
	}

	req["sell_price"] = "155"
	res = admin.do(t, api, http.MethodPost, "/api/v1/products", req)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	var registration domain.ProductRegistration
	decodeBody(t, res, &registration)
	if registration.Product.Code != "004" || registration.Batch.LotNumber != "LOTE-004" {
		t.Fatalf("unexpected registration %+v", registration)
	}

	res = admin.do(t, api, http.MethodDelete, "/api/v1/products/"+registration.Product.ID, nil)
	if res.Code != http.StatusPreconditionRequired {
		t.Fatalf("expected 428 without confirm, got %d", res.Code)
	}
	res = admin.do(t, api, http.MethodDelete, "/api/v1/products/"+registration.Product.ID+"?confirm=true", nil)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", res.Code, res.Body.String())
	}
}

func TestStockAdjustmentAndSessionLogs(t *testing.T) {
	api := newTestAPI(t)
	admin := login(t, api, "admin", "admin123")

	res := admin.do(t, api, http.MethodPost, "/api/v1/batches/b1/adjust", domain.StockAdjustRequest{Delta: -5, Note: "damaged", Confirm: true})
	if res.Code != http.StatusOK {
		t.Fatalf("adjust: status %d: %s", res.Code, res.Body.String())
	}
	var adjustment domain.StockAdjustment
	decodeBody(t, res, &adjustment)
	if adjustment.NewQuantity != 45 {
		t.Fatalf("expected 45, got %d", adjustment.NewQuantity)
	}

	res = admin.do(t, api, http.MethodGet, "/api/v1/session-logs?limit=1", nil)
	var logs struct {
		SessionLogs []domain.SessionLog `json:"session_logs"`
	}
	decodeBody(t, res, &logs)
	if len(logs.SessionLogs) != 1 || !strings.Contains(logs.SessionLogs[0].Action, "damaged") {
		t.Fatalf("unexpected logs %+v", logs.SessionLogs)
	}
}

func TestSalesReportCSV(t *testing.T) {
	api := newTestAPI(t)
	admin := login(t, api, "admin", "admin123")

	res := admin.do(t, api, http.MethodGet, "/api/v1/reports/sales?format=csv", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if ct := res.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	if !strings.HasPrefix(res.Body.String(), "section,key,value\n") {
		t.Fatalf("unexpected csv body %q", res.Body.String())
	}
}

func TestAuditFallsBackWithoutProvider(t *testing.T) {
	api := newTestAPI(t)
	admin := login(t, api, "admin", "admin123")

	res := admin.do(t, api, http.MethodPost, "/api/v1/reports/audit", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var report domain.AuditReport
	decodeBody(t, res, &report)
	if !report.Fallback {
		t.Fatalf("expected fallback report, got %+v", report)
	}
}

func TestCustomersAndUsers(t *testing.T) {
	api := newTestAPI(t)
	admin := login(t, api, "admin", "admin123")

	res := admin.do(t, api, http.MethodPost, "/api/v1/customers", domain.CustomerCreateRequest{Name: "Clínica Sol", Type: domain.CustomerInstitutional, TaxID: "541000111"})
	if res.Code != http.StatusCreated {
		t.Fatalf("create customer: status %d: %s", res.Code, res.Body.String())
	}

	res = admin.do(t, api, http.MethodPost, "/api/v1/users", domain.UserCreateRequest{
		Username: "caixa02", Password: "segredo-forte", FullName: "Ana Caixa", Role: domain.RoleOperator, TaxID: "123456789",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("create user: status %d: %s", res.Code, res.Body.String())
	}
	if strings.Contains(res.Body.String(), "password") {
		t.Fatalf("user payload must not expose password data: %s", res.Body.String())
	}

	res = admin.do(t, api, http.MethodPost, "/api/v1/users/u2/toggle", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("toggle user: status %d: %s", res.Code, res.Body.String())
	}

	body, _ := json.Marshal(domain.LoginRequest{Username: "farmaceutico1", Password: "farmacia123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("inactive user login: expected 401, got %d", rec.Code)
	}
}

func TestDeactivatedOperatorLosesAccess(t *testing.T) {
	api := newTestAPI(t)
	admin := login(t, api, "admin", "admin123")
	operator := login(t, api, "farmaceutico1", "farmacia123")

	if res := operator.do(t, api, http.MethodGet, "/api/v1/carts/sale", nil); res.Code != http.StatusOK {
		t.Fatalf("active operator: expected 200, got %d", res.Code)
	}

	if res := admin.do(t, api, http.MethodPost, "/api/v1/users/u2/toggle", nil); res.Code != http.StatusOK {
		t.Fatalf("toggle user: status %d: %s", res.Code, res.Body.String())
	}

	res := operator.do(t, api, http.MethodGet, "/api/v1/carts/sale", nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("deactivated operator with a live token: expected 401, got %d", res.Code)
	}
	res = operator.do(t, api, http.MethodPost, "/api/v1/carts/sale/lines", domain.CartLineRequest{BatchID: "b1"})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("deactivated operator adding to cart: expected 401, got %d", res.Code)
	}
}

func TestLogoutWritesSessionLog(t *testing.T) {
	api := newTestAPI(t)
	admin := login(t, api, "admin", "admin123")

	res := admin.do(t, api, http.MethodPost, "/api/v1/auth/logout", nil)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	res = admin.do(t, api, http.MethodGet, "/api/v1/session-logs?limit=1", nil)
	var logs struct {
		SessionLogs []domain.SessionLog `json:"session_logs"`
	}
	decodeBody(t, res, &logs)
	if len(logs.SessionLogs) != 1 || logs.SessionLogs[0].Action != "Logout efetuado" {
		t.Fatalf("unexpected logs %+v", logs.SessionLogs)
	}
}
