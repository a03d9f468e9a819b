package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"farmacia-bermat/backend/internal/domain"
)

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		var (
			products []domain.Product
			err      error
		)
		if query.Get("all") == "true" {
			products, err = a.service.ListProducts(r.Context())
		} else {
			products, err = a.service.SearchProducts(r.Context(), query.Get("q"))
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	case http.MethodPost:
		var req domain.ProductRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		registration, err := a.service.RegisterProduct(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, registration)
	default:
		writeMethodNotAllowed(w)
	}
}

// handleProductActions serves /api/v1/products/{id}[/toggle|/stock].
func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r.URL.Path, "/api/v1/products/")
	if len(parts) == 0 || len(parts) > 2 {
		writeError(w, http.StatusNotFound, errors.New("unknown product path"))
		return
	}
	productID := parts[0]

	if len(parts) == 2 {
		switch {
		case parts[1] == "toggle" && r.Method == http.MethodPost:
			product, err := a.service.ToggleProductActive(r.Context(), productID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"product": product})
		case parts[1] == "stock" && r.Method == http.MethodGet:
			stock, err := a.service.AggregateStock(r.Context(), productID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, stock)
		case parts[1] == "toggle" || parts[1] == "stock":
			writeMethodNotAllowed(w)
		default:
			writeError(w, http.StatusNotFound, errors.New("unknown product action"))
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := a.service.FindProduct(r.Context(), productID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	case http.MethodPut:
		var req domain.ProductRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, err := a.service.EditProduct(r.Context(), productID, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	case http.MethodDelete:
		confirm := r.URL.Query().Get("confirm") == "true"
		if err := a.service.DeleteProduct(r.Context(), productID, confirm); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleBatches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		var (
			batches []domain.Batch
			err     error
		)
		switch {
		case query.Get("available") == "true":
			batches, err = a.service.AvailableBatches(r.Context())
		case strings.TrimSpace(query.Get("product_id")) != "":
			batches, err = a.service.BatchesForProduct(r.Context(), strings.TrimSpace(query.Get("product_id")))
		default:
			batches, err = a.service.ListBatches(r.Context())
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
	case http.MethodPost:
		var req domain.BatchCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		batch, err := a.service.RegisterBatch(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"batch": batch})
	default:
		writeMethodNotAllowed(w)
	}
}

// handleBatchActions serves PUT /api/v1/batches/{id} and
// POST /api/v1/batches/{id}/adjust.
func (a *API) handleBatchActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r.URL.Path, "/api/v1/batches/")
	switch {
	case len(parts) == 1:
		if r.Method != http.MethodPut {
			writeMethodNotAllowed(w)
			return
		}
		var req domain.BatchUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		batch, err := a.service.EditBatch(r.Context(), parts[0], req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"batch": batch})
	case len(parts) == 2 && parts[1] == "adjust":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req domain.StockAdjustRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		result, err := a.service.AdjustStock(r.Context(), parts[0], req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown batch path"))
	}
}

// handleCarts serves /api/v1/carts/{kind}[/lines[/{batchId}]|/finalize].
func (a *API) handleCarts(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r.URL.Path, "/api/v1/carts/")
	if len(parts) == 0 {
		writeError(w, http.StatusNotFound, errors.New("cart kind required"))
		return
	}
	kind := parts[0]
	ctx := r.Context()

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		view, err := a.service.CartView(ctx, kind)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := a.service.ClearCart(ctx, kind); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case len(parts) == 2 && parts[1] == "lines" && r.Method == http.MethodPost:
		var req domain.CartLineRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		view, err := a.service.AddToCart(ctx, kind, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case len(parts) == 3 && parts[1] == "lines" && r.Method == http.MethodPatch:
		var req domain.CartQuantityRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		view, err := a.service.AdjustCartLine(ctx, kind, parts[2], req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case len(parts) == 3 && parts[1] == "lines" && r.Method == http.MethodDelete:
		view, err := a.service.RemoveCartLine(ctx, kind, parts[2])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case len(parts) == 2 && parts[1] == "finalize" && r.Method == http.MethodPost:
		var req domain.FinalizeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		var (
			invoice domain.Invoice
			err     error
		)
		if kind == domain.InvoiceKindQuotation {
			invoice, err = a.service.FinalizeQuotation(ctx, req)
		} else {
			invoice, err = a.service.FinalizeSale(ctx, req)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"invoice": invoice})
	case len(parts) <= 3:
		writeMethodNotAllowed(w)
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown cart path"))
	}
}

func (a *API) handleInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	invoices, err := a.service.ListInvoices(r.Context(), strings.TrimSpace(r.URL.Query().Get("kind")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

// handleInvoiceActions serves GET /api/v1/invoices/{id} and
// POST /api/v1/invoices/{id}/cancel.
func (a *API) handleInvoiceActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r.URL.Path, "/api/v1/invoices/")
	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		invoice, err := a.service.GetInvoice(r.Context(), parts[0])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"invoice": invoice})
	case len(parts) == 2 && parts[1] == "cancel":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req domain.ConfirmRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		invoice, err := a.service.CancelInvoice(r.Context(), parts[0], req.Confirm)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"invoice": invoice})
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown invoice path"))
	}
}

func (a *API) handleCustomers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		customers, err := a.service.ListCustomers(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
	case http.MethodPost:
		var req domain.CustomerCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		customer, err := a.service.RegisterCustomer(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"customer": customer})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCustomerActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r.URL.Path, "/api/v1/customers/")
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, errors.New("unknown customer path"))
		return
	}
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	customer, err := a.service.GetCustomer(r.Context(), parts[0])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customer": customer})
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		users, err := a.service.ListUsers(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
	case http.MethodPost:
		var req domain.UserCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		user, err := a.service.RegisterUser(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"user": user})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleUserActions(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r.URL.Path, "/api/v1/users/")
	if len(parts) != 2 || parts[1] != "toggle" {
		writeError(w, http.StatusNotFound, errors.New("unknown user path"))
		return
	}
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	user, err := a.service.ToggleUserStatus(r.Context(), parts[0])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (a *API) handleSessionLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 1000)
	logs, err := a.service.SessionLogs(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_logs": logs})
}
