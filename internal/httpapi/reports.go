package httpapi

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"farmacia-bermat/backend/internal/domain"
)

func (a *API) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	report, err := a.service.SalesReport(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		body, err := salesReportToCSV(report)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="relatorio-vendas.csv"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleStockReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	report, err := a.service.StockReport(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleAuditReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	report, err := a.service.RunAudit(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func salesReportToCSV(report domain.SalesReport) ([]byte, error) {
	var buf bytes.Buffer
	out := csv.NewWriter(&buf)

	rows := [][]string{
		{"section", "key", "value"},
		{"summary", "generated_at", report.GeneratedAt.Format(time.RFC3339)},
		{"summary", "sales", strconv.Itoa(report.SalesCount)},
		{"summary", "cancelled", strconv.Itoa(report.CancelledCount)},
		{"summary", "quotations", strconv.Itoa(report.QuotationCount)},
		{"summary", "revenue", report.Revenue.StringFixed(2)},
		{"summary", "tax_collected", report.TaxCollected.StringFixed(2)},
		{"summary", "estimated_profit", report.EstimatedProfit.StringFixed(2)},
	}
	for _, top := range report.TopProducts {
		rows = append(rows,
			[]string{"top_product", top.ProductName + " quantity", strconv.Itoa(top.Quantity)},
			[]string{"top_product", top.ProductName + " total", top.Total.StringFixed(2)},
		)
	}
	if err := out.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
