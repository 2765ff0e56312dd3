package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"giribazar/backend/internal/domain"
	"giribazar/backend/internal/service"
	"giribazar/backend/internal/store"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	log           *zap.Logger
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		log:           log,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/login", a.handleLogin)

	mux.HandleFunc("/categories", a.handleCategories)
	mux.HandleFunc("/addCategory", a.handleAddCategory)
	mux.HandleFunc("/addProduct", a.handleAddProduct)
	mux.HandleFunc("/getAllProducts", a.handleAllProducts)
	mux.HandleFunc("/setPrice", a.handleSetPrice)
	mux.HandleFunc("/fetchAllProducts", a.handleFetchAllProducts)

	mux.HandleFunc("/addProductEntry", a.handleAddProductEntry)
	mux.HandleFunc("/getProductHistory", a.handleProductHistory)
	mux.HandleFunc("/getProductInventory", a.handleProductInventory)
	mux.HandleFunc("/getInventory", a.handleInventory)

	mux.HandleFunc("/sellProduct", a.handleSellProduct)
	mux.HandleFunc("/getSaleHistory", a.handleSaleHistory)

	mux.HandleFunc("/api/sales-report", a.handleSalesReport)
	mux.HandleFunc("/api/profitloss/today", a.handleProfitLossToday)
	mux.HandleFunc("/api/profitloss/save", a.handleProfitLossSave)

	mux.HandleFunc("/add-account", a.handleAddAccount)
	mux.HandleFunc("/get-accounts", a.handleAccounts)
	mux.HandleFunc("/add-entry", a.handleAddFleetEntry)
	mux.HandleFunc("/get-entries", a.handleFleetEntries)
	mux.HandleFunc("/delete-entry/", a.handleDeleteFleetEntry)
	mux.HandleFunc("/update-entry/", a.handleUpdateFleetEntry)

	return a.withMiddleware(mux)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w)
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		a.writeJSON(w, http.StatusUnauthorized, domain.LoginResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	categories, err := a.service.ListCategories(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (a *API) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w)
		return
	}

	var req domain.CategoryCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.service.AddCategory(r.Context(), req.Category); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			a.writeJSON(w, http.StatusConflict, map[string]any{"message": "Category already exists"})
			return
		}
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, map[string]any{"message": "Category added successfully"})
}

func (a *API) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w)
		return
	}

	var req domain.ProductCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.service.AddProduct(r.Context(), req.Category, req.Product); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			a.writeJSON(w, http.StatusConflict, map[string]any{"message": "Product already exists in category"})
			return
		}
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Product added successfully",
		"products": []map[string]string{{
			"name":     strings.TrimSpace(req.Product),
			"category": strings.TrimSpace(req.Category),
		}},
	})
}

func (a *API) handleAllProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	products, err := a.service.ListProducts(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	byCategory := make(map[string][]string)
	for _, p := range products {
		byCategory[p.Category] = append(byCategory[p.Category], p.Name)
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"products": byCategory})
}

func (a *API) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w)
		return
	}

	var req domain.SetPriceRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.service.SetPrice(r.Context(), req); err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Price set to %s for %s added successfully", req.Price, strings.TrimSpace(req.Product)),
	})
}

func (a *API) handleFetchAllProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	products, err := a.service.ListProducts(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	type productWithPrice struct {
		Name       string           `json:"name"`
		PricePerKg *decimal.Decimal `json:"price_per_kg"`
	}
	byCategory := make(map[string][]productWithPrice)
	for _, p := range products {
		byCategory[p.Category] = append(byCategory[p.Category], productWithPrice{
			Name:       p.Name,
			PricePerKg: p.PricePerKg,
		})
	}
	a.writeJSON(w, http.StatusOK, byCategory)
}

func (a *API) handleAddProductEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w)
		return
	}

	var req domain.IntakeRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	entry, err := a.service.RecordIntake(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, domain.IntakeResponse{
		Message: "Product entry added successfully",
		Entry:   *entry,
	})
}

func (a *API) handleProductHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	history, err := a.service.IntakeHistory(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, history)
}

// handleProductInventory lists ledger rows for an explicit purchase date,
// defaulting to today.
func (a *API) handleProductInventory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	day := strings.TrimSpace(r.URL.Query().Get("purchase_date"))
	var entries []domain.StockEntry
	var err error
	if day == "" {
		entries, err = a.service.Inventory(r.Context())
	} else {
		entries, err = a.service.InventoryForDay(r.Context(), day)
	}
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, entries)
}

func (a *API) handleInventory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	entries, err := a.service.Inventory(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, entries)
}

func (a *API) handleSellProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w)
		return
	}

	var req domain.SellRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := a.service.Sell(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

func (a *API) handleSaleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	sales, err := a.service.SaleHistory(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, sales)
}

func (a *API) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	fromDate := strings.TrimSpace(r.URL.Query().Get("from_date"))
	toDate := strings.TrimSpace(r.URL.Query().Get("to_date"))

	rows, err := a.service.SalesReport(r.Context(), fromDate, toDate)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, rows)
}

// handleProfitLossToday keeps the legacy failure contract: errors still
// return the three totals, zeroed, plus an error field.
func (a *API) handleProfitLossToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	snapshot, err := a.service.ProfitLossToday(r.Context())
	if err != nil {
		a.log.Error("profit/loss snapshot failed", zap.Error(err))
		a.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"total_sale":      decimal.Zero,
			"loaded_stock":    decimal.Zero,
			"remaining_stock": decimal.Zero,
			"error":           "failed to compute profit/loss",
		})
		return
	}
	a.writeJSON(w, http.StatusOK, snapshot)
}

func (a *API) handleProfitLossSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w)
		return
	}

	var entry domain.ProfitLossEntry
	if err := decodeJSON(r, &entry); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.service.SaveProfitLoss(r.Context(), entry); err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, map[string]any{"message": "Profit or loss saved successfully"})
}

func (a *API) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w)
		return
	}

	var account domain.SellerAccount
	if err := decodeJSON(r, &account); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	if _, err := a.service.CreateSellerAccount(r.Context(), account); err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, map[string]any{"message": "Account saved successfully"})
}

func (a *API) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	accounts, err := a.service.ListSellerAccounts(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, accounts)
}

func (a *API) handleAddFleetEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w)
		return
	}

	var entry domain.FleetEntry
	if err := decodeJSON(r, &entry); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	if _, err := a.service.CreateFleetEntry(r.Context(), entry); err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, map[string]any{"message": "Entry added successfully"})
}

func (a *API) handleFleetEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	entries, err := a.service.ListFleetEntries(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, entries)
}

func (a *API) handleDeleteFleetEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		a.writeMethodNotAllowed(w)
		return
	}

	id := pathTail(r.URL.Path, "/delete-entry/")
	if id == "" {
		a.writeError(w, http.StatusBadRequest, errors.New("entry id required"))
		return
	}

	if err := a.service.DeleteFleetEntry(r.Context(), id); err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Entry with id %s deleted successfully", id),
	})
}

func (a *API) handleUpdateFleetEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		a.writeMethodNotAllowed(w)
		return
	}

	id := pathTail(r.URL.Path, "/update-entry/")
	if id == "" {
		a.writeError(w, http.StatusBadRequest, errors.New("entry id required"))
		return
	}

	var entry domain.FleetEntry
	if err := decodeJSON(r, &entry); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	entry.ID = id

	if _, err := a.service.UpdateFleetEntry(r.Context(), entry); err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Entry with id %s updated successfully", id),
	})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		a.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(startedAt)))
	})
}

func pathTail(path string, prefix string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimPrefix(path, prefix), "/"))
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	return decoder.Decode(dest)
}

// statusForError maps the store error taxonomy onto HTTP statuses.
// Insufficient stock is a 400 to match the legacy contract rather than
// a 409.
func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, store.ErrBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	a.writeError(w, statusForError(err), err)
}

func (a *API) writeMethodNotAllowed(w http.ResponseWriter) {
	a.writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func (a *API) writeError(w http.ResponseWriter, status int, err error) {
	// 5xx responses get a generic message so persistence details never
	// leak; 4xx messages are user-facing.
	msg := err.Error()
	if status >= 500 {
		a.log.Error("internal error", zap.Int("status", status), zap.Error(err))
		msg = "internal server error"
	}
	a.writeJSON(w, status, map[string]any{"error": msg})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.log.Warn("response encode failed", zap.Error(err))
	}
}
