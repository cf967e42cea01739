// Package api provides the HTTP API for observing and driving the store.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/talgya/storesim/internal/catalog"
	"github.com/talgya/storesim/internal/customer"
	"github.com/talgya/storesim/internal/engine"
	"github.com/talgya/storesim/internal/shop"
)

const (
	maxDaysPerRequest = 30
	defaultLowStock   = 5
)

// Server serves a store session over HTTP. All store access goes through mu.
type Server struct {
	Session  *shop.Session
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	mu              sync.Mutex
	simulateLimiter *RateLimiter
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	if s.simulateLimiter == nil {
		s.simulateLimiter = NewRateLimiter(60, time.Hour)
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/ledger", s.handleLedger)
	mux.HandleFunc("GET /api/v1/income", s.handleIncome)
	mux.HandleFunc("GET /api/v1/stock", s.handleStock)
	mux.HandleFunc("GET /api/v1/stock/low", s.handleLowStock)
	mux.HandleFunc("GET /api/v1/item/{id}", s.handleItem)
	mux.HandleFunc("GET /api/v1/residents", s.handleResidents)
	mux.HandleFunc("GET /api/v1/customer/{name}", s.handleCustomer)
	mux.HandleFunc("GET /api/v1/days", s.handleDays)
	mux.HandleFunc("GET /api/v1/days/{day}/transactions", s.handleDayTransactions)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("POST /api/v1/simulate", s.adminOnly(s.simulateLimiter.Wrap(s.handleSimulate)))
	mux.HandleFunc("POST /api/v1/restock", s.adminOnly(s.handleRestock))
	mux.HandleFunc("POST /api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine. The returned server can
// be shut down by the caller.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// AutoRun simulates one day every interval until ctx is done.
func (s *Server) AutoRun(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			summary, err := s.Session.RunDay()
			s.mu.Unlock()
			if err != nil {
				slog.Error("scheduled day failed", "error", err)
				continue
			}
			slog.Info("scheduled day finished", "day", summary.Day, "income", shop.FormatMoney(summary.Income))
		}
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set STORESIM_CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("STORESIM_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no STORESIM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.Session.Store
	cfg := st.Config()
	writeJSON(w, map[string]any{
		"name":         st.Name,
		"day":          st.Day(),
		"time":         engine.ClockString(st.CurrentMinute()),
		"open":         engine.ClockString(cfg.OpenMinute),
		"close":        engine.ClockString(cfg.CloseMinute),
		"items":        len(st.StockSnapshot()),
		"residents":    len(st.Residents()),
		"transactions": len(st.Ledger()),
		"income":       shop.FormatMoney(st.Income()),
		"run_id":       s.Session.RunID,
		"archive":      s.Session.DB != nil,
	})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	records := s.Session.Store.Ledger()
	s.mu.Unlock()

	if records == nil {
		records = []engine.TransactionRecord{}
	}
	writeJSON(w, records)
}

func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	income := s.Session.Store.Income()
	day := s.Session.Store.Day()
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"day":       day,
		"income":    income.StringFixed(2),
		"formatted": shop.FormatMoney(income),
	})
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := s.Session.Store.StockSnapshot()
	s.mu.Unlock()

	writeJSON(w, itemViews(items))
}

func (s *Server) handleLowStock(w http.ResponseWriter, r *http.Request) {
	threshold := defaultLowStock
	if v := r.URL.Query().Get("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "threshold must be an integer", http.StatusBadRequest)
			return
		}
		threshold = n
	}

	s.mu.Lock()
	items := s.Session.Store.LowStock(threshold)
	s.mu.Unlock()

	writeJSON(w, itemViews(items))
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "item id must be an integer", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	it, err := s.Session.Store.Item(catalog.ItemID(id))
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, newItemView(it))
}

func (s *Server) handleResidents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	residents := s.Session.Store.Residents()
	out := make([]customerView, 0, len(residents))
	for _, c := range residents {
		out = append(out, newCustomerView(c))
	}
	s.mu.Unlock()

	writeJSON(w, out)
}

func (s *Server) handleCustomer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Session.FindCustomer(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, newCustomerView(c))
}

func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	if s.Session.DB == nil {
		http.Error(w, "archive disabled", http.StatusNotFound)
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			http.Error(w, "limit must be an integer between 1 and 1000", http.StatusBadRequest)
			return
		}
		limit = n
	}

	days, err := s.Session.DB.RecentDays(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, days)
}

func (s *Server) handleDayTransactions(w http.ResponseWriter, r *http.Request) {
	if s.Session.DB == nil {
		http.Error(w, "archive disabled", http.StatusNotFound)
		return
	}
	day, err := strconv.Atoi(r.PathValue("day"))
	if err != nil {
		http.Error(w, "day must be an integer", http.StatusBadRequest)
		return
	}
	runID := r.URL.Query().Get("run")
	if runID == "" {
		runID = s.Session.RunID
	}

	rows, err := s.Session.DB.Transactions(runID, day)
	if err != nil {
		writeError(w, err)
		return
	}

	type txView struct {
		ID           int      `json:"transaction_id"`
		CustomerName string   `json:"customer_name"`
		Items        []string `json:"items"`
		AmountSpent  string   `json:"amount_spent"`
		TimeEntered  string   `json:"time_entered"`
		TimeLeft     string   `json:"time_left"`
	}
	out := make([]txView, 0, len(rows))
	for _, row := range rows {
		lines, err := row.Items()
		if err != nil {
			writeError(w, err)
			return
		}
		items := make([]string, 0, len(lines))
		for _, l := range lines {
			items = append(items, l.String())
		}
		out = append(out, txView{
			ID:           row.TransactionID,
			CustomerName: row.CustomerName,
			Items:        items,
			AmountSpent:  row.AmountSpent,
			TimeEntered:  engine.ClockString(row.TimeEntered),
			TimeLeft:     engine.ClockString(row.TimeLeft),
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Days int `json:"days"`
	}{Days: 1}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}
	if req.Days < 1 || req.Days > maxDaysPerRequest {
		http.Error(w, fmt.Sprintf("days must be 1-%d", maxDaysPerRequest), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	summaries, err := s.Session.RunDays(req.Days)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("days simulated via API", "days", len(summaries))
	writeJSON(w, summaries)
}

func (s *Server) handleRestock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID    *int `json:"item_id,omitempty"`
		Threshold *int `json:"threshold,omitempty"`
		Quantity  int  `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Quantity < 0 {
		http.Error(w, "quantity must be non-negative", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case req.ItemID != nil:
		it, err := s.Session.Restock(catalog.ItemID(*req.ItemID), req.Quantity)
		if err != nil {
			writeError(w, err)
			return
		}
		slog.Info("item restocked via API", "item_id", it.ID, "quantity", req.Quantity, "stock", it.Stock)
		writeJSON(w, []itemView{newItemView(it)})

	case req.Threshold != nil:
		items, err := s.Session.Store.RestockLow(*req.Threshold, req.Quantity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, itemViews(items))

	default:
		http.Error(w, "item_id or threshold required", http.StatusBadRequest)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	path, err := s.Session.WriteUpdatedStock()
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"path": path})
}

type itemView struct {
	ID     catalog.ItemID `json:"id"`
	Name   string         `json:"name"`
	Tags   []string       `json:"tags"`
	Cost   string         `json:"cost"`
	Stock  int            `json:"stock"`
	Weight int            `json:"weight"`
}

func newItemView(it catalog.Item) itemView {
	tags := it.Tags
	if tags == nil {
		tags = []string{}
	}
	return itemView{
		ID:     it.ID,
		Name:   it.Name,
		Tags:   tags,
		Cost:   it.Cost.StringFixed(2),
		Stock:  it.Stock,
		Weight: it.Weight,
	}
}

func itemViews(items []catalog.Item) []itemView {
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		out = append(out, newItemView(it))
	}
	return out
}

type customerView struct {
	Name              string          `json:"name"`
	Tags              []string        `json:"tags"`
	Money             string          `json:"money"`
	StartingMoney     string          `json:"starting_money"`
	UsesCredit        bool            `json:"uses_credit"`
	RemainingAttempts float64         `json:"remaining_attempts"`
	Purchases         []customer.Line `json:"purchases"`
	Resident          bool            `json:"resident"`
	Entered           string          `json:"entered,omitempty"`
}

func newCustomerView(c *customer.Customer) customerView {
	v := customerView{
		Name:              c.Name(),
		Tags:              c.Tags(),
		Money:             c.Money().StringFixed(2),
		StartingMoney:     c.StartingMoney().StringFixed(2),
		UsesCredit:        c.UsesCredit(),
		RemainingAttempts: c.RemainingAttempts(),
		Purchases:         c.Purchases().Lines(),
		Resident:          c.Resident(),
	}
	if minute, ok := c.EntryMinute(); ok {
		v.Entered = engine.ClockString(minute)
	}
	if v.Purchases == nil {
		v.Purchases = []customer.Line{}
	}
	return v
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, shop.ErrUnknownCustomer):
		status = http.StatusNotFound
	case errors.Is(err, catalog.ErrDuplicateKey), errors.Is(err, engine.ErrNoCatalog):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrInvalidOptions), errors.Is(err, catalog.ErrInvalidItem):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
