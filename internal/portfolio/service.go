// Package portfolio provides the HTTP handlers for recording transactions
// and querying positions, portfolios, and quotes.
//
// All monetary values use shopspring/decimal — never float64 for money.
package portfolio

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cryptofolio/portfolio-engine/internal/fifo"
	"github.com/cryptofolio/portfolio-engine/internal/metrics"
	"github.com/cryptofolio/portfolio-engine/internal/model"
	"github.com/cryptofolio/portfolio-engine/internal/prices"
	"github.com/cryptofolio/portfolio-engine/internal/store"
)

// Service handles portfolio operations. The ledger and quote source are
// injected, so tests run against the in-memory ledger and a static source.
type Service struct {
	ledger store.Ledger
	quotes prices.Source
	hub    *Hub // optional WebSocket hub for real-time broadcasts
}

// NewService creates a new portfolio service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(ledger store.Ledger, quotes prices.Source, hub *Hub) *Service {
	return &Service{
		ledger: ledger,
		quotes: quotes,
		hub:    hub,
	}
}

// --- Request/Response types ---

// TransactionRequest is the JSON body for POST /users/{userID}/transactions.
type TransactionRequest struct {
	Asset    string          `json:"asset"`    // quote-source coin id, e.g. "bitcoin"
	Kind     string          `json:"kind"`     // "buy" or "sell"
	Quantity decimal.Decimal `json:"quantity"` // asset units, must be positive
	Price    decimal.Decimal `json:"price"`    // execution price per unit in USD
}

// TransactionResponse is returned after a transaction is recorded. For
// sells it carries the one-shot realized P&L figure computed against the
// pre-sale average cost; the figure is reported here and nowhere else.
type TransactionResponse struct {
	Transaction model.Transaction `json:"transaction"`
	RealizedPnL *decimal.Decimal  `json:"realized_pnl,omitempty"`
	Position    PositionSummary   `json:"position"`
}

// PositionSummary is the post-append position snapshot included in
// transaction responses.
type PositionSummary struct {
	OpenQuantity decimal.Decimal `json:"open_quantity"`
	CostBasis    decimal.Decimal `json:"cost_basis"`
	AverageCost  decimal.Decimal `json:"average_cost"`
}

// PortfolioResponse is the JSON body for GET /users/{userID}/portfolio.
type PortfolioResponse struct {
	Positions []model.AssetPosition  `json:"positions"`
	Summary   model.PortfolioSummary `json:"summary"`
}

// --- HTTP Handlers ---

// CreateTransaction handles POST /api/v1/users/{userID}/transactions
//
// Sells exceeding the open quantity are rejected here, before they reach
// the ledger. The accounting engine itself clamps oversells instead of
// rejecting them, so transactions recorded through other paths still fold
// safely; this handler is the gatekeeping layer on top.
func (s *Service) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// --- Input validation ---
	req.Asset = strings.ToLower(strings.TrimSpace(req.Asset))
	if req.Asset == "" {
		writeError(w, "asset is required", http.StatusBadRequest)
		return
	}
	if req.Kind != model.KindBuy && req.Kind != model.KindSell {
		writeError(w, "kind must be buy or sell", http.StatusBadRequest)
		return
	}
	if !req.Quantity.IsPositive() {
		writeError(w, "quantity must be positive", http.StatusBadRequest)
		return
	}
	if req.Price.IsNegative() {
		writeError(w, "price must not be negative", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	txs, err := s.ledger.GetTransactions(ctx, userID, req.Asset)
	if err != nil {
		writeError(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}

	var realized *decimal.Decimal
	if req.Kind == model.KindSell {
		held := fifo.ComputePosition(txs, decimal.Zero).OpenQuantity
		if req.Quantity.GreaterThan(held) {
			metrics.OversellRejections.Inc()
			writeError(w, "sell quantity exceeds open quantity "+held.String(), http.StatusConflict)
			return
		}
		pnl := fifo.RealizedPnL(txs, req.Quantity, req.Price)
		realized = &pnl
	}

	tx := &model.Transaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Asset:     req.Asset,
		Kind:      req.Kind,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Timestamp: time.Now().UTC(),
	}

	if err := s.ledger.AppendTransaction(ctx, tx); err != nil {
		writeError(w, "failed to record transaction", http.StatusInternalServerError)
		return
	}

	metrics.TransactionsTotal.WithLabelValues(req.Kind).Inc()

	pos := fifo.ComputePosition(append(txs, *tx), decimal.Zero)

	slog.Info("transaction recorded",
		"tx_id", tx.ID,
		"user", userID,
		"asset", req.Asset,
		"kind", req.Kind,
		"qty", req.Quantity.String(),
		"price", req.Price.String(),
	)

	if s.hub != nil {
		s.hub.Broadcast(Event{
			Type:     "transaction_recorded",
			UserID:   userID,
			Asset:    req.Asset,
			Kind:     req.Kind,
			Quantity: req.Quantity.String(),
			Price:    req.Price.String(),
		})
	}

	resp := TransactionResponse{
		Transaction: *tx,
		RealizedPnL: realized,
		Position: PositionSummary{
			OpenQuantity: pos.OpenQuantity,
			CostBasis:    pos.CostBasis,
			AverageCost:  pos.AverageCost,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// ListTransactions handles GET /api/v1/users/{userID}/transactions
// Returns the ordered history, optionally filtered by ?asset=<id>.
func (s *Service) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	ctx := r.Context()

	if asset := r.URL.Query().Get("asset"); asset != "" {
		txs, err := s.ledger.GetTransactions(ctx, userID, strings.ToLower(asset))
		if err != nil {
			writeError(w, "failed to load transactions", http.StatusInternalServerError)
			return
		}
		if txs == nil {
			txs = []model.Transaction{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(txs)
		return
	}

	byAsset, err := s.ledger.GetTransactionsByUser(ctx, userID)
	if err != nil {
		writeError(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}

	// Flatten in ledger order.
	var all []model.Transaction
	for _, txs := range byAsset {
		all = append(all, txs...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Seq < all[j].Seq })
	if all == nil {
		all = []model.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(all)
}

// GetPosition handles GET /api/v1/users/{userID}/positions/{asset}
// Recomputes the position from the full history plus a live quote. A fully
// closed position reports zeros rather than 404: the asset legitimately has
// history, just nothing open.
func (s *Service) GetPosition(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	asset := strings.ToLower(chi.URLParam(r, "asset"))
	ctx := r.Context()

	txs, err := s.ledger.GetTransactions(ctx, userID, asset)
	if err != nil {
		writeError(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}

	quotes, err := s.quotes.GetQuotes(ctx, []string{asset})
	if err != nil {
		writeError(w, "quote source unavailable", http.StatusBadGateway)
		return
	}
	quote := quotes[asset] // zero value when missing → price 0

	pos := fifo.ComputePosition(txs, quote.USD)
	pos.Asset = asset
	pos.Change24h = quote.Change24h

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pos)
}

// GetPortfolio handles GET /api/v1/users/{userID}/portfolio
// Folds every asset's history through the FIFO engine, attaches live
// quotes, and aggregates open positions into portfolio totals. Closed
// positions are omitted from the response and the totals.
func (s *Service) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	ctx := r.Context()

	byAsset, err := s.ledger.GetTransactionsByUser(ctx, userID)
	if err != nil {
		writeError(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}

	assets := make([]string, 0, len(byAsset))
	for asset := range byAsset {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	quotes := map[string]prices.Quote{}
	if len(assets) > 0 {
		quotes, err = s.quotes.GetQuotes(ctx, assets)
		if err != nil {
			writeError(w, "quote source unavailable", http.StatusBadGateway)
			return
		}
	}

	positions := make(map[string]model.AssetPosition, len(assets))
	for _, asset := range assets {
		quote := quotes[asset] // missing quote → price 0
		pos := fifo.ComputePosition(byAsset[asset], quote.USD)
		pos.Asset = asset
		pos.Change24h = quote.Change24h
		positions[asset] = pos
	}

	summary := fifo.ComputePortfolio(positions)

	open := make([]model.AssetPosition, 0, len(positions))
	for _, asset := range assets {
		if pos := positions[asset]; pos.OpenQuantity.IsPositive() {
			open = append(open, pos)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PortfolioResponse{
		Positions: open,
		Summary:   summary,
	})
}

// GetQuotes handles GET /api/v1/prices?ids=bitcoin,ethereum
// Quote passthrough for watchlist displays; assets unknown to the source
// are absent from the response.
func (s *Service) GetQuotes(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		writeError(w, "ids query parameter is required", http.StatusBadRequest)
		return
	}

	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			ids = append(ids, id)
		}
	}

	quotes, err := s.quotes.GetQuotes(r.Context(), ids)
	if err != nil {
		writeError(w, "quote source unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quotes)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
