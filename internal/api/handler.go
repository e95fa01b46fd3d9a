// Package api exposes the router as a small gorilla/mux REST surface. It
// exists only as the thin wiring shell the orchestrator needs to be
// reachable over HTTP; the routing and split logic lives in internal/router.
package api

import (
	"encoding/json"
	"log"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/clsor/router/internal/cache"
	"github.com/clsor/router/internal/domain"
	"github.com/clsor/router/internal/router"
)

// Handler wires an HTTP surface over the router and the subgraph
// pool-universe cache.
type Handler struct {
	router    *router.Router
	store     cache.Store
	tokenList map[common.Address]domain.Token
}

func NewHandler(r *router.Router, store cache.Store, tokenList map[common.Address]domain.Token) *Handler {
	return &Handler{router: r, store: store, tokenList: tokenList}
}

// quoteRequest is the wire shape of POST /api/v1/quote.
type quoteRequest struct {
	TokenIn   string `json:"tokenIn"`
	TokenOut  string `json:"tokenOut"`
	Amount    string `json:"amount"`
	TradeType string `json:"tradeType"`
}

// GetQuote runs the full candidate-selection, enumeration, distribution,
// quoting, and split-optimisation pipeline for one request and serializes
// the resulting plan, or `null` when no route exists.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "application/json" {
		http.Error(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if !common.IsHexAddress(req.TokenIn) || !common.IsHexAddress(req.TokenOut) {
		http.Error(w, "tokenIn/tokenOut must be hex addresses", http.StatusBadRequest)
		return
	}

	tokenIn, ok := h.tokenList[common.HexToAddress(req.TokenIn)]
	if !ok {
		http.Error(w, domain.TokenNotFoundError{Query: req.TokenIn}.Error(), http.StatusNotFound)
		return
	}
	tokenOut, ok := h.tokenList[common.HexToAddress(req.TokenOut)]
	if !ok {
		http.Error(w, domain.TokenNotFoundError{Query: req.TokenOut}.Error(), http.StatusNotFound)
		return
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		http.Error(w, "amount must be a positive base-10 integer", http.StatusBadRequest)
		return
	}

	tradeType, err := parseTradeType(req.TradeType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Printf("api: quote request %s -> %s amount=%s type=%s", req.TokenIn, req.TokenOut, amount, tradeType)

	plan, err := h.router.Route(r.Context(), router.Request{
		TokenIn:   domain.WrappedCurrency{Token: tokenIn},
		TokenOut:  domain.WrappedCurrency{Token: tokenOut},
		Amount:    amount,
		TradeType: tradeType,
	})
	if err != nil {
		log.Printf("api: quote failed: %v", err)
		http.Error(w, "quote failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(plan)
}

func parseTradeType(raw string) (domain.TradeType, error) {
	switch strings.ToUpper(raw) {
	case "", "EXACT_IN":
		return domain.ExactIn, nil
	case "EXACT_OUT":
		return domain.ExactOut, nil
	default:
		return 0, domain.ConfigInvalidError{Reason: "tradeType must be EXACT_IN or EXACT_OUT"}
	}
}

// HealthCheck reports basic liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// GetPools dumps the last-fetched subgraph snapshot, a debugging aid.
func (h *Handler) GetPools(w http.ResponseWriter, r *http.Request) {
	pools, err := h.store.GetAllPools(r.Context())
	if err != nil {
		http.Error(w, "failed to fetch pools: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if pools == nil {
		pools = []*domain.SubgraphPool{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count": len(pools),
		"pools": pools,
	})
}

// GetPoolByAddress looks up one cached subgraph pool by its on-chain
// address.
func (h *Handler) GetPoolByAddress(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if address == "" {
		http.Error(w, "pool address is required", http.StatusBadRequest)
		return
	}

	pool, err := h.store.GetPool(r.Context(), address)
	if err != nil {
		http.Error(w, "pool not found: "+err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pool)
}

// GetPoolsByTokens returns cached pools touching both given tokens.
func (h *Handler) GetPoolsByTokens(w http.ResponseWriter, r *http.Request) {
	tokenA := r.URL.Query().Get("tokenA")
	tokenB := r.URL.Query().Get("tokenB")
	if tokenA == "" || tokenB == "" {
		http.Error(w, "both tokenA and tokenB query parameters are required", http.StatusBadRequest)
		return
	}

	pools, err := h.store.GetPoolsByTokens(r.Context(), tokenA, tokenB)
	if err != nil {
		http.Error(w, "failed to fetch pools: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if pools == nil {
		pools = []*domain.SubgraphPool{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"tokenA": tokenA,
		"tokenB": tokenB,
		"count":  len(pools),
		"pools":  pools,
	})
}

// GetCacheStats reports two-level cache hit/miss counters, when the
// wired store supports it.
func (h *Handler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	tlc, ok := h.store.(*cache.TwoLevelCache)
	if !ok {
		http.Error(w, "cache stats unavailable for this store", http.StatusNotImplemented)
		return
	}

	stats := tlc.GetStats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"localHits":   stats.LocalHits,
		"localMisses": stats.LocalMisses,
		"redisHits":   stats.RedisHits,
		"redisMisses": stats.RedisMisses,
	})
}

// WriteJSON is a small helper main's /config endpoint uses to echo the
// loaded configuration without api importing the config package (config is
// read once at startup and handed down to the pieces that need it).
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
