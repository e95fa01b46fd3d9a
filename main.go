package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/clsor/router/config"
	"github.com/clsor/router/internal/api"
	"github.com/clsor/router/internal/cache"
	"github.com/clsor/router/internal/chainclient"
	"github.com/clsor/router/internal/domain"
	"github.com/clsor/router/internal/router"
	"github.com/clsor/router/internal/subgraph"
)

func main() {
	if err := config.Init(); err != nil {
		log.Fatalf("failed to initialize config: %v", err)
	}

	log.Println("starting smart order router...")

	cacheTTL := 30 * time.Second
	store := cache.NewTwoLevelCache(config.AppConfig.Redis.Addr, config.AppConfig.Redis.Password, cacheTTL)

	tokenList := buildTokenList(config.AppConfig.BaseTokens, config.AppConfig.Ethereum.ChainID)
	wrappedNative, ok := tokenList[common.HexToAddress(config.AppConfig.BaseTokens[0])]
	if !ok {
		log.Fatalf("base token list must include the chain's wrapped native token as its first entry")
	}

	ctx := context.Background()
	client, err := chainclient.Dial(ctx, config.AppConfig.Ethereum.RPCURL)
	if err != nil {
		log.Fatalf("failed to dial chain client: %v", err)
	}

	// Subgraph ingestion is explicitly out of this router's core scope;
	// StoreBackedProvider wraps whatever Provider a production deployment
	// plugs in (an HTTP client against a real subgraph endpoint) with the
	// two-level cache so repeated requests in one TTL window do not
	// re-fetch the whole pool universe.
	provider := subgraph.NewStoreBackedProvider(subgraph.NewStaticProvider(nil), store, cacheTTL)

	r := router.New(provider, client, tokenList, wrappedNative, gasPriceFunc(client), config.AppConfig.Router)
	handler := api.NewHandler(r, store, tokenList)

	mx := mux.NewRouter()
	mx.HandleFunc("/api/v1/quote", handler.GetQuote).Methods("POST")
	mx.HandleFunc("/api/v1/pools", handler.GetPools).Methods("GET")
	mx.HandleFunc("/api/v1/pools/search", handler.GetPoolsByTokens).Methods("GET")
	mx.HandleFunc("/api/v1/pools/{address}", handler.GetPoolByAddress).Methods("GET")
	mx.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	mx.HandleFunc("/config", configHandler).Methods("GET")
	mx.HandleFunc("/cache/stats", handler.GetCacheStats).Methods("GET")

	mx.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintf(w, `<html>
<head><title>Smart Order Router</title></head>
<body>
  <h1>Smart Order Router</h1>
  <ul>
    <li>Server Port: %s</li>
    <li>Redis: %s</li>
    <li>Base Tokens: %d configured</li>
    <li>Max Splits: %d</li>
  </ul>
  <p>Available endpoints:</p>
  <ul>
    <li>POST /api/v1/quote</li>
    <li><a href="/api/v1/pools">GET /api/v1/pools</a></li>
    <li><a href="/config">GET /config</a></li>
    <li><a href="/cache/stats">GET /cache/stats</a></li>
    <li><a href="/health">GET /health</a></li>
  </ul>
</body>
</html>`, config.AppConfig.Server.Port, config.AppConfig.Redis.Addr,
			len(config.AppConfig.BaseTokens), config.AppConfig.Router.MaxSplits)
	})

	addr := ":" + config.AppConfig.Server.Port
	log.Printf("HTTP server starting on http://localhost%s", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      mx,
		ReadTimeout:  time.Duration(config.AppConfig.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(config.AppConfig.Server.WriteTimeout) * time.Second,
	}

	log.Fatal(server.ListenAndServe())
}

// buildTokenList is the minimal stand-in for the token-list ingestion
// collaborator: it resolves the configured base token addresses into
// domain.Token values. A production deployment replaces this with a real
// token-list fetch (e.g. Uniswap's default token list); the router only
// depends on the resulting map.
func buildTokenList(addresses []string, chainID int64) map[common.Address]domain.Token {
	tokenList := make(map[common.Address]domain.Token, len(addresses))
	for _, addr := range addresses {
		if !common.IsHexAddress(addr) {
			log.Printf("config: skipping invalid base token address %q", addr)
			continue
		}
		token := domain.NewToken(chainID, addr, "", 18)
		tokenList[token.Address] = token
	}
	return tokenList
}

func configHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"server": map[string]interface{}{
			"port": config.AppConfig.Server.Port,
		},
		"redis": map[string]interface{}{
			"addr": config.AppConfig.Redis.Addr,
			"db":   config.AppConfig.Redis.DB,
		},
		"ethereum": map[string]interface{}{
			"rpc_url":  config.AppConfig.Ethereum.RPCURL,
			"chain_id": config.AppConfig.Ethereum.ChainID,
		},
		"router": config.AppConfig.Router,
	})
}

// gasPriceFunc adapts the chain client's SuggestGasPrice to the
// router.GasPriceFunc contract.
func gasPriceFunc(client chainclient.Client) router.GasPriceFunc {
	return func(ctx context.Context) (*big.Int, error) {
		return client.SuggestGasPrice(ctx)
	}
}
