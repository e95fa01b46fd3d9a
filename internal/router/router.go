// Package router implements C8: the end-to-end orchestrator that sequences
// the pool selector (C3), route enumerator (C4), amount distributor (C5),
// batched quoter (C1) and split optimiser (C7) for a single swap request.
// Per-stage timing is logged via log.Printf so a slow request can be
// attributed to the stage responsible.
package router

import (
	"context"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/clsor/router/internal/chainclient"
	"github.com/clsor/router/internal/distributor"
	"github.com/clsor/router/internal/domain"
	"github.com/clsor/router/internal/gasmodel"
	"github.com/clsor/router/internal/quoter"
	"github.com/clsor/router/internal/routeenum"
	"github.com/clsor/router/internal/selector"
	"github.com/clsor/router/internal/splitter"
	"github.com/clsor/router/internal/subgraph"
)

// GasPriceFunc resolves the current gas price in wei. Failure is fatal to
// the request.
type GasPriceFunc func(ctx context.Context) (*big.Int, error)

// Request is a single swap-quote request at the orchestrator boundary.
// TokenIn/TokenOut are Currency so a native asset (no contract address) is
// accepted and wrapped internally before touching any route.
type Request struct {
	TokenIn   domain.Currency
	TokenOut  domain.Currency
	Amount    *big.Int
	TradeType domain.TradeType
}

// Router wires the pool universe collaborator, chain client and token
// registry together and exposes the single Route operation.
type Router struct {
	provider      subgraph.Provider
	client        chainclient.Client
	tokenList     map[common.Address]domain.Token
	wrappedNative domain.Token
	gasPrice      GasPriceFunc
	cfg           domain.RouterConfig
}

// New builds a Router. tokenList is the full recognised token registry,
// keyed by address; wrappedNative is the chain's wrapped gas token (e.g.
// WETH), used to seed the bridge-pool slice and the gas model.
func New(
	provider subgraph.Provider,
	client chainclient.Client,
	tokenList map[common.Address]domain.Token,
	wrappedNative domain.Token,
	gasPrice GasPriceFunc,
	cfg domain.RouterConfig,
) *Router {
	return &Router{
		provider:      provider,
		client:        client,
		tokenList:     tokenList,
		wrappedNative: wrappedNative,
		gasPrice:      gasPrice,
		cfg:           cfg,
	}
}

// Route runs the full candidate-selection, enumeration, distribution,
// quoting and split-optimisation pipeline for req. A nil plan with a nil
// error means no 100% baseline route was found. Configuration, gas-price and
// transport failures are typed domain errors; an amount the distributor
// rejects (not positive) is returned as a plain error.
func (r *Router) Route(ctx context.Context, req Request) (*domain.SwapPlan, error) {
	start := time.Now()

	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	tokenIn := req.TokenIn.Wrapped()
	tokenOut := req.TokenOut.Wrapped()

	log.Printf("router: quote request %s -> %s, amount %s, tradeType %s",
		tokenIn, tokenOut, req.Amount.String(), req.TradeType)

	gasPriceWei, err := r.gasPrice(ctx)
	if err != nil {
		return nil, domain.GasPriceUnavailableError{Err: err}
	}

	stageStart := time.Now()
	accessor, selection, err := selector.Select(ctx, r.provider, r.client, r.tokenList, r.wrappedNative, tokenIn, tokenOut, req.TradeType, r.cfg)
	if err != nil {
		return nil, err
	}
	logStage("selector", stageStart, len(accessor.GetAllPools()))

	stageStart = time.Now()
	routes := routeenum.Enumerate(tokenIn, tokenOut, accessor.GetAllPools(), r.cfg.MaxSwapsPerPath)
	logStage("routeenum", stageStart, len(routes))
	if len(routes) == 0 {
		log.Printf("router: no candidate routes for %s -> %s", tokenIn, tokenOut)
		return nil, nil
	}

	stageStart = time.Now()
	percents, amounts, err := distributor.Distribute(req.Amount, r.cfg.DistributionPercent)
	if err != nil {
		return nil, err
	}
	logStage("distributor", stageStart, len(percents))

	stageStart = time.Now()
	quoteResult, err := quoteRoutes(ctx, r.client, amounts, routes, r.cfg, req.TradeType)
	if err != nil {
		return nil, err
	}
	logStage("quoter", stageStart, len(quoteResult.RoutesWithQuotes))

	quoteToken := domain.QuoteToken(tokenIn, tokenOut, req.TradeType)
	gm := gasmodel.Build(gasPriceWei, r.wrappedNative, quoteToken, accessor, selection.BridgeQuoteToken)

	stageStart = time.Now()
	plan, err := splitter.FindBest(percents, quoteResult.RoutesWithQuotes, quoteToken, req.TradeType, gm, r.cfg)
	if err != nil {
		return nil, err
	}
	logStage("splitter", stageStart, planComponentCount(plan))

	if plan == nil {
		log.Printf("router: no 100%% baseline route for %s -> %s after %v", tokenIn, tokenOut, time.Since(start))
		return nil, nil
	}

	plan.GasPriceWei = gasPriceWei
	plan.BlockNumber = quoteResult.BlockNumber
	plan.TokenIn = req.TokenIn
	plan.TokenOut = req.TokenOut
	plan.TradeType = req.TradeType

	log.Printf("router: plan assembled in %v, %d route(s), quote %s",
		time.Since(start), len(plan.RouteAmounts), plan.Quote.String())

	return plan, nil
}

func quoteRoutes(ctx context.Context, client chainclient.Client, amounts []*big.Int, routes []domain.Route, cfg domain.RouterConfig, tradeType domain.TradeType) (*quoter.Result, error) {
	if tradeType == domain.ExactOut {
		return quoter.QuoteManyExactOut(ctx, client, amounts, routes, cfg)
	}
	return quoter.QuoteManyExactIn(ctx, client, amounts, routes, cfg)
}

func logStage(name string, start time.Time, itemCount int) {
	log.Printf("router: stage %s completed in %v (%d items)", name, time.Since(start), itemCount)
}

func planComponentCount(plan *domain.SwapPlan) int {
	if plan == nil {
		return 0
	}
	return len(plan.RouteAmounts)
}
