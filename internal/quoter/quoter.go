// Package quoter implements C1: encoding quote calls against the quoter
// contract, batching them through a fixed multicall aggregator in chunks,
// and decoding per-call success/failure. Dispatch is semaphore-free since
// each chunk is already capped by multicallChunkSize; calldata is packed
// with go-ethereum's accounts/abi so arbitrary-length paths and multicall
// tuples don't need hand-rolled offset encoding.
package quoter

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/clsor/router/internal/chainclient"
	"github.com/clsor/router/internal/domain"
)

// QuoterAddress and MulticallAddress are the well-known per-chain contract
// addresses. QuoterAddress here is Uniswap's QuoterV2 (mainnet);
// MulticallAddress is the canonical Multicall3 deployment address,
// identical across most EVM chains.
var (
	QuoterAddress    = common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	MulticallAddress = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")
)

const quoterABIJSON = `[
  {"inputs":[{"internalType":"bytes","name":"path","type":"bytes"},{"internalType":"uint256","name":"amountIn","type":"uint256"}],"name":"quoteExactInput","outputs":[{"internalType":"uint256","name":"amountOut","type":"uint256"},{"internalType":"uint160[]","name":"sqrtPriceX96AfterList","type":"uint160[]"},{"internalType":"uint32[]","name":"initializedTicksCrossedList","type":"uint32[]"},{"internalType":"uint256","name":"gasEstimate","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"bytes","name":"path","type":"bytes"},{"internalType":"uint256","name":"amountOut","type":"uint256"}],"name":"quoteExactOutput","outputs":[{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"uint160[]","name":"sqrtPriceX96AfterList","type":"uint160[]"},{"internalType":"uint32[]","name":"initializedTicksCrossedList","type":"uint32[]"},{"internalType":"uint256","name":"gasEstimate","type":"uint256"}],"stateMutability":"nonpayable","type":"function"}
]`

const multicallABIJSON = `[
  {"inputs":[{"components":[{"internalType":"address","name":"target","type":"address"},{"internalType":"uint256","name":"gasLimit","type":"uint256"},{"internalType":"bytes","name":"callData","type":"bytes"}],"internalType":"struct Call[]","name":"calls","type":"tuple[]"}],"name":"multicall","outputs":[{"internalType":"uint256","name":"blockNumber","type":"uint256"},{"components":[{"internalType":"bool","name":"success","type":"bool"},{"internalType":"uint256","name":"gasUsed","type":"uint256"},{"internalType":"bytes","name":"returnData","type":"bytes"}],"internalType":"struct Result[]","name":"returnData","type":"tuple[]"}],"stateMutability":"view","type":"function"}
]`

var quoterABI, multicallABI *abi.ABI

func init() {
	q, err := abi.JSON(strings.NewReader(quoterABIJSON))
	if err != nil {
		panic(fmt.Sprintf("quoter: invalid embedded quoter ABI: %v", err))
	}
	quoterABI = &q

	m, err := abi.JSON(strings.NewReader(multicallABIJSON))
	if err != nil {
		panic(fmt.Sprintf("quoter: invalid embedded multicall ABI: %v", err))
	}
	multicallABI = &m
}

// multicallCall mirrors the aggregator's Call tuple: field order (not
// name) is what go-ethereum's abi packer matches against the ABI.
type multicallCall struct {
	Target   common.Address
	GasLimit *big.Int
	CallData []byte
}

// Result is C1's contract output: R x M entries in row-major (route-major,
// then amount) order, matching the caller's route/amount order regardless
// of which chunk completed first.
type Result struct {
	BlockNumber                 uint64
	RoutesWithQuotes             []RouteQuotes
	ApproxGasUsedPerSuccessCall *big.Int
}

// RouteQuotes pairs one route with its per-amount quotes, aligned by index
// to the caller's amounts slice.
type RouteQuotes struct {
	Route  domain.Route
	Quotes []domain.AmountQuote
}

// QuoteManyExactIn quotes every (route, amount) pair for an EXACT_IN trade.
func QuoteManyExactIn(ctx context.Context, client chainclient.Client, amounts []*big.Int, routes []domain.Route, cfg domain.RouterConfig) (*Result, error) {
	return quoteMany(ctx, client, amounts, routes, cfg, false)
}

// QuoteManyExactOut quotes every (route, amount) pair for an EXACT_OUT trade.
func QuoteManyExactOut(ctx context.Context, client chainclient.Client, amounts []*big.Int, routes []domain.Route, cfg domain.RouterConfig) (*Result, error) {
	return quoteMany(ctx, client, amounts, routes, cfg, true)
}

type callRef struct {
	routeIdx, amountIdx int
}

type callOutcome struct {
	success    bool
	gasUsed    *big.Int
	returnData []byte
}

func quoteMany(ctx context.Context, client chainclient.Client, amounts []*big.Int, routes []domain.Route, cfg domain.RouterConfig, exactOut bool) (*Result, error) {
	refs := make([]callRef, 0, len(routes)*len(amounts))
	callData := make([][]byte, 0, len(routes)*len(amounts))

	for ri, route := range routes {
		path := encodePath(route)
		for ai, amount := range amounts {
			method := "quoteExactInput"
			if exactOut {
				method = "quoteExactOutput"
			}
			packed, err := quoterABI.Pack(method, path, amount)
			if err != nil {
				return nil, fmt.Errorf("quoter: pack %s: %w", method, err)
			}
			refs = append(refs, callRef{routeIdx: ri, amountIdx: ai})
			callData = append(callData, packed)
		}
	}

	total := len(refs)
	outcomes := make([]callOutcome, total)

	chunkSize := cfg.MulticallChunkSize
	if chunkSize <= 0 {
		chunkSize = total
	}
	if chunkSize == 0 {
		return &Result{RoutesWithQuotes: buildEmpty(routes, amounts)}, nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var blockNumber uint64
	var firstErr error

	for start := 0; start < total; start += chunkSize {
		end := start + chunkSize
		if end > total {
			end = total
		}

		start, end := start, end
		wg.Add(1)
		go func() {
			defer wg.Done()

			bn, chunkOutcomes, err := dispatchChunk(ctx, client, callData[start:end], cfg.MulticallGasLimitPerCall)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			copy(outcomes[start:end], chunkOutcomes)
			if blockNumber == 0 {
				blockNumber = bn
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, domain.TransportFailureError{Stage: "quoter.multicall", Err: firstErr}
	}

	return assemble(routes, amounts, refs, outcomes, blockNumber, exactOut)
}

func dispatchChunk(ctx context.Context, client chainclient.Client, chunk [][]byte, gasLimitPerCall uint64) (uint64, []callOutcome, error) {
	calls := make([]multicallCall, len(chunk))
	for i, data := range chunk {
		calls[i] = multicallCall{
			Target:   QuoterAddress,
			GasLimit: new(big.Int).SetUint64(gasLimitPerCall),
			CallData: data,
		}
	}

	packed, err := multicallABI.Pack("multicall", calls)
	if err != nil {
		return 0, nil, fmt.Errorf("pack multicall: %w", err)
	}

	raw, err := client.CallContract(ctx, MulticallAddress, packed)
	if err != nil {
		return 0, nil, fmt.Errorf("multicall eth_call: %w", err)
	}

	return decodeMulticallResult(raw)
}

func decodeMulticallResult(data []byte) (uint64, []callOutcome, error) {
	out, err := multicallABI.Unpack("multicall", data)
	if err != nil {
		return 0, nil, fmt.Errorf("unpack multicall: %w", err)
	}
	if len(out) != 2 {
		return 0, nil, fmt.Errorf("unexpected multicall output arity %d", len(out))
	}

	blockNumber, ok := out[0].(*big.Int)
	if !ok {
		return 0, nil, fmt.Errorf("unexpected blockNumber type %T", out[0])
	}

	rv := reflect.ValueOf(out[1])
	if rv.Kind() != reflect.Slice {
		return 0, nil, fmt.Errorf("unexpected multicall returnData type %T", out[1])
	}

	outcomes := make([]callOutcome, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i)
		success, _ := elem.FieldByName("Success").Interface().(bool)
		gasUsed, _ := elem.FieldByName("GasUsed").Interface().(*big.Int)
		returnData, _ := elem.FieldByName("ReturnData").Interface().([]byte)
		outcomes[i] = callOutcome{success: success, gasUsed: gasUsed, returnData: returnData}
	}

	return blockNumber.Uint64(), outcomes, nil
}

func assemble(routes []domain.Route, amounts []*big.Int, refs []callRef, outcomes []callOutcome, blockNumber uint64, exactOut bool) (*Result, error) {
	routesWithQuotes := buildEmpty(routes, amounts)
	var successGas []*big.Int

	method := "quoteExactInput"
	if exactOut {
		method = "quoteExactOutput"
	}

	for i, ref := range refs {
		outcome := outcomes[i]
		amount := amounts[ref.amountIdx]

		// An invalid quote: success=false or empty return data.
		if !outcome.success || len(outcome.returnData) == 0 {
			routesWithQuotes[ref.routeIdx].Quotes[ref.amountIdx] = domain.AmountQuote{Amount: amount}
			continue
		}

		values, err := quoterABI.Methods[method].Outputs.UnpackValues(outcome.returnData)
		if err != nil || len(values) < 4 {
			routesWithQuotes[ref.routeIdx].Quotes[ref.amountIdx] = domain.AmountQuote{Amount: amount}
			continue
		}

		quote, ok := values[0].(*big.Int)
		if !ok {
			routesWithQuotes[ref.routeIdx].Quotes[ref.amountIdx] = domain.AmountQuote{Amount: amount}
			continue
		}

		sqrtList := toBigIntSlice(values[1])
		ticks := toInt32Slice(values[2])
		gasEstimate, ok := values[3].(*big.Int)
		if !ok {
			routesWithQuotes[ref.routeIdx].Quotes[ref.amountIdx] = domain.AmountQuote{Amount: amount}
			continue
		}

		routesWithQuotes[ref.routeIdx].Quotes[ref.amountIdx] = domain.AmountQuote{
			Amount:                      amount,
			Quote:                       quote,
			SqrtPriceX96AfterList:       sqrtList,
			InitializedTicksCrossedList: ticks,
			GasEstimate:                 gasEstimate,
		}

		if outcome.gasUsed != nil {
			successGas = append(successGas, outcome.gasUsed)
		}
	}

	return &Result{
		BlockNumber:                 blockNumber,
		RoutesWithQuotes:             routesWithQuotes,
		ApproxGasUsedPerSuccessCall: percentile99(successGas),
	}, nil
}

func buildEmpty(routes []domain.Route, amounts []*big.Int) []RouteQuotes {
	out := make([]RouteQuotes, len(routes))
	for i, r := range routes {
		out[i] = RouteQuotes{Route: r, Quotes: make([]domain.AmountQuote, len(amounts))}
	}
	return out
}

func toBigIntSlice(v interface{}) []*big.Int {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil
	}
	out := make([]*big.Int, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		if b, ok := rv.Index(i).Interface().(*big.Int); ok {
			out[i] = b
		}
	}
	return out
}

func toInt32Slice(v interface{}) []int32 {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil
	}
	out := make([]int32, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		switch n := rv.Index(i).Interface().(type) {
		case uint32:
			out[i] = int32(n)
		case *big.Int:
			out[i] = int32(n.Int64())
		}
	}
	return out
}

// percentile99 returns the 99th-percentile value of a sorted copy of gasUsed,
// exposed as approxGasUsedPerSuccessCall; unused downstream but kept for
// observability.
func percentile99(gasUsed []*big.Int) *big.Int {
	if len(gasUsed) == 0 {
		return nil
	}
	sorted := make([]*big.Int, len(gasUsed))
	copy(sorted, gasUsed)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })

	n := len(sorted)
	idx := (99*n + 99) / 100 - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// encodePath ABI-encodes a route as the concatenation of
// (token, fee, token, fee, ..., token).
func encodePath(route domain.Route) []byte {
	var buf bytes.Buffer
	current := route.TokenIn
	buf.Write(current.Address.Bytes())
	for _, pool := range route.Pools {
		fee := pool.Fee
		buf.Write([]byte{byte(fee >> 16), byte(fee >> 8), byte(fee)})
		current = pool.OtherToken(current)
		buf.Write(current.Address.Bytes())
	}
	return buf.Bytes()
}
