package router

import (
	"bytes"
	"context"
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clsor/router/internal/domain"
	"github.com/clsor/router/internal/subgraph"
)

// The ABI fragments below mirror the ones embedded in internal/quoter and
// internal/poolaccessor: router_test exercises the real byte-level
// encode/decode path those packages use, so it needs its own parsed copies
// to play the on-chain side of the conversation.
const routerTestQuoterABIJSON = `[
  {"inputs":[{"internalType":"bytes","name":"path","type":"bytes"},{"internalType":"uint256","name":"amountIn","type":"uint256"}],"name":"quoteExactInput","outputs":[{"internalType":"uint256","name":"amountOut","type":"uint256"},{"internalType":"uint160[]","name":"sqrtPriceX96AfterList","type":"uint160[]"},{"internalType":"uint32[]","name":"initializedTicksCrossedList","type":"uint32[]"},{"internalType":"uint256","name":"gasEstimate","type":"uint256"}],"stateMutability":"nonpayable","type":"function"}
]`

const routerTestMulticallABIJSON = `[
  {"inputs":[{"components":[{"internalType":"address","name":"target","type":"address"},{"internalType":"uint256","name":"gasLimit","type":"uint256"},{"internalType":"bytes","name":"callData","type":"bytes"}],"internalType":"struct Call[]","name":"calls","type":"tuple[]"}],"name":"multicall","outputs":[{"internalType":"uint256","name":"blockNumber","type":"uint256"},{"components":[{"internalType":"bool","name":"success","type":"bool"},{"internalType":"uint256","name":"gasUsed","type":"uint256"},{"internalType":"bytes","name":"returnData","type":"bytes"}],"internalType":"struct Result[]","name":"returnData","type":"tuple[]"}],"stateMutability":"view","type":"function"}
]`

const routerTestPoolABIJSON = `[
  {"inputs":[],"name":"liquidity","outputs":[{"internalType":"uint128","name":"","type":"uint128"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"slot0","outputs":[{"internalType":"uint160","name":"sqrtPriceX96","type":"uint160"},{"internalType":"int24","name":"tick","type":"int24"},{"internalType":"uint16","name":"observationIndex","type":"uint16"},{"internalType":"uint16","name":"observationCardinality","type":"uint16"},{"internalType":"uint16","name":"observationCardinalityNext","type":"uint16"},{"internalType":"uint8","name":"feeProtocol","type":"uint8"},{"internalType":"bool","name":"unlocked","type":"bool"}],"stateMutability":"view","type":"function"}
]`

var (
	routerTestQuoterABI    = mustParseABI(routerTestQuoterABIJSON)
	routerTestMulticallABI = mustParseABI(routerTestMulticallABIJSON)
	routerTestPoolABI      = mustParseABI(routerTestPoolABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// fakeChainClient answers the pool accessor's batched slot0/liquidity
// fetch and the quoter's batched multicall fetch with fixture data, so the
// full pipeline runs against real ABI-encoded bytes without a live node.
type fakeChainClient struct {
	blockNumber uint64
	liquidity   map[common.Address]string
	slot0       map[common.Address]string
	// quotes maps fee -> amount (decimal string) -> quoted amount, keyed by
	// the fee tier encoded into the quoter path so each candidate route can
	// be driven independently, the same way quoter_test's fakeClient keys
	// off decoded call arguments instead of hand-tracked call order.
	quotes map[uint32]map[string]int64
}

func (f *fakeChainClient) BatchCall(ctx context.Context, batch []rpc.BatchElem) error {
	liquidityPayload, _ := routerTestPoolABI.Pack("liquidity")

	for i := range batch {
		args := batch[i].Args[0].(map[string]interface{})
		addr := args["to"].(common.Address)
		data := []byte(args["data"].(hexutil.Bytes))
		resultPtr := batch[i].Result.(*string)

		if bytes.Equal(data, liquidityPayload) {
			*resultPtr = f.liquidity[addr]
		} else {
			*resultPtr = f.slot0[addr]
		}
	}
	return nil
}

func (f *fakeChainClient) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	values, err := routerTestMulticallABI.Methods["multicall"].Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	callsVal := reflect.ValueOf(values[0])

	type resultTuple struct {
		Success    bool
		GasUsed    *big.Int
		ReturnData []byte
	}
	results := make([]resultTuple, callsVal.Len())

	for i := 0; i < callsVal.Len(); i++ {
		callData := callsVal.Index(i).FieldByName("CallData").Interface().([]byte)

		args, err := routerTestQuoterABI.Methods["quoteExactInput"].Inputs.Unpack(callData[4:])
		if err != nil {
			return nil, err
		}
		path := args[0].([]byte)
		amount := args[1].(*big.Int)

		fee := uint32(path[20])<<16 | uint32(path[21])<<8 | uint32(path[22])
		quote, ok := f.quotes[fee][amount.String()]
		if !ok {
			results[i] = resultTuple{Success: false, GasUsed: big.NewInt(0), ReturnData: nil}
			continue
		}

		packed, err := routerTestQuoterABI.Methods["quoteExactInput"].Outputs.Pack(
			big.NewInt(quote),
			[]*big.Int{big.NewInt(1)},
			[]uint32{1},
			big.NewInt(21_000),
		)
		if err != nil {
			return nil, err
		}
		results[i] = resultTuple{Success: true, GasUsed: big.NewInt(21_000), ReturnData: packed}
	}

	return routerTestMulticallABI.Methods["multicall"].Outputs.Pack(new(big.Int).SetUint64(f.blockNumber), results)
}

func (f *fakeChainClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func packLiquidity(t *testing.T, liquidity int64) string {
	t.Helper()
	data, err := routerTestPoolABI.Methods["liquidity"].Outputs.Pack(big.NewInt(liquidity))
	require.NoError(t, err)
	return hexutil.Encode(data)
}

func packSlot0(t *testing.T, sqrtPriceX96 *big.Int, tick int32) string {
	t.Helper()
	data, err := routerTestPoolABI.Methods["slot0"].Outputs.Pack(
		sqrtPriceX96,
		big.NewInt(int64(tick)),
		uint16(0), uint16(0), uint16(0),
		uint8(0), false,
	)
	require.NoError(t, err)
	return hexutil.Encode(data)
}

// TestRoute_ForcedTwoSplitEndToEnd drives Router.Route through selector,
// routeenum, distributor, quoter and splitter end to end: two disjoint
// direct pools, one filling 50% better than the other fills 100%, forcing
// a 2-way split. This is the only test that exercises the plan assembly
// Route attaches after the splitter returns.
func TestRoute_ForcedTwoSplitEndToEnd(t *testing.T) {
	tokenIn := domain.NewToken(1, "0x0000000000000000000000000000000000000001", "IN", 18)
	tokenOut := domain.NewToken(1, "0x0000000000000000000000000000000000000002", "OUT", 18)
	wrappedNative := domain.NewToken(1, "0x0000000000000000000000000000000000000003", "WETH", 18)

	poolDirect500 := domain.NewPool(tokenIn, tokenOut, 500, big.NewInt(1_000_000), big.NewInt(1), 0)
	poolDirect3000 := domain.NewPool(tokenIn, tokenOut, 3000, big.NewInt(1_000_000), big.NewInt(1), 0)
	// Bridge pool (wrappedNative/quoteToken) at a 1:1 price, serving gas
	// pricing only; it touches neither candidate route.
	sqrtPrice1to1 := new(big.Int).Lsh(big.NewInt(1), 96)
	poolBridge := domain.NewPool(wrappedNative, tokenOut, 500, big.NewInt(1_000_000), sqrtPrice1to1, 0)

	subgraphPools := []domain.SubgraphPool{
		{
			ID: poolDirect500.Address().Hex(), Token0ID: poolDirect500.Token0.Address.Hex(),
			Token0Symbol: poolDirect500.Token0.Symbol, Token1ID: poolDirect500.Token1.Address.Hex(),
			Token1Symbol: poolDirect500.Token1.Symbol, FeeTier: 500, TotalValueLockedUSD: big.NewFloat(1000),
		},
		{
			ID: poolDirect3000.Address().Hex(), Token0ID: poolDirect3000.Token0.Address.Hex(),
			Token0Symbol: poolDirect3000.Token0.Symbol, Token1ID: poolDirect3000.Token1.Address.Hex(),
			Token1Symbol: poolDirect3000.Token1.Symbol, FeeTier: 3000, TotalValueLockedUSD: big.NewFloat(900),
		},
		{
			ID: poolBridge.Address().Hex(), Token0ID: poolBridge.Token0.Address.Hex(),
			Token0Symbol: poolBridge.Token0.Symbol, Token1ID: poolBridge.Token1.Address.Hex(),
			Token1Symbol: poolBridge.Token1.Symbol, FeeTier: 500, TotalValueLockedUSD: big.NewFloat(500),
		},
	}

	tokenList := map[common.Address]domain.Token{
		tokenIn.Address:       tokenIn,
		tokenOut.Address:      tokenOut,
		wrappedNative.Address: wrappedNative,
	}

	client := &fakeChainClient{
		blockNumber: 12345,
		liquidity: map[common.Address]string{
			poolDirect500.Address():  packLiquidity(t, 1_000_000),
			poolDirect3000.Address(): packLiquidity(t, 1_000_000),
			poolBridge.Address():     packLiquidity(t, 1_000_000),
		},
		slot0: map[common.Address]string{
			poolDirect500.Address():  packSlot0(t, big.NewInt(1), 0),
			poolDirect3000.Address(): packSlot0(t, big.NewInt(1), 0),
			poolBridge.Address():     packSlot0(t, sqrtPrice1to1, 0),
		},
		// fee 500 (direct route): strong at 50%, heavy slippage at 100%.
		// fee 3000 (direct route): weaker at 100%, but its 50% fill beats
		// fee 500's 50% fill, forcing the 2-way split.
		quotes: map[uint32]map[string]int64{
			500:  {"500000": 480_000, "1000000": 700_000},
			3000: {"500000": 490_000, "1000000": 600_000},
		},
	}

	provider := subgraph.NewStaticProvider(subgraphPools)
	cfg := domain.DefaultRouterConfig()
	cfg.DistributionPercent = 50

	r := New(provider, client, tokenList, wrappedNative, func(ctx context.Context) (*big.Int, error) {
		return big.NewInt(1), nil
	}, cfg)

	plan, err := r.Route(context.Background(), Request{
		TokenIn:   domain.WrappedCurrency{Token: tokenIn},
		TokenOut:  domain.WrappedCurrency{Token: tokenOut},
		Amount:    big.NewInt(1_000_000),
		TradeType: domain.ExactIn,
	})

	require.NoError(t, err)
	require.NotNil(t, plan)

	require.Len(t, plan.RouteAmounts, 2)
	sum := 0
	for _, ra := range plan.RouteAmounts {
		sum += ra.Percentage
		assert.Equal(t, 50, ra.Percentage)
	}
	assert.Equal(t, 100, sum)
	assert.True(t, plan.RouteAmounts[0].Route.DisjointFrom(plan.RouteAmounts[1].Route))

	assert.Equal(t, big.NewInt(970_000), plan.Quote)
	assert.Equal(t, big.NewInt(928_000), plan.QuoteGasAdjusted)
	assert.Equal(t, big.NewInt(42_000), plan.EstimatedGasUsed)
	assert.Equal(t, big.NewInt(1), plan.GasPriceWei)
	assert.Equal(t, uint64(12345), plan.BlockNumber)
	assert.Equal(t, domain.WrappedCurrency{Token: tokenIn}, plan.TokenIn)
	assert.Equal(t, domain.WrappedCurrency{Token: tokenOut}, plan.TokenOut)
	assert.Equal(t, domain.ExactIn, plan.TradeType)
}

// TestRoute_NoPoolsReturnsNilPlan pins the no-route early return that
// router.go:105-108 takes before it ever reaches the quoter/splitter, kept
// alongside the populated-plan test above so both branches of Route() are
// covered in this package, not only through internal/api's handler test.
func TestRoute_NoPoolsReturnsNilPlan(t *testing.T) {
	tokenIn := domain.NewToken(1, "0x0000000000000000000000000000000000000001", "IN", 18)
	tokenOut := domain.NewToken(1, "0x0000000000000000000000000000000000000002", "OUT", 18)

	tokenList := map[common.Address]domain.Token{
		tokenIn.Address:  tokenIn,
		tokenOut.Address: tokenOut,
	}

	provider := subgraph.NewStaticProvider(nil)
	client := &fakeChainClient{}

	r := New(provider, client, tokenList, tokenIn, func(ctx context.Context) (*big.Int, error) {
		return big.NewInt(1), nil
	}, domain.DefaultRouterConfig())

	plan, err := r.Route(context.Background(), Request{
		TokenIn:   domain.WrappedCurrency{Token: tokenIn},
		TokenOut:  domain.WrappedCurrency{Token: tokenOut},
		Amount:    big.NewInt(100),
		TradeType: domain.ExactIn,
	})
	require.NoError(t, err)
	assert.Nil(t, plan)
}
