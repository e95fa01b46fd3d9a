// Package domain holds the value types shared by every router component:
// Token, Pool, Route, AmountQuote, RouteWithValidQuote and SwapPlan, plus the
// router's configuration surface. None of these types own a connection or a
// goroutine; they are plain, comparable-by-value data carried between
// components within a single request.
package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Token is an immutable value identifying an ERC20 on a given chain. Two
// tokens are equal iff ChainID and Address match, case-insensitively.
type Token struct {
	ChainID  int64
	Address  common.Address
	Symbol   string
	Decimals uint8
}

// NewToken builds a Token from a hex address string.
func NewToken(chainID int64, address, symbol string, decimals uint8) Token {
	return Token{
		ChainID:  chainID,
		Address:  common.HexToAddress(address),
		Symbol:   symbol,
		Decimals: decimals,
	}
}

// Equal reports whether two tokens denote the same on-chain asset.
func (t Token) Equal(other Token) bool {
	return t.ChainID == other.ChainID && t.Address == other.Address
}

// LessThan reports whether t sorts before other by lexicographic address
// order. Pool.token0/token1 ordering relies on this.
func (t Token) LessThan(other Token) bool {
	return strings.ToLower(t.Address.Hex()) < strings.ToLower(other.Address.Hex())
}

func (t Token) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Address.Hex()
}

// SortTokens returns (token0, token1) in canonical address order, the way
// every pool's identity is defined.
func SortTokens(a, b Token) (Token, Token) {
	if a.LessThan(b) {
		return a, b
	}
	return b, a
}

// Currency is a token that may be the chain's native asset (e.g. ETH), which
// has no contract address of its own and must be wrapped before it can
// appear inside a Route.
type Currency interface {
	IsNative() bool
	Wrapped() Token
}

// WrappedCurrency is the common case: an ERC20 token acting as its own
// currency.
type WrappedCurrency struct {
	Token Token
}

func (w WrappedCurrency) IsNative() bool  { return false }
func (w WrappedCurrency) Wrapped() Token  { return w.Token }

// NativeCurrency represents the chain's gas token (ETH, MATIC, ...),
// wrapping to the configured WETH-equivalent for internal routing.
type NativeCurrency struct {
	WrappedToken Token
}

func (n NativeCurrency) IsNative() bool { return true }
func (n NativeCurrency) Wrapped() Token { return n.WrappedToken }

// TradeType is the side of the trade the caller fixed.
type TradeType int

const (
	// ExactIn fixes the input amount; the router maximises output.
	ExactIn TradeType = iota
	// ExactOut fixes the output amount; the router minimises input.
	ExactOut
)

func (t TradeType) String() string {
	if t == ExactOut {
		return "EXACT_OUT"
	}
	return "EXACT_IN"
}

// QuoteToken is the token gas cost and final comparisons are denominated in:
// tokenOut for EXACT_IN, tokenIn for EXACT_OUT.
func QuoteToken(tokenIn, tokenOut Token, tradeType TradeType) Token {
	if tradeType == ExactOut {
		return tokenIn
	}
	return tokenOut
}

// ErrInvalidAddress is returned when a caller-supplied token address does
// not parse as hex.
type ErrInvalidAddress struct {
	Raw string
}

func (e ErrInvalidAddress) Error() string {
	return fmt.Sprintf("invalid token address: %q", e.Raw)
}
