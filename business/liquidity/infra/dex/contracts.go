// Package dex implements venue adapters for on-chain quoting.
package dex

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const v2RouterABIJSON = `[
	{"name":"getAmountsOut","type":"function","stateMutability":"view",
	 "inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],
	 "outputs":[{"name":"amounts","type":"uint256[]"}]}
]`

const v3QuoterABIJSON = `[
	{"name":"quoteExactInputSingle","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},
	           {"name":"fee","type":"uint24"},{"name":"amountIn","type":"uint256"},
	           {"name":"sqrtPriceLimitX96","type":"uint160"}],
	 "outputs":[{"name":"amountOut","type":"uint256"}]}
]`

const stableSwapABIJSON = `[
	{"name":"coins","type":"function","stateMutability":"view",
	 "inputs":[{"name":"i","type":"uint256"}],
	 "outputs":[{"name":"","type":"address"}]},
	{"name":"get_dy","type":"function","stateMutability":"view",
	 "inputs":[{"name":"i","type":"int128"},{"name":"j","type":"int128"},{"name":"dx","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

func mustParseABI(json string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(json))
	if err != nil {
		panic("invalid abi: " + err.Error())
	}
	return parsed
}

var (
	v2RouterABI   = mustParseABI(v2RouterABIJSON)
	v3QuoterABI   = mustParseABI(v3QuoterABIJSON)
	stableSwapABI = mustParseABI(stableSwapABIJSON)
)
