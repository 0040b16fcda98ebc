// Package ethereum provides flash-loan dispatch and transaction
// submission for the execution context.
package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const aavePoolABIJSON = `[
	{"name":"flashLoan","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"receiverAddress","type":"address"},
	           {"name":"assets","type":"address[]"},
	           {"name":"amounts","type":"uint256[]"},
	           {"name":"modes","type":"uint256[]"},
	           {"name":"onBehalfOf","type":"address"},
	           {"name":"params","type":"bytes"},
	           {"name":"referralCode","type":"uint16"}],
	 "outputs":[]}
]`

const balancerVaultABIJSON = `[
	{"name":"flashLoan","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"recipient","type":"address"},
	           {"name":"tokens","type":"address[]"},
	           {"name":"amounts","type":"uint256[]"},
	           {"name":"userData","type":"bytes"}],
	 "outputs":[]}
]`

const customExecutorABIJSON = `[
	{"name":"executeArbitrage","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"token","type":"address"},
	           {"name":"amount","type":"uint256"},
	           {"name":"params","type":"bytes"},
	           {"name":"strategyHash","type":"bytes32"}],
	 "outputs":[]},
	{"name":"ArbitrageExecuted","type":"event","anonymous":false,
	 "inputs":[{"name":"token","type":"address","indexed":true},
	           {"name":"amount","type":"uint256","indexed":false},
	           {"name":"profit","type":"uint256","indexed":false}]}
]`

func mustParseABI(json string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(json))
	if err != nil {
		panic("invalid abi: " + err.Error())
	}
	return parsed
}

var (
	aavePoolABI       = mustParseABI(aavePoolABIJSON)
	balancerVaultABI  = mustParseABI(balancerVaultABIJSON)
	customExecutorABI = mustParseABI(customExecutorABIJSON)
)

// legParamsArgs is the abi layout of the receiver-side callback
// payload: both swap paths and the slippage floor.
var legParamsArgs = abi.Arguments{
	{Name: "path1", Type: mustNewType("address[]")},
	{Name: "path2", Type: mustNewType("address[]")},
	{Name: "minAmountOut", Type: mustNewType("uint256")},
	{Name: "strategyHash", Type: mustNewType("bytes32")},
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic("invalid abi type: " + err.Error())
	}
	return typ
}
