package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:       "Invalid input provided",
	CodeInvalidState:       "Invalid state for this operation",
	CodeNotFound:           "Resource not found",
	CodeConfigurationError: "Configuration error",
	CodeInternalError:      "Internal error",
	CodeUnknownError:       "An unknown error occurred",

	CodeChainConnectionFailed: "Failed to connect to chain node",
	CodeChainSubscribeFailed:  "Failed to subscribe to chain events",
	CodeChainRPCError:         "Chain RPC call failed",
	CodeNetworkOutage:         "Chain provider disconnected",
	CodeGasEstimationFailed:   "Gas estimation failed",
	CodeContractCallFailed:    "Smart contract call failed",

	CodeQuoteUnavailable: "No adapter returned a quote for this hop",
	CodeCycleBroken:      "Cycle simulation failed on a hop",
	CodeTokenLoadFailed:  "Token metadata could not be loaded",
	CodePriceFeedError:   "USD price feed unavailable",
	CodeNoOpportunity:    "No profitable opportunity found",

	CodeValidationError:     "Strategy failed pre-submission validation",
	CodeSubmissionError:     "Transaction submission rejected",
	CodeConfirmationTimeout: "No receipt within the confirmation window",
	CodeOnChainRevert:       "Transaction reverted on chain",
	CodeExecutionInFlight:   "Another execution is already in flight",
}
