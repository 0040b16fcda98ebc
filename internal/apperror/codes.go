package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// Chain and RPC error codes
const (
	CodeChainConnectionFailed Code = "CHAIN_CONNECTION_FAILED"
	CodeChainSubscribeFailed  Code = "CHAIN_SUBSCRIBE_FAILED"
	CodeChainRPCError         Code = "CHAIN_RPC_ERROR"
	CodeNetworkOutage         Code = "NETWORK_OUTAGE"
	CodeGasEstimationFailed   Code = "GAS_ESTIMATION_FAILED"
	CodeContractCallFailed    Code = "CONTRACT_CALL_FAILED"
)

// Detection pipeline error codes
const (
	CodeQuoteUnavailable Code = "QUOTE_UNAVAILABLE"
	CodeCycleBroken      Code = "CYCLE_BROKEN"
	CodeTokenLoadFailed  Code = "TOKEN_LOAD_FAILED"
	CodePriceFeedError   Code = "PRICE_FEED_ERROR"
	CodeNoOpportunity    Code = "NO_OPPORTUNITY"
)

// Execution error codes
const (
	CodeValidationError     Code = "VALIDATION_ERROR"
	CodeSubmissionError     Code = "SUBMISSION_ERROR"
	CodeConfirmationTimeout Code = "CONFIRMATION_TIMEOUT"
	CodeOnChainRevert       Code = "ONCHAIN_REVERT"
	CodeExecutionInFlight   Code = "EXECUTION_IN_FLIGHT"
)
