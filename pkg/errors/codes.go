package errors

import "strings"

// ErrorCode is a string identifier for a specific failure category.  Codes are
// prefixed by the module they originate from so that a log line or metric
// label pinpoints the failing stage without string matching on messages.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal       ErrorCode = "COMMON_001"
	ErrCodeInvalidParam   ErrorCode = "COMMON_002"
	ErrCodeNotFound       ErrorCode = "COMMON_003"
	ErrCodeValidation     ErrorCode = "COMMON_004"
	ErrCodeSerialization  ErrorCode = "COMMON_005"
	ErrCodeNotImplemented ErrorCode = "COMMON_006"
	ErrCodeCancelled      ErrorCode = "COMMON_007"
)

// Ingestion error codes.
const (
	ErrCodeMissingColumn     ErrorCode = "ING_001"
	ErrCodeEmptyTable        ErrorCode = "ING_002"
	ErrCodeRowInvalid        ErrorCode = "ING_003"
	ErrCodeDropRateExceeded  ErrorCode = "ING_004"
	ErrCodeTableReadFailed   ErrorCode = "ING_005"
	ErrCodeNoAnchorCompounds ErrorCode = "ING_006"
)

// Modeling error codes.
const (
	ErrCodeModelInfeasible    ErrorCode = "MOD_001"
	ErrCodeSingularMatrix     ErrorCode = "MOD_002"
	ErrCodeCrossValFailed     ErrorCode = "MOD_003"
	ErrCodeNoLogPVariation    ErrorCode = "MOD_004"
	ErrCodeInsufficientSample ErrorCode = "MOD_005"
)

// Classification error codes.
const (
	ErrCodeClassifyFailed ErrorCode = "CLS_001"
	ErrCodeEmptyScope     ErrorCode = "CLS_002"
)

// Consolidation error codes.
const (
	ErrCodeConsolidationFailed ErrorCode = "FRG_001"
)

// Configuration error codes.
const (
	ErrCodeConfigInvalid  ErrorCode = "CFG_001"
	ErrCodeConfigNotFound ErrorCode = "CFG_002"
)

// CodeOK is the sentinel for "no error" returned by GetCode(nil).
const CodeOK ErrorCode = "OK"

// CodeUnknown is returned by GetCode for errors outside the AppError chain.
const CodeUnknown ErrorCode = "UNKNOWN"

// defaultMessages maps codes to their fallback human-readable messages.
var defaultMessages = map[ErrorCode]string{
	ErrCodeInternal:       "internal error",
	ErrCodeInvalidParam:   "invalid parameter",
	ErrCodeNotFound:       "not found",
	ErrCodeValidation:     "validation failed",
	ErrCodeSerialization:  "serialization failed",
	ErrCodeNotImplemented: "not implemented",
	ErrCodeCancelled:      "operation cancelled",

	ErrCodeMissingColumn:     "required input column missing",
	ErrCodeEmptyTable:        "input table contains no rows",
	ErrCodeRowInvalid:        "input row invalid",
	ErrCodeDropRateExceeded:  "dropped-row fraction exceeds safety threshold",
	ErrCodeTableReadFailed:   "failed to read input table",
	ErrCodeNoAnchorCompounds: "input table contains no anchor compounds",

	ErrCodeModelInfeasible:    "model infeasible for group",
	ErrCodeSingularMatrix:     "feature matrix is singular",
	ErrCodeCrossValFailed:     "cross-validation failed",
	ErrCodeNoLogPVariation:    "fewer than two distinct Log P values among anchors",
	ErrCodeInsufficientSample: "insufficient anchors for this cascade level",

	ErrCodeClassifyFailed: "classification failed",
	ErrCodeEmptyScope:     "model scope contains no compounds",

	ErrCodeConsolidationFailed: "fragmentation consolidation failed",

	ErrCodeConfigInvalid:  "configuration invalid",
	ErrCodeConfigNotFound: "configuration file not found",
}

// DefaultMessageForCode returns the fallback message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := defaultMessages[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode, e.g. "MOD" for
// ErrCodeSingularMatrix.  Used as a metric label by the monitoring layer.
func ModuleForCode(code ErrorCode) string {
	parts := strings.SplitN(string(code), "_", 2)
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
