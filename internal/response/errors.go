package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"
	ErrAdminOnly     ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation       ErrCode = "VALIDATION_ERROR"
	ErrInvalidID        ErrCode = "INVALID_ID"
	ErrInvalidPayload   ErrCode = "INVALID_PAYLOAD"
	ErrInvalidExamType  ErrCode = "INVALID_EXAM_TYPE"
	ErrMarksAboveMax    ErrCode = "TOTAL_MARKS_ABOVE_MAXIMUM"
	ErrInvalidScoreEdit ErrCode = "INVALID_SCORE_EDIT"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal           ErrCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrCode = "SERVICE_UNAVAILABLE"
)

var messages = map[ErrCode]string{
	ErrTokenRequired: "Authentication token is required.",
	ErrTokenInvalid:  "Authentication token is invalid.",
	ErrTokenExpired:  "Authentication token has expired.",
	ErrAdminOnly:     "This resource is restricted to administrators.",

	ErrValidation:       "Validation failed. Please check your input.",
	ErrInvalidID:        "Invalid ID format.",
	ErrInvalidPayload:   "Invalid request payload.",
	ErrInvalidExamType:  "Exam type must be first-test, second-test or main-exam.",
	ErrMarksAboveMax:    "Total marks exceed the maximum allowed for this exam type.",
	ErrInvalidScoreEdit: "Score edit must name a supported field and a non-negative value.",

	ErrNotFound:         "Resource not found.",
	ErrConflict:         "Resource already exists.",
	ErrDependencyExists: "Resource cannot be deleted while other records still use it.",

	ErrRateLimitExceeded: "Too many requests. Please try again later.",

	ErrInternal:           "Internal server error.",
	ErrServiceUnavailable: "A dependency is unavailable. Please try again shortly.",
}

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "An unexpected error occurred."
}
