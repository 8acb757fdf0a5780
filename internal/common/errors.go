package common

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/google/uuid"
)

// ValidationError carries input validation text that is safe to return to
// the client verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrorCategory prefixes the stable error codes surfaced to clients. Each
// tool module declares its category at construction instead of deriving it
// from function names.
type ErrorCategory string

const (
	CategoryChat    ErrorCategory = "CHAT"
	CategoryMsg     ErrorCategory = "MSG"
	CategoryContact ErrorCategory = "CONTACT"
	CategoryGroup   ErrorCategory = "GROUP"
	CategoryMedia   ErrorCategory = "MEDIA"
	CategoryProfile ErrorCategory = "PROFILE"
	CategoryAuth    ErrorCategory = "AUTH"
	CategoryAdmin   ErrorCategory = "ADMIN"
	CategoryFolder  ErrorCategory = "FOLDER"
	CategoryGeneral ErrorCategory = "GEN"
)

// validationCode marks rejected tool arguments; the raw validation text goes
// back to the client instead of the generic message.
const validationCode = "VALIDATION-001"

// ErrorCode derives the stable code for a tool function. FNV-1a keeps the
// code identical across runs so repeated failures correlate in the log.
func ErrorCode(category ErrorCategory, function string) string {
	if category == "" {
		category = CategoryGeneral
	}
	h := fnv.New32a()
	h.Write([]byte(function))
	return fmt.Sprintf("%s-ERR-%03d", category, h.Sum32()%1000)
}

// ErrorFormatter produces the client-facing text for failures in one tool
// module. The full error always lands in the error log; the client only sees
// the generic message (or an explicitly authored one).
type ErrorFormatter struct {
	category ErrorCategory
}

func NewErrorFormatter(category ErrorCategory) *ErrorFormatter {
	return &ErrorFormatter{category: category}
}

// Format logs err under the function's stable code and returns the text the
// client should see. Validation errors return their own message; everything
// else returns a generic pointer at the error log.
func (f *ErrorFormatter) Format(function string, err error, keyvals ...interface{}) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		f.log(function, validationCode, err, keyvals)
		return ve.Message
	}
	code := ErrorCode(f.category, function)
	f.log(function, code, err, keyvals)
	return fmt.Sprintf("An error occurred (code: %s). Check mcp_errors.log for details.", code)
}

// FormatWithMessage logs err like Format but returns message unchanged, for
// failures with authored user-facing guidance.
func (f *ErrorFormatter) FormatWithMessage(function string, err error, message string, keyvals ...interface{}) string {
	code := ErrorCode(f.category, function)
	f.log(function, code, err, keyvals)
	return message
}

func (f *ErrorFormatter) log(function, code string, err error, keyvals []interface{}) {
	msg := fmt.Sprintf("Error in %s (%s) - Code: %s", function, formatKeyvals(keyvals), code)
	fields := []interface{}{"error", err, "correlation_id", uuid.NewString()}
	appLogger.Error(msg, fields...)
	if errorLogger != nil {
		errorLogger.Error(msg, fields...)
	}
}

func formatKeyvals(keyvals []interface{}) string {
	var parts []string
	for i := 0; i+1 < len(keyvals); i += 2 {
		parts = append(parts, fmt.Sprintf("%v=%v", keyvals[i], keyvals[i+1]))
	}
	return strings.Join(parts, ", ")
}
