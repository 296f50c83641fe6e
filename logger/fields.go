package logger

import "time"

// Standard field key constants for structured logging.
const (
	FieldComponent    = "component"
	FieldService      = "service"
	FieldEndpoint     = "endpoint"
	FieldRequestID    = "request_id"
	FieldMethod       = "method"
	FieldURL          = "url"
	FieldStatus       = "status"
	FieldAttempt      = "attempt"
	FieldError        = "error"
	FieldDuration     = "duration_ms"
	FieldBreakerState = "breaker_state"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("request complete", logger.Fields("status", 200, "duration_ms", 12))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(service string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldService: service,
		FieldError:   err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(service string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldService:  service,
		FieldDuration: d.Milliseconds(),
	}
}
