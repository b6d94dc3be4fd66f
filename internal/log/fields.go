package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldActor      = "actor"
	FieldRole       = "role"
	FieldMonth      = "month"
	FieldFrom       = "from"
	FieldTo         = "to"
	FieldCount      = "count"
	FieldTotalPaise = "total_paise"
	FieldBatchID    = "batch_id"
	FieldFormat     = "format"
	FieldInvalid    = "invalid_ids"
)

// Component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentSettlement = "settlement"
	ComponentDashboard  = "dashboard"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentSheets     = "sheets"
	ComponentCache      = "cache"
	ComponentAuth       = "auth"
)

// Operation names
const (
	OpApprove   = "approve"
	OpReimburse = "reimburse"
	OpGenerate  = "generate_batch"
	OpExport    = "export"
	OpList      = "list"
	OpValidate  = "validate"
	OpAppend    = "append"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithActor records who performed an action.
func (f LogFields) WithActor(id, role string) LogFields {
	f[FieldActor] = id
	f[FieldRole] = role
	return f
}

// WithTransition adds the fields of a settlement status change.
func (f LogFields) WithTransition(from, to string, count int, totalPaise int64) LogFields {
	f[FieldFrom] = from
	f[FieldTo] = to
	f[FieldCount] = count
	f[FieldTotalPaise] = totalPaise
	return f
}

// WithBatch adds the batch identity and size.
func (f LogFields) WithBatch(id, month string, count int) LogFields {
	f[FieldBatchID] = id
	f[FieldMonth] = month
	f[FieldCount] = count
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
