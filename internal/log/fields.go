package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldSuccess      = "success"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldCategoryID   = "category_id"
	FieldCategoryName = "category_name"
	FieldPlaceID      = "place_id"
	FieldUniverseID   = "universe_id"
	FieldGameName     = "game_name"
	FieldLastUpdated  = "last_updated"
	FieldUpdates      = "updates"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentCatalog    = "catalog"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentReconciler = "reconciler"
	ComponentRoblox     = "roblox"
	ComponentNotify     = "notify"
	ComponentSheets     = "sheets"
	ComponentService    = "service"
	ComponentBackend    = "backend"
	ComponentCache      = "cache"
	ComponentWorker     = "worker"
)

// Operations defines standard operation names
const (
	OpCreate        = "create"
	OpRename        = "rename"
	OpDelete        = "delete"
	OpMove          = "move"
	OpImport        = "import"
	OpExport        = "export"
	OpSync          = "sync"
	OpEnsureDefault = "ensure_default"
	OpShutdown      = "shutdown"
	OpStartup       = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error text; nil errors are skipped.
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

// WithGame adds the identifying fields of a tracked game.
func (f LogFields) WithGame(placeID, universeID, name string) LogFields {
	f[FieldPlaceID] = placeID
	f[FieldUniverseID] = universeID
	f[FieldGameName] = name
	return f
}

func (f LogFields) WithHTTPRequest(method, path string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	return f
}

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
