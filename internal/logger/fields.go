package logger

// Field names shared by every component that logs.
const (
	FieldComponent  = "component"
	FieldListID     = "list_id"
	FieldDurableID  = "durable_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldCount      = "count"
	FieldError      = "error"
	FieldDurationMS = "duration_ms"
	FieldSource     = "source"
)
