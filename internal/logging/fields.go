package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRequestID is the standardized structured logging key for RPC request identifiers.
	FieldRequestID = "request_id"
	// FieldRequestType is the standardized structured logging key for RPC request types.
	FieldRequestType = "request_type"
	// FieldAcquisition is the standardized structured logging key for acquisition protocol names.
	FieldAcquisition = "acquisition"
	// FieldFileName is the standardized structured logging key for ingested file names.
	FieldFileName = "file_name"
	// FieldFileCount is the standardized structured logging key for ingested file counts.
	FieldFileCount = "file_count"
	// FieldProgressMessage is the standardized structured logging key for progress messages.
	FieldProgressMessage = "progress_message"
)
