package engine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"dicomschema/internal/logging"
	"dicomschema/internal/schema"
	"dicomschema/internal/validcache"
)

// State is the bridge lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configure how the analysis package is installed at initialization.
type Options struct {
	// PackageSource selects where the analysis package comes from:
	// "index" for the public package index, "local" for a local build
	// artifact directory.
	PackageSource   string
	LocalPackageDir string
	PackageVersion  string
	// CacheEntries bounds the validation result cache.
	CacheEntries int
}

// File is one named byte buffer handed to the engine.
type File struct {
	Name    string
	Content []byte
}

// AnalyzedField is one decoded field as reported by the engine.
type AnalyzedField struct {
	Tag     string `json:"tag,omitempty"`
	Name    string `json:"name"`
	Keyword string `json:"keyword,omitempty"`
	VR      string `json:"vr,omitempty"`
	Value   any    `json:"value"`
}

// AnalyzedSeries is one decoded series grouping.
type AnalyzedSeries struct {
	Name   string          `json:"name"`
	Fields []AnalyzedField `json:"fields"`
}

// AnalyzedAcquisition is one acquisition decoded from DICOM or protocol
// files, prior to normalization into the editing model.
type AnalyzedAcquisition struct {
	ProtocolName      string           `json:"protocolName"`
	SeriesDescription string           `json:"seriesDescription,omitempty"`
	TotalFiles        int              `json:"totalFiles,omitempty"`
	Fields            []AnalyzedField  `json:"fields"`
	Series            []AnalyzedSeries `json:"series,omitempty"`
}

// ValidationRecord is one field-level compliance finding.
type ValidationRecord struct {
	FieldName  string `json:"fieldName"`
	FieldTag   string `json:"fieldTag,omitempty"`
	SeriesName string `json:"seriesName,omitempty"`
	Expected   any    `json:"expected,omitempty"`
	Actual     any    `json:"actual,omitempty"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
}

// ValidationResult is the engine's verdict on one acquisition against one
// schema.
type ValidationResult struct {
	Records  []ValidationRecord `json:"records"`
	Passed   int                `json:"passed"`
	Failed   int                `json:"failed"`
	Warnings int                `json:"warnings"`
}

// CategorySummary counts fields by provenance.
type CategorySummary struct {
	Standard int `json:"standard"`
	Private  int `json:"private"`
	Custom   int `json:"custom"`
}

// Metadata describes a schema document being generated.
type Metadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// RunPythonResult carries the value and captured stdout of an ad hoc
// interpreter call.
type RunPythonResult struct {
	Result any    `json:"result"`
	Stdout string `json:"stdout,omitempty"`
}

type initAttempt struct {
	done    chan struct{}
	version VersionInfo
	err     error
}

// Bridge is the typed interface to the analysis engine worker. All engine
// work is serialized through one worker; the bridge tracks its lifecycle and
// fronts validation calls with a result cache.
type Bridge struct {
	caller Caller
	logger *slog.Logger
	opts   Options
	cache  *validcache.Cache

	mu      sync.Mutex
	state   State
	version VersionInfo
	attempt *initAttempt
}

// NewBridge wraps a transport (or a fake caller in tests).
func NewBridge(caller Caller, opts Options, logger *slog.Logger) *Bridge {
	return &Bridge{
		caller: caller,
		logger: logging.NewComponentLogger(logger, "engine-bridge"),
		opts:   opts,
		cache:  validcache.New(opts.CacheEntries),
	}
}

// State reports the current lifecycle state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Version reports the interpreter and package versions after a successful
// Initialize.
func (b *Bridge) Version() VersionInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// Initialize brings the engine to Ready: interpreter startup, support
// package install, versioned analysis package install, submodule imports.
// Idempotent: a Ready bridge returns immediately and a concurrent caller
// joins the in-flight attempt instead of starting a second interpreter.
// Failure leaves the bridge retryable.
func (b *Bridge) Initialize(ctx context.Context, onProgress func(Progress)) (VersionInfo, error) {
	b.mu.Lock()
	switch b.state {
	case StateReady:
		version := b.version
		b.mu.Unlock()
		return version, nil
	case StateInitializing:
		attempt := b.attempt
		b.mu.Unlock()
		select {
		case <-attempt.done:
			return attempt.version, attempt.err
		case <-ctx.Done():
			return VersionInfo{}, ctx.Err()
		}
	}

	attempt := &initAttempt{done: make(chan struct{})}
	b.state = StateInitializing
	b.attempt = attempt
	b.mu.Unlock()

	b.logger.Info("initializing analysis engine",
		logging.String("package_source", b.opts.PackageSource),
		logging.String("package_version", b.opts.PackageVersion))

	var version VersionInfo
	err := b.caller.Call(ctx, RequestInitialize, struct {
		PackageSource   string `json:"packageSource,omitempty"`
		LocalPackageDir string `json:"localPackageDir,omitempty"`
		PackageVersion  string `json:"packageVersion,omitempty"`
	}{b.opts.PackageSource, b.opts.LocalPackageDir, b.opts.PackageVersion}, &version, onProgress)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrInitialization, err)
	}

	b.mu.Lock()
	if err != nil {
		b.state = StateFailed
	} else {
		b.state = StateReady
		b.version = version
	}
	b.attempt = nil
	b.mu.Unlock()

	attempt.version = version
	attempt.err = err
	close(attempt.done)

	if err != nil {
		b.logger.Error("engine initialization failed", logging.Error(err))
		return VersionInfo{}, err
	}
	b.logger.Info("analysis engine ready",
		logging.String("interpreter", version.Interpreter),
		logging.String("package", version.Package))
	return version, nil
}

// AnalyzeFiles decodes a batch of DICOM files into acquisitions, extracting
// the named header fields. File bytes travel base64-encoded so binary content
// never passes through a text decoding.
func (b *Bridge) AnalyzeFiles(ctx context.Context, files []File, fields []string, onProgress func(Progress)) ([]AnalyzedAcquisition, error) {
	if err := b.requireReady(); err != nil {
		return nil, err
	}
	names := make([]string, len(files))
	contents := make([]string, len(files))
	for i, file := range files {
		names[i] = file.Name
		contents[i] = base64.StdEncoding.EncodeToString(file.Content)
	}
	var result struct {
		Acquisitions []AnalyzedAcquisition `json:"acquisitions"`
	}
	err := b.caller.Call(ctx, RequestAnalyzeFiles, struct {
		FileNames    []string `json:"fileNames"`
		FileContents []string `json:"fileContents"`
		Fields       []string `json:"fields,omitempty"`
	}{names, contents, fields}, &result, onProgress)
	if err != nil {
		return nil, decodeFailure("analyze files", err)
	}
	return result.Acquisitions, nil
}

// ValidateAcquisition checks one acquisition against a schema document. The
// result is a pure function of the three inputs and is cached by their
// digest; a hit never reaches the engine.
func (b *Bridge) ValidateAcquisition(ctx context.Context, acq schema.Acquisition, schemaContent string, acquisitionIndex int) (ValidationResult, error) {
	if err := b.requireReady(); err != nil {
		return ValidationResult{}, err
	}

	key, keyErr := validcache.Key(acq, schemaContent, acquisitionIndex)
	if keyErr == nil {
		if cached, ok := b.cache.Get(key); ok {
			if result, ok := cached.(ValidationResult); ok {
				return result, nil
			}
		}
	}

	var result ValidationResult
	err := b.caller.Call(ctx, RequestValidateAcquisition, struct {
		Acquisition      schema.Acquisition `json:"acquisition"`
		SchemaContent    string             `json:"schemaContent"`
		AcquisitionIndex int                `json:"acquisitionIndex"`
	}{acq, schemaContent, acquisitionIndex}, &result, nil)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("validate acquisition: %w", err)
	}
	if keyErr == nil {
		b.cache.Put(key, result)
	}
	return result, nil
}

// LoadProtocolFile decodes one vendor protocol file. Archive formats may
// yield multiple acquisitions per file.
func (b *Bridge) LoadProtocolFile(ctx context.Context, name string, content []byte, fileType string, onProgress func(Progress)) ([]AnalyzedAcquisition, error) {
	if err := b.requireReady(); err != nil {
		return nil, err
	}
	var result struct {
		Acquisitions []AnalyzedAcquisition `json:"acquisitions"`
	}
	err := b.caller.Call(ctx, RequestLoadProtocolFile, struct {
		FileName    string `json:"fileName"`
		FileContent string `json:"fileContent"`
		FileType    string `json:"fileType"`
	}{name, base64.StdEncoding.EncodeToString(content), fileType}, &result, onProgress)
	if err != nil {
		return nil, decodeFailure(fmt.Sprintf("load protocol file %s", name), err)
	}
	return result.Acquisitions, nil
}

// SearchFields queries the DICOM field dictionary bundled with the analysis
// package.
func (b *Bridge) SearchFields(ctx context.Context, query string, limit int) ([]schema.FieldDefinition, error) {
	if err := b.requireReady(); err != nil {
		return nil, err
	}
	var result struct {
		Fields []schema.FieldDefinition `json:"fields"`
	}
	err := b.caller.Call(ctx, RequestSearchFields, struct {
		Query string `json:"query"`
		Limit int    `json:"limit,omitempty"`
	}{query, limit}, &result, nil)
	if err != nil {
		return nil, fmt.Errorf("search fields: %w", err)
	}
	return result.Fields, nil
}

// GetFieldInfo looks up one dictionary entry by tag or name.
func (b *Bridge) GetFieldInfo(ctx context.Context, tagOrName string) (schema.FieldDefinition, error) {
	if err := b.requireReady(); err != nil {
		return schema.FieldDefinition{}, err
	}
	var result struct {
		Field schema.FieldDefinition `json:"field"`
	}
	err := b.caller.Call(ctx, RequestGetFieldInfo, struct {
		TagOrName string `json:"tagOrName"`
	}{tagOrName}, &result, nil)
	if err != nil {
		return schema.FieldDefinition{}, fmt.Errorf("field info for %q: %w", tagOrName, err)
	}
	return result.Field, nil
}

// GenerateSchema converts acquisitions plus metadata into the on-disk schema
// document, returned as raw JSON.
func (b *Bridge) GenerateSchema(ctx context.Context, acquisitions []schema.Acquisition, metadata Metadata) (json.RawMessage, error) {
	if err := b.requireReady(); err != nil {
		return nil, err
	}
	var result struct {
		Document json.RawMessage `json:"document"`
	}
	err := b.caller.Call(ctx, RequestGenerateSchema, struct {
		Acquisitions []schema.Acquisition `json:"acquisitions"`
		Metadata     Metadata             `json:"metadata"`
	}{acquisitions, metadata}, &result, nil)
	if err != nil {
		return nil, fmt.Errorf("generate schema: %w", err)
	}
	return result.Document, nil
}

// GenerateTestDicoms synthesizes fake DICOM files matching the given field
// values and returns them as a zip archive.
func (b *Bridge) GenerateTestDicoms(ctx context.Context, acq schema.Acquisition, testRows []map[string]any, fieldDefs []schema.FieldDefinition) ([]byte, error) {
	if err := b.requireReady(); err != nil {
		return nil, err
	}
	var result struct {
		Archive string `json:"archive"`
	}
	err := b.caller.Call(ctx, RequestGenerateTestDicoms, struct {
		Acquisition schema.Acquisition       `json:"acquisition"`
		TestRows    []map[string]any         `json:"testRows"`
		FieldDefs   []schema.FieldDefinition `json:"fieldDefs,omitempty"`
	}{acq, testRows, fieldDefs}, &result, nil)
	if err != nil {
		return nil, fmt.Errorf("generate test dicoms: %w", err)
	}
	archive, err := base64.StdEncoding.DecodeString(result.Archive)
	if err != nil {
		return nil, fmt.Errorf("decode test dicom archive: %w", err)
	}
	return archive, nil
}

// CategorizeFields counts field provenance for a schema-build summary. Best
// effort: failures log and fall back to a zeroed summary rather than failing
// the schema-build flow.
func (b *Bridge) CategorizeFields(ctx context.Context, fieldNames []string) CategorySummary {
	if err := b.requireReady(); err != nil {
		return CategorySummary{}
	}
	var result CategorySummary
	err := b.caller.Call(ctx, RequestCategorizeFields, struct {
		FieldNames []string `json:"fieldNames"`
	}{fieldNames}, &result, nil)
	if err != nil {
		b.logger.Warn("field categorization failed", logging.Error(err))
		return CategorySummary{}
	}
	return result
}

// RunPython evaluates a code snippet in the engine's interpreter.
func (b *Bridge) RunPython(ctx context.Context, code string) (RunPythonResult, error) {
	if err := b.requireReady(); err != nil {
		return RunPythonResult{}, err
	}
	var result RunPythonResult
	err := b.caller.Call(ctx, RequestRunPython, struct {
		Code string `json:"code"`
	}{code}, &result, nil)
	if err != nil {
		return RunPythonResult{}, fmt.Errorf("run python: %w", err)
	}
	return result, nil
}

// ClearCache empties both the validation result cache and the engine's
// interpreter-side session cache.
func (b *Bridge) ClearCache(ctx context.Context) error {
	if err := b.requireReady(); err != nil {
		return err
	}
	b.cache.Clear()
	if err := b.caller.Call(ctx, RequestClearCache, nil, nil, nil); err != nil {
		return fmt.Errorf("clear engine cache: %w", err)
	}
	return nil
}

func (b *Bridge) requireReady() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateReady {
		return fmt.Errorf("%w: state %s", ErrNotReady, b.state)
	}
	return nil
}

// decodeFailure classifies worker-reported failures from file-decoding
// operations so callers can present the engine's own error text.
func decodeFailure(operation string, err error) error {
	var workerErr *WorkerError
	if errors.As(err, &workerErr) {
		return fmt.Errorf("%w: %s: %s", ErrDecode, operation, workerErr.Message)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
