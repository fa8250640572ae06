package testsupport

import (
	"context"
	"sync"

	"dicomschema/internal/engine"
)

// ScriptedEngine is an in-memory analysis engine for tests. It satisfies the
// ingestion pipeline's engine interface and records every call.
type ScriptedEngine struct {
	mu    sync.Mutex
	calls []string

	// Version is returned by Initialize.
	Version engine.VersionInfo
	// Analyzed is returned by AnalyzeFiles.
	Analyzed []engine.AnalyzedAcquisition
	// Protocols maps file name to the acquisitions its protocol file yields.
	Protocols map[string][]engine.AnalyzedAcquisition
	// AnalyzedFields records the field selection of the last AnalyzeFiles call.
	AnalyzedFields []string
	// InitializeErr, AnalyzeErr, and ProtocolErr force failures.
	InitializeErr error
	AnalyzeErr    error
	ProtocolErr   error
}

// NewScriptedEngine returns an engine reporting plausible version strings.
func NewScriptedEngine() *ScriptedEngine {
	return &ScriptedEngine{
		Version:   engine.VersionInfo{Interpreter: "3.12.4", Package: "0.1.29"},
		Protocols: make(map[string][]engine.AnalyzedAcquisition),
	}
}

// Calls returns the call log in dispatch order.
func (e *ScriptedEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *ScriptedEngine) record(call string) {
	e.mu.Lock()
	e.calls = append(e.calls, call)
	e.mu.Unlock()
}

func (e *ScriptedEngine) Initialize(_ context.Context, onProgress func(engine.Progress)) (engine.VersionInfo, error) {
	e.record("initialize")
	if e.InitializeErr != nil {
		return engine.VersionInfo{}, e.InitializeErr
	}
	if onProgress != nil {
		for _, pct := range []float64{10, 40, 60, 90, 100} {
			onProgress(engine.Progress{Percentage: pct, Operation: "initializing"})
		}
	}
	return e.Version, nil
}

func (e *ScriptedEngine) AnalyzeFiles(_ context.Context, files []engine.File, fields []string, onProgress func(engine.Progress)) ([]engine.AnalyzedAcquisition, error) {
	e.record("analyzeFiles")
	e.mu.Lock()
	e.AnalyzedFields = append([]string(nil), fields...)
	e.mu.Unlock()
	if e.AnalyzeErr != nil {
		return nil, e.AnalyzeErr
	}
	if onProgress != nil {
		for i := range files {
			onProgress(engine.Progress{
				Percentage:     100 * float64(i+1) / float64(len(files)),
				Operation:      "analyzing " + files[i].Name,
				TotalFiles:     len(files),
				TotalProcessed: i + 1,
			})
		}
	}
	return e.Analyzed, nil
}

func (e *ScriptedEngine) LoadProtocolFile(_ context.Context, name string, _ []byte, fileType string, _ func(engine.Progress)) ([]engine.AnalyzedAcquisition, error) {
	e.record("loadProtocolFile:" + fileType)
	if e.ProtocolErr != nil {
		return nil, e.ProtocolErr
	}
	return e.Protocols[name], nil
}
