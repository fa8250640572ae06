package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"dicomschema/internal/engine"
	"dicomschema/internal/testsupport"
)

// fakeEngine records the order of pipeline calls and serves canned
// acquisitions.
type fakeEngine struct {
	calls          []string
	analyzed       []engine.AnalyzedAcquisition
	perProtocol    map[string][]engine.AnalyzedAcquisition
	analyzedFiles  []engine.File
	analyzedFields []string
}

func (f *fakeEngine) Initialize(_ context.Context, onProgress func(engine.Progress)) (engine.VersionInfo, error) {
	f.calls = append(f.calls, "initialize")
	if onProgress != nil {
		onProgress(engine.Progress{Percentage: 50, Operation: "installing packages"})
	}
	return engine.VersionInfo{Interpreter: "3.12.4", Package: "0.1.29"}, nil
}

func (f *fakeEngine) AnalyzeFiles(_ context.Context, files []engine.File, fields []string, _ func(engine.Progress)) ([]engine.AnalyzedAcquisition, error) {
	f.calls = append(f.calls, "analyzeFiles")
	f.analyzedFiles = files
	f.analyzedFields = fields
	return f.analyzed, nil
}

func (f *fakeEngine) LoadProtocolFile(_ context.Context, name string, _ []byte, fileType string, _ func(engine.Progress)) ([]engine.AnalyzedAcquisition, error) {
	f.calls = append(f.calls, "loadProtocolFile:"+fileType)
	return f.perProtocol[name], nil
}

func dicomBytes(payload string) []byte {
	content := make([]byte, 132+len(payload))
	copy(content[128:], "DICM")
	copy(content[132:], payload)
	return content
}

func TestProcessRoutesBatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "slice001.dcm"), dicomBytes("one"))
	writeFile(t, filepath.Join(dir, "slice002.dcm"), dicomBytes("two"))
	writeFile(t, filepath.Join(dir, "head_t1.pro"), []byte("protocol"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("skip me"))

	eng := &fakeEngine{
		analyzed: []engine.AnalyzedAcquisition{{ProtocolName: "t2_flair"}},
		perProtocol: map[string][]engine.AnalyzedAcquisition{
			"head_t1.pro": {{ProtocolName: "t1_mprage"}},
		},
	}
	pipeline := New(eng, Options{}, nil)

	var lastPercent float64
	result, err := pipeline.Process(context.Background(), []string{dir}, ProcessOptions{
		OnProgress: func(percent float64, _ string) {
			if percent < lastPercent {
				t.Errorf("progress went backwards: %v after %v", percent, lastPercent)
			}
			lastPercent = percent
		},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(result.Acquisitions) != 2 {
		t.Fatalf("acquisitions = %d, want 2", len(result.Acquisitions))
	}
	if result.SkippedFiles != 1 {
		t.Errorf("skipped = %d, want 1 (notes.txt)", result.SkippedFiles)
	}
	if len(eng.analyzedFiles) != 2 {
		t.Errorf("DICOM batch size = %d, want one call with 2 files", len(eng.analyzedFiles))
	}
	if lastPercent != 100 {
		t.Errorf("final progress = %v", lastPercent)
	}

	// Bytes are read and the gate evaluated before the engine starts.
	if len(eng.calls) == 0 || eng.calls[0] != "initialize" {
		t.Fatalf("calls = %v, want initialize first", eng.calls)
	}
	for _, call := range eng.calls[1:] {
		if call == "initialize" {
			t.Errorf("initialize dispatched twice: %v", eng.calls)
		}
	}
}

func TestProcessFieldSelection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "slice001.dcm"), dicomBytes("one"))

	eng := &fakeEngine{analyzed: []engine.AnalyzedAcquisition{{ProtocolName: "t1_mprage"}}}
	pipeline := New(eng, Options{}, nil)

	// No explicit selection: the curated default list goes to the engine.
	if _, err := pipeline.Process(context.Background(), []string{dir}, ProcessOptions{}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !reflect.DeepEqual(eng.analyzedFields, DefaultDICOMFields) {
		t.Fatalf("fields = %d entries, want the default selection (%d)", len(eng.analyzedFields), len(DefaultDICOMFields))
	}

	// An explicit selection passes through untouched.
	custom := []string{"EchoTime", "RepetitionTime"}
	if _, err := pipeline.Process(context.Background(), []string{dir}, ProcessOptions{Fields: custom}); err != nil {
		t.Fatalf("Process with fields: %v", err)
	}
	if !reflect.DeepEqual(eng.analyzedFields, custom) {
		t.Errorf("fields = %v, want %v", eng.analyzedFields, custom)
	}
}

func TestProcessSizeGate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "big.dcm"), dicomBytes(string(make([]byte, 4096))))

	eng := &fakeEngine{analyzed: []engine.AnalyzedAcquisition{{ProtocolName: "t1_mprage"}}}
	pipeline := New(eng, Options{SizeLimitBytes: 1024}, nil)

	_, err := pipeline.Process(context.Background(), []string{dir}, ProcessOptions{})
	var sizeErr *SizeLimitError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("err = %v, want SizeLimitError", err)
	}
	if !sizeErr.Check.ExceedsLimit || sizeErr.Check.FileCount != 1 {
		t.Errorf("check = %+v", sizeErr.Check)
	}
	if len(eng.calls) != 0 {
		t.Fatalf("engine invoked despite tripped gate: %v", eng.calls)
	}

	// The override proceeds and produces acquisitions.
	result, err := pipeline.Process(context.Background(), []string{dir}, ProcessOptions{SkipSizeCheck: true})
	if err != nil {
		t.Fatalf("forced Process: %v", err)
	}
	if len(result.Acquisitions) != 1 {
		t.Errorf("acquisitions = %d, want 1", len(result.Acquisitions))
	}
}

func TestProcessMultiProtocolArchive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "exam.exar1"), []byte("vendor archive"))

	eng := &fakeEngine{
		perProtocol: map[string][]engine.AnalyzedAcquisition{
			"exam.exar1": {
				{ProtocolName: "t1_mprage"},
				{ProtocolName: "t2_flair"},
				{ProtocolName: "dwi"},
			},
		},
	}
	pipeline := New(eng, Options{}, nil)

	result, err := pipeline.Process(context.Background(), []string{filepath.Join(dir, "exam.exar1")}, ProcessOptions{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(result.Acquisitions) != 3 {
		t.Fatalf("acquisitions = %d, want 3 from one archive", len(result.Acquisitions))
	}
	ids := map[string]struct{}{}
	for _, acq := range result.Acquisitions {
		if acq.ID == "" {
			t.Error("acquisition missing id")
		}
		ids[acq.ID] = struct{}{}
	}
	if len(ids) != 3 {
		t.Errorf("acquisition ids not unique: %v", ids)
	}
}

func TestProcessNoRecognizedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "readme.md"), []byte("docs"))

	eng := &fakeEngine{}
	pipeline := New(eng, Options{}, nil)
	_, err := pipeline.Process(context.Background(), []string{dir}, ProcessOptions{})
	if !errors.Is(err, ErrNoRecognizedFiles) {
		t.Fatalf("err = %v, want ErrNoRecognizedFiles", err)
	}
	if len(eng.calls) != 0 {
		t.Errorf("engine invoked for unrecognized upload: %v", eng.calls)
	}
}

func TestProcessMissingPath(t *testing.T) {
	pipeline := New(&fakeEngine{}, Options{}, nil)
	_, err := pipeline.Process(context.Background(), []string{filepath.Join(t.TempDir(), "gone")}, ProcessOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestProcessScriptedEngineFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "slice001.dcm"), dicomBytes("one"))

	eng := testsupport.NewScriptedEngine()
	eng.InitializeErr = errors.New("package install failed")
	pipeline := New(eng, Options{}, nil)
	if _, err := pipeline.Process(context.Background(), []string{dir}, ProcessOptions{}); err == nil {
		t.Fatal("initialize failure not propagated")
	}
	if calls := eng.Calls(); len(calls) != 1 || calls[0] != "initialize" {
		t.Fatalf("calls = %v, want just the failed initialize", calls)
	}

	eng = testsupport.NewScriptedEngine()
	eng.AnalyzeErr = errors.New("decode blew up")
	pipeline = New(eng, Options{}, nil)
	if _, err := pipeline.Process(context.Background(), []string{dir}, ProcessOptions{}); err == nil {
		t.Fatal("analyze failure not propagated")
	}
	if calls := eng.Calls(); len(calls) != 2 || calls[1] != "analyzeFiles" {
		t.Fatalf("calls = %v, want initialize then analyzeFiles", calls)
	}
}
