package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dicomschema/internal/engine"
	"dicomschema/internal/logging"
	"dicomschema/internal/schema"
)

// Engine is the slice of the analysis bridge the pipeline drives.
type Engine interface {
	Initialize(ctx context.Context, onProgress func(engine.Progress)) (engine.VersionInfo, error)
	AnalyzeFiles(ctx context.Context, files []engine.File, fields []string, onProgress func(engine.Progress)) ([]engine.AnalyzedAcquisition, error)
	LoadProtocolFile(ctx context.Context, name string, content []byte, fileType string, onProgress func(engine.Progress)) ([]engine.AnalyzedAcquisition, error)
}

// Options configure a pipeline.
type Options struct {
	// SizeLimitBytes is the soft aggregate gate; zero means the default.
	SizeLimitBytes int64
	// ReadConcurrency bounds parallel file reads; zero means the default.
	ReadConcurrency int
}

// ProcessOptions configure one Process run.
type ProcessOptions struct {
	// SkipSizeCheck proceeds past the soft size gate.
	SkipSizeCheck bool
	// Fields selects the DICOM header fields to extract during analysis;
	// empty means DefaultDICOMFields.
	Fields []string
	// OnProgress receives overall progress in percent with a short message.
	OnProgress func(percent float64, message string)
}

// Result is the outcome of one ingestion run.
type Result struct {
	Acquisitions []schema.Acquisition
	FileCount    int
	TotalBytes   int64
	// SkippedFiles counts files that were neither DICOM-like nor a
	// recognized protocol format.
	SkippedFiles int
}

// ErrNoRecognizedFiles is returned when an upload contains nothing the
// pipeline can route to the engine.
var ErrNoRecognizedFiles = errors.New("no DICOM or protocol files found")

// Pipeline turns dropped files and directories into acquisitions. Every byte
// is read into memory before the engine is initialized; the size gate runs
// between the two.
type Pipeline struct {
	engine          Engine
	logger          *slog.Logger
	sizeLimit       int64
	readConcurrency int
}

// New builds a pipeline over the given engine.
func New(eng Engine, opts Options, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		engine:          eng,
		logger:          logging.NewComponentLogger(logger, "ingest"),
		sizeLimit:       opts.SizeLimitBytes,
		readConcurrency: opts.ReadConcurrency,
	}
}

// Overall progress bands: reading and filtering files fills 0-30, engine
// initialization 30-60, analysis 60-100.
const (
	readBandEnd = 30.0
	initBandEnd = 60.0
)

// Process ingests the given paths. Order is fixed: read all bytes, apply the
// size gate (unless skipped), initialize the engine, then route protocol
// files one by one and the DICOM batch as a single call.
func (p *Pipeline) Process(ctx context.Context, paths []string, opts ProcessOptions) (Result, error) {
	report := func(percent float64, message string) {
		if opts.OnProgress != nil {
			opts.OnProgress(percent, message)
		}
	}

	files, err := Collect(ctx, paths, p.readConcurrency, func(done, total int) {
		report(readBandEnd*float64(done)/float64(total), fmt.Sprintf("reading files (%d/%d)", done, total))
	})
	if err != nil {
		return Result{}, err
	}

	check := CheckSizeLimit(files, p.sizeLimit)
	result := Result{FileCount: check.FileCount, TotalBytes: check.TotalBytes}
	if check.ExceedsLimit && !opts.SkipSizeCheck {
		return result, &SizeLimitError{Check: check}
	}

	var protocols []SourceFile
	var dicoms []engine.File
	for _, file := range files {
		if _, ok := ProtocolFileType(file.Name); ok {
			protocols = append(protocols, file)
			continue
		}
		if LooksLikeDICOM(file.Name, file.Content) {
			dicoms = append(dicoms, engine.File{Name: file.Name, Content: file.Content})
			continue
		}
		result.SkippedFiles++
		p.logger.Debug("skipping unrecognized file", logging.String(logging.FieldFileName, file.Name))
	}
	if len(protocols) == 0 && len(dicoms) == 0 {
		return result, ErrNoRecognizedFiles
	}

	report(readBandEnd, "starting analysis engine")
	if _, err := p.engine.Initialize(ctx, func(progress engine.Progress) {
		report(readBandEnd+(initBandEnd-readBandEnd)*progress.Percentage/100, progress.Operation)
	}); err != nil {
		return result, err
	}

	// Protocol files run sequentially, one engine call each; a vendor
	// archive may fan out into several acquisitions.
	analysisSteps := len(protocols)
	if len(dicoms) > 0 {
		analysisSteps++
	}
	step := 0
	stepBase := func() float64 {
		return initBandEnd + (100-initBandEnd)*float64(step)/float64(analysisSteps)
	}
	stepSpan := (100 - initBandEnd) / float64(analysisSteps)

	for _, protocol := range protocols {
		fileType, _ := ProtocolFileType(protocol.Name)
		report(stepBase(), fmt.Sprintf("loading protocol %s", protocol.Name))
		decoded, err := p.engine.LoadProtocolFile(ctx, protocol.Name, protocol.Content, fileType, func(progress engine.Progress) {
			report(stepBase()+stepSpan*progress.Percentage/100, progress.Operation)
		})
		if err != nil {
			return result, err
		}
		result.Acquisitions = append(result.Acquisitions, NormalizeAcquisitions(decoded)...)
		step++
	}

	if len(dicoms) > 0 {
		fields := opts.Fields
		if len(fields) == 0 {
			fields = DefaultDICOMFields
		}
		report(stepBase(), fmt.Sprintf("analyzing %d DICOM files", len(dicoms)))
		decoded, err := p.engine.AnalyzeFiles(ctx, dicoms, fields, func(progress engine.Progress) {
			report(stepBase()+stepSpan*progress.Percentage/100, progress.Operation)
		})
		if err != nil {
			return result, err
		}
		result.Acquisitions = append(result.Acquisitions, NormalizeAcquisitions(decoded)...)
		step++
	}

	report(100, "analysis complete")
	p.logger.Info("ingestion complete",
		logging.Int(logging.FieldFileCount, result.FileCount),
		logging.Int(logging.FieldAcquisition, len(result.Acquisitions)),
		logging.Int("skipped", result.SkippedFiles))
	return result, nil
}
