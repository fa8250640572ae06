package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SourceFile is one file read fully into memory before any engine work
// starts.
type SourceFile struct {
	// Name is the base name presented to the engine.
	Name string
	// Path is the origin on disk, archive-qualified for zip entries.
	Path string
	// Content holds the complete file bytes.
	Content []byte
}

// Size returns the byte length of the file content.
func (f SourceFile) Size() int64 {
	return int64(len(f.Content))
}

const defaultReadConcurrency = 8

// Collect flattens the given paths (files and directories, recursively) into
// a list of fully read files, expanding zip archives in place. Reads run with
// bounded concurrency; onProgress, when non-nil, receives (done, total)
// counts as reads complete. All bytes are in memory when Collect returns.
func Collect(ctx context.Context, paths []string, concurrency int, onProgress func(done, total int)) ([]SourceFile, error) {
	if concurrency <= 0 {
		concurrency = defaultReadConcurrency
	}

	var flat []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			flat = append(flat, path)
			continue
		}
		err = filepath.WalkDir(path, func(entry string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") && entry != path {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				flat = append(flat, entry)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", path, err)
		}
	}

	files := make([]SourceFile, len(flat))
	var mu sync.Mutex
	done := 0
	total := len(flat)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for i, path := range flat {
		i, path := i, path
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			files[i] = SourceFile{Name: filepath.Base(path), Path: path, Content: content}
			if onProgress != nil {
				mu.Lock()
				done++
				current := done
				mu.Unlock()
				onProgress(current, total)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return expandArchives(files)
}

// expandArchives replaces zip files with their entries, read fully into
// memory. Nested archives are expanded one level deep per pass.
func expandArchives(files []SourceFile) ([]SourceFile, error) {
	out := make([]SourceFile, 0, len(files))
	for _, file := range files {
		if !strings.EqualFold(filepath.Ext(file.Name), ".zip") {
			out = append(out, file)
			continue
		}
		entries, err := readZip(file)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

func readZip(file SourceFile) ([]SourceFile, error) {
	reader, err := zip.NewReader(bytes.NewReader(file.Content), file.Size())
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", file.Path, err)
	}
	var entries []SourceFile
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() || strings.HasPrefix(filepath.Base(entry.Name), ".") {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in %s: %w", entry.Name, file.Path, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s in %s: %w", entry.Name, file.Path, err)
		}
		entries = append(entries, SourceFile{
			Name:    filepath.Base(entry.Name),
			Path:    file.Path + "!" + entry.Name,
			Content: content,
		})
	}
	return entries, nil
}
