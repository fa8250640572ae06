package ingest

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Protocol file types routed to the engine's protocol loader instead of the
// DICOM analyzer. Archive formats (exar1, examcard, lxprotocol) may yield
// multiple acquisitions per file.
const (
	FileTypePro        = "pro"
	FileTypeExar1      = "exar1"
	FileTypeExamCard   = "examcard"
	FileTypeLxProtocol = "lxprotocol"
)

var dicomMagic = []byte("DICM")

// ProtocolFileType classifies a file name as a vendor protocol format:
// .pro, .exar1, .ExamCard/.examcard, or the extensionless LxProtocol name.
func ProtocolFileType(name string) (string, bool) {
	base := filepath.Base(name)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".pro":
		return FileTypePro, true
	case ".exar1":
		return FileTypeExar1, true
	case ".examcard":
		return FileTypeExamCard, true
	}
	if strings.EqualFold(base, "lxprotocol") {
		return FileTypeLxProtocol, true
	}
	return "", false
}

// LooksLikeDICOM reports whether a file is plausibly a DICOM file: a known
// extension, or the DICM magic at byte offset 128 (the standard preamble).
func LooksLikeDICOM(name string, content []byte) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".dcm", ".dicom", ".ima":
		return true
	}
	return len(content) >= 132 && bytes.Equal(content[128:132], dicomMagic)
}
