package sdktrace

import (
	"fmt"
	"strings"
)

// SchemaVersion is the newest trace-file schema this adapter understands.
// Older and newer versions still parse; a version mismatch only produces a
// warning because the SDK adds fields without renaming existing ones.
const SchemaVersion = "1.2"

// File is the on-disk shape produced by the on-device SDK. All payloads are
// pre-sanitized: no raw protocol events, no GPU or paint data.
type File struct {
	Version    string       `json:"version"`
	TraceID    string       `json:"traceId"`
	Name       string       `json:"name"`
	DurationMs float64      `json:"durationMs"`
	Frames     []FileFrame  `json:"frames"`
	LongTasks  []FileTask   `json:"longTasks"`
	DOMSignals []FileSignal `json:"domSignals,omitempty"`
	Metadata   FileMetadata `json:"metadata"`
}

// FileFrame is one frame record in the file.
type FileFrame struct {
	ID         int     `json:"id"`
	StartUs    int64   `json:"startUs"`
	EndUs      int64   `json:"endUs"`
	DurationMs float64 `json:"durationMs"`
	Dropped    bool    `json:"dropped"`
}

// FileTask is one long-task record in the file.
type FileTask struct {
	StartUs      int64    `json:"startUs"`
	DurationMs   float64  `json:"durationMs"`
	FunctionName string   `json:"functionName,omitempty"`
	File         string   `json:"file,omitempty"`
	Line         int      `json:"line,omitempty"`
	Column       int      `json:"column,omitempty"`
	Stack        []string `json:"stack,omitempty"`
	FrameID      *int     `json:"frameId,omitempty"`
}

// FileSignal is one DOM signal record in the file.
type FileSignal struct {
	Type       string   `json:"type"`
	StartUs    int64    `json:"startUs"`
	DurationMs float64  `json:"durationMs"`
	Selector   string   `json:"selector,omitempty"`
	NodeCount  int      `json:"nodeCount,omitempty"`
	Stack      []string `json:"stack,omitempty"`
}

// FileMetadata carries collection context. Timestamp and FpsTarget are
// required; everything else is optional.
type FileMetadata struct {
	Timestamp string `json:"timestamp"`
	FpsTarget int    `json:"fpsTarget"`
	Platform  string `json:"platform,omitempty"`
	Browser   string `json:"browser,omitempty"`
	OS        string `json:"os,omitempty"`
	URL       string `json:"url,omitempty"`
	ViewportW int    `json:"viewportW,omitempty"`
	ViewportH int    `json:"viewportH,omitempty"`
}

// FieldError reports a validation failure at a specific JSON path.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates every field-level problem in one file so callers
// can report them all at once instead of fixing one at a time.
type ValidationError struct {
	Path   string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("invalid trace file %s: %s", e.Path, strings.Join(msgs, "; "))
}

// Validate checks the file for structural problems and returns every field
// error found. Warnings (currently only a schema-version mismatch) are
// non-fatal and returned separately.
func (f *File) Validate() (warnings []string, errs []FieldError) {
	if f.Version == "" {
		errs = append(errs, FieldError{Field: "version", Message: "required"})
	} else if f.Version != SchemaVersion {
		warnings = append(warnings, fmt.Sprintf("schema version %q differs from supported %q, parsing best-effort", f.Version, SchemaVersion))
	}
	if f.TraceID == "" {
		errs = append(errs, FieldError{Field: "traceId", Message: "required"})
	}
	if f.DurationMs < 0 {
		errs = append(errs, FieldError{Field: "durationMs", Message: "must not be negative"})
	}
	if f.Metadata.Timestamp == "" {
		errs = append(errs, FieldError{Field: "metadata.timestamp", Message: "required"})
	}
	if f.Metadata.FpsTarget <= 0 {
		errs = append(errs, FieldError{Field: "metadata.fpsTarget", Message: "required and must be positive"})
	}
	for i, fr := range f.Frames {
		if fr.EndUs < fr.StartUs {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("frames[%d]", i),
				Message: "endUs precedes startUs",
			})
		}
		if fr.DurationMs < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("frames[%d].durationMs", i),
				Message: "must not be negative",
			})
		}
	}
	for i, lt := range f.LongTasks {
		if lt.DurationMs < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("longTasks[%d].durationMs", i),
				Message: "must not be negative",
			})
		}
	}
	for i, s := range f.DOMSignals {
		if s.Type == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("domSignals[%d].type", i),
				Message: "required",
			})
		}
	}
	return warnings, errs
}
