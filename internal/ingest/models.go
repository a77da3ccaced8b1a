package ingest

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a catalog file.
type Status string

const (
	StatusPending       Status = "pending"
	StatusExtracting    Status = "extracting"
	StatusStandardizing Status = "standardizing"
	StatusUnifying      Status = "unifying"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusExtracting,
	StatusStandardizing,
	StatusUnifying,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusExtracting:    {},
	StatusStandardizing: {},
	StatusUnifying:      {},
}

// Category identifies the kind of scientific data a file carries. Unknown
// categories are accepted and treated as CategoryOther.
type Category string

const (
	CategoryFish    Category = "fish_data"
	CategoryOcean   Category = "ocean_data"
	CategoryOtolith Category = "otolith_image"
	CategoryEDNA    Category = "eDNA_data"
	CategoryOther   Category = "other"
)

var knownCategories = map[Category]struct{}{
	CategoryFish:    {},
	CategoryOcean:   {},
	CategoryOtolith: {},
	CategoryEDNA:    {},
	CategoryOther:   {},
}

// ParseCategory normalizes a category string. Unrecognized values map to
// CategoryOther so arbitrary research data can still flow through the
// generic standardization path.
func ParseCategory(value string) Category {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return CategoryOther
	}
	for cat := range knownCategories {
		if strings.EqualFold(trimmed, string(cat)) {
			return cat
		}
	}
	return CategoryOther
}

// FileType identifies the physical format of an uploaded file.
type FileType string

const (
	FileTypeCSV   FileType = "csv"
	FileTypeExcel FileType = "excel"
	FileTypeJSON  FileType = "json"
	FileTypeImage FileType = "image"
	FileTypeOther FileType = "other"
)

// QualityMetrics scores an ingested file after standardization. Values are
// percentages in [0, 100].
type QualityMetrics struct {
	Completeness int `json:"completeness"`
	Accuracy     int `json:"accuracy"`
	Consistency  int `json:"consistency"`
	Validity     int `json:"validity"`
	Timeliness   int `json:"timeliness"`
}

// DataFile represents an uploaded file tracked by the catalog.
type DataFile struct {
	ID           string
	OriginalName string
	StoredPath   string
	FileType     FileType
	Category     Category
	SizeBytes    int64
	Status       Status
	ErrorMessage string
	RecordCount  int
	SkippedRows  int
	Notes        []string
	Quality      *QualityMetrics
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight stage.
func (f DataFile) IsProcessing() bool {
	_, ok := processingStatuses[f.Status]
	return ok
}

// SetFailed marks the file as failed with the given error message.
func (f *DataFile) SetFailed(message string) {
	f.Status = StatusFailed
	f.ErrorMessage = message
}

// HealthSummary describes aggregated catalog counts per key lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}
