package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"aquanexa/internal/config"
	"aquanexa/internal/ingest"
	"aquanexa/internal/services"
)

// Adapter extracts a raw payload from a file of one physical format.
type Adapter interface {
	Extract(ctx context.Context, path string) (*Payload, error)
}

// ForType returns the adapter for a detected file type. Unsupported types are
// a format-level failure for that file only.
func ForType(fileType ingest.FileType) (Adapter, error) {
	switch fileType {
	case ingest.FileTypeCSV:
		return csvAdapter{}, nil
	case ingest.FileTypeExcel:
		return excelAdapter{}, nil
	case ingest.FileTypeJSON:
		return jsonAdapter{}, nil
	case ingest.FileTypeImage:
		return imageAdapter{}, nil
	default:
		return nil, services.Wrap(services.ErrFormat, "extract", "dispatch", fmt.Sprintf("unsupported file type %q", fileType), nil)
	}
}

// DetectType infers the physical file format from a file name.
func DetectType(name string) ingest.FileType {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "csv":
		return ingest.FileTypeCSV
	case "xlsx", "xls":
		return ingest.FileTypeExcel
	case "json":
		return ingest.FileTypeJSON
	case "jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp":
		return ingest.FileTypeImage
	default:
		return ingest.FileTypeOther
	}
}

// MaxBytes returns the configured upload size cap for a file type.
func MaxBytes(cfg *config.Config, fileType ingest.FileType) int64 {
	const mib = int64(1) << 20
	if cfg == nil {
		return 100 * mib
	}
	switch fileType {
	case ingest.FileTypeCSV:
		return int64(cfg.Limits.MaxCSVMiB) * mib
	case ingest.FileTypeExcel:
		return int64(cfg.Limits.MaxExcelMiB) * mib
	case ingest.FileTypeJSON:
		return int64(cfg.Limits.MaxJSONMiB) * mib
	case ingest.FileTypeImage:
		return int64(cfg.Limits.MaxImageMiB) * mib
	default:
		return 100 * mib
	}
}
