package standardize

import (
	"fmt"
	"log/slog"
	"time"

	"aquanexa/internal/extract"
	"aquanexa/internal/ingest"
	"aquanexa/internal/logging"
	"aquanexa/internal/services"
)

// Standardizer converts raw payloads into canonical records.
type Standardizer struct {
	logger *slog.Logger

	// now supplies the processing clock used for single-artifact fallbacks.
	now func() time.Time
}

// New constructs a Standardizer. A nil logger is replaced with a no-op logger.
func New(logger *slog.Logger) *Standardizer {
	return &Standardizer{
		logger: logging.NewComponentLogger(logger, "standardizer"),
		now:    time.Now,
	}
}

// WithClock overrides the processing clock, used by tests to pin the
// single-artifact date/time fallback.
func (s *Standardizer) WithClock(now func() time.Time) *Standardizer {
	s.now = now
	return s
}

// Standardize converts a raw payload into canonical records. Malformed rows
// are skipped and counted, never fatal for the batch; only a payload whose
// shape contradicts the declared category yields an error.
func (s *Standardizer) Standardize(payload *extract.Payload, category ingest.Category) (*Result, error) {
	if payload == nil {
		return nil, services.Wrap(services.ErrValidation, "standardize", "input", "payload is nil", nil)
	}

	switch payload.Kind {
	case extract.KindTabular:
		return s.standardizeTabular(payload, category), nil
	case extract.KindArtifact:
		return s.standardizeArtifact(payload, category)
	default:
		return nil, services.Wrap(services.ErrFormat, "standardize", "input", fmt.Sprintf("unknown payload kind %q", payload.Kind), nil)
	}
}

func (s *Standardizer) standardizeTabular(payload *extract.Payload, category ingest.Category) *Result {
	result := &Result{InputRows: len(payload.Rows)}
	headers := payload.Headers

	locationCol, hasLocation := findColumn(headers, locationCandidates)
	dateCol, hasDate := findColumn(headers, dateCandidates)
	timeCol, hasTime := findColumn(headers, timeCandidates)

	if !hasDate || !hasTime {
		// Without resolvable identity columns every row drops; record why.
		result.Skipped = len(payload.Rows)
		result.Notes = append(result.Notes, "missing date or time column; all rows skipped")
		s.logger.Warn("payload lacks identity columns",
			logging.String(logging.FieldCategory, string(category)),
			logging.Bool("has_date", hasDate),
			logging.Bool("has_time", hasTime),
		)
		return result
	}

	for _, row := range payload.Rows {
		location := "Unknown"
		if hasLocation {
			location = NormalizeLocation(row[locationCol])
		}
		date, dateOK := NormalizeDate(row[dateCol])
		timeOfDay, timeOK := NormalizeTime(row[timeCol])
		if !dateOK || !timeOK {
			result.Skipped++
			continue
		}

		record := Record{
			Location: location,
			Date:     date,
			Time:     timeOfDay,
			Category: category,
		}
		switch category {
		case ingest.CategoryFish:
			record.Fish = extractFish(row, headers)
		case ingest.CategoryOcean:
			record.Ocean = extractOcean(row, headers)
		case ingest.CategoryEDNA:
			record.EDNA = extractEDNA(row, headers)
		case ingest.CategoryOtolith:
			record.Otolith = extractOtolithRow(row, headers)
		default:
			record.Extra = extractExtra(row, headers)
		}
		result.Records = append(result.Records, record)
	}

	result.Notes = append(result.Notes,
		fmt.Sprintf("standardized %d records from %d input rows", len(result.Records), result.InputRows))
	if result.Skipped > 0 {
		result.Notes = append(result.Notes,
			fmt.Sprintf("skipped %d rows with unresolvable date or time", result.Skipped))
	}
	return result
}

// standardizeArtifact handles one-record payloads such as otolith images.
// Images carry no sampling metadata, so location defaults to Unknown and
// date/time come from the processing clock; the synthetic identity is noted
// because it can cluster unrelated same-minute uploads.
func (s *Standardizer) standardizeArtifact(payload *extract.Payload, category ingest.Category) (*Result, error) {
	if category != ingest.CategoryOtolith {
		return nil, services.Wrap(services.ErrValidation, "standardize", "artifact",
			fmt.Sprintf("single-artifact payloads require category %s, got %s", ingest.CategoryOtolith, category), nil)
	}
	artifact := payload.Artifact
	if artifact == nil {
		return nil, services.Wrap(services.ErrValidation, "standardize", "artifact", "artifact payload is empty", nil)
	}

	now := s.now().UTC()
	record := Record{
		Location: "Unknown",
		Date:     now.Format("2006-01-02"),
		Time:     now.Format("15:04"),
		Category: category,
		Otolith: &OtolithFeatures{
			ImageFile:   artifact.Filename,
			Circularity: artifact.Features.Circularity,
			Area:        artifact.Features.Area,
			Perimeter:   artifact.Features.Perimeter,
			AspectRatio: artifact.Features.AspectRatio,
			Volume:      artifact.Features.Volume,
		},
	}

	return &Result{
		Records:   []Record{record},
		InputRows: 1,
		Notes: []string{
			"extracted morphometric features from otolith image",
			"image carries no sampling metadata; identity defaulted to Unknown location and processing timestamp",
		},
	}, nil
}

// QualityMetrics scores a standardization result the way the upstream system
// did: completeness from the standardized/input ratio, fixed baselines for the
// rest of the dimensions.
func QualityMetrics(result *Result) *ingest.QualityMetrics {
	if result == nil {
		return nil
	}
	completeness := 100
	if result.InputRows > 0 {
		completeness = len(result.Records) * 100 / result.InputRows
	}
	return &ingest.QualityMetrics{
		Completeness: completeness,
		Accuracy:     95,
		Consistency:  90,
		Validity:     95,
		Timeliness:   100,
	}
}
