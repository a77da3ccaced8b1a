package unify

import (
	"strings"
	"time"

	"aquanexa/internal/standardize"
)

// MetadataRef records one contributing source file on an aggregate. Refs are
// deduplicated by SourceFileID so reprocessing a file never duplicates lineage.
type MetadataRef struct {
	SourceFileID   string `json:"source_file_id"`
	SourceFileName string `json:"source_file_name"`
	Category       string `json:"category"`
}

// FishEntry is one fish observation folded into an aggregate. Fish entries are
// append-only: every standardized record becomes a new entry.
type FishEntry struct {
	standardize.FishSample
	SourceFileID string `json:"source_file_id"`
}

// OceanSnapshot is the current water-quality reading for an event, overwritten
// by each merge so consumers get "the" reading without scanning history.
type OceanSnapshot struct {
	standardize.OceanReading
	LastUpdated  time.Time `json:"last_updated"`
	SourceFileID string    `json:"source_file_id"`
}

// OceanObservation is one historical water-quality reading. The history array
// keeps every reading the snapshot overwrites.
type OceanObservation struct {
	standardize.OceanReading
	ObservedAt   time.Time `json:"observed_at"`
	SourceFileID string    `json:"source_file_id"`
}

// OtolithEntry is one set of otolith morphometrics, append-only.
type OtolithEntry struct {
	standardize.OtolithFeatures
	SourceFileID string `json:"source_file_id"`
}

// EDNAEntry is one environmental-DNA match, append-only.
type EDNAEntry struct {
	standardize.EDNASample
	SourceFileID string `json:"source_file_id"`
}

// GenericEntry preserves rows from categories without a dedicated slot so
// unrecognized data survives unification instead of being dropped.
type GenericEntry struct {
	Category     string            `json:"category"`
	Fields       map[string]string `json:"fields"`
	SourceFileID string            `json:"source_file_id"`
}

// Aggregate is the unified record for one sampling event, keyed by the
// composite of normalized location, date, and time.
type Aggregate struct {
	ID           string `json:"id"`
	CompositeKey string `json:"composite_key"`
	Location     string `json:"location"`
	Date         string `json:"date"`
	Time         string `json:"time"`

	Fish              []FishEntry        `json:"fish,omitempty"`
	Ocean             *OceanSnapshot     `json:"ocean,omitempty"`
	OceanObservations []OceanObservation `json:"ocean_observations,omitempty"`
	Otoliths          []OtolithEntry     `json:"otoliths,omitempty"`
	EDNA              []EDNAEntry        `json:"edna,omitempty"`
	Extras            []GenericEntry     `json:"extras,omitempty"`

	MetadataRefs []MetadataRef `json:"metadata_refs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompositeKeyFor builds the aggregate identity key from normalized
// identity fields.
func CompositeKeyFor(location, date, timeOfDay string) string {
	return location + "_" + date + "_" + timeOfDay
}

// SpeciesList returns the distinct fish species in first-seen order.
func (a *Aggregate) SpeciesList() []string {
	seen := make(map[string]struct{}, len(a.Fish))
	var species []string
	for _, entry := range a.Fish {
		name := strings.TrimSpace(entry.Species)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		species = append(species, name)
	}
	return species
}

// TotalFishIndividuals sums abundance across fish entries; an entry without an
// abundance value counts as one individual.
func (a *Aggregate) TotalFishIndividuals() float64 {
	var total float64
	for _, entry := range a.Fish {
		if entry.Abundance != nil {
			total += *entry.Abundance
		} else {
			total++
		}
	}
	return total
}

// ContributingFiles returns the original names of every source file that fed
// this aggregate, in merge order.
func (a *Aggregate) ContributingFiles() []string {
	names := make([]string, 0, len(a.MetadataRefs))
	for _, ref := range a.MetadataRefs {
		names = append(names, ref.SourceFileName)
	}
	return names
}

// HasSpecies reports whether any fish entry's species contains the needle,
// case-insensitively.
func (a *Aggregate) HasSpecies(needle string) bool {
	lowered := strings.ToLower(needle)
	for _, entry := range a.Fish {
		if strings.Contains(strings.ToLower(entry.Species), lowered) {
			return true
		}
	}
	return false
}
