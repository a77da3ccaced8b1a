package standardize

import "aquanexa/internal/ingest"

// Record is one canonical observation produced from a raw payload. It is
// transient: records exist only to be folded into aggregates and are never
// persisted directly. Exactly one category slot is populated, selected by
// Category; other/unknown categories carry their columns in Extra.
type Record struct {
	Location string
	Date     string // YYYY-MM-DD
	Time     string // HH:MM
	Category ingest.Category

	Fish    *FishSample
	Ocean   *OceanReading
	Otolith *OtolithFeatures
	EDNA    *EDNASample
	Extra   map[string]string
}

// FishSample holds one observed individual or catch count.
type FishSample struct {
	Species   string   `json:"species"`
	LengthCM  *float64 `json:"length_cm"`
	WeightG   *float64 `json:"weight_g"`
	Abundance *float64 `json:"abundance"`
	Age       *float64 `json:"age"`
	Notes     string   `json:"notes"`
}

// OceanReading holds one set of water-quality measurements.
type OceanReading struct {
	Temperature     *float64 `json:"temperature"`
	Salinity        *float64 `json:"salinity"`
	DissolvedOxygen *float64 `json:"dissolved_oxygen"`
	PH              *float64 `json:"pH"`
	DepthM          *float64 `json:"depth_m"`
	Turbidity       *float64 `json:"turbidity"`
	Notes           string   `json:"notes"`
}

// OtolithFeatures relays morphometrics derived upstream from an otolith image.
type OtolithFeatures struct {
	ImageFile   string   `json:"image_file"`
	Circularity *float64 `json:"circularity"`
	Area        *float64 `json:"area"`
	Perimeter   *float64 `json:"perimeter"`
	AspectRatio *float64 `json:"aspect_ratio"`
	Volume      *float64 `json:"volume"`
	Notes       string   `json:"notes"`
}

// EDNASample holds one environmental-DNA match.
type EDNASample struct {
	SequenceID     string `json:"sequence_id"`
	MatchedSpecies string `json:"matched_species"`
	Notes          string `json:"notes"`
}

// Result carries the standardized records plus processing notes for a file.
type Result struct {
	Records   []Record
	Notes     []string
	InputRows int
	Skipped   int
}
