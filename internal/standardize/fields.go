package standardize

import "strings"

// Candidate column names per semantic field, in priority order. Discovery is a
// case-insensitive substring match: the first header containing any candidate,
// in candidate-list order, wins.
var (
	locationCandidates = []string{"location", "site", "station", "place"}
	dateCandidates     = []string{"date", "sampling_date", "collection_date"}
	timeCandidates     = []string{"time", "sampling_time", "collection_time"}

	speciesCandidates   = []string{"species", "fish_species", "scientific_name"}
	lengthCandidates    = []string{"length", "length_cm", "size"}
	weightCandidates    = []string{"weight", "weight_g", "mass"}
	abundanceCandidates = []string{"abundance", "count", "number"}
	ageCandidates       = []string{"age", "age_years"}
	notesCandidates     = []string{"notes", "comments", "remarks"}

	temperatureCandidates = []string{"temperature", "temp", "water_temp"}
	salinityCandidates    = []string{"salinity", "sal", "ppt"}
	oxygenCandidates      = []string{"dissolved_oxygen", "do", "oxygen"}
	phCandidates          = []string{"ph", "acidity"}
	depthCandidates       = []string{"depth", "depth_m", "water_depth"}
	turbidityCandidates   = []string{"turbidity", "turb", "ntu"}

	sequenceCandidates       = []string{"sequence_id", "seq_id", "dna_id"}
	matchedSpeciesCandidates = []string{"matched_species", "species_match", "identified_species"}

	imageFileCandidates = []string{"image_file", "image", "filename"}
	circularityCands    = []string{"circularity"}
	areaCandidates      = []string{"area"}
	perimeterCandidates = []string{"perimeter"}
	aspectCandidates    = []string{"aspect_ratio", "aspect"}
	volumeCandidates    = []string{"volume"}
)

// findColumn locates the header backing a semantic field. It returns the
// matched header name and whether a match was found.
func findColumn(headers []string, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		for _, header := range headers {
			if strings.Contains(strings.ToLower(header), candidate) {
				return header, true
			}
		}
	}
	return "", false
}

// columnValue fetches a row value through candidate discovery, empty when no
// column matched.
func columnValue(row map[string]string, headers []string, candidates []string) string {
	header, ok := findColumn(headers, candidates)
	if !ok {
		return ""
	}
	return row[header]
}

func extractFish(row map[string]string, headers []string) *FishSample {
	return &FishSample{
		Species:   strings.TrimSpace(columnValue(row, headers, speciesCandidates)),
		LengthCM:  ParseNumber(columnValue(row, headers, lengthCandidates)),
		WeightG:   ParseNumber(columnValue(row, headers, weightCandidates)),
		Abundance: ParseNumber(columnValue(row, headers, abundanceCandidates)),
		Age:       ParseNumber(columnValue(row, headers, ageCandidates)),
		Notes:     strings.TrimSpace(columnValue(row, headers, notesCandidates)),
	}
}

func extractOcean(row map[string]string, headers []string) *OceanReading {
	return &OceanReading{
		Temperature:     ParseNumber(columnValue(row, headers, temperatureCandidates)),
		Salinity:        ParseNumber(columnValue(row, headers, salinityCandidates)),
		DissolvedOxygen: ParseNumber(columnValue(row, headers, oxygenCandidates)),
		PH:              ParseNumber(columnValue(row, headers, phCandidates)),
		DepthM:          ParseNumber(columnValue(row, headers, depthCandidates)),
		Turbidity:       ParseNumber(columnValue(row, headers, turbidityCandidates)),
		Notes:           strings.TrimSpace(columnValue(row, headers, notesCandidates)),
	}
}

func extractEDNA(row map[string]string, headers []string) *EDNASample {
	return &EDNASample{
		SequenceID:     strings.TrimSpace(columnValue(row, headers, sequenceCandidates)),
		MatchedSpecies: strings.TrimSpace(columnValue(row, headers, matchedSpeciesCandidates)),
		Notes:          strings.TrimSpace(columnValue(row, headers, notesCandidates)),
	}
}

// extractOtolithRow handles otolith measurements arriving in tabular form
// (feature tables exported by an external extractor).
func extractOtolithRow(row map[string]string, headers []string) *OtolithFeatures {
	return &OtolithFeatures{
		ImageFile:   strings.TrimSpace(columnValue(row, headers, imageFileCandidates)),
		Circularity: ParseNumber(columnValue(row, headers, circularityCands)),
		Area:        ParseNumber(columnValue(row, headers, areaCandidates)),
		Perimeter:   ParseNumber(columnValue(row, headers, perimeterCandidates)),
		AspectRatio: ParseNumber(columnValue(row, headers, aspectCandidates)),
		Volume:      ParseNumber(columnValue(row, headers, volumeCandidates)),
		Notes:       strings.TrimSpace(columnValue(row, headers, notesCandidates)),
	}
}

// extractExtra copies every column except the identity fields verbatim, the
// generic fallback for other/unknown categories.
func extractExtra(row map[string]string, headers []string) map[string]string {
	extra := make(map[string]string, len(row))
	for _, header := range headers {
		switch strings.ToLower(header) {
		case "location", "date", "time":
			continue
		}
		if value, ok := row[header]; ok {
			extra[header] = value
		}
	}
	return extra
}
