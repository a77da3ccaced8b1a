package extract

// Kind classifies the shape of an extracted payload.
type Kind string

const (
	// KindTabular carries headers and rows (CSV, Excel, flattened JSON).
	KindTabular Kind = "tabular"
	// KindArtifact carries a single artifact such as an otolith image.
	KindArtifact Kind = "artifact"
)

// Payload is the raw extraction result handed to the standardizer. It lives
// only for the duration of one file's pipeline run and is never persisted.
type Payload struct {
	Kind     Kind
	Headers  []string
	Rows     []map[string]string
	Artifact *Artifact
}

// Artifact describes a single extracted artifact and its upstream-derived
// measurements.
type Artifact struct {
	Filename string
	Width    int
	Height   int
	Format   string
	Features Morphometrics
}

// Morphometrics holds shape measurements for an otolith image. Nil fields
// mean the measurement could not be derived.
type Morphometrics struct {
	Circularity *float64
	Area        *float64
	Perimeter   *float64
	AspectRatio *float64
	Volume      *float64
}

// RowCount reports the number of logical records in the payload.
func (p *Payload) RowCount() int {
	if p == nil {
		return 0
	}
	switch p.Kind {
	case KindTabular:
		return len(p.Rows)
	case KindArtifact:
		if p.Artifact != nil {
			return 1
		}
	}
	return 0
}
