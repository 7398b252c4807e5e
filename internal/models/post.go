package models

// Medium is the artwork category a post belongs to.
type Medium string

const (
	MediumAudio     Medium = "audio"
	MediumDrawing   Medium = "drawing"
	MediumSculpture Medium = "sculpture"
	MediumWriting   Medium = "writing"
)

// Mediums lists every valid medium, in the order the legacy layout stores them.
var Mediums = []Medium{MediumAudio, MediumDrawing, MediumSculpture, MediumWriting}

// IsValid reports whether m is a known medium.
func (m Medium) IsValid() bool {
	switch m {
	case MediumAudio, MediumDrawing, MediumSculpture, MediumWriting:
		return true
	}
	return false
}

// Post is a single artwork record as stored in the document store.
// The stored shape is schemaless; JSON tags match the field names used by the
// live database, including the legacy score aliases. ID is the storage key and
// is injected on read, never persisted inside the document.
type Post struct {
	ID      string   `json:"id,omitempty"`
	Title   string   `json:"title,omitempty"`
	Content string   `json:"content,omitempty"`
	Medium  Medium   `json:"medium,omitempty"`
	Tags    []string `json:"tags,omitempty"`

	// Artwork creation date, distinct from the import timestamp.
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`

	// Import/creation instant. RecordCreationDate is the older field name and
	// substitutes for Timestamp when the latter is absent.
	Timestamp          float64 `json:"timestamp,omitempty"`
	RecordCreationDate float64 `json:"recordCreationDate,omitempty"`
	UpdatedAt          float64 `json:"updated_at,omitempty"`

	// Scores are 1..5, 0 meaning unset. Evaluation/Rating are legacy aliases
	// from the per-medium layout.
	EvaluationNum int `json:"evaluationNum,omitempty"`
	Evaluation    int `json:"evaluation,omitempty"`
	RatingNum     int `json:"ratingNum,omitempty"`
	Rating        int `json:"rating,omitempty"`

	Subtype     string `json:"subtype,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`

	AuthorID string `json:"author_id,omitempty"`
	Source   string `json:"source,omitempty"`
}

// SortTimestamp returns the effective chronological instant of the post:
// the explicit timestamp when present, falling back to recordCreationDate,
// then to a composite derived from the artwork date (missing month and day
// default to 1).
func (p Post) SortTimestamp() float64 {
	if p.Timestamp != 0 {
		return p.Timestamp
	}
	if p.RecordCreationDate != 0 {
		return p.RecordCreationDate
	}
	month := p.Month
	if month == 0 {
		month = 1
	}
	day := p.Day
	if day == 0 {
		day = 1
	}
	return float64(p.Year*10000 + month*100 + day)
}
