package datastructure

import "time"

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

// RouteSummary is replaced wholesale on every successful route computation,
// never patched field by field.
type RouteSummary struct {
	DistanceText string `json:"distance_text"`
	DurationText string `json:"duration_text"`
}

type CaseStatus string

const (
	CaseOpen       CaseStatus = "open"
	CaseInProgress CaseStatus = "in_progress"
	CaseClosed     CaseStatus = "closed"
)

// Case is a reported animal-rescue case as the backend case service returns it.
type Case struct {
	ID          string     `json:"id"`
	Animal      string     `json:"animal"`
	Severity    int        `json:"severity"`
	Description string     `json:"description"`
	ImageKey    string     `json:"image_key"`
	ImageURL    string     `json:"image_url,omitempty"`
	Status      CaseStatus `json:"status"`
	Location    Coordinate `json:"location"`
	ReportedAt  time.Time  `json:"reported_at"`
}

type NGO struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Phone    string     `json:"phone"`
	Location Coordinate `json:"location"`
}
