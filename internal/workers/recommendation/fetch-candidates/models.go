// internal/workers/recommendation/fetch-candidates/models.go
package fetchcandidates

import "github.com/kanishkaditya/DinemateBackend/internal/models"

const (
	SourceFoursquare = "foursquare"
	SourceIndex      = "index"
	SourceNone       = "none"
)

type Input struct {
	GroupID      string   `json:"groupId"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Near         string   `json:"near,omitempty"`
	Query        string   `json:"query,omitempty"`
	RadiusMeters int      `json:"radiusMeters,omitempty"`
	Limit        int      `json:"limit,omitempty"`
}

type Output struct {
	Candidates []models.Candidate `json:"candidates"`
	Source     string             `json:"source"`
	Count      int                `json:"count"`
}
