// internal/workers/recommendation/rank-restaurants/models.go
package rankrestaurants

import "github.com/kanishkaditya/DinemateBackend/internal/models"

type Input struct {
	GroupID    string                       `json:"groupId"`
	Candidates []models.Candidate           `json:"candidates"`
	Context    models.RecommendationContext `json:"context"`
}

type Output struct {
	Recommendations []models.ScoredRestaurant `json:"recommendations"`
	Count           int                       `json:"count"`
}
