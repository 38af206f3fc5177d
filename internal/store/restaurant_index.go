package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/kanishkaditya/DinemateBackend/internal/common/database"
	apperrors "github.com/kanishkaditya/DinemateBackend/internal/common/errors"
	"github.com/kanishkaditya/DinemateBackend/internal/common/logger"
	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

// RestaurantIndex is the locally indexed restaurant corpus used when the
// live search capability is unavailable. Results are staler and sparser
// than the provider's but keep recommendations flowing.
type RestaurantIndex struct {
	es  *database.ElasticsearchClient
	log logger.Logger
}

func NewRestaurantIndex(es *database.ElasticsearchClient, log logger.Logger) *RestaurantIndex {
	return &RestaurantIndex{
		es:  es,
		log: log.WithFields(map[string]interface{}{"component": "restaurant-index"}),
	}
}

type indexQuery struct {
	Size  int                    `json:"size"`
	Query map[string]interface{} `json:"query"`
}

type indexResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Candidate `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a best-effort text-and-filter query against the index.
func (r *RestaurantIndex) Search(ctx context.Context, params models.SearchParams) ([]models.Candidate, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	must := make([]map[string]interface{}, 0, 2)
	if params.Query != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  params.Query,
				"fields": []string{"name^2", "cuisines"},
			},
		})
	}
	var filter []map[string]interface{}
	if params.MinPrice > 0 && params.MaxPrice > 0 {
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{
				"priceTier": map[string]interface{}{
					"gte": params.MinPrice,
					"lte": params.MaxPrice,
				},
			},
		})
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	if len(boolQuery) == 0 {
		boolQuery["must"] = []map[string]interface{}{{"match_all": map[string]interface{}{}}}
	}

	body, err := json.Marshal(indexQuery{
		Size:  limit,
		Query: map[string]interface{}{"bool": boolQuery},
	})
	if err != nil {
		return nil, apperrors.NewIndexQueryFailedError(err)
	}

	res, err := r.es.Client.Search(
		r.es.Client.Search.WithContext(ctx),
		r.es.Client.Search.WithIndex(r.es.Index),
		r.es.Client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, apperrors.NewIndexQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewIndexQueryFailedError(fmt.Errorf("index search returned %s", res.Status()))
	}

	var parsed indexResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewIndexQueryFailedError(err)
	}

	candidates := make([]models.Candidate, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		candidates = append(candidates, hit.Source)
	}
	return candidates, nil
}
