package preference

import (
	"sort"

	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

// MaxSearchCategoryIDs caps the category ids projected into a search.
const MaxSearchCategoryIDs = 5

// GetAggregatedSearchParams projects a GroupProfile onto the flat parameter
// bag handed to the restaurant-search capability.
//
// Single-valued fields (query, location, sort, open-now) follow a
// most-recent-wins policy: members are replayed in ascending signal-update
// order and each non-empty value overwrites the previous one. Multi-valued
// fields (category ids) and the price consensus come from the derived union
// instead. The asymmetry is deliberate and covered by tests.
func GetAggregatedSearchParams(profile *models.GroupProfile) models.SearchParams {
	params := models.SearchParams{}

	for _, member := range membersBySignalRecency(profile) {
		signals := member.Signals
		if signals.UpdatedAt.IsZero() {
			continue
		}
		if signals.QueryTerm != "" {
			params.Query = signals.QueryTerm
		}
		if signals.LocationPhrase != "" {
			params.Near = signals.LocationPhrase
		}
		if signals.SortHint != "" {
			params.Sort = signals.SortHint
		}
		if signals.OpenNow {
			params.OpenNow = true
		}
	}

	ids := profile.Derived.CategoryIDs
	if len(ids) > MaxSearchCategoryIDs {
		ids = ids[:MaxSearchCategoryIDs]
	}
	params.CategoryIDs = append([]string(nil), ids...)

	if pr := profile.Derived.PriceConsensus; pr != nil {
		params.MinPrice = pr.Min
		params.MaxPrice = pr.Max
	}

	// Onboarding terms stand in when no member message produced a query.
	if params.Query == "" && len(profile.Derived.QueryTerms) > 0 {
		params.Query = profile.Derived.QueryTerms[0]
	}

	return params
}

// membersBySignalRecency orders members by ascending Signals.UpdatedAt,
// tie-broken by user id for determinism.
func membersBySignalRecency(profile *models.GroupProfile) []models.MemberPreference {
	members := make([]models.MemberPreference, 0, len(profile.Members))
	for _, id := range profile.MemberIDs() {
		members = append(members, profile.Members[id])
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Signals.UpdatedAt.Before(members[j].Signals.UpdatedAt)
	})
	return members
}
