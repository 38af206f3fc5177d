package analysis

import "regexp"

// Keyword categories recognized by the extractor. Every extraction result
// carries exactly this set of category names (empty lists omitted).
const (
	CategoryFood       = "food"
	CategoryCuisine    = "cuisine"
	CategoryTaste      = "taste"
	CategoryPrice      = "price"
	CategoryAtmosphere = "atmosphere"
	CategoryDietary    = "dietary"
	CategoryLocation   = "location"
	CategoryTime       = "time"
	CategoryQuantity   = "quantity"
	CategoryQuality    = "quality"
	CategoryService    = "service"
	CategoryMisc       = "misc"
)

// KeywordCategories lists all categories in a fixed order.
var KeywordCategories = []string{
	CategoryFood, CategoryCuisine, CategoryTaste, CategoryPrice,
	CategoryAtmosphere, CategoryDietary, CategoryLocation, CategoryTime,
	CategoryQuantity, CategoryQuality, CategoryService, CategoryMisc,
}

// FlattenPriority is the category order used when flattening keyword lists
// into a single recommendation list.
var FlattenPriority = []string{
	CategoryCuisine, CategoryFood, CategoryTaste, CategoryDietary,
	CategoryPrice, CategoryAtmosphere, CategoryQuality, CategoryLocation,
	CategoryTime, CategoryService,
}

// categoryVocab maps each category to the terms the extractor recognizes.
// Matching is whole-word, case-insensitive; multi-word phrases are matched
// as substrings.
var categoryVocab = map[string][]string{
	CategoryFood: {
		"pizza", "burger", "burgers", "sushi", "taco", "tacos", "pasta",
		"ramen", "noodles", "sandwich", "salad", "soup", "steak", "wings",
		"dumplings", "curry", "bbq", "seafood", "brunch", "dessert",
		"breakfast", "coffee", "steakhouse",
	},
	CategoryCuisine: {
		"italian", "chinese", "mexican", "indian", "thai", "japanese",
		"korean", "vietnamese", "american", "french", "mediterranean",
		"greek", "spanish", "ethiopian", "peruvian", "moroccan",
		"lebanese", "turkish",
	},
	CategoryTaste: {
		"spicy", "mild", "hot", "sweet", "savory", "tangy", "crispy",
		"fried", "grilled", "baked", "roasted", "smoky", "fresh",
	},
	CategoryPrice: {
		"cheap", "budget", "affordable", "expensive", "pricey", "upscale",
		"moderate", "mid-range", "splurge", "deal", "bargain",
	},
	CategoryAtmosphere: {
		"cozy", "casual", "fancy", "romantic", "quiet", "lively", "trendy",
		"rooftop", "outdoor", "patio", "intimate",
	},
	CategoryDietary: {
		"vegetarian", "vegan", "gluten-free", "halal", "kosher",
		"dairy-free", "nut-free", "pescatarian",
	},
	CategoryLocation: {
		"near", "nearby", "downtown", "uptown", "midtown", "close",
		"walkable", "around",
	},
	CategoryTime: {
		"tonight", "today", "tomorrow", "lunch", "dinner", "weekend",
		"late", "now", "early",
	},
	CategoryQuantity: {
		"few", "many", "couple", "several", "group", "party", "everyone",
	},
	CategoryQuality: {
		"best", "top", "rated", "authentic", "quality", "famous",
		"popular", "amazing", "delicious",
	},
	CategoryService: {
		"quick", "fast", "slow", "friendly", "delivery", "takeout",
		"reservation", "service",
	},
	CategoryMisc: {
		"birthday", "celebration", "date", "anniversary", "meeting",
		"hungry", "craving",
	},
}

// cuisineCategoryIDs maps cuisine and food terms onto the provider's fixed
// category ids. Kept as data so the table can be maintained without touching
// extraction logic.
var cuisineCategoryIDs = map[string]string{
	// Venue categories
	"restaurant": "13065",
	"fast food":  "13145",
	"cafe":       "13032",
	"bar":        "13003",

	// Cuisine categories
	"italian":       "13236",
	"chinese":       "13099",
	"mexican":       "13303",
	"indian":        "13199",
	"japanese":      "13263",
	"thai":          "13352",
	"american":      "13064",
	"french":        "13148",
	"mediterranean": "13305",
	"korean":        "13276",
	"vietnamese":    "13360",
	"seafood":       "13338",

	// Specific food types
	"pizza":      "13064",
	"burger":     "13064",
	"sushi":      "13338",
	"bbq":        "13061",
	"steakhouse": "13345",
	"breakfast":  "13065",
	"coffee":     "13032",
}

// pricePhrases maps explicit price vocabulary to provider price bounds.
// Ordered so multi-word phrases win over their substrings.
var pricePhrases = []struct {
	Phrase   string
	Min, Max int
}{
	{"fine dining", 4, 4},
	{"mid-range", 2, 3},
	{"cheap", 1, 2},
	{"budget", 1, 2},
	{"affordable", 1, 2},
	{"expensive", 3, 4},
	{"pricey", 3, 4},
	{"upscale", 3, 4},
	{"moderate", 2, 3},
}

// dollarBucket maps a literal amount to provider price bounds.
func dollarBucket(amount int) (int, int) {
	switch {
	case amount <= 20:
		return 1, 1
	case amount <= 50:
		return 1, 2
	case amount <= 150:
		return 2, 3
	case amount <= 400:
		return 3, 4
	default:
		return 4, 4
	}
}

// sortPhrases maps ranking vocabulary to provider sort hints.
var sortPhrases = []struct {
	Phrase string
	Sort   string
}{
	{"best rated", "rating"},
	{"highest rated", "rating"},
	{"top rated", "rating"},
	{"closest", "distance"},
	{"nearby", "distance"},
	{"nearest", "distance"},
}

// genericQueryTerms never become the single best query term.
var genericQueryTerms = map[string]bool{
	"restaurant": true,
	"place":      true,
	"spot":       true,
	"joint":      true,
	"bar":        true,
}

var (
	// queryTermPattern finds candidate query terms in text order: food
	// items, cuisines, meals and venue words. Taste adjectives are
	// deliberately excluded; "spicy" alone is a poor search query.
	queryTermPattern = regexp.MustCompile(`\b(?:pizza|burger|sushi|tacos?|pasta|ramen|noodles|chinese|italian|mexican|indian|thai|japanese|korean|vietnamese|american|french|mediterranean|bbq|seafood|steakhouse|cafe|coffee|breakfast|brunch|lunch|dinner|restaurant|place|spot|joint|bar|grill|bistro|diner|kitchen)\b`)

	dollarAmountPattern = regexp.MustCompile(`\$(\d+)`)
	budgetAmountPattern = regexp.MustCompile(`\b(?:budget|spend|under|around|about)\s+(?:of\s+)?(\d+)`)
	bareNumberPattern   = regexp.MustCompile(`\b(\d{2,4})\b`)

	openNowPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:open now|right now|currently open)\b`),
		regexp.MustCompile(`\b(?:tonight|today|now)\b`),
	}

	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bnear\s+([A-Za-z\s]+)`),
		regexp.MustCompile(`\bin\s+([A-Za-z\s,]+)`),
		regexp.MustCompile(`\baround\s+([A-Za-z\s]+)`),
		regexp.MustCompile(`\bclose to\s+([A-Za-z\s]+)`),
	}

	// locationTrailingFiller lists words that often trail a place phrase in
	// chat but are not part of it ("near downtown tonight").
	locationTrailingFiller = map[string]bool{
		"tonight":  true,
		"today":    true,
		"tomorrow": true,
		"now":      true,
		"later":    true,
		"soon":     true,
		"please":   true,
		"asap":     true,
	}
)

// categoryPatterns holds a compiled whole-word matcher per category,
// built once from categoryVocab.
var categoryPatterns = buildCategoryPatterns()

func buildCategoryPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(categoryVocab))
	for category, terms := range categoryVocab {
		expr := `\b(?:`
		for i, term := range terms {
			if i > 0 {
				expr += "|"
			}
			expr += regexp.QuoteMeta(term)
		}
		expr += `)\b`
		patterns[category] = regexp.MustCompile(expr)
	}
	return patterns
}
