package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// categoryKeywords is scanned in order and the first hit wins, so compound
// words must precede the words they contain (sweatshirts before shirts).
var categoryKeywords = []string{
	"bottoms",
	"dresses",
	"hoodies",
	"sweatshirts",
	"t-shirts",
	"tees",
	"shirts",
	"tops",
	"jackets",
	"coats",
	"outerwear",
	"knitwear",
	"sweaters",
	"jumpsuits",
	"jeans",
	"leggings",
	"trousers",
	"pants",
	"shorts",
	"skirts",
	"swimwear",
	"lingerie",
	"loungewear",
	"activewear",
	"shoes",
	"bags",
	"accessories",
}

// Classification is what the tag vocabulary says about a product.
type Classification struct {
	GenderTags   []string
	TypeFromTags string
}

// Classify derives gender tags and a product type from tags and collection
// titles. Keywords are tried in the fixed list order; for each keyword the
// tags are searched before the collection titles.
func Classify(tags, collections []string) Classification {
	var c Classification
	c.TypeFromTags = keywordType(tags, collections)

	women, men, accessories := false, false, false
	for _, t := range append(append([]string(nil), tags...), collections...) {
		for _, w := range words(t) {
			switch w {
			case "women", "womens":
				women = true
			case "men", "mens":
				men = true
			case "accessories", "bags":
				accessories = true
			}
		}
	}

	add := func(tag string) {
		if !containsFold(tags, tag) && !containsFold(c.GenderTags, tag) {
			c.GenderTags = append(c.GenderTags, tag)
		}
	}
	if women {
		add("women")
		if accessories {
			add("All Womens Accessories")
		} else {
			add("All Womens Clothing")
		}
	}
	if men {
		add("men")
		if accessories {
			add("All Mens Accessories")
		} else {
			add("All Mens Clothing")
		}
	}
	return c
}

func keywordType(tags, collections []string) string {
	for _, kw := range categoryKeywords {
		for _, source := range [][]string{tags, collections} {
			for _, t := range source {
				if strings.Contains(strings.ToLower(t), kw) {
					return titleCase(kw)
				}
			}
		}
	}
	return ""
}

// titleCase builds a Caser per call; Casers are stateful and the Builder
// runs concurrently.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// words splits s into lowercase words, dropping apostrophes so that
// "Women's" reads as "womens".
func words(s string) []string {
	s = strings.NewReplacer("'", "", "’", "").Replace(strings.ToLower(s))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
