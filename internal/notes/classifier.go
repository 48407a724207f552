// Package notes maps free-text scent note names onto a fixed set of categories.
package notes

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is the scent family of a single note.
type Category string

const (
	Citrus   Category = "citrus"
	Floral   Category = "floral"
	Fruity   Category = "fruity"
	Spicy    Category = "spicy"
	Woody    Category = "woody"
	Sweet    Category = "sweet"
	Gourmand Category = "gourmand"
	Amber    Category = "amber"
	Musk     Category = "musk"
	Leather  Category = "leather"
	Tobacco  Category = "tobacco"
	Other    Category = "other"
)

// Priority returns the categories in the order they are tried. A note whose
// name matches keywords of two categories gets the earlier one.
func Priority() []Category {
	return []Category{Citrus, Floral, Fruity, Spicy, Woody, Sweet, Gourmand, Amber, Musk, Leather, Tobacco}
}

// Keywords are lower-case substrings, English and Turkish.
var categoryKeywords = map[Category][]string{
	Citrus: {
		"bergamot", "lemon", "orange", "grapefruit", "mandarin", "lime", "yuzu",
		"limon", "portakal", "greyfurt", "mandalina", "turunç",
	},
	Floral: {
		"rose", "jasmine", "lavender", "iris", "neroli", "gardenia", "orchid", "peony",
		"lily", "tuberose", "violet", "magnolia", "geranium",
		"gül", "yasemin", "lavanta", "süsen", "portakal çiçeği", "gardenya", "orkide",
		"şakayık", "zambak", "menekşe", "sardunya",
	},
	Fruity: {
		"apple", "peach", "pear", "pineapple", "mango", "strawberry", "raspberry",
		"currant", "cherry", "plum", "coconut",
		"elma", "şeftali", "armut", "ananas", "çilek", "ahududu", "kiraz", "erik",
		"frenk üzümü", "hindistan cevizi",
	},
	Spicy: {
		"pepper", "cinnamon", "clove", "ginger", "cardamom", "saffron", "nutmeg", "spice",
		"biber", "tarçın", "karanfil", "zencefil", "kakule", "safran", "muskat", "baharat",
	},
	Woody: {
		"cedar", "sandalwood", "vetiver", "patchouli", "oud", "rosewood", "wood",
		"sedir", "sandal", "paçuli", "odun", "ud ağacı",
	},
	Sweet: {
		"vanilla", "caramel", "honey", "sugar", "praline", "tonka",
		"vanilya", "karamel", "şeker", "pralin",
	},
	Gourmand: {
		"coffee", "chocolate", "almond", "cacao", "cocoa",
		"kahve", "çikolata", "badem", "kakao",
	},
	Amber:   {"amber", "ambergris", "kehribar", "labdanum"},
	Musk:    {"musk", "misk"},
	Leather: {"leather", "suede", "deri", "süet"},
	Tobacco: {"tobacco", "tütün"},
}

// categoryWords only match a whole word, for keywords that hide inside
// unrelated names ("bal" in galbanum or balsam).
var categoryWords = map[Category][]string{
	Sweet: {"bal", "balı"},
}

// Classify returns the category of a note name, or Other when nothing matches.
// The name is lower-cased under both Turkish and root rules so "UD AĞACI" and
// "IRIS" each find their keyword.
func Classify(name string) Category {
	name = strings.TrimSpace(name)
	if name == "" {
		return Other
	}
	forms := lowerForms(name)
	for _, category := range Priority() {
		if matches(forms, category) {
			return category
		}
	}
	return Other
}

func lowerForms(name string) []string {
	tr := cases.Lower(language.Turkish).String(name)
	root := strings.ToLower(name)
	if tr == root {
		return []string{tr}
	}
	return []string{tr, root}
}

func matches(forms []string, c Category) bool {
	for _, form := range forms {
		for _, keyword := range categoryKeywords[c] {
			if strings.Contains(form, keyword) {
				return true
			}
		}
		if words := categoryWords[c]; len(words) > 0 {
			for _, field := range strings.Fields(form) {
				for _, w := range words {
					if field == w {
						return true
					}
				}
			}
		}
	}
	return false
}

// Keywords returns a copy of the keyword list for c.
func Keywords(c Category) []string {
	out := make([]string, 0, len(categoryKeywords[c])+len(categoryWords[c]))
	out = append(out, categoryKeywords[c]...)
	return append(out, categoryWords[c]...)
}
