package importer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/pricing"
)

// Record is one raw object as a scraper produced it.
type Record map[string]interface{}

// NoteInput is a note name with the layer the source listed it under.
type NoteInput struct {
	Name  string
	Layer models.NoteType
}

// PerfumeInput is a record normalized into the fields the catalog stores.
type PerfumeInput struct {
	Brand         string
	BrandType     models.BrandType
	Name          string
	Family        string
	Gender        models.Gender
	Price         decimal.NullDecimal
	Currency      string
	Volume        *int
	Concentration string
	Description   string
	ImageURL      string
	ProductURL    string
	StockStatus   bool
	Rating        *float64
	Perfumer      string
	ReleaseYear   *int
	Notes         []NoteInput
}

// ErrMalformedRecord marks a record that cannot be turned into a perfume.
var ErrMalformedRecord = errors.New("malformed record")

// Source turns raw records of one scraper into PerfumeInput values.
type Source interface {
	Name() string
	Extract(raw Record) (PerfumeInput, error)
}

// Known source identifiers.
const (
	SourceBargello = "bargello"
	SourceMuscent  = "muscent"
	SourceZara     = "zara"
	SourceLuxury   = "luxury"
)

var sources = map[string]Source{
	SourceBargello: bargelloSource{},
	SourceMuscent:  muscentSource{},
	SourceZara:     zaraSource{},
	SourceLuxury:   luxurySource{},
}

// SourceFor returns the parser registered under name.
func SourceFor(name string) (Source, error) {
	src, ok := sources[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", name)
	}
	return src, nil
}

// SourceNames lists the registered sources in import order.
func SourceNames() []string {
	return []string{SourceBargello, SourceMuscent, SourceZara, SourceLuxury}
}

type bargelloSource struct{}

func (bargelloSource) Name() string { return SourceBargello }

func (bargelloSource) Extract(raw Record) (PerfumeInput, error) {
	name := NormalizeName(raw.str("isim", "name"))
	if name == "" {
		return PerfumeInput{}, fmt.Errorf("%w: missing name", ErrMalformedRecord)
	}

	notalar := raw.obj("notalar")
	tags := raw.strs("etiketler")

	in := PerfumeInput{
		Brand:       "Bargello",
		BrandType:   models.BrandAlternative,
		Name:        name,
		Family:      raw.str("aile", "family"),
		Gender:      DetectGender(firstNonEmpty(notalar.str("cinsiyet"), raw.str("cinsiyet", "gender")), name, tags),
		Description: raw.str("aciklama", "description"),
		ImageURL:    raw.str("resim", "image_url"),
		ProductURL:  raw.str("link", "product_url"),
		StockStatus: raw.stock("stok_durumu", false),
		Rating:      raw.number("puan", "rating"),
	}
	in.Price, in.Currency = raw.price("fiyat", "price")

	layers := []struct {
		keys  []string
		layer models.NoteType
	}{
		{[]string{"üst_notlar", "Üst Notalar", "top_notes"}, models.NoteTop},
		{[]string{"orta_notlar", "Orta Notalar", "middle_notes"}, models.NoteMiddle},
		{[]string{"alt_notlar", "Alt Notalar", "base_notes"}, models.NoteBase},
	}
	for _, l := range layers {
		for _, n := range notalar.noteList(l.keys...) {
			in.Notes = append(in.Notes, NoteInput{Name: n, Layer: l.layer})
		}
	}
	return in, nil
}

type muscentSource struct{}

func (muscentSource) Name() string { return SourceMuscent }

func (muscentSource) Extract(raw Record) (PerfumeInput, error) {
	name := NormalizeName(raw.str("isim", "name"))
	if name == "" {
		return PerfumeInput{}, fmt.Errorf("%w: missing name", ErrMalformedRecord)
	}

	notalar := raw.obj("notalar")
	tags := raw.strs("etiketler", "tags")

	in := PerfumeInput{
		Brand:       "Muscent",
		BrandType:   models.BrandAlternative,
		Name:        name,
		Family:      raw.str("aile", "family"),
		Gender:      DetectGender(firstNonEmpty(notalar.str("cinsiyet"), raw.str("cinsiyet", "gender")), name, tags),
		Description: raw.str("aciklama", "description"),
		ImageURL:    raw.str("resim", "image_url"),
		ProductURL:  raw.str("link", "product_url"),
		StockStatus: raw.stock("stok_durumu", true),
		Rating:      raw.number("puan", "rating"),
	}
	in.Price, in.Currency = raw.price("fiyat", "price")

	for _, l := range []struct {
		key   string
		layer models.NoteType
	}{
		{"top_notes", models.NoteTop},
		{"middle_notes", models.NoteMiddle},
		{"base_notes", models.NoteBase},
	} {
		for _, n := range raw.noteList(l.key) {
			in.Notes = append(in.Notes, NoteInput{Name: n, Layer: l.layer})
		}
	}

	for _, n := range notalar.noteList("en_yogun_notalar") {
		in.Notes = append(in.Notes, NoteInput{Name: n, Layer: models.NoteMiddle})
	}
	for _, tag := range tags {
		if isGenderTag(tag) {
			continue
		}
		in.Notes = append(in.Notes, NoteInput{Name: TitleTag(tag), Layer: models.NoteMiddle})
	}
	return in, nil
}

type zaraSource struct{}

func (zaraSource) Name() string { return SourceZara }

// Extract never yields notes: Zara listings carry only free-text descriptions.
func (zaraSource) Extract(raw Record) (PerfumeInput, error) {
	name := NormalizeName(raw.str("name"))
	if name == "" {
		return PerfumeInput{}, fmt.Errorf("%w: missing name", ErrMalformedRecord)
	}

	in := PerfumeInput{
		Brand:       "Zara",
		BrandType:   models.BrandAlternative,
		Name:        name,
		Gender:      genderFromName(name),
		Description: raw.str("description"),
		ImageURL:    raw.str("image_url"),
		ProductURL:  raw.str("product_url"),
		StockStatus: true,
	}
	if in.Gender == "" {
		in.Gender = models.GenderUnisex
	}
	in.Price, in.Currency = raw.price("price")
	return in, nil
}

type luxurySource struct{}

func (luxurySource) Name() string { return SourceLuxury }

func (luxurySource) Extract(raw Record) (PerfumeInput, error) {
	name := NormalizeName(raw.str("name"))
	brand := NormalizeName(raw.str("brand"))
	if name == "" || brand == "" {
		return PerfumeInput{}, fmt.Errorf("%w: missing name or brand", ErrMalformedRecord)
	}

	in := PerfumeInput{
		Brand:         brand,
		BrandType:     models.BrandLuxury,
		Name:          name,
		Family:        raw.str("family"),
		Gender:        DetectGender(raw.str("gender"), name, raw.strs("tags")),
		Concentration: raw.str("concentration"),
		Description:   raw.str("description"),
		ImageURL:      raw.str("image_url"),
		ProductURL:    raw.str("product_url"),
		StockStatus:   raw.stock("stock_status", true),
		Rating:        raw.number("rating"),
		Perfumer:      raw.str("perfumer"),
		Volume:        raw.integer("volume"),
		ReleaseYear:   raw.integer("release_year"),
	}
	in.Price, in.Currency = raw.price("price")
	if c := strings.ToUpper(raw.str("currency")); len(c) == 3 {
		in.Currency = c
	}

	if list, ok := raw["notes"].([]interface{}); ok {
		for _, item := range list {
			switch v := item.(type) {
			case string:
				if n := NormalizeName(v); n != "" {
					in.Notes = append(in.Notes, NoteInput{Name: n, Layer: models.NoteMiddle})
				}
			case map[string]interface{}:
				r := Record(v)
				if n := NormalizeName(r.str("name")); n != "" {
					in.Notes = append(in.Notes, NoteInput{Name: n, Layer: models.ParseNoteType(r.str("type"))})
				}
			}
		}
	}
	return in, nil
}

var (
	womenKeywords = []string{"kadın", "women", "woman", "femme", "female", "for her"}
	menKeywords   = []string{"erkek", "men", "homme", "male", "for him"}
)

// DetectGender applies the layered heuristic: explicit field, then name
// keywords, then tags, then unisex. Women keywords are tried first because
// "women" contains "men".
func DetectGender(explicit, name string, tags []string) models.Gender {
	if explicit != "" {
		e := lowerTR(explicit)
		if g, ok := models.ParseGender(e); ok {
			return g
		}
		switch {
		case strings.Contains(e, "unisex"):
			return models.GenderUnisex
		case containsAny(e, womenKeywords):
			return models.GenderWomen
		case containsAny(e, menKeywords):
			return models.GenderMen
		}
	}

	if g := genderFromName(name); g != "" {
		return g
	}

	for _, tag := range tags {
		switch lowerTR(strings.TrimSpace(tag)) {
		case "kadın", "women", "femme":
			return models.GenderWomen
		case "erkek", "men":
			return models.GenderMen
		case "unisex":
			return models.GenderUnisex
		}
	}
	return models.GenderUnisex
}

func genderFromName(name string) models.Gender {
	n := lowerTR(name)
	switch {
	case strings.Contains(n, "unisex"):
		return models.GenderUnisex
	case containsAny(n, womenKeywords):
		return models.GenderWomen
	case containsAny(n, menKeywords):
		return models.GenderMen
	}
	return ""
}

func isGenderTag(tag string) bool {
	switch lowerTR(strings.TrimSpace(tag)) {
	case "erkek", "kadın", "unisex", "men", "women":
		return true
	}
	return false
}

var familyNames = map[string]string{
	"floral":   "Floral",
	"woody":    "Woody",
	"oriental": "Oriental",
	"fresh":    "Fresh",
	"fruity":   "Fruity",
	"gourmand": "Gourmand",
	"chypre":   "Chypre",
	"fougere":  "Fougere",
	"fougère":  "Fougere",
}

// NormalizeFamily maps a raw family onto its canonical title-cased name.
func NormalizeFamily(raw string) string {
	raw = NormalizeName(raw)
	if raw == "" {
		return ""
	}
	if name, ok := familyNames[strings.ToLower(raw)]; ok {
		return name
	}
	return cases.Title(language.Und).String(raw)
}

// NormalizeName trims s and collapses internal whitespace.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TitleTag title-cases a free-form tag. Tags mix Turkish and English words, so
// the root locale is used: Turkish rules would dot the capital of "iris".
func TitleTag(s string) string {
	return cases.Title(language.Und).String(NormalizeName(s))
}

func lowerTR(s string) string {
	return cases.Lower(language.Turkish).String(s)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// splitNotes splits a comma-joined note string. "Yok" means no notes.
func splitNotes(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = NormalizeName(part)
		if part == "" || strings.EqualFold(part, "yok") {
			continue
		}
		out = append(out, part)
	}
	return out
}

func (r Record) str(keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

func (r Record) obj(key string) Record {
	if m, ok := r[key].(map[string]interface{}); ok {
		return Record(m)
	}
	return Record{}
}

func (r Record) strs(keys ...string) []string {
	for _, k := range keys {
		list, ok := r[k].([]interface{})
		if !ok {
			continue
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

// noteList reads notes stored either as a comma-joined string or a list.
func (r Record) noteList(keys ...string) []string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if notes := splitNotes(v); len(notes) > 0 {
				return notes
			}
		case []interface{}:
			var out []string
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, splitNotes(s)...)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

func (r Record) price(keys ...string) (decimal.NullDecimal, string) {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			return pricing.Parse(v)
		case float64:
			return decimal.NewNullDecimal(decimal.NewFromFloat(v)), pricing.DefaultCurrency
		case int:
			return decimal.NewNullDecimal(decimal.NewFromInt(int64(v))), pricing.DefaultCurrency
		}
	}
	return decimal.NullDecimal{}, pricing.DefaultCurrency
}

func (r Record) number(keys ...string) *float64 {
	for _, k := range keys {
		switch v := r[k].(type) {
		case float64:
			return &v
		case int:
			f := float64(v)
			return &f
		case string:
			f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
			if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return &f
			}
		}
	}
	return nil
}

func (r Record) integer(keys ...string) *int {
	for _, k := range keys {
		switch v := r[k].(type) {
		case int:
			return &v
		case float64:
			i := int(v)
			return &i
		case string:
			digits := strings.TrimFunc(v, func(c rune) bool { return c < '0' || c > '9' })
			if i, err := strconv.Atoi(digits); err == nil {
				return &i
			}
		}
	}
	return nil
}

// stock reads a stock flag stored as a bool or as "Stokta var"/"Tükendi" text.
func (r Record) stock(key string, fallback bool) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		s := lowerTR(strings.TrimSpace(v))
		switch {
		case s == "":
			return fallback
		case strings.Contains(s, "stokta var"), s == "true", s == "var", s == "in stock":
			return true
		default:
			return false
		}
	}
	return fallback
}
