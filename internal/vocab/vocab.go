// Package vocab defines the canonical field vocabulary and its bilingual
// resolver.
//
// Rules are defined against canonical field identifiers, independent of the
// source feed's column naming or language. Each canonical field carries an
// English and a German label; the resolver accepts any of the three names
// and is shared by every condition type and by cross-field comparisons.
package vocab

import "strings"

// Field is one canonical field with its two human-readable labels.
type Field struct {
	ID      string
	English string
	German  string
}

// ProductID is the canonical identifier of the id-equivalent field.
const ProductID = "id"

// Fields is the static vocabulary table. Order matters only for display.
var Fields = []Field{
	{ID: "id", English: "Product ID", German: "Produkt-ID"},
	{ID: "title", English: "Title", German: "Titel"},
	{ID: "description", English: "Description", German: "Beschreibung"},
	{ID: "price", English: "Price", German: "Preis"},
	{ID: "sale_price", English: "Sale Price", German: "Angebotspreis"},
	{ID: "msrp", English: "MSRP", German: "UVP"},
	{ID: "brand", English: "Brand", German: "Marke"},
	{ID: "gtin", English: "GTIN", German: "GTIN"},
	{ID: "mpn", English: "MPN", German: "Herstellernummer"},
	{ID: "category", English: "Category", German: "Kategorie"},
	{ID: "availability", English: "Availability", German: "Verfügbarkeit"},
	{ID: "condition", English: "Condition", German: "Zustand"},
	{ID: "link", English: "Link", German: "Link"},
	{ID: "image_link", English: "Image Link", German: "Bildlink"},
	{ID: "shipping", English: "Shipping", German: "Versand"},
	{ID: "color", English: "Color", German: "Farbe"},
	{ID: "size", English: "Size", German: "Größe"},
	{ID: "material", English: "Material", German: "Material"},
	{ID: "gender", English: "Gender", German: "Geschlecht"},
	{ID: "age_group", English: "Age Group", German: "Altersgruppe"},
}

// Resolver looks up record values by canonical identifier with bilingual
// fallback: the canonical id first, then either label, then the reverse
// direction (a label resolving to its canonical id). Built once from the
// static table; read-only thereafter, safe for concurrent use.
type Resolver struct {
	aliases map[string][]string // lowercased name -> candidate record keys
}

// NewResolver builds a resolver from the static vocabulary table.
func NewResolver() *Resolver {
	r := &Resolver{aliases: make(map[string][]string, len(Fields)*3)}
	for _, f := range Fields {
		candidates := []string{f.ID, f.English, f.German}
		for _, name := range candidates {
			key := strings.ToLower(name)
			r.aliases[key] = candidates
		}
	}
	return r
}

// Lookup resolves name against a record. It tries the exact key first, then
// every vocabulary alias of the name. The second return reports whether any
// key was present; the value is "" either way when absent.
func (r *Resolver) Lookup(record map[string]string, name string) (string, bool) {
	if v, ok := record[name]; ok {
		return v, true
	}
	for _, alias := range r.aliases[strings.ToLower(name)] {
		if v, ok := record[alias]; ok {
			return v, true
		}
	}
	return "", false
}

// Canonical returns the canonical identifier for name, which may be a
// canonical id or either label. Unknown names return themselves.
func (r *Resolver) Canonical(name string) string {
	if candidates, ok := r.aliases[strings.ToLower(name)]; ok {
		return candidates[0]
	}
	return name
}
