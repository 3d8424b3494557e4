package vocab

import "testing"

func TestLookup(t *testing.T) {
	r := NewResolver()
	record := map[string]string{
		"id":           "sku-1",
		"Titel":        "Winterjacke",
		"Price":        "99.90",
		"custom_field": "x",
	}

	tests := []struct {
		name      string
		lookup    string
		want      string
		wantFound bool
	}{
		{name: "exact canonical key", lookup: "id", want: "sku-1", wantFound: true},
		{name: "canonical id resolves German column", lookup: "title", want: "Winterjacke", wantFound: true},
		{name: "English label resolves German column", lookup: "Title", want: "Winterjacke", wantFound: true},
		{name: "German label resolves English column", lookup: "Preis", want: "99.90", wantFound: true},
		{name: "case-insensitive alias", lookup: "TITEL", want: "Winterjacke", wantFound: true},
		{name: "non-vocabulary key matches exactly", lookup: "custom_field", want: "x", wantFound: true},
		{name: "absent field", lookup: "brand", want: "", wantFound: false},
		{name: "unknown name", lookup: "no_such_field", want: "", wantFound: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := r.Lookup(record, tt.lookup)
			if got != tt.want || found != tt.wantFound {
				t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tt.lookup, got, found, tt.want, tt.wantFound)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	r := NewResolver()
	tests := []struct {
		in   string
		want string
	}{
		{"Produkt-ID", "id"},
		{"Title", "title"},
		{"price", "price"},
		{"unknown column", "unknown column"},
	}
	for _, tt := range tests {
		if got := r.Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFieldsHaveBothLabels(t *testing.T) {
	seen := make(map[string]bool, len(Fields))
	for _, f := range Fields {
		if f.ID == "" || f.English == "" || f.German == "" {
			t.Errorf("field %+v is missing an identifier or label", f)
		}
		if seen[f.ID] {
			t.Errorf("duplicate canonical id %q", f.ID)
		}
		seen[f.ID] = true
	}
	if !seen[ProductID] {
		t.Errorf("vocabulary lacks the product id field %q", ProductID)
	}
}
