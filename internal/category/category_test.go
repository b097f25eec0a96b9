package category

import "testing"

func TestSuggestWordMatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Wireless Gaming Mouse", "Gaming"},
		{"Dell XPS 13 Laptop", "Computers"},
		{"Google Pixel 9", "Phones"},
		{"Nike Running Shoes", "Fashion"},
		{"Sony WH-1000XM5 Headphones", "Electronics"},
		{"Memory foam mattress", "Home"},
		{"Robot vacuum", "Appliances"},
	}
	for _, tt := range tests {
		if got := Suggest(tt.input); got != tt.want {
			t.Errorf("Suggest(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSuggestSubstringMatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Programmable Coffee Maker", "Appliances"},
		{"Ninja Air Fryer XL", "Appliances"},
		{"RTX graphics card bundle", "Computers"},
		{"Bluetooth tracker 4-pack", "Electronics"},
		{"Smartphones clearance", "Phones"},
		{"Board games sale", "Gaming"},
	}
	for _, tt := range tests {
		if got := Suggest(tt.input); got != tt.want {
			t.Errorf("Suggest(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSuggestFallback(t *testing.T) {
	for _, input := range []string{"", "   ", "Mystery box", "gift card"} {
		if got := Suggest(input); got != Other {
			t.Errorf("Suggest(%q) = %q, want %q", input, got, Other)
		}
	}
}

func TestSuggestReturnsKnownCategory(t *testing.T) {
	known := make(map[string]bool, len(All))
	for _, c := range All {
		known[c] = true
	}
	for word, cat := range wordMatch {
		if !known[cat] {
			t.Errorf("wordMatch[%q] = %q is not in All", word, cat)
		}
	}
	for _, e := range substringMatches {
		if !known[e.category] {
			t.Errorf("substring %q maps to unknown category %q", e.keyword, e.category)
		}
	}
}
