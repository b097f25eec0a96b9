// Package category suggests a deal category from its title.
package category

import "strings"

// Other is returned when nothing matches.
const Other = "Other"

// All lists the categories the posting form offers, in display order.
var All = []string{
	"Computers",
	"Phones",
	"Home",
	"Gaming",
	"Appliances",
	"Fashion",
	"Electronics",
	Other,
}

// Suggest returns a category for a deal title. Matching is case-insensitive:
// whole words first, then substrings. Falls back to Other.
func Suggest(title string) string {
	name := strings.ToLower(strings.TrimSpace(title))
	if name == "" {
		return Other
	}

	// Phase 1: any word of the title is a known keyword
	for _, word := range strings.FieldsFunc(name, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if cat, ok := wordMatch[word]; ok {
			return cat
		}
	}

	// Phase 2: substring match (ordered longer/more-specific first)
	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return Other
}

var wordMatch = map[string]string{
	// Computers
	"laptop":     "Computers",
	"laptops":    "Computers",
	"notebook":   "Computers",
	"chromebook": "Computers",
	"macbook":    "Computers",
	"desktop":    "Computers",
	"pc":         "Computers",
	"monitor":    "Computers",
	"keyboard":   "Computers",
	"ssd":        "Computers",
	"router":     "Computers",
	"printer":    "Computers",

	// Phones
	"phone":      "Phones",
	"smartphone": "Phones",
	"iphone":     "Phones",
	"pixel":      "Phones",
	"galaxy":     "Phones",
	"android":    "Phones",

	// Gaming
	"gaming":      "Gaming",
	"playstation": "Gaming",
	"ps5":         "Gaming",
	"xbox":        "Gaming",
	"nintendo":    "Gaming",
	"switch":      "Gaming",
	"controller":  "Gaming",
	"console":     "Gaming",

	// Appliances
	"microwave":    "Appliances",
	"refrigerator": "Appliances",
	"fridge":       "Appliances",
	"dishwasher":   "Appliances",
	"washer":       "Appliances",
	"dryer":        "Appliances",
	"blender":      "Appliances",
	"toaster":      "Appliances",
	"airfryer":     "Appliances",
	"vacuum":       "Appliances",

	// Fashion
	"shoes":    "Fashion",
	"sneakers": "Fashion",
	"boots":    "Fashion",
	"jacket":   "Fashion",
	"jeans":    "Fashion",
	"shirt":    "Fashion",
	"dress":    "Fashion",
	"hoodie":   "Fashion",
	"watch":    "Fashion",
	"backpack": "Fashion",

	// Home
	"sofa":     "Home",
	"couch":    "Home",
	"mattress": "Home",
	"pillow":   "Home",
	"lamp":     "Home",
	"rug":      "Home",
	"cookware": "Home",
	"towels":   "Home",
	"bedding":  "Home",

	// Electronics
	"headphones": "Electronics",
	"earbuds":    "Electronics",
	"speaker":    "Electronics",
	"tv":         "Electronics",
	"television": "Electronics",
	"camera":     "Electronics",
	"mouse":      "Electronics",
	"tablet":     "Electronics",
	"ipad":       "Electronics",
	"charger":    "Electronics",
	"soundbar":   "Electronics",
}

type substringEntry struct {
	keyword  string
	category string
}

var substringMatches = []substringEntry{
	// Longer phrases first
	{"coffee maker", "Appliances"},
	{"air fryer", "Appliances"},
	{"stand mixer", "Appliances"},
	{"washing machine", "Appliances"},
	{"instant pot", "Appliances"},
	{"gaming chair", "Gaming"},
	{"graphics card", "Computers"},
	{"hard drive", "Computers"},
	{"smart watch", "Electronics"},
	{"smartwatch", "Electronics"},
	{"running shoe", "Fashion"},
	{"bed frame", "Home"},

	{"headphone", "Electronics"},
	{"bluetooth", "Electronics"},
	{"wireless", "Electronics"},
	{"laptop", "Computers"},
	{"phone", "Phones"},
	{"game", "Gaming"},
	{"kitchen", "Home"},
	{"furniture", "Home"},
	{"shoe", "Fashion"},
}
