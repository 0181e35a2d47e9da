// Package patterns holds the static vocabulary tables used by the
// deterministic extraction path: text fragments mapped to canonical
// profile values. Pure data, no state.
package patterns

import "strings"

// Alias maps a lowercase text fragment to its canonical value.
// Tables are ordered by specificity — longer/specific fragments first,
// and the first matching entry wins.
type Alias struct {
	Fragment  string
	Canonical string
}

// FirstMatch returns the canonical value of the first alias whose
// fragment occurs in text (text must already be lowercased).
func FirstMatch(table []Alias, text string) (string, bool) {
	for _, a := range table {
		if strings.Contains(text, a.Fragment) {
			return a.Canonical, true
		}
	}
	return "", false
}

// AllMatches returns the canonical values of every alias whose fragment
// occurs in text, deduplicated, in table order.
func AllMatches(table []Alias, text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, a := range table {
		if seen[a.Canonical] {
			continue
		}
		if strings.Contains(text, a.Fragment) {
			out = append(out, a.Canonical)
			seen[a.Canonical] = true
		}
	}
	return out
}

// CurrencyByCity maps lowercase city names to their ISO currency code.
var CurrencyByCity = map[string]string{
	"paris":         "EUR",
	"lyon":          "EUR",
	"marseille":     "EUR",
	"toulouse":      "EUR",
	"bordeaux":      "EUR",
	"lille":         "EUR",
	"grenoble":      "EUR",
	"berlin":        "EUR",
	"munich":        "EUR",
	"madrid":        "EUR",
	"barcelona":     "EUR",
	"rome":          "EUR",
	"milan":         "EUR",
	"amsterdam":     "EUR",
	"brussels":      "EUR",
	"lisbon":        "EUR",
	"dublin":        "EUR",
	"london":        "GBP",
	"manchester":    "GBP",
	"edinburgh":     "GBP",
	"new york":      "USD",
	"boston":        "USD",
	"chicago":       "USD",
	"san francisco": "USD",
	"los angeles":   "USD",
	"montreal":      "CAD",
	"toronto":       "CAD",
	"vancouver":     "CAD",
	"zurich":        "CHF",
	"geneva":        "CHF",
	"lausanne":      "CHF",
	"tokyo":         "JPY",
}

// CityCurrency looks up the currency for a city name (any casing).
func CityCurrency(city string) (string, bool) {
	cur, ok := CurrencyByCity[strings.ToLower(strings.TrimSpace(city))]
	return cur, ok
}

// KnownCity returns the canonical (title-cased) city name if the text
// mentions a city from the currency table.
func KnownCity(text string) (string, bool) {
	for city := range CurrencyByCity {
		if strings.Contains(text, city) {
			return titleCase(city), true
		}
	}
	return "", false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Diplomas is ordered so that specific degree names match before the
// generic ones that contain them.
var Diplomas = []Alias{
	{"master", "Master"},
	{"msc", "Master"},
	{"m.sc", "Master"},
	{"m2", "Master"},
	{"m1", "Master"},
	{"phd", "PhD"},
	{"doctorat", "PhD"},
	{"doctorate", "PhD"},
	{"bachelor", "Bachelor"},
	{"licence", "Bachelor"},
	{"bsc", "Bachelor"},
	{"b.sc", "Bachelor"},
	{"l3", "Bachelor"},
	{"bts", "BTS"},
	{"dut", "DUT"},
	{"but", "DUT"},
	{"high school", "High School"},
	{"a-level", "High School"},
	{"baccalaur", "High School"},
}

// FieldsOfStudy maps study-domain fragments to canonical field names.
var FieldsOfStudy = []Alias{
	{"computer science", "Computer Science"},
	{"informatique", "Computer Science"},
	{"software", "Computer Science"},
	{"data science", "Data Science"},
	{"engineering", "Engineering"},
	{"ingénieur", "Engineering"},
	{"business", "Business"},
	{"commerce", "Business"},
	{"management", "Business"},
	{"marketing", "Marketing"},
	{"finance", "Finance"},
	{"economics", "Economics"},
	{"économie", "Economics"},
	{"law", "Law"},
	{"droit", "Law"},
	{"medicine", "Medicine"},
	{"médecine", "Medicine"},
	{"psychology", "Psychology"},
	{"psychologie", "Psychology"},
	{"biology", "Biology"},
	{"biologie", "Biology"},
	{"mathematics", "Mathematics"},
	{"maths", "Mathematics"},
	{"physics", "Physics"},
	{"design", "Design"},
	{"architecture", "Architecture"},
	{"history", "History"},
	{"languages", "Languages"},
}

// Skills maps skill fragments to canonical skill labels.
var Skills = []Alias{
	{"javascript", "JavaScript"},
	{"typescript", "TypeScript"},
	{"python", "Python"},
	{"java", "Java"},
	{"sql", "SQL"},
	{"excel", "Excel"},
	{"powerpoint", "PowerPoint"},
	{"photoshop", "Photoshop"},
	{"illustrator", "Illustrator"},
	{"figma", "Figma"},
	{"video editing", "Video Editing"},
	{"montage", "Video Editing"},
	{"web development", "Web Development"},
	{"data analysis", "Data Analysis"},
	{"social media", "Social Media"},
	{"community management", "Social Media"},
	{"copywriting", "Writing"},
	{"writing", "Writing"},
	{"rédaction", "Writing"},
	{"translation", "Translation"},
	{"traduction", "Translation"},
	{"tutoring", "Tutoring"},
	{"teaching", "Tutoring"},
	{"cours particuliers", "Tutoring"},
	{"babysitting", "Babysitting"},
	{"baby-sitting", "Babysitting"},
	{"photography", "Photography"},
	{"photographie", "Photography"},
	{"cooking", "Cooking"},
	{"driving", "Driving"},
}

// Certifications maps certification fragments to canonical labels.
var Certifications = []Alias{
	{"toefl", "TOEFL"},
	{"toeic", "TOEIC"},
	{"ielts", "IELTS"},
	{"delf", "DELF"},
	{"dalf", "DALF"},
	{"aws", "AWS Certification"},
	{"azure", "Azure Certification"},
	{"google analytics", "Google Analytics"},
	{"pix", "PIX"},
	{"first aid", "First Aid"},
	{"psc1", "First Aid"},
	{"secourisme", "First Aid"},
	{"driving license", "Driving License"},
	{"driver's license", "Driving License"},
	{"permis", "Driving License"},
	{"bafa", "BAFA"},
	{"lifeguard", "Lifeguard"},
}

// Goals maps goal fragments to canonical goal names.
var Goals = []Alias{
	{"laptop", "New Laptop"},
	{"macbook", "New Laptop"},
	{"computer", "New Laptop"},
	{"ordinateur", "New Laptop"},
	{"phone", "New Phone"},
	{"iphone", "New Phone"},
	{"téléphone", "New Phone"},
	{"travel", "Travel"},
	{"trip", "Travel"},
	{"vacation", "Travel"},
	{"voyage", "Travel"},
	{"emergency", "Emergency Fund"},
	{"safety net", "Emergency Fund"},
	{"car", "Car"},
	{"voiture", "Car"},
	{"scooter", "Scooter"},
	{"tuition", "Tuition"},
	{"school fees", "Tuition"},
	{"frais de scolarité", "Tuition"},
	{"deposit", "Housing Deposit"},
	{"apartment", "Housing Deposit"},
	{"caution", "Housing Deposit"},
	{"concert", "Concert Tickets"},
	{"festival", "Concert Tickets"},
}

// Subscriptions maps subscription-service fragments to canonical names.
var Subscriptions = []Alias{
	{"amazon prime", "Amazon Prime"},
	{"youtube premium", "YouTube Premium"},
	{"netflix", "Netflix"},
	{"spotify", "Spotify"},
	{"deezer", "Deezer"},
	{"disney", "Disney+"},
	{"canal+", "Canal+"},
	{"icloud", "iCloud"},
	{"chatgpt", "ChatGPT Plus"},
	{"canva", "Canva"},
	{"basic fit", "Gym"},
	{"basic-fit", "Gym"},
	{"gym membership", "Gym"},
	{"fitness park", "Gym"},
	{"crunchyroll", "Crunchyroll"},
	{"twitch", "Twitch"},
	{"xbox game pass", "Xbox Game Pass"},
	{"playstation plus", "PlayStation Plus"},
}

// InventoryCategories maps sellable-item fragments to an item category.
var InventoryCategories = []Alias{
	{"textbook", "books"},
	{"manuel", "books"},
	{"books", "books"},
	{"livres", "books"},
	{"bike", "vehicle"},
	{"vélo", "vehicle"},
	{"skateboard", "vehicle"},
	{"console", "gaming"},
	{"nintendo", "gaming"},
	{"playstation", "gaming"},
	{"xbox", "gaming"},
	{"video game", "gaming"},
	{"jeux vidéo", "gaming"},
	{"clothes", "clothing"},
	{"vêtements", "clothing"},
	{"sneakers", "clothing"},
	{"furniture", "furniture"},
	{"meubles", "furniture"},
	{"desk", "furniture"},
	{"guitar", "instruments"},
	{"piano", "instruments"},
	{"camera", "electronics"},
	{"tablet", "electronics"},
	{"ipad", "electronics"},
	{"monitor", "electronics"},
	{"headphones", "electronics"},
}

// TradeOpportunities maps service fragments to canonical gig names.
var TradeOpportunities = []Alias{
	{"tutoring", "Tutoring"},
	{"cours particuliers", "Tutoring"},
	{"homework help", "Tutoring"},
	{"babysitting", "Babysitting"},
	{"baby-sitting", "Babysitting"},
	{"dog walking", "Dog Walking"},
	{"pet sitting", "Pet Sitting"},
	{"moving help", "Moving Help"},
	{"déménagement", "Moving Help"},
	{"gardening", "Gardening"},
	{"cleaning", "Cleaning"},
	{"ménage", "Cleaning"},
	{"delivery", "Delivery"},
	{"livraison", "Delivery"},
	{"photography gigs", "Photography"},
	{"freelance", "Freelancing"},
}

// negativeResponses are full-message answers meaning "I have none".
var negativeResponses = map[string]bool{
	"none":         true,
	"nothing":      true,
	"no":           true,
	"nope":         true,
	"nah":          true,
	"skip":         true,
	"pass":         true,
	"nada":         true,
	"non":          true,
	"rien":         true,
	"aucun":        true,
	"aucune":       true,
	"not yet":      true,
	"i don't":      true,
	"none for now": true,
}

// IsNegative reports whether the message is a "none / nothing / skip"
// style answer. Used by optional list steps to record an explicit empty
// list, distinguishing "declined" from "not answered".
func IsNegative(message string) bool {
	m := strings.ToLower(strings.TrimSpace(message))
	m = strings.TrimRight(m, ".!…")
	if negativeResponses[m] {
		return true
	}
	for _, frag := range []string{"nothing to sell", "no certifications", "don't have any", "i have none", "je n'ai rien", "je n'en ai pas"} {
		if strings.Contains(m, frag) {
			return true
		}
	}
	return false
}
