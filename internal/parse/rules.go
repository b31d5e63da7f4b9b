package parse

// VendorMarker maps a substring seen in document text to a canonical vendor
// display name. Reversed spellings appear alongside the plain ones because a
// layout engine may emit right-to-left text in either direction.
type VendorMarker struct {
	Marker  string
	Display string
}

// CategoryRule assigns a spending category. VendorKeys match against the
// vendor name, Keywords against the full document text; a vendor match
// returns Weight, a keyword-only match 85% of it.
type CategoryRule struct {
	Category   string
	Weight     float64
	VendorKeys []string
	Keywords   []string
}

// Ruleset is the immutable keyword/rule configuration driving vendor
// detection, municipal detection, classification, and the label patterns the
// field extractors anchor on. It is loaded once and injected into the
// Parser; tests substitute alternate rule sets.
type Ruleset struct {
	KnownVendors []VendorMarker

	// Municipal/tax-authority detection.
	MunicipalMarkers []string
	// CityKeywords plus DebtMarker (or CityMunicipalMarkers) identify a
	// specific municipality whose bills omit the generic markers.
	CityKeywords         []string
	CityMunicipalMarkers []string
	DebtMarker           string
	CityVendorName       string
	GenericMunicipalName string

	// Public-transport card billing.
	TransportMarkers      []string // matched as-is (Hebrew, both directions)
	TransportLatinMarkers []string // matched lowercased
	TransportDescription  string

	Categories []CategoryRule

	// StandardVATRate is the domain's statutory VAT percentage; inferred
	// VAT deviating from it by more than one point while a valid base
	// exists is recomputed from the total/base difference.
	StandardVATRate float64
}

// DefaultRuleset returns the rule tables for Hebrew-locale invoices.
func DefaultRuleset() *Ruleset {
	return &Ruleset{
		KnownVendors: []VendorMarker{
			{Marker: "יול ימר", Display: "רמי לוי תקשורת"},
			{Marker: "פרטנר", Display: `חברת פרטנר תקשורת בע"מ`},
			{Marker: "רנטרפ", Display: `חברת פרטנר תקשורת בע"מ`},
			{Marker: "partner communications", Display: `חברת פרטנר תקשורת בע"מ`},
		},

		MunicipalMarkers: []string{"ארנונה", "עיריית", "רשות מקומית", "תאגיד מים", "onecity"},
		CityKeywords:     []string{"פתח תק", "הווקת חתפ"},
		CityMunicipalMarkers: []string{
			"עיריית", "עריית", "עירייה", "עיריה", "ערייה", "עריה",
			"עירית", "ערית", "העירייה", "העיריה", "תיעיר", "תיעירת",
			"רשות מקומית",
		},
		DebtMarker:           "חוב",
		CityVendorName:       "עיריית פתח תקווה",
		GenericMunicipalName: "רשות מקומית",

		TransportMarkers: []string{
			"תירוביצ הרובחת",
			"תירוביצה הרובחת",
			"תירוביצה הרובחתה",
			"התחבורה הציבורית",
			"וק-בר",
			"רב-קו",
		},
		TransportLatinMarkers: []string{"ravpass", "rav-kav", "ravkav", "rav kav"},
		TransportDescription:  "רב-קו - טעינה",

		Categories: []CategoryRule{
			{
				Category: "transportation",
				Weight:   0.95,
				VendorKeys: []string{
					"תירוביצ הרובחת", "תירוביצה הרובחת", "התחבורה הציבורית",
					"רב-קו", "וק-בר", "ravpass", "rav-kav", "ravkav", "rav kav",
				},
				Keywords: []string{
					"תחבורה ציבורית", "ravpass", "rav-kav", "bus", "train",
					"light rail", "travel card",
				},
			},
			{
				Category: "communication",
				Weight:   1.0,
				VendorKeys: []string{
					"בזק", "bezeq", "cellcom", "partner", "פרטנר", "hot", "yes",
					"סטינג", "stingtv", "רמי לוי", "רמי לוי תקשורת", "rami levy",
					"rami-levy",
				},
				Keywords: []string{"תקשורת", "אינטרנט", "internet", "fiber", "broadband"},
			},
			{
				Category:   "utilities",
				Weight:     0.9,
				VendorKeys: []string{"חשמל", "חברת החשמל", "מים", "תאגיד מים", "ארנונה", "city", "municipality"},
				Keywords:   []string{"bill", "utility"},
			},
			{
				Category:   "software_saas",
				Weight:     0.8,
				VendorKeys: []string{"google", "microsoft", "aws", "stripe", "notion", "slack"},
				Keywords:   []string{"subscription", "license"},
			},
			{
				Category:   "finance",
				Weight:     0.7,
				VendorKeys: []string{"visa", "mastercard", "amex", "isracard"},
				Keywords:   []string{"כרטיס אשראי"},
			},
			{
				Category: "services",
				Weight:   0.6,
				Keywords: []string{"שירות", "service", "support"},
			},
		},

		StandardVATRate: 18.0,
	}
}
