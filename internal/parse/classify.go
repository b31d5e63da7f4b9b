package parse

import "strings"

// Classification is the outcome of category assignment. All fields are nil
// when no rule matched.
type Classification struct {
	Category   *string
	Confidence *float64
	Rule       *string
}

// MunicipalCategory is the fixed category assigned to municipal/tax-authority
// bills, bypassing the rule scan.
const MunicipalCategory = "municipal_tax"

// classify assigns a spending category. Municipal bills short-circuit to
// MunicipalCategory at full confidence. Otherwise rules run in declaration
// order; within a rule, vendor-name matches beat full-text keyword matches,
// and a keyword-only match carries 85% of the rule weight. First match wins.
func (p *Parser) classify(text, vendor string, municipal bool) Classification {
	if municipal {
		return newClassification(MunicipalCategory, 1.0, "municipal_flag")
	}
	textLower := strings.ToLower(text)
	vendorLower := strings.ToLower(vendor)
	for _, rule := range p.rules.Categories {
		for _, key := range rule.VendorKeys {
			if strings.Contains(vendorLower, strings.ToLower(key)) {
				return newClassification(rule.Category, rule.Weight, "vendor:"+key)
			}
		}
		for _, keyword := range rule.Keywords {
			if strings.Contains(textLower, strings.ToLower(keyword)) {
				return newClassification(rule.Category, rule.Weight*0.85, "keyword:"+keyword)
			}
		}
	}
	return Classification{}
}

func newClassification(category string, confidence float64, rule string) Classification {
	return Classification{Category: &category, Confidence: &confidence, Rule: &rule}
}
