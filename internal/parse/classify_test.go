package parse

import "testing"

func TestClassifyMunicipalShortCircuit(t *testing.T) {
	c := testParser().classify("טקסט כלשהו", "עיריית פתח תקווה", true)
	if c.Category == nil || *c.Category != MunicipalCategory {
		t.Fatalf("Category = %v, want %q", c.Category, MunicipalCategory)
	}
	if c.Confidence == nil || *c.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", c.Confidence)
	}
	if c.Rule == nil || *c.Rule != "municipal_flag" {
		t.Errorf("Rule = %v, want municipal_flag", c.Rule)
	}
}

func TestClassifyVendorMatch(t *testing.T) {
	c := testParser().classify("חשבונית", `חברת פרטנר תקשורת בע"מ`, false)
	if c.Category == nil || *c.Category != "communication" {
		t.Fatalf("Category = %v, want communication", c.Category)
	}
	if c.Confidence == nil || *c.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want full rule weight 1.0", c.Confidence)
	}
	if c.Rule == nil || *c.Rule != "vendor:פרטנר" {
		t.Errorf("Rule = %v, want vendor:פרטנר", c.Rule)
	}
}

func TestClassifyKeywordMatchDiscounted(t *testing.T) {
	c := testParser().classify("חיוב עבור אינטרנט ביתי", "", false)
	if c.Category == nil || *c.Category != "communication" {
		t.Fatalf("Category = %v, want communication", c.Category)
	}
	// Keyword-only matches carry 85% of the rule weight.
	if c.Confidence == nil || *c.Confidence != 0.85 {
		t.Errorf("Confidence = %v, want 0.85", c.Confidence)
	}
	if c.Rule == nil || *c.Rule != "keyword:אינטרנט" {
		t.Errorf("Rule = %v, want keyword:אינטרנט", c.Rule)
	}
}

func TestClassifyRuleOrder(t *testing.T) {
	// A transport vendor key must win over the later communication rule
	// even when the text also carries communication keywords.
	c := testParser().classify("תקשורת וגם נסיעות", "rav-kav services", false)
	if c.Category == nil || *c.Category != "transportation" {
		t.Fatalf("Category = %v, want transportation", c.Category)
	}
}

func TestClassifyNoMatch(t *testing.T) {
	c := testParser().classify("nothing relevant here", "Acme Corp", false)
	if c.Category != nil || c.Confidence != nil || c.Rule != nil {
		t.Errorf("classify = %+v, want all nil", c)
	}
}
