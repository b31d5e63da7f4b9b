package parse

import (
	"reflect"
	"strings"
	"testing"
)

func TestInferInvoiceIDLabelPatterns(t *testing.T) {
	p := testParser()
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled forward", "חשבונית מס מספר: 123456", "123456"},
		{"labeled reversed", "7654321 רפסמ תינובשח", "7654321"},
		{"periodic account", "מס' חשבון תקופתי: 111-222333", "111222333"},
		{"voucher label", "מסלקה/שובר/ספח: 99887766", "99887766"},
		{"none", "אין כאן מספרים ארוכים", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := strings.Split(tt.text, "\n")
			if got := p.inferInvoiceID(lines, tt.text); got != tt.want {
				t.Errorf("inferInvoiceID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInferInvoiceIDBareTokenFallback(t *testing.T) {
	p := testParser()
	lines := []string{"שורת פתיחה", "מזהה 123456789", "טקסט"}
	if got := p.inferInvoiceID(lines, strings.Join(lines, "\n")); got != "123456789" {
		t.Errorf("inferInvoiceID = %q, want bare long token", got)
	}
}

func TestInferInvoiceIDPriorityOrder(t *testing.T) {
	// The invoice-number label must beat the lower-priority generic number
	// label even when the generic one appears first.
	p := testParser()
	text := "5555 רפסמ\nחשבונית מס מספר: 123456"
	if got := p.inferInvoiceID(strings.Split(text, "\n"), text); got != "123456" {
		t.Errorf("inferInvoiceID = %q, want 123456", got)
	}
}

func TestInferInvoiceIDKeepsBestTierPerValue(t *testing.T) {
	// The same number matched by both a generic label and a top-tier voucher
	// label must rank at the voucher tier, beating a mid-tier competitor
	// even though the generic pattern ran first.
	p := testParser()
	text := "מספר 12345678\nמסלקה/שובר/ספח: 87654321\nמס' מסלקה/שובר/ספח: 12345678"
	if got := p.inferInvoiceID(strings.Split(text, "\n"), text); got != "12345678" {
		t.Errorf("inferInvoiceID = %q, want 12345678", got)
	}
}

func TestInferInvoiceDate(t *testing.T) {
	p := testParser()
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled", "תאריך: 15/03/2024", "2024-03-15"},
		{"reversed label", "15/03/2024 :ךיראת", "2024-03-15"},
		{"english label", "Date: 01/02/2024", "2024-02-01"},
		{"bare date fallback", "בלה בלה 07/06/2024 בלה", "2024-06-07"},
		{"none", "אין תאריך", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.inferInvoiceDate(tt.text); got != tt.want {
				t.Errorf("inferInvoiceDate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInferDueDate(t *testing.T) {
	p := testParser()
	if got := p.inferDueDate("לתשלום עד 20/04/2024"); got != "2024-04-20" {
		t.Errorf("inferDueDate = %q, want 2024-04-20", got)
	}
	if got := p.inferDueDate("שום מועד"); got != "" {
		t.Errorf("inferDueDate = %q, want empty", got)
	}
}

func TestInferInvoiceFrom(t *testing.T) {
	p := testParser()
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "legal entity suffix wins",
			lines: []string{"123456", `חברת הדגמה בע"מ`, "רחוב הרצל 1"},
			want:  `חברת הדגמה בע"מ`,
		},
		{
			name:  "first letter line fallback",
			lines: []string{"www.example.co.il", "a@b.co.il", "998877", "שם ספק כלשהו"},
			want:  "שם ספק כלשהו",
		},
		{
			name:  "known vendor override",
			lines: []string{"שורה סתמית", "רנטרפ תרושקת"},
			want:  `חברת פרטנר תקשורת בע"מ`,
		},
		{
			name:  "municipality pattern",
			lines: []string{"עריית רחובות", "חשבון"},
			want:  "עיריית רחובות",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.inferInvoiceFrom(tt.lines, strings.Join(tt.lines, "\n"))
			if got != tt.want {
				t.Errorf("inferInvoiceFrom = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInferInvoiceForTransport(t *testing.T) {
	p := testParser()
	got := p.inferInvoiceFor([]string{"טעינת רב-קו"}, "טעינת רב-קו")
	if got != p.rules.TransportDescription {
		t.Errorf("inferInvoiceFor = %q, want transport description", got)
	}
}

func TestInferInvoiceForDetailsBlock(t *testing.T) {
	p := testParser()
	lines := []string{":םיטרפ", "שירות אחסון אתרים", "תמיכה חודשית", `סה"כ`}
	got := p.inferInvoiceFor(lines, strings.Join(lines, "\n"))
	if got != "שירות אחסון אתרים | תמיכה חודשית" {
		t.Errorf("inferInvoiceFor = %q", got)
	}
}

func TestInferInvoiceForConnectorLine(t *testing.T) {
	p := testParser()
	lines := []string{"חיוב עבור שירותי ייעוץ"}
	got := p.inferInvoiceFor(lines, strings.Join(lines, "\n"))
	if got != "חיוב עבור שירותי ייעוץ" {
		t.Errorf("inferInvoiceFor = %q", got)
	}
}

func TestNormalizeInvoiceForValue(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`: "שירות חודשי`, "שירות חודשי"},
		{"12345", ""},
		{"ארנונה לעסקים לנכס 3", "ארנונה לעסקים"},
		{"חיוב ארנונה שוטף", "ארנונה"},
	}
	for _, tt := range tests {
		if got := normalizeInvoiceForValue(tt.raw); got != tt.want {
			t.Errorf("normalizeInvoiceForValue(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestInferPeriodDateRange(t *testing.T) {
	p := testParser()
	period := p.inferPeriod("תקופת חיוב 01/01/2024 - 31/01/2024")
	if period.Start != "2024-01-01" || period.End != "2024-01-31" {
		t.Fatalf("period = %+v", period)
	}
	if period.Label != "2024-01-01 - 2024-01-31" {
		t.Errorf("label = %q", period.Label)
	}
}

func TestInferPeriodMonthLabel(t *testing.T) {
	p := testParser()
	period := p.inferPeriod("חודש מרץ 2024")
	if period.Start != "2024-03-01" || period.End != "2024-03-31" {
		t.Fatalf("period = %+v", period)
	}
}

func TestInferPeriodAutopay(t *testing.T) {
	p := testParser()
	text := "15/01/2024 וגם 15/02/2024 הוראת הקבע"
	period := p.inferPeriod(text)
	if period.Start != "2024-01-01" {
		t.Errorf("Start = %q, want month start 2024-01-01", period.Start)
	}
	if period.End != "2024-02-14" {
		t.Errorf("End = %q, want day before latest 2024-02-14", period.End)
	}
}

func TestInferReferenceNumbers(t *testing.T) {
	p := testParser()
	text := "PO: ABC-1234\nמספר לקוח: 55667788\nPO: ABC-1234\nAccount Number: XZ-9999"
	got := p.inferReferenceNumbers(text)
	want := []string{"ABC-1234", "55667788", "XZ-9999"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("inferReferenceNumbers = %v, want %v", got, want)
	}
}

func TestInferReferenceNumbersCap(t *testing.T) {
	p := testParser()
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		sb.WriteString("מספר הזמנה: 1000")
		sb.WriteByte(byte('0' + i))
		sb.WriteString("\n")
	}
	if got := p.inferReferenceNumbers(sb.String()); len(got) != maxReferenceNumbers {
		t.Errorf("got %d references, want cap %d", len(got), maxReferenceNumbers)
	}
}
