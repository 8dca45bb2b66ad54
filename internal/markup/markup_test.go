package markup

import (
	"reflect"
	"testing"
)

func TestScanSpans(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []Span
	}{
		{"bold", "**bold**", []Span{{Bold, "bold"}}},
		{"two italics", "*a* and *b*", []Span{{Italic, "a"}, {Plain, " and "}, {Italic, "b"}}},
		{"underline", "x _u_ y", []Span{{Plain, "x "}, {Underline, "u"}, {Plain, " y"}}},
		{"bold swallows single star", "**a*b**", []Span{{Bold, "a*b"}}},
		{"unclosed bold is literal", "**bold", []Span{{Plain, "**bold"}}},
		{"unclosed italic is literal", "*open", []Span{{Plain, "*open"}}},
		{"unclosed underline is literal", "snake_case", []Span{{Plain, "snake_case"}}},
		{"no nesting", "**_x_**", []Span{{Bold, "_x_"}}},
		{"underline content verbatim", "_**x**_", []Span{{Underline, "**x**"}}},
		{"mixed", "a **b** *c* _d_", []Span{
			{Plain, "a "}, {Bold, "b"}, {Plain, " "}, {Italic, "c"}, {Plain, " "}, {Underline, "d"},
		}},
		{"unicode literal", "grüß *dich*", []Span{{Plain, "grüß "}, {Italic, "dich"}}},
		{"empty line", "", nil},
		{"empty underline joins plain", "a__b", []Span{{Plain, "ab"}}},
		{"empty bold joins plain", "a****b", []Span{{Plain, "ab"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ScanSpans(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ScanSpans(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestScanSpans_ItalicRejectedAfterStar(t *testing.T) {
	// The closing candidate for the italic at index 2 is preceded by '*'.
	got := ScanSpans("a **")
	if PlainText(got) != "a **" {
		t.Errorf("got %+v", got)
	}
	// Single star directly after an unmatched bold opener never opens italic.
	got = ScanSpans("**x*")
	if len(got) != 1 || got[0].Style != Plain || got[0].Text != "**x*" {
		t.Errorf("got %+v", got)
	}
}

func TestParseLine_Headings(t *testing.T) {
	cases := []struct {
		in    string
		level int
		text  string
	}{
		{"# One", 1, "One"},
		{"## Two", 2, "Two"},
		{"### Three", 3, "Three"},
		{"  ## Indented  ", 2, "Indented"},
		{"### **not bold**", 3, "**not bold**"},
	}
	for _, tc := range cases {
		l := ParseLine(tc.in)
		if l.Kind != KindHeading || l.Level != tc.level || l.Text != tc.text {
			t.Errorf("ParseLine(%q) = %+v", tc.in, l)
		}
	}
	for _, in := range []string{"#nospace", "#### four", "#"} {
		if l := ParseLine(in); l.Kind != KindText {
			t.Errorf("ParseLine(%q) kind = %v, want text", in, l.Kind)
		}
	}
}

func TestParseLine_Image(t *testing.T) {
	l := ParseLine("  ![cat.png]  ")
	if l.Kind != KindImage || l.Image != "cat.png" {
		t.Fatalf("got %+v", l)
	}
	for _, in := range []string{"see ![cat.png]", "![cat.png] trailing", "![", "!]"} {
		if l := ParseLine(in); l.Kind == KindImage {
			t.Errorf("ParseLine(%q) should not be an image", in)
		}
	}
}

func TestParse_LineCount(t *testing.T) {
	lines := Parse("a\r\n\n# h\n![x.png]\n")
	if len(lines) != 4 {
		t.Fatalf("len = %d, want 4", len(lines))
	}
	if PlainText(lines[0].Spans) != "a" || lines[1].Kind != KindText || lines[2].Kind != KindHeading || lines[3].Kind != KindImage {
		t.Errorf("lines = %+v", lines)
	}
	if Parse("") != nil {
		t.Error("empty text should parse to no lines")
	}
}

func TestImageRefs(t *testing.T) {
	refs := ImageRefs("![a.png]\ntext ![b.png]\n![a.png]\n![c.png]")
	if !reflect.DeepEqual(refs, []string{"a.png", "c.png"}) {
		t.Errorf("refs = %v", refs)
	}
}

func TestMarkers(t *testing.T) {
	if HeadingMarker(2) != "## " || HeadingMarker(0) != "# " || HeadingMarker(9) != "### " {
		t.Error("unexpected heading markers")
	}
	if ImageToken("x.png") != "![x.png]" {
		t.Error("unexpected image token")
	}
}
