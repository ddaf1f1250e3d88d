package gradle

import "testing"

func TestQuoteUnescape(t *testing.T) {
	cases := []struct {
		in     string
		quoted string
	}{
		{"plain", `'plain'`},
		{"it's", `'it\'s'`},
		{`back\slash`, `'back\\slash'`},
		{"${interp}", `'\${interp}'`},
		{"line\nbreak", `'line\nbreak'`},
		{"tab\there", `'tab\there'`},
		{"", `''`},
	}
	for _, tc := range cases {
		if got := quote(tc.in); got != tc.quoted {
			t.Errorf("quote(%q) = %s, want %s", tc.in, got, tc.quoted)
		}
		inner := tc.quoted[1 : len(tc.quoted)-1]
		if got := unescape(inner); got != tc.in {
			t.Errorf("unescape(%s) = %q, want %q", inner, got, tc.in)
		}
	}
}

func TestQuoteControlChars(t *testing.T) {
	if got := quote("a\x01b"); got != "'a\\u0001b'" {
		t.Errorf("quote control = %s", got)
	}
	if got := unescape("a\\u0001b"); got != "a\x01b" {
		t.Errorf("unescape control = %q", got)
	}
}
