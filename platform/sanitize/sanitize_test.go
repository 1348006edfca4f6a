package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := map[string]string{
		"<b>Hello</b> world":            "Hello world",
		"&lt;script&gt;x&lt;/script&gt;": "x",
		"line1\r\n\r\n\r\n\r\nline2":     "line1\n\nline2",
		"  plain  ":                     "plain",
	}
	for in, want := range cases {
		if got := Text(in); got != want {
			t.Errorf("Text(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestName(t *testing.T) {
	if got := Name("  Acme   d.o.o. "); got != "Acme d.o.o." {
		t.Fatalf("got %q", got)
	}
	if TextPtr(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
