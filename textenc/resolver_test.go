package textenc

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		wantText string
		wantEnc  string
	}{
		{"empty", []byte{}, "", UTF8},
		{"ascii", []byte("hello"), "hello", UTF8},
		{"utf8 multibyte", []byte("Café"), "Café", UTF8},
		{"utf8 bom dropped", []byte("\xEF\xBB\xBFhello"), "hello", UTF8},
		{"latin1 e-acute", []byte{'C', 'a', 'f', 0xE9}, "Café", Latin1},
		{"latin1 truncated utf8", []byte{0xC3}, "Ã", Latin1},
		{"latin1 c1 control", []byte{0x93, 'x', 0x94}, "\u0093x\u0094", Latin1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.input)
			if got.Text != tt.wantText {
				t.Errorf("Resolve(%q).Text = %q, want %q", tt.input, got.Text, tt.wantText)
			}
			if got.Encoding != tt.wantEnc {
				t.Errorf("Resolve(%q).Encoding = %q, want %q", tt.input, got.Encoding, tt.wantEnc)
			}
			if got.Lossy {
				t.Errorf("Resolve(%q).Lossy = true, want false", tt.input)
			}
		})
	}
}

func TestResolve_NeverFails(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0xFF, 0xFE, 0xFD},
		{0x80, 0x81, 0x8D, 0x8F, 0x90, 0x9D},
		{0xE2, 0x82},
		{0x00, 0x00, 0x00},
	}
	for _, in := range inputs {
		dec, err := Default().Resolve(in)
		if err != nil {
			t.Errorf("Resolve(%v) returned error %v", in, err)
		}
		if dec.Encoding == "" {
			t.Errorf("Resolve(%v) returned empty encoding name", in)
		}
	}
}

func TestResolver_CustomChain(t *testing.T) {
	r, err := NewResolver([]string{"windows-1252", "utf-8"})
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	got, err := r.Resolve([]byte{0x93, 'q', 0x94})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Encoding != CP1252 {
		t.Errorf("Encoding = %q, want %q", got.Encoding, CP1252)
	}
	if got.Text != "“q”" {
		t.Errorf("Text = %q, want %q", got.Text, "“q”")
	}
}

func TestResolver_LossyFallback(t *testing.T) {
	r, err := NewResolver([]string{"utf-8"})
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	got, err := r.Resolve([]byte{'a', 0xFF, 'b'})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !got.Lossy {
		t.Error("expected lossy decode")
	}
	if got.Text != "a\uFFFDb" {
		t.Errorf("Text = %q, want %q", got.Text, "a\uFFFDb")
	}
}

func TestResolver_WithoutLossyFallback(t *testing.T) {
	r, err := NewResolver([]string{"utf-8"}, WithoutLossyFallback())
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	_, err = r.Resolve([]byte{0xFF})
	if !errors.Is(err, ErrDecodingExhausted) {
		t.Errorf("Resolve() error = %v, want ErrDecodingExhausted", err)
	}
}

func TestResolver_Prepend(t *testing.T) {
	r := Default().Prepend("Windows-1252")
	got := r.Names()
	want := []string{CP1252, UTF8, Latin1}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if same := Default().Prepend("no-such-charset"); same != Default() {
		t.Error("Prepend with unknown name should return the receiver")
	}
}

func TestNewResolver_UnknownName(t *testing.T) {
	if _, err := NewResolver([]string{"utf-8", "klingon-8"}); err == nil {
		t.Error("expected error for unknown encoding name")
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"UTF-8", UTF8},
		{"latin1", Latin1},
		{"ISO-8859-1", Latin1},
		{"windows-1252", CP1252},
		{"ISO-8859-15", "iso-8859-15"},
	}
	for _, tt := range tests {
		got, enc, err := Lookup(tt.name)
		if err != nil {
			t.Errorf("Lookup(%q) error = %v", tt.name, err)
			continue
		}
		if enc == nil {
			t.Errorf("Lookup(%q) returned nil encoding", tt.name)
		}
		if got != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if Valid("") {
		t.Error("Valid(\"\") = true, want false")
	}
}

func TestEncode(t *testing.T) {
	b, err := Encode("Café", Latin1)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if string(b) != "Caf\xE9" {
		t.Errorf("Encode() = %q, want %q", b, "Caf\xE9")
	}

	b, err = Encode("Café", UTF8)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if string(b) != "Café" {
		t.Errorf("Encode() = %q, want %q", b, "Café")
	}
}
