package mhtml

import (
	"errors"
	"strings"
	"testing"

	"github.com/trezero/docTomd/textenc"
)

func TestDecodeQuotedPrintable(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"equals sign", "=3D", "="},
		{"utf8 bytes", "Caf=C3=A9", "Caf\xC3\xA9"},
		{"lower case hex", "=e2=80=99", "\xE2\x80\x99"},
		{"soft break crlf", "Hello=\r\nWorld", "HelloWorld"},
		{"soft break lf", "Hello=\nWorld", "HelloWorld"},
		{"soft break trailing blanks", "Hello= \t\r\nWorld", "HelloWorld"},
		{"trailing equals", "end=", "end"},
		{"malformed escape kept", "a=ZZb", "a=ZZb"},
		{"short escape kept", "a=4", "a=4"},
		{"space escape", "Hi=20there", "Hi there"},
		{"newline escape", "a=0Ab", "a\nb"},
		{"no escapes", "plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(DecodeQuotedPrintable([]byte(tt.input)))
			if got != tt.want {
				t.Errorf("DecodeQuotedPrintable(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeQuotedPrintable_ThenResolve(t *testing.T) {
	dec := textenc.Resolve(DecodeQuotedPrintable([]byte("Caf=C3=A9")))
	if dec.Text != "Café" {
		t.Errorf("Text = %q, want %q", dec.Text, "Café")
	}
	if dec.Encoding != textenc.UTF8 {
		t.Errorf("Encoding = %q, want %q", dec.Encoding, textenc.UTF8)
	}
}

func utf8Doc(s string) textenc.Decoded {
	return textenc.Decoded{Text: s, Encoding: textenc.UTF8}
}

func TestExtract_MinimalMessage(t *testing.T) {
	msg := "MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/related; boundary=\"X\"\r\n" +
		"--X\r\n" +
		"Content-Type: text/html\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"<html><body><h1>Hi=20there</h1></body></html>\r\n" +
		"--X--"

	res := Extract(utf8Doc(msg))
	want := "<html><body><h1>Hi there</h1></body></html>"
	if res.HTML != want {
		t.Errorf("HTML = %q, want %q", res.HTML, want)
	}
	if res.Degraded {
		t.Errorf("Degraded = true, warning = %v", res.Warning)
	}
	if res.Primary != 0 || len(res.Parts) != 1 {
		t.Errorf("Primary = %d, len(Parts) = %d, want 0 and 1", res.Primary, len(res.Parts))
	}
}

func TestExtract_PrimaryPartSelection(t *testing.T) {
	msg := "MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/related; boundary=\"----=_Part_7_99.1\"\r\n\r\n" +
		"preamble text\r\n" +
		"------=_Part_7_99.1\r\n" +
		"Content-Type: image/png\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"Content-ID: <img1>\r\n\r\n" +
		"iVBORw0KGgo=\r\n" +
		"------=_Part_7_99.1\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n\r\n" +
		"<html><body><p>Caf=C3=A9 =3D good</p></body></html>\r\n" +
		"------=_Part_7_99.1\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"<html><body>not me</body></html>\r\n" +
		"------=_Part_7_99.1--\r\n"

	res := Extract(utf8Doc(msg))
	if res.Degraded {
		t.Fatalf("unexpected degraded extraction: %v", res.Warning)
	}
	if len(res.Parts) != 3 {
		t.Fatalf("len(Parts) = %d, want 3", len(res.Parts))
	}
	if res.Primary != 1 {
		t.Errorf("Primary = %d, want 1", res.Primary)
	}
	want := "<html><body><p>Café = good</p></body></html>"
	if res.HTML != want {
		t.Errorf("HTML = %q, want %q", res.HTML, want)
	}

	img, ok := res.Resource("cid:img1")
	if !ok {
		t.Fatal("Resource(cid:img1) not found")
	}
	if !strings.HasPrefix(string(img.Body), "\x89PNG") {
		t.Errorf("image body = %q, want PNG signature", img.Body)
	}
}

func TestExtract_HTMLSniffedWithoutHeader(t *testing.T) {
	msg := "Content-Type: multipart/related; boundary=b1\n\n" +
		"--b1\n" +
		"Content-Type: application/octet-stream\n\n" +
		"<html><body>guessed</body></html>\n" +
		"--b1--\n"

	res := Extract(utf8Doc(msg))
	if res.Primary != 0 {
		t.Fatalf("Primary = %d, want 0", res.Primary)
	}
	if res.HTML != "<html><body>guessed</body></html>" {
		t.Errorf("HTML = %q", res.HTML)
	}
}

func TestExtract_NestedMultipart(t *testing.T) {
	msg := "MIME-Version: 1.0\n" +
		"Content-Type: multipart/mixed; boundary=outer\n\n" +
		"--outer\n" +
		"Content-Type: multipart/alternative; boundary=inner\n\n" +
		"--inner\n" +
		"Content-Type: text/plain\n\n" +
		"plain\n" +
		"--inner\n" +
		"Content-Type: text/html\n\n" +
		"<p>first</p>\n" +
		"--inner--\n" +
		"--outer\n" +
		"Content-Type: text/html\n\n" +
		"<p>second</p>\n" +
		"--outer--\n"

	res := Extract(utf8Doc(msg))
	if len(res.Parts) != 3 {
		t.Fatalf("len(Parts) = %d, want 3", len(res.Parts))
	}
	if res.HTML != "<p>first</p>" {
		t.Errorf("HTML = %q, want first html part", res.HTML)
	}
}

func TestExtract_DeclaredCharset(t *testing.T) {
	msg := "Content-Type: multipart/related; boundary=\"B\"\r\n\r\n" +
		"--B\r\n" +
		"Content-Type: text/html; charset=windows-1252\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n\r\n" +
		"<p>=93quoted=94</p>\r\n" +
		"--B--\r\n"

	res := Extract(utf8Doc(msg))
	if res.HTML != "<p>“quoted”</p>" {
		t.Errorf("HTML = %q", res.HTML)
	}
	if res.Encoding != textenc.CP1252 {
		t.Errorf("Encoding = %q, want %q", res.Encoding, textenc.CP1252)
	}
}

func TestExtract_Latin1Source(t *testing.T) {
	raw := []byte("Content-Type: multipart/related; boundary=\"B\"\n\n--B\nContent-Type: text/html\n\n<p>Caf\xE9</p>\n--B--\n")
	doc := textenc.Resolve(raw)
	if doc.Encoding != textenc.Latin1 {
		t.Fatalf("source encoding = %q, want latin-1", doc.Encoding)
	}

	res := Extract(doc)
	if res.HTML != "<p>Café</p>" {
		t.Errorf("HTML = %q, want %q", res.HTML, "<p>Café</p>")
	}
}

func TestExtract_WellFormedTree(t *testing.T) {
	msg := "MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/related;\r\n" +
		"\tboundary=\"rel\"; type=\"multipart/alternative\"\r\n\r\n" +
		"--rel\r\n" +
		"Content-Type: multipart/alternative; boundary=\"alt\"\r\n\r\n" +
		"--alt\r\n" +
		"Content-Type: text/plain; charset=us-ascii\r\n\r\n" +
		"Tree & branch\r\n" +
		"--alt\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: base64\r\n\r\n" +
		"PGh0bWw+PGJvZHk+PHA+VHJlZSAmYW1wOyBicmFu\r\n" +
		"Y2g8L3A+PGltZyBzcmM9Imh0dHA6Ly93aWtpL2xv\r\n" +
		"Z28ucG5nIj48L2JvZHk+PC9odG1sPg==\r\n" +
		"--alt--\r\n" +
		"--rel\r\n" +
		"Content-Type: image/png\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"Content-Location: http://wiki/logo.png\r\n\r\n" +
		"iVBORw0KGgo=\r\n" +
		"--rel--\r\n"

	res := Extract(utf8Doc(msg))
	if res.Degraded {
		t.Fatalf("unexpected degraded extraction: %v", res.Warning)
	}
	if len(res.Parts) != 3 {
		t.Fatalf("len(Parts) = %d, want 3", len(res.Parts))
	}
	if res.Primary != 1 {
		t.Errorf("Primary = %d, want 1", res.Primary)
	}
	want := `<html><body><p>Tree &amp; branch</p><img src="http://wiki/logo.png"></body></html>`
	if res.HTML != want {
		t.Errorf("HTML = %q, want %q", res.HTML, want)
	}
	if res.Parts[0].MediaType != "text/plain" || res.Parts[0].Charset() != "us-ascii" {
		t.Errorf("Parts[0] = %q %v", res.Parts[0].MediaType, res.Parts[0].Params)
	}

	img, ok := res.Resource("http://wiki/logo.png")
	if !ok {
		t.Fatal("Resource(http://wiki/logo.png) not found")
	}
	if !img.IsImage() || !strings.HasPrefix(string(img.Body), "\x89PNG") {
		t.Errorf("image = %q %q, want PNG body", img.MediaType, img.Body)
	}
}

func TestExtract_MalformedBoundary(t *testing.T) {
	msg := "MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/related; boundary=\r\n" +
		"\r\n" +
		"Content-Type: text/html\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n\r\n" +
		"<html><body><p>Caf=C3=A9 is=\r\n open</p></body></html>\r\n"

	res := Extract(utf8Doc(msg))
	if !res.Degraded {
		t.Fatal("Degraded = false, want true")
	}
	if !errors.Is(res.Warning, ErrMalformedStructure) {
		t.Errorf("Warning = %v, want ErrMalformedStructure", res.Warning)
	}
	want := "<html><body><p>Café is open</p></body></html>"
	if res.HTML != want {
		t.Errorf("HTML = %q, want %q", res.HTML, want)
	}
	if res.Primary != -1 {
		t.Errorf("Primary = %d, want -1", res.Primary)
	}
}

func TestExtract_InferredBoundary(t *testing.T) {
	msg := "MIME-Version: 1.0\n" +
		"Content-Type: multipart/related\n\n" +
		"------=_Part_1_2.3\n" +
		"Content-Type: text/html\n\n" +
		"<html><body>ok</body></html>\n" +
		"------=_Part_1_2.3--\n"

	res := Extract(utf8Doc(msg))
	if !res.Degraded || !errors.Is(res.Warning, ErrMalformedStructure) {
		t.Errorf("Degraded = %v, Warning = %v, want degraded with warning", res.Degraded, res.Warning)
	}
	if res.Primary != 0 {
		t.Errorf("Primary = %d, want 0", res.Primary)
	}
	if res.HTML != "<html><body>ok</body></html>" {
		t.Errorf("HTML = %q", res.HTML)
	}
}

func TestExtract_NoHTMLAnywhere(t *testing.T) {
	res := Extract(utf8Doc("MIME-Version: 1.0\n\nJust text, no parts."))
	if !res.Degraded || !errors.Is(res.Warning, ErrMalformedStructure) {
		t.Fatalf("Degraded = %v, Warning = %v", res.Degraded, res.Warning)
	}
	if res.HTML != "Just text, no parts." {
		t.Errorf("HTML = %q", res.HTML)
	}
}

func TestStripBoilerplate(t *testing.T) {
	in := "<html><head><style type=\"text/css\">p { color: red; }</style>" +
		"<!--[if gte mso 9]><xml><w:WordDocument></w:WordDocument></xml><![endif]-->" +
		"</head><body>\nExported From Confluence\n<p>Body<o:p></o:p></p></body></html>"

	got := StripBoilerplate(in)
	for _, gone := range []string{"<style", "mso", "<xml", "Exported From Confluence", "<o:p>"} {
		if strings.Contains(got, gone) {
			t.Errorf("StripBoilerplate() kept %q in %q", gone, got)
		}
	}
	if !strings.Contains(got, "<p>Body</p>") {
		t.Errorf("StripBoilerplate() = %q, want body paragraph kept", got)
	}
}
