//go:build ocr

package ocr

import (
	"bytes"
	"image/png"
	"testing"
)

func newClient(t *testing.T, languages ...string) *Client {
	t.Helper()
	client, err := New(languages...)
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRecognizeImage(t *testing.T) {
	client := newClient(t)

	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(100, 50)); err != nil {
		t.Fatal(err)
	}
	// A line drawing has no reliable text; only the call path is checked.
	if _, err := client.RecognizeImage(buf.Bytes()); err != nil {
		t.Errorf("RecognizeImage() error = %v", err)
	}
}

func TestRecognizeImage_Unsupported(t *testing.T) {
	client := newClient(t, "eng")
	if _, err := client.RecognizeImage([]byte("not an image")); err != ErrUnsupportedImage {
		t.Errorf("RecognizeImage() error = %v, want ErrUnsupportedImage", err)
	}
}

func TestClose_Twice(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
