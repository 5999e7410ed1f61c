//go:build !ocr

package ocr

// Client stands in for the Tesseract client in builds without OCR.
type Client struct{}

// New always fails with ErrOCRNotEnabled.
func New(languages ...string) (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op. It is safe on a nil Client.
func (c *Client) Close() error {
	return nil
}

// RecognizeImage always fails with ErrOCRNotEnabled.
func (c *Client) RecognizeImage(data []byte) (string, error) {
	return "", ErrOCRNotEnabled
}
