//go:build ocr

package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Client runs Tesseract on prepared images. A Client is not safe for
// concurrent use; close it when done.
type Client struct {
	tess *gosseract.Client
}

// New starts a Tesseract client for the given languages (DefaultLanguage
// when none are given). Screenshots rarely hold a single text block, so
// sparse-text segmentation is used.
func New(languages ...string) (*Client, error) {
	if len(languages) == 0 {
		languages = []string{DefaultLanguage}
	}
	tess := gosseract.NewClient()
	if err := tess.SetLanguage(languages...); err != nil {
		tess.Close()
		return nil, fmt.Errorf("setting OCR language %s: %w", strings.Join(languages, "+"), err)
	}
	if err := tess.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		tess.Close()
		return nil, fmt.Errorf("setting page segmentation: %w", err)
	}
	return &Client{tess: tess}, nil
}

// Close releases the Tesseract client. It is safe on a nil or closed Client.
func (c *Client) Close() error {
	if c == nil || c.tess == nil {
		return nil
	}
	err := c.tess.Close()
	c.tess = nil
	return err
}

// RecognizeImage returns the text in an image of any format PreparePNG
// accepts, with runs of whitespace collapsed to single spaces.
func (c *Client) RecognizeImage(data []byte) (string, error) {
	prepared, err := PreparePNG(data)
	if err != nil {
		return "", err
	}
	if err := c.tess.SetImageFromBytes(prepared); err != nil {
		return "", fmt.Errorf("loading image: %w", err)
	}
	text, err := c.tess.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return strings.Join(strings.Fields(text), " "), nil
}
