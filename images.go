package doctomd

import (
	"errors"
	"fmt"

	"github.com/trezero/docTomd/htmldoc"
	"github.com/trezero/docTomd/ocr"
)

// recognizeImages replaces the alt text of images that point at image parts
// of the MIME message with the text OCR finds in them.
func (cv *conversion) recognizeImages(doc *htmldoc.Document) {
	rec := cv.recognizer
	if rec == nil {
		client, err := ocr.New(ocr.Languages(cv.opts.OCRLanguage)...)
		if err != nil {
			cv.ocrUnavailable(err)
			return
		}
		defer client.Close()
		rec = client
	}

	unavailable := false
	n := doc.SetImageAlt(func(src, _ string) (string, bool) {
		if unavailable {
			return "", false
		}
		part, ok := cv.extract.Resource(src)
		if !ok || !part.IsImage() || !ocr.Supported(part.MediaType) {
			return "", false
		}
		text, err := rec.RecognizeImage(part.Body)
		switch {
		case errors.Is(err, ocr.ErrOCRNotEnabled):
			unavailable = true
			cv.ocrUnavailable(err)
			return "", false
		case err != nil:
			cv.warn(StageRendered, WarnOCRFailed, fmt.Sprintf("%s: %v", src, err))
			return "", false
		case text == "":
			return "", false
		}
		return text, true
	})
	cv.log.Debug().Int("images", n).Msg("recognized image text")
}

func (cv *conversion) ocrUnavailable(err error) {
	cv.warn(StageRendered, WarnOCRUnavailable, err.Error())
	cv.log.Warn().Err(err).Msg("image text recovery skipped")
}
