// minber/utils/images.go
package utils

import (
	"bytes"
	"fmt"
	_ "image/gif" // register decoders for imaging.Decode
	_ "image/jpeg"
	_ "image/png"

	"minber/config"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// MakeThumbnail decodes an uploaded image, rejects absurd dimensions,
// and renders a JPEG thumbnail bounded by the configured size.
func MakeThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > config.MaxWidth || bounds.Dy() > config.MaxHeight {
		return nil, fmt.Errorf("image dimensions %dx%d exceed limit", bounds.Dx(), bounds.Dy())
	}

	thumb := imaging.Fit(img, config.ThumbnailWidth, config.ThumbnailHeight, imaging.Lanczos)
	var out bytes.Buffer
	if err := imaging.Encode(&out, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("could not encode thumbnail: %w", err)
	}
	return out.Bytes(), nil
}
