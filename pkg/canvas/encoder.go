package canvas

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/mhoffm/paperdash/pkg/errors"
)

// EncodePNG serializes a grayscale image to PNG bytes.
func EncodePNG(img *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncode, err, "encode png")
	}
	return buf.Bytes(), nil
}

// WriteFile writes data to path atomically: the bytes land in a temporary
// file in the destination directory and are renamed into place, so a file
// server reading the output concurrently never observes a partial image.
// The parent directory is created if missing. Failure is an ENCODE_ERROR
// since producing the artifact is the entire point of the run.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(errors.ErrCodeEncode, err, "create output directory %s", dir)
		}
	}
	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeEncode, err, "write %s", path)
	}
	return nil
}
