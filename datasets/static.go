package datasets

import (
	"encoding/gob"
	"image"
	"os"
	"path"

	"github.com/pkg/errors"
)

// StaticImage returns a loader serving fixed in-memory examples. Used in
// tests and for datasets prepared by the caller.
func StaticImage(train, test []Example) ImageLoader {
	return func(string) ([]Example, []Example, error) {
		return train, test, nil
	}
}

// StaticText returns a loader serving a fixed in-memory token stream.
func StaticText(tokens []int32) TextLoader {
	return func(string) ([]int32, error) {
		return tokens, nil
	}
}

// gobImage is the on-disk record of pre-baked image sets (the resized 32x32
// and 16x16 collections are distributed this way).
type gobImage struct {
	Pix           []byte
	Width, Height int
	Gray          bool
	Label         int
}

type gobImageFile struct {
	Train, Test []gobImage
}

// GobImageLoader reads a pre-baked image dataset from filename (relative to
// the store's base directory).
func GobImageLoader(filename string) ImageLoader {
	return func(baseDir string) (train, test []Example, err error) {
		f, err := os.Open(path.Join(baseDir, filename))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "opening pre-baked dataset %q", filename)
		}
		defer func() { _ = f.Close() }()
		var file gobImageFile
		if err := gob.NewDecoder(f).Decode(&file); err != nil {
			return nil, nil, errors.Wrapf(err, "decoding pre-baked dataset %q", filename)
		}
		return decodeGobImages(file.Train), decodeGobImages(file.Test), nil
	}
}

// SaveGobImages writes examples in the pre-baked format read by
// GobImageLoader.
func SaveGobImages(filename string, train, test []Example) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "creating %q", filename)
	}
	file := gobImageFile{Train: encodeGobImages(train), Test: encodeGobImages(test)}
	err = gob.NewEncoder(f).Encode(&file)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return errors.Wrapf(err, "writing %q", filename)
}

func decodeGobImages(records []gobImage) []Example {
	examples := make([]Example, len(records))
	for i, rec := range records {
		rect := image.Rect(0, 0, rec.Width, rec.Height)
		var img image.Image
		if rec.Gray {
			gray := image.NewGray(rect)
			copy(gray.Pix, rec.Pix)
			img = gray
		} else {
			nrgba := image.NewNRGBA(rect)
			copy(nrgba.Pix, rec.Pix)
			img = nrgba
		}
		examples[i] = Example{Image: img, Label: rec.Label}
	}
	return examples
}

func encodeGobImages(examples []Example) []gobImage {
	records := make([]gobImage, len(examples))
	for i, ex := range examples {
		switch img := ex.Image.(type) {
		case *image.Gray:
			records[i] = gobImage{Pix: img.Pix, Width: img.Rect.Dx(), Height: img.Rect.Dy(), Gray: true, Label: ex.Label}
		case *image.NRGBA:
			records[i] = gobImage{Pix: img.Pix, Width: img.Rect.Dx(), Height: img.Rect.Dy(), Label: ex.Label}
		default:
			bounds := ex.Image.Bounds()
			nrgba := image.NewNRGBA(bounds)
			for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
				for x := bounds.Min.X; x < bounds.Max.X; x++ {
					nrgba.Set(x, y, ex.Image.At(x, y))
				}
			}
			records[i] = gobImage{Pix: nrgba.Pix, Width: bounds.Dx(), Height: bounds.Dy(), Label: ex.Label}
		}
	}
	return records
}
