package datasets

import (
	"compress/gzip"
	"encoding/binary"
	"image"
	"io"
	"net/url"
	"os"
	"path"

	"github.com/pkg/errors"
)

// The MNIST and Fashion-MNIST distributions share the idx file format.
const (
	mnistURL        = "https://storage.googleapis.com/cvdf-datasets/mnist"
	fashionMNISTURL = "http://fashion-mnist.s3-website.eu-central-1.amazonaws.com"

	idxImageMagic = 0x00000803
	idxLabelMagic = 0x00000801
)

var mnistFiles = map[string][2]string{
	"train": {"train-images-idx3-ubyte.gz", "train-labels-idx1-ubyte.gz"},
	"test":  {"t10k-images-idx3-ubyte.gz", "t10k-labels-idx1-ubyte.gz"},
}

// idxImageLoader builds an ImageLoader for an idx-format dataset served at
// baseURL, downloading the four files on first use.
func idxImageLoader(baseURL string, files map[string][2]string) ImageLoader {
	return func(baseDir string) (train, test []Example, err error) {
		dir := path.Join(baseDir, path.Base(baseURL))
		for _, pair := range files {
			for _, file := range pair {
				fileURL, _ := url.JoinPath(baseURL, file)
				if err = DownloadIfMissing(fileURL, path.Join(dir, file), ""); err != nil {
					return nil, nil, err
				}
			}
		}
		if train, err = loadIdxSplit(dir, files["train"]); err != nil {
			return nil, nil, err
		}
		if test, err = loadIdxSplit(dir, files["test"]); err != nil {
			return nil, nil, err
		}
		return train, test, nil
	}
}

func loadIdxSplit(dir string, pair [2]string) ([]Example, error) {
	images, err := loadIdxImages(path.Join(dir, pair[0]))
	if err != nil {
		return nil, err
	}
	labels, err := loadIdxLabels(path.Join(dir, pair[1]))
	if err != nil {
		return nil, err
	}
	if len(images) != len(labels) {
		return nil, errors.Errorf("idx split %v: %d images but %d labels", pair, len(images), len(labels))
	}
	examples := make([]Example, len(images))
	for i := range images {
		examples[i] = Example{Image: images[i], Label: int(labels[i])}
	}
	return examples, nil
}

func openGzip(filename string) (*os.File, *gzip.Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening %q", filename)
	}
	r, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, errors.Wrapf(err, "gunzipping %q", filename)
	}
	return f, r, nil
}

func loadIdxImages(filename string) ([]image.Image, error) {
	f, r, err := openGzip(filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close(); _ = f.Close() }()

	var header struct {
		Magic, NumImages, Height, Width int32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrapf(err, "reading idx header of %q", filename)
	}
	if header.Magic != idxImageMagic {
		return nil, errors.Errorf("%q is not an idx image file (magic 0x%08x)", filename, header.Magic)
	}

	width, height := int(header.Width), int(header.Height)
	images := make([]image.Image, header.NumImages)
	buf := make([]byte, width*height)
	for i := range images {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrapf(err, "reading image %d of %q", i, filename)
		}
		img := image.NewGray(image.Rect(0, 0, width, height))
		copy(img.Pix, buf)
		images[i] = img
	}
	return images, nil
}

func loadIdxLabels(filename string) ([]int8, error) {
	f, r, err := openGzip(filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close(); _ = f.Close() }()

	var header struct {
		Magic, NumLabels int32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrapf(err, "reading idx header of %q", filename)
	}
	if header.Magic != idxLabelMagic {
		return nil, errors.Errorf("%q is not an idx label file (magic 0x%08x)", filename, header.Magic)
	}

	labels := make([]int8, header.NumLabels)
	if err := binary.Read(r, binary.BigEndian, &labels); err != nil {
		return nil, errors.Wrapf(err, "reading labels of %q", filename)
	}
	return labels, nil
}
