package datasets

import (
	"archive/tar"
	"compress/gzip"
	"image"
	"io"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// CIFAR binary distributions, from https://www.cs.toronto.edu/~kriz/cifar.html.
const (
	cifar10URL      = "https://www.cs.toronto.edu/~kriz/cifar-10-binary.tar.gz"
	cifar10TarName  = "cifar-10-binary.tar.gz"
	cifar10Checksum = "c4a38c50a1bc5f3a1c5537f2155ab9d68f9f25eb1ed8d9ddda3db29a59bca1dd"

	cifar100URL      = "https://www.cs.toronto.edu/~kriz/cifar-100-binary.tar.gz"
	cifar100TarName  = "cifar-100-binary.tar.gz"
	cifar100Checksum = "58a81ae192c23a4be8b1804d68e518ed807d710a4eb253b1f2a199162a40d8ec"

	cifarSide   = 32
	cifarPixels = cifarSide * cifarSide
)

func cifar10Loader(baseDir string) (train, test []Example, err error) {
	tarPath := path.Join(baseDir, cifar10TarName)
	if err = DownloadIfMissing(cifar10URL, tarPath, cifar10Checksum); err != nil {
		return nil, nil, err
	}
	// Records: 1 label byte + 3072 image bytes.
	return loadCifarTar(tarPath, 1, 0)
}

func cifar100Loader(baseDir string) (train, test []Example, err error) {
	tarPath := path.Join(baseDir, cifar100TarName)
	if err = DownloadIfMissing(cifar100URL, tarPath, cifar100Checksum); err != nil {
		return nil, nil, err
	}
	// Records: coarse + fine label bytes + 3072 image bytes; the fine label
	// is the class.
	return loadCifarTar(tarPath, 2, 1)
}

// loadCifarTar reads every *.bin member of the tarball; members with "test"
// in their name form the test split, the rest the training split.
func loadCifarTar(tarPath string, labelBytes, labelIndex int) (train, test []Example, err error) {
	f, err := os.Open(tarPath)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening %q", tarPath)
	}
	defer func() { _ = f.Close() }()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "gunzipping %q", tarPath)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrapf(err, "reading tar %q", tarPath)
		}
		if header.Typeflag != tar.TypeReg || !strings.HasSuffix(header.Name, ".bin") {
			continue
		}
		examples, err := loadCifarRecords(tr, labelBytes, labelIndex)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "reading %q of %q", header.Name, tarPath)
		}
		if strings.Contains(path.Base(header.Name), "test") {
			test = append(test, examples...)
		} else {
			train = append(train, examples...)
		}
	}
	if len(train) == 0 || len(test) == 0 {
		return nil, nil, errors.Errorf("%q held no train or no test records", tarPath)
	}
	return train, test, nil
}

func loadCifarRecords(r io.Reader, labelBytes, labelIndex int) ([]Example, error) {
	record := make([]byte, labelBytes+3*cifarPixels)
	var examples []Example
	for {
		if _, err := io.ReadFull(r, record); err == io.EOF {
			return examples, nil
		} else if err == io.ErrUnexpectedEOF {
			return nil, errors.New("truncated record")
		} else if err != nil {
			return nil, err
		}
		img := image.NewNRGBA(image.Rect(0, 0, cifarSide, cifarSide))
		pixels := record[labelBytes:]
		// Channel-planar RGB, row-major within each plane.
		for i := 0; i < cifarPixels; i++ {
			img.Pix[4*i+0] = pixels[i]
			img.Pix[4*i+1] = pixels[cifarPixels+i]
			img.Pix[4*i+2] = pixels[2*cifarPixels+i]
			img.Pix[4*i+3] = 0xff
		}
		examples = append(examples, Example{Image: img, Label: int(record[labelIndex])})
	}
}
