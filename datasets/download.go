package datasets

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"os/user"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

// FileExists returns true if the file or directory exists.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	if err == nil {
		return true
	}
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	panic(err)
}

// ReplaceTildeInDir replaces a leading "~" with the user's home directory.
// Returns dir unchanged if it doesn't start with "~".
func ReplaceTildeInDir(dir string) string {
	if len(dir) == 0 || dir[0] != '~' {
		return dir
	}
	usr, err := user.Current()
	if err != nil {
		return dir
	}
	return path.Join(usr.HomeDir, dir[1:])
}

// ValidateChecksum verifies the sha256 of the file at the given path. On
// mismatch it removes the file and returns an error.
func ValidateChecksum(p, checkHash string) error {
	hasher := sha256.New()
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err = io.Copy(hasher, f); err != nil {
		return err
	}
	fileHash := hex.EncodeToString(hasher.Sum(nil))
	if fileHash != strings.ToLower(checkHash) {
		err = errors.Errorf("file %q sha256 hash is %q, expected %q; deleting file",
			p, fileHash, checkHash)
		if e2 := os.Remove(p); e2 != nil {
			klog.Warningf("Failed to remove %q after checksum mismatch, please remove it: %+v", p, e2)
		}
		return err
	}
	return nil
}

// DownloadIfMissing downloads url to filePath, unless the file already
// exists. If checkHash is not empty, the downloaded file's sha256 is
// validated against it.
func DownloadIfMissing(url, filePath, checkHash string) error {
	filePath = ReplaceTildeInDir(filePath)
	if FileExists(filePath) {
		return nil
	}
	if err := os.MkdirAll(path.Dir(filePath), 0777); err != nil {
		return errors.Wrapf(err, "creating directory for %q", filePath)
	}
	if err := download(url, filePath); err != nil {
		return err
	}
	if checkHash != "" {
		return ValidateChecksum(filePath, checkHash)
	}
	return nil
}

func download(url, filePath string) error {
	resp, err := http.Get(url)
	if err != nil {
		return errors.Wrapf(err, "downloading %q", url)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("downloading %q: %s", url, resp.Status)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "creating %q", filePath)
	}
	bar := progressbar.DefaultBytes(resp.ContentLength, path.Base(filePath))
	_, err = io.Copy(io.MultiWriter(f, bar), resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// Leave no partial file behind.
		if e2 := os.Remove(filePath); e2 != nil {
			klog.Warningf("Failed to remove partial download %q: %+v", filePath, e2)
		}
		return errors.Wrapf(err, "downloading %q to %q", url, filePath)
	}
	return nil
}
