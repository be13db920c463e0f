package runner

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/euvd-report/euvd-report/utils"
)

const (
	rawDir = "raw"
	rawExt = ".json.zst"
	// utils.FileName never emits '@', so it can't show up inside either half.
	pairSep = "@"
)

// RawArchive keeps a zstd-compressed copy of every API response under
// <dir>/raw/<pass>/<product>@<vendor>.json.zst. A pair queried twice in the
// same pass gets a -2, -3, ... suffix instead of overwriting the first copy.
type RawArchive struct {
	appFs afero.Fs
	fs    utils.Fs
	dir   string
}

func NewRawArchive(fs afero.Fs, dir string) RawArchive {
	return RawArchive{appFs: fs, fs: utils.NewFs(fs), dir: dir}
}

func (a RawArchive) Archive(product, vendor string, exploited *bool, body []byte) error {
	path, err := a.freePath(product, vendor, exploited)
	if err != nil {
		return err
	}
	return a.fs.WriteZstd(path, body)
}

// Path is where the first response for the pair is stored.
func (a RawArchive) Path(product, vendor string, exploited *bool) string {
	return a.path(product, vendor, exploited, 1)
}

func (a RawArchive) path(product, vendor string, exploited *bool, n int) string {
	pass := "unfiltered"
	if exploited != nil {
		pass = passLabel(*exploited)
	}
	name := utils.FileName(product) + pairSep + utils.FileName(vendor)
	if n > 1 {
		name = fmt.Sprintf("%s-%d", name, n)
	}
	return filepath.Join(a.dir, rawDir, pass, name+rawExt)
}

func (a RawArchive) freePath(product, vendor string, exploited *bool) (string, error) {
	for n := 1; ; n++ {
		path := a.path(product, vendor, exploited, n)
		exists, err := afero.Exists(a.appFs, path)
		if err != nil {
			return "", xerrors.Errorf("unable to check %s: %w", path, err)
		}
		if !exists {
			return path, nil
		}
	}
}

// ReadRaw returns the decompressed body stored at path.
func (a RawArchive) ReadRaw(path string) ([]byte, error) {
	return a.fs.ReadZstd(path)
}
