package utils

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

type Fs struct {
	AppFs afero.Fs
}

func NewFs(appFs afero.Fs) Fs {
	return Fs{AppFs: appFs}
}

// WriteFile renders into memory first, so a failed render never leaves a
// partial file behind. A file that can't be fully written or closed is removed.
func (fs Fs) WriteFile(filePath string, render func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}

	if err := fs.AppFs.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return xerrors.Errorf("mkdir error: %w", err)
	}

	f, err := fs.AppFs.Create(filePath)
	if err != nil {
		return xerrors.Errorf("unable to open a file: %w", err)
	}

	if _, err = buf.WriteTo(f); err != nil {
		f.Close()
		fs.AppFs.Remove(filePath)
		return xerrors.Errorf("failed to save a file: %w", err)
	}
	if err = f.Close(); err != nil {
		fs.AppFs.Remove(filePath)
		return xerrors.Errorf("failed to close a file: %w", err)
	}
	return nil
}

// WriteZstd stores data zstd-compressed at filePath.
func (fs Fs) WriteZstd(filePath string, data []byte) error {
	return fs.WriteFile(filePath, func(w io.Writer) error {
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return xerrors.Errorf("zstd writer error: %w", err)
		}
		if _, err = enc.Write(data); err != nil {
			enc.Close()
			return xerrors.Errorf("zstd write error: %w", err)
		}
		if err = enc.Close(); err != nil {
			return xerrors.Errorf("zstd close error: %w", err)
		}
		return nil
	})
}

// ReadZstd reads back a file written by WriteZstd.
func (fs Fs) ReadZstd(filePath string) ([]byte, error) {
	f, err := fs.AppFs.Open(filePath)
	if err != nil {
		return nil, xerrors.Errorf("unable to open a file: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, xerrors.Errorf("zstd reader error: %w", err)
	}
	defer dec.Close()

	b, err := io.ReadAll(dec)
	if err != nil {
		return nil, xerrors.Errorf("zstd read error: %w", err)
	}
	return b, nil
}
