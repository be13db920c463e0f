package utils

import (
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMemFS struct {
	afero.Fs
	create func(string) (afero.File, error)
}

func (ffs fakeMemFS) Create(name string) (afero.File, error) {
	if ffs.create != nil {
		return ffs.create(name)
	}
	return ffs.Fs.Create(name)
}

type failingCloseFile struct {
	afero.File
}

func (f failingCloseFile) Close() error {
	f.File.Close()
	return errors.New("disk full")
}

func TestFs_WriteFile(t *testing.T) {
	testCases := []struct {
		name          string
		create        func(memFs afero.Fs) func(string) (afero.File, error)
		render        func(w io.Writer) error
		want          string
		expectedError string
	}{
		{
			name: "happy path",
			render: func(w io.Writer) error {
				_, err := io.WriteString(w, "id,baseScore\r\n")
				return err
			},
			want: "id,baseScore\r\n",
		},
		{
			name: "sad path: fs.AppFs.Create returns an error",
			create: func(afero.Fs) func(string) (afero.File, error) {
				return func(s string) (afero.File, error) {
					return nil, errors.New("cannot create file")
				}
			},
			render: func(w io.Writer) error {
				return nil
			},
			expectedError: "unable to open a file: cannot create file",
		},
		{
			name: "sad path: Close returns an error",
			create: func(memFs afero.Fs) func(string) (afero.File, error) {
				return func(s string) (afero.File, error) {
					f, err := memFs.Create(s)
					return failingCloseFile{File: f}, err
				}
			},
			render: func(w io.Writer) error {
				_, err := io.WriteString(w, "id,baseScore\r\n")
				return err
			},
			expectedError: "failed to close a file: disk full",
		},
		{
			name: "sad path: render fails",
			render: func(w io.Writer) error {
				io.WriteString(w, "partial")
				return errors.New("render failed")
			},
			expectedError: "render failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			memFs := afero.NewMemMapFs()
			ffs := fakeMemFS{Fs: memFs}
			if tc.create != nil {
				ffs.create = tc.create(memFs)
			}
			fs := NewFs(ffs)
			err := fs.WriteFile("/out/report.csv", tc.render)
			if tc.expectedError != "" {
				require.EqualError(t, err, tc.expectedError)
				exists, _ := afero.Exists(memFs, "/out/report.csv")
				assert.False(t, exists, "no file should be left behind")
				return
			}
			require.NoError(t, err)
			got, err := afero.ReadFile(memFs, "/out/report.csv")
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestFs_Zstd(t *testing.T) {
	fs := NewFs(afero.NewMemMapFs())
	data := []byte(`{"items":[{"id":"EUVD-2024-1","baseScore":7.5}]}`)

	require.NoError(t, fs.WriteZstd("/raw/exploited/Alpha_VendorA.json.zst", data))

	compressed, err := afero.ReadFile(fs.AppFs, "/raw/exploited/Alpha_VendorA.json.zst")
	require.NoError(t, err)
	assert.NotEqual(t, data, compressed)

	got, err := fs.ReadZstd("/raw/exploited/Alpha_VendorA.json.zst")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = fs.ReadZstd("/raw/missing.json.zst")
	assert.ErrorContains(t, err, "unable to open a file")
}
