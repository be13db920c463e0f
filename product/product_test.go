package product_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/euvd-report/euvd-report/product"
	"github.com/euvd-report/euvd-report/types"
)

var wantProducts = []types.ProductRef{
	{Name: "Alpha", Vendor: "VendorA"},
	{Name: "Beta & Gamma", Vendor: "VendorB"},
	{Name: "Alpha", Vendor: "VendorA"},
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    []types.ProductRef
		wantErr string
	}{
		{
			name: "happy path XML",
			path: "testdata/products.xml",
			want: wantProducts,
		},
		{
			name: "happy path YAML",
			path: "testdata/products.yaml",
			want: wantProducts,
		},
		{
			name:    "sad path, missing vendor",
			path:    "testdata/missing_vendor.xml",
			wantErr: "product #2: missing vendor",
		},
		{
			name:    "sad path, missing name",
			path:    "testdata/missing_name.yml",
			wantErr: "product #1: missing name",
		},
		{
			name:    "sad path, broken XML",
			path:    "testdata/broken.xml",
			wantErr: "failed to decode XML product list",
		},
		{
			name:    "sad path, no such file",
			path:    "testdata/unknown.xml",
			wantErr: "unable to read product list",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := product.Load(afero.NewOsFs(), tt.path)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_MemMapFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/products.xml",
		[]byte(`<products><product><name></name><vendor>VendorA</vendor></product></products>`), 0644))

	got, err := product.Load(fs, "/products.xml")
	require.NoError(t, err)
	assert.Equal(t, []types.ProductRef{{Name: "", Vendor: "VendorA"}}, got)
}

func TestFetch(t *testing.T) {
	ts := httptest.NewServer(http.FileServer(http.Dir("testdata")))
	defer ts.Close()

	tests := []struct {
		name    string
		src     string
		want    []types.ProductRef
		wantLog bool
		wantErr string
	}{
		{
			name:    "remote XML",
			src:     ts.URL + "/products.xml",
			want:    wantProducts,
			wantLog: true,
		},
		{
			name:    "remote YAML",
			src:     ts.URL + "/products.yaml",
			want:    wantProducts,
			wantLog: true,
		},
		{
			name: "local path",
			src:  "testdata/products.xml",
			want: wantProducts,
		},
		{
			name:    "sad path, 404",
			src:     ts.URL + "/unknown.xml",
			wantErr: "bad response code: 404",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			ctx := zerolog.New(&logs).WithContext(context.Background())

			got, err := product.Fetch(ctx, afero.NewOsFs(), tt.src)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantLog, strings.Contains(logs.String(), "Downloading product list"), logs.String())
		})
	}
}
