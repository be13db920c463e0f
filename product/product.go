package product

import (
	"context"
	"encoding/xml"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"github.com/euvd-report/euvd-report/types"
	"github.com/euvd-report/euvd-report/utils"
)

type xmlProducts struct {
	Products []xmlProduct `xml:"product"`
}

type xmlProduct struct {
	Name   *string `xml:"name"`
	Vendor *string `xml:"vendor"`
}

type yamlProducts struct {
	Products []yamlProduct `yaml:"products"`
}

type yamlProduct struct {
	Name   *string `yaml:"name"`
	Vendor *string `yaml:"vendor"`
}

// Load reads the product list at path. The format is chosen by extension:
// .yaml and .yml are YAML, anything else is XML.
func Load(fs afero.Fs, path string) ([]types.ProductRef, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, xerrors.Errorf("unable to read product list %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(b)
	default:
		return parseXML(b)
	}
}

// Fetch downloads a product list from any go-getter source and loads it.
// Plain local paths are read as they are. It logs through zerolog.Ctx(ctx).
func Fetch(ctx context.Context, fs afero.Fs, src string) ([]types.ProductRef, error) {
	if !isRemote(src) {
		return Load(fs, src)
	}

	zerolog.Ctx(ctx).Info().Str("source", src).Msg("Downloading product list")
	path, err := utils.DownloadToTempFile(ctx, src)
	if err != nil {
		return nil, xerrors.Errorf("unable to download product list: %w", err)
	}
	defer afero.NewOsFs().Remove(path)

	// the temp file has no extension, so keep the one from the source
	if ext := filepath.Ext(strings.SplitN(src, "?", 2)[0]); ext != "" {
		renamed := path + ext
		if err = afero.NewOsFs().Rename(path, renamed); err != nil {
			return nil, xerrors.Errorf("rename error: %w", err)
		}
		path = renamed
		defer afero.NewOsFs().Remove(path)
	}
	return Load(afero.NewOsFs(), path)
}

func isRemote(src string) bool {
	return strings.Contains(src, "://") || strings.Contains(src, "::")
}

func parseXML(b []byte) ([]types.ProductRef, error) {
	var list xmlProducts
	if err := xml.Unmarshal(b, &list); err != nil {
		return nil, xerrors.Errorf("failed to decode XML product list: %w", err)
	}

	products := make([]types.ProductRef, 0, len(list.Products))
	for i, p := range list.Products {
		ref, err := newRef(i, p.Name, p.Vendor)
		if err != nil {
			return nil, err
		}
		products = append(products, ref)
	}
	return products, nil
}

func parseYAML(b []byte) ([]types.ProductRef, error) {
	var list yamlProducts
	if err := yaml.Unmarshal(b, &list); err != nil {
		return nil, xerrors.Errorf("failed to decode YAML product list: %w", err)
	}

	products := make([]types.ProductRef, 0, len(list.Products))
	for i, p := range list.Products {
		ref, err := newRef(i, p.Name, p.Vendor)
		if err != nil {
			return nil, err
		}
		products = append(products, ref)
	}
	return products, nil
}

func newRef(i int, name, vendor *string) (types.ProductRef, error) {
	if name == nil {
		return types.ProductRef{}, xerrors.Errorf("product #%d: missing name", i+1)
	}
	if vendor == nil {
		return types.ProductRef{}, xerrors.Errorf("product #%d: missing vendor", i+1)
	}
	return types.ProductRef{Name: *name, Vendor: *vendor}, nil
}
