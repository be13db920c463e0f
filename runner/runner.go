package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/euvd-report/euvd-report/product"
	"github.com/euvd-report/euvd-report/report"
	"github.com/euvd-report/euvd-report/types"
	"github.com/euvd-report/euvd-report/utils"
)

const (
	defaultProducts = "products.xml"
	defaultDelay    = 1 * time.Second
)

// Querier fetches the vulnerabilities of one product/vendor pair.
type Querier interface {
	Query(product, vendor string, exploited *bool) ([]types.Record, error)
}

type options struct {
	products    string
	outputDir   string
	delay       time.Duration
	sleep       func(time.Duration)
	appFs       afero.Fs
	progress    bool
	progressOut io.Writer
	logger      zerolog.Logger
}

type Option func(*options)

// WithProducts sets the product list source, a local path or a go-getter URL.
func WithProducts(src string) Option {
	return func(opts *options) { opts.products = src }
}

// WithOutputDir sets the directory the reports are written to. It is required.
func WithOutputDir(dir string) Option {
	return func(opts *options) { opts.outputDir = dir }
}

func WithDelay(d time.Duration) Option {
	return func(opts *options) { opts.delay = d }
}

func WithSleep(sleep func(time.Duration)) Option {
	return func(opts *options) { opts.sleep = sleep }
}

func WithAppFs(fs afero.Fs) Option {
	return func(opts *options) { opts.appFs = fs }
}

func WithProgress(out io.Writer) Option {
	return func(opts *options) {
		opts.progress = true
		opts.progressOut = out
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(opts *options) { opts.logger = logger }
}

type Runner struct {
	*options
	querier Querier
}

func NewRunner(querier Querier, opts ...Option) Runner {
	o := &options{
		products:  defaultProducts,
		delay:     defaultDelay,
		sleep:     time.Sleep,
		appFs:     afero.NewOsFs(),
		logger:    log.Logger,
	}

	for _, opt := range opts {
		opt(o)
	}

	return Runner{
		options: o,
		querier: querier,
	}
}

// Pass is the outcome of one sweep over the products.
type Pass struct {
	Exploited     bool
	Records       int
	FailedQueries int
	Files         []string
	Errors        []error
}

type Summary struct {
	OutputDir string
	Passes    []Pass
}

// Run queries every product twice, once for exploited and once for not
// exploited vulnerabilities, and writes a CSV and an HTML report per pass.
// Only a broken product list or output directory stops it.
func (r Runner) Run(ctx context.Context) (Summary, error) {
	if r.outputDir == "" {
		return Summary{}, xerrors.New("output directory is not set")
	}

	products, err := product.Fetch(r.logger.WithContext(ctx), r.appFs, r.products)
	if err != nil {
		return Summary{}, xerrors.Errorf("failed to load products: %w", err)
	}
	r.logger.Info().Msgf("Loaded %d products from %s", len(products), r.products)

	if err = r.appFs.MkdirAll(r.outputDir, os.ModePerm); err != nil {
		return Summary{}, xerrors.Errorf("unable to create output directory: %w", err)
	}

	summary := Summary{OutputDir: r.outputDir}
	for _, exploited := range []bool{true, false} {
		summary.Passes = append(summary.Passes, r.runPass(products, exploited))
	}
	return summary, nil
}

func (r Runner) runPass(products []types.ProductRef, exploited bool) Pass {
	pass := Pass{Exploited: exploited}
	var results report.ResultSet

	bar := r.startBar(len(products))
	for _, p := range products {
		r.logger.Info().Msgf("Querying %s from %s (exploited=%t)", p.Name, p.Vendor, exploited)
		records, err := r.querier.Query(p.Name, p.Vendor, &exploited)
		if err != nil {
			r.logger.Error().Err(err).Msgf("No usable result for %s from %s", p.Name, p.Vendor)
			pass.FailedQueries++
		}
		results.Add(p, records)
		if bar != nil {
			bar.Increment()
		}
		r.sleep(r.delay)
	}
	if bar != nil {
		bar.Finish()
	}

	pass.Records = results.Len()
	if results.Empty() {
		r.logger.Info().Msgf("No results found for %s vulnerabilities", passName(exploited))
		return pass
	}

	label := passLabel(exploited)
	csvFile := filepath.Join(r.outputDir, fmt.Sprintf("vulnerabilities_%s.csv", label))
	htmlFile := filepath.Join(r.outputDir, fmt.Sprintf("vulnerabilities_%s.html", label))

	fs := utils.NewFs(r.appFs)
	records := results.Records()
	reports := []struct {
		kind   string
		path   string
		render func(w io.Writer, records []types.Record) error
	}{
		{kind: "CSV", path: csvFile, render: report.RenderCSV},
		{kind: "HTML", path: htmlFile, render: report.RenderHTML},
	}
	for _, rep := range reports {
		err := fs.WriteFile(rep.path, func(w io.Writer) error {
			return rep.render(w, records)
		})
		if err != nil {
			r.logger.Error().Err(err).Msgf("Unable to save %s report to %s", rep.kind, rep.path)
			pass.Errors = append(pass.Errors, xerrors.Errorf("%s report: %w", rep.kind, err))
			continue
		}
		r.logger.Info().Msgf("%s data saved to %s", rep.kind, rep.path)
		pass.Files = append(pass.Files, rep.path)
	}

	if len(pass.Errors) == 0 {
		r.logger.Info().Msgf("Results saved to %s and %s", csvFile, htmlFile)
	}
	return pass
}

func (r Runner) startBar(total int) *pb.ProgressBar {
	if !r.progress || total == 0 {
		return nil
	}
	return pb.New(total).SetWriter(r.progressOut).Start()
}

func passLabel(exploited bool) string {
	if exploited {
		return "exploited"
	}
	return "not_exploited"
}

func passName(exploited bool) string {
	if exploited {
		return "exploited"
	}
	return "not exploited"
}
