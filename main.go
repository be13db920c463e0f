package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"

	"github.com/euvd-report/euvd-report/euvd"
	"github.com/euvd-report/euvd-report/runner"
	"github.com/euvd-report/euvd-report/utils"
)

const (
	envPrefix      = "EUVD_REPORT"
	defaultAPIURL  = "https://euvdservices.enisa.europa.eu/api/vulnerabilities"
	defaultProduct = "products.xml"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("euvd-report failed")
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:           "euvd-report",
		Short:         "Build CSV and HTML vulnerability reports from the EU Vulnerability Database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initLogger(v.GetString("log-level"))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.String("products", defaultProduct, "product list (XML or YAML), local path or go-getter URL")
	flags.String("output-dir", ".", "base directory for the output_<timestamp> directory")
	flags.String("timestamp", "", "timestamp used to name the output directory (default: now)")
	flags.String("api-url", defaultAPIURL, "vulnerabilities API endpoint")
	flags.Duration("delay", time.Second, "pause between two API calls")
	flags.Bool("progress", false, "show a progress bar per pass")
	flags.Bool("archive-raw", false, "keep zstd-compressed copies of the API responses")
	flags.String("log-level", "info", "log level: error, warn, info, debug, trace")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		log.Fatal().Err(err).Msg("failed to bind flags")
	}

	return cmd
}

func initLogger(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return xerrors.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly})
	zerolog.DefaultContextLogger = &log.Logger
	return nil
}

func run(cmd *cobra.Command, v *viper.Viper) error {
	ts, err := utils.ParseTimestamp(v.GetString("timestamp"), time.Now)
	if err != nil {
		return err
	}
	outputDir := filepath.Join(v.GetString("output-dir"), utils.OutputDirName(ts))
	appFs := afero.NewOsFs()

	clientOpts := []euvd.Option{
		euvd.WithURL(v.GetString("api-url")),
		euvd.WithLogger(log.Logger),
	}
	if v.GetBool("archive-raw") {
		clientOpts = append(clientOpts, euvd.WithArchiver(runner.NewRawArchive(appFs, outputDir)))
	}
	client := euvd.NewClient(clientOpts...)

	runnerOpts := []runner.Option{
		runner.WithProducts(v.GetString("products")),
		runner.WithOutputDir(outputDir),
		runner.WithDelay(v.GetDuration("delay")),
		runner.WithAppFs(appFs),
		runner.WithLogger(log.Logger),
	}
	if v.GetBool("progress") {
		runnerOpts = append(runnerOpts, runner.WithProgress(cmd.ErrOrStderr()))
	}

	summary, err := runner.NewRunner(client, runnerOpts...).Run(cmd.Context())
	if err != nil {
		return xerrors.Errorf("run error: %w", err)
	}

	for _, pass := range summary.Passes {
		if len(pass.Errors) > 0 {
			log.Warn().Bool("exploited", pass.Exploited).Errs("errors", pass.Errors).Msg("Pass finished with errors")
			continue
		}
		log.Info().Bool("exploited", pass.Exploited).Int("records", pass.Records).
			Int("failed_queries", pass.FailedQueries).Strs("files", pass.Files).Msg("Pass finished")
	}
	return nil
}
