// Command mrms decodes MRMS GRIB2 radar mosaics into geo-tagged samples.
//
// Usage:
//
//	mrms decode [flags] <file>
//	mrms sections <file>
//
// Examples:
//
//	mrms decode MRMS_MergedReflectivityQCComposite_00.50_20260514-123000.grib2.gz
//	mrms decode --stride 10 --threshold 5 mosaic.grib2
//	mrms decode --summary --metrics-file /var/lib/node_exporter/mrms.prom mosaic.grib2
//	mrms sections mosaic.grib2
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geal-ai/grib2mrms"
	"github.com/geal-ai/grib2mrms/internal/config"
	"github.com/geal-ai/grib2mrms/internal/observability"
	"github.com/geal-ai/grib2mrms/internal/pipeline"
)

var (
	configPath  string
	logLevel    string
	logFormat   string
	stride      int
	threshold   float64
	summary     bool
	metricsFile string
)

var rootCmd = &cobra.Command{
	Use:   "mrms",
	Short: "Decode MRMS GRIB2 radar mosaics.",
	Long: `mrms decodes NOAA MRMS GRIB2 mosaics (regular lat/lon grids with simple
or PNG packing) and prints thinned geo-samples as JSON.

Settings come from an optional TOML file (--config), then MRMS_* and LOG_*
environment variables, then command-line flags.`,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Decode a message and print its samples.",
	Long: `decode reads one GRIB2 message (optionally gzip-compressed), decodes it
and writes the sampled product to stdout as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("stride") {
			cfg.Stride = stride
		}
		if cmd.Flags().Changed("threshold") {
			cfg.Threshold = threshold
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		raw, err := readMessage(args[0])
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		// One message per run, so the product cache could never hit.
		svc := pipeline.New(pipeline.Config{
			Options: cfg.Options(),
			Logger:  logger,
			Metrics: observability.NewMetrics(reg),
		})
		p, procErr := svc.Process(cmd.Context(), raw)

		if metricsFile != "" {
			if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
				logger.Warn("writing metrics", zap.String("path", metricsFile), zap.Error(err))
			}
		}
		if procErr != nil {
			return procErr
		}

		if summary {
			return emitJSON(cmd.OutOrStdout(), summarize(p))
		}
		return emitJSON(cmd.OutOrStdout(), p)
	},
}

var sectionsCmd = &cobra.Command{
	Use:   "sections <file>",
	Short: "List the sections of a message.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readMessage(args[0])
		if err != nil {
			return err
		}
		msg, err := grib2mrms.Scan(raw)
		if err != nil {
			return err
		}
		return emitJSON(cmd.OutOrStdout(), sectionReport{
			Discipline:  msg.Indicator.Discipline,
			Edition:     msg.Indicator.Edition,
			TotalLength: msg.Indicator.TotalLength,
			Terminated:  msg.Terminated,
			Sections:    msg.Sections.Infos(),
		})
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to a TOML configuration file")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "log format (json or text)")

	f := decodeCmd.Flags()
	f.IntVar(&stride, "stride", grib2mrms.DefaultStride, "row/column sampling step")
	f.Float64Var(&threshold, "threshold", grib2mrms.DefaultThreshold, "drop samples at or below this value")
	f.BoolVar(&summary, "summary", false, "print grid, metadata and sample count instead of samples")
	f.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")

	rootCmd.AddCommand(decodeCmd, sectionsCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fatalf("%v", err)
	}
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	level, format := cfg.LogLevel, cfg.LogFormat
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		format = logFormat
	}
	return observability.NewLogger(level, format)
}

// readMessage reads path, transparently inflating gzip input. MRMS
// distributes its mosaics as .grib2.gz.
func readMessage(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		return raw, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%s: gunzip: %w", path, err)
	}
	return out, nil
}

// sectionReport is the JSON output of the sections command.
type sectionReport struct {
	Discipline  byte                    `json:"discipline"`
	Edition     byte                    `json:"edition"`
	TotalLength uint64                  `json:"totalLength"`
	Terminated  bool                    `json:"terminated"`
	Sections    []grib2mrms.SectionInfo `json:"sections"`
}

// productSummary is the --summary form of a product.
type productSummary struct {
	Grid     grib2mrms.GridInfo    `json:"grid"`
	Meta     grib2mrms.Metadata    `json:"metadata"`
	Valid    float64               `json:"validFraction"`
	Samples  int                   `json:"samples"`
	Degraded bool                  `json:"degraded"`
	Defaults []grib2mrms.Defaulted `json:"defaults,omitempty"`
}

func summarize(p *grib2mrms.Product) productSummary {
	return productSummary{
		Grid:     p.Grid,
		Meta:     p.Meta,
		Valid:    p.Valid,
		Samples:  len(p.Samples),
		Degraded: p.Degraded,
		Defaults: p.Defaults,
	}
}

func emitJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
