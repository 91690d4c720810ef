package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/compliscope/internal/analysis"
	"github.com/dshills/compliscope/internal/config"
	"github.com/dshills/compliscope/internal/description"
	"github.com/dshills/compliscope/internal/drift"
	"github.com/dshills/compliscope/internal/logging"
	"github.com/dshills/compliscope/internal/match"
	"github.com/dshills/compliscope/internal/render"
	"github.com/dshills/compliscope/internal/schema"
	"github.com/dshills/compliscope/internal/schema/validate"
	"github.com/dshills/compliscope/internal/server"
	"github.com/dshills/compliscope/internal/source"
	"github.com/dshills/compliscope/internal/taxonomy"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// commonFlags are shared by every subcommand that builds an analyzer.
type commonFlags struct {
	configPath string
	source     string
	taxonomy   string
	verbose    bool
}

// analyzeFlags holds the parsed flags for the analyze command.
type analyzeFlags struct {
	commonFlags
	text      string
	format    string
	out       string
	owner     string
	matchMode string
	baseline  string
	diffOut   string
	failUnder int
}

// serveFlags holds the parsed flags for the serve command.
type serveFlags struct {
	commonFlags
	addr string
}

// streams are the process streams, replaced in tests.
type streams struct {
	in       io.Reader
	out, err io.Writer
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "compliscope",
		Short:         "Match a project description to the compliance frameworks that apply",
		Long:          "compliscope classifies a project description by domain, data type and region, then reports which frameworks from a compliance table apply and how many are already followed.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(newAnalyzeCmd(), newServeCmd(), newTaxonomyCmd())
	return root
}

func addCommonFlags(cmd *cobra.Command, c *commonFlags) {
	f := cmd.Flags()
	f.StringVar(&c.configPath, "config", "", "Config file (default ./compliscope.yaml if present)")
	f.StringVar(&c.source, "source", "", "Compliance table CSV: file path or http(s) URL")
	f.StringVar(&c.taxonomy, "taxonomy", "", "Taxonomy YAML file (default built-in taxonomies)")
	f.BoolVar(&c.verbose, "verbose", false, "Log processing steps to stderr")
}

func newAnalyzeCmd() *cobra.Command {
	var flags analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze [description-file ...|-]",
		Short: "Analyze a project description and produce a compliance report",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := streams{in: cmd.InOrStdin(), out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()}
			return runAnalyze(cmd.Context(), args, flags, s)
		},
	}
	addCommonFlags(cmd, &flags.commonFlags)
	f := cmd.Flags()
	f.StringVar(&flags.text, "text", "", "Description text (instead of files)")
	f.StringVar(&flags.format, "format", "text", "Output format: json, md, csv, pdf or text")
	f.StringVar(&flags.out, "out", "", "Write output to file instead of stdout")
	f.StringVar(&flags.owner, "owner", "", "Owner written into the action plan")
	f.StringVar(&flags.matchMode, "match-mode", "", "Keyword matching: word or substring (default from config)")
	f.StringVar(&flags.baseline, "baseline", "", "Previous JSON result to compare against")
	f.StringVar(&flags.diffOut, "diff-out", "", "Write the baseline drift report to this file")
	f.IntVar(&flags.failUnder, "fail-under", -1, "Exit 2 if compliance percent is below this value (0-100)")
	return cmd
}

func newServeCmd() *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(flags)
		},
	}
	addCommonFlags(cmd, &flags.commonFlags)
	cmd.Flags().StringVar(&flags.addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}

func newTaxonomyCmd() *cobra.Command {
	var flags commonFlags
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Print the effective taxonomies as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTaxonomy(flags, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "Config file (default ./compliscope.yaml if present)")
	f.StringVar(&flags.taxonomy, "taxonomy", "", "Taxonomy YAML file (default built-in taxonomies)")
	return cmd
}

func runAnalyze(ctx context.Context, args []string, flags analyzeFlags, s streams) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// --- Step 1: Validate flags ---
	if err := validateFlags(flags); err != nil {
		return codeError(3, "invalid flags: %s", err)
	}

	// --- Step 2: Load config; flags override ---
	cfg, err := loadConfig(flags.commonFlags)
	if err != nil {
		return err
	}
	if flags.owner != "" {
		cfg.Report.Owner = flags.owner
	}
	if flags.matchMode != "" {
		cfg.Match.Mode = flags.matchMode
	}

	logger, err := logging.New(flags.verbose)
	if err != nil {
		return codeError(3, "creating logger: %s", err)
	}
	defer logger.Sync() //nolint:errcheck

	// --- Step 3: Load description ---
	d, err := loadDescription(args, flags.text, s.in)
	if err != nil {
		return codeError(3, "loading description: %s", err)
	}
	if err := d.Validate(); err != nil {
		fmt.Fprintln(s.err, "WARN: please enter a project description")
		return codeError(3, "%s", err)
	}
	logger.Debug("description loaded", zap.String("from", d.Source()), zap.String("hash", d.Hash))

	// --- Step 4: Build analyzer ---
	a, err := newAnalyzer(cfg, logger, source.NewCSV(cfg.Source.Location, source.WithLogger(logger)))
	if err != nil {
		return err
	}

	// --- Step 5: Analyze ---
	result, err := a.Analyze(ctx, d)
	if err != nil {
		var srcErr *analysis.SourceError
		if errors.As(err, &srcErr) {
			return codeError(4, "%s", srcErr)
		}
		return codeError(3, "%s", err)
	}

	// --- Step 6: Render output ---
	opts := cfg.RenderOptions()
	opts.Color = flags.format == "text" && flags.out == "" && !color.NoColor
	logger.Debug("rendering output", zap.String("format", flags.format))
	renderer, err := render.NewRenderer(flags.format, opts)
	if err != nil {
		return codeError(3, "invalid format: %s", err)
	}
	outputBytes, err := renderer.Render(result)
	if err != nil {
		return codeError(3, "rendering output: %s", err)
	}

	// --- Step 7: Write output ---
	if flags.out != "" {
		if err := os.WriteFile(flags.out, outputBytes, 0o644); err != nil {
			return codeError(3, "writing output file: %s", err)
		}
	} else {
		if _, err := s.out.Write(outputBytes); err != nil {
			return codeError(3, "writing output: %s", err)
		}
		// Ensure output ends with a newline for terminal friendliness.
		if flags.format != "pdf" && len(outputBytes) > 0 && outputBytes[len(outputBytes)-1] != '\n' {
			fmt.Fprintln(s.out)
		}
	}

	// --- Step 8: Compare with baseline ---
	if flags.baseline != "" {
		if err := writeDrift(flags, cfg, result, s.err); err != nil {
			return err
		}
	}

	// --- Step 9: Evaluate --fail-under ---
	if flags.failUnder >= 0 && result.Summary.Total > 0 && result.Summary.CompliancePercent < flags.failUnder {
		return codeError(2, "compliance %d%% is below --fail-under %d%%", result.Summary.CompliancePercent, flags.failUnder)
	}
	return nil
}

// writeDrift compares result with the baseline file. The drift report goes
// to --diff-out when set, otherwise to w.
func writeDrift(flags analyzeFlags, cfg *config.Config, result *schema.Result, w io.Writer) error {
	raw, err := os.ReadFile(flags.baseline)
	if err != nil {
		return codeError(3, "reading baseline: %s", err)
	}
	baseline, err := validate.Parse(raw)
	if err != nil {
		return codeError(3, "invalid baseline %s: %s", flags.baseline, err)
	}

	report := drift.Compare(baseline, result)
	text := drift.Format(report)
	if flags.diffOut == "" {
		fmt.Fprint(w, text)
		return nil
	}

	md, err := render.NewRenderer("md", cfg.RenderOptions())
	if err != nil {
		return codeError(3, "%s", err)
	}
	before, err := md.Render(baseline)
	if err != nil {
		return codeError(3, "rendering baseline: %s", err)
	}
	after, err := md.Render(result)
	if err != nil {
		return codeError(3, "rendering result: %s", err)
	}
	if p := drift.Patch(string(before), string(after)); p != "" {
		text += "\n# report patch\n" + p
	}
	if err := os.WriteFile(flags.diffOut, []byte(text), 0o644); err != nil {
		fmt.Fprintf(w, "WARN: drift write failed: %s\n", err)
	}
	return nil
}

func runServe(flags serveFlags) error {
	cfg, err := loadConfig(flags.commonFlags)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}

	logger, err := logging.New(flags.verbose)
	if err != nil {
		return codeError(3, "creating logger: %s", err)
	}
	defer logger.Sync() //nolint:errcheck

	csv := source.NewCSV(cfg.Source.Location, source.WithLogger(logger))
	a, err := newAnalyzer(cfg, logger, source.NewCached(csv, cfg.Source.CacheTTL, logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a, server.Options{Render: cfg.RenderOptions(), Logger: logger})
	if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
		return fmt.Errorf("serving on %s: %w", cfg.Server.Addr, err)
	}
	return nil
}

func runTaxonomy(flags commonFlags, w io.Writer) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	set, err := taxonomy.Load(cfg.Taxonomy.Path)
	if err != nil {
		return codeError(3, "loading taxonomy: %s", err)
	}
	out, err := set.Marshal()
	if err != nil {
		return codeError(3, "encoding taxonomy: %s", err)
	}
	_, err = w.Write(out)
	return err
}

// loadConfig reads the config file and applies the common flag overrides.
func loadConfig(flags commonFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, codeError(3, "%s", err)
	}
	if flags.source != "" {
		cfg.Source.Location = flags.source
	}
	if flags.taxonomy != "" {
		cfg.Taxonomy.Path = flags.taxonomy
	}
	return cfg, nil
}

func newAnalyzer(cfg *config.Config, logger *zap.Logger, src source.Source) (*analysis.Analyzer, error) {
	if cfg.Source.Location == "" {
		return nil, codeError(3, "no compliance table configured: pass --source or set source.location")
	}
	mode, err := match.ParseMode(cfg.Match.Mode)
	if err != nil {
		return nil, codeError(3, "invalid match mode: %s", err)
	}
	set, err := taxonomy.Load(cfg.Taxonomy.Path)
	if err != nil {
		return nil, codeError(3, "loading taxonomy: %s", err)
	}
	name := cfg.Taxonomy.Path
	if name == "" {
		name = "builtin"
	}
	a, err := analysis.New(analysis.Config{
		Taxonomies:   set,
		TaxonomyName: name,
		Matcher:      match.New(mode),
		Source:       src,
		Version:      version,
		Logger:       logger,
	})
	if err != nil {
		return nil, codeError(3, "%s", err)
	}
	return a, nil
}

func loadDescription(args []string, text string, stdin io.Reader) (*description.Description, error) {
	if text != "" {
		if len(args) > 0 {
			return nil, errors.New("--text cannot be combined with description files")
		}
		return description.FromText(text), nil
	}
	if len(args) == 0 {
		return nil, errors.New("give a description file, - for stdin, or --text")
	}
	return description.Load(args, stdin)
}

// validateFlags returns an error if any flag value is invalid.
func validateFlags(flags analyzeFlags) error {
	if _, err := render.NewRenderer(flags.format, render.Options{}); err != nil {
		return fmt.Errorf("--format must be one of json, md, csv, pdf, text, got %q", flags.format)
	}
	if flags.matchMode != "" {
		if _, err := match.ParseMode(flags.matchMode); err != nil {
			return fmt.Errorf("--match-mode: %w", err)
		}
	}
	if flags.failUnder > 100 || flags.failUnder < -1 {
		return fmt.Errorf("--fail-under must be between 0 and 100, got %d", flags.failUnder)
	}
	if flags.diffOut != "" && flags.baseline == "" {
		return errors.New("--diff-out requires --baseline")
	}
	return nil
}
