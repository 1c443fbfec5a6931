package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/webpack-chart/internal/chart"
	"github.com/webpack-chart/internal/report"
	"github.com/webpack-chart/internal/repository"
	"github.com/webpack-chart/internal/sizetree"
	"github.com/webpack-chart/internal/source"
	"github.com/webpack-chart/internal/storage"
	"github.com/webpack-chart/pkg/config"
	"github.com/webpack-chart/pkg/parallel"
	"github.com/webpack-chart/pkg/utils"
)

// analyzeOptions holds the per-report analyze flags.
type analyzeOptions struct {
	Input         string
	OutputDir     string
	Name          string
	Formats       []string
	TopN          int
	Strict        bool
	Publish       bool
	PublishPrefix string
	Record        bool
}

// analysisResult describes what an analysis produced.
type analysisResult struct {
	Input     string
	Tree      *sizetree.Tree
	Skipped   int
	Files     []string
	Published []string
	RecordID  int64
	Elapsed   time.Duration
}

// analyzeEnv holds what every analysis in one run shares.
type analyzeEnv struct {
	cfg     *config.Config
	log     utils.Logger
	loader  *source.Loader
	store   storage.Storage
	catalog repository.Catalog
}

var (
	analyzeOpts   = analyzeOptions{}
	analyzeInputs []string
	analyzeJobs   int
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Build a size tree from a webpack stats report",
	Long: `Build a size tree from a webpack stats report and summarise it.

The input may be a local file, an http(s) URL or a store://<key> object in the
configured storage, optionally gzip or zstd compressed. Repeat -i to analyze
several reports in parallel. For each report the command prints the largest
top-level entries and writes the tree in each requested format:
  - gzip   : <name>.tree.json.gz (default)
  - folded : <name>.folded, one "a;b;c size" line per node (default)
  - json   : <name>.tree.json
  - pretty : <name>.tree.json, indented
  - zstd   : <name>.tree.json.zst

Outputs can be uploaded to storage with --publish and summarised in the report
catalog with --record.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	binName := BinName()
	analyzeCmd.Example = `  # Analyze a local stats file
  ` + binName + ` analyze -i ./dist/stats.json -o ./output

  # Fail on malformed module records instead of skipping them
  ` + binName + ` analyze -i ./stats.json --strict

  # Analyze two builds side by side
  ` + binName + ` analyze -i ./main.json -i ./feature.json -j 2

  # Analyze a stored report, publish the outputs and record the summary
  ` + binName + ` analyze -i store://reports/app.json --publish --record`

	flags := analyzeCmd.Flags()
	flags.StringSliceVarP(&analyzeInputs, "input", "i", nil, "Stats report: file path, http(s) URL or store://key (required, repeatable)")
	flags.IntVarP(&analyzeJobs, "jobs", "j", 0, "Reports analyzed concurrently (default: number of CPUs, at most 8)")
	flags.StringVarP(&analyzeOpts.OutputDir, "output", "o", "./output", "Output directory for generated files")
	flags.StringVar(&analyzeOpts.Name, "name", "", "Base name of output files (default: input file name; single input only)")
	flags.StringSliceVarP(&analyzeOpts.Formats, "format", "f", []string{"gzip", "folded"}, "Output formats: gzip, zstd, folded, json, pretty")
	flags.IntVarP(&analyzeOpts.TopN, "top", "n", 10, "Number of top-level entries to print and record")
	flags.BoolVar(&analyzeOpts.Strict, "strict", false, "Reject malformed module records")
	flags.BoolVar(&analyzeOpts.Publish, "publish", false, "Upload outputs to the configured storage")
	flags.StringVar(&analyzeOpts.PublishPrefix, "publish-prefix", "trees", "Storage key prefix for published outputs")
	flags.BoolVar(&analyzeOpts.Record, "record", false, "Record the report summary in the catalog database")

	analyzeCmd.MarkFlagRequired("input")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	log.Info("=== Webpack Chart ===")
	log.Info("Inputs:     %s", strings.Join(analyzeInputs, ", "))
	log.Info("Output dir: %s", analyzeOpts.OutputDir)
	log.Info("")

	results, err := analyzeAll(cmd.Context(), analyzeInputs, analyzeOpts, analyzeJobs, GetConfig(), log, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	log.Info("")
	log.Info("=== Output Files ===")
	for _, result := range results {
		for _, f := range result.Files {
			log.Info("  %s", f)
		}
		for _, u := range result.Published {
			log.Info("  published: %s", u)
		}
		if result.RecordID != 0 {
			log.Info("  catalog record: %d", result.RecordID)
		}
		log.Info("%s analyzed in %s", result.Input, result.Elapsed.Round(time.Millisecond))
	}
	return nil
}

// analyzeAll analyzes every input on a worker pool and prints the summaries in
// input order.
func analyzeAll(ctx context.Context, inputs []string, base analyzeOptions, jobs int, cfg *config.Config, log utils.Logger, out io.Writer) ([]*analysisResult, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("at least one input is required")
	}
	if len(inputs) > 1 && base.Name != "" {
		return nil, fmt.Errorf("--name requires a single input")
	}
	if _, err := parseFormats(base.Formats); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(inputs))
	for _, in := range inputs {
		opts := base
		opts.Input = in
		name := outputName(&opts)
		if prev, ok := names[name]; ok {
			return nil, fmt.Errorf("inputs %s and %s would both write %s outputs; use separate runs or --name", prev, in, name)
		}
		names[name] = in
	}

	env, cleanup, err := newAnalyzeEnv(ctx, inputs, &base, cfg, log)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	type run struct {
		result  *analysisResult
		summary []byte
	}

	pool := parallel.DefaultPoolConfig()
	if jobs > 0 {
		pool = pool.WithWorkers(jobs)
	}
	runs := parallel.Map(ctx, pool, inputs, func(ctx context.Context, input string) (*run, error) {
		opts := base
		opts.Input = input
		var buf bytes.Buffer
		res, err := analyze(ctx, &opts, env, &buf)
		return &run{result: res, summary: buf.Bytes()}, err
	})

	results := make([]*analysisResult, 0, len(runs))
	for i, r := range runs {
		if r.Err != nil {
			return nil, fmt.Errorf("%s: %w", r.Input, r.Err)
		}
		if len(runs) > 1 {
			fmt.Fprintf(out, "== %s ==\n", r.Input)
		}
		out.Write(r.Value.summary)
		if i < len(runs)-1 {
			fmt.Fprintln(out)
		}
		results = append(results, r.Value.result)
	}
	return results, nil
}

// newAnalyzeEnv opens storage and the catalog only when some input or flag needs them.
func newAnalyzeEnv(ctx context.Context, inputs []string, opts *analyzeOptions, cfg *config.Config, log utils.Logger) (*analyzeEnv, func(), error) {
	env := &analyzeEnv{cfg: cfg, log: log}
	cleanup := func() {}

	needStore := opts.Publish
	for _, in := range inputs {
		if source.TypeOf(in) == source.SourceTypeStore {
			needStore = true
		}
	}
	if needStore {
		store, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create storage: %w", err)
		}
		env.store = store
	}
	env.loader = source.NewLoader(source.OptionsFromConfig(cfg.Fetch), env.store, log)

	if opts.Record {
		catalog, err := repository.OpenCatalog(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		if catalog == nil {
			log.Warn("Database is not configured, reports will not be recorded")
		} else {
			env.catalog = catalog
			cleanup = func() {
				if err := catalog.Close(); err != nil {
					log.Warn("Failed to close catalog: %v", err)
				}
			}
		}
	}
	return env, cleanup, nil
}

// analyze runs the pipeline for one report: load, parse, build, summarise,
// write, then optionally publish and record.
func analyze(ctx context.Context, opts *analyzeOptions, env *analyzeEnv, out io.Writer) (*analysisResult, error) {
	start := time.Now()
	log := env.log.WithField("input", opts.Input)

	formats, err := parseFormats(opts.Formats)
	if err != nil {
		return nil, err
	}

	data, err := env.loader.Load(ctx, opts.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	r, err := report.Parse(data, &report.ParseOptions{Strict: opts.Strict})
	if err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	if r.Skipped > 0 {
		log.Warn("Skipped %d malformed module records", r.Skipped)
	}

	tree, err := sizetree.NewBuilder(nil).Build(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to build tree: %w", err)
	}
	log.Debug("Built %d nodes from %d modules", tree.NodeCount, tree.ModuleCount)

	printSummary(out, tree, opts.TopN)

	result := &analysisResult{Input: opts.Input, Tree: tree, Skipped: r.Skipped}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	name := outputName(opts)
	for _, f := range formats {
		w, err := sizetree.NewWriter(f)
		if err != nil {
			return nil, err
		}
		res, err := sizetree.WriteFile(w, tree, filepath.Join(opts.OutputDir, name+f.Extension()))
		if err != nil {
			return nil, fmt.Errorf("failed to write %s output: %w", f, err)
		}
		log.Debug("Wrote %s (%d bytes)", res.Path, res.Bytes)
		result.Files = append(result.Files, res.Path)
	}

	if opts.Publish {
		if env.store == nil {
			return nil, fmt.Errorf("publishing requires storage")
		}
		for _, file := range result.Files {
			key := path.Join(opts.PublishPrefix, filepath.Base(file))
			if err := env.store.PutFile(ctx, key, file); err != nil {
				return nil, fmt.Errorf("failed to publish %s: %w", file, err)
			}
			result.Published = append(result.Published, env.store.URL(key))
		}
	}

	if opts.Record && env.catalog != nil {
		rec, err := repository.NewReportRecord(opts.Input, tree, opts.TopN)
		if err != nil {
			return nil, err
		}
		if err := env.catalog.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to record report: %w", err)
		}
		result.RecordID = rec.ID
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

func parseFormats(names []string) ([]sizetree.Format, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one output format is required")
	}
	formats := make([]sizetree.Format, 0, len(names))
	seen := make(map[sizetree.Format]bool)
	for _, n := range names {
		f := sizetree.Format(strings.ToLower(strings.TrimSpace(n)))
		if _, err := sizetree.NewWriter(f); err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// outputName derives the file base name from --name or the input location.
func outputName(opts *analyzeOptions) string {
	if opts.Name != "" {
		return opts.Name
	}
	base := opts.Input
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	base = path.Base(filepath.ToSlash(base))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		return "stats"
	}
	return base
}

// printSummary renders the largest top-level entries as a table.
func printSummary(out io.Writer, tree *sizetree.Tree, topN int) {
	root := tree.Root
	fmt.Fprintf(out, "Public path: %q\n", root.Label)
	fmt.Fprintf(out, "Modules:     %d\n", tree.ModuleCount)
	fmt.Fprintf(out, "Total size:  %s\n\n", chart.FormatSize(tree.TotalSize))

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Entry", "Size", "Bytes", "Share"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	children := root.Children
	if topN > 0 && len(children) > topN {
		children = children[:topN]
	}
	for i, c := range children {
		table.Append([]string{
			strconv.Itoa(i + 1),
			c.Label,
			chart.FormatSize(c.Value),
			strconv.FormatInt(c.Value, 10),
			share(c.Value, root.Value),
		})
	}
	if rest := len(root.Children) - len(children); rest > 0 {
		table.SetFooter([]string{"", fmt.Sprintf("%d more", rest), "", "", ""})
	}
	table.Render()
}

func share(value, total int64) string {
	if total <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(value)*100/float64(total))
}
