package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/specialistvlad/atlasgrid/internal/app"
	"github.com/specialistvlad/atlasgrid/internal/cache"
	"github.com/specialistvlad/atlasgrid/internal/export"
	"github.com/specialistvlad/atlasgrid/internal/orchestrator"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// flags holds the values of the persistent flags.
type flags struct {
	modelsPath      string
	logFormat       string
	logLevel        string
	httpPort        int
	workers         int
	indexThreshold  int
	debounce        time.Duration
	maxExportSolids int

	viewerURL       string
	viewerNamespace string
	viewerInsecure  bool
	viewerMesh      bool
}

func (f *flags) config() (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		ModelsPath:        f.modelsPath,
		LogFormat:         strings.ToLower(f.logFormat),
		LogLevel:          strings.ToLower(f.logLevel),
		HTTPPort:          f.httpPort,
		WorkerCount:       f.workers,
		IndexThreshold:    f.indexThreshold,
		DebounceQuiet:     f.debounce,
		MaxExportSolids:   f.maxExportSolids,
		ViewerURL:         f.viewerURL,
		ViewerNamespace:   f.viewerNamespace,
		ViewerInsecure:    f.viewerInsecure,
		ViewerIncludeMesh: f.viewerMesh,
	})
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

// NewRootCommand returns the command tree. Output, including logs, goes to
// outW.
func NewRootCommand(outW io.Writer) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "atlasgrid",
		Short:         "Atlasgrid - regenerate parametric assemblies, their meshes and bills of materials.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError(err) })
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if err := applyEnv(cmd); err != nil {
			return usageError(err)
		}
		return nil
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.modelsPath, "models-path", "modules", "Directory searched recursively for model manifests (.hcl).")
	pf.StringVar(&f.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&f.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.IntVar(&f.workers, "workers", 2, "Number of pipeline workers.")
	pf.IntVar(&f.indexThreshold, "index-threshold", cache.DefaultIndexThreshold, "Triangle count above which meshes are indexed. Negative disables.")
	pf.IntVar(&f.maxExportSolids, "max-export-solids", export.DefaultMaxSolids, "Solid count above which an export must be confirmed.")
	pf.StringVar(&f.viewerURL, "viewer-url", "", "socket.io endpoint that receives published assemblies.")
	pf.StringVar(&f.viewerNamespace, "viewer-namespace", "/", "socket.io namespace for the viewer.")
	pf.BoolVar(&f.viewerInsecure, "viewer-insecure", false, "Skip TLS verification for the viewer.")
	pf.BoolVar(&f.viewerMesh, "viewer-mesh", false, "Send the indexed mesh with every published assembly.")

	root.AddCommand(newRunCommand(outW, f), newServeCommand(outW, f), newModelsCommand(outW, f))
	return root
}

func newRunCommand(outW io.Writer, f *flags) *cobra.Command {
	var (
		sets       []string
		exportPath string
		yes        bool
		uploadURL  string
		healthPort int
	)
	cmd := &cobra.Command{
		Use:   "run MODEL",
		Short: "Build a model once, print its bill of materials and optionally export it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseSets(sets)
			if err != nil {
				return usageError(err)
			}
			f.httpPort = healthPort
			cfg, err := f.config()
			if err != nil {
				return err
			}
			a, err := app.NewApp(outW, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(cmd.Context(), app.RunOptions{
				Model:        args[0],
				Params:       params,
				ExportPath:   exportPath,
				ConfirmLarge: yes,
				UploadURL:    uploadURL,
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Parameter override as name=value. Repeatable.")
	cmd.Flags().StringVarP(&exportPath, "export", "o", "", "Write the result to this STEP file.")
	cmd.Flags().StringVar(&uploadURL, "upload-url", "", "Pre-signed URL that receives the exported STEP file via PUT.")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm large exports without asking.")
	cmd.Flags().IntVar(&healthPort, "healthcheck-port", 0, "Port for /health and /metrics while running. 0 is disabled.")
	return cmd
}

func newServeCommand(outW io.Writer, f *flags) *cobra.Command {
	var (
		port     int
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editing API with debounced regeneration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.httpPort, f.debounce = port, debounce
			cfg, err := f.config()
			if err != nil {
				return err
			}
			a, err := app.NewApp(outW, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Serve(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP port for the API, /health and /metrics.")
	cmd.Flags().DurationVar(&debounce, "debounce", orchestrator.DefaultQuiet, "Quiet period before an edit triggers regeneration.")
	return cmd
}

func newModelsCommand(outW io.Writer, f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the available model families and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.config()
			if err != nil {
				return err
			}
			a, err := app.NewApp(io.Discard, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			tw := tabwriter.NewWriter(outW, 0, 4, 2, ' ', 0)
			for _, fam := range a.Registry().Families() {
				fmt.Fprintf(tw, "%s\t%s\n", fam.Name, fam.Description)
				defaults := fam.Schema.Defaults().Native()
				for _, p := range fam.Schema {
					fmt.Fprintf(tw, "  %s\t%s\t%v\t%s\n", p.Name, p.Kind, defaults[p.Name], p.DisplayLabel())
				}
			}
			return tw.Flush()
		},
	}
}

// parseSets turns name=value pairs into a map. Later pairs win.
func parseSets(sets []string) (map[string]string, error) {
	out := make(map[string]string, len(sets))
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: expected name=value", s)
		}
		out[strings.TrimSpace(name)] = value
	}
	return out, nil
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, outW io.Writer, args []string) error {
	root := NewRootCommand(outW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
