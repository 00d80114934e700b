package main

import (
	"errors"
	"fmt"
	"io"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ivlev/pptx2h5p/internal/config"
	"github.com/ivlev/pptx2h5p/internal/engine"
	"github.com/ivlev/pptx2h5p/internal/renderer"
	"github.com/ivlev/pptx2h5p/internal/system"
	"github.com/ivlev/pptx2h5p/internal/template"
)

var errUsage = errors.New("usage")

const longHelp = `pptx2h5p renders every slide of a presentation to an image and packs the
images into an H5P Course Presentation, one slide per image.

The argument may be a PowerPoint/LibreOffice deck, a PDF, or a directory of
already rendered slide images. The package is written next to the input.

Without --template the built-in skeleton is used. It carries no H5P
libraries, so the package only opens on a host that already has
H5P.CoursePresentation installed. Pass --template with an exported Course
Presentation to produce a self-contained package.`

const (
	author     = "Martin Lehmann"
	license    = "BSD-2-Clause"
	sourceRepo = "https://github.com/MM-Lehmann/pptx2h5p"
)

func maxOneInput(_ *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: expected one input, got %d", errUsage, len(args))
	}
	return nil
}

type options struct {
	configPath string
	template   string
	outputDir  string
	ratio      float64
	dpi        int
	workers    int
	stats      bool
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "pptx2h5p [presentation | image-dir]",
		Short:         "Convert a slide deck into an H5P course presentation",
		Long:          longHelp,
		Version:       version,
		Args:          maxOneInput,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts, stdout, stderr)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate(fmt.Sprintf("pptx2h5p %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	f.StringVarP(&opts.template, "template", "t", "", "template directory (default: embedded skeleton)")
	f.StringVarP(&opts.outputDir, "output", "o", "", "directory for the package (default: next to the input)")
	f.Float64Var(&opts.ratio, "ratio", 0, "canvas aspect ratio width/height (default 2)")
	f.IntVar(&opts.dpi, "dpi", 0, "render resolution (default 150)")
	f.IntVarP(&opts.workers, "workers", "w", 0, "parallel page renderers (default: sized from the host)")
	f.BoolVar(&opts.stats, "stats", false, "log a timing report")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")

	return cmd
}

func run(cmd *cobra.Command, args []string, opts options, stdout, stderr io.Writer) error {
	level := charmlog.InfoLevel
	if opts.verbose {
		level = charmlog.DebugLevel
	}
	logger := newLogger(stderr, level)

	fmt.Fprintln(stdout, "Powerpoint to h5p Converter.")
	fmt.Fprintf(stdout, "Author: %s\n", author)
	fmt.Fprintf(stdout, "Version: %s\n", version)
	fmt.Fprintf(stdout, "Licence: %s\n", license)
	fmt.Fprintf(stdout, "Source code: %s\n", sourceRepo)

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	cfg.BuildVersion = version

	input, err := resolveInput(args, cfg)
	if err != nil {
		return err
	}

	tmpl, err := template.Open(cfg.Template)
	if err != nil {
		return err
	}
	if cfg.Template.Dir == "" {
		logger.Warn("using built-in skeleton without H5P libraries; the host must provide H5P.CoursePresentation", "hint", "--template")
	}

	renderers := func(path string) (renderer.Renderer, error) {
		return renderer.ForInput(path, cfg.Render, logger)
	}
	res, err := engine.NewProject(cfg, tmpl, renderers, logger).Run(cmd.Context(), input)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "[+] Converting successfully finished: %s (%d slides)\n", res.Output, res.Slides)
	return nil
}

// loadConfig layers explicitly set flags over the config file over defaults.
func loadConfig(cmd *cobra.Command, opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}

	f := cmd.Flags()
	if f.Changed("template") {
		cfg.Template.Dir = opts.template
	}
	if f.Changed("output") {
		cfg.Output.Dir = opts.outputDir
	}
	if f.Changed("ratio") {
		cfg.Layout.TargetRatio = opts.ratio
	}
	if f.Changed("dpi") {
		cfg.Render.DPI = opts.dpi
	}
	if f.Changed("workers") {
		cfg.Render.Workers = opts.workers
	}
	if f.Changed("stats") {
		cfg.ShowStats = opts.stats
	}
	return cfg, cfg.Validate()
}

func resolveInput(args []string, cfg *config.Config) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir == "" {
		return "", fmt.Errorf("%w: pptx2h5p [presentation | image-dir]", errUsage)
	}
	return system.FindLatestPresentation(cfg.Input.DefaultDir)
}
