package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	photoeditor "github.com/menta2k/photo-editor"
	"github.com/menta2k/photo-editor/internal/config"
	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/internal/utils"
	"github.com/menta2k/photo-editor/pkg/codec"
	"github.com/menta2k/photo-editor/pkg/session"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the whole command. It returns the process exit code so deferred
// cleanup runs before main exits.
func run(args []string) int {
	var in, outDir, cfgPath, display, crop, suggest, format string
	var scale float64
	var workers int
	var preview, debug bool

	fs := flag.NewFlagSet(filepath.Base(os.Args[0]), flag.ContinueOnError)
	fs.StringVar(&in, "in", "", "input image file, or a directory for batch mode")
	fs.StringVar(&outDir, "out", "", "output directory (default from config)")
	fs.StringVar(&cfgPath, "config", "", "config file (default "+config.GetConfigPath()+" when present)")
	fs.StringVar(&display, "display", "", "display size WxH the crop refers to (default native size)")
	fs.StringVar(&crop, "crop", "", "crop x,y,w,h in percent of the display, or pixels with a px suffix")
	fs.Float64Var(&scale, "scale", 0, "preview scale (0.1..2.0, step 0.1)")
	fs.StringVar(&suggest, "suggest", "", "suggest a crop for an aspect ratio: square|portrait|landscape|widescreen|instagram|story")
	fs.StringVar(&format, "format", "", "output format: png|webp|jpg (default from config)")
	fs.BoolVar(&preview, "preview", false, "also write the scaled preview with the crop outlined")
	fs.IntVar(&workers, "workers", 0, "parallel files in batch mode (default from config)")
	fs.BoolVar(&debug, "debug", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if in == "" {
		log.Printf("usage: %s -in input.png|dir [-out outdir] [-display 800x600] [-crop 25,25,50,50] [-suggest square] [-format png|webp|jpg] [-preview]", fs.Name())
		return 2
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		log.Print(err)
		return 1
	}
	if outDir != "" {
		cfg.Output.OutputDir = outDir
	}
	if format != "" {
		cfg.Output.Format = codec.NormalizeFormat(format)
	}
	if workers > 0 {
		cfg.Cropper.Workers = workers
	}
	if debug {
		cfg.Logging.Debug = true
	}

	w, err := logging.Setup(cfg.Logging)
	if err != nil {
		log.Print(err)
		return 1
	}
	if lj, ok := w.(*lumberjack.Logger); ok {
		defer func() {
			lj.Close()
			log.SetOutput(os.Stderr)
		}()
	}

	editor, err := photoeditor.NewWithConfig(cfg)
	if err != nil {
		log.Print(err)
		return 1
	}

	opts := photoeditor.CropOptions{Suggest: suggest, Preview: preview}
	if opts.Display, err = parseDisplay(display); err != nil {
		log.Print(err)
		return 2
	}
	if opts.Crop, err = parseCrop(crop); err != nil {
		log.Print(err)
		return 2
	}
	if scale != 0 {
		if opts.Scale, err = parseScale(scale, cfg.Selector.ScaleRange); err != nil {
			log.Print(err)
			return 2
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sink := session.DirSink{Dir: cfg.Output.OutputDir}

	if utils.DirExists(in) {
		if err := runBatch(ctx, editor, in, opts, sink, cfg.Cropper.Workers); err != nil {
			log.Print(err)
			return 1
		}
		return 0
	}
	if !utils.FileExists(in) {
		log.Printf("input %s does not exist", in)
		return 1
	}

	res, err := editor.CropFile(ctx, in, opts, sink)
	if err != nil {
		log.Print(err)
		return 1
	}
	report(in, res)
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetConfigPath()
		if !utils.FileExists(path) {
			return config.Default(), nil
		}
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	logging.Debugf("loaded config from %s", path)
	return cfg, nil
}

// runBatch crops every image under dir. Each output is named after its input.
func runBatch(ctx context.Context, editor *photoeditor.Editor, dir string, opts photoeditor.CropOptions, sink session.Sink, workers int) error {
	files, err := utils.ListImageFiles(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found in %s", dir)
	}
	log.Printf("processing %d images with %d workers", len(files), workers)

	var failed atomic.Int32
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, file := range files {
		file := file
		g.Go(func() error {
			fileOpts := opts
			fileOpts.FileName = outputName(dir, file)

			res, err := editor.CropFile(ctx, file, fileOpts, sink)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				failed.Add(1)
				log.Printf("%s: %v", file, err)
				return nil
			}
			report(file, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d images failed", n, len(files))
	}
	return nil
}

// outputName flattens the path of file below dir into a single file name
func outputName(dir, file string) string {
	rel, err := filepath.Rel(dir, file)
	if err != nil {
		rel = filepath.Base(file)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return utils.SanitizeFilename(strings.ReplaceAll(rel, string(filepath.Separator), "_"))
}

func report(in string, res *photoeditor.CropResult) {
	if res.Suggestion != nil {
		s := res.Suggestion
		logging.Debugf("%s: %s suggestion %+v (smart=%t)", in, s.Ratio.Name, s.Crop, s.Smart)
	}
	log.Printf("%s -> %s (%dx%d, %s)", in, res.Export.Name, res.Export.Width, res.Export.Height,
		utils.FormatFileSize(int64(len(res.Export.Data))))
	if res.PreviewName != "" {
		log.Printf("%s -> %s", in, res.PreviewName)
	}
}
