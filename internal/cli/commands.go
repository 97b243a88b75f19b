package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"pptextract/internal/config"
	"pptextract/internal/extractor"
)

// Report summarizes an extract run.
type Report struct {
	Files      int
	Images     int
	Skipped    int
	ShortReads int
	Failed     []FailedFile
}

// FailedFile records why one input could not be processed.
type FailedFile struct {
	Path   string
	Reason string
}

// fileResult is the outcome of extracting one input file.
type fileResult struct {
	dir        string
	written    int
	skipped    int
	shortReads int
	err        error
}

// RunList prints every image of each file: index, name, size and, when the
// header can be read, pixel dimensions.
func RunList(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: pptextract list <file> [...]")
	}

	var failed int
	for _, path := range fs.Args() {
		if err := listFile(path, out); err != nil {
			log.Printf("Warning: %v", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, fs.NArg())
	}
	return nil
}

func listFile(path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	x, err := extractor.Open(f, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s %s\n", path, x.Kind(), x)
	for img, err := range x.All() {
		if err != nil && !errors.Is(err, extractor.ErrShortRead) {
			return err
		}
		line := fmt.Sprintf("  %3d  %-16s %10d", img.Index, img.Name, len(img.Data))
		if w, h, ok := Dimensions(img); ok {
			line += fmt.Sprintf("  %dx%d", w, h)
		}
		if err != nil {
			line += "  (truncated)"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

// RunExtract writes the images of each file under cfg.OutputDir/<stem>/,
// where cfg is the current config of cm. Flags override cfg; -save-config
// stores the effective settings back to the config file. Files are
// processed concurrently, each with its own file handle and extractor.
// Inputs that share a stem get distinct directories (deck, deck-2, ...).
func RunExtract(args []string, cm *config.ConfigManager, out io.Writer) (*Report, error) {
	cfg := cm.Get()
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&cfg.OutputDir, "o", cfg.OutputDir, "output directory")
	fs.IntVar(&cfg.Workers, "j", cfg.Workers, "number of files processed in parallel")
	fs.Int64Var(&cfg.MinSize, "min-size", cfg.MinSize, "skip images smaller than this many bytes")
	fs.BoolVar(&cfg.Inflate, "inflate", cfg.Inflate, "decompress EMF/WMF metafiles")
	save := fs.Bool("save-config", false, "write the effective settings to the config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if *save {
		if err := cm.Update(*cfg); err != nil {
			return nil, err
		}
		if err := cm.Save(); err != nil {
			return nil, err
		}
	}
	if fs.NArg() == 0 {
		if *save {
			return &Report{}, nil
		}
		return nil, errors.New("usage: pptextract extract [-o dir] [-j n] [-min-size bytes] [-inflate] [-save-config] <file> [...]")
	}

	files := fs.Args()
	dirs := outputDirs(cfg.OutputDir, files)
	results := make([]fileResult, len(files))

	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for i, path := range files {
		g.Go(func() error {
			results[i] = extractFile(path, dirs[i], cfg)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Files: len(files)}
	for i, res := range results {
		report.Images += res.written
		report.Skipped += res.skipped
		report.ShortReads += res.shortReads
		if res.err != nil {
			report.Failed = append(report.Failed, FailedFile{Path: files[i], Reason: res.err.Error()})
			fmt.Fprintf(out, "[%d/%d] %s ... failed: %v\n", i+1, len(files), files[i], res.err)
			continue
		}
		fmt.Fprintf(out, "[%d/%d] %s -> %s ... %d images\n", i+1, len(files), files[i], res.dir, res.written)
	}

	printReport(out, report)
	return report, nil
}

// outputDirs assigns each input its own directory under root, named after
// the file stem. Repeated stems get a numeric suffix; comparison ignores
// case so the result is also unique on case-insensitive file systems.
func outputDirs(root string, files []string) []string {
	dirs := make([]string, len(files))
	used := make(map[string]bool, len(files))
	for i, path := range files {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		name := stem
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s-%d", stem, n)
		}
		used[strings.ToLower(name)] = true
		dirs[i] = filepath.Join(root, name)
	}
	return dirs
}

func extractFile(path, dir string, cfg *config.Config) (res fileResult) {
	res.dir = dir
	fail := func(err error) fileResult {
		res.err = err
		return res
	}

	f, err := os.Open(path)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	x, err := extractor.Open(f, path)
	if err != nil {
		return fail(err)
	}

	get := x.Extract
	if p, ok := x.(*extractor.PPT); ok && cfg.Inflate {
		get = p.ExtractInflated
	}

	if x.Len() > 0 {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fail(fmt.Errorf("failed to create output directory: %w", err))
		}
	}

	for i := 0; i < x.Len(); i++ {
		img, err := get(i)
		switch {
		case errors.Is(err, extractor.ErrShortRead) && img != nil:
			log.Printf("Warning: %s: %v; keeping %d bytes", path, err, len(img.Data))
			res.shortReads++
		case err != nil:
			return fail(err)
		}
		if int64(len(img.Data)) < cfg.MinSize {
			res.skipped++
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, img.Name), img.Data, 0644); err != nil {
			return fail(fmt.Errorf("failed to write %s: %w", img.Name, err))
		}
		res.written++
	}
	return res
}

func printReport(out io.Writer, r *Report) {
	fmt.Fprintln(out, "\n========== Extraction report ==========")
	fmt.Fprintf(out, "Files:       %d\n", r.Files)
	fmt.Fprintf(out, "Images:      %d\n", r.Images)
	if r.Skipped > 0 {
		fmt.Fprintf(out, "Skipped:     %d (below min size)\n", r.Skipped)
	}
	if r.ShortReads > 0 {
		fmt.Fprintf(out, "Truncated:   %d\n", r.ShortReads)
	}
	fmt.Fprintf(out, "Failed:      %d\n", len(r.Failed))
	if len(r.Failed) > 0 {
		fmt.Fprintln(out, "\nFailed files:")
		for _, f := range r.Failed {
			absPath, err := filepath.Abs(f.Path)
			if err != nil {
				absPath = f.Path
			}
			fmt.Fprintf(out, "  %s\n    reason: %s\n", absPath, f.Reason)
		}
	}
	fmt.Fprintln(out, "=======================================")
}
