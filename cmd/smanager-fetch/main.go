package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jadujoel/smanager/internal/config"
	"github.com/jadujoel/smanager/internal/http"
	ioutils "github.com/jadujoel/smanager/internal/io"
	"github.com/jadujoel/smanager/internal/manager"
)

func main() {
	// Command line flags
	var (
		atlasFlag    = flag.String("atlas", "", "Atlas document URL")
		sourceFlag   = flag.String("source-path", "", "Base URL encoded assets are fetched from (overrides config)")
		configFlag   = flag.String("config", "", "Path to config file")
		languageFlag = flag.String("language", "", "Preferred language tag (overrides config)")
		packagesFlag = flag.String("packages", "", "Comma-separated package names to load (default: everything)")
		sourcesFlag  = flag.String("sources", "", "Comma-separated source names to load")
		extFlag      = flag.String("extension", "", "Asset file extension: .webm or .mp4")
		verboseFlag  = flag.Bool("verbose", false, "Show every file as it loads")
		exportFlag   = flag.String("export", "", "Directory to write decoded sources as WAV files")
		dryRunFlag   = flag.Bool("dry-run", false, "Fetch and list the atlas without loading assets")
	)

	flag.Parse()

	if *atlasFlag == "" && flag.NArg() == 0 {
		fmt.Println("smanager-fetch - Prefetch a sound catalog")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  smanager-fetch -atlas <URL> [options]")
		fmt.Println("  smanager-fetch <URL> [options]")
		fmt.Println()
		fmt.Println("For interactive mode, use: smanager-tui")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	settings := config.DefaultSettings()
	if *configFlag != "" {
		var err error
		settings, err = config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// Apply flags
	if *sourceFlag != "" {
		settings.SourcePath = *sourceFlag
	}
	if *languageFlag != "" {
		settings.DefaultLanguage = *languageFlag
	}
	if *extFlag != "" {
		settings.FileExtension = *extFlag
	}
	if *verboseFlag {
		settings.Verbose = true
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settings: %v\n", err)
		os.Exit(1)
	}

	atlasURL := *atlasFlag
	if atlasURL == "" {
		atlasURL = flag.Arg(0)
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	mgr := manager.New(manager.Options{Settings: settings})
	if settings.Verbose {
		mgr.Subscribe(manager.EventFileLoading, func(ev manager.Event) {
			fmt.Println("   loading " + ev.Detail)
		})
	}
	mgr.Subscribe(manager.EventFileLoaded, func(ev manager.Event) {
		if settings.Verbose {
			fmt.Println(" + loaded " + ev.Detail)
		}
	})
	mgr.Subscribe(manager.EventFileLoadError, func(ev manager.Event) {
		fmt.Fprintln(os.Stderr, " x failed "+ev.Detail)
	})

	fmt.Println("smanager-fetch")
	fmt.Println()

	if err := mgr.LoadAtlas(ctx, atlasURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading atlas: %v\n", err)
		os.Exit(1)
	}

	packages := mgr.ActivePackages()
	fmt.Printf("Atlas: %d package(s), %d source(s), languages: %s\n",
		len(packages), len(mgr.SourceNames()), strings.Join(mgr.Languages(), ", "))
	for _, pkg := range packages {
		fmt.Println("  # " + pkg)
	}

	if *dryRunFlag {
		items := mgr.Atlas().Items(packages, mgr.Languages())
		client := http.NewClient(time.Duration(settings.HTTPTimeoutSeconds) * time.Second)
		var total int64
		for _, item := range items {
			if size, err := client.GetFileSize(ctx, mgr.URLFor(item)); err == nil {
				total += size
			}
		}
		fmt.Printf("\n[Dry run] %d file(s), ~%.2f MB - not loading\n", len(items), float64(total)/1024/1024)
		return
	}

	fmt.Println("\nLoading assets...")
	fmt.Println()

	var err error
	switch {
	case *sourcesFlag != "":
		err = mgr.LoadSources(ctx, splitList(*sourcesFlag))
	case *packagesFlag != "":
		err = mgr.LoadPackageNames(ctx, splitList(*packagesFlag))
	default:
		err = mgr.LoadEverything(ctx)
	}
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nLoad cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error during load: %v\n", err)
		os.Exit(1)
	}

	if *exportFlag != "" {
		if err := exportSources(ctx, mgr, *exportFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			os.Exit(1)
		}
	}

	stats := mgr.Stats()
	fmt.Println()
	fmt.Printf("Complete! Loaded %d/%d files\n", stats.Loaded, stats.Files)
	if stats.Rejected > 0 {
		fmt.Printf("   (%d failed)\n", stats.Rejected)
		os.Exit(1)
	}
}

// exportSources writes every loaded source in the active scope to dir as
// 16-bit WAV, named by source name.
func exportSources(ctx context.Context, mgr *manager.Manager, dir string) error {
	if err := ioutils.EnsureDir(dir); err != nil {
		return err
	}
	for _, name := range mgr.SourceNames() {
		buf := mgr.RequestBufferSync(ctx, name)
		if buf == nil {
			continue
		}
		path := filepath.Join(dir, ioutils.SanitizeFileName(name)+".wav")
		if err := ioutils.SaveWAV(path, buf); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
		fmt.Println(" > wrote " + path)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
