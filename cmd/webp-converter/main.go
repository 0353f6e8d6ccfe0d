package main

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"webp-converter-go/internal/config"
	"webp-converter-go/internal/converter"
	"webp-converter-go/internal/logger"
	"webp-converter-go/internal/statistics"
	"webp-converter-go/internal/web"

	"github.com/deepteams/webp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	outputPath   string
	outputFolder string
	quality      int
	lossless     bool
	method       int
	recursive    bool
	verbose      bool
	quiet        bool
	keepMetadata bool
	workers      int
	port         int
)

// rootCmd converts a file or directory of images to WebP.
var rootCmd = &cobra.Command{
	Use:   "webp-converter <input>",
	Short: "Convert images to WebP format",
	Long: `webp-converter converts JPEG, PNG, BMP, TIFF and GIF images to WebP,
either a single file or a whole directory tree.

Features:
- Batch conversion with per-file and aggregate statistics
- Lossy quality and lossless modes
- Encoder effort/compression tradeoff control
- Optional EXIF metadata passthrough
- Partial failures never abort a directory batch`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, args[0])
	},
}

// scanCmd lists convertible files without converting anything.
var scanCmd = &cobra.Command{
	Use:   "scan [directory]",
	Short: "Scan a directory and list convertible images without converting",
	Long: `Scan the specified directory (or current directory) and report the
candidate files, a breakdown by extension, and the total byte size.
Useful for previewing what a conversion run would process.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		return runScan(dir)
	},
}

// inspectCmd prints image header information for a single file.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print image format and dimensions for a file",
	Long: `Inspects a single image file and prints its format and dimensions.
For WebP files the full feature set is shown (lossy/lossless, alpha,
animation). Useful for verifying conversion output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(args[0])
	},
}

// serveCmd starts the web interface server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start web interface server",
	Long: `Starts a web server with a small interface for the converter:
start a conversion, watch per-file progress in real time over WebSocket,
and read the aggregate statistics.

Access the interface at http://localhost:<port> (default: 8080)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show detailed conversion information")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path (only used for single file conversion)")
	rootCmd.Flags().StringVar(&outputFolder, "output-folder", "", "output folder for converted images (e.g. ./out)")
	rootCmd.Flags().IntVarP(&quality, "quality", "q", 80, "quality setting from 1 (lowest) to 100 (highest)")
	rootCmd.Flags().BoolVar(&lossless, "lossless", false, "use lossless compression instead of lossy")
	rootCmd.Flags().IntVarP(&method, "method", "m", 4, "compression method: 0 (fastest) to 6 (best compression)")
	rootCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "process subdirectories when input is a directory")
	rootCmd.Flags().BoolVar(&keepMetadata, "keep-metadata", false, "copy EXIF metadata from JPEG/TIFF sources into the output")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "number of parallel conversion workers (default from config)")

	scanCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "scan subdirectories as well")

	serveCmd.Flags().IntVar(&port, "port", 8080, "port to run web server on")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveCmd)
}

// initConfig points viper at an explicit config file when one is given.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// runConvert executes the main conversion logic.
func runConvert(cmd *cobra.Command, input string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	req := converter.Request{
		Input:        input,
		Output:       outputPath,
		OutputFolder: outputFolder,
		Quality:      cfg.Quality,
		Lossless:     cfg.Lossless,
		Method:       cfg.Method,
		Recursive:    recursive,
		KeepMetadata: cfg.KeepMetadata,
	}

	log := setupLogger(cfg)

	if verbose {
		printResolvedConfig(req, cfg)
	}

	stats := statistics.NewConversionStats()
	conv := converter.NewWebPConverter(req.Quality, req.Lossless, req.Method, log)
	conv.SetKeepMetadata(req.KeepMetadata)
	batch := converter.NewBatch(conv, log, stats, cfg.Performance.Workers)

	if err := batch.Run(context.Background(), req); err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if !quiet {
		fmt.Println("\n" + stats.GetSummary())
	}

	return nil
}

// runScan lists the candidates a conversion run would process.
func runScan(dir string) error {
	kind, err := converter.ClassifyInput(dir)
	if err != nil {
		return err
	}
	if kind != converter.InputDirectory {
		return fmt.Errorf("scan expects a directory: %s", dir)
	}

	files, err := converter.FindImageFiles(dir, recursive)
	if err != nil {
		return err
	}

	byExt := make(map[string]int)
	var totalSize int64
	for _, path := range files {
		byExt[strings.ToLower(filepath.Ext(path))]++
		if info, err := os.Stat(path); err == nil {
			totalSize += info.Size()
		}
	}

	fmt.Printf("Scanned %s\n", dir)
	fmt.Printf("Candidates: %d\n", len(files))
	for ext, count := range byExt {
		fmt.Printf("  %s: %d\n", strings.ToUpper(strings.TrimPrefix(ext, ".")), count)
	}
	fmt.Printf("Total size: %s\n", statistics.FormatSize(totalSize))

	return nil
}

// runInspect prints header information for a single image file.
func runInspect(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	if converter.IsWebPFile(path) {
		feat, err := webp.GetFeatures(f)
		if err != nil {
			return fmt.Errorf("cannot read WebP features: %w", err)
		}
		fmt.Printf("File: %s\n", path)
		fmt.Printf("Format: webp (%s)\n", feat.Format)
		fmt.Printf("Dimensions: %dx%d\n", feat.Width, feat.Height)
		fmt.Printf("Alpha: %t\n", feat.HasAlpha)
		if feat.HasAnimation {
			fmt.Printf("Animation: %d frame(s), loop count %d\n", feat.FrameCount, feat.LoopCount)
		}
		return nil
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("cannot decode %s: %w", path, err)
	}
	fmt.Printf("File: %s\n", path)
	fmt.Printf("Format: %s\n", format)
	fmt.Printf("Dimensions: %dx%d\n", cfg.Width, cfg.Height)
	return nil
}

// runServe starts the web server and handles graceful shutdown.
func runServe(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.Web.Port = port
	}

	log := setupLogger(cfg)
	server := web.NewServer(cfg, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(cfg.Web.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	fmt.Printf("WebP Converter web interface: http://localhost:%d\n", cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop the server")

	<-sigChan
	fmt.Println("\nShutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	fmt.Println("Server stopped")
	return nil
}

// loadConfig loads configuration and applies CLI overrides. Flags win over
// the config file only when explicitly set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("quality") {
		cfg.Quality = quality
	}
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("lossless") {
		cfg.Lossless = lossless
	}
	if flags.Changed("keep-metadata") {
		cfg.KeepMetadata = keepMetadata
	}
	if flags.Changed("workers") {
		cfg.Performance.Workers = workers
	}

	// Ranges are re-checked after overrides so an out-of-range flag fails
	// before any conversion work begins.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// printResolvedConfig shows the effective configuration before running.
func printResolvedConfig(req converter.Request, cfg *config.Config) {
	fmt.Printf("Input: %s\n", req.Input)
	if req.Output != "" {
		fmt.Printf("Output: %s\n", req.Output)
	}
	if req.OutputFolder != "" {
		fmt.Printf("Output folder: %s\n", req.OutputFolder)
	}
	fmt.Printf("Quality: %d%%\n", req.Quality)
	fmt.Printf("Lossless: %t\n", req.Lossless)
	fmt.Printf("Method: %d\n", req.Method)
	fmt.Printf("Recursive: %t\n", req.Recursive)
	fmt.Printf("Keep metadata: %t\n", req.KeepMetadata)
	fmt.Printf("Workers: %d\n", cfg.Performance.Workers)
	fmt.Println(strings.Repeat("=", 50))
}

// setupLogger configures and returns a logger.
func setupLogger(cfg *config.Config) *logrus.Logger {
	loggerCfg := logger.LoggerConfig{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    !quiet,
	}

	if verbose {
		loggerCfg.Level = "debug"
	}
	if quiet {
		loggerCfg.Level = "error"
	}

	log, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log = logrus.New()
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
