package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"imgconv/contracts"
	"imgconv/converter"
	"imgconv/files_manager"
	"imgconv/handles"
	"imgconv/logging"
	"imgconv/metrics"
	"imgconv/server"
	"imgconv/tracker"
)

func main() {
	serve := flag.Bool("serve", false, "Run the HTTP conversion server")
	addr := flag.String("addr", ":8080", "Listen address for server mode")
	inputDir := flag.String("input", "", "Input directory containing image files")
	outputDir := flag.String("output", "", "Output directory for converted files")
	format := flag.String("format", "png", "Target format (png, jpg, webp, pdf)")
	quality := flag.Int("quality", converter.EncodeQuality, "Encode quality for lossy targets (1-100)")
	workers := flag.Int("workers", max(runtime.NumCPU()-1, 1), "Number of concurrent conversions in batch mode")
	flag.Parse()

	target, err := contracts.ParseFormat(*format)
	if err != nil {
		fmt.Printf("[ERROR]: %v\n", err)
		os.Exit(1)
	}
	if *quality < 1 || *quality > 100 {
		fmt.Printf("[ERROR]: quality must be between 1 and 100, got %d\n", *quality)
		os.Exit(1)
	}

	converter.InitVips()
	defer converter.ShutdownVips()

	registry := handles.NewRegistry()
	metrics.RegisterHandleGauge(func() float64 { return float64(registry.Len()) })
	conv := converter.New(registry)
	conv.SetQuality(*quality)

	if *serve {
		runServer(*addr, registry, conv)
		return
	}

	if *inputDir == "" || *outputDir == "" {
		fmt.Println("Either -serve or both -input and -output are required")
		flag.Usage()
		os.Exit(1)
	}
	runBatch(*inputDir, *outputDir, target, *workers, registry, conv)
}

func runServer(addr string, registry *handles.Registry, conv *converter.Converter) {
	store := tracker.NewStore(registry)
	srv := server.New(registry, store, conv)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.Handler(),
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logging.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("server shutdown error: %v", err)
		}
	}()

	logging.Info("server listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("ListenAndServe error: %v", err)
	}
}

func runBatch(inputDir, outputDir string, target contracts.Format, workers int, registry *handles.Registry, conv *converter.Converter) {
	if stat, err := os.Stat(inputDir); err != nil || !stat.IsDir() {
		fmt.Printf("[ERROR]: input directory %s does not exist or is not a directory\n", inputDir)
		os.Exit(1)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Printf("[ERROR]: %v\n", err)
		os.Exit(1)
	}

	paths, totalSize, err := files_manager.ScanDir(inputDir)
	if err != nil {
		fmt.Printf("[ERROR]: %v\n", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Println("No supported image files found in the input directory.")
		os.Exit(0)
	}
	fmt.Printf("Found %d image files (%d bytes total)\n", len(paths), totalSize)

	files := make([]contracts.FileInfo, 0, len(paths))
	for _, path := range paths {
		file, err := files_manager.LoadFile(path)
		if err != nil {
			fmt.Printf("[ERROR]: %v\n", err)
			continue
		}
		files = append(files, file)
	}

	startTime := time.Now()
	results := conv.ConvertBatch(files, target, workers)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("[ERROR]: %v\n", res.Err)
			failed++
			continue
		}
		data, _, ok := registry.Get(res.Result.Handle)
		if !ok {
			fmt.Printf("[ERROR]: lost result for %s\n", res.File.Name)
			failed++
			continue
		}
		outPath := filepath.Join(outputDir, tracker.OutputName(res.File.Name, target))
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			fmt.Printf("[ERROR]: %v\n", err)
			failed++
		}
		registry.Release(res.Result.Handle)
	}

	fmt.Printf("Converted %d of %d files in %s\n", len(results)-failed, len(results), time.Since(startTime))
	if failed > 0 {
		os.Exit(1)
	}
}
