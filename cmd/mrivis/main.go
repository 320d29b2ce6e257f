package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"mrivis/internal/catalog"
	"mrivis/internal/models"
	"mrivis/internal/webui"
	"mrivis/pkg/config"
	"mrivis/pkg/dicomseries"
	"mrivis/pkg/visualization"
)

// seriesInfoFor picks the catalog entry for the loaded series directory,
// falling back to a minimal entry when the scan missed it
func seriesInfoFor(series []models.SeriesInfo, dir string) models.SeriesInfo {
	for _, s := range series {
		if s.Path == dir {
			return s
		}
	}
	return models.SeriesInfo{Path: dir}
}

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "mrivis.yaml", "Path to YAML configuration file")
	dicomDir := flag.String("dicom", "", "Root directory containing DICOM series (overrides config)")
	listenAddr := flag.String("listen", "", "Address for the web UI to listen on (overrides config)")
	seriesMatch := flag.String("match", "", "Series description match term (overrides config)")
	exportSlices := flag.Bool("export-slices", false, "Extract and save slices along all axes before serving")
	slicesDir := flag.String("slices-dir", "", "Directory to save exported slices (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dicomDir != "" {
		cfg.Dicom.Dir = *dicomDir
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if *seriesMatch != "" {
		cfg.Dicom.SeriesMatch = *seriesMatch
	}
	if *slicesDir != "" {
		cfg.Export.SlicesDir = *slicesDir
	}

	if cfg.Dicom.Dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if cfg.Output.Verbose {
		fmt.Println("================================")
		fmt.Println("MRI VISUALIZATION")
		fmt.Println("DICOM slice viewer web UI")
		fmt.Println("================================")
	}

	// Find the series to load by matching its description
	fmt.Printf("Searching for %q series under %s...\n", cfg.Dicom.SeriesMatch, cfg.Dicom.Dir)
	seriesDir, err := dicomseries.FindSeries(cfg.Dicom.Dir, cfg.Dicom.SeriesMatch)
	if err != nil {
		log.Fatalf("Series discovery failed: %v", err)
	}
	fmt.Printf("Series found at: %s\n", seriesDir)

	// Load the series into a volume
	volume, err := dicomseries.LoadSeries(seriesDir)
	if err != nil {
		log.Fatalf("Failed to load series: %v", err)
	}
	fmt.Printf("Volume assembled: %dx%dx%d voxels, voxel size %.2fx%.2fx%.2f mm\n",
		volume.Width, volume.Height, volume.Depth,
		volume.VoxelSize.X, volume.VoxelSize.Y, volume.VoxelSize.Z)

	viewer := visualization.NewViewerFromVolume(volume)

	if cfg.Output.Verbose {
		stats := viewer.VolumeStats()
		fmt.Printf("Intensity: min=%.3f max=%.3f mean=%.3f stddev=%.3f\n",
			stats.Min, stats.Max, stats.Mean, stats.StdDev)
	}

	// Extract and save slices if requested
	if *exportSlices {
		fmt.Println("Extracting slices along all axes...")
		for _, axis := range []string{"x", "y", "z"} {
			axisDir := filepath.Join(cfg.Export.SlicesDir, axis)
			fmt.Printf("Saving %s-axis slices to: %s\n", axis, axisDir)

			if err := viewer.SaveSliceSequence(axis, axisDir); err != nil {
				log.Printf("Warning: Failed to save %s-axis slices: %v", axis, err)
			}
		}
		fmt.Println("Slice extraction completed!")
	}

	// Catalog every series under the root so the UI can list them
	db, err := catalog.NewDB(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("Failed to open series catalog: %v", err)
	}
	defer db.Close()

	allSeries, err := dicomseries.ListSeries(cfg.Dicom.Dir)
	if err != nil {
		log.Printf("Warning: Failed to scan series catalog: %v", err)
	}
	loaded := allSeries[:0]
	for _, s := range allSeries {
		if err := db.UpsertSeries(s); err != nil {
			log.Printf("Warning: Failed to catalog series %s: %v", s.Path, err)
			continue
		}
		loaded = append(loaded, s)
	}
	fmt.Printf("Cataloged %d series\n", len(loaded))

	info := seriesInfoFor(loaded, seriesDir)

	server := webui.NewServer(webui.Config{
		Addr:     cfg.Server.ListenAddr,
		Viewer:   viewer,
		Volume:   volume,
		Series:   info,
		Catalog:  db,
		ScanRoot: cfg.Dicom.Dir,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
}
