// skytool prepares sky map tiles and renders fields of view offline.
//
//	skytool split -tilesize 2048 -o skymapsplit skymap.jpg
//	skytool render -focal 200 -width 6000 -height 4000 -pitch 3.8 -ra 10 -dec 41 -o m31.png
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fogleman/gg"

	"github.com/skyview/skyview-reprojection/internal/config"
	"github.com/skyview/skyview-reprojection/internal/sky"
	"github.com/skyview/skyview-reprojection/internal/skymap"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: skytool split|render [flags] ...\n")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	// Defaults for the sky map location come from the server's environment.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	switch os.Args[1] {
	case "split":
		err = split(cfg, os.Args[2:])
	case "render":
		err = render(cfg, os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func split(cfg *config.AppConfig, args []string) error {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	dir := fs.String("o", cfg.TileDir, "directory to write tiles into")
	pattern := fs.String("pattern", cfg.TilePattern, "tile file name pattern, row then column")
	tileSize := fs.Int("tilesize", cfg.TileSize, "edge length of each square tile in pixels")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("split: want exactly one full-sphere map, got %d args", fs.NArg())
	}

	img, err := skymap.DecodeFile(fs.Arg(0))
	if err != nil {
		return err
	}
	return skymap.Split(img, *dir, *pattern, *tileSize)
}

func render(cfg *config.AppConfig, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	mode := fs.String("mode", cfg.SkyMapMode, "sky map source: tiled or preloaded")
	out := fs.String("o", "skyview.png", "output PNG")
	title := fs.Bool("title", true, "label the render with its pointing and field of view")

	var cam sky.CameraSpec
	fs.Float64Var(&cam.FocalLengthMm, "focal", 0, "focal length in mm")
	fs.IntVar(&cam.SensorWidthPx, "width", 0, "sensor width in pixels")
	fs.IntVar(&cam.SensorHeightPx, "height", 0, "sensor height in pixels")
	fs.Float64Var(&cam.PixelPitchMicrons, "pitch", 0, "pixel pitch in microns")

	ra := fs.Float64("ra", 0, "right ascension in degrees")
	dec := fs.Float64("dec", 0, "declination in degrees")
	target := fs.String("target", "", "named object, instead of -ra/-dec")
	lon := fs.Float64("lon", 0, "observer longitude in degrees, with -target")
	lat := fs.Float64("lat", 0, "observer latitude in degrees, with -target")
	fs.Parse(args)

	var obs sky.ObserverSpec
	if *target != "" {
		obs = sky.ObserverSpec{TargetName: *target, Longitude: lon, Latitude: lat}
	} else {
		obs = sky.ObserverSpec{RA: ra, Dec: dec}
	}

	catalog, err := sky.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	var source sky.Source
	if *mode == config.ModePreloaded {
		source = skymap.LoadPreloaded(cfg.SkyMapPath)
	} else {
		source = skymap.NewTiled(cfg.TileDir, cfg.TilePattern, cfg.TileSize)
	}

	svc := sky.NewService(sky.NewResolver(catalog, nil), source, 0)
	frame, err := svc.Render(context.Background(), sky.RenderRequest{Camera: cam, Observer: obs})
	if err != nil {
		return err
	}

	dc := gg.NewContextForImage(frame.Pixels.Image())
	if *title {
		label := fmt.Sprintf("%s  %.3f° × %.3f°", frame.Center, frame.FOV.WidthDeg, frame.FOV.HeightDeg)
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(label, 10, float64(dc.Height())-10, 0, 0)
	}
	if err := dc.SavePNG(*out); err != nil {
		return err
	}
	log.Printf("INFO: wrote %s", *out)
	return nil
}
