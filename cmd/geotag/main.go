package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/electronjoe/geotag/internal/config"
	"github.com/electronjoe/geotag/internal/geotag"
	"github.com/electronjoe/geotag/internal/location"
	"github.com/electronjoe/geotag/internal/photo"
	"github.com/electronjoe/geotag/internal/tagger"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	// .env is optional; real environment variables still apply without it.
	_ = godotenv.Load()

	os.Exit(run(os.Args[1:], os.Getenv, os.Stderr))
}

func run(args []string, getenv func(string) string, stderr io.Writer) int {
	// 1. Read config
	cfg, err := config.Load("geotag", args, getenv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if errors.Is(err, config.ErrUsage) {
		fmt.Fprintf(stderr, "geotag: %v\n", err)
		return exitUsage
	}

	logger := newLogger(stderr, cfg.Verbose)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read config")
		return exitFailure
	}
	if cfg.ConfigFile != "" {
		logger.Debug().Str("config", cfg.ConfigFile).Msg("Loaded config file")
	}

	// 2. Load the location log
	logger.Info().Str("file", cfg.LocationFile).Msg("Loading location data (can take a while)")
	track, err := location.Load(cfg.LocationFile)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load location data")
		return exitFailure
	}
	logger.Info().
		Int("locations", len(track)).
		Time("from", track.Start()).
		Time("to", track.End()).
		Msg("Found locations")

	// 3. List photos
	files, err := photo.Enumerate(cfg.PhotoDir, cfg.Extensions)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open photo directory")
		return exitFailure
	}

	// 4. Metadata writer
	var writer tagger.GPSWriter = dryRunWriter{}
	if !cfg.DryRun {
		w, err := geotag.NewExifWriter(cfg.Exiftool, cfg.Backup)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to initialize exiftool")
			return exitFailure
		}
		defer func() {
			if err := w.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close exiftool")
			}
		}()
		writer = w
	}

	// 5. Geotag
	logger.Info().
		Str("dir", cfg.PhotoDir).
		Strs("extensions", cfg.Extensions).
		Dur("tolerance", cfg.MaxGap).
		Str("camera_tz", cfg.TimeZone.String()).
		Bool("dry_run", cfg.DryRun).
		Bool("backup", cfg.Backup).
		Msg("Geotagging photos")

	t := tagger.New(
		location.Matcher{Track: track, MaxGap: cfg.MaxGap},
		photo.Reader{Location: cfg.TimeZone, UseModTime: cfg.UseModTime},
		writer,
		geotag.HasGPS,
		tagger.Options{SkipTagged: cfg.SkipTagged, DryRun: cfg.DryRun},
		logger,
	)
	sum := t.Run(files)

	if sum.Failures() > 0 {
		logger.Warn().Int("failures", sum.Failures()).Msg("Some photos were not geotagged")
	}
	return sum.ExitCode()
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Str("run", uuid.NewString()[:8]).
		Logger()
}

// dryRunWriter stands in for exiftool when nothing may be written.
type dryRunWriter struct{}

func (dryRunWriter) WriteGPS(string, location.Sample) error {
	return errors.New("write attempted during dry run")
}
