package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/electronjoe/geotag/internal/geotag"
	"github.com/electronjoe/geotag/internal/photo"
)

// ImageMetadata is what geoinspect reports for one photo.
type ImageMetadata struct {
	File        string     `json:"file"`
	CaptureTime *time.Time `json:"capture_time,omitempty"`
	TimeSource  string     `json:"time_source,omitempty"`
	// Raw GPS coordinates, when the photo has them
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("geoinspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", "", "Directory containing the photos to inspect.")
	exts := fs.String("ext", strings.Join(photo.DefaultExtensions, ","), "Comma-separated photo extensions.")
	tz := fs.String("tz", "Local", "IANA time zone the camera clock was set to.")
	modTime := fs.Bool("modtime", false, "Report the file modification time when EXIF has no capture time.")
	asJSON := fs.Bool("json", false, "Print a JSON array instead of one line per photo.")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()

	if *dir == "" && fs.NArg() > 0 {
		*dir = fs.Arg(0)
	}
	if *dir == "" {
		logger.Error().Msg("Please provide a photo directory using the -dir flag")
		return 2
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid time zone")
		return 2
	}

	var extList []string
	for _, ext := range strings.Split(*exts, ",") {
		if ext = photo.NormalizeExtension(ext); ext != "" {
			extList = append(extList, ext)
		}
	}

	files, err := photo.Enumerate(*dir, extList)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read photo directory")
		return 1
	}

	reader := photo.Reader{Location: loc, UseModTime: *modTime}
	var all []ImageMetadata
	for path, err := range files {
		if err != nil {
			logger.Error().Err(err).Msg("Failed to list photo")
			return 1
		}
		meta := extractMetadata(reader, path)
		if *asJSON {
			all = append(all, meta)
			continue
		}
		fmt.Fprintln(stdout, meta.line())
	}

	if *asJSON {
		if all == nil {
			all = []ImageMetadata{}
		}
		data, err := json.MarshalIndent(all, "", "  ")
		if err != nil {
			logger.Error().Err(err).Msg("Failed to marshal JSON")
			return 1
		}
		fmt.Fprintln(stdout, string(data))
	}
	return 0
}

// extractMetadata collects the capture time and GPS position of one photo.
// Problems are reported in the Error field rather than aborting the listing.
func extractMetadata(reader photo.Reader, path string) ImageMetadata {
	meta := ImageMetadata{File: path}

	var problems []string
	rec, err := reader.Read(path)
	if err != nil {
		problems = append(problems, err.Error())
	} else {
		meta.CaptureTime = &rec.CaptureTime
		meta.TimeSource = rec.TimeSource
	}

	pos, ok, err := geotag.ReadGPS(path)
	if err != nil {
		problems = append(problems, err.Error())
	} else if ok {
		meta.Latitude = &pos.Latitude
		meta.Longitude = &pos.Longitude
	}

	meta.Error = strings.Join(problems, "; ")
	return meta
}

func (m ImageMetadata) line() string {
	when := "-"
	if m.CaptureTime != nil {
		when = m.CaptureTime.Format(time.RFC3339) + " (" + m.TimeSource + ")"
	}
	where := "no GPS"
	if m.Latitude != nil && m.Longitude != nil {
		where = fmt.Sprintf("%.6f, %.6f", *m.Latitude, *m.Longitude)
	}
	line := fmt.Sprintf("%s\t%s\t%s", m.File, when, where)
	if m.Error != "" {
		line += "\t" + m.Error
	}
	return line
}
