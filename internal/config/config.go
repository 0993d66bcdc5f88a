package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/electronjoe/geotag/internal/photo"
)

const (
	DefaultConfigPath = ".geotag/config.yaml"
	DefaultTolerance  = time.Hour
)

// ErrUsage marks command-line mistakes, as opposed to failures loading files.
var ErrUsage = errors.New("usage")

// Config is everything a geotag run needs. It is built once and passed down
// explicitly.
type Config struct {
	PhotoDir     string
	LocationFile string
	// MaxGap is the largest accepted distance between a capture time and a
	// location sample. Negative disables the limit.
	MaxGap     time.Duration
	Extensions []string
	TimeZone   *time.Location
	UseModTime bool
	Backup     bool
	SkipTagged bool
	DryRun     bool
	Exiftool   string
	Verbose    bool
	ConfigFile string
}

// fileConfig is the YAML defaults file. Pointers distinguish unset from false.
type fileConfig struct {
	Tolerance  string   `yaml:"tolerance"`   // Go duration or hours, e.g. "90m" or "2"
	Extensions []string `yaml:"extensions"`  // Photo extensions to process
	TimeZone   string   `yaml:"timezone"`    // IANA zone of the camera clock
	UseModTime *bool    `yaml:"use_modtime"` // Fall back to file mtime
	Backup     *bool    `yaml:"backup"`      // Keep <file>_original before writing
	SkipTagged *bool    `yaml:"skip_tagged"` // Leave photos with GPS alone
	Exiftool   string   `yaml:"exiftool"`    // Path to the exiftool binary
}

// Environment variables read by Load.
const (
	EnvTolerance  = "GEOTAG_TOLERANCE"
	EnvTimeZone   = "GEOTAG_TZ"
	EnvExtensions = "GEOTAG_EXTENSIONS"
	EnvExiftool   = "GEOTAG_EXIFTOOL"
)

func defaults() Config {
	return Config{
		MaxGap:     DefaultTolerance,
		Extensions: photo.DefaultExtensions,
		TimeZone:   time.Local,
	}
}

// Load builds the run configuration. Later sources win: built-in defaults, the
// YAML file (~/.geotag/config.yaml or -config), environment variables, then
// command-line flags. The photo directory and location file may be given as
// flags or as the two positional arguments.
func Load(name string, args []string, getenv func(string) string, output io.Writer) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: %s [flags] <photo-dir> <location-file>\n\n", name)
		fs.PrintDefaults()
	}

	var (
		dir, jsonFile, tolerance, exts, tz, exiftool, configFile string
		useModTime, backup, skipTagged, dryRun, verbose          bool
	)
	fs.StringVar(&dir, "dir", "", "Photo directory.")
	fs.StringVar(&dir, "d", "", "Shorthand for -dir.")
	fs.StringVar(&jsonFile, "json", "", "Location history file (Google JSON export or NMEA log).")
	fs.StringVar(&jsonFile, "j", "", "Shorthand for -json.")
	fs.StringVar(&tolerance, "tolerance", DefaultTolerance.String(), "Max time gap, as a Go duration or a number of hours; negative disables the limit.")
	fs.StringVar(&tolerance, "t", DefaultTolerance.String(), "Shorthand for -tolerance.")
	fs.StringVar(&exts, "ext", strings.Join(photo.DefaultExtensions, ","), "Comma-separated photo extensions.")
	fs.StringVar(&tz, "tz", "Local", "IANA time zone the camera clock was set to.")
	fs.StringVar(&exiftool, "exiftool", "", "Path to the exiftool binary (default: exiftool in PATH).")
	fs.StringVar(&configFile, "config", "", "YAML defaults file (default ~/"+DefaultConfigPath+").")
	fs.BoolVar(&useModTime, "modtime", false, "Use the file modification time when EXIF has no capture time.")
	fs.BoolVar(&backup, "backup", false, "Keep each original photo as <file>_original when writing.")
	fs.BoolVar(&skipTagged, "skip-tagged", false, "Leave photos that already have a GPS position alone.")
	fs.BoolVar(&dryRun, "dry-run", false, "Match photos and report, without writing.")
	fs.BoolVar(&verbose, "v", false, "Debug logging.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := defaults()

	// 1. YAML file
	explicitFile := configFile != ""
	if !explicitFile {
		if home, err := os.UserHomeDir(); err == nil {
			configFile = filepath.Join(home, DefaultConfigPath)
		}
	}
	if configFile != "" {
		if err := cfg.applyFile(configFile, explicitFile); err != nil {
			return Config{}, err
		}
	}

	// 2. Environment
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}

	// 3. Flags
	if set["tolerance"] || set["t"] {
		d, err := ParseTolerance(tolerance)
		if err != nil {
			return Config{}, fmt.Errorf("%w: -tolerance: %v", ErrUsage, err)
		}
		cfg.MaxGap = d
	}
	if set["ext"] {
		cfg.Extensions = splitExtensions(exts)
	}
	if set["tz"] {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Config{}, fmt.Errorf("%w: -tz: %v", ErrUsage, err)
		}
		cfg.TimeZone = loc
	}
	if set["exiftool"] {
		cfg.Exiftool = exiftool
	}
	if set["modtime"] {
		cfg.UseModTime = useModTime
	}
	if set["backup"] {
		cfg.Backup = backup
	}
	if set["skip-tagged"] {
		cfg.SkipTagged = skipTagged
	}
	cfg.DryRun = dryRun
	cfg.Verbose = verbose

	// Positional arguments fill whatever the flags left empty.
	rest := fs.Args()
	if dir == "" && len(rest) > 0 {
		dir, rest = rest[0], rest[1:]
	}
	if jsonFile == "" && len(rest) > 0 {
		jsonFile, rest = rest[0], rest[1:]
	}
	if len(rest) > 0 {
		return Config{}, fmt.Errorf("%w: unexpected arguments %q", ErrUsage, rest)
	}
	cfg.PhotoDir = dir
	cfg.LocationFile = jsonFile

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the required inputs are present.
func (c Config) Validate() error {
	if c.PhotoDir == "" {
		return fmt.Errorf("%w: photo directory is required", ErrUsage)
	}
	if c.LocationFile == "" {
		return fmt.Errorf("%w: location history file is required", ErrUsage)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: at least one photo extension is required", ErrUsage)
	}
	return nil
}

// applyFile overlays the YAML file at path. A missing file is only an error
// when it was named explicitly.
func (c *Config) applyFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file at %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if fc.Tolerance != "" {
		d, err := ParseTolerance(fc.Tolerance)
		if err != nil {
			return fmt.Errorf("config tolerance: %w", err)
		}
		c.MaxGap = d
	}
	if len(fc.Extensions) > 0 {
		c.Extensions = normalizeExtensions(fc.Extensions)
	}
	if fc.TimeZone != "" {
		loc, err := time.LoadLocation(fc.TimeZone)
		if err != nil {
			return fmt.Errorf("config timezone: %w", err)
		}
		c.TimeZone = loc
	}
	if fc.UseModTime != nil {
		c.UseModTime = *fc.UseModTime
	}
	if fc.Backup != nil {
		c.Backup = *fc.Backup
	}
	if fc.SkipTagged != nil {
		c.SkipTagged = *fc.SkipTagged
	}
	if fc.Exiftool != "" {
		c.Exiftool = fc.Exiftool
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if getenv == nil {
		return nil
	}
	if v := getenv(EnvTolerance); v != "" {
		d, err := ParseTolerance(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTolerance, err)
		}
		c.MaxGap = d
	}
	if v := getenv(EnvTimeZone); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeZone, err)
		}
		c.TimeZone = loc
	}
	if v := getenv(EnvExtensions); v != "" {
		c.Extensions = splitExtensions(v)
	}
	if v := getenv(EnvExiftool); v != "" {
		c.Exiftool = v
	}
	return nil
}

// maxToleranceHours is the largest number of hours a time.Duration can hold.
const maxToleranceHours = float64(math.MaxInt64 / int64(time.Hour))

// ParseTolerance accepts a Go duration ("90m", "1h30m") or a plain number of
// hours ("2", "0.5").
func ParseTolerance(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if hours, err := strconv.ParseFloat(s, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		if math.IsNaN(hours) || math.Abs(hours) > maxToleranceHours {
			return 0, fmt.Errorf("tolerance %q out of range", s)
		}
		return time.Duration(hours * float64(time.Hour)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid tolerance %q", s)
	}
	return d, nil
}

func splitExtensions(s string) []string {
	return normalizeExtensions(strings.Split(s, ","))
}

func normalizeExtensions(exts []string) []string {
	var out []string
	for _, ext := range exts {
		if ext = photo.NormalizeExtension(ext); ext != "" {
			out = append(out, ext)
		}
	}
	return out
}
