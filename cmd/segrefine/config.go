package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envPrefix prefixes every environment variable the command reads.
const envPrefix = "SEGREFINE_"

// config holds the settings of one run. Sources are applied in order:
// defaults, YAML file, environment (process, then .env file), flags.
type config struct {
	Source string `yaml:"source"`
	Mask   string `yaml:"mask"`
	Out    string `yaml:"out"`

	// Width and Height select the filter geometry. Zero keeps the source
	// image dimension.
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
	Radius uint32 `yaml:"radius"`
	Range  uint32 `yaml:"range"`
	Pad    string `yaml:"pad"`

	// MaskScale multiplies the mask before filtering, e.g. 255 to filter
	// in 0..255 units. The output PNG is rescaled back to 0..255.
	MaskScale float32 `yaml:"mask_scale"`

	// Capacity is the engine arena size in elements per plane. Zero
	// selects segrefine.DefaultCapacity.
	Capacity int `yaml:"capacity"`

	Locale  string `yaml:"locale"`
	LogFile string `yaml:"log_file"`
	Verbose bool   `yaml:"verbose"`
}

func defaultConfig() config {
	return config{
		Radius:    3,
		Range:     10,
		Pad:       "symmetric",
		MaskScale: 1,
		Locale:    "en",
	}
}

// validate checks that the settings describe a complete run.
func (c *config) validate() error {
	var missing []string
	if c.Source == "" {
		missing = append(missing, "source")
	}
	if c.Mask == "" {
		missing = append(missing, "mask")
	}
	if c.Out == "" {
		missing = append(missing, "out")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required setting: %s", strings.Join(missing, ", "))
	}
	if !(c.MaskScale > 0) || math.IsInf(float64(c.MaskScale), 0) {
		return fmt.Errorf("mask_scale must be positive and finite, got %v", c.MaskScale)
	}
	if c.Capacity < 0 {
		return fmt.Errorf("capacity must not be negative, got %d", c.Capacity)
	}
	return nil
}

// loadYAML overlays the settings in path onto c. Unknown keys are errors.
func loadYAML(c *config, path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// envLookup returns a lookup that prefers the process environment and falls
// back to the variables in dotenv. A missing dotenv file is not an error.
func envLookup(dotenv string) (func(string) (string, bool), error) {
	vars := map[string]string{}
	if dotenv != "" {
		m, err := godotenv.Read(dotenv)
		switch {
		case err == nil:
			vars = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", dotenv, err)
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}

// applyEnv overlays SEGREFINE_* variables onto c.
func applyEnv(c *config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	u32 := func(name string, dst *uint32) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		n, err := parseUint32(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("SOURCE", &c.Source)
	str("MASK", &c.Mask)
	str("OUT", &c.Out)
	str("PAD", &c.Pad)
	str("LOCALE", &c.Locale)
	str("LOG_FILE", &c.LogFile)

	for name, dst := range map[string]*uint32{
		"WIDTH":  &c.Width,
		"HEIGHT": &c.Height,
		"RADIUS": &c.Radius,
		"RANGE":  &c.Range,
	} {
		if err := u32(name, dst); err != nil {
			return err
		}
	}

	if v, ok := lookup(envPrefix + "CAPACITY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCAPACITY: %w", envPrefix, err)
		}
		c.Capacity = n
	}
	if v, ok := lookup(envPrefix + "MASK_SCALE"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
		if err != nil {
			return fmt.Errorf("%sMASK_SCALE: %w", envPrefix, err)
		}
		c.MaskScale = float32(f)
	}
	if v, ok := lookup(envPrefix + "VERBOSE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sVERBOSE: %w", envPrefix, err)
		}
		c.Verbose = b
	}
	return nil
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// uint32Value is a flag.Value for uint32 settings.
type uint32Value struct{ p *uint32 }

func (v uint32Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.FormatUint(uint64(*v.p), 10)
}

func (v uint32Value) Set(s string) error {
	n, err := parseUint32(s)
	if err != nil {
		return err
	}
	*v.p = n
	return nil
}

// parseConfig resolves the run settings from args and the environment.
// Flags that are not given on the command line never override the YAML
// file or the environment.
func parseConfig(args []string, output io.Writer) (config, error) {
	fset := flag.NewFlagSet("segrefine", flag.ContinueOnError)
	fset.SetOutput(output)

	var (
		fl         = defaultConfig()
		configPath = fset.String("config", "", "YAML settings file")
		envFile    = fset.String("env-file", ".env", "dotenv file with "+envPrefix+"* variables")
	)
	fset.StringVar(&fl.Source, "source", fl.Source, "source frame image")
	fset.StringVar(&fl.Mask, "mask", fl.Mask, "coarse segmentation mask image")
	fset.StringVar(&fl.Out, "out", fl.Out, "refined mask PNG to write")
	fset.Var(uint32Value{&fl.Width}, "width", "filter width (0 keeps the source width)")
	fset.Var(uint32Value{&fl.Height}, "height", "filter height (0 keeps the source height)")
	fset.Var(uint32Value{&fl.Radius}, "radius", "spatial radius in pixels")
	fset.Var(uint32Value{&fl.Range}, "range", "range parameter of the intensity weights")
	fset.StringVar(&fl.Pad, "pad", fl.Pad, "border padding: symmetric, replicate or zero")
	maskScale := fset.Float64("mask-scale", float64(fl.MaskScale), "multiply the mask before filtering (255 filters in 0..255 units)")
	fset.IntVar(&fl.Capacity, "capacity", fl.Capacity, "arena capacity in elements per plane (0 for default)")
	fset.StringVar(&fl.Locale, "locale", fl.Locale, "locale for the summary numbers")
	fset.StringVar(&fl.LogFile, "log-file", fl.LogFile, "write logs to a rotated file instead of stderr")
	fset.BoolVar(&fl.Verbose, "v", fl.Verbose, "verbose logging")

	if err := fset.Parse(args); err != nil {
		return config{}, err
	}
	if fset.NArg() > 0 {
		return config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fset.Args(), " "))
	}

	cfg := defaultConfig()
	if *configPath != "" {
		if err := loadYAML(&cfg, *configPath); err != nil {
			return config{}, err
		}
	}

	lookup, err := envLookup(*envFile)
	if err != nil {
		return config{}, err
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return config{}, err
	}

	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = fl.Source
		case "mask":
			cfg.Mask = fl.Mask
		case "out":
			cfg.Out = fl.Out
		case "width":
			cfg.Width = fl.Width
		case "height":
			cfg.Height = fl.Height
		case "radius":
			cfg.Radius = fl.Radius
		case "range":
			cfg.Range = fl.Range
		case "pad":
			cfg.Pad = fl.Pad
		case "mask-scale":
			cfg.MaskScale = float32(*maskScale)
		case "capacity":
			cfg.Capacity = fl.Capacity
		case "locale":
			cfg.Locale = fl.Locale
		case "log-file":
			cfg.LogFile = fl.LogFile
		case "v":
			cfg.Verbose = fl.Verbose
		}
	})

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// frameSize returns the filter geometry for a source of the given size.
func (c *config) frameSize(srcWidth, srcHeight int) (width, height int, err error) {
	width, height = srcWidth, srcHeight
	if c.Width != 0 {
		width = int(c.Width)
	}
	if c.Height != 0 {
		height = int(c.Height)
	}
	if width <= 0 || height <= 0 || uint64(width) > math.MaxUint32 || uint64(height) > math.MaxUint32 {
		return 0, 0, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	return width, height, nil
}
