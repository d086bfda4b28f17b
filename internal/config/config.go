package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"slide-annotator/internal/annotation"
	"slide-annotator/internal/transform"
	"slide-annotator/internal/wand"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds application configuration.
type Config struct {
	Wand      WandConfig      `mapstructure:"wand"`
	Combine   CombineConfig   `mapstructure:"combine"`
	Transform TransformConfig `mapstructure:"transform"`
	Style     StyleConfig     `mapstructure:"style"`
}

// WandConfig holds region growing and tracing settings.
type WandConfig struct {
	Threshold      int     `mapstructure:"threshold"`
	MinThreshold   int     `mapstructure:"min_threshold"`
	MaxThreshold   int     `mapstructure:"max_threshold"`
	Gain           float64 `mapstructure:"gain"` // threshold change per screen pixel of diagonal drag
	Contiguous     bool    `mapstructure:"contiguous"`
	Expand         bool    `mapstructure:"expand"`
	Replace        bool    `mapstructure:"replace"`
	MinContourArea float64 `mapstructure:"min_contour_area"`
	Simplify       float64 `mapstructure:"simplify"`
	CoverageFloor  float64 `mapstructure:"coverage_floor"`
}

// CombineConfig holds the boolean retry budget.
type CombineConfig struct {
	Retries int     `mapstructure:"retries"`
	Epsilon float64 `mapstructure:"epsilon"`
}

// TransformConfig sizes the transform overlay in screen pixels.
type TransformConfig struct {
	HandleOffset float64 `mapstructure:"handle_offset"`
	HandleSize   float64 `mapstructure:"handle_size"`
}

// StyleConfig is the document default style.
type StyleConfig struct {
	FillColor          string  `mapstructure:"fill_color"`
	StrokeColor        string  `mapstructure:"stroke_color"`
	StrokeWidth        float64 `mapstructure:"stroke_width"`
	FillOpacity        float64 `mapstructure:"fill_opacity"`
	StrokeOpacity      float64 `mapstructure:"stroke_opacity"`
	RescaleStrokeWidth float64 `mapstructure:"rescale_stroke_width"`
}

func setDefaults(v *viper.Viper) {
	w := wand.DefaultOptions()
	v.SetDefault("wand.threshold", w.Threshold)
	v.SetDefault("wand.min_threshold", w.MinThreshold)
	v.SetDefault("wand.max_threshold", w.MaxThreshold)
	v.SetDefault("wand.gain", w.Gain)
	v.SetDefault("wand.contiguous", w.Contiguous)
	v.SetDefault("wand.expand", w.Expand)
	v.SetDefault("wand.replace", w.Replace)
	v.SetDefault("wand.min_contour_area", w.MinContourArea)
	v.SetDefault("wand.simplify", w.Simplify)
	v.SetDefault("wand.coverage_floor", w.CoverageFloor)
	v.SetDefault("combine.retries", w.Retries)
	v.SetDefault("combine.epsilon", w.Epsilon)

	t := transform.DefaultOptions()
	v.SetDefault("transform.handle_offset", t.HandleOffset)
	v.SetDefault("transform.handle_size", t.HandleSize)

	s := annotation.DefaultStyle()
	v.SetDefault("style.fill_color", s.FillColor)
	v.SetDefault("style.stroke_color", s.StrokeColor)
	v.SetDefault("style.stroke_width", s.StrokeWidth)
	v.SetDefault("style.fill_opacity", s.FillOpacity)
	v.SetDefault("style.stroke_opacity", s.StrokeOpacity)
	v.SetDefault("style.rescale_stroke_width", s.Rescale["strokeWidth"])
}

// Default returns the built-in configuration.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		panic(fmt.Sprintf("unmarshal defaults: %v", err))
	}
	return c
}

// Load reads configuration from path, or when path is empty from
// $ANNOTATOR_CONFIG or ~/.config/slide-annotator/config.yaml if present.
// Env var overrides use prefix ANNOTATOR_, e.g. ANNOTATOR_WAND_THRESHOLD.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := path != ""
	if path == "" {
		path = os.Getenv("ANNOTATOR_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "slide-annotator"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("ANNOTATOR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case !explicit && os.IsNotExist(err):
		default:
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Save writes cfg to path; the format follows the file extension.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.Set("wand.threshold", cfg.Wand.Threshold)
	v.Set("wand.min_threshold", cfg.Wand.MinThreshold)
	v.Set("wand.max_threshold", cfg.Wand.MaxThreshold)
	v.Set("wand.gain", cfg.Wand.Gain)
	v.Set("wand.contiguous", cfg.Wand.Contiguous)
	v.Set("wand.expand", cfg.Wand.Expand)
	v.Set("wand.replace", cfg.Wand.Replace)
	v.Set("wand.min_contour_area", cfg.Wand.MinContourArea)
	v.Set("wand.simplify", cfg.Wand.Simplify)
	v.Set("wand.coverage_floor", cfg.Wand.CoverageFloor)
	v.Set("combine.retries", cfg.Combine.Retries)
	v.Set("combine.epsilon", cfg.Combine.Epsilon)
	v.Set("transform.handle_offset", cfg.Transform.HandleOffset)
	v.Set("transform.handle_size", cfg.Transform.HandleSize)
	v.Set("style.fill_color", cfg.Style.FillColor)
	v.Set("style.stroke_color", cfg.Style.StrokeColor)
	v.Set("style.stroke_width", cfg.Style.StrokeWidth)
	v.Set("style.fill_opacity", cfg.Style.FillOpacity)
	v.Set("style.stroke_opacity", cfg.Style.StrokeOpacity)
	v.Set("style.rescale_stroke_width", cfg.Style.RescaleStrokeWidth)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks ranges the tools rely on.
func (c Config) Validate() error {
	w := c.Wand
	switch {
	case w.MinThreshold < 0 || w.MaxThreshold > 255 || w.MinThreshold > w.MaxThreshold:
		return fmt.Errorf("%w: threshold range [%d, %d] outside [0, 255]", ErrInvalid, w.MinThreshold, w.MaxThreshold)
	case w.Threshold < w.MinThreshold || w.Threshold > w.MaxThreshold:
		return fmt.Errorf("%w: threshold %d outside [%d, %d]", ErrInvalid, w.Threshold, w.MinThreshold, w.MaxThreshold)
	case w.CoverageFloor <= 0 || w.CoverageFloor >= 1:
		return fmt.Errorf("%w: coverage floor %g must be in (0, 1)", ErrInvalid, w.CoverageFloor)
	case c.Combine.Retries < 0:
		return fmt.Errorf("%w: negative retry budget %d", ErrInvalid, c.Combine.Retries)
	case c.Combine.Epsilon <= 0:
		return fmt.Errorf("%w: epsilon %g must be positive", ErrInvalid, c.Combine.Epsilon)
	case c.Transform.HandleSize <= 0:
		return fmt.Errorf("%w: handle size %g must be positive", ErrInvalid, c.Transform.HandleSize)
	}
	return nil
}

// WandOptions maps the wand and combine sections onto tool options.
func (c Config) WandOptions() wand.Options {
	return wand.Options{
		Threshold:      c.Wand.Threshold,
		MinThreshold:   c.Wand.MinThreshold,
		MaxThreshold:   c.Wand.MaxThreshold,
		Gain:           c.Wand.Gain,
		Contiguous:     c.Wand.Contiguous,
		Expand:         c.Wand.Expand,
		Replace:        c.Wand.Replace,
		MinContourArea: c.Wand.MinContourArea,
		Simplify:       c.Wand.Simplify,
		CoverageFloor:  c.Wand.CoverageFloor,
		Retries:        c.Combine.Retries,
		Epsilon:        c.Combine.Epsilon,
	}
}

func (c Config) TransformOptions() transform.Options {
	return transform.Options{HandleOffset: c.Transform.HandleOffset, HandleSize: c.Transform.HandleSize}
}

// DefaultStyle is the style applied to documents created with this config.
func (c Config) DefaultStyle() annotation.Style {
	return annotation.Style{
		FillColor:     c.Style.FillColor,
		StrokeColor:   c.Style.StrokeColor,
		StrokeWidth:   c.Style.StrokeWidth,
		FillOpacity:   c.Style.FillOpacity,
		StrokeOpacity: c.Style.StrokeOpacity,
		Rescale:       map[string]float64{"strokeWidth": c.Style.RescaleStrokeWidth},
	}
}
