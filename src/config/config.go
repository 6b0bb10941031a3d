package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/eshtab/traffic-delay-2022-analysis/src/models"
)

// EnvPrefix prefixes every environment override, e.g. DELAYREPORT_RAW_FILE.
const EnvPrefix = "DELAYREPORT"

// Config holds the build's file locations and ambient settings.
type Config struct {
	DataDir     string `json:"data_dir" yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`         // base for data files
	RawFile     string `json:"raw_file" yaml:"raw_file" envconfig:"RAW_FILE" validate:"required"`         // raw delay export, .csv or .xlsx
	SheetName   string `json:"sheet_name" yaml:"sheet_name" envconfig:"SHEET_NAME"`                      // xlsx only, first sheet when empty
	Encoding    string `json:"encoding" yaml:"encoding" envconfig:"ENCODING"`                            // source text encoding, utf-8 when empty
	CleanedFile string `json:"cleaned_file" yaml:"cleaned_file" envconfig:"CLEANED_FILE" validate:"required"` // cleaned CSV snapshot
	CleanedXLSX string `json:"cleaned_xlsx" yaml:"cleaned_xlsx" envconfig:"CLEANED_XLSX"`                // optional xlsx copy of the snapshot

	ReportDir string `json:"report_dir" yaml:"report_dir" envconfig:"REPORT_DIR" validate:"required"`
	ChartDir  string `json:"chart_dir" yaml:"chart_dir" envconfig:"CHART_DIR" validate:"required"`
	Workbook  string `json:"workbook" yaml:"workbook" envconfig:"WORKBOOK"`
	Manifest  string `json:"manifest" yaml:"manifest" envconfig:"MANIFEST" validate:"required"`

	LogName     string `json:"log_name" yaml:"log_name" envconfig:"LOG_NAME"`
	LogLevel    string `json:"log_level" yaml:"log_level" envconfig:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn warning error"`
	LogMaxSize  string `json:"log_max_size" yaml:"log_max_size" envconfig:"LOG_MAX_SIZE"`
	MetricsFile string `json:"metrics_file" yaml:"metrics_file" envconfig:"METRICS_FILE"`

	Watch struct {
		Debounce Duration `json:"debounce" yaml:"debounce" envconfig:"DEBOUNCE"` // quiet period before a rebuild
		Schedule string   `json:"schedule" yaml:"schedule" envconfig:"SCHEDULE"` // cron spec for the schedule command
	} `json:"watch" yaml:"watch" envconfig:"WATCH"`
}

// DataConfig holds the analysis parameters that came out of exploratory runs.
type DataConfig struct {
	MaxDelay           float64           `json:"max_delay" yaml:"max_delay" envconfig:"MAX_DELAY" validate:"gt=0"`
	FrequencyIncidents []string          `json:"frequency_incidents" yaml:"frequency_incidents" envconfig:"FREQUENCY_INCIDENTS" validate:"min=1,unique,dive,required"`
	SeverityIncidents  []string          `json:"severity_incidents" yaml:"severity_incidents" envconfig:"SEVERITY_INCIDENTS" validate:"min=1,unique,dive,required"`
	Captions           map[string]string `json:"captions" yaml:"captions" envconfig:"CAPTIONS"`
}

// Default returns the layout used by the published report.
func Default() *Config {
	cfg := &Config{
		DataDir:     "data",
		RawFile:     "raw/ttc-bus-delay-data-2022.csv",
		CleanedFile: "clean/ttc-bus-delay-data-2022-clean.csv",
		ReportDir:   "report",
		ChartDir:    "figures",
		Workbook:    "delay-report.xlsx",
		Manifest:    "figures/manifest.json",
		LogName:     "delayreport.log",
		LogLevel:    "info",
		LogMaxSize:  "10 * 1024 * 1024",
	}
	cfg.Watch.Debounce = Duration(2 * time.Second)
	cfg.Watch.Schedule = "@every 24h"
	return cfg
}

// DefaultData returns the incident allow-lists picked from the 2022 data:
// the three most frequent and the three most severe incident types.
func DefaultData() *DataConfig {
	return &DataConfig{
		MaxDelay:           models.DefaultMaxDelay,
		FrequencyIncidents: []string{"Collision - TTC", "Mechanical", "Operations - Operator"},
		SeverityIncidents:  []string{"Diversion", "Mechanical", "Operations - Operator"},
		Captions:           map[string]string{},
	}
}

// LoadConfig reads both config files from jsonFolder, applies .env and
// environment overrides and validates the result. A missing file keeps the
// defaults. Files ending in .yaml or .yml are decoded as YAML.
func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	loadDotEnv(jsonFolder)

	cfg := Default()
	dcfg := DefaultData()

	var errs []error
	if err := decodeFile(filepath.Join(jsonFolder, jsonFile), cfg); err != nil {
		errs = append(errs, fmt.Errorf("parse config: %w", err))
	}
	if err := decodeFile(filepath.Join(jsonFolder, dataJsonFile), dcfg); err != nil {
		errs = append(errs, fmt.Errorf("parse data config: %w", err))
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, nil, fmt.Errorf("config env overrides: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, dcfg); err != nil {
		return nil, nil, fmt.Errorf("data config env overrides: %w", err)
	}

	if err := Validate(cfg, dcfg); err != nil {
		return nil, nil, err
	}
	return cfg, dcfg, nil
}

// Validate checks struct tags on both configs.
func Validate(cfg *Config, dcfg *DataConfig) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	var errs []error
	if err := v.Struct(cfg); err != nil {
		errs = append(errs, fmt.Errorf("invalid config: %w", err))
	}
	if err := v.Struct(dcfg); err != nil {
		errs = append(errs, fmt.Errorf("invalid data config: %w", err))
	}
	return errors.Join(errs...)
}

// loadDotEnv loads the first .env found next to the configs or in the
// working directory. Variables already set in the environment win.
func loadDotEnv(jsonFolder string) {
	for _, path := range []string{filepath.Join(jsonFolder, ".env"), ".env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func decodeFile(filePath string, out interface{}) error {
	data, err := readFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(out); err != nil {
			return fmt.Errorf("%s: %w", filePath, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(out); err != nil {
			return fmt.Errorf("%s: %w", filePath, err)
		}
	}
	return nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	return data, nil
}

// RawPath is the raw input file.
func (c *Config) RawPath() string { return c.underData(c.RawFile) }

// CleanedPath is the cleaned CSV snapshot.
func (c *Config) CleanedPath() string { return c.underData(c.CleanedFile) }

// CleanedXLSXPath is the optional xlsx snapshot, empty when disabled.
func (c *Config) CleanedXLSXPath() string {
	if c.CleanedXLSX == "" {
		return ""
	}
	return c.underData(c.CleanedXLSX)
}

// ChartPath is the directory receiving one PNG per chart.
func (c *Config) ChartPath() string { return c.underReport(c.ChartDir) }

// WorkbookPath is the chart workbook, empty when disabled.
func (c *Config) WorkbookPath() string {
	if c.Workbook == "" {
		return ""
	}
	return c.underReport(c.Workbook)
}

// ManifestPath is the chart manifest read by the document renderer.
func (c *Config) ManifestPath() string { return c.underReport(c.Manifest) }

func (c *Config) underData(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

func (c *Config) underReport(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ReportDir, p)
}

// Caption returns the configured caption for a chart id, or fallback.
func (dc *DataConfig) Caption(id, fallback string) string {
	if c, ok := dc.Captions[id]; ok && c != "" {
		return c
	}
	return fallback
}

// Duration wraps time.Duration so config files and environment variables can
// use the "5m0s" notation.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.Decode(s)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.Decode(s)
}

// Decode implements envconfig.Decoder.
func (d *Duration) Decode(value string) error {
	dur, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }
