package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/paraprep/internal/utils"
)

// Global configuration structure.
type Global struct {
	// Locations. An empty data_dir resolves to <project root>/data; an empty
	// output_dir resolves to data_dir.
	DataDir   string `mapstructure:"data_dir" yaml:"data_dir" validate:"required"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir" validate:"required"`

	// Input files, relative to data_dir unless absolute.
	EventsFile string `mapstructure:"events_file" yaml:"events_file" validate:"required"`
	ExcelFile  string `mapstructure:"excel_file" yaml:"excel_file" validate:"required"`
	ExcelSheet string `mapstructure:"excel_sheet" yaml:"excel_sheet"`
	NPCFile    string `mapstructure:"npc_file" yaml:"npc_file" validate:"required"`

	// Preparation
	DateLayouts     []string `mapstructure:"date_layouts" yaml:"date_layouts" validate:"min=1,dive,required"`
	EventColumns    []string `mapstructure:"event_columns" yaml:"event_columns" validate:"min=1"`
	EventIntColumns []string `mapstructure:"event_int_columns" yaml:"event_int_columns"`
	MedalIntColumns []string `mapstructure:"medal_int_columns" yaml:"medal_int_columns"`
	DropColumns     []string `mapstructure:"drop_columns" yaml:"drop_columns"`
	DropRows        []int    `mapstructure:"drop_rows" yaml:"drop_rows" validate:"dive,min=0"`

	// Validation
	UniqueColumns  []string `mapstructure:"unique_columns" yaml:"unique_columns"`
	NotNullColumns []string `mapstructure:"not_null_columns" yaml:"not_null_columns"`
	DateColumns    []string `mapstructure:"date_columns" yaml:"date_columns"`

	// Plotting
	PlotColumns []string `mapstructure:"plot_columns" yaml:"plot_columns"`
	EventTypes  []string `mapstructure:"event_types" yaml:"event_types"`

	LogLevel        string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	MetricsTextfile string `mapstructure:"metrics_textfile" yaml:"metrics_textfile"`
}

// DirName is the per-user configuration directory under $HOME.
const DirName = ".paraprep"

func defaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.paraprep/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("PARAPREP")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_dir", "")
	v.SetDefault("output_dir", "")
	v.SetDefault("events_file", "paralympics_events_raw.csv")
	v.SetDefault("excel_file", "paralympics_all_raw.xlsx")
	v.SetDefault("excel_sheet", "")
	v.SetDefault("npc_file", "npc_codes.csv")
	v.SetDefault("date_layouts", []string{"02/01/2006", "2/1/2006"})
	v.SetDefault("event_columns", []string{
		"type", "year", "country", "host", "start", "end",
		"countries", "events", "sports", "participants_m", "participants_f", "participants",
	})
	v.SetDefault("event_int_columns", []string{"countries", "events", "participants_m", "participants_f", "participants"})
	v.SetDefault("medal_int_columns", []string{"Rank", "Gold", "Silver", "Bronze", "Total"})
	v.SetDefault("drop_columns", []string{"URL", "disabilities_included", "highlights"})
	v.SetDefault("drop_rows", []int{0, 17, 31})
	v.SetDefault("unique_columns", []string{"event_code", "year", "country", "host"})
	v.SetDefault("not_null_columns", []string{"type", "year", "country", "host", "start", "end", "duration", "Code"})
	v.SetDefault("date_columns", []string{"start", "end"})
	v.SetDefault("plot_columns", []string{"participants_m", "participants_f"})
	v.SetDefault("event_types", []string{"summer", "winter"})
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_textfile", "")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := defaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read; an explicit --config must exist
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DataDir == "" {
		c.DataDir = "data"
		if root, err := utils.FindProjectRoot(""); err == nil {
			c.DataDir = filepath.Join(root, "data")
		}
	}
	if c.OutputDir == "" {
		c.OutputDir = c.DataDir
	}
	return &c, nil
}

var validate = validator.New()

// Validate checks the loaded configuration.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DataPath resolves an input file name against DataDir.
func (c *Global) DataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// OutputPath resolves an output file name against OutputDir.
func (c *Global) OutputPath(name string) string {
	return filepath.Join(c.OutputDir, name)
}

// Set assigns a single key from its string form. List keys take
// comma-separated values.
func (c *Global) Set(key, val string) error {
	switch key {
	case "data_dir":
		c.DataDir = val
	case "output_dir":
		c.OutputDir = val
	case "events_file":
		c.EventsFile = val
	case "excel_file":
		c.ExcelFile = val
	case "excel_sheet":
		c.ExcelSheet = val
	case "npc_file":
		c.NPCFile = val
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "metrics_textfile":
		c.MetricsTextfile = val
	case "date_layouts":
		c.DateLayouts = splitList(val)
	case "event_columns":
		c.EventColumns = splitList(val)
	case "event_int_columns":
		c.EventIntColumns = splitList(val)
	case "medal_int_columns":
		c.MedalIntColumns = splitList(val)
	case "drop_columns":
		c.DropColumns = splitList(val)
	case "unique_columns":
		c.UniqueColumns = splitList(val)
	case "not_null_columns":
		c.NotNullColumns = splitList(val)
	case "date_columns":
		c.DateColumns = splitList(val)
	case "plot_columns":
		c.PlotColumns = splitList(val)
	case "event_types":
		c.EventTypes = splitList(val)
	case "drop_rows":
		var rows []int
		for _, s := range splitList(val) {
			i, err := strconv.Atoi(s)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid row position for drop_rows: %v", s)
			}
			rows = append(rows, i)
		}
		c.DropRows = rows
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
