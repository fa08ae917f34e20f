package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Grid       GridConfig       `yaml:"grid" mapstructure:"grid"`
	Analysis   AnalysisConfig   `yaml:"analysis" mapstructure:"analysis"`
	Operation  OperationConfig  `yaml:"operation" mapstructure:"operation"`
	Compliance ComplianceConfig `yaml:"compliance" mapstructure:"compliance"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// GridConfig configures the statistical grid source.
type GridConfig struct {
	// Transport selects how archives are fetched: "http" or "ftp".
	Transport string `yaml:"transport" mapstructure:"transport"`
	// MacroURL is the macro grid archive URL.
	MacroURL string `yaml:"macro_url" mapstructure:"macro_url"`
	// TileURLTemplate is the per-tile archive URL with a %d placeholder.
	TileURLTemplate string `yaml:"tile_url_template" mapstructure:"tile_url_template"`
	// CacheDir holds downloaded and extracted archives across runs.
	CacheDir    string `yaml:"cache_dir" mapstructure:"cache_dir"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// AnalysisConfig configures the exposure computation.
type AnalysisConfig struct {
	// EqualAreaProj is the proj4 string of the equal-area system used for
	// all area and density math.
	EqualAreaProj string `yaml:"equal_area_proj" mapstructure:"equal_area_proj"`
}

// OperationConfig describes the flight operation the margins were drawn for.
// All values are metadata echoed into report headers; the analyzed geometry
// always comes from the input document.
type OperationConfig struct {
	FlightHeightM     float64 `yaml:"flight_height_m" mapstructure:"flight_height_m"`
	ContingencyM      float64 `yaml:"contingency_buffer_m" mapstructure:"contingency_buffer_m"`
	GroundRiskBufferM float64 `yaml:"ground_risk_buffer_m" mapstructure:"ground_risk_buffer_m"`
	AdjacentDistanceM float64 `yaml:"adjacent_distance_m" mapstructure:"adjacent_distance_m"`
}

// IsZero reports whether no operation metadata was configured.
func (o OperationConfig) IsZero() bool {
	return o == OperationConfig{}
}

// ComplianceConfig configures the density limits.
type ComplianceConfig struct {
	MaxDensityLimit   float64 `yaml:"max_density_limit" mapstructure:"max_density_limit"`
	AdjacentMeanLimit float64 `yaml:"adjacent_mean_limit" mapstructure:"adjacent_mean_limit"`
}

// ReportConfig configures output rendering.
type ReportConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	// OutDir receives file-based outputs such as spreadsheets.
	OutDir string `yaml:"out_dir" mapstructure:"out_dir"`
}

// ServerConfig configures the HTTP analysis server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GROUNDRISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("grid.transport", "http")
	v.SetDefault("grid.macro_url",
		"https://geoftp.ibge.gov.br/recortes_para_fins_estatisticos/grade_estatistica/censo_2022/grade_500km/BR500KM.zip")
	v.SetDefault("grid.tile_url_template",
		"https://geoftp.ibge.gov.br/recortes_para_fins_estatisticos/grade_estatistica/censo_2022/grade_estatistica/grade_id%d.zip")
	v.SetDefault("grid.cache_dir", "data/grid")
	v.SetDefault("grid.timeout_secs", 120)
	v.SetDefault("grid.max_retries", 3)
	v.SetDefault("analysis.equal_area_proj",
		"+proj=aea +lat_0=-12 +lon_0=-54 +lat_1=-2 +lat_2=-22 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs")
	v.SetDefault("compliance.max_density_limit", 5.0)
	v.SetDefault("compliance.adjacent_mean_limit", 50.0)
	v.SetDefault("report.format", "text")
	v.SetDefault("report.out_dir", ".")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the given run mode. Modes are
// "analyze", "tiles" and "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Grid.Transport {
	case "http", "ftp":
	default:
		problems = append(problems, "grid.transport must be http or ftp")
	}
	if c.Grid.MacroURL == "" {
		problems = append(problems, "grid.macro_url is required")
	}
	if !strings.Contains(c.Grid.TileURLTemplate, "%d") {
		problems = append(problems, "grid.tile_url_template must contain a %d placeholder")
	}
	if c.Grid.TimeoutSecs <= 0 {
		problems = append(problems, "grid.timeout_secs must be > 0")
	}
	if c.Compliance.MaxDensityLimit < 0 || c.Compliance.AdjacentMeanLimit < 0 {
		problems = append(problems, "compliance limits must be >= 0")
	}
	if c.Operation.FlightHeightM < 0 || c.Operation.ContingencyM < 0 ||
		c.Operation.GroundRiskBufferM < 0 || c.Operation.AdjacentDistanceM < 0 {
		problems = append(problems, "operation distances must be >= 0")
	}

	switch mode {
	case "analyze":
		if c.Report.Format != "" {
			if _, err := parseReportFormat(c.Report.Format); err != nil {
				problems = append(problems, err.Error())
			}
		}
	case "tiles":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// parseReportFormat mirrors the report package's format names without
// importing it, keeping config free of domain packages.
func parseReportFormat(s string) (string, error) {
	switch s {
	case "text", "json", "yaml", "geojson", "xlsx":
		return s, nil
	}
	return "", eris.Errorf("report.format %q is not supported", s)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
