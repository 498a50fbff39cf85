package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultTimezone = "UTC"

// Config holds high-level settings required across the application.
type Config struct {
	Run       RunConfig       `yaml:"run"`
	Logging   LoggingConfig   `yaml:"logging"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Output    OutputConfig    `yaml:"output"`
	LLM       LLMConfig       `yaml:"llm"`
	Filter    FilterConfig    `yaml:"filter"`
	Rating    RatingConfig    `yaml:"rating"`
	Sources   SourcesConfig   `yaml:"sources"`
}

// RunConfig controls the default processing window.
type RunConfig struct {
	DaysBack int `yaml:"daysBack"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines when the daemon mode reruns the pipeline.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// OutputConfig describes where day state, report index, and pages land.
type OutputConfig struct {
	JSONDir       string `yaml:"jsonDir"`
	HTMLDir       string `yaml:"htmlDir"`
	TemplatesDir  string `yaml:"templatesDir"`
	DailyTemplate string `yaml:"dailyTemplate"`
	IndexTemplate string `yaml:"indexTemplate"`
	ListTemplate  string `yaml:"listTemplate"`
	ReportsJSON   string `yaml:"reportsJson"`
	IndexHTML     string `yaml:"indexHtml"`
	ListHTML      string `yaml:"listHtml"`
	SiteTitle     string `yaml:"siteTitle"`
	SiteSubtitle  string `yaml:"siteSubtitle"`
}

// LLMConfig defines how to contact the completion API. The key itself is
// looked up from the environment variable named by APIKeyEnv at wiring time.
type LLMConfig struct {
	Provider       string  `yaml:"provider"`
	APIKeyEnv      string  `yaml:"apiKeyEnv"`
	BaseURL        string  `yaml:"baseUrl"`
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeoutSeconds"`
	MaxRetries     int     `yaml:"maxRetries"`
	CacheDir       string  `yaml:"cacheDir"`
}

// KeywordPrefilterConfig drives the cheap include/exclude term stage.
type KeywordPrefilterConfig struct {
	Enabled bool     `yaml:"enabled"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// FilterConfig groups relevance-filtering knobs shared by both filter stages.
type FilterConfig struct {
	Interests        []string               `yaml:"interests"`
	LLMBatchSize     int                    `yaml:"llmBatchSize"`
	MaxAbstractChars int                    `yaml:"maxAbstractChars"`
	KeywordPrefilter KeywordPrefilterConfig `yaml:"keywordPrefilter"`
}

// RatingConfig bounds the model-backed scoring stage.
type RatingConfig struct {
	Enabled          bool `yaml:"enabled"`
	MaxPapers        int  `yaml:"maxPapers"`
	MaxAbstractChars int  `yaml:"maxAbstractChars"`
	MaxTokens        int  `yaml:"maxTokens"`
}

// AdaptiveScopeConfig stops arXiv category expansion once enough candidates
// survive the keyword prefilter.
type AdaptiveScopeConfig struct {
	Enabled       bool `yaml:"enabled"`
	MinCandidates int  `yaml:"minCandidatesAfterKeywordPrefilter"`
	MaxTiers      int  `yaml:"maxTiers"`
}

// ArxivConfig describes the category listing crawl.
type ArxivConfig struct {
	Enabled       bool       `yaml:"enabled"`
	BaseURL       string     `yaml:"baseUrl"`
	PageSize      int        `yaml:"pageSize"`
	CategoryTiers [][]string `yaml:"categoryTiers"`
}

// BiorxivConfig selects the bioRxiv or medRxiv details endpoint.
type BiorxivConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Server     string   `yaml:"server"`
	BaseURL    string   `yaml:"baseUrl"`
	Categories []string `yaml:"categories"`
}

// ChemrxivConfig wires the Crossref listing and OpenAlex metadata lookups.
type ChemrxivConfig struct {
	Enabled         bool   `yaml:"enabled"`
	DOIPrefix       string `yaml:"doiPrefix"`
	CrossrefRows    int    `yaml:"crossrefRows"`
	CrossrefBaseURL string `yaml:"crossrefBaseUrl"`
	OpenalexBaseURL string `yaml:"openalexBaseUrl"`
}

// SourcesConfig groups all upstream catalogs.
type SourcesConfig struct {
	Arxiv         ArxivConfig         `yaml:"arxiv"`
	Biorxiv       BiorxivConfig       `yaml:"biorxiv"`
	Chemrxiv      ChemrxivConfig      `yaml:"chemrxiv"`
	AdaptiveScope AdaptiveScopeConfig `yaml:"adaptiveScope"`
}

// Load reads the YAML file at path over the built-in defaults and validates
// the result. Any problem is fatal: the pipeline must not start on a config
// it cannot trust.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.bindTimezone()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings the pipeline consumes directly.
func (c Config) Validate() error {
	if c.Run.DaysBack < 0 {
		return fmt.Errorf("config: run.daysBack must not be negative")
	}
	if len(c.Filter.Interests) == 0 {
		return fmt.Errorf("config: filter.interests must not be empty")
	}
	if c.Filter.LLMBatchSize <= 0 {
		return fmt.Errorf("config: filter.llmBatchSize must be positive")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("config: llm.model is required")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("config: llm.maxRetries must not be negative")
	}
	if c.Rating.MaxPapers < 0 {
		return fmt.Errorf("config: rating.maxPapers must not be negative")
	}
	if c.Sources.Biorxiv.Enabled {
		switch c.Sources.Biorxiv.Server {
		case "biorxiv", "medrxiv":
		default:
			return fmt.Errorf("config: unsupported bioRxiv server %q", c.Sources.Biorxiv.Server)
		}
	}
	if c.Sources.AdaptiveScope.Enabled && c.Sources.AdaptiveScope.MaxTiers <= 0 {
		return fmt.Errorf("config: sources.adaptiveScope.maxTiers must be positive")
	}
	return nil
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Run:     RunConfig{DaysBack: 2},
		Logging: LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{
			CronExpression: "0 6 * * *",
			Timezone:       defaultTimezone,
			location:       tz,
		},
		Output: OutputConfig{
			JSONDir:       "daily_json",
			HTMLDir:       "daily_html",
			TemplatesDir:  "templates",
			DailyTemplate: "paper_template.html",
			IndexTemplate: "index_template.html",
			ListTemplate:  "list_template.html",
			ReportsJSON:   "reports.json",
			IndexHTML:     "index.html",
			ListHTML:      "list.html",
			SiteTitle:     "Daily Preprint Digest",
		},
		LLM: LLMConfig{
			Provider:       "openrouter",
			APIKeyEnv:      "OPENROUTER_API_KEY",
			BaseURL:        "https://openrouter.ai/api/v1/chat/completions",
			Temperature:    0,
			TimeoutSeconds: 60,
			MaxRetries:     2,
			CacheDir:       ".cache/llm",
		},
		Filter: FilterConfig{
			LLMBatchSize:     15,
			MaxAbstractChars: 1600,
			KeywordPrefilter: KeywordPrefilterConfig{Enabled: true},
		},
		Rating: RatingConfig{
			Enabled:          true,
			MaxPapers:        80,
			MaxAbstractChars: 2000,
			MaxTokens:        320,
		},
		Sources: SourcesConfig{
			Arxiv: ArxivConfig{
				Enabled:  true,
				BaseURL:  "https://arxiv.org",
				PageSize: 200,
			},
			Biorxiv: BiorxivConfig{
				Enabled: true,
				Server:  "biorxiv",
				BaseURL: "https://api.biorxiv.org",
			},
			Chemrxiv: ChemrxivConfig{
				Enabled:         true,
				DOIPrefix:       "10.26434",
				CrossrefRows:    1000,
				CrossrefBaseURL: "https://api.crossref.org",
				OpenalexBaseURL: "https://api.openalex.org",
			},
			AdaptiveScope: AdaptiveScopeConfig{
				Enabled:       true,
				MinCandidates: 120,
				MaxTiers:      3,
			},
		},
	}
}
