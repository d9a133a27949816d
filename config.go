package reporter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/pw-reporter/flags"
	"github.com/ethereum/go-ethereum/log"
)

// Config holds the application configuration
type Config struct {
	EventsPath        string        // JSONL event stream path, "-" for stdin
	OutputDir         string        // Directory receiving the report and run artifacts
	OutputFile        string        // Report file name as configured
	ReportPath        string        // Resolved report location
	WorkDir           string        // Directory test source paths are made relative to
	IncludeAssertions bool          // Track assertion outcomes and embed them in the report
	CleanOutput       bool          // Remove a pre-existing report file before the run
	HTMLReport        bool          // Also render the HTML artifact
	RecordEvents      bool          // Persist the raw ingested event stream
	FailOnFailure     bool          // Exit 1 when the run contains failed tests
	RunInterval       time.Duration // Interval between report regenerations
	RunOnce           bool          // Indicates if the service should exit after one report
	SlackWebhookURL   string
	SlackChannel      string
	SlackUsername     string
	SlackEnabled      bool // Derived once at construction; never true without a webhook URL
	Log               log.Logger
}

// fileConfig mirrors the recognized YAML options. Pointer fields so absent
// keys can be told apart from explicit zero values.
type fileConfig struct {
	Events            *string `yaml:"events"`
	OutputFile        *string `yaml:"outputFile"`
	OutputDir         *string `yaml:"outputDir"`
	WorkDir           *string `yaml:"workDir"`
	IncludeAssertions *bool   `yaml:"includeAssertions"`
	CleanOutput       *bool   `yaml:"cleanOutput"`
	HTML              *bool   `yaml:"html"`
	RecordEvents      *bool   `yaml:"recordEvents"`
	FailOnFailure     *bool   `yaml:"failOnFailure"`
	SlackWebhookURL   *string `yaml:"slackWebhookUrl"`
	SlackChannel      *string `yaml:"slackChannel"`
	SlackUsername     *string `yaml:"slackUsername"`
	SlackEnabled      *bool   `yaml:"slackEnabled"`
}

// NewConfig creates a new Config from cli context. Options may come from
// flags, the environment or an optional YAML file; explicit flags win over
// file values, file values win over defaults.
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	fc := &fileConfig{}
	if path := ctx.String(flags.ConfigFile.Name); path != "" {
		loaded, err := loadFileConfig(path)
		if err != nil {
			return nil, err
		}
		fc = loaded
	}

	eventsPath := resolveString(ctx, flags.EventsPath.Name, fc.Events)
	if eventsPath == "" {
		return nil, errors.New("events path cannot be empty")
	}
	if eventsPath != "-" {
		abs, err := filepath.Abs(eventsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for events '%s': %w", eventsPath, err)
		}
		eventsPath = abs
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0
	if eventsPath == "-" && !runOnce {
		return nil, errors.New("cannot re-ingest stdin on an interval; use a file path with --run-interval")
	}

	outputDir := resolveString(ctx, flags.OutputDir.Name, fc.OutputDir)
	if outputDir == "" {
		return nil, errors.New("output directory cannot be empty")
	}
	outputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for output directory: %w", err)
	}

	outputFile := resolveString(ctx, flags.OutputFile.Name, fc.OutputFile)
	if outputFile == "" {
		return nil, errors.New("output file cannot be empty")
	}
	reportPath := outputFile
	if !filepath.IsAbs(reportPath) {
		reportPath = filepath.Join(outputDir, outputFile)
	}

	workDir := resolveString(ctx, flags.WorkDir.Name, fc.WorkDir)
	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
	} else {
		workDir, err = filepath.Abs(workDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for workdir '%s': %w", workDir, err)
		}
	}

	webhookURL := resolveString(ctx, flags.SlackWebhookURL.Name, fc.SlackWebhookURL)
	slackEnabled := webhookURL != ""
	if ctx.IsSet(flags.SlackEnabled.Name) {
		slackEnabled = ctx.Bool(flags.SlackEnabled.Name)
	} else if fc.SlackEnabled != nil {
		slackEnabled = *fc.SlackEnabled
	}
	// Never enabled without a destination, regardless of what was asked for
	slackEnabled = slackEnabled && webhookURL != ""

	return &Config{
		EventsPath:        eventsPath,
		OutputDir:         outputDir,
		OutputFile:        outputFile,
		ReportPath:        reportPath,
		WorkDir:           workDir,
		IncludeAssertions: resolveBool(ctx, flags.IncludeAssertions.Name, fc.IncludeAssertions),
		CleanOutput:       resolveBool(ctx, flags.CleanOutput.Name, fc.CleanOutput),
		HTMLReport:        resolveBool(ctx, flags.HTMLReport.Name, fc.HTML),
		RecordEvents:      resolveBool(ctx, flags.RecordEvents.Name, fc.RecordEvents),
		FailOnFailure:     resolveBool(ctx, flags.FailOnFailure.Name, fc.FailOnFailure),
		RunInterval:       runInterval,
		RunOnce:           runOnce,
		SlackWebhookURL:   webhookURL,
		SlackChannel:      resolveString(ctx, flags.SlackChannel.Name, fc.SlackChannel),
		SlackUsername:     resolveString(ctx, flags.SlackUsername.Name, fc.SlackUsername),
		SlackEnabled:      slackEnabled,
		Log:               logger,
	}, nil
}

// HTMLReportPath returns the location of the HTML artifact, next to the
// JSON report
func (c *Config) HTMLReportPath() string {
	return filepath.Join(filepath.Dir(c.ReportPath), "results.html")
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

// resolveString applies the flag-over-file precedence for one string option
func resolveString(ctx *cli.Context, flagName string, fileValue *string) string {
	if ctx.IsSet(flagName) || fileValue == nil {
		return ctx.String(flagName)
	}
	return *fileValue
}

// resolveBool applies the flag-over-file precedence for one bool option
func resolveBool(ctx *cli.Context, flagName string, fileValue *bool) bool {
	if ctx.IsSet(flagName) || fileValue == nil {
		return ctx.Bool(flagName)
	}
	return *fileValue
}
