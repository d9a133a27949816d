package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "PW_REPORTER"

var (
	EventsPath = &cli.StringFlag{
		Name:    "events",
		Value:   "-",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "EVENTS"),
		Usage:   "Path to the JSONL test event stream, or '-' to read stdin",
	}
	OutputDir = &cli.StringFlag{
		Name:    "output-dir",
		Value:   "test-results",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OUTPUT_DIR"),
		Usage:   "Directory receiving the report and run artifacts",
	}
	OutputFile = &cli.StringFlag{
		Name:    "output-file",
		Value:   "enhanced-test-report.json",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OUTPUT_FILE"),
		Usage:   "Report file name, joined under the output directory unless absolute",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIG"),
		Usage:   "Optional YAML config file (eg. 'reporter.yaml'); explicit flags win over file values",
	}
	WorkDir = &cli.StringFlag{
		Name:    "workdir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WORKDIR"),
		Usage:   "Directory test source paths are made relative to (defaults to the current directory)",
	}
	SlackWebhookURL = &cli.StringFlag{
		Name:    "slack-webhook-url",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SLACK_WEBHOOK_URL"),
		Usage:   "Slack webhook URL; empty disables notifications",
	}
	SlackChannel = &cli.StringFlag{
		Name:    "slack-channel",
		Value:   "#test-results",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SLACK_CHANNEL"),
		Usage:   "Channel the notification is posted to",
	}
	SlackUsername = &cli.StringFlag{
		Name:    "slack-username",
		Value:   "Playwright Reporter",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SLACK_USERNAME"),
		Usage:   "Username the notification is posted as",
	}
	SlackEnabled = &cli.BoolFlag{
		Name:    "slack-enabled",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SLACK_ENABLED"),
		Usage:   "Enable webhook notification (on by default whenever a webhook URL is configured)",
	}
	IncludeAssertions = &cli.BoolFlag{
		Name:    "include-assertions",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "INCLUDE_ASSERTIONS"),
		Usage:   "Track per-test assertion outcomes and embed them in the report",
	}
	CleanOutput = &cli.BoolFlag{
		Name:    "clean-output",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CLEAN_OUTPUT"),
		Usage:   "Remove a pre-existing report file before the run instead of only overwriting at the end",
	}
	HTMLReport = &cli.BoolFlag{
		Name:    "html",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HTML"),
		Usage:   "Also render a self-contained HTML report next to the JSON artifact",
	}
	RecordEvents = &cli.BoolFlag{
		Name:    "record-events",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RECORD_EVENTS"),
		Usage:   "Persist the raw ingested event stream under the output directory",
	}
	FailOnFailure = &cli.BoolFlag{
		Name:    "fail-on-failure",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FAIL_ON_FAILURE"),
		Usage:   "Exit with code 1 when the run contains failed tests",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_INTERVAL"),
		Usage:   "Interval between report regenerations (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	EventsPath,
	OutputDir,
	OutputFile,
	ConfigFile,
	WorkDir,
	SlackWebhookURL,
	SlackChannel,
	SlackUsername,
	SlackEnabled,
	IncludeAssertions,
	CleanOutput,
	HTMLReport,
	RecordEvents,
	FailOnFailure,
	RunInterval,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
