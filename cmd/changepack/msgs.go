package changepack

import (
	"embed"
	"io/fs"
	"strings"
)

//go:embed topics
var topicFiles embed.FS

// helpTopics returns the embedded help topics
func helpTopics() fs.FS {
	sub, err := fs.Sub(topicFiles, "topics")
	if err != nil {
		panic(err)
	}
	return sub
}

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Package changesets into deploy, rollback and delete artifacts"
	MsgPackShort       = "Build the artifacts for a changeset window"
	MsgPlanShort       = "Show what a changeset window would package"
	MsgVerifyShort     = "Verify a rollback archive against the live site"
	MsgExportShort     = "Export a changeset window to an offline mirror"
	MsgGenConfigShort  = "Generate a configuration file"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgVersionFormat = "changepack version %s\n  commit: %s\n  built:  %s\n"
	MsgConfigWritten = "Wrote %s"
	MsgConfigSkipped = "Config file already exists, nothing written"

	// Error messages
	MsgErrNoSpec       = "a changeset spec is required, as an argument or with --changeset"
	MsgErrTwoSpecs     = "changeset spec given twice: %q and %q"
	MsgErrOverride     = "invalid --set %q, want key=value"
	MsgErrVerifyFailed = "rollback archive does not match the live site"

	// Flag descriptions
	MsgFlagVerbose   = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun    = "Compute the plan without writing anything"
	MsgFlagRoot      = "Deployment root (default: workspace.root, else the current directory)"
	MsgFlagConfig    = "Extra config file loaded after the root config"
	MsgFlagFormat    = "Output format: auto, term, text or json"
	MsgFlagSet       = "Override a config key, e.g. --set packaging.compression_level=9"
	MsgFlagChangeset = "Changeset spec, as an alternative to the argument"
	MsgFlagBackup    = "Directory holding the live site"
	MsgFlagExclude   = "Skip server paths containing any of these substrings"
	MsgFlagVerify    = "Verify the rollback archive (default: verify.enabled)"
	MsgFlagOutput    = "Directory the artifacts are written to (default: packaging.output_dir)"
	MsgFlagTarget    = "Directory the delete script removes files from (default: the backup directory)"
	MsgFlagArchive   = "Rollback archive to verify (default: derived from the spec)"
	MsgFlagExportDir = "Mirror directory to write"
	MsgFlagWrite     = "Write the config to the deployment root instead of stdout"
	MsgFlagEffective = "Print the merged configuration instead of the defaults"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/pack-long.txt
	msgPackLongRaw string
	MsgPackLong    = strings.TrimSpace(msgPackLongRaw)

	//go:embed msgs/pack-example.txt
	msgPackExampleRaw string
	MsgPackExample    = strings.TrimRight(msgPackExampleRaw, "\n")

	//go:embed msgs/plan-long.txt
	msgPlanLongRaw string
	MsgPlanLong    = strings.TrimSpace(msgPlanLongRaw)

	//go:embed msgs/plan-example.txt
	msgPlanExampleRaw string
	MsgPlanExample    = strings.TrimRight(msgPlanExampleRaw, "\n")

	//go:embed msgs/verify-long.txt
	msgVerifyLongRaw string
	MsgVerifyLong    = strings.TrimSpace(msgVerifyLongRaw)

	//go:embed msgs/verify-example.txt
	msgVerifyExampleRaw string
	MsgVerifyExample    = strings.TrimRight(msgVerifyExampleRaw, "\n")

	//go:embed msgs/export-long.txt
	msgExportLongRaw string
	MsgExportLong    = strings.TrimSpace(msgExportLongRaw)

	//go:embed msgs/genconfig-long.txt
	msgGenConfigLongRaw string
	MsgGenConfigLong    = strings.TrimSpace(msgGenConfigLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
