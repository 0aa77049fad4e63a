package changepack

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/changepack/internal/version"
	"github.com/arthur-debert/changepack/pkg/cobrax/topics"
	"github.com/arthur-debert/changepack/pkg/commands"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/logging"
	"github.com/arthur-debert/changepack/pkg/ui"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	verbosity  int
	dryRun     bool
	root       string
	configFile string
	format     string
	set        []string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "changepack",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.BoolVar(&opts.dryRun, "dry-run", false, MsgFlagDryRun)
	flags.StringVarP(&opts.root, "root", "r", "", MsgFlagRoot)
	flags.StringVar(&opts.configFile, "config", "", MsgFlagConfig)
	flags.StringVar(&opts.format, "format", "auto", MsgFlagFormat)
	flags.StringArrayVar(&opts.set, "set", nil, MsgFlagSet)

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newPackCmd(opts))
	rootCmd.AddCommand(newPlanCmd(opts))
	rootCmd.AddCommand(newVerifyCmd(opts))
	rootCmd.AddCommand(newExportCmd(opts))
	rootCmd.AddCommand(newGenConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	if tm, err := topics.Load(helpTopics(), topics.Options{Renderer: topics.NewGlamourRenderer()}); err == nil {
		tm.Install(rootCmd)
	} else {
		log.Warn().Err(err).Msg("Help topics unavailable")
	}

	return rootCmd
}

// overrides turns repeated --set key=value flags into config overrides
func (o *globalOptions) overrides() (map[string]interface{}, error) {
	if len(o.set) == 0 {
		return nil, nil
	}
	out := make(map[string]interface{}, len(o.set))
	for _, kv := range o.set {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Newf(errors.ErrInvalidInput, MsgErrOverride, kv)
		}
		out[key] = value
	}
	return out, nil
}

// session opens a command session from the global flags
func (o *globalOptions) session(offline bool) (*commands.Session, error) {
	overrides, err := o.overrides()
	if err != nil {
		return nil, err
	}
	return commands.OpenSession(commands.SessionOptions{
		Root:       o.root,
		ConfigFile: o.configFile,
		Overrides:  overrides,
		Offline:    offline,
	})
}

// renderer returns the renderer for --format writing to the command's output
func (o *globalOptions) renderer(cmd *cobra.Command) (ui.Renderer, error) {
	format, err := ui.ParseFormat(o.format)
	if err != nil {
		return nil, err
	}
	return ui.NewRenderer(format, cmd.OutOrStdout())
}

// RenderError writes err to the command's error stream in the format picked
// by --format, falling back to plain text
func RenderError(cmd *cobra.Command, err error) {
	format := ui.FormatAuto
	if f := cmd.Root().PersistentFlags().Lookup("format"); f != nil {
		if parsed, perr := ui.ParseFormat(f.Value.String()); perr == nil {
			format = parsed
		}
	}
	r, rerr := ui.NewRenderer(format, cmd.ErrOrStderr())
	if rerr == nil && r.RenderError(err) == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
}
