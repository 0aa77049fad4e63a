package changepack

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/changepack/internal/version"
	"github.com/arthur-debert/changepack/pkg/commands/export"
	"github.com/arthur-debert/changepack/pkg/commands/genconfig"
	"github.com/arthur-debert/changepack/pkg/commands/pack"
	"github.com/arthur-debert/changepack/pkg/commands/plan"
	"github.com/arthur-debert/changepack/pkg/commands/verify"
	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/ui"
)

// specArg picks the changeset spec from the positional argument or the
// --changeset flag
func specArg(args []string, flag string) (string, error) {
	switch {
	case len(args) == 1 && flag != "" && flag != args[0]:
		return "", errors.Newf(errors.ErrInvalidInput, MsgErrTwoSpecs, args[0], flag)
	case len(args) == 1:
		return args[0], nil
	case flag != "":
		return flag, nil
	default:
		return "", errors.New(errors.ErrInvalidInput, MsgErrNoSpec)
	}
}

func newPackCmd(g *globalOptions) *cobra.Command {
	var (
		changeset string
		backupDir string
		exclude   []string
		verifyRun bool
		outputDir string
		target    string
	)

	cmd := &cobra.Command{
		Use:     "pack [spec]",
		Short:   MsgPackShort,
		Long:    MsgPackLong,
		Example: MsgPackExample,
		Args:    cobra.MaximumNArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := specArg(args, changeset)
			if err != nil {
				return err
			}
			r, err := g.renderer(cmd)
			if err != nil {
				return err
			}
			s, err := g.session(false)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("verify") {
				verifyRun = s.Config.Verify.Enabled
			}

			log.Info().
				Str("root", s.Root).
				Str("spec", spec).
				Bool("dry_run", g.dryRun).
				Msg("Packaging changesets")

			result, err := pack.Run(cmd.Context(), pack.Options{
				Session:   s,
				Spec:      spec,
				BackupDir: backupDir,
				Exclude:   exclude,
				OutputDir: outputDir,
				Target:    target,
				Verify:    verifyRun,
				DryRun:    g.dryRun,
			})
			if err != nil {
				return err
			}
			if err := r.RenderResult(result); err != nil {
				return err
			}
			if result.Failed() {
				return errors.New(errors.ErrVerifyFailed, MsgErrVerifyFailed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&changeset, "changeset", "c", "", MsgFlagChangeset)
	cmd.Flags().StringVarP(&backupDir, "backup", "b", "", MsgFlagBackup)
	cmd.Flags().StringSliceVarP(&exclude, "exclude", "e", nil, MsgFlagExclude)
	cmd.Flags().BoolVar(&verifyRun, "verify", true, MsgFlagVerify)
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", MsgFlagOutput)
	cmd.Flags().StringVar(&target, "target", "", MsgFlagTarget)

	return cmd
}

func newPlanCmd(g *globalOptions) *cobra.Command {
	var (
		changeset string
		backupDir string
		exclude   []string
	)

	cmd := &cobra.Command{
		Use:     "plan [spec]",
		Short:   MsgPlanShort,
		Long:    MsgPlanLong,
		Example: MsgPlanExample,
		Args:    cobra.MaximumNArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := specArg(args, changeset)
			if err != nil {
				return err
			}
			r, err := g.renderer(cmd)
			if err != nil {
				return err
			}
			s, err := g.session(false)
			if err != nil {
				return err
			}

			result, err := plan.Run(cmd.Context(), plan.Options{
				Session:   s,
				Spec:      spec,
				BackupDir: backupDir,
				Exclude:   exclude,
			})
			if err != nil {
				return err
			}
			return r.RenderResult(result)
		},
	}

	cmd.Flags().StringVarP(&changeset, "changeset", "c", "", MsgFlagChangeset)
	cmd.Flags().StringVarP(&backupDir, "backup", "b", "", MsgFlagBackup)
	cmd.Flags().StringSliceVarP(&exclude, "exclude", "e", nil, MsgFlagExclude)

	return cmd
}

func newVerifyCmd(g *globalOptions) *cobra.Command {
	var (
		changeset string
		backupDir string
		archive   string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:     "verify [spec]",
		Short:   MsgVerifyShort,
		Long:    MsgVerifyLong,
		Example: MsgVerifyExample,
		Args:    cobra.MaximumNArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			var spec string
			if archive == "" {
				var err error
				if spec, err = specArg(args, changeset); err != nil {
					return err
				}
			}
			r, err := g.renderer(cmd)
			if err != nil {
				return err
			}
			s, err := g.session(true)
			if err != nil {
				return err
			}

			result, err := verify.Run(cmd.Context(), verify.Options{
				Session:   s,
				Archive:   archive,
				Spec:      spec,
				OutputDir: outputDir,
				BackupDir: backupDir,
			})
			if err != nil {
				return err
			}
			if err := r.RenderResult(result); err != nil {
				return err
			}
			if result.Failed() {
				return errors.New(errors.ErrVerifyFailed, MsgErrVerifyFailed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&changeset, "changeset", "c", "", MsgFlagChangeset)
	cmd.Flags().StringVarP(&backupDir, "backup", "b", "", MsgFlagBackup)
	cmd.Flags().StringVar(&archive, "archive", "", MsgFlagArchive)
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", MsgFlagOutput)
	_ = cmd.MarkFlagRequired("backup")

	return cmd
}

func newExportCmd(g *globalOptions) *cobra.Command {
	var (
		changeset string
		dir       string
	)

	cmd := &cobra.Command{
		Use:     "export [spec]",
		Short:   MsgExportShort,
		Long:    MsgExportLong,
		Args:    cobra.MaximumNArgs(1),
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := specArg(args, changeset)
			if err != nil {
				return err
			}
			r, err := g.renderer(cmd)
			if err != nil {
				return err
			}
			s, err := g.session(false)
			if err != nil {
				return err
			}

			result, err := export.Run(cmd.Context(), export.Options{Session: s, Spec: spec, Dir: dir})
			if err != nil {
				return err
			}
			return r.RenderResult(result)
		},
	}

	cmd.Flags().StringVarP(&changeset, "changeset", "c", "", MsgFlagChangeset)
	cmd.Flags().StringVar(&dir, "dir", "", MsgFlagExportDir)
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

func newGenConfigCmd(g *globalOptions) *cobra.Command {
	var (
		write     bool
		effective bool
	)

	cmd := &cobra.Command{
		Use:     "genconfig",
		Short:   MsgGenConfigShort,
		Long:    MsgGenConfigLong,
		Args:    cobra.NoArgs,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ui.ParseFormat(g.format)
			if err != nil {
				return err
			}
			s, err := g.session(true)
			if err != nil {
				return err
			}

			opts := genconfig.Options{Root: s.Root, Write: write, FS: s.FS}
			if effective {
				opts.Effective = s.Config
			}
			result, err := genconfig.GenConfig(opts)
			if err != nil {
				return err
			}

			if format == ui.FormatJSON {
				r, err := ui.NewRenderer(format, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				return r.RenderResult(result)
			}
			if !write {
				_, err := fmt.Fprint(cmd.OutOrStdout(), result.ConfigContent)
				return err
			}
			r, err := ui.NewRenderer(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if len(result.FilesWritten) == 0 {
				return r.RenderMessage(MsgConfigSkipped)
			}
			return r.RenderMessage(fmt.Sprintf(MsgConfigWritten, result.FilesWritten[0]))
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, MsgFlagWrite)
	cmd.Flags().BoolVar(&effective, "effective", false, MsgFlagEffective)

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		Args:    cobra.NoArgs,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
			return err
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}
}
