package terminal

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/de-tools/report-scheduler/pkg/runtime/terminal/commands"
	"github.com/de-tools/report-scheduler/pkg/runtime/terminal/export"
	"github.com/de-tools/report-scheduler/pkg/services/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	opts     Options
	profile  string
	strict   bool
	verbose  bool
	reporter *export.Reporter
	details  *Reporter
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	ProfilesPath string
	Output       io.Writer
	HTTPClient   *http.Client
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ProfilesPath == "" {
		opts.ProfilesPath = config.DefaultProfilesPath()
	}

	cli := &CLI{
		opts:     opts,
		reporter: export.NewReporter(opts.Output),
		details:  NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.ExecuteContext(context.Background())
}

func (cli *CLI) withLogger(cmd *cobra.Command, _ []string) {
	level := zerolog.WarnLevel
	if cli.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
	cmd.SetContext(logger.WithContext(cmd.Context()))
}

func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) session(ctx context.Context) (*commands.Session, error) {
	registry, err := config.NewRegistry(cli.opts.ProfilesPath)
	if err != nil {
		return nil, err
	}
	profile, err := registry.GetConfig(ctx, cli.profile)
	if err != nil {
		return nil, err
	}

	s, err := commands.NewSession(profile, cli.opts.HTTPClient)
	if err != nil {
		return nil, err
	}
	s.Options.StrictVariableMatch = cli.strict || profile.StrictVariableMatch
	return s, nil
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:              "reports",
		Short:            "Manage scheduled Excel reports of a Grafana instance",
		SilenceUsage:     true,
		SilenceErrors:    true,
		PersistentPreRun: cli.withLogger,
	}
	cmd.SetOut(cli.opts.Output)

	cmd.PersistentFlags().StringVarP(&cli.opts.ProfilesPath, "config", "c", cli.opts.ProfilesPath,
		"Path to the profiles file (default is $HOME/.reportscfg)")
	cmd.PersistentFlags().StringVarP(&cli.profile, "profile", "p", "DEFAULT", "Profile to connect with")
	cmd.PersistentFlags().BoolVar(&cli.strict, "strict", false, "Only match variables followed by }, : or . (default from the profile's strict_variable_match)")
	cmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Log requests")

	cmd.AddCommand(commands.NewPanelsCmd(cli.session, cli.reporter))
	cmd.AddCommand(commands.NewTogglePanelCmd(cli.session))
	cmd.AddCommand(commands.NewSetVariableCmd(cli.session))
	cmd.AddCommand(commands.NewSetLookbackCmd(cli.session))
	cmd.AddCommand(commands.NewDeselectIneligibleCmd(cli.session))
	cmd.AddCommand(commands.NewGroupsCmd(cli.session, cli.reporter))
	cmd.AddCommand(commands.NewMemberCmd(cli.session, false))
	cmd.AddCommand(commands.NewMemberCmd(cli.session, true))
	cmd.AddCommand(commands.NewSchedulesCmd(cli.session, cli.reporter))
	cmd.AddCommand(commands.NewScheduleCmd(cli.session, cli.details))
	cmd.AddCommand(commands.NewTestEmailCmd(cli.session))
	cmd.AddCommand(commands.NewUsersCmd(cli.session, cli.reporter))
	cmd.AddCommand(commands.NewStoresCmd(cli.session, cli.reporter))

	return cmd
}
