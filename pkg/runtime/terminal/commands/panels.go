package commands

import (
	"fmt"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/runtime/terminal/export"
	"github.com/de-tools/report-scheduler/pkg/services/panels"
	"github.com/spf13/cobra"
)

type PanelsCmd struct {
	session  SessionFunc
	reporter *export.Reporter
	eligible bool
}

func NewPanelsCmd(session SessionFunc, reporter *export.Reporter) *cobra.Command {
	pc := &PanelsCmd{session: session, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "panels",
		Short: "List the table panels of every dashboard",
		RunE:  pc.run,
	}

	cmd.Flags().BoolVar(&pc.eligible, "eligible", false, "Only list panels that can be added to a report")

	return cmd
}

func (pc *PanelsCmd) run(cmd *cobra.Command, _ []string) error {
	s, err := pc.session(cmd.Context())
	if err != nil {
		return err
	}

	list, err := s.Panels(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list panels: %w", err)
	}
	if pc.eligible {
		list = panels.Eligible(list)
	}
	return pc.reporter.Panels(list)
}

// panelFlags selects one panel of one schedule.
type panelFlags struct {
	scheduleID  string
	dashboardID string
	panelID     int
}

func (f *panelFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.scheduleID, "schedule", "", "Schedule id")
	cmd.Flags().StringVar(&f.dashboardID, "dashboard", "", "Dashboard uid")
	cmd.Flags().IntVar(&f.panelID, "panel", 0, "Panel id")

	_ = cmd.MarkFlagRequired("schedule")
	_ = cmd.MarkFlagRequired("dashboard")
	_ = cmd.MarkFlagRequired("panel")
}

func (f *panelFlags) ref() domain.PanelRef {
	return domain.PanelRef{PanelID: f.panelID, DashboardID: f.dashboardID}
}

func NewTogglePanelCmd(session SessionFunc) *cobra.Command {
	var flags panelFlags
	cmd := &cobra.Command{
		Use:   "toggle-panel",
		Short: "Add a panel to a schedule, or remove it when already selected",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := session(ctx)
			if err != nil {
				return err
			}

			panel, err := s.FindPanel(ctx, flags.ref())
			if err != nil {
				return err
			}
			selected, err := s.Editor.TogglePanel(ctx, flags.scheduleID, panel)
			if err != nil {
				return err
			}

			state := "removed from"
			if selected {
				state = "added to"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Panel %q %s schedule %s\n", panel.Title, state, flags.scheduleID)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func NewSetVariableCmd(session SessionFunc) *cobra.Command {
	var (
		flags  panelFlags
		name   string
		values []string
	)
	cmd := &cobra.Command{
		Use:   "set-variable",
		Short: "Set the values of a dashboard variable for a selected panel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := session(ctx)
			if err != nil {
				return err
			}

			detail, err := s.FindDetail(ctx, flags.scheduleID, flags.ref())
			if err != nil {
				return err
			}
			detail, err = s.Editor.SetVariable(ctx, detail, name, values)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Variables of panel %s: %s\n", flags.ref(), detail.Variables)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "Variable name")
	cmd.Flags().StringSliceVar(&values, "value", nil, "Selected value, repeat for several")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func NewSetLookbackCmd(session SessionFunc) *cobra.Command {
	var (
		flags    panelFlags
		lookback string
	)
	cmd := &cobra.Command{
		Use:   "set-lookback",
		Short: "Set the time range a selected panel is reported over",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := session(ctx)
			if err != nil {
				return err
			}

			detail, err := s.FindDetail(ctx, flags.scheduleID, flags.ref())
			if err != nil {
				return err
			}
			if _, err := s.Editor.SetLookback(ctx, detail, lookback); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Lookback of panel %s set to %q\n", flags.ref(), lookback)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&lookback, "lookback", "", "Lookback, e.g. 30d")
	_ = cmd.MarkFlagRequired("lookback")
	return cmd
}

func NewDeselectIneligibleCmd(session SessionFunc) *cobra.Command {
	var scheduleID string
	cmd := &cobra.Command{
		Use:   "deselect-ineligible",
		Short: "Remove selected panels that can no longer be reported",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := session(ctx)
			if err != nil {
				return err
			}

			list, err := s.Panels(ctx)
			if err != nil {
				return err
			}
			removed, err := s.Editor.DeselectIneligible(ctx, scheduleID, list)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d panels from schedule %s\n", len(removed), scheduleID)
			return nil
		},
	}
	cmd.Flags().StringVar(&scheduleID, "schedule", "", "Schedule id")
	_ = cmd.MarkFlagRequired("schedule")
	return cmd
}
