package commands

import (
	"fmt"

	"github.com/de-tools/report-scheduler/pkg/adapters"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

// ScheduleHandler renders a single schedule.
type ScheduleHandler interface {
	Handle(s domain.Schedule) error
}

func NewSchedulesCmd(session SessionFunc, reporter *export.Reporter) *cobra.Command {
	return &cobra.Command{
		Use:   "schedules",
		Short: "List report schedules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := session(cmd.Context())
			if err != nil {
				return err
			}

			list, err := s.Resources.ListSchedules(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list schedules: %w", err)
			}
			schedules := make([]domain.Schedule, 0, len(list))
			for _, sc := range list {
				schedules = append(schedules, adapters.MapAPIScheduleToDomain(sc))
			}
			return reporter.Schedules(schedules)
		},
	}
}

func NewScheduleCmd(session SessionFunc, handler ScheduleHandler) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <id>",
		Short: "Show a schedule and its panels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session(cmd.Context())
			if err != nil {
				return err
			}

			sc, err := s.ScheduleView(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return handler.Handle(sc)
		},
	}
}

func NewTestEmailCmd(session SessionFunc) *cobra.Command {
	var scheduleID string
	cmd := &cobra.Command{
		Use:   "test-email",
		Short: "Send a schedule's report now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := session(cmd.Context())
			if err != nil {
				return err
			}

			msg, err := s.Resources.SendTestEmail(cmd.Context(), scheduleID)
			if err != nil {
				return fmt.Errorf("failed to send test email: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&scheduleID, "schedule", "", "Schedule id")
	_ = cmd.MarkFlagRequired("schedule")
	return cmd
}
