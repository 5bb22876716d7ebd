package commands

import (
	"fmt"

	"github.com/de-tools/report-scheduler/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

func NewUsersCmd(session SessionFunc, reporter *export.Reporter) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the users of the reporting datasource",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := session(ctx)
			if err != nil {
				return err
			}
			dsID, err := s.DatasourceID(ctx)
			if err != nil {
				return err
			}

			users, err := s.Grafana.Users(ctx, dsID)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}
			return reporter.Users(users)
		},
	}
}

func NewStoresCmd(session SessionFunc, reporter *export.Reporter) *cobra.Command {
	return &cobra.Command{
		Use:   "stores",
		Short: "List the stores of the reporting datasource",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := session(ctx)
			if err != nil {
				return err
			}
			dsID, err := s.DatasourceID(ctx)
			if err != nil {
				return err
			}

			stores, err := s.Grafana.Stores(ctx, dsID)
			if err != nil {
				return fmt.Errorf("failed to list stores: %w", err)
			}
			return reporter.Stores(stores)
		},
	}
}
