package commands

import (
	"fmt"

	"github.com/de-tools/report-scheduler/pkg/adapters"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

func NewGroupsCmd(session SessionFunc, reporter *export.Reporter) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List report groups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := session(cmd.Context())
			if err != nil {
				return err
			}

			list, err := s.Resources.ListReportGroups(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list report groups: %w", err)
			}
			groups := make([]domain.ReportGroup, 0, len(list))
			for _, g := range list {
				groups = append(groups, adapters.MapAPIReportGroupToDomain(g))
			}
			return reporter.Groups(groups)
		},
	}
}

type MemberCmd struct {
	session SessionFunc
	groupID string
	userID  string
	remove  bool
}

// NewMemberCmd adds a user to a report group, or removes it with remove set.
func NewMemberCmd(session SessionFunc, remove bool) *cobra.Command {
	mc := &MemberCmd{session: session, remove: remove}
	cmd := &cobra.Command{
		Use:   "add-member",
		Short: "Add a user to a report group",
		RunE:  mc.run,
	}
	if remove {
		cmd.Use = "remove-member"
		cmd.Short = "Remove a user from a report group"
	}

	cmd.Flags().StringVar(&mc.groupID, "group", "", "Report group id")
	cmd.Flags().StringVar(&mc.userID, "user", "", "User id")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func (mc *MemberCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := mc.session(ctx)
	if err != nil {
		return err
	}

	if mc.remove {
		err = s.Groups.RemoveMember(ctx, mc.groupID, mc.userID)
	} else {
		err = s.Groups.AddMember(ctx, mc.groupID, mc.userID)
	}
	if err != nil {
		return err
	}

	members, err := s.Groups.Members(ctx, mc.groupID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report group %s has %d members\n", mc.groupID, len(members))
	return nil
}
