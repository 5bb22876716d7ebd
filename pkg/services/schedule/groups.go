package schedule

import (
	"context"
	"fmt"

	"github.com/de-tools/report-scheduler/pkg/adapters"
	"github.com/de-tools/report-scheduler/pkg/models/api"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/services/cache"
	"github.com/de-tools/report-scheduler/pkg/services/mutation"
)

type MembershipClient interface {
	ListMemberships(ctx context.Context, groupID string) ([]api.ReportGroupMembership, error)
	CreateMemberships(ctx context.Context, members []api.ReportGroupMembership) ([]api.ReportGroupMembership, error)
	DeleteMembership(ctx context.Context, id string) error
}

// GroupEditor edits the recipients of report groups.
type GroupEditor struct {
	client MembershipClient
	cache  *cache.Cache
}

func NewGroupEditor(client MembershipClient, c *cache.Cache) *GroupEditor {
	return &GroupEditor{
		client: client,
		cache:  c,
	}
}

func (e *GroupEditor) loader(groupID string) func(context.Context) ([]domain.ReportGroupMember, error) {
	return func(ctx context.Context) ([]domain.ReportGroupMember, error) {
		list, err := e.client.ListMemberships(ctx, groupID)
		if err != nil {
			return nil, err
		}
		members := make([]domain.ReportGroupMember, 0, len(list))
		for _, m := range list {
			members = append(members, adapters.MapAPIMembershipToDomain(m))
		}
		return members, nil
	}
}

func (e *GroupEditor) Members(ctx context.Context, groupID string) ([]domain.ReportGroupMember, error) {
	return cache.Fetch(ctx, e.cache, cache.ReportGroupMembersKey(groupID), e.loader(groupID))
}

func (e *GroupEditor) membersMutation(groupID string) mutation.Optimistic[[]domain.ReportGroupMember, toggleMember] {
	return mutation.Optimistic[[]domain.ReportGroupMember, toggleMember]{
		Key: cache.ReportGroupMembersKey(groupID),
		Apply: func(prev []domain.ReportGroupMember, t toggleMember) []domain.ReportGroupMember {
			next := make([]domain.ReportGroupMember, 0, len(prev)+1)
			for _, m := range prev {
				if m.UserID != t.member.UserID {
					next = append(next, m)
				}
			}
			if !t.remove {
				next = append(next, t.member)
			}
			return next
		},
		Request: func(ctx context.Context, t toggleMember) error {
			if t.remove {
				return e.client.DeleteMembership(ctx, t.member.ID)
			}
			_, err := e.client.CreateMemberships(ctx, []api.ReportGroupMembership{adapters.MapDomainMembershipToAPI(t.member)})
			return err
		},
		Reload:  e.loader(groupID),
		Related: []cache.Key{cache.ReportGroupsKey()},
	}
}

type toggleMember struct {
	member domain.ReportGroupMember
	remove bool
}

func findMember(members []domain.ReportGroupMember, userID string) (domain.ReportGroupMember, bool) {
	for _, m := range members {
		if m.UserID == userID {
			return m, true
		}
	}
	return domain.ReportGroupMember{}, false
}

// AddMember adds the user to the group. Adding an existing member is a no-op.
func (e *GroupEditor) AddMember(ctx context.Context, groupID, userID string) error {
	members, err := e.Members(ctx, groupID)
	if err != nil {
		return err
	}
	if _, ok := findMember(members, userID); ok {
		return nil
	}

	t := toggleMember{member: domain.ReportGroupMember{UserID: userID, ReportGroupID: groupID}}
	if err := mutation.Run(ctx, e.cache, e.membersMutation(groupID), t); err != nil {
		return fmt.Errorf("add member %s: %w", userID, err)
	}
	return nil
}

// RemoveMember removes the user from the group. Removing a non-member is a no-op.
func (e *GroupEditor) RemoveMember(ctx context.Context, groupID, userID string) error {
	members, err := e.Members(ctx, groupID)
	if err != nil {
		return err
	}
	m, ok := findMember(members, userID)
	if !ok {
		return nil
	}

	if err := mutation.Run(ctx, e.cache, e.membersMutation(groupID), toggleMember{member: m, remove: true}); err != nil {
		return fmt.Errorf("remove member %s: %w", userID, err)
	}
	return nil
}
