package adapters

import (
	"github.com/de-tools/report-scheduler/pkg/models/api"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/models/store"
)

func MapStoreReportGroupToDomain(g store.ReportGroup, members []store.ReportGroupMembership) domain.ReportGroup {
	userIDs := make([]string, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}
	return domain.ReportGroup{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Members:     userIDs,
	}
}

func MapDomainReportGroupToStore(g domain.ReportGroup) store.ReportGroup {
	return store.ReportGroup{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
	}
}

func MapDomainReportGroupToAPI(g domain.ReportGroup) api.ReportGroup {
	members := g.Members
	if members == nil {
		members = []string{}
	}
	return api.ReportGroup{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Members:     members,
	}
}

func MapAPIReportGroupToDomain(g api.ReportGroup) domain.ReportGroup {
	return domain.ReportGroup{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Members:     g.Members,
	}
}

func MapStoreMembershipToDomain(m store.ReportGroupMembership) domain.ReportGroupMember {
	return domain.ReportGroupMember{
		ID:            m.ID,
		UserID:        m.UserID,
		ReportGroupID: m.ReportGroupID,
	}
}

func MapDomainMembershipToAPI(m domain.ReportGroupMember) api.ReportGroupMembership {
	return api.ReportGroupMembership{
		ID:            m.ID,
		UserID:        m.UserID,
		ReportGroupID: m.ReportGroupID,
	}
}

func MapAPIMembershipToDomain(m api.ReportGroupMembership) domain.ReportGroupMember {
	return domain.ReportGroupMember{
		ID:            m.ID,
		UserID:        m.UserID,
		ReportGroupID: m.ReportGroupID,
	}
}

func MapDomainMembershipToStore(m domain.ReportGroupMember) store.ReportGroupMembership {
	return store.ReportGroupMembership{
		ID:            m.ID,
		UserID:        m.UserID,
		ReportGroupID: m.ReportGroupID,
	}
}
