package reportgroup

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/de-tools/report-scheduler/pkg/adapters"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/services/resources"
	"github.com/de-tools/report-scheduler/pkg/store/duckdb"
	groupstore "github.com/de-tools/report-scheduler/pkg/store/duckdb/reportgroup"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ManagementService interface {
	ListReportGroups(ctx context.Context) ([]domain.ReportGroup, error)
	GetReportGroup(ctx context.Context, id string) (domain.ReportGroup, error)
	CreateReportGroup(ctx context.Context, group domain.ReportGroup) (domain.ReportGroup, error)
	// UpdateReportGroup replaces name and description. A non-nil Members list also replaces the members.
	UpdateReportGroup(ctx context.Context, group domain.ReportGroup) (domain.ReportGroup, error)
	DeleteReportGroup(ctx context.Context, id string) error

	ListMembers(ctx context.Context, groupID string) ([]domain.ReportGroupMember, error)
	AddMembers(ctx context.Context, members []domain.ReportGroupMember) ([]domain.ReportGroupMember, error)
	RemoveMember(ctx context.Context, id string) error
}

type reportGroupMgmtService struct {
	db    *sql.DB
	store groupstore.Store
}

func NewManagementService(db *sql.DB, store groupstore.Store) ManagementService {
	return &reportGroupMgmtService{
		db:    db,
		store: store,
	}
}

func (s *reportGroupMgmtService) ListReportGroups(ctx context.Context) ([]domain.ReportGroup, error) {
	groups, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListAllMembers(ctx)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[string][]domain.ReportGroupMember, len(groups))
	for _, m := range members {
		byGroup[m.ReportGroupID] = append(byGroup[m.ReportGroupID], adapters.MapStoreMembershipToDomain(m))
	}

	result := make([]domain.ReportGroup, 0, len(groups))
	for _, g := range groups {
		group := adapters.MapStoreReportGroupToDomain(g, nil)
		for _, m := range byGroup[g.ID] {
			group.Members = append(group.Members, m.UserID)
		}
		result = append(result, group)
	}
	return result, nil
}

func (s *reportGroupMgmtService) GetReportGroup(ctx context.Context, id string) (domain.ReportGroup, error) {
	g, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.ReportGroup{}, resources.FromStore(err)
	}
	members, err := s.store.ListMembers(ctx, id)
	if err != nil {
		return domain.ReportGroup{}, err
	}
	return adapters.MapStoreReportGroupToDomain(*g, members), nil
}

func (s *reportGroupMgmtService) validate(ctx context.Context, group domain.ReportGroup) error {
	if strings.TrimSpace(group.Name) == "" {
		return resources.Invalid("report group name is required")
	}
	existing, err := s.store.GetByName(ctx, group.Name)
	if errors.Is(err, duckdb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != group.ID {
		return resources.Conflict("a report group named %q already exists", group.Name)
	}
	return nil
}

func (s *reportGroupMgmtService) CreateReportGroup(ctx context.Context, group domain.ReportGroup) (domain.ReportGroup, error) {
	logger := zerolog.Ctx(ctx)

	group.ID = uuid.NewString()
	if err := s.validate(ctx, group); err != nil {
		return domain.ReportGroup{}, err
	}

	err := duckdb.InTransaction(ctx, s.db, func(ctx context.Context) error {
		if err := s.store.Create(ctx, adapters.MapDomainReportGroupToStore(group)); err != nil {
			return err
		}
		return s.replaceMembers(ctx, group.ID, group.Members)
	})
	if err != nil {
		return domain.ReportGroup{}, resources.FromStore(err)
	}

	logger.Info().Str("id", group.ID).Str("name", group.Name).Msg("report group created")
	return s.GetReportGroup(ctx, group.ID)
}

func (s *reportGroupMgmtService) UpdateReportGroup(ctx context.Context, group domain.ReportGroup) (domain.ReportGroup, error) {
	if group.ID == "" {
		return domain.ReportGroup{}, resources.Invalid("report group id is required")
	}
	if err := s.validate(ctx, group); err != nil {
		return domain.ReportGroup{}, err
	}

	err := duckdb.InTransaction(ctx, s.db, func(ctx context.Context) error {
		if err := s.store.Update(ctx, adapters.MapDomainReportGroupToStore(group)); err != nil {
			return err
		}
		if group.Members == nil {
			return nil
		}
		return s.replaceMembers(ctx, group.ID, group.Members)
	})
	if err != nil {
		return domain.ReportGroup{}, resources.FromStore(err)
	}
	return s.GetReportGroup(ctx, group.ID)
}

// replaceMembers makes userIDs the exact member set of the group, keeping existing membership ids.
func (s *reportGroupMgmtService) replaceMembers(ctx context.Context, groupID string, userIDs []string) error {
	current, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return err
	}

	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}
	have := make(map[string]struct{}, len(current))
	for _, m := range current {
		if _, ok := wanted[m.UserID]; !ok {
			if err := s.store.RemoveMember(ctx, m.ID); err != nil {
				return err
			}
			continue
		}
		have[m.UserID] = struct{}{}
	}

	for _, userID := range userIDs {
		if _, ok := have[userID]; ok {
			continue
		}
		have[userID] = struct{}{}
		member := domain.ReportGroupMember{ID: uuid.NewString(), UserID: userID, ReportGroupID: groupID}
		if err := s.store.AddMember(ctx, adapters.MapDomainMembershipToStore(member)); err != nil {
			return err
		}
	}
	return nil
}

func (s *reportGroupMgmtService) DeleteReportGroup(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return resources.FromStore(err)
	}
	zerolog.Ctx(ctx).Info().Str("id", id).Msg("report group deleted")
	return nil
}

func (s *reportGroupMgmtService) ListMembers(ctx context.Context, groupID string) ([]domain.ReportGroupMember, error) {
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	result := make([]domain.ReportGroupMember, 0, len(members))
	for _, m := range members {
		result = append(result, adapters.MapStoreMembershipToDomain(m))
	}
	return result, nil
}

// AddMembers creates all memberships or none. Every member must name an existing group and a user.
func (s *reportGroupMgmtService) AddMembers(ctx context.Context, members []domain.ReportGroupMember) ([]domain.ReportGroupMember, error) {
	created := make([]domain.ReportGroupMember, 0, len(members))
	err := duckdb.InTransaction(ctx, s.db, func(ctx context.Context) error {
		for _, m := range members {
			if m.UserID == "" || m.ReportGroupID == "" {
				return resources.Invalid("membership needs a user id and a report group id")
			}
			if _, err := s.store.Get(ctx, m.ReportGroupID); err != nil {
				if errors.Is(err, duckdb.ErrNotFound) {
					return resources.Invalid("report group %s does not exist", m.ReportGroupID)
				}
				return err
			}
			m.ID = uuid.NewString()
			if err := s.store.AddMember(ctx, adapters.MapDomainMembershipToStore(m)); err != nil {
				return err
			}
			created = append(created, m)
		}
		return nil
	})
	if err != nil {
		return nil, resources.FromStore(err)
	}
	return created, nil
}

func (s *reportGroupMgmtService) RemoveMember(ctx context.Context, id string) error {
	return resources.FromStore(s.store.RemoveMember(ctx, id))
}
