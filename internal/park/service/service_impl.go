package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentalops/internal/clock"
	parkdomain "github.com/smallbiznis/rentalops/internal/park/domain"
	"github.com/smallbiznis/rentalops/internal/validation"
	"github.com/smallbiznis/rentalops/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  parkdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  parkdomain.Repository
}

func NewService(p ServiceParam) parkdomain.Service {
	return &Service{
		log:   p.Log.Named("park.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req parkdomain.CreateRequest) (*parkdomain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validation.New("name", validation.CodeRequired, "name is required")
	}

	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nameTaken()
	}

	now := s.clock.Now()
	park := &parkdomain.Park{
		ID:        s.genID.Generate(),
		Name:      name,
		Status:    parkdomain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, park); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, nameTaken()
		}
		return nil, err
	}

	resp := toResponse(park)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req parkdomain.ListRequest) ([]parkdomain.Response, error) {
	items, err := s.repo.List(ctx, parkdomain.ListRequest{
		IncludeArchived: req.IncludeArchived,
		SortBy:          strings.TrimSpace(req.SortBy),
		OrderBy:         strings.TrimSpace(req.OrderBy),
	})
	if err != nil {
		return nil, err
	}

	resp := make([]parkdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*parkdomain.Response, error) {
	park, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(park)
	return &resp, nil
}

func (s *Service) Archive(ctx context.Context, id string) (*parkdomain.Response, error) {
	park, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if park.IsArchived() {
		resp := toResponse(park)
		return &resp, nil
	}

	now := s.clock.Now()
	park.Status = parkdomain.StatusArchived
	park.ArchivedAt = &now
	park.UpdatedAt = now
	if err := s.repo.UpdateStatus(ctx, park); err != nil {
		return nil, err
	}

	s.log.Info("park archived", zap.String("park_id", park.ID.String()))
	resp := toResponse(park)
	return &resp, nil
}

func (s *Service) Restore(ctx context.Context, id string) (*parkdomain.Response, error) {
	park, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !park.IsArchived() {
		resp := toResponse(park)
		return &resp, nil
	}

	park.Status = parkdomain.StatusActive
	park.ArchivedAt = nil
	park.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, park); err != nil {
		return nil, err
	}

	resp := toResponse(park)
	return &resp, nil
}

func (s *Service) find(ctx context.Context, id string) (*parkdomain.Park, error) {
	parkID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, parkdomain.ErrInvalidID
	}
	park, err := s.repo.FindByID(ctx, parkID)
	if err != nil {
		return nil, err
	}
	if park == nil {
		return nil, parkdomain.ErrNotFound
	}
	return park, nil
}

func nameTaken() error {
	return validation.New("name", validation.CodeAlreadyExists, "a park with this name already exists")
}

func toResponse(p *parkdomain.Park) parkdomain.Response {
	return parkdomain.Response{
		ID:         p.ID.String(),
		Name:       p.Name,
		Status:     p.Status,
		ArchivedAt: p.ArchivedAt,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}
