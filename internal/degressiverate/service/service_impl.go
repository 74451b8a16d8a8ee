package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentalops/internal/clock"
	degressiveratedomain "github.com/smallbiznis/rentalops/internal/degressiverate/domain"
	materialdomain "github.com/smallbiznis/rentalops/internal/material/domain"
	"github.com/smallbiznis/rentalops/internal/money"
	settingdomain "github.com/smallbiznis/rentalops/internal/setting/domain"
	"github.com/smallbiznis/rentalops/internal/validation"
	"github.com/smallbiznis/rentalops/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         degressiveratedomain.Repository
	MaterialRepo materialdomain.Repository
	SettingSvc   settingdomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	repo         degressiveratedomain.Repository
	materialRepo materialdomain.Repository
	settingSvc   settingdomain.Service
}

func NewService(p ServiceParam) degressiveratedomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("degressiverate.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		materialRepo: p.MaterialRepo,
		settingSvc:   p.SettingSvc,
	}
}

func (s *Service) Create(ctx context.Context, req degressiveratedomain.CreateRequest) (*degressiveratedomain.Response, error) {
	name := strings.TrimSpace(req.Name)

	errs := degressiveratedomain.ValidateName(name)
	tiers, tierErrs := degressiveratedomain.ParseTiers(req.Tiers)
	errs = append(errs, tierErrs...)
	if len(errs) == 0 {
		if err := s.ensureNameAvailable(ctx, name, 0); err != nil {
			return nil, err
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rate := &degressiveratedomain.DegressiveRate{
		ID:        s.genID.Generate(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range tiers {
		tiers[i].ID = s.genID.Generate()
		tiers[i].DegressiveRateID = rate.ID
	}
	rate.Tiers = tiers

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, rate); err != nil {
			return err
		}
		return s.repo.ReplaceTiers(ctx, tx, rate.ID, rate.Tiers)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, nameTaken()
		}
		return nil, err
	}

	s.log.Info("degressive rate created", zap.String("degressive_rate_id", rate.ID.String()), zap.Int("tiers", len(rate.Tiers)))
	return s.toResponse(ctx, rate)
}

func (s *Service) Update(ctx context.Context, req degressiveratedomain.UpdateRequest) (*degressiveratedomain.Response, error) {
	rate, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	var errs validation.Errors
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		errs = append(errs, degressiveratedomain.ValidateName(name)...)
		if len(errs) == 0 && name != rate.Name {
			if err := s.ensureNameAvailable(ctx, name, rate.ID); err != nil {
				return nil, err
			}
		}
		rate.Name = name
	}

	replaceTiers := req.Tiers != nil
	if replaceTiers {
		tiers, tierErrs := degressiveratedomain.ParseTiers(*req.Tiers)
		errs = append(errs, tierErrs...)
		for i := range tiers {
			tiers[i].ID = s.genID.Generate()
			tiers[i].DegressiveRateID = rate.ID
		}
		rate.Tiers = tiers
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	rate.UpdatedAt = s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, rate); err != nil {
			return err
		}
		if !replaceTiers {
			return nil
		}
		return s.repo.ReplaceTiers(ctx, tx, rate.ID, rate.Tiers)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, nameTaken()
		}
		return nil, err
	}

	return s.toResponse(ctx, rate)
}

func (s *Service) Get(ctx context.Context, id string) (*degressiveratedomain.Response, error) {
	rate, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, rate)
}

func (s *Service) List(ctx context.Context, req degressiveratedomain.ListRequest) ([]degressiveratedomain.Response, error) {
	items, err := s.repo.List(ctx, s.db, degressiveratedomain.ListRequest{
		SortBy:  strings.TrimSpace(req.SortBy),
		OrderBy: strings.TrimSpace(req.OrderBy),
	})
	if err != nil {
		return nil, err
	}

	resp := make([]degressiveratedomain.Response, 0, len(items))
	for i := range items {
		item, err := s.toResponse(ctx, &items[i])
		if err != nil {
			return nil, err
		}
		resp = append(resp, *item)
	}
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	rate, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	defaultID, err := s.settingSvc.DefaultDegressiveRateID(ctx)
	if err != nil {
		return err
	}
	if defaultID == rate.ID {
		return degressiveratedomain.ErrIsDefault
	}

	used, err := s.materialRepo.CountByDegressiveRate(ctx, s.db, rate.ID)
	if err != nil {
		return err
	}
	if used > 0 {
		return degressiveratedomain.ErrInUse
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, rate.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("degressive rate deleted", zap.String("degressive_rate_id", rate.ID.String()))
	return nil
}

func (s *Service) Compute(ctx context.Context, id string, days int) (*degressiveratedomain.ComputeResponse, error) {
	if days < 1 {
		return nil, validation.New("days", validation.CodeOutOfRange, "days must be at least 1")
	}

	rate, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	multiplier, err := rate.ComputeForDays(days)
	if err != nil {
		return nil, err
	}

	return &degressiveratedomain.ComputeResponse{
		DegressiveRateID: rate.ID.String(),
		Days:             days,
		Multiplier:       money.Amount(multiplier),
	}, nil
}

func (s *Service) Resolve(ctx context.Context, id string) (*degressiveratedomain.DegressiveRate, error) {
	return s.find(ctx, id)
}

func (s *Service) find(ctx context.Context, id string) (*degressiveratedomain.DegressiveRate, error) {
	rateID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, degressiveratedomain.ErrInvalidID
	}

	rate, err := s.repo.FindByID(ctx, s.db, rateID)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, degressiveratedomain.ErrNotFound
	}
	return rate, nil
}

func (s *Service) ensureNameAvailable(ctx context.Context, name string, self snowflake.ID) error {
	existing, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return nameTaken()
	}
	return nil
}

func nameTaken() error {
	return validation.New("name", validation.CodeAlreadyExists, "a degressive rate with this name already exists")
}

func (s *Service) toResponse(ctx context.Context, rate *degressiveratedomain.DegressiveRate) (*degressiveratedomain.Response, error) {
	defaultID, err := s.settingSvc.DefaultDegressiveRateID(ctx)
	if err != nil {
		return nil, err
	}
	used, err := s.materialRepo.CountByDegressiveRate(ctx, s.db, rate.ID)
	if err != nil {
		return nil, err
	}

	display := rate.DisplayTiers()
	tiers := make([]degressiveratedomain.TierResponse, 0, len(display))
	for _, tier := range display {
		item := degressiveratedomain.TierResponse{
			FromDay: tier.FromDay,
			IsRate:  tier.IsRate,
			Value:   money.Amount(tier.Value),
		}
		if tier.IsRate {
			item.Value = money.TaxValue(tier.Value, true)
		}
		if tier.ID == 0 {
			item.IsVirtual = true
		} else {
			tierID := tier.ID.String()
			item.ID = &tierID
		}
		tiers = append(tiers, item)
	}

	return &degressiveratedomain.Response{
		ID:        rate.ID.String(),
		Name:      rate.Name,
		IsDefault: defaultID == rate.ID,
		IsUsed:    used > 0,
		Tiers:     tiers,
		CreatedAt: rate.CreatedAt,
		UpdatedAt: rate.UpdatedAt,
	}, nil
}
