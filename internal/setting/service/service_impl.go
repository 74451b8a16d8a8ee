package service

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentalops/internal/clock"
	degressiveratedomain "github.com/smallbiznis/rentalops/internal/degressiverate/domain"
	settingdomain "github.com/smallbiznis/rentalops/internal/setting/domain"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  settingdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  settingdomain.Repository
}

func NewService(p ServiceParam) settingdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("setting.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// List returns every known key, unset ones with an empty value.
func (s *Service) List(ctx context.Context) ([]settingdomain.Response, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*settingdomain.Setting, len(stored))
	for _, item := range stored {
		byKey[item.Key] = item
	}

	keys := make([]string, 0, len(settingdomain.KnownKeys))
	for key := range settingdomain.KnownKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]settingdomain.Response, 0, len(keys))
	for _, key := range keys {
		if item, ok := byKey[key]; ok {
			out = append(out, toResponse(item))
			continue
		}
		out = append(out, settingdomain.Response{Key: key})
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, key string) (*settingdomain.Response, error) {
	key = strings.TrimSpace(key)
	if !settingdomain.KnownKeys[key] {
		return nil, settingdomain.ErrUnknownKey
	}

	item, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return &settingdomain.Response{Key: key}, nil
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Set(ctx context.Context, req settingdomain.SetRequest) (*settingdomain.Response, error) {
	key := strings.TrimSpace(req.Key)
	if !settingdomain.KnownKeys[key] {
		return nil, settingdomain.ErrUnknownKey
	}

	value := strings.TrimSpace(req.Value)
	var ref snowflake.ID
	if value != "" {
		id, err := snowflake.ParseString(value)
		if err != nil || id <= 0 {
			return nil, settingdomain.ErrInvalidValue
		}
		ref = id
	}

	item := &settingdomain.Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: s.clock.Now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)
		if ref != 0 {
			if err := s.ensureReferenceExists(ctx, repo, key, ref); err != nil {
				return err
			}
		}
		return repo.Upsert(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("setting updated", zap.String("key", key))
	resp := toResponse(item)
	return &resp, nil
}

// ensureReferenceExists rejects defaults pointing at a rate or tax that is not stored.
func (s *Service) ensureReferenceExists(ctx context.Context, repo settingdomain.Repository, key string, id snowflake.ID) error {
	switch key {
	case settingdomain.KeyDefaultDegressiveRate:
		ok, err := repo.DegressiveRateExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return degressiveratedomain.ErrNotFound
		}
	case settingdomain.KeyDefaultTax:
		ok, err := repo.TaxExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return taxdomain.ErrNotFound
		}
	}
	return nil
}

func (s *Service) DefaultDegressiveRateID(ctx context.Context) (snowflake.ID, error) {
	return s.idValue(ctx, settingdomain.KeyDefaultDegressiveRate)
}

func (s *Service) DefaultTaxID(ctx context.Context) (snowflake.ID, error) {
	return s.idValue(ctx, settingdomain.KeyDefaultTax)
}

func (s *Service) idValue(ctx context.Context, key string) (snowflake.ID, error) {
	item, err := s.repo.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if item == nil || strings.TrimSpace(item.Value) == "" {
		return 0, nil
	}
	id, err := snowflake.ParseString(item.Value)
	if err != nil {
		return 0, settingdomain.ErrInvalidValue
	}
	return id, nil
}

func toResponse(item *settingdomain.Setting) settingdomain.Response {
	updatedAt := item.UpdatedAt
	return settingdomain.Response{
		Key:       item.Key,
		Value:     item.Value,
		UpdatedAt: &updatedAt,
	}
}
