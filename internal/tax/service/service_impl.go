package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/rentalops/internal/clock"
	materialdomain "github.com/smallbiznis/rentalops/internal/material/domain"
	"github.com/smallbiznis/rentalops/internal/money"
	settingdomain "github.com/smallbiznis/rentalops/internal/setting/domain"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
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
	Repo         taxdomain.Repository
	MaterialRepo materialdomain.Repository
	SettingSvc   settingdomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	repo         taxdomain.Repository
	materialRepo materialdomain.Repository
	settingSvc   settingdomain.Service
}

func NewService(p ServiceParam) taxdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("tax.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		materialRepo: p.MaterialRepo,
		settingSvc:   p.SettingSvc,
	}
}

func (s *Service) Create(ctx context.Context, req taxdomain.CreateRequest) (*taxdomain.Response, error) {
	name := strings.TrimSpace(req.Name)

	var errs validation.Errors
	if name == "" {
		errs.Add("name", validation.CodeRequired, "name is required")
	}

	now := s.clock.Now()
	tax := &taxdomain.Tax{
		ID:        s.genID.Generate(),
		Name:      name,
		IsGroup:   req.IsGroup,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if req.IsGroup {
		components, componentErrs := taxdomain.ParseComponents(req.Components)
		errs = append(errs, componentErrs...)
		tax.Components = s.assignComponentIDs(tax.ID, components)
	} else {
		if len(req.Components) > 0 {
			errs.Add("components", validation.CodeInvalid, "only tax groups have components")
		}
		isRate, value, valueErrs := parseSingle(req.IsRate, req.Value)
		errs = append(errs, valueErrs...)
		tax.IsRate = isRate
		tax.Value = value
	}

	if len(errs) == 0 {
		if err := s.ensureNameAvailable(ctx, name, 0); err != nil {
			return nil, err
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, tax); err != nil {
			return err
		}
		return s.repo.ReplaceComponents(ctx, tx, tax.ID, tax.Components)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, nameTaken()
		}
		return nil, err
	}

	s.log.Info("tax created", zap.String("tax_id", tax.ID.String()), zap.Bool("is_group", tax.IsGroup))
	return s.toResponse(ctx, tax)
}

func (s *Service) Update(ctx context.Context, req taxdomain.UpdateRequest) (*taxdomain.Response, error) {
	tax, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	var errs validation.Errors
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			errs.Add("name", validation.CodeRequired, "name is required")
		} else if name != tax.Name {
			if err := s.ensureNameAvailable(ctx, name, tax.ID); err != nil {
				return nil, err
			}
		}
		tax.Name = name
	}

	replaceComponents := false
	if tax.IsGroup {
		if req.IsRate != nil || req.Value != nil {
			errs.Add("value", validation.CodeInvalid, "a tax group has no rate or value of its own")
		}
		if req.Components != nil {
			components, componentErrs := taxdomain.ParseComponents(*req.Components)
			errs = append(errs, componentErrs...)
			tax.Components = s.assignComponentIDs(tax.ID, components)
			replaceComponents = true
		}
	} else {
		if req.Components != nil && len(*req.Components) > 0 {
			errs.Add("components", validation.CodeInvalid, "only tax groups have components")
		}
		if req.IsRate != nil || req.Value != nil {
			isRate := req.IsRate
			if isRate == nil {
				isRate = tax.IsRate
			}
			raw := req.Value
			if raw == nil && tax.Value != nil {
				current := tax.Value.String()
				raw = &current
			}
			parsedRate, value, valueErrs := parseSingle(isRate, raw)
			errs = append(errs, valueErrs...)
			tax.IsRate = parsedRate
			tax.Value = value
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	tax.UpdatedAt = s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, tax); err != nil {
			return err
		}
		if !replaceComponents {
			return nil
		}
		return s.repo.ReplaceComponents(ctx, tx, tax.ID, tax.Components)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, nameTaken()
		}
		return nil, err
	}

	return s.toResponse(ctx, tax)
}

func (s *Service) Get(ctx context.Context, id string) (*taxdomain.Response, error) {
	tax, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, tax)
}

func (s *Service) List(ctx context.Context, req taxdomain.ListRequest) ([]taxdomain.Response, error) {
	items, err := s.repo.List(ctx, s.db, taxdomain.ListRequest{
		SortBy:  strings.TrimSpace(req.SortBy),
		OrderBy: strings.TrimSpace(req.OrderBy),
	})
	if err != nil {
		return nil, err
	}

	resp := make([]taxdomain.Response, 0, len(items))
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
	tax, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	defaultID, err := s.settingSvc.DefaultTaxID(ctx)
	if err != nil {
		return err
	}
	if defaultID == tax.ID {
		return taxdomain.ErrIsDefault
	}

	used, err := s.materialRepo.CountByTax(ctx, s.db, tax.ID)
	if err != nil {
		return err
	}
	if used > 0 {
		return taxdomain.ErrInUse
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, tax.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("tax deleted", zap.String("tax_id", tax.ID.String()))
	return nil
}

func (s *Service) Resolve(ctx context.Context, id string) (*taxdomain.Tax, error) {
	return s.find(ctx, id)
}

func (s *Service) find(ctx context.Context, id string) (*taxdomain.Tax, error) {
	taxID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, taxdomain.ErrInvalidID
	}

	tax, err := s.repo.FindByID(ctx, s.db, taxID)
	if err != nil {
		return nil, err
	}
	if tax == nil {
		return nil, taxdomain.ErrNotFound
	}
	return tax, nil
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

func (s *Service) assignComponentIDs(taxID snowflake.ID, components []taxdomain.Component) []taxdomain.Component {
	for i := range components {
		components[i].ID = s.genID.Generate()
		components[i].TaxID = taxID
	}
	return components
}

func parseSingle(isRate *bool, raw *string) (*bool, *decimal.Decimal, validation.Errors) {
	var errs validation.Errors
	if isRate == nil {
		errs.Add("is_rate", validation.CodeRequired, "is_rate is required")
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		errs.Add("value", validation.CodeRequired, "value is required")
	}
	if len(errs) > 0 {
		return nil, nil, errs
	}

	value, valueErrs := taxdomain.ValidateValue(*isRate, *raw)
	if len(valueErrs) > 0 {
		return nil, nil, valueErrs
	}
	rate := *isRate
	return &rate, &value, nil
}

func nameTaken() error {
	return validation.New("name", validation.CodeAlreadyExists, "a tax with this name already exists")
}

func (s *Service) toResponse(ctx context.Context, tax *taxdomain.Tax) (*taxdomain.Response, error) {
	defaultID, err := s.settingSvc.DefaultTaxID(ctx)
	if err != nil {
		return nil, err
	}
	used, err := s.materialRepo.CountByTax(ctx, s.db, tax.ID)
	if err != nil {
		return nil, err
	}

	resp := &taxdomain.Response{
		ID:        tax.ID.String(),
		Name:      tax.Name,
		IsGroup:   tax.IsGroup,
		IsRate:    tax.IsRate,
		IsDefault: defaultID == tax.ID,
		IsUsed:    used > 0,
		CreatedAt: tax.CreatedAt,
		UpdatedAt: tax.UpdatedAt,
	}
	if tax.Value != nil {
		value := money.TaxValue(*tax.Value, tax.IsRate != nil && *tax.IsRate)
		resp.Value = &value
	}
	for _, c := range tax.Components {
		resp.Components = append(resp.Components, taxdomain.ComponentResponse{
			ID:     c.ID.String(),
			Name:   c.Name,
			IsRate: c.IsRate,
			Value:  money.TaxValue(c.Value, c.IsRate),
		})
	}
	return resp, nil
}
