package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/rentalops/internal/booking/domain"
	"github.com/smallbiznis/rentalops/internal/clock"
	"github.com/smallbiznis/rentalops/internal/config"
	degressiveratedomain "github.com/smallbiznis/rentalops/internal/degressiverate/domain"
	materialdomain "github.com/smallbiznis/rentalops/internal/material/domain"
	"github.com/smallbiznis/rentalops/internal/money"
	parkdomain "github.com/smallbiznis/rentalops/internal/park/domain"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
	"github.com/smallbiznis/rentalops/internal/validation"
	"github.com/smallbiznis/rentalops/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB                 *gorm.DB
	Log                *zap.Logger
	GenID              *snowflake.Node
	Clock              clock.Clock
	RentalCfg          *config.RentalConfigHolder
	Repo               materialdomain.Repository
	ParkRepo           parkdomain.Repository
	DegressiveRateRepo degressiveratedomain.Repository
	TaxRepo            taxdomain.Repository
	BookingRepo        bookingdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	rentalCfg *config.RentalConfigHolder

	repo               materialdomain.Repository
	parkRepo           parkdomain.Repository
	degressiveRateRepo degressiveratedomain.Repository
	taxRepo            taxdomain.Repository
	bookingRepo        bookingdomain.Repository
}

func NewService(p ServiceParam) materialdomain.Service {
	return &Service{
		db:                 p.DB,
		log:                p.Log.Named("material.service"),
		genID:              p.GenID,
		clock:              p.Clock,
		rentalCfg:          p.RentalCfg,
		repo:               p.Repo,
		parkRepo:           p.ParkRepo,
		degressiveRateRepo: p.DegressiveRateRepo,
		taxRepo:            p.TaxRepo,
		bookingRepo:        p.BookingRepo,
	}
}

func (s *Service) Create(ctx context.Context, req materialdomain.CreateRequest) (*materialdomain.Response, error) {
	now := s.clock.Now()
	material := &materialdomain.Material{
		ID:             s.genID.Generate(),
		Name:           strings.TrimSpace(req.Name),
		Reference:      materialdomain.ReferenceOrSlug(req.Reference, req.Name),
		IsUnitary:      req.IsUnitary,
		IsDiscountable: true,
		IsHiddenOnBill: req.IsHiddenOnBill,
		Status:         materialdomain.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.IsDiscountable != nil {
		material.IsDiscountable = *req.IsDiscountable
	}

	var errs validation.Errors
	if material.Name == "" {
		errs.Add("name", validation.CodeRequired, "name is required")
	}
	if material.Reference == "" {
		errs.Add("reference", validation.CodeRequired, "reference is required")
	} else {
		existing, err := s.repo.FindByReference(ctx, s.db, material.Reference)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			errs.Add("reference", validation.CodeAlreadyExists, "a material with this reference already exists")
		}
	}

	parkErrs, err := s.resolvePark(ctx, req.ParkID, material)
	if err != nil {
		return nil, err
	}
	errs = append(errs, parkErrs...)

	if req.CategoryID != nil && strings.TrimSpace(*req.CategoryID) != "" {
		categoryID, err := snowflake.ParseString(strings.TrimSpace(*req.CategoryID))
		if err != nil {
			errs.Add("category_id", validation.CodeInvalid, "category_id is not a valid id")
		} else {
			material.CategoryID = &categoryID
		}
	}

	material.RentalPrice = parsePrice(&errs, "rental_price", req.RentalPrice)
	material.ReplacementPrice = parsePrice(&errs, "replacement_price", req.ReplacementPrice)

	refErrs, err := s.resolvePricingRefs(ctx, req.DegressiveRateID, req.TaxID, material)
	if err != nil {
		return nil, err
	}
	errs = append(errs, refErrs...)

	var units []materialdomain.MaterialUnit
	if material.IsUnitary {
		units = s.buildUnits(&errs, material, req.Units)
		material.StockQuantity, material.OutOfOrderQuantity = materialdomain.DeriveUnitQuantities(units)
	} else {
		if len(req.Units) > 0 {
			errs.Add("units", validation.CodeInvalid, "only unitary materials have units")
		}
		if req.StockQuantity < 0 {
			errs.Add("stock_quantity", validation.CodeOutOfRange, "stock_quantity cannot be negative")
		}
		if req.OutOfOrderQuantity < 0 {
			errs.Add("out_of_order_quantity", validation.CodeOutOfRange, "out_of_order_quantity cannot be negative")
		} else if req.OutOfOrderQuantity > req.StockQuantity {
			errs.Add("out_of_order_quantity", validation.CodeOutOfRange, "out_of_order_quantity cannot exceed stock_quantity")
		}
		material.StockQuantity = req.StockQuantity
		material.OutOfOrderQuantity = req.OutOfOrderQuantity
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, material); err != nil {
			return err
		}
		return s.repo.CreateUnits(ctx, tx, units)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, validation.New("reference", validation.CodeAlreadyExists, "reference already exists")
		}
		return nil, err
	}

	s.log.Info("material created",
		zap.String("material_id", material.ID.String()),
		zap.String("park_id", material.ParkID.String()),
		zap.Bool("is_unitary", material.IsUnitary),
	)
	resp := toResponse(material, units)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*materialdomain.Response, error) {
	material, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	var units []materialdomain.MaterialUnit
	if material.IsUnitary {
		units, err = s.repo.ListUnits(ctx, s.db, []snowflake.ID{material.ID})
		if err != nil {
			return nil, err
		}
	}
	resp := toResponse(material, units)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req materialdomain.ListRequest) ([]materialdomain.Response, error) {
	filter := materialdomain.ListFilter{
		IncludeArchived: req.IncludeArchived,
		SortBy:          strings.TrimSpace(req.SortBy),
		OrderBy:         strings.TrimSpace(req.OrderBy),
	}
	if parkID := strings.TrimSpace(req.ParkID); parkID != "" {
		id, err := snowflake.ParseString(parkID)
		if err != nil {
			return nil, validation.New("park_id", validation.CodeInvalid, "park_id is not a valid id")
		}
		filter.ParkID = id
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	unitary := make([]snowflake.ID, 0)
	for _, item := range items {
		if item.IsUnitary {
			unitary = append(unitary, item.ID)
		}
	}
	units, err := s.repo.ListUnits(ctx, s.db, unitary)
	if err != nil {
		return nil, err
	}
	byMaterial := make(map[snowflake.ID][]materialdomain.MaterialUnit, len(unitary))
	for _, u := range units {
		byMaterial[u.MaterialID] = append(byMaterial[u.MaterialID], u)
	}

	resp := make([]materialdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i], byMaterial[items[i].ID]))
	}
	return resp, nil
}

func (s *Service) Archive(ctx context.Context, id string) (*materialdomain.Response, error) {
	material, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !material.IsArchived() {
		now := s.clock.Now()
		material.Status = materialdomain.StatusArchived
		material.ArchivedAt = &now
		material.UpdatedAt = now
		if err := s.repo.UpdateStatus(ctx, s.db, material); err != nil {
			return nil, err
		}
		s.log.Info("material archived", zap.String("material_id", material.ID.String()))
	}
	return s.Get(ctx, material.ID.String())
}

func (s *Service) Restore(ctx context.Context, id string) (*materialdomain.Response, error) {
	material, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if material.IsArchived() {
		material.Status = materialdomain.StatusActive
		material.ArchivedAt = nil
		material.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateStatus(ctx, s.db, material); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, material.ID.String())
}

func (s *Service) Delete(ctx context.Context, id string) error {
	material, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	var detached int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.bookingRepo.DetachMaterial(ctx, tx, material.ID)
		if err != nil {
			return err
		}
		detached = n
		return s.repo.Delete(ctx, tx, material.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("material deleted",
		zap.String("material_id", material.ID.String()),
		zap.Int64("detached_lines", detached),
	)
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*materialdomain.Material, error) {
	materialID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, materialdomain.ErrInvalidID
	}
	material, err := s.repo.FindByID(ctx, s.db, materialID)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, materialdomain.ErrNotFound
	}
	return material, nil
}

func (s *Service) resolvePark(ctx context.Context, raw string, material *materialdomain.Material) (validation.Errors, error) {
	var errs validation.Errors
	raw = strings.TrimSpace(raw)
	if raw == "" {
		errs.Add("park_id", validation.CodeRequired, "park_id is required")
		return errs, nil
	}
	parkID, err := snowflake.ParseString(raw)
	if err != nil {
		errs.Add("park_id", validation.CodeInvalid, "park_id is not a valid id")
		return errs, nil
	}
	park, err := s.parkRepo.FindByID(ctx, parkID)
	if err != nil {
		return nil, err
	}
	if park == nil {
		errs.Add("park_id", validation.CodeNotFound, "park does not exist")
		return errs, nil
	}
	if park.IsArchived() {
		errs.Add("park_id", validation.CodeInvalid, "park is archived")
		return errs, nil
	}
	material.ParkID = park.ID
	return errs, nil
}

func (s *Service) resolvePricingRefs(ctx context.Context, rateRaw, taxRaw *string, material *materialdomain.Material) (validation.Errors, error) {
	var errs validation.Errors

	if rateRaw != nil && strings.TrimSpace(*rateRaw) != "" {
		rateID, err := snowflake.ParseString(strings.TrimSpace(*rateRaw))
		if err != nil {
			errs.Add("degressive_rate_id", validation.CodeInvalid, "degressive_rate_id is not a valid id")
		} else {
			rate, err := s.degressiveRateRepo.FindByID(ctx, s.db, rateID)
			if err != nil {
				return nil, err
			}
			if rate == nil {
				errs.Add("degressive_rate_id", validation.CodeNotFound, "degressive rate does not exist")
			} else {
				material.DegressiveRateID = &rate.ID
			}
		}
	}

	if taxRaw != nil && strings.TrimSpace(*taxRaw) != "" {
		taxID, err := snowflake.ParseString(strings.TrimSpace(*taxRaw))
		if err != nil {
			errs.Add("tax_id", validation.CodeInvalid, "tax_id is not a valid id")
		} else {
			tax, err := s.taxRepo.FindByID(ctx, s.db, taxID)
			if err != nil {
				return nil, err
			}
			if tax == nil {
				errs.Add("tax_id", validation.CodeNotFound, "tax does not exist")
			} else {
				material.TaxID = &tax.ID
			}
		}
	}

	return errs, nil
}

func (s *Service) buildUnits(errs *validation.Errors, material *materialdomain.Material, inputs []materialdomain.UnitRequest) []materialdomain.MaterialUnit {
	cfg := s.rentalCfg.Get()
	seen := make(map[string]bool, len(inputs))
	units := make([]materialdomain.MaterialUnit, 0, len(inputs))

	for i, in := range inputs {
		row := validation.Join("units", strconv.Itoa(i))
		reference := strings.TrimSpace(in.Reference)
		state := strings.TrimSpace(in.State)

		if reference == "" {
			errs.Add(validation.Join(row, "reference"), validation.CodeRequired, "reference is required")
		} else if seen[reference] {
			errs.Add(validation.Join(row, "reference"), validation.CodeAlreadyExists, "reference is duplicated")
		}
		seen[reference] = true

		if in.IsLost && in.IsBroken {
			errs.Add(validation.Join(row, "is_broken"), validation.CodeInvalid, "a unit cannot be both lost and broken")
		}
		if !cfg.HasUnitState(state) {
			errs.Add(validation.Join(row, "state"), validation.CodeInvalid, "unknown unit state")
		}

		units = append(units, materialdomain.MaterialUnit{
			ID:         s.genID.Generate(),
			MaterialID: material.ID,
			ParkID:     material.ParkID,
			Reference:  reference,
			IsLost:     in.IsLost,
			IsBroken:   in.IsBroken,
			State:      state,
			CreatedAt:  material.CreatedAt,
			UpdatedAt:  material.CreatedAt,
		})
	}
	return units
}

func parsePrice(errs *validation.Errors, field, raw string) decimal.Decimal {
	value, err := money.Parse(raw)
	if err != nil {
		errs.Add(field, validation.CodeInvalid, field+" must be a decimal number")
		return decimal.Zero
	}
	if value.IsNegative() {
		errs.Add(field, validation.CodeOutOfRange, field+" cannot be negative")
	}
	if money.Places(value) > money.AmountScale {
		errs.Add(field, validation.CodeInvalid, field+" accepts at most 2 decimals")
	}
	return value
}

func toResponse(m *materialdomain.Material, units []materialdomain.MaterialUnit) materialdomain.Response {
	resp := materialdomain.Response{
		ID:                 m.ID.String(),
		Name:               m.Name,
		Reference:          m.Reference,
		ParkID:             m.ParkID.String(),
		CategoryID:         idString(m.CategoryID),
		IsUnitary:          m.IsUnitary,
		StockQuantity:      m.StockQuantity,
		OutOfOrderQuantity: m.OutOfOrderQuantity,
		RentalPrice:        money.Amount(m.RentalPrice),
		ReplacementPrice:   money.Amount(m.ReplacementPrice),
		DegressiveRateID:   idString(m.DegressiveRateID),
		TaxID:              idString(m.TaxID),
		IsDiscountable:     m.IsDiscountable,
		IsHiddenOnBill:     m.IsHiddenOnBill,
		Status:             m.Status,
		ArchivedAt:         m.ArchivedAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.IsUnitary {
		resp.StockQuantity, resp.OutOfOrderQuantity = materialdomain.DeriveUnitQuantities(units)
		for _, u := range units {
			resp.Units = append(resp.Units, materialdomain.UnitResponse{
				ID:        u.ID.String(),
				Reference: u.Reference,
				IsLost:    u.IsLost,
				IsBroken:  u.IsBroken,
				State:     u.State,
			})
		}
	}
	return resp
}

func idString(id *snowflake.ID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
