package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/rentalops/internal/billing/domain"
	bookingdomain "github.com/smallbiznis/rentalops/internal/booking/domain"
	"github.com/smallbiznis/rentalops/internal/clock"
	"github.com/smallbiznis/rentalops/internal/config"
	degressiveratedomain "github.com/smallbiznis/rentalops/internal/degressiverate/domain"
	materialdomain "github.com/smallbiznis/rentalops/internal/material/domain"
	"github.com/smallbiznis/rentalops/internal/money"
	"github.com/smallbiznis/rentalops/internal/observability/metrics"
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

	DB                 *gorm.DB
	Log                *zap.Logger
	GenID              *snowflake.Node
	Clock              clock.Clock
	RentalCfg          *config.RentalConfigHolder
	Metrics            *metrics.Metrics `optional:"true"`
	Repo               bookingdomain.Repository
	MaterialRepo       materialdomain.Repository
	DegressiveRateRepo degressiveratedomain.Repository
	TaxRepo            taxdomain.Repository
	DocumentRepo       billingdomain.Repository
	SettingSvc         settingdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	rentalCfg *config.RentalConfigHolder
	metrics   *metrics.Metrics

	repo               bookingdomain.Repository
	materialRepo       materialdomain.Repository
	degressiveRateRepo degressiveratedomain.Repository
	taxRepo            taxdomain.Repository
	documentRepo       billingdomain.Repository
	settingSvc         settingdomain.Service
}

func NewService(p ServiceParam) bookingdomain.Service {
	return &Service{
		db:                 p.DB,
		log:                p.Log.Named("booking.service"),
		genID:              p.GenID,
		clock:              p.Clock,
		rentalCfg:          p.RentalCfg,
		metrics:            p.Metrics,
		repo:               p.Repo,
		materialRepo:       p.MaterialRepo,
		degressiveRateRepo: p.DegressiveRateRepo,
		taxRepo:            p.TaxRepo,
		documentRepo:       p.DocumentRepo,
		settingSvc:         p.SettingSvc,
	}
}

func (s *Service) Create(ctx context.Context, req bookingdomain.CreateRequest) (*bookingdomain.Response, error) {
	now := s.clock.Now()
	event := &bookingdomain.Event{
		ID:         s.genID.Generate(),
		Title:      strings.TrimSpace(req.Title),
		Reference:  trimOptional(req.Reference),
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		IsBillable: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.IsBillable != nil {
		event.IsBillable = *req.IsBillable
	}

	var errs validation.Errors
	if event.Title == "" {
		errs.Add("title", validation.CodeRequired, "title is required")
	}
	if event.StartDate.IsZero() {
		errs.Add("start_date", validation.CodeRequired, "start_date is required")
	}
	if event.EndDate.IsZero() {
		errs.Add("end_date", validation.CodeRequired, "end_date is required")
	} else if !event.StartDate.IsZero() && event.EndDate.Before(event.StartDate) {
		errs.Add("end_date", validation.CodeOutOfRange, "end_date cannot be before start_date")
	}
	event.DiscountRate = parseDiscountRate(&errs, req.DiscountRate)

	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateEvent(ctx, s.db, event); err != nil {
		return nil, err
	}

	s.log.Info("event created",
		zap.String("event_id", event.ID.String()),
		zap.Int("duration_days", event.DurationDays()),
	)
	resp := s.toResponse(event, nil)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*bookingdomain.Response, error) {
	event, err := s.findEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.ListLines(ctx, s.db, event.ID)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(event, lines)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req bookingdomain.ListRequest) ([]bookingdomain.Response, error) {
	items, err := s.repo.ListEvents(ctx, s.db, bookingdomain.ListFilter{
		IncludeArchived: req.IncludeArchived,
		From:            req.From,
		To:              req.To,
		SortBy:          strings.TrimSpace(req.SortBy),
		OrderBy:         strings.TrimSpace(req.OrderBy),
	})
	if err != nil {
		return nil, err
	}

	resp := make([]bookingdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, s.toResponse(&items[i], nil))
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req bookingdomain.UpdateRequest) (*bookingdomain.Response, error) {
	event, err := s.findEvent(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, validation.New("title", validation.CodeRequired, "title is required")
		}
		event.Title = title
	}
	if req.Reference != nil {
		event.Reference = trimOptional(req.Reference)
	}
	if req.IsBillable != nil {
		event.IsBillable = *req.IsBillable
	}
	if req.IsArchived != nil {
		event.IsArchived = *req.IsArchived
	}
	if req.IsDepartureInventoryDone != nil {
		event.IsDepartureInventoryDone = *req.IsDepartureInventoryDone
	}
	if req.IsReturnInventoryDone != nil {
		event.IsReturnInventoryDone = *req.IsReturnInventoryDone
	}
	event.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateEvent(ctx, s.db, event); err != nil {
		return nil, err
	}
	return s.Get(ctx, event.ID.String())
}

func (s *Service) Delete(ctx context.Context, id string) error {
	event, err := s.findEvent(ctx, id)
	if err != nil {
		return err
	}

	var estimates int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoices, err := s.documentRepo.ListByEvent(ctx, tx, event.ID, billingdomain.KindInvoice)
		if err != nil {
			return err
		}
		if len(invoices) > 0 {
			return bookingdomain.ErrInvoiced
		}

		drafts, err := s.documentRepo.ListByEvent(ctx, tx, event.ID, billingdomain.KindEstimate)
		if err != nil {
			return err
		}
		for _, doc := range drafts {
			if err := s.documentRepo.Delete(ctx, tx, doc.ID); err != nil {
				return err
			}
		}
		estimates = len(drafts)

		return s.repo.DeleteEvent(ctx, tx, event.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("event deleted",
		zap.String("event_id", event.ID.String()),
		zap.Int("estimates_removed", estimates),
	)
	return nil
}

func (s *Service) AddMaterial(ctx context.Context, req bookingdomain.AddMaterialRequest) (*bookingdomain.LineResponse, error) {
	event, err := s.findEditableEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	var errs validation.Errors
	if req.Quantity < 1 {
		errs.Add("quantity", validation.CodeOutOfRange, "quantity must be at least 1")
	}

	var material *materialdomain.Material
	materialID, err := snowflake.ParseString(strings.TrimSpace(req.MaterialID))
	if err != nil {
		errs.Add("material_id", validation.CodeInvalid, "material_id is not a valid id")
	} else {
		material, err = s.materialRepo.FindByID(ctx, s.db, materialID)
		if err != nil {
			return nil, err
		}
		switch {
		case material == nil:
			errs.Add("material_id", validation.CodeNotFound, "material does not exist")
		case material.IsArchived():
			errs.Add("material_id", validation.CodeInvalid, "material is archived")
		default:
			existing, err := s.repo.FindLineByMaterial(ctx, s.db, event.ID, material.ID)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				errs.Add("material_id", validation.CodeAlreadyExists, "material is already part of this event")
			}
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	line := &bookingdomain.EventMaterial{
		ID:                   s.genID.Generate(),
		EventID:              event.ID,
		MaterialID:           &material.ID,
		Name:                 material.Name,
		Reference:            material.Reference,
		CategoryID:           material.CategoryID,
		Quantity:             req.Quantity,
		UnitPrice:            material.RentalPrice,
		IsDiscountable:       material.IsDiscountable,
		UnitReplacementPrice: material.ReplacementPrice,
		IsHiddenOnBill:       material.IsHiddenOnBill,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.applyDegressiveRate(ctx, line, material, event.DurationDays()); err != nil {
		return nil, err
	}
	if err := s.applyTaxes(ctx, line, material); err != nil {
		return nil, err
	}
	line.Recompute(event.DiscountRate)

	if err := s.repo.CreateLine(ctx, s.db, line); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, validation.New("material_id", validation.CodeAlreadyExists, "material is already part of this event")
		}
		return nil, err
	}

	s.log.Info("material added to event",
		zap.String("event_id", event.ID.String()),
		zap.String("material_id", material.ID.String()),
		zap.Int("quantity", line.Quantity),
	)
	resp := toLineResponse(line)
	return &resp, nil
}

func (s *Service) UpdateMaterialQuantity(ctx context.Context, req bookingdomain.UpdateQuantityRequest) (*bookingdomain.LineResponse, error) {
	event, err := s.findEditableEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, validation.New("quantity", validation.CodeOutOfRange, "quantity must be at least 1")
	}
	line, err := s.findLine(ctx, event.ID, req.LineID)
	if err != nil {
		return nil, err
	}

	line.Quantity = req.Quantity
	line.Recompute(event.DiscountRate)
	line.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateLine(ctx, s.db, line); err != nil {
		return nil, err
	}
	resp := toLineResponse(line)
	return &resp, nil
}

func (s *Service) RemoveMaterial(ctx context.Context, eventID, lineID string) error {
	event, err := s.findEditableEvent(ctx, eventID)
	if err != nil {
		return err
	}
	line, err := s.findLine(ctx, event.ID, lineID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteLine(ctx, s.db, event.ID, line.ID); err != nil {
		return err
	}
	s.log.Info("material removed from event",
		zap.String("event_id", event.ID.String()),
		zap.String("line_id", line.ID.String()),
	)
	return nil
}

// Resync overwrites the requested frozen attributes of a line with the current
// catalog values and recomputes every total.
func (s *Service) Resync(ctx context.Context, req bookingdomain.ResyncRequest) (*bookingdomain.LineResponse, error) {
	fields, err := bookingdomain.ParseResyncFields(req.Fields)
	if err != nil {
		return nil, err
	}
	event, err := s.findEditableEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	line, err := s.findLine(ctx, event.ID, req.LineID)
	if err != nil {
		return nil, err
	}
	if line.MaterialID == nil {
		return nil, bookingdomain.ErrMaterialNotFound
	}
	material, err := s.materialRepo.FindByID(ctx, s.db, *line.MaterialID)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, bookingdomain.ErrMaterialNotFound
	}

	if fields.Has(bookingdomain.ResyncName) {
		line.Name = material.Name
	}
	if fields.Has(bookingdomain.ResyncReference) {
		line.Reference = material.Reference
	}
	if fields.Has(bookingdomain.ResyncUnitPrice) {
		line.UnitPrice = material.RentalPrice
	}
	if fields.Has(bookingdomain.ResyncDegressiveRate) {
		if err := s.applyDegressiveRate(ctx, line, material, event.DurationDays()); err != nil {
			return nil, err
		}
	}
	if fields.Has(bookingdomain.ResyncTaxes) {
		if err := s.applyTaxes(ctx, line, material); err != nil {
			return nil, err
		}
	}
	if fields.Has(bookingdomain.ResyncReplacementPrice) {
		line.UnitReplacementPrice = material.ReplacementPrice
	}
	if fields.Has(bookingdomain.ResyncIsDiscountable) {
		line.IsDiscountable = material.IsDiscountable
	}
	if fields.Has(bookingdomain.ResyncIsHiddenOnBill) {
		line.IsHiddenOnBill = material.IsHiddenOnBill
	}

	line.Recompute(event.DiscountRate)
	line.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateLine(ctx, s.db, line); err != nil {
		return nil, err
	}

	s.metrics.RecordLineResync(ctx, len(fields))
	s.log.Info("event material resynced",
		zap.String("event_id", event.ID.String()),
		zap.String("line_id", line.ID.String()),
		zap.Strings("fields", fields.Names()),
	)
	resp := toLineResponse(line)
	return &resp, nil
}

func (s *Service) Totals(ctx context.Context, eventID string) (*bookingdomain.TotalsResponse, error) {
	event, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.ListLines(ctx, s.db, event.ID)
	if err != nil {
		return nil, err
	}

	summary := bookingdomain.Summarize(lines)
	categories := make([]bookingdomain.CategoryTotalResponse, 0, len(summary.Categories))
	for _, c := range summary.Categories {
		categories = append(categories, bookingdomain.CategoryTotalResponse{
			CategoryID:        idString(c.CategoryID),
			Quantity:          c.Quantity,
			TotalWithoutTaxes: money.Amount(c.TotalWithoutTaxes),
		})
	}

	return &bookingdomain.TotalsResponse{
		EventID:               event.ID.String(),
		Currency:              s.rentalCfg.Get().Currency,
		DurationDays:          event.DurationDays(),
		Categories:            categories,
		DailyTotal:            money.Amount(summary.DailyTotal),
		DegressiveRate:        money.Amount(summary.EffectiveDegressiveRate()),
		DiscountRate:          money.Discount(event.DiscountRate),
		TotalWithoutDiscount:  money.Amount(summary.TotalWithoutDiscount),
		TotalDiscount:         money.Amount(summary.TotalDiscount),
		TotalWithoutTaxes:     money.Amount(summary.TotalWithoutTaxes),
		Taxes:                 taxdomain.ToTaxLineResponses(summary.Taxes),
		TotalTaxes:            money.Amount(summary.TotalTaxes),
		TotalWithTaxes:        money.Amount(summary.TotalWithTaxes),
		TotalReplacementPrice: money.Amount(summary.TotalReplacementPrice),
	}, nil
}

// applyDegressiveRate freezes the multiplier of the material's rate, or of the
// default rate, for the event duration. Without any rate the multiplier is the
// number of days.
func (s *Service) applyDegressiveRate(ctx context.Context, line *bookingdomain.EventMaterial, material *materialdomain.Material, days int) error {
	line.DegressiveRateID = nil
	line.DegressiveRate = decimal.NewFromInt(int64(days))

	rateID := snowflake.ID(0)
	if material.DegressiveRateID != nil {
		rateID = *material.DegressiveRateID
	} else {
		defaultID, err := s.settingSvc.DefaultDegressiveRateID(ctx)
		if err != nil {
			return err
		}
		rateID = defaultID
	}
	if rateID == 0 {
		return nil
	}

	rate, err := s.degressiveRateRepo.FindByID(ctx, s.db, rateID)
	if err != nil {
		return err
	}
	if rate == nil {
		s.log.Warn("degressive rate not found, using duration",
			zap.String("degressive_rate_id", rateID.String()),
		)
		return nil
	}

	multiplier, err := rate.ComputeForDays(days)
	if err != nil {
		return err
	}
	line.DegressiveRateID = &rate.ID
	line.DegressiveRate = multiplier
	return nil
}

func (s *Service) applyTaxes(ctx context.Context, line *bookingdomain.EventMaterial, material *materialdomain.Material) error {
	line.Taxes = []taxdomain.FlatTax{}

	taxID := snowflake.ID(0)
	if material.TaxID != nil {
		taxID = *material.TaxID
	} else {
		defaultID, err := s.settingSvc.DefaultTaxID(ctx)
		if err != nil {
			return err
		}
		taxID = defaultID
	}
	if taxID == 0 {
		return nil
	}

	tax, err := s.taxRepo.FindByID(ctx, s.db, taxID)
	if err != nil {
		return err
	}
	if tax == nil {
		s.log.Warn("tax not found, line left untaxed", zap.String("tax_id", taxID.String()))
		return nil
	}
	line.Taxes = taxdomain.AsFlatArray(*tax)
	return nil
}

func (s *Service) findEvent(ctx context.Context, id string) (*bookingdomain.Event, error) {
	eventID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, bookingdomain.ErrInvalidID
	}
	event, err := s.repo.FindEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, bookingdomain.ErrNotFound
	}
	return event, nil
}

func (s *Service) findEditableEvent(ctx context.Context, id string) (*bookingdomain.Event, error) {
	event, err := s.findEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.IsEditable(s.clock.Now()) {
		return nil, bookingdomain.ErrNotEditable
	}
	return event, nil
}

func (s *Service) findLine(ctx context.Context, eventID snowflake.ID, id string) (*bookingdomain.EventMaterial, error) {
	lineID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, bookingdomain.ErrInvalidID
	}
	line, err := s.repo.FindLine(ctx, s.db, eventID, lineID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, bookingdomain.ErrLineNotFound
	}
	return line, nil
}

func parseDiscountRate(errs *validation.Errors, raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	value, err := money.Parse(raw)
	if err != nil {
		errs.Add("discount_rate", validation.CodeInvalid, "discount_rate must be a decimal number")
		return decimal.Zero
	}
	if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
		errs.Add("discount_rate", validation.CodeOutOfRange, "discount_rate must be between 0 and 100")
	}
	if money.Places(value) > money.DiscountScale {
		errs.Add("discount_rate", validation.CodeInvalid, "discount_rate accepts at most 4 decimals")
	}
	return value
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func idString(id *snowflake.ID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func (s *Service) toResponse(e *bookingdomain.Event, lines []bookingdomain.EventMaterial) bookingdomain.Response {
	resp := bookingdomain.Response{
		ID:                       e.ID.String(),
		Title:                    e.Title,
		Reference:                e.Reference,
		StartDate:                e.StartDate,
		EndDate:                  e.EndDate,
		DurationDays:             e.DurationDays(),
		IsBillable:               e.IsBillable,
		IsArchived:               e.IsArchived,
		IsDepartureInventoryDone: e.IsDepartureInventoryDone,
		IsReturnInventoryDone:    e.IsReturnInventoryDone,
		IsEditable:               e.IsEditable(s.clock.Now()),
		DiscountRate:             money.Discount(e.DiscountRate),
		CreatedAt:                e.CreatedAt,
		UpdatedAt:                e.UpdatedAt,
	}
	if lines != nil {
		resp.Materials = make([]bookingdomain.LineResponse, 0, len(lines))
		for i := range lines {
			resp.Materials = append(resp.Materials, toLineResponse(&lines[i]))
		}
	}
	return resp
}

func toLineResponse(l *bookingdomain.EventMaterial) bookingdomain.LineResponse {
	taxLines, _ := taxdomain.Apply(l.Taxes, l.TotalWithoutTaxes)
	return bookingdomain.LineResponse{
		ID:                    l.ID.String(),
		EventID:               l.EventID.String(),
		MaterialID:            idString(l.MaterialID),
		Name:                  l.Name,
		Reference:             l.Reference,
		CategoryID:            idString(l.CategoryID),
		Quantity:              l.Quantity,
		UnitPrice:             money.Amount(l.UnitPrice),
		DegressiveRateID:      idString(l.DegressiveRateID),
		DegressiveRate:        money.Amount(l.DegressiveRate),
		UnitPricePeriod:       money.Amount(l.UnitPricePeriod),
		TotalWithoutDiscount:  money.Amount(l.TotalWithoutDiscount),
		IsDiscountable:        l.IsDiscountable,
		DiscountRate:          money.Discount(l.DiscountRate),
		TotalDiscount:         money.Amount(l.TotalDiscount),
		TotalWithoutTaxes:     money.Amount(l.TotalWithoutTaxes),
		Taxes:                 taxdomain.ToTaxLineResponses(taxLines),
		TotalTaxes:            money.Amount(l.TotalTaxes),
		TotalWithTaxes:        money.Amount(l.TotalWithTaxes),
		UnitReplacementPrice:  money.Amount(l.UnitReplacementPrice),
		TotalReplacementPrice: money.Amount(l.TotalReplacementPrice),
		IsHiddenOnBill:        l.IsHiddenOnBill,
	}
}
