package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/rentalops/internal/billing/domain"
	"github.com/smallbiznis/rentalops/internal/billing/format"
	bookingdomain "github.com/smallbiznis/rentalops/internal/booking/domain"
	"github.com/smallbiznis/rentalops/internal/clock"
	"github.com/smallbiznis/rentalops/internal/config"
	"github.com/smallbiznis/rentalops/internal/money"
	"github.com/smallbiznis/rentalops/internal/observability/metrics"
	"github.com/smallbiznis/rentalops/internal/pricing"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
	"github.com/smallbiznis/rentalops/internal/validation"
	"github.com/smallbiznis/rentalops/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// numberAttempts bounds how often an invoice is retried after losing the race
// for its number.
const numberAttempts = 3

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	RentalCfg   *config.RentalConfigHolder
	Metrics     *metrics.Metrics `optional:"true"`
	Repo        billingdomain.Repository
	BookingRepo bookingdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	rentalCfg *config.RentalConfigHolder
	metrics   *metrics.Metrics

	repo        billingdomain.Repository
	bookingRepo bookingdomain.Repository
}

func NewService(p ServiceParam) billingdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("billing.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		rentalCfg:   p.RentalCfg,
		metrics:     p.Metrics,
		repo:        p.Repo,
		bookingRepo: p.BookingRepo,
	}
}

func (s *Service) CreateInvoice(ctx context.Context, req billingdomain.CreateRequest) (*billingdomain.Response, error) {
	tpl, err := format.Parse(s.rentalCfg.Get().InvoiceNumberTemplate)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= numberAttempts; attempt++ {
		doc, err := s.create(ctx, req, billingdomain.KindInvoice, &tpl)
		if err == nil {
			return s.toResponse(doc), nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		s.log.Warn("invoice number taken, retrying", zap.Int("attempt", attempt))
	}
	return nil, billingdomain.ErrNumberExhausted
}

func (s *Service) CreateEstimate(ctx context.Context, req billingdomain.CreateRequest) (*billingdomain.Response, error) {
	doc, err := s.create(ctx, req, billingdomain.KindEstimate, nil)
	if err != nil {
		return nil, err
	}
	return s.toResponse(doc), nil
}

func (s *Service) create(ctx context.Context, req billingdomain.CreateRequest, kind billingdomain.Kind, tpl *format.Template) (*billingdomain.Document, error) {
	eventID, err := snowflake.ParseString(strings.TrimSpace(req.EventID))
	if err != nil {
		return nil, billingdomain.ErrInvalidID
	}

	var doc *billingdomain.Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := s.bookingRepo.FindEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return billingdomain.ErrEventNotFound
		}
		if !event.IsBillable {
			return billingdomain.ErrNotBillable
		}

		lines, err := s.bookingRepo.ListLines(ctx, tx, event.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return validation.New("materials", validation.CodeRequired, "the event has no materials to bill")
		}

		doc = s.freeze(event, lines, kind, req.AuthorID)
		if tpl != nil {
			if err := s.assignNumber(ctx, tx, doc, *tpl); err != nil {
				return err
			}
		}
		return s.repo.Create(ctx, tx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDocumentCreated(ctx, string(kind))
	fields := []zap.Field{
		zap.String("document_id", doc.ID.String()),
		zap.String("event_id", doc.EventID.String()),
		zap.String("kind", string(kind)),
	}
	if doc.Number != nil {
		fields = append(fields, zap.String("number", *doc.Number))
	}
	s.log.Info("document created", fields...)
	return doc, nil
}

func (s *Service) assignNumber(ctx context.Context, tx *gorm.DB, doc *billingdomain.Document, tpl format.Template) error {
	year := doc.Date.Year()
	seq, err := s.repo.NextSequence(ctx, tx, year)
	if err != nil {
		return err
	}
	number, err := tpl.Format(doc.Date, seq)
	if err != nil {
		return err
	}
	doc.Number = &number
	doc.NumberYear = &year
	doc.NumberSequence = &seq
	return nil
}

// freeze copies the booking lines and their aggregate into a new document.
func (s *Service) freeze(event *bookingdomain.Event, lines []bookingdomain.EventMaterial, kind billingdomain.Kind, authorID *string) *billingdomain.Document {
	now := s.clock.Now()
	summary := bookingdomain.Summarize(lines)

	doc := &billingdomain.Document{
		ID:                   s.genID.Generate(),
		Kind:                 kind,
		Date:                 now,
		EventID:              event.ID,
		BookingTitle:         event.Title,
		BookingStart:         event.StartDate,
		BookingEnd:           event.EndDate,
		DegressiveRate:       summary.EffectiveDegressiveRate(),
		DiscountRate:         event.DiscountRate,
		DailyTotal:           summary.DailyTotal,
		TotalWithoutDiscount: summary.TotalWithoutDiscount,
		TotalDiscount:        summary.TotalDiscount,
		TotalWithoutTaxes:    summary.TotalWithoutTaxes,
		TotalTaxes:           summary.Taxes,
		TotalWithTaxes:       summary.TotalWithTaxes,
		TotalReplacement:     summary.TotalReplacementPrice,
		Currency:             s.rentalCfg.Get().Currency,
		AuthorID:             authorID,
		CreatedAt:            now,
	}
	if doc.TotalTaxes == nil {
		doc.TotalTaxes = []taxdomain.TaxLine{}
	}

	doc.Lines = make([]billingdomain.DocumentMaterial, 0, len(lines))
	for i, l := range lines {
		doc.Lines = append(doc.Lines, billingdomain.DocumentMaterial{
			ID:                    s.genID.Generate(),
			DocumentID:            doc.ID,
			MaterialID:            l.MaterialID,
			Name:                  l.Name,
			Reference:             l.Reference,
			CategoryID:            l.CategoryID,
			Position:              i,
			Quantity:              l.Quantity,
			UnitPrice:             l.UnitPrice,
			DegressiveRate:        l.DegressiveRate,
			UnitPricePeriod:       l.UnitPricePeriod,
			TotalWithoutDiscount:  l.TotalWithoutDiscount,
			IsDiscountable:        l.IsDiscountable,
			DiscountRate:          l.DiscountRate,
			TotalDiscount:         l.TotalDiscount,
			TotalWithoutTaxes:     l.TotalWithoutTaxes,
			Taxes:                 l.Taxes,
			TotalTaxes:            l.TotalTaxes,
			TotalWithTaxes:        l.TotalWithTaxes,
			UnitReplacementPrice:  l.UnitReplacementPrice,
			TotalReplacementPrice: l.TotalReplacementPrice,
			IsHiddenOnBill:        l.IsHiddenOnBill,
		})
	}
	return doc
}

func (s *Service) Get(ctx context.Context, id string) (*billingdomain.Response, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(doc), nil
}

func (s *Service) ListByEvent(ctx context.Context, req billingdomain.ListRequest) ([]billingdomain.Response, error) {
	eventID, err := snowflake.ParseString(strings.TrimSpace(req.EventID))
	if err != nil {
		return nil, billingdomain.ErrInvalidID
	}
	switch req.Kind {
	case "", billingdomain.KindInvoice, billingdomain.KindEstimate:
	default:
		return nil, validation.New("kind", validation.CodeInvalid, "kind must be invoice or estimate")
	}

	docs, err := s.repo.ListByEvent(ctx, s.db, eventID, req.Kind)
	if err != nil {
		return nil, err
	}
	resp := make([]billingdomain.Response, 0, len(docs))
	for i := range docs {
		resp = append(resp, *s.toResponse(&docs[i]))
	}
	return resp, nil
}

// DeleteEstimate removes an estimate. Invoices are never deleted.
func (s *Service) DeleteEstimate(ctx context.Context, id string) error {
	doc, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if doc.Kind != billingdomain.KindEstimate {
		return billingdomain.ErrNotEstimate
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, doc.ID)
	})
	if err != nil {
		return err
	}
	s.log.Info("estimate deleted", zap.String("document_id", doc.ID.String()))
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*billingdomain.Document, error) {
	docID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, billingdomain.ErrInvalidID
	}
	doc, err := s.repo.FindByID(ctx, s.db, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, billingdomain.ErrNotFound
	}
	return doc, nil
}

func (s *Service) toResponse(doc *billingdomain.Document) *billingdomain.Response {
	resp := &billingdomain.Response{
		ID:                   doc.ID.String(),
		Kind:                 doc.Kind,
		Number:               doc.Number,
		Date:                 doc.Date,
		EventID:              doc.EventID.String(),
		BookingTitle:         doc.BookingTitle,
		BookingStart:         doc.BookingStart,
		BookingEnd:           doc.BookingEnd,
		DegressiveRate:       money.Amount(doc.DegressiveRate),
		DiscountRate:         money.Discount(doc.DiscountRate),
		DailyTotal:           money.Amount(doc.DailyTotal),
		TotalWithoutDiscount: money.Amount(doc.TotalWithoutDiscount),
		TotalDiscount:        money.Amount(doc.TotalDiscount),
		TotalWithoutTaxes:    money.Amount(doc.TotalWithoutTaxes),
		Taxes:                taxdomain.ToTaxLineResponses(doc.TotalTaxes),
		TotalTaxes:           money.Amount(doc.TaxAmount()),
		TotalWithTaxes:       money.Amount(doc.TotalWithTaxes),
		TotalReplacement:     money.Amount(doc.TotalReplacement),
		Currency:             doc.Currency,
		AuthorID:             doc.AuthorID,
		CreatedAt:            doc.CreatedAt,
	}
	if len(doc.Lines) == 0 {
		return resp
	}

	summaryLines := make([]pricing.SummaryLine, 0, len(doc.Lines))
	resp.Materials = make([]billingdomain.LineResponse, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		taxLines, _ := taxdomain.Apply(l.Taxes, l.TotalWithoutTaxes)
		summaryLines = append(summaryLines, pricing.SummaryLine{
			CategoryID: l.CategoryID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			Totals:     pricing.LineTotals{TotalWithoutTaxes: l.TotalWithoutTaxes},
		})
		resp.Materials = append(resp.Materials, billingdomain.LineResponse{
			ID:                    l.ID.String(),
			MaterialID:            idString(l.MaterialID),
			Name:                  l.Name,
			Reference:             l.Reference,
			CategoryID:            idString(l.CategoryID),
			Quantity:              l.Quantity,
			UnitPrice:             money.Amount(l.UnitPrice),
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
		})
	}

	for _, c := range pricing.Summarize(summaryLines).Categories {
		resp.Categories = append(resp.Categories, billingdomain.CategoryResponse{
			CategoryID:        idString(c.CategoryID),
			Quantity:          c.Quantity,
			TotalWithoutTaxes: money.Amount(c.TotalWithoutTaxes),
		})
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
