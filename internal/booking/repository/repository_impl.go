package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/smallbiznis/rentalops/internal/booking/domain"
	"github.com/smallbiznis/rentalops/pkg/db/option"
	"gorm.io/gorm"
)

const eventColumns = `id, title, reference, start_date, end_date, is_billable, is_archived,
	is_departure_inventory_done, is_return_inventory_done, discount_rate, created_at, updated_at`

type repository struct{}

func NewRepository() bookingdomain.Repository {
	return &repository{}
}

func (r *repository) CreateEvent(ctx context.Context, db *gorm.DB, e *bookingdomain.Event) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO events (`+eventColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Title,
		e.Reference,
		e.StartDate,
		e.EndDate,
		e.IsBillable,
		e.IsArchived,
		e.IsDepartureInventoryDone,
		e.IsReturnInventoryDone,
		e.DiscountRate,
		e.CreatedAt,
		e.UpdatedAt,
	).Error
}

func (r *repository) UpdateEvent(ctx context.Context, db *gorm.DB, e *bookingdomain.Event) error {
	return db.WithContext(ctx).Exec(
		`UPDATE events
		 SET title = ?, reference = ?, is_billable = ?, is_archived = ?,
		     is_departure_inventory_done = ?, is_return_inventory_done = ?, updated_at = ?
		 WHERE id = ?`,
		e.Title,
		e.Reference,
		e.IsBillable,
		e.IsArchived,
		e.IsDepartureInventoryDone,
		e.IsReturnInventoryDone,
		e.UpdatedAt,
		e.ID,
	).Error
}

func (r *repository) FindEvent(ctx context.Context, db *gorm.DB, id snowflake.ID) (*bookingdomain.Event, error) {
	var e bookingdomain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT `+eventColumns+` FROM events WHERE id = ?`,
		id,
	).Scan(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *repository) ListEvents(ctx context.Context, db *gorm.DB, filter bookingdomain.ListFilter) ([]bookingdomain.Event, error) {
	var items []bookingdomain.Event
	stmt := db.WithContext(ctx).Model(&bookingdomain.Event{})
	if !filter.IncludeArchived {
		stmt = stmt.Where("is_archived = ?", false)
	}
	if filter.From != nil {
		stmt = option.ApplyOperator(option.Condition{Field: "end_date", Operator: option.GTE, Value: *filter.From}).Apply(stmt)
	}
	if filter.To != nil {
		stmt = option.ApplyOperator(option.Condition{Field: "start_date", Operator: option.LTE, Value: *filter.To}).Apply(stmt)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"start_date": true,
		"end_date":   true,
		"title":      true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) CreateLine(ctx context.Context, db *gorm.DB, line *bookingdomain.EventMaterial) error {
	return db.WithContext(ctx).Create(line).Error
}

func (r *repository) UpdateLine(ctx context.Context, db *gorm.DB, line *bookingdomain.EventMaterial) error {
	return db.WithContext(ctx).
		Model(line).
		Select("*").
		Omit("id", "event_id", "created_at").
		Updates(line).Error
}

func (r *repository) DeleteEvent(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM event_materials WHERE event_id = ?`, id).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM events WHERE id = ?`, id).Error
}

func (r *repository) DetachMaterial(ctx context.Context, db *gorm.DB, materialID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(`UPDATE event_materials SET material_id = NULL WHERE material_id = ?`, materialID)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteLine(ctx context.Context, db *gorm.DB, eventID, lineID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM event_materials WHERE event_id = ? AND id = ?`,
		eventID,
		lineID,
	).Error
}

func (r *repository) FindLine(ctx context.Context, db *gorm.DB, eventID, lineID snowflake.ID) (*bookingdomain.EventMaterial, error) {
	var line bookingdomain.EventMaterial
	err := db.WithContext(ctx).
		Where("event_id = ? AND id = ?", eventID, lineID).
		Limit(1).
		Find(&line).Error
	if err != nil {
		return nil, err
	}
	if line.ID == 0 {
		return nil, nil
	}
	return &line, nil
}

func (r *repository) FindLineByMaterial(ctx context.Context, db *gorm.DB, eventID, materialID snowflake.ID) (*bookingdomain.EventMaterial, error) {
	var line bookingdomain.EventMaterial
	err := db.WithContext(ctx).
		Where("event_id = ? AND material_id = ?", eventID, materialID).
		Limit(1).
		Find(&line).Error
	if err != nil {
		return nil, err
	}
	if line.ID == 0 {
		return nil, nil
	}
	return &line, nil
}

func (r *repository) ListLines(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]bookingdomain.EventMaterial, error) {
	var lines []bookingdomain.EventMaterial
	err := db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("reference ASC").
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}
