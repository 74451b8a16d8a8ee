package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/rentalops/internal/billing/domain"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() billingdomain.Repository {
	return &repository{}
}

func (r *repository) NextSequence(ctx context.Context, db *gorm.DB, year int) (int64, error) {
	var next int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(number_sequence), 0) + 1
		 FROM documents
		 WHERE kind = ? AND number_year = ?`,
		billingdomain.KindInvoice,
		year,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, doc *billingdomain.Document) error {
	if err := db.WithContext(ctx).Create(doc).Error; err != nil {
		return err
	}
	if len(doc.Lines) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&doc.Lines).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*billingdomain.Document, error) {
	var doc billingdomain.Document
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&doc).Error
	if err != nil {
		return nil, err
	}
	if doc.ID == 0 {
		return nil, nil
	}

	err = db.WithContext(ctx).
		Where("document_id = ?", doc.ID).
		Order("position ASC").
		Find(&doc.Lines).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *repository) ListByEvent(ctx context.Context, db *gorm.DB, eventID snowflake.ID, kind billingdomain.Kind) ([]billingdomain.Document, error) {
	var docs []billingdomain.Document
	stmt := db.WithContext(ctx).Where("event_id = ?", eventID)
	if kind != "" {
		stmt = stmt.Where("kind = ?", kind)
	}
	if err := stmt.Order("date DESC").Order("id DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *repository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM document_materials WHERE document_id = ?`, id).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM documents WHERE id = ?`, id).Error
}
