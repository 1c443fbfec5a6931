package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/webpack-chart/pkg/errors"
)

// Catalog stores summaries of built reports.
type Catalog interface {
	// Save inserts rec and fills in its ID and CreatedAt.
	Save(ctx context.Context, rec *ReportRecord) error

	// Get returns the record with id, or a NOT_FOUND error.
	Get(ctx context.Context, id int64) (*ReportRecord, error)

	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]*ReportRecord, error)

	// Delete removes the record with id. Deleting a missing record is not an error.
	Delete(ctx context.Context, id int64) error
}

// GormCatalog implements Catalog using GORM.
type GormCatalog struct {
	db *gorm.DB
}

// NewGormCatalog creates a new GormCatalog.
func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

// Migrate creates or updates the report_records table.
func (c *GormCatalog) Migrate(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(&ReportRecord{}); err != nil {
		return dbError("failed to migrate catalog", err)
	}
	return nil
}

// Save inserts a record.
func (c *GormCatalog) Save(ctx context.Context, rec *ReportRecord) error {
	if rec == nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "nil report record", nil)
	}
	if err := c.db.WithContext(ctx).Create(rec).Error; err != nil {
		return dbError("failed to save report record", err)
	}
	return nil
}

// Get retrieves a record by its ID.
func (c *GormCatalog) Get(ctx context.Context, id int64) (*ReportRecord, error) {
	var rec ReportRecord
	err := c.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("report record %d not found", id), err)
		}
		return nil, dbError("failed to get report record", err)
	}
	return &rec, nil
}

// List returns the newest records first.
func (c *GormCatalog) List(ctx context.Context, limit int) ([]*ReportRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var recs []*ReportRecord
	err := c.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, dbError("failed to list report records", err)
	}
	return recs, nil
}

// Delete deletes a record by its ID.
func (c *GormCatalog) Delete(ctx context.Context, id int64) error {
	if err := c.db.WithContext(ctx).Where("id = ?", id).Delete(&ReportRecord{}).Error; err != nil {
		return dbError("failed to delete report record", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (c *GormCatalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dbError(msg string, err error) error {
	return apperrors.Wrap(apperrors.CodeDatabaseError, msg, err)
}
