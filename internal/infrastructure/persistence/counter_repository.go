package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opsdesk/backend/internal/domain/numbering"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/infrastructure/persistence/models"
)

// allocateRetries bounds how often Allocate retries after losing a race on
// lazy counter creation or a version conflict.
const allocateRetries = 3

// GormCounterRepository implements numbering.CounterRepository using GORM
type GormCounterRepository struct {
	db *gorm.DB
}

// NewGormCounterRepository creates a new GormCounterRepository
func NewGormCounterRepository(db *gorm.DB) *GormCounterRepository {
	return &GormCounterRepository{db: db}
}

// FindForTenant loads the counter config for a document kind.
func (r *GormCounterRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind) (*numbering.DocumentCounter, error) {
	var model models.DocumentCounterModel
	if err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND kind = ?", tenantID, kind.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts or updates a counter config.
func (r *GormCounterRepository) Save(ctx context.Context, counter *numbering.DocumentCounter) error {
	model := models.DocumentCounterModelFromDomain(counter)
	return dbFromContext(ctx, r.db).Save(model).Error
}

// Allocate atomically increments the counter for a kind and returns the
// freshly rendered number. The counter row is locked for the duration of
// the transaction, so concurrent allocations serialize and never observe
// the same value. A missing row is created on the fly; losing that insert
// race surfaces as a unique violation and is retried.
func (r *GormCounterRepository) Allocate(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind) (string, error) {
	var lastErr error
	for attempt := 0; attempt < allocateRetries; attempt++ {
		number, err := r.allocateOnce(ctx, tenantID, kind)
		if err == nil {
			return number, nil
		}
		if !errors.Is(err, shared.ErrCounterConflict) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

func (r *GormCounterRepository) allocateOnce(ctx context.Context, tenantID uuid.UUID, kind numbering.DocumentKind) (string, error) {
	var number string
	err := dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var model models.DocumentCounterModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND kind = ?", tenantID, kind.String()).
			First(&model).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			counter, cerr := numbering.NewDefaultCounter(tenantID, kind)
			if cerr != nil {
				return cerr
			}
			number = counter.Next(time.Now())
			if ierr := tx.Create(models.DocumentCounterModelFromDomain(counter)).Error; ierr != nil {
				if isUniqueViolation(ierr) {
					return shared.ErrCounterConflict
				}
				return ierr
			}
			return nil
		}
		if err != nil {
			return err
		}

		counter := model.ToDomain()
		number = counter.Next(time.Now())

		result := tx.Model(&models.DocumentCounterModel{}).
			Where("id = ? AND current_counter = ?", model.ID, model.CurrentCounter).
			Updates(map[string]interface{}{
				"current_counter": counter.CurrentCounter,
				"updated_at":      counter.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrCounterConflict
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return number, nil
}
