package repository

import (
	"context"

	"golang-paper-trader/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngineConfigRepository reads and writes the key/value override table that
// backs hot-reloadable limits and the signal cursor.
type EngineConfigRepository interface {
	GetAll(ctx context.Context) (map[string]string, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type engineConfigRepository struct {
	db *gorm.DB
}

// NewEngineConfigRepository creates a gorm-backed EngineConfigRepository.
func NewEngineConfigRepository(db *gorm.DB) EngineConfigRepository {
	return &engineConfigRepository{db: db}
}

func (r *engineConfigRepository) GetAll(ctx context.Context) (map[string]string, error) {
	var rows []entity.EngineConfig
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

func (r *engineConfigRepository) Get(ctx context.Context, key string) (string, error) {
	var row entity.EngineConfig
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&row).Error; err != nil {
		return "", err
	}
	return row.Value, nil
}

func (r *engineConfigRepository) Set(ctx context.Context, key, value string) error {
	row := entity.EngineConfig{Key: key, Value: value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}
