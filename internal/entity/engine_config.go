package entity

import "time"

// EngineConfig is a key/value override row. Every risk limit has a key here;
// the reload loop folds these over the file defaults.
type EngineConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (EngineConfig) TableName() string {
	return "engine_configs"
}
