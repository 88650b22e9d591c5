package db

import (
	"time"
)

// ProductModel is one registered product schema.
type ProductModel struct {
	// Name is the unique product name (e.g. "wapor_soil_moisture").
	Name string `gorm:"primaryKey"`

	// Definition stores the product definition document verbatim.
	Definition string `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default pluralization.
func (ProductModel) TableName() string { return "products" }

// RecordModel is one stored dataset record.
type RecordModel struct {
	// DatasetID is the stable dataset identifier (canonical UUID
	// string). At most one active record exists per identifier.
	DatasetID string `gorm:"primaryKey;size:36"`

	// Product is the owning product name.
	Product string `gorm:"index;not null"`

	// URI is the location the source document was last read from.
	URI string `gorm:"not null"`

	// Fingerprint is the content hash used for change detection.
	Fingerprint string `gorm:"not null"`

	// DocumentJSON is the canonical document serialized as JSON.
	DocumentJSON string `gorm:"type:jsonb"`

	// Active is false for archived records.
	Active bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default pluralization.
func (RecordModel) TableName() string { return "dataset_records" }
