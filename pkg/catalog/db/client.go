package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/datacube-forge/stacdex/pkg/catalog"
	"github.com/datacube-forge/stacdex/pkg/dataset"
)

// Client implements catalog.Client over a GORM database.
type Client struct {
	db     *gorm.DB
	logger hclog.Logger
}

// NewClient wraps an open database connection.
func NewClient(gdb *gorm.DB, logger hclog.Logger) *Client {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{db: gdb, logger: logger.Named("catalog")}
}

// Products returns the names of registered products in name order.
func (c *Client) Products(ctx context.Context) ([]string, error) {
	var names []string
	err := c.db.WithContext(ctx).
		Model(&ProductModel{}).
		Order("name").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("%w: listing products: %v", catalog.ErrUnavailable, err)
	}
	return names, nil
}

// RegisterProduct creates or replaces a product definition.
func (c *Client) RegisterProduct(ctx context.Context, name, definition string) error {
	model := ProductModel{Name: name, Definition: definition}
	err := c.db.WithContext(ctx).Save(&model).Error
	if err != nil {
		return fmt.Errorf("%w: registering product %s: %v", catalog.ErrUnavailable, name, err)
	}
	return nil
}

// Lookup returns the active record for id, or nil when absent.
func (c *Client) Lookup(ctx context.Context, id uuid.UUID) (*catalog.Record, error) {
	var model RecordModel
	err := c.db.WithContext(ctx).
		Where("dataset_id = ? AND active", id.String()).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: looking up %s: %v", catalog.ErrUnavailable, id, err)
	}
	return recordFromModel(&model)
}

// Insert creates a new active record. A duplicate identifier, whether
// from a concurrent run or a pre-existing record, surfaces as
// ErrConflict.
func (c *Client) Insert(ctx context.Context, doc *dataset.Document) error {
	model, err := modelFromDocument(doc)
	if err != nil {
		return err
	}

	err = c.db.WithContext(ctx).Create(model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", catalog.ErrConflict, doc.ID)
	}
	if err != nil {
		return fmt.Errorf("%w: inserting %s: %v", catalog.ErrUnavailable, doc.ID, err)
	}

	c.logger.Debug("inserted dataset record", "id", doc.ID, "product", doc.Product)
	return nil
}

// Update overwrites the existing record inside a transaction, honoring
// the unsafe gate against the record as currently stored.
func (c *Client) Update(ctx context.Context, doc *dataset.Document, allowUnsafe bool) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model RecordModel
		if err := tx.Where("dataset_id = ?", doc.ID.String()).First(&model).Error; err != nil {
			return fmt.Errorf("loading record %s: %w", doc.ID, err)
		}

		existing, err := recordFromModel(&model)
		if err != nil {
			return err
		}
		if catalog.Classify(existing, doc) == catalog.ChangeUnsafe && !allowUnsafe {
			return fmt.Errorf("%w: %s", catalog.ErrUnsafeRejected, doc.ID)
		}

		updated, err := modelFromDocument(doc)
		if err != nil {
			return err
		}
		return tx.Model(&RecordModel{}).
			Where("dataset_id = ?", doc.ID.String()).
			Updates(map[string]any{
				"product":       updated.Product,
				"uri":           updated.URI,
				"fingerprint":   updated.Fingerprint,
				"document_json": updated.DocumentJSON,
				"active":        true,
			}).Error
	})
	if err != nil {
		if errors.Is(err, catalog.ErrUnsafeRejected) {
			return err
		}
		return fmt.Errorf("%w: updating %s: %v", catalog.ErrUnavailable, doc.ID, err)
	}

	c.logger.Debug("updated dataset record", "id", doc.ID, "product", doc.Product)
	return nil
}

// Archive marks a record inactive without deleting it.
func (c *Client) Archive(ctx context.Context, id uuid.UUID) error {
	err := c.db.WithContext(ctx).
		Model(&RecordModel{}).
		Where("dataset_id = ?", id.String()).
		Update("active", false).Error
	if err != nil {
		return fmt.Errorf("%w: archiving %s: %v", catalog.ErrUnavailable, id, err)
	}
	return nil
}

func modelFromDocument(doc *dataset.Document) (*RecordModel, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serializing document %s: %w", doc.ID, err)
	}
	return &RecordModel{
		DatasetID:    doc.ID.String(),
		Product:      doc.Product,
		URI:          doc.SourceURI,
		Fingerprint:  doc.Fingerprint(),
		DocumentJSON: string(body),
		Active:       true,
	}, nil
}

func recordFromModel(model *RecordModel) (*catalog.Record, error) {
	id, err := uuid.Parse(model.DatasetID)
	if err != nil {
		return nil, fmt.Errorf("record has invalid dataset id %q: %w", model.DatasetID, err)
	}

	var doc dataset.Document
	if model.DocumentJSON != "" {
		if err := json.Unmarshal([]byte(model.DocumentJSON), &doc); err != nil {
			return nil, fmt.Errorf("decoding stored document %s: %w", model.DatasetID, err)
		}
	}

	return &catalog.Record{
		ID:          id,
		Product:     model.Product,
		URI:         model.URI,
		Fingerprint: model.Fingerprint,
		Document:    &doc,
		Active:      model.Active,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}, nil
}
