package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartpothole/backend/internal/models"
)

// PostgresStore keeps complaints in a PostgreSQL table keyed by complaint_id.
// Updates lock the target row for the duration of the transaction, so
// concurrent staff edits are serialised per complaint.
//
// The *gorm.DB should be opened with TranslateError enabled so duplicate keys
// surface as gorm.ErrDuplicatedKey.
type PostgresStore struct {
	DB *gorm.DB
}

// NewPostgresStore wraps an open gorm connection.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// Migrate creates or updates the complaints table.
func (s *PostgresStore) Migrate() error {
	return s.DB.AutoMigrate(&models.Complaint{})
}

func (s *PostgresStore) Append(ctx context.Context, c *models.Complaint) error {
	err := s.DB.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, c.ComplaintID)
	}
	return err
}

func (s *PostgresStore) Scan(ctx context.Context) ([]models.Complaint, error) {
	var out []models.Complaint
	if err := s.DB.WithContext(ctx).
		Order("timestamp asc").
		Order("complaint_id asc").
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Complaint{}
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Complaint, error) {
	var c models.Complaint
	err := s.DB.WithContext(ctx).Where("complaint_id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrComplaintNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, fn MutateFunc) (*models.Complaint, error) {
	var result models.Complaint

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Complaint
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("complaint_id = ?", id).
			First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrComplaintNotFound
		}
		if err != nil {
			return err
		}

		changed, err := fn(&c)
		if err != nil {
			return err
		}
		if changed {
			if err := tx.Save(&c).Error; err != nil {
				return err
			}
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *PostgresStore) LatestID(ctx context.Context) (string, error) {
	var ids []string
	if err := s.DB.WithContext(ctx).
		Model(&models.Complaint{}).
		Pluck("complaint_id", &ids).Error; err != nil {
		return "", err
	}

	all := make([]models.Complaint, len(ids))
	for i, id := range ids {
		all[i].ComplaintID = id
	}
	return latestID(all), nil
}
