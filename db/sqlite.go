package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tripsheet/models"
)

type itineraryRow struct {
	ID           string `gorm:"primaryKey;size:36"`
	CustomerName string `gorm:"not null"`
	Details      datatypes.JSON
	Days         datatypes.JSON
	TotalCost    float64
	CreatedAt    time.Time `gorm:"index"`
}

func (itineraryRow) TableName() string { return "itineraries" }

func toRow(rec models.ItineraryRecord) (itineraryRow, error) {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return itineraryRow{}, errors.Wrap(err, "encode details")
	}
	if rec.Days == nil {
		rec.Days = []models.DayEntry{}
	}
	days, err := json.Marshal(rec.Days)
	if err != nil {
		return itineraryRow{}, errors.Wrap(err, "encode days")
	}
	return itineraryRow{
		ID:           rec.ID,
		CustomerName: rec.CustomerName,
		Details:      datatypes.JSON(details),
		Days:         datatypes.JSON(days),
		TotalCost:    rec.TotalCost,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

func (r itineraryRow) record() (models.ItineraryRecord, error) {
	rec := models.ItineraryRecord{
		ID:           r.ID,
		CustomerName: r.CustomerName,
		TotalCost:    r.TotalCost,
		CreatedAt:    r.CreatedAt,
		Days:         []models.DayEntry{},
	}
	if len(r.Details) > 0 {
		if err := json.Unmarshal(r.Details, &rec.Details); err != nil {
			return rec, errors.Wrap(err, "decode details")
		}
	}
	if len(r.Days) > 0 {
		if err := json.Unmarshal(r.Days, &rec.Days); err != nil {
			return rec, errors.Wrap(err, "decode days")
		}
	}
	return rec, nil
}

// SQLRepository stores itineraries in a SQLite table through gorm.
type SQLRepository struct {
	db *gorm.DB
}

// NewSQLRepository opens (or creates) the database at path and migrates the table.
// Use ":memory:" for a throwaway database.
func NewSQLRepository(path string) (*SQLRepository, error) {
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, storageErr("connect", err, "open sqlite "+path)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, storageErr("connect", err, "sqlite handle")
	}
	// one connection keeps ":memory:" databases shared and serialises writers
	sqlDB.SetMaxOpenConns(1)

	if err := conn.AutoMigrate(&itineraryRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, storageErr("connect", err, "migrate itineraries")
	}
	return &SQLRepository{db: conn}, nil
}

func (s *SQLRepository) Create(ctx context.Context, rec models.ItineraryRecord) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	rec.ID = id.String()
	rec.CreatedAt = time.Now().UTC()

	row, err := toRow(rec)
	if err != nil {
		return "", &StorageError{Op: "create", Err: err}
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", storageErr("create", err, "insert itinerary")
	}
	return row.ID, nil
}

func (s *SQLRepository) ListAll(ctx context.Context) ([]models.ItineraryRecord, error) {
	var rows []itineraryRow
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error
	if err != nil {
		return nil, storageErr("list", err, "select itineraries")
	}
	out := make([]models.ItineraryRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, &StorageError{Op: "list", Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *SQLRepository) GetByID(ctx context.Context, id string) (models.ItineraryRecord, error) {
	var row itineraryRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ItineraryRecord{}, ErrNotFound
	}
	if err != nil {
		return models.ItineraryRecord{}, storageErr("get", err, "select itinerary "+id)
	}
	rec, err := row.record()
	if err != nil {
		return models.ItineraryRecord{}, &StorageError{Op: "get", Err: err}
	}
	return rec, nil
}

func (s *SQLRepository) Update(ctx context.Context, id string, rec models.ItineraryRecord) error {
	row, err := toRow(rec)
	if err != nil {
		return &StorageError{Op: "update", Err: err}
	}
	res := s.db.WithContext(ctx).Model(&itineraryRow{}).Where("id = ?", id).Updates(map[string]any{
		"customer_name": row.CustomerName,
		"details":       row.Details,
		"days":          row.Days,
		"total_cost":    row.TotalCost,
	})
	if res.Error != nil {
		return storageErr("update", res.Error, "update itinerary "+id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLRepository) DeleteByID(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&itineraryRow{}, "id = ?", id)
	if res.Error != nil {
		return storageErr("delete", res.Error, "delete itinerary "+id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLRepository) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storageErr("close", err, "sqlite handle")
	}
	if err := sqlDB.Close(); err != nil {
		return storageErr("close", err, "close sqlite")
	}
	return nil
}
