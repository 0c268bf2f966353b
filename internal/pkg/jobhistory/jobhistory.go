// Package jobhistory persists one row per terminated job to a local
// GORM-backed store (sqlite by default, postgres in production), so an
// operator can inspect recent job outcomes across worker restarts.
package jobhistory

import (
	"context"
	"embed"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"zenpdf-worker/internal/models"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrations returns the embedded migration files for every dialect,
// under migrations/<dialect>; the caller picks the subdirectory before
// handing it to golang-migrate's iofs source driver.
func Migrations() embed.FS { return migrationsFS }

// Row is one terminal job outcome. Written once, on complete or fail,
// and never updated afterward.
type Row struct {
	ID             uint   `gorm:"primaryKey"`
	JobID          string `gorm:"index;not null"`
	Tool           string `gorm:"not null"`
	Status         string `gorm:"not null"`
	Method         string
	OriginalBytes  int64
	OutputBytes    int64
	SavingsBytes   int64
	SavingsPercent float64
	StartedAt      time.Time
	FinishedAt     time.Time
	Steps          string `gorm:"type:text"`
	Warnings       string `gorm:"type:text"`
	ErrorCode      string
	ErrorMessage   string
}

// TableName fixes the table name regardless of GORM's pluralization
// of "Row".
func (Row) TableName() string { return "job_history" }

// NewRow builds a Row from the pipeline telemetry gathered for one
// job, JSON-encoding steps and warnings for storage.
func NewRow(jobID string, tool models.Tool, status, method string, originalBytes, outputBytes int64, startedAt, finishedAt time.Time, steps []models.StepRecord, warnings []string, errCode, errMsg string) Row {
	stepsJSON, _ := json.Marshal(steps)
	warningsJSON, _ := json.Marshal(warnings)
	return Row{
		JobID:          jobID,
		Tool:           string(tool),
		Status:         status,
		Method:         method,
		OriginalBytes:  originalBytes,
		OutputBytes:    outputBytes,
		SavingsBytes:   originalBytes - outputBytes,
		SavingsPercent: savingsPercent(originalBytes, outputBytes),
		StartedAt:      startedAt,
		FinishedAt:     finishedAt,
		Steps:          string(stepsJSON),
		Warnings:       string(warningsJSON),
		ErrorCode:      errCode,
		ErrorMessage:   errMsg,
	}
}

// savingsPercent is rounded to two decimal places via decimal.Decimal,
// the same idiom the compression pipeline uses for its own report, so
// history rows and live pipeline reports never disagree on rounding.
func savingsPercent(originalBytes, outputBytes int64) float64 {
	if originalBytes <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(originalBytes - outputBytes).
		Div(decimal.NewFromInt(originalBytes)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	v, _ := pct.Float64()
	return v
}

// Repository persists and retrieves job history rows.
type Repository interface {
	Record(ctx context.Context, row Row) error
	Recent(ctx context.Context, limit int) ([]Row, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository builds a GORM-backed Repository. The caller is
// responsible for running migrations before first use.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Record(ctx context.Context, row Row) error {
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *gormRepository) Recent(ctx context.Context, limit int) ([]Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).Order("finished_at desc").Limit(limit).Find(&rows).Error
	return rows, err
}
