package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "exitprotocol/internal/errors"
	"exitprotocol/internal/models"
	"exitprotocol/internal/pagination"
	"exitprotocol/internal/tracer"
)

// DefaultChartWindow is the number of most recent points a chart carries.
const DefaultChartWindow = 365

// snapshotBatchSize keeps each upsert statement under sqlite's bound-variable limit.
const snapshotBatchSize = 100

// snapshotService persists and reads daily balance compositions.
type snapshotService struct {
	db *gorm.DB
}

// NewSnapshotService creates a new SnapshotServicer.
func NewSnapshotService(db *gorm.DB) SnapshotServicer {
	return &snapshotService{db: db}
}

// Record upserts one row per composition keyed by (account, date). It runs on
// tx so that the caller decides the transaction boundary; rows outside days
// are left untouched.
func (s *snapshotService) Record(tx *gorm.DB, accountID string, days []tracer.Composition) (int, error) {
	if len(days) == 0 {
		return 0, nil
	}

	now := time.Now()
	rows := make([]models.BalanceSnapshot, 0, len(days))
	for _, d := range days {
		rows = append(rows, models.BalanceSnapshot{
			AccountID:       accountID,
			SnapshotDate:    models.NormalizeDate(d.Date),
			TotalBalance:    d.Total,
			SeparateBalance: d.Separate,
			MaritalBalance:  d.Marital,
			IsDipPoint:      d.IsDip,
			CalculatedAt:    now,
		})
	}

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_balance", "separate_balance", "marital_balance", "is_dip_point", "calculated_at",
		}),
	}).CreateInBatches(&rows, snapshotBatchSize).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return len(rows), nil
}

// GetChartSeries returns the most recent window snapshots in date order,
// split into parallel arrays.
func (s *snapshotService) GetChartSeries(accountID string, window int) (*ChartSeries, error) {
	if err := s.requireAccount(accountID); err != nil {
		return nil, err
	}
	if window <= 0 {
		window = DefaultChartWindow
	}

	var snapshots []models.BalanceSnapshot
	if err := s.db.Where("account_id = ?", accountID).
		Order("snapshot_date DESC").
		Limit(window).
		Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	series := &ChartSeries{
		AccountID: accountID,
		Dates:     make([]string, 0, len(snapshots)),
		Total:     make([]decimal.Decimal, 0, len(snapshots)),
		Separate:  make([]decimal.Decimal, 0, len(snapshots)),
		Marital:   make([]decimal.Decimal, 0, len(snapshots)),
		DipPoints: []ChartPoint{},
	}
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		date := snap.SnapshotDate.Format(tracer.DateLayout)
		series.Dates = append(series.Dates, date)
		series.Total = append(series.Total, snap.TotalBalance)
		series.Separate = append(series.Separate, snap.SeparateBalance)
		series.Marital = append(series.Marital, snap.MaritalBalance)
		if snap.IsDipPoint {
			series.DipPoints = append(series.DipPoints, ChartPoint{Date: date, Total: snap.TotalBalance})
		}
	}
	return series, nil
}

// GetSnapshots returns paginated snapshots for an account, oldest first,
// optionally bounded by from/to (inclusive).
func (s *snapshotService) GetSnapshots(
	accountID string,
	from, to *time.Time,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.BalanceSnapshot], error) {
	if err := s.requireAccount(accountID); err != nil {
		return nil, err
	}
	page = page.Normalize(pagination.MaxSnapshotPageSize)

	base := s.db.Model(&models.BalanceSnapshot{}).Where("account_id = ?", accountID)
	if from != nil {
		base = base.Where("snapshot_date >= ?", models.NormalizeDate(*from))
	}
	if to != nil {
		base = base.Where("snapshot_date <= ?", models.NormalizeDate(*to))
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.BalanceSnapshot
	if err := base.Order("snapshot_date ASC").Scopes(pagination.Paginate(page)).Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return pagination.NewPageResponse(snapshots, page, totalItems), nil
}

func (s *snapshotService) requireAccount(accountID string) error {
	var count int64
	if err := s.db.Model(&models.Account{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}
