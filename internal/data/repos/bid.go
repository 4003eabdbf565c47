package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

// AcceptedPriceSample pairs an accepted bid price with the process
// requirements of the RFQ it won. The pricing recommender filters samples to
// overlapping processes before computing percentiles.
type AcceptedPriceSample struct {
	Price     float64
	Currency  string
	Processes []string
	DecidedAt time.Time
}

type BidRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Bid, error)
	GetByPair(ctx context.Context, tx *gorm.DB, rfqID, supplierID uuid.UUID) (*domain.Bid, error)
	// Upsert inserts the bid or, when a row already exists for the
	// (RFQ, supplier) pair, overwrites its offer fields and resets status to
	// submitted. Rows whose status is accepted are never touched; callers
	// detect that case through the returned updated flag.
	Upsert(ctx context.Context, tx *gorm.DB, row *domain.Bid) (updated bool, err error)
	ListLiveByRFQ(ctx context.Context, tx *gorm.DB, rfqID uuid.UUID) ([]*domain.Bid, error)
	// RejectLiveSiblings flips every non-withdrawn bid on the RFQ other than
	// keep to rejected. Runs inside the award transaction.
	RejectLiveSiblings(ctx context.Context, tx *gorm.DB, rfqID, keep uuid.UUID) (int64, error)
	// ReviveRejectedSiblings flips rejected bids on the RFQ other than exclude
	// back to submitted, so a declined award can be re-run against the
	// original field. Runs inside the decline transaction.
	ReviveRejectedSiblings(ctx context.Context, tx *gorm.DB, rfqID, exclude uuid.UUID) (int64, error)
	// ListRecentBySupplier returns the supplier's most recent bids, newest
	// first, capped at limit. Feeds the win-rate and recency score factors.
	ListRecentBySupplier(ctx context.Context, tx *gorm.DB, supplierID uuid.UUID, limit int) ([]*domain.Bid, error)
	// ListAcceptedSamples returns recent accepted bids joined with their
	// RFQ's process requirements, newest first, capped at limit.
	ListAcceptedSamples(ctx context.Context, tx *gorm.DB, limit int) ([]AcceptedPriceSample, error)
}

type bidRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBidRepo(db *gorm.DB, baseLog *logger.Logger) BidRepo {
	return &bidRepo{db: db, log: baseLog.With("repo", "BidRepo")}
}

func (r *bidRepo) base(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *bidRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Bid, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out domain.Bid
	err := r.base(tx).WithContext(ctx).Where("id = ?", id).First(&out).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *bidRepo) GetByPair(ctx context.Context, tx *gorm.DB, rfqID, supplierID uuid.UUID) (*domain.Bid, error) {
	if rfqID == uuid.Nil || supplierID == uuid.Nil {
		return nil, nil
	}
	var out domain.Bid
	err := r.base(tx).WithContext(ctx).
		Where("rfq_id = ? AND supplier_id = ?", rfqID, supplierID).
		First(&out).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *bidRepo) Upsert(ctx context.Context, tx *gorm.DB, row *domain.Bid) (bool, error) {
	if row == nil {
		return false, nil
	}
	row.Status = domain.BidStatusSubmitted
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	res := r.base(tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "rfq_id"}, {Name: "supplier_id"}},
		Where:   clause.Where{Exprs: []clause.Expression{clause.Neq{Column: clause.Column{Table: "bid", Name: "status"}, Value: domain.BidStatusAccepted}}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"price_total":    row.PriceTotal,
			"currency":       row.Currency,
			"lead_time_days": row.LeadTimeDays,
			"notes":          row.Notes,
			"status":         domain.BidStatusSubmitted,
			"updated_at":     now,
		}),
	}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	// The conditional DO UPDATE skips accepted rows; affected=0 means the
	// existing row was accepted and must not be resubmitted.
	return res.RowsAffected > 0, nil
}

func (r *bidRepo) ListLiveByRFQ(ctx context.Context, tx *gorm.DB, rfqID uuid.UUID) ([]*domain.Bid, error) {
	var out []*domain.Bid
	if rfqID == uuid.Nil {
		return out, nil
	}
	if err := r.base(tx).WithContext(ctx).
		Where("rfq_id = ? AND status <> ?", rfqID, domain.BidStatusWithdrawn).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *bidRepo) RejectLiveSiblings(ctx context.Context, tx *gorm.DB, rfqID, keep uuid.UUID) (int64, error) {
	if rfqID == uuid.Nil {
		return 0, nil
	}
	res := r.base(tx).WithContext(ctx).Model(&domain.Bid{}).
		Where("rfq_id = ? AND id <> ? AND status NOT IN ?", rfqID, keep,
			[]string{domain.BidStatusWithdrawn, domain.BidStatusRejected}).
		Updates(map[string]interface{}{
			"status":     domain.BidStatusRejected,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *bidRepo) ReviveRejectedSiblings(ctx context.Context, tx *gorm.DB, rfqID, exclude uuid.UUID) (int64, error) {
	if rfqID == uuid.Nil {
		return 0, nil
	}
	res := r.base(tx).WithContext(ctx).Model(&domain.Bid{}).
		Where("rfq_id = ? AND id <> ? AND status = ?", rfqID, exclude, domain.BidStatusRejected).
		Updates(map[string]interface{}{
			"status":     domain.BidStatusSubmitted,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *bidRepo) ListRecentBySupplier(ctx context.Context, tx *gorm.DB, supplierID uuid.UUID, limit int) ([]*domain.Bid, error) {
	var out []*domain.Bid
	if supplierID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 200
	}
	if err := r.base(tx).WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *bidRepo) ListAcceptedSamples(ctx context.Context, tx *gorm.DB, limit int) ([]AcceptedPriceSample, error) {
	if limit <= 0 {
		limit = 200
	}
	var rows []struct {
		PriceTotal float64
		Currency   string
		UpdatedAt  time.Time
		RFQID      uuid.UUID `gorm:"column:rfq_id"`
	}
	if err := r.base(tx).WithContext(ctx).Model(&domain.Bid{}).
		Select("price_total", "currency", "updated_at", "rfq_id").
		Where("status = ?", domain.BidStatusAccepted).
		Order("updated_at DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []AcceptedPriceSample{}, nil
	}

	rfqIDs := make([]uuid.UUID, 0, len(rows))
	seen := map[uuid.UUID]bool{}
	for _, row := range rows {
		if !seen[row.RFQID] {
			seen[row.RFQID] = true
			rfqIDs = append(rfqIDs, row.RFQID)
		}
	}
	var rfqs []*domain.RFQ
	if err := r.base(tx).WithContext(ctx).
		Where("id IN ?", rfqIDs).
		Find(&rfqs).Error; err != nil {
		return nil, err
	}
	processesByRFQ := make(map[uuid.UUID][]string, len(rfqs))
	for _, rfq := range rfqs {
		processesByRFQ[rfq.ID] = rfq.Processes
	}

	out := make([]AcceptedPriceSample, 0, len(rows))
	for _, row := range rows {
		out = append(out, AcceptedPriceSample{
			Price:     row.PriceTotal,
			Currency:  row.Currency,
			Processes: processesByRFQ[row.RFQID],
			DecidedAt: row.UpdatedAt,
		})
	}
	return out, nil
}
