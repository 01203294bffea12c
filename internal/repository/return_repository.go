package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

// ReturnRepository persists return cases and their child records.
type ReturnRepository struct {
	db *sqlx.DB
}

// NewReturnRepository constructs the repository.
func NewReturnRepository(db *sqlx.DB) *ReturnRepository {
	return &ReturnRepository{db: db}
}

// Create inserts a new return case in the reported state.
func (r *ReturnRepository) Create(ctx context.Context, ret *models.ReturnCase) error {
	if ret.ID == "" {
		ret.ID = uuid.NewString()
	}
	if ret.Status == "" {
		ret.Status = models.ReturnStatusReported
	}
	now := time.Now().UTC()
	if ret.CreatedAt.IsZero() {
		ret.CreatedAt = now
	}
	ret.UpdatedAt = now
	const query = `INSERT INTO return_cases
	(id, shop_id, status, category, picked_at, approved_by, resolution, created_at, updated_at)
	VALUES (:id, :shop_id, :status, :category, :picked_at, :approved_by, :resolution, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ret); err != nil {
		return fmt.Errorf("create return case: %w", err)
	}
	return nil
}

// GetByID fetches a return case by identifier.
func (r *ReturnRepository) GetByID(ctx context.Context, id string) (*models.ReturnCase, error) {
	const query = `SELECT id, shop_id, status, category, picked_at, approved_by, resolution, created_at, updated_at
	FROM return_cases WHERE id = $1`
	var ret models.ReturnCase
	if err := r.db.GetContext(ctx, &ret, query, id); err != nil {
		return nil, err
	}
	return &ret, nil
}

// List returns cases matching the filter (newest first).
func (r *ReturnRepository) List(ctx context.Context, filter models.ReturnFilter) ([]models.ReturnCase, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT id, shop_id, status, category, picked_at, approved_by, resolution, created_at, updated_at
	FROM return_cases`)

	conditions := make([]string, 0, 3)
	if filter.ShopID != "" {
		args = append(args, filter.ShopID)
		conditions = append(conditions, fmt.Sprintf("shop_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize))

	var cases []models.ReturnCase
	if err := r.db.SelectContext(ctx, &cases, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list return cases: %w", err)
	}
	return cases, nil
}

// UpdateStatusParams groups the columns a transition may touch.
type UpdateStatusParams struct {
	ID         string
	Expected   models.ReturnStatus
	Target     models.ReturnStatus
	PickedAt   *time.Time
	ApprovedBy *string
	Resolution *string
}

// UpdateStatusCAS applies a transition guarded by the expected current
// status. A zero-row update means the case moved concurrently; callers treat
// sql.ErrNoRows as a stale-state conflict.
func (r *ReturnRepository) UpdateStatusCAS(ctx context.Context, params UpdateStatusParams) error {
	setParts := []string{
		"status = :status",
		"updated_at = :updated_at",
	}
	if params.PickedAt != nil {
		setParts = append(setParts, "picked_at = :picked_at")
	}
	if params.ApprovedBy != nil {
		setParts = append(setParts, "approved_by = :approved_by")
	}
	if params.Resolution != nil {
		setParts = append(setParts, "resolution = :resolution")
	}
	query := fmt.Sprintf("UPDATE return_cases SET %s WHERE id = :id AND status = :expected",
		strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          params.ID,
		"expected":    params.Expected,
		"status":      params.Target,
		"updated_at":  time.Now().UTC(),
		"picked_at":   params.PickedAt,
		"approved_by": params.ApprovedBy,
		"resolution":  params.Resolution,
	})
	if err != nil {
		return fmt.Errorf("update return status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check return update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateEvidence appends evidence rows. Evidence is immutable once written.
func (r *ReturnRepository) CreateEvidence(ctx context.Context, evidence []models.ReturnEvidence) error {
	const query = `INSERT INTO return_evidence
	(id, return_case_id, type, uri, content_hash, taken_by, taken_at, geo)
	VALUES (:id, :return_case_id, :type, :uri, :content_hash, :taken_by, :taken_at, :geo)`
	for i := range evidence {
		if evidence[i].ID == "" {
			evidence[i].ID = uuid.NewString()
		}
		if evidence[i].TakenAt.IsZero() {
			evidence[i].TakenAt = time.Now().UTC()
		}
		if _, err := r.db.NamedExecContext(ctx, query, evidence[i]); err != nil {
			return fmt.Errorf("create return evidence: %w", err)
		}
	}
	return nil
}

// ListEvidence returns all evidence for a case, oldest first.
func (r *ReturnRepository) ListEvidence(ctx context.Context, returnCaseID string) ([]models.ReturnEvidence, error) {
	const query = `SELECT id, return_case_id, type, uri, content_hash, taken_by, taken_at, geo
	FROM return_evidence WHERE return_case_id = $1 ORDER BY taken_at ASC`
	var evidence []models.ReturnEvidence
	if err := r.db.SelectContext(ctx, &evidence, query, returnCaseID); err != nil {
		return nil, fmt.Errorf("list return evidence: %w", err)
	}
	return evidence, nil
}

// CreatePickup records the scheduled pickup for a case.
func (r *ReturnRepository) CreatePickup(ctx context.Context, pickup *models.ReturnPickup) error {
	if pickup.ID == "" {
		pickup.ID = uuid.NewString()
	}
	if pickup.CreatedAt.IsZero() {
		pickup.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO return_pickups
	(id, return_case_id, scheduled_at, carrier, tracking, assigned_to, notes, created_at)
	VALUES (:id, :return_case_id, :scheduled_at, :carrier, :tracking, :assigned_to, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pickup); err != nil {
		return fmt.Errorf("create return pickup: %w", err)
	}
	return nil
}

// GetPickup fetches the pickup for a case, if one was scheduled.
func (r *ReturnRepository) GetPickup(ctx context.Context, returnCaseID string) (*models.ReturnPickup, error) {
	const query = `SELECT id, return_case_id, scheduled_at, carrier, tracking, assigned_to, notes, created_at
	FROM return_pickups WHERE return_case_id = $1`
	var pickup models.ReturnPickup
	if err := r.db.GetContext(ctx, &pickup, query, returnCaseID); err != nil {
		return nil, err
	}
	return &pickup, nil
}

// CreateAdjustment records the financial outcome of a resolution.
func (r *ReturnRepository) CreateAdjustment(ctx context.Context, adjustment *models.ReturnAdjustment) error {
	if adjustment.ID == "" {
		adjustment.ID = uuid.NewString()
	}
	if adjustment.CreatedAt.IsZero() {
		adjustment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO return_adjustments
	(id, return_case_id, order_item_id, amount, commission_impact, notes, created_at)
	VALUES (:id, :return_case_id, :order_item_id, :amount, :commission_impact, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, adjustment); err != nil {
		return fmt.Errorf("create return adjustment: %w", err)
	}
	return nil
}

// ListAdjustments returns adjustments for a case.
func (r *ReturnRepository) ListAdjustments(ctx context.Context, returnCaseID string) ([]models.ReturnAdjustment, error) {
	const query = `SELECT id, return_case_id, order_item_id, amount, commission_impact, notes, created_at
	FROM return_adjustments WHERE return_case_id = $1 ORDER BY created_at ASC`
	var adjustments []models.ReturnAdjustment
	if err := r.db.SelectContext(ctx, &adjustments, query, returnCaseID); err != nil {
		return nil, fmt.Errorf("list return adjustments: %w", err)
	}
	return adjustments, nil
}
