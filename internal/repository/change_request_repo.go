package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// ChangeRequestFilter narrows change request listings.
type ChangeRequestFilter struct {
	Status      string
	RequestedBy *uint
	GradeID     *uint
	Page        int
	PageSize    int
}

// ChangeRequestTransition describes a status change applied with compare-and-set semantics.
type ChangeRequestTransition struct {
	ID         uint
	From       string
	To         string
	ApproverID uint
	At         time.Time
	Note       string
}

// ChangeRequestRepository persists grade change requests.
type ChangeRequestRepository interface {
	Create(ctx context.Context, request *models.ChangeRequest) error
	GetByID(ctx context.Context, id uint) (models.ChangeRequest, error)
	List(ctx context.Context, filter ChangeRequestFilter) ([]models.ChangeRequest, int64, error)
	Transition(ctx context.Context, transition ChangeRequestTransition) (bool, error)
	RejectPendingForGrade(ctx context.Context, gradeID, exceptID, approverID uint, at time.Time, note string) (int64, error)
}

type changeRequestRepository struct {
	db *gorm.DB
}

// NewChangeRequestRepository constructs the change request repository.
func NewChangeRequestRepository(db *gorm.DB) ChangeRequestRepository {
	return &changeRequestRepository{db: db}
}

func (r *changeRequestRepository) Create(ctx context.Context, request *models.ChangeRequest) error {
	return conn(ctx, r.db).Create(request).Error
}

func (r *changeRequestRepository) GetByID(ctx context.Context, id uint) (models.ChangeRequest, error) {
	var request models.ChangeRequest
	if err := conn(ctx, r.db).First(&request, id).Error; err != nil {
		return models.ChangeRequest{}, err
	}
	return request, nil
}

// List orders pending requests oldest first and processed requests by most recent decision.
func (r *changeRequestRepository) List(ctx context.Context, filter ChangeRequestFilter) ([]models.ChangeRequest, int64, error) {
	query := conn(ctx, r.db).Model(&models.ChangeRequest{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RequestedBy != nil {
		query = query.Where("requested_by = ?", *filter.RequestedBy)
	}
	if filter.GradeID != nil {
		query = query.Where("grade_id = ?", *filter.GradeID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paged(filter.Page, filter.PageSize))

	switch filter.Status {
	case models.ChangeRequestApproved, models.ChangeRequestRejected:
		query = query.Order("approval_date DESC").Order("id DESC")
	default:
		query = query.Order("request_date ASC").Order("id ASC")
	}

	var requests []models.ChangeRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// Transition moves a request from one status to another only if it still holds the expected
// status. It reports false when another writer got there first.
func (r *changeRequestRepository) Transition(ctx context.Context, transition ChangeRequestTransition) (bool, error) {
	approver := transition.ApproverID
	at := transition.At
	result := conn(ctx, r.db).Model(&models.ChangeRequest{}).
		Where("id = ? AND status = ?", transition.ID, transition.From).
		Updates(map[string]interface{}{
			"status":          transition.To,
			"approved_by":     &approver,
			"approval_date":   &at,
			"resolution_note": transition.Note,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *changeRequestRepository) RejectPendingForGrade(ctx context.Context, gradeID, exceptID, approverID uint, at time.Time, note string) (int64, error) {
	approver := approverID
	decided := at
	result := conn(ctx, r.db).Model(&models.ChangeRequest{}).
		Where("grade_id = ? AND id <> ? AND status = ?", gradeID, exceptID, models.ChangeRequestPending).
		Updates(map[string]interface{}{
			"status":          models.ChangeRequestRejected,
			"approved_by":     &approver,
			"approval_date":   &decided,
			"resolution_note": note,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
