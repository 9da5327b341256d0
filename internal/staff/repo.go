package staff

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/pkg/db/models"
)

// Repository exposes staff member persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a staff repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new staff member.
func (r *Repository) Create(ctx context.Context, member *models.StaffMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// FindByID loads a staff member by UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StaffMember, error) {
	var member models.StaffMember
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// SetActive toggles whether the member may authorize compensations.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.StaffMember{}).
		Where("id = ?", id).
		UpdateColumn("active", active).Error
}
