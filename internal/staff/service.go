package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backhouse/pkg/config"
	"github.com/angelmondragon/backhouse/pkg/db/models"
	pkgerrors "github.com/angelmondragon/backhouse/pkg/errors"
	"github.com/angelmondragon/backhouse/pkg/security"
	"github.com/angelmondragon/backhouse/pkg/validate"
)

// Verifier checks that an actor may authorize a compensation.
type Verifier interface {
	VerifyPIN(ctx context.Context, actorID uuid.UUID, pin string) error
}

type memberStore interface {
	Create(ctx context.Context, member *models.StaffMember) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.StaffMember, error)
}

// Service registers staff members and verifies their PINs.
type Service struct {
	repo memberStore
	pin  config.PINConfig
}

func NewService(repo memberStore, pinCfg config.PINConfig) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("staff repository required")
	}
	return &Service{repo: repo, pin: pinCfg}, nil
}

// Register stores a new active staff member with a hashed PIN.
func (s *Service) Register(ctx context.Context, displayName, pin string) (*models.StaffMember, error) {
	displayName = strings.TrimSpace(displayName)
	if err := validate.Var("display_name", displayName, "required,max=80"); err != nil {
		return nil, err
	}
	hash, err := security.HashPIN(pin, s.pin)
	if err != nil {
		if errors.Is(err, security.ErrMalformedPIN) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash pin")
	}
	member := &models.StaffMember{DisplayName: displayName, PinHash: hash, Active: true}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create staff member")
	}
	return member, nil
}

// VerifyPIN returns CodeInvalidPIN unless actorID is an active member whose
// stored hash matches pin. Unknown actors and wrong PINs are indistinguishable.
func (s *Service) VerifyPIN(ctx context.Context, actorID uuid.UUID, pin string) error {
	invalid := pkgerrors.New(pkgerrors.CodeInvalidPIN, "invalid pin")
	if actorID == uuid.Nil || pin == "" {
		return invalid
	}
	member, err := s.repo.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load staff member")
	}
	if !member.Active {
		return invalid
	}
	ok, err := security.VerifyPIN(pin, member.PinHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify pin")
	}
	if !ok {
		return invalid
	}
	return nil
}
