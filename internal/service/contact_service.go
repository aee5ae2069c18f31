package service

import (
	"context"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// ContactServiceImpl implements ports.ContactService.
type ContactServiceImpl struct {
	userRepo ports.UserRepository
}

// NewContactService creates a new ContactServiceImpl.
func NewContactService(userRepo ports.UserRepository) *ContactServiceImpl {
	return &ContactServiceImpl{userRepo: userRepo}
}

// ListContacts returns every registered user except the caller, as transfer
// targets.
func (s *ContactServiceImpl) ListContacts(ctx context.Context, selfID uuid.UUID) ([]domain.User, error) {
	users, err := s.userRepo.ListOthers(ctx, selfID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("list contacts: %w", err))
	}
	return users, nil
}
