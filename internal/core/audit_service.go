package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"qaflow-backend-go/internal/db"
	"qaflow-backend-go/internal/models"
)

// auditService implements the AuditService interface.
type auditService struct {
	auditRepo db.AuditRepository
	logger    *zap.Logger
}

// NewAuditService creates a new AuditService instance.
func NewAuditService(ar db.AuditRepository, logger *zap.Logger) AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &auditService{auditRepo: ar, logger: logger}
}

// CreateAuditLog validates and persists one audit log entry.
func (s *auditService) CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error {
	if s.auditRepo == nil {
		return errors.New("auditService: auditRepo not initialized")
	}
	if logEntry.UserID == "" || logEntry.Action == "" {
		return errors.New("audit log entry requires UserID and Action")
	}

	if err := s.auditRepo.Create(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to persist audit log: %w", err)
	}
	return nil
}
