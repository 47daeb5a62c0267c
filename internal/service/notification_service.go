package service

import (
	"context"

	"github.com/noah-isme/medibook-api/internal/models"
)

type notificationRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
}

// NotificationService reads a user's in-app notifications.
type NotificationService struct {
	repo notificationRepository
}

// NewNotificationService constructs the service.
func NewNotificationService(repo notificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, principal *models.Principal) ([]models.Notification, error) {
	if err := authorize(principal, models.ActionListNotifications); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByUser(ctx, principal.ID)
	if err != nil {
		return nil, internal(err, "failed to list notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, nil
}
