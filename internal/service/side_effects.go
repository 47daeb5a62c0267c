package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/medibook-api/internal/models"
	"github.com/noah-isme/medibook-api/pkg/jobs"
)

// Side effect job types.
const (
	SideEffectAudit        = "audit"
	SideEffectNotification = "notification"
	SideEffectEvent        = "event"
)

// AuditSink appends audit entries.
type AuditSink interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// Notifier stores a message for a user.
type Notifier interface {
	Create(ctx context.Context, n *models.Notification) error
}

// EventPublisher emits domain events.
type EventPublisher interface {
	Publish(ctx context.Context, key, eventType string, payload interface{}) error
}

// Enqueuer accepts jobs without blocking.
type Enqueuer interface {
	Enqueue(job jobs.Job) error
}

type auditJob struct {
	ActorID string
	Action  string
	Payload interface{}
}

type notificationJob struct {
	UserID  string
	Message string
}

type eventJob struct {
	Key     string
	Type    string
	Payload interface{}
}

// SideEffects dispatches post-commit audit, notification and event work.
// Every failure is logged and swallowed: callers never see it.
type SideEffects struct {
	audit     AuditSink
	notifier  Notifier
	publisher EventPublisher
	queue     Enqueuer
	metrics   *MetricsService
	logger    *zap.Logger
	timeout   time.Duration
}

// SideEffectsConfig wires the sinks. Nil sinks are skipped.
type SideEffectsConfig struct {
	Audit     AuditSink
	Notifier  Notifier
	Publisher EventPublisher
	Metrics   *MetricsService
	Logger    *zap.Logger
	// Timeout bounds inline execution when no queue is attached.
	Timeout time.Duration
}

// NewSideEffects constructs a dispatcher. Until AttachQueue is called work runs inline.
func NewSideEffects(cfg SideEffectsConfig) *SideEffects {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &SideEffects{
		audit:     cfg.Audit,
		notifier:  cfg.Notifier,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		timeout:   cfg.Timeout,
	}
}

// AttachQueue routes future work through q.
func (s *SideEffects) AttachQueue(q Enqueuer) {
	s.queue = q
}

// Audit records action by actorID.
func (s *SideEffects) Audit(actorID, action string, payload interface{}) {
	if s == nil || s.audit == nil {
		return
	}
	s.dispatch(SideEffectAudit, auditJob{ActorID: actorID, Action: action, Payload: payload})
}

// Notify sends message to userID.
func (s *SideEffects) Notify(userID, message string) {
	if s == nil || s.notifier == nil || userID == "" {
		return
	}
	s.dispatch(SideEffectNotification, notificationJob{UserID: userID, Message: message})
}

// Publish emits an event keyed by key.
func (s *SideEffects) Publish(key, eventType string, payload interface{}) {
	if s == nil || s.publisher == nil {
		return
	}
	s.dispatch(SideEffectEvent, eventJob{Key: key, Type: eventType, Payload: payload})
}

func (s *SideEffects) dispatch(kind string, payload interface{}) {
	job := jobs.Job{ID: uuid.NewString(), Type: kind, Payload: payload, Enqueued: time.Now().UTC()}
	if s.queue != nil {
		if err := s.queue.Enqueue(job); err != nil {
			s.metrics.ObserveSideEffect(kind, err)
			s.logger.Warn("side effect dropped", zap.String("kind", kind), zap.Error(err))
		}
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.Handle(ctx, job); err != nil {
		s.logger.Warn("side effect failed", zap.String("kind", kind), zap.Error(err))
	}
}

// Handle executes one job. It is the handler for the side effect queue.
func (s *SideEffects) Handle(ctx context.Context, job jobs.Job) error {
	var err error
	switch p := job.Payload.(type) {
	case auditJob:
		var entry *models.AuditLog
		entry, err = models.NewAuditLog(p.ActorID, p.Action, p.Payload)
		if err == nil {
			err = s.audit.Create(ctx, entry)
		}
	case notificationJob:
		err = s.notifier.Create(ctx, &models.Notification{UserID: p.UserID, Message: p.Message})
	case eventJob:
		err = s.publisher.Publish(ctx, p.Key, p.Type, p.Payload)
	default:
		err = fmt.Errorf("unknown side effect payload %T", job.Payload)
	}
	s.metrics.ObserveSideEffect(job.Type, err)
	return err
}
