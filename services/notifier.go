package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/logger"
	"go-buildmart/metrics"
	"go-buildmart/models"
	"go-buildmart/repository"
)

// Pusher delivers a live message to a connected user.
type Pusher interface {
	Push(userID string, v any)
}

// Notice is the content of a notification before it is addressed.
type Notice struct {
	Type         models.NotificationType
	Priority     models.Priority
	Title        string
	Message      string
	RelatedOrder *primitive.ObjectID
	RelatedUser  *primitive.ObjectID
	RelatedItem  *primitive.ObjectID
}

// Notifier stores notifications and pushes them to live sockets. Its
// methods never return errors: a failed notification is logged and counted.
type Notifier struct {
	users  repository.UserRepository
	repo   repository.NotificationRepository
	pusher Pusher
	ttl    time.Duration
	now    func() time.Time
}

func NewNotifier(users repository.UserRepository, repo repository.NotificationRepository, pusher Pusher, ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Notifier{users: users, repo: repo, pusher: pusher, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// NotifyAdmins addresses n to every admin account and returns how many
// notifications were stored.
func (s *Notifier) NotifyAdmins(ctx context.Context, n Notice) int {
	log := logger.FromContext(ctx)
	admins, err := s.users.FindAdmins(ctx)
	if err != nil {
		metrics.NotificationFailures.Inc()
		log.Error("notify admins: list admins", "error", err)
		return 0
	}
	ids := make([]primitive.ObjectID, 0, len(admins))
	for _, a := range admins {
		ids = append(ids, a.ID)
	}
	return s.deliver(ctx, ids, n)
}

// NotifyUser addresses n to a single user.
func (s *Notifier) NotifyUser(ctx context.Context, user primitive.ObjectID, n Notice) bool {
	return s.deliver(ctx, []primitive.ObjectID{user}, n) == 1
}

func (s *Notifier) deliver(ctx context.Context, to []primitive.ObjectID, n Notice) int {
	if len(to) == 0 {
		return 0
	}
	if n.Priority == "" {
		n.Priority = models.PriorityMedium
	}
	now := s.now()
	docs := make([]*models.Notification, 0, len(to))
	for _, id := range to {
		docs = append(docs, &models.Notification{
			Recipient:    id,
			Type:         n.Type,
			Priority:     n.Priority,
			Title:        n.Title,
			Message:      n.Message,
			RelatedOrder: n.RelatedOrder,
			RelatedUser:  n.RelatedUser,
			RelatedItem:  n.RelatedItem,
			ExpiresAt:    now.Add(s.ttl),
			CreatedAt:    now,
		})
	}
	if err := s.repo.CreateMany(ctx, docs); err != nil {
		metrics.NotificationFailures.Add(float64(len(docs)))
		logger.FromContext(ctx).Error("store notifications", "error", err, "type", n.Type, "recipients", len(docs))
		return 0
	}
	if s.pusher != nil {
		for _, d := range docs {
			s.pusher.Push(d.Recipient.Hex(), map[string]any{"event": "notification", "notification": d})
		}
	}
	return len(docs)
}
