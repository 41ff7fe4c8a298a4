package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/brigade/pkg/booking"
	"go.uber.org/zap"
)

const (
	defaultWorkerCount = 2
	defaultQueueSize   = 64
)

// SettingsReader resolves a user's delivery channel. Satisfied by the
// booking store.
type SettingsReader interface {
	GetNotificationSettings(ctx context.Context, userID booking.UserID) (booking.NotificationSettings, error)
	MarkEmailSent(ctx context.Context, id booking.ReservationID, at time.Time) error
}

// MailMessage is the payload handed to the mail queue.
type MailMessage struct {
	To            string `json:"to"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	ReservationID string `json:"reservation_id"`
}

// MailSender enqueues an outbound mail.
type MailSender interface {
	SendMail(ctx context.Context, message MailMessage) error
}

// TelegramSender delivers a text to a Telegram chat.
type TelegramSender interface {
	SendTelegram(ctx context.Context, chatID string, text string) error
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithWorkerCount sets the number of delivery goroutines.
func WithWorkerCount(count int) CoordinatorOption {
	return func(coordinator *Coordinator) {
		if count > 0 {
			coordinator.workerCount = count
		}
	}
}

// WithQueueSize sets the dispatch buffer length.
func WithQueueSize(size int) CoordinatorOption {
	return func(coordinator *Coordinator) {
		if size > 0 {
			coordinator.notices = make(chan booking.Notice, size)
		}
	}
}

// WithClock overrides the time source used for delivery markers.
func WithClock(nowFn func() time.Time) CoordinatorOption {
	return func(coordinator *Coordinator) {
		if nowFn != nil {
			coordinator.nowFn = nowFn
		}
	}
}

// Coordinator implements booking.Dispatcher. Notices are buffered on a
// channel and delivered by background workers; a full buffer drops the
// notice with an audit entry rather than blocking the transition.
type Coordinator struct {
	settings    SettingsReader
	mail        MailSender
	telegram    TelegramSender
	logger      *zap.Logger
	notices     chan booking.Notice
	workerCount int
	nowFn       func() time.Time
}

// NewCoordinator wires the delivery coordinator.
func NewCoordinator(settings SettingsReader, mail MailSender, telegram TelegramSender, logger *zap.Logger, options ...CoordinatorOption) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	coordinator := &Coordinator{
		settings:    settings,
		mail:        mail,
		telegram:    telegram,
		logger:      logger,
		notices:     make(chan booking.Notice, defaultQueueSize),
		workerCount: defaultWorkerCount,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(coordinator)
	}
	return coordinator
}

// Start launches the delivery workers. They exit when ctx is cancelled.
func (coordinator *Coordinator) Start(ctx context.Context) {
	for workerIndex := 0; workerIndex < coordinator.workerCount; workerIndex++ {
		go coordinator.worker(ctx)
	}
}

// Dispatch enqueues a notice for asynchronous delivery.
func (coordinator *Coordinator) Dispatch(_ context.Context, notice booking.Notice) {
	select {
	case coordinator.notices <- notice:
	default:
		coordinator.logger.Error("notification queue full, dropping notice",
			zap.String("reservation_id", notice.Reservation.ID.String()),
			zap.String("kind", string(notice.Kind)))
	}
}

func (coordinator *Coordinator) worker(ctx context.Context) {
	for {
		select {
		case notice := <-coordinator.notices:
			coordinator.deliver(ctx, notice)
		case <-ctx.Done():
			return
		}
	}
}

func (coordinator *Coordinator) deliver(ctx context.Context, notice booking.Notice) {
	coordinator.notifyRequester(ctx, notice)
	if notice.NotifyManager {
		coordinator.notifyManager(ctx, notice)
	}
}

func (coordinator *Coordinator) notifyRequester(ctx context.Context, notice booking.Notice) {
	reservation := notice.Reservation
	settings, err := coordinator.settings.GetNotificationSettings(ctx, reservation.UserID)
	if err != nil {
		coordinator.audit(notice, "settings lookup failed", err)
		return
	}
	switch settings.Channel {
	case booking.ChannelTelegram:
		if err := coordinator.telegram.SendTelegram(ctx, settings.TelegramChatID, renderBody(notice)); err != nil {
			coordinator.audit(notice, "telegram delivery failed", err)
			return
		}
	case booking.ChannelMail:
		message := MailMessage{
			To:            settings.Email,
			Subject:       renderSubject(notice.Kind),
			Body:          renderBody(notice),
			ReservationID: reservation.ID.String(),
		}
		if err := coordinator.mail.SendMail(ctx, message); err != nil {
			coordinator.audit(notice, "mail enqueue failed", err)
			return
		}
		if err := coordinator.settings.MarkEmailSent(ctx, reservation.ID, coordinator.nowFn()); err != nil {
			coordinator.audit(notice, "email marker update failed", err)
		}
	default:
		coordinator.audit(notice, "unknown delivery channel", fmt.Errorf("channel %q", settings.Channel))
		return
	}
	coordinator.logger.Info("notification delivered",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("kind", string(notice.Kind)),
		zap.String("channel", string(settings.Channel)))
}

// notifyManager always reaches the manager by mail, whatever the manager's
// own channel preference says.
func (coordinator *Coordinator) notifyManager(ctx context.Context, notice booking.Notice) {
	reservation := notice.Reservation
	settings, err := coordinator.settings.GetNotificationSettings(ctx, reservation.ManagerID)
	if err != nil {
		coordinator.audit(notice, "manager settings lookup failed", err)
		return
	}
	if settings.Email == "" {
		coordinator.audit(notice, "manager has no mail address", nil)
		return
	}
	message := MailMessage{
		To:            settings.Email,
		Subject:       renderSubject(notice.Kind),
		Body:          renderManagerBody(notice),
		ReservationID: reservation.ID.String(),
	}
	if err := coordinator.mail.SendMail(ctx, message); err != nil {
		coordinator.audit(notice, "manager mail enqueue failed", err)
		return
	}
	coordinator.logger.Info("manager notified",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("kind", string(notice.Kind)))
}

func (coordinator *Coordinator) audit(notice booking.Notice, message string, err error) {
	coordinator.logger.Error(message,
		zap.String("reservation_id", notice.Reservation.ID.String()),
		zap.String("kind", string(notice.Kind)),
		zap.Error(err))
}
