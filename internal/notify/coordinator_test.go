package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/brigade/pkg/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deliveryTimeout = 2 * time.Second

type stubSettings struct {
	byUser map[string]booking.NotificationSettings
	marked chan string
}

func newStubSettings() *stubSettings {
	return &stubSettings{
		byUser: make(map[string]booking.NotificationSettings),
		marked: make(chan string, 8),
	}
}

func (stub *stubSettings) GetNotificationSettings(_ context.Context, userID booking.UserID) (booking.NotificationSettings, error) {
	settings, found := stub.byUser[userID.String()]
	if !found {
		return booking.NotificationSettings{}, booking.ErrMissingNotificationSettings
	}
	return settings, nil
}

func (stub *stubSettings) MarkEmailSent(_ context.Context, id booking.ReservationID, _ time.Time) error {
	stub.marked <- id.String()
	return nil
}

type stubMail struct {
	sent chan MailMessage
	err  error
}

func newStubMail() *stubMail {
	return &stubMail{sent: make(chan MailMessage, 8)}
}

func (stub *stubMail) SendMail(_ context.Context, message MailMessage) error {
	if stub.err != nil {
		return stub.err
	}
	stub.sent <- message
	return nil
}

type stubTelegram struct {
	sent chan string
}

func newStubTelegram() *stubTelegram {
	return &stubTelegram{sent: make(chan string, 8)}
}

func (stub *stubTelegram) SendTelegram(_ context.Context, chatID string, text string) error {
	stub.sent <- chatID + "|" + text
	return nil
}

func testNotice(test *testing.T, kind booking.TransitionKind, notifyManager bool, reason string) booking.Notice {
	test.Helper()
	id, err := booking.NewReservationID("res-1")
	require.NoError(test, err)
	userID, err := booking.NewUserID("user-1")
	require.NoError(test, err)
	tableID, err := booking.NewTableID("table-1")
	require.NoError(test, err)
	departmentID, err := booking.NewDepartmentID("dept-1")
	require.NoError(test, err)
	managerID, err := booking.NewUserID("manager-1")
	require.NoError(test, err)
	window, err := booking.NewWindow(
		time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 10, 20, 0, 0, 0, time.UTC),
	)
	require.NoError(test, err)
	guests, err := booking.NewGuestCount(4)
	require.NoError(test, err)
	return booking.Notice{
		Reservation: booking.Reservation{
			ID:           id,
			UserID:       userID,
			TableID:      tableID,
			DepartmentID: departmentID,
			ManagerID:    managerID,
			Window:       window,
			GuestCount:   guests,
			Status:       booking.StatusConfirmed,
		},
		Kind:          kind,
		Reason:        reason,
		NotifyManager: notifyManager,
	}
}

func receiveMail(test *testing.T, mail *stubMail) MailMessage {
	test.Helper()
	select {
	case message := <-mail.sent:
		return message
	case <-time.After(deliveryTimeout):
		test.Fatalf("timed out waiting for mail")
		return MailMessage{}
	}
}

func TestDispatchDeliversTelegram(test *testing.T) {
	test.Parallel()
	settings := newStubSettings()
	settings.byUser["user-1"] = booking.NotificationSettings{Channel: booking.ChannelTelegram, TelegramChatID: "4242"}
	mail := newStubMail()
	telegram := newStubTelegram()
	coordinator := NewCoordinator(settings, mail, telegram, nil, WithWorkerCount(1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coordinator.Start(ctx)

	coordinator.Dispatch(ctx, testNotice(test, booking.TransitionConfirmed, false, ""))

	select {
	case delivered := <-telegram.sent:
		assert.Contains(test, delivered, "4242|")
		assert.Contains(test, delivered, "confirmed")
	case <-time.After(deliveryTimeout):
		test.Fatalf("timed out waiting for telegram delivery")
	}
	assert.Empty(test, mail.sent)
}

func TestMailDeliveryMarksEmailSent(test *testing.T) {
	test.Parallel()
	settings := newStubSettings()
	settings.byUser["user-1"] = booking.NotificationSettings{Channel: booking.ChannelMail, Email: "guest@example.com"}
	mail := newStubMail()
	coordinator := NewCoordinator(settings, mail, newStubTelegram(), nil, WithWorkerCount(1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coordinator.Start(ctx)

	coordinator.Dispatch(ctx, testNotice(test, booking.TransitionCreated, false, ""))

	message := receiveMail(test, mail)
	assert.Equal(test, "guest@example.com", message.To)
	assert.Equal(test, "res-1", message.ReservationID)
	select {
	case markedID := <-settings.marked:
		assert.Equal(test, "res-1", markedID)
	case <-time.After(deliveryTimeout):
		test.Fatalf("timed out waiting for email marker")
	}
}

func TestManagerAlwaysReachedByMail(test *testing.T) {
	test.Parallel()
	settings := newStubSettings()
	settings.byUser["user-1"] = booking.NotificationSettings{Channel: booking.ChannelTelegram, TelegramChatID: "4242"}
	settings.byUser["manager-1"] = booking.NotificationSettings{Channel: booking.ChannelTelegram, Email: "manager@example.com", TelegramChatID: "9"}
	mail := newStubMail()
	telegram := newStubTelegram()
	coordinator := NewCoordinator(settings, mail, telegram, nil, WithWorkerCount(1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coordinator.Start(ctx)

	coordinator.Dispatch(ctx, testNotice(test, booking.TransitionCancelled, true, "kitchen flooded"))

	message := receiveMail(test, mail)
	assert.Equal(test, "manager@example.com", message.To)
	assert.Contains(test, message.Body, "kitchen flooded")
	select {
	case <-telegram.sent:
	case <-time.After(deliveryTimeout):
		test.Fatalf("timed out waiting for requester telegram")
	}
}

func TestMailFailureLeavesMarkerUntouched(test *testing.T) {
	test.Parallel()
	settings := newStubSettings()
	settings.byUser["user-1"] = booking.NotificationSettings{Channel: booking.ChannelMail, Email: "guest@example.com"}
	mail := newStubMail()
	mail.err = errors.New("broker down")
	coordinator := NewCoordinator(settings, mail, newStubTelegram(), nil)

	coordinator.deliver(context.Background(), testNotice(test, booking.TransitionConfirmed, false, ""))

	assert.Empty(test, settings.marked)
}

func TestDispatchDropsWhenQueueFull(test *testing.T) {
	test.Parallel()
	settings := newStubSettings()
	coordinator := NewCoordinator(settings, newStubMail(), newStubTelegram(), nil, WithQueueSize(1))

	notice := testNotice(test, booking.TransitionConfirmed, false, "")
	coordinator.Dispatch(context.Background(), notice)
	coordinator.Dispatch(context.Background(), notice)
}

func TestRenderBodyIncludesReason(test *testing.T) {
	test.Parallel()
	notice := testNotice(test, booking.TransitionRejected, false, "no free staff")
	body := renderBody(notice)
	assert.Contains(test, body, "rejected")
	assert.Contains(test, body, "no free staff")
	assert.Contains(test, body, "4 guests")
}
