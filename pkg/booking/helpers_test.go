package booking

import (
	"context"
	"testing"
	"time"
)

// testNow is the fixed clock every service test runs against.
var testNow = time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func mustUserID(test *testing.T, raw string) UserID {
	test.Helper()
	id, err := NewUserID(raw)
	if err != nil {
		test.Fatalf("user id %q: %v", raw, err)
	}
	return id
}

func mustTableID(test *testing.T, raw string) TableID {
	test.Helper()
	id, err := NewTableID(raw)
	if err != nil {
		test.Fatalf("table id %q: %v", raw, err)
	}
	return id
}

func mustReservationID(test *testing.T, raw string) ReservationID {
	test.Helper()
	id, err := NewReservationID(raw)
	if err != nil {
		test.Fatalf("reservation id %q: %v", raw, err)
	}
	return id
}

func mustDepartmentID(test *testing.T, raw string) DepartmentID {
	test.Helper()
	id, err := NewDepartmentID(raw)
	if err != nil {
		test.Fatalf("department id %q: %v", raw, err)
	}
	return id
}

func mustTableNumber(test *testing.T, raw int) TableNumber {
	test.Helper()
	number, err := NewTableNumber(raw)
	if err != nil {
		test.Fatalf("table number %d: %v", raw, err)
	}
	return number
}

func mustGuestCount(test *testing.T, raw int) GuestCount {
	test.Helper()
	count, err := NewGuestCount(raw)
	if err != nil {
		test.Fatalf("guest count %d: %v", raw, err)
	}
	return count
}

func mustReason(test *testing.T, raw string) Reason {
	test.Helper()
	reason, err := NewReason(raw)
	if err != nil {
		test.Fatalf("reason %q: %v", raw, err)
	}
	return reason
}

// mustWindow builds a window on the test clock's day offset by whole hours.
func mustWindow(test *testing.T, dayOffset int, startHour int, endHour int) Window {
	test.Helper()
	day := testNow.AddDate(0, 0, dayOffset)
	start := time.Date(day.Year(), day.Month(), day.Day(), startHour, 0, 0, 0, time.UTC)
	end := time.Date(day.Year(), day.Month(), day.Day(), endHour, 0, 0, 0, time.UTC)
	window, err := NewWindow(start, end)
	if err != nil {
		test.Fatalf("window %d-%d: %v", startHour, endHour, err)
	}
	return window
}

func mustNewService(test *testing.T, store Store, options ...ServiceOption) *Service {
	test.Helper()
	service, err := NewService(store, fixedClock, options...)
	if err != nil {
		test.Fatalf("service init failed: %v", err)
	}
	return service
}

// seedTable registers a table with a managed department.
func seedTable(test *testing.T, store *stubStore, number int, seats int) Table {
	test.Helper()
	manager := mustUserID(test, "manager-1")
	table := Table{
		ID:           mustTableID(test, "table-"+mustTableNumber(test, number).String()),
		Number:       mustTableNumber(test, number),
		SeatCount:    seats,
		Location:     "main hall",
		DepartmentID: mustDepartmentID(test, "dept-1"),
		ManagerID:    &manager,
	}
	store.tables[table.ID] = table
	return table
}

// seedRequester registers mail notification settings for a user.
func seedRequester(test *testing.T, store *stubStore, raw string) UserID {
	test.Helper()
	userID := mustUserID(test, raw)
	store.settings[userID] = NotificationSettings{Channel: ChannelMail, Email: raw + "@example.com"}
	return userID
}

func mustCreate(test *testing.T, service *Service, requester UserID, request BookingRequest) Reservation {
	test.Helper()
	reservation, err := service.Create(context.Background(), requester, request)
	if err != nil {
		test.Fatalf("create: %v", err)
	}
	return reservation
}

// recorderDispatcher captures notices handed to the coordinator.
type recorderDispatcher struct {
	notices []Notice
}

func (dispatcher *recorderDispatcher) Dispatch(_ context.Context, notice Notice) {
	dispatcher.notices = append(dispatcher.notices, notice)
}

// recorderCache captures invalidation calls.
type recorderCache struct {
	calls [][]Status
}

func (cache *recorderCache) InvalidateAvailability(_ context.Context, statuses ...Status) {
	cache.calls = append(cache.calls, statuses)
}

func customerActor(test *testing.T, userID UserID) Actor {
	test.Helper()
	return Actor{UserID: userID, Role: RoleCustomer}
}

func managerActor(test *testing.T, department DepartmentID) Actor {
	test.Helper()
	return Actor{UserID: mustUserID(test, "manager-1"), Role: RoleManager, DepartmentID: &department}
}
