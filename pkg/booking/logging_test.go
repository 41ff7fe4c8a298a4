package booking

import (
	"context"
	"errors"
	"testing"
)

type recorderLogger struct {
	entries []OperationLog
}

func (logger *recorderLogger) LogOperation(_ context.Context, entry OperationLog) {
	logger.entries = append(logger.entries, entry)
}

func TestServiceLogsCreateOperation(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	seedTable(test, store, 1, 4)
	requester := seedRequester(test, store, "user-1")
	logger := &recorderLogger{}
	service := mustNewService(test, store, WithOperationLogger(logger))

	reservation := mustCreate(test, service, requester, BookingRequest{
		GuestCount: mustGuestCount(test, 2),
		Window:     mustWindow(test, 1, 10, 12),
	})
	if len(logger.entries) != 1 {
		test.Fatalf("expected one log entry, got %d", len(logger.entries))
	}
	entry := logger.entries[0]
	if entry.Operation != operationCreate || entry.ActorID != requester {
		test.Fatalf("unexpected log entry: %+v", entry)
	}
	if entry.ReservationID == nil || *entry.ReservationID != reservation.ID {
		test.Fatalf("expected reservation id on log entry: %+v", entry)
	}
	if entry.Error != nil || entry.Status != operationStatusOK {
		test.Fatalf("expected successful log entry, got %+v", entry)
	}
}

func TestServiceLogsErrorStatus(test *testing.T) {
	test.Parallel()
	failing := newFailingStore(test, errors.New("boom"))
	logger := &recorderLogger{}
	service := mustNewService(test, failing, WithOperationLogger(logger))

	err := service.Confirm(context.Background(), customerActor(test, mustUserID(test, "user-1")), mustReservationID(test, "res-1"))
	if err == nil {
		test.Fatalf("expected error")
	}
	if len(logger.entries) != 1 {
		test.Fatalf("expected one log entry, got %d", len(logger.entries))
	}
	entry := logger.entries[0]
	if entry.Status != operationStatusError || entry.Error == nil {
		test.Fatalf("expected error log entry, got %+v", entry)
	}
}
