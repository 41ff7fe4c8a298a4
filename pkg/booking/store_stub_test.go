package booking

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"
)

// stubStore is an in-memory Store used by the service tests. WithTx runs the
// closure against the same state; transactional isolation is covered by the
// real store implementations.
type stubStore struct {
	tables       map[TableID]Table
	reservations map[ReservationID]Reservation
	details      map[ReservationID]ReservationDetail
	settings     map[UserID]NotificationSettings
	nextID       int
}

func newStubStore(test *testing.T) *stubStore {
	test.Helper()
	return &stubStore{
		tables:       map[TableID]Table{},
		reservations: map[ReservationID]Reservation{},
		details:      map[ReservationID]ReservationDetail{},
		settings:     map[UserID]NotificationSettings{},
	}
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	return fn(ctx, store)
}

func (store *stubStore) GetTableByNumber(_ context.Context, number TableNumber) (Table, error) {
	for _, table := range store.tables {
		if table.Number == number {
			return table, nil
		}
	}
	return Table{}, ErrUnknownTable
}

func (store *stubStore) ListTablesBySeatCount(_ context.Context, minSeats GuestCount) ([]Table, error) {
	candidates := make([]Table, 0, len(store.tables))
	for _, table := range store.tables {
		if table.SeatCount >= minSeats.Int() {
			candidates = append(candidates, table)
		}
	}
	sort.Slice(candidates, func(left, right int) bool {
		if candidates[left].SeatCount != candidates[right].SeatCount {
			return candidates[left].SeatCount < candidates[right].SeatCount
		}
		return candidates[left].Number < candidates[right].Number
	})
	return candidates, nil
}

func (store *stubStore) ListActiveOverlapping(_ context.Context, tableID TableID, window Window, exclude *ReservationID) ([]Reservation, error) {
	var overlapping []Reservation
	for _, reservation := range store.reservations {
		if reservation.TableID != tableID || reservation.DeletedAt != nil {
			continue
		}
		if exclude != nil && reservation.ID == *exclude {
			continue
		}
		if reservation.Status.IsActive() && reservation.Window.Overlaps(window) {
			overlapping = append(overlapping, reservation)
		}
	}
	return overlapping, nil
}

func (store *stubStore) CreateReservation(_ context.Context, input ReservationInput) (Reservation, error) {
	store.nextID++
	id, err := NewReservationID(fmt.Sprintf("res-%d", store.nextID))
	if err != nil {
		return Reservation{}, err
	}
	table, ok := store.tables[input.TableID]
	if !ok {
		return Reservation{}, ErrUnknownTable
	}
	reservation := Reservation{
		ID:           id,
		UserID:       input.UserID,
		TableID:      input.TableID,
		DepartmentID: table.DepartmentID,
		ManagerID:    input.ManagerID,
		Window:       input.Window,
		GuestCount:   input.GuestCount,
		Services:     input.Services,
		Status:       input.Status,
	}
	store.reservations[id] = reservation
	return reservation, nil
}

func (store *stubStore) GetReservation(_ context.Context, id ReservationID) (Reservation, error) {
	reservation, ok := store.reservations[id]
	if !ok || reservation.DeletedAt != nil {
		return Reservation{}, ErrUnknownReservation
	}
	return reservation, nil
}

func (store *stubStore) GetDeletedReservation(_ context.Context, id ReservationID) (Reservation, error) {
	reservation, ok := store.reservations[id]
	if !ok {
		return Reservation{}, ErrUnknownReservation
	}
	if reservation.DeletedAt == nil {
		return Reservation{}, ErrNotDeleted
	}
	return reservation, nil
}

func (store *stubStore) UpdateReservationStatus(_ context.Context, id ReservationID, from Status, to Status, at time.Time) error {
	reservation, ok := store.reservations[id]
	if !ok || reservation.DeletedAt != nil || reservation.Status != from {
		return ErrUnknownReservation
	}
	reservation.Status = to
	switch to {
	case StatusInService:
		reservation.StartedAt = &at
	case StatusCompleted:
		reservation.CompletedAt = &at
	case StatusCancelled:
		reservation.CancelledAt = &at
	}
	store.reservations[id] = reservation
	return nil
}

func (store *stubStore) UpdateReservationBooking(_ context.Context, id ReservationID, tableID TableID, window Window, guestCount GuestCount, services string) error {
	reservation, ok := store.reservations[id]
	if !ok || reservation.DeletedAt != nil {
		return ErrUnknownReservation
	}
	table, found := store.tables[tableID]
	if !found {
		return ErrUnknownTable
	}
	reservation.TableID = tableID
	reservation.DepartmentID = table.DepartmentID
	reservation.Window = window
	reservation.GuestCount = guestCount
	reservation.Services = services
	store.reservations[id] = reservation
	return nil
}

func (store *stubStore) CreateReservationDetail(_ context.Context, detail ReservationDetail) error {
	if _, exists := store.details[detail.ReservationID]; exists {
		return fmt.Errorf("detail already exists for %s", detail.ReservationID)
	}
	store.details[detail.ReservationID] = detail
	return nil
}

func (store *stubStore) ListEmergencyCandidates(_ context.Context, window Window) ([]Reservation, error) {
	var candidates []Reservation
	for _, reservation := range store.reservations {
		if reservation.DeletedAt != nil {
			continue
		}
		if reservation.Status != StatusPending && reservation.Status != StatusConfirmed {
			continue
		}
		if window.Contains(reservation.Window) {
			candidates = append(candidates, reservation)
		}
	}
	sort.Slice(candidates, func(left, right int) bool {
		return candidates[left].ID.String() < candidates[right].ID.String()
	})
	return candidates, nil
}

func (store *stubStore) SoftDeleteReservation(_ context.Context, id ReservationID) error {
	reservation, ok := store.reservations[id]
	if !ok || reservation.DeletedAt != nil {
		return ErrUnknownReservation
	}
	now := time.Now().UTC()
	reservation.DeletedAt = &now
	store.reservations[id] = reservation
	return nil
}

func (store *stubStore) RestoreReservation(_ context.Context, id ReservationID) error {
	reservation, ok := store.reservations[id]
	if !ok {
		return ErrUnknownReservation
	}
	reservation.DeletedAt = nil
	store.reservations[id] = reservation
	return nil
}

func (store *stubStore) ForceDeleteReservation(_ context.Context, id ReservationID) error {
	if _, ok := store.reservations[id]; !ok {
		return ErrUnknownReservation
	}
	delete(store.reservations, id)
	return nil
}

func (store *stubStore) ListReservationsByUser(_ context.Context, userID UserID, filter ReservationFilter) ([]Reservation, error) {
	var matches []Reservation
	for _, reservation := range store.reservations {
		if reservation.UserID != userID || reservation.DeletedAt != nil {
			continue
		}
		if filter.Status != nil && reservation.Status != *filter.Status {
			continue
		}
		matches = append(matches, reservation)
	}
	return matches, nil
}

func (store *stubStore) ListReservationsByDepartment(_ context.Context, departmentID DepartmentID, filter ReservationFilter) ([]Reservation, error) {
	var matches []Reservation
	for _, reservation := range store.reservations {
		if reservation.DepartmentID != departmentID || reservation.DeletedAt != nil {
			continue
		}
		if filter.Status != nil && reservation.Status != *filter.Status {
			continue
		}
		matches = append(matches, reservation)
	}
	return matches, nil
}

func (store *stubStore) GetNotificationSettings(_ context.Context, userID UserID) (NotificationSettings, error) {
	settings, ok := store.settings[userID]
	if !ok {
		return NotificationSettings{}, ErrMissingNotificationSettings
	}
	return settings, nil
}

func (store *stubStore) MarkEmailSent(_ context.Context, id ReservationID, at time.Time) error {
	reservation, ok := store.reservations[id]
	if !ok {
		return ErrUnknownReservation
	}
	reservation.EmailSentAt = &at
	store.reservations[id] = reservation
	return nil
}

// failingStore returns the configured error from every call.
type failingStore struct {
	stubStore
	err error
}

func newFailingStore(test *testing.T, err error) *failingStore {
	test.Helper()
	return &failingStore{err: err}
}

func (store *failingStore) WithTx(context.Context, func(ctx context.Context, txStore Store) error) error {
	return store.err
}

func (store *failingStore) ListReservationsByUser(context.Context, UserID, ReservationFilter) ([]Reservation, error) {
	return nil, store.err
}
