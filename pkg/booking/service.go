package booking

import (
	"context"
	"fmt"
	"time"
)

// Service owns the reservation lifecycle over a Store. All mutation goes
// through its guarded transitions; no other component writes status.
type Service struct {
	store      Store
	nowFn      func() time.Time
	logger     OperationLogger
	dispatcher Dispatcher
	cache      CacheInvalidator
}

// NewService wires a Service.
func NewService(store Store, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// Create books a table for the requester and leaves the reservation pending
// manager review. The availability check and the insert share one
// transaction so concurrent requests cannot both observe a free slot.
func (service *Service) Create(ctx context.Context, requester UserID, request BookingRequest) (Reservation, error) {
	var created Reservation
	operationError := func() error {
		if err := service.validateWindow(request.Window); err != nil {
			return err
		}
		return service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			if _, err := transactionStore.GetNotificationSettings(ctx, requester); err != nil {
				return err
			}
			table, err := findAvailableTable(ctx, transactionStore, request, nil)
			if err != nil {
				return err
			}
			if table.ManagerID == nil {
				return ErrMissingManager
			}
			created, err = transactionStore.CreateReservation(ctx, ReservationInput{
				UserID:     requester,
				TableID:    table.ID,
				ManagerID:  *table.ManagerID,
				Window:     request.Window,
				GuestCount: request.GuestCount,
				Services:   request.Services,
				Status:     StatusPending,
			})
			return err
		})
	}()
	if operationError == nil {
		service.invalidateAvailability(ctx, StatusPending)
		service.dispatch(ctx, Notice{Reservation: created, Kind: TransitionCreated, NotifyManager: true})
	}
	service.logOperation(ctx, OperationLog{
		Operation:     operationCreate,
		ActorID:       requester,
		ReservationID: reservationRef(created),
		TableID:       tableRef(created),
		Error:         operationError,
	})
	return created, operationError
}

// Confirm moves a pending reservation to confirmed and notifies the
// requester through their configured channel.
func (service *Service) Confirm(ctx context.Context, actor Actor, reservationID ReservationID) error {
	return service.transition(ctx, actor, reservationID, transitionRule{
		operation:  operationConfirm,
		from:       StatusPending,
		fromErr:    ErrNotPending,
		to:         StatusConfirmed,
		guardStart: true,
		kind:       TransitionConfirmed,
	})
}

// Reject moves a pending reservation to rejected, recording the reason in a
// ReservationDetail, and notifies the requester.
func (service *Service) Reject(ctx context.Context, actor Actor, reservationID ReservationID, reason Reason) error {
	return service.transition(ctx, actor, reservationID, transitionRule{
		operation:  operationReject,
		from:       StatusPending,
		fromErr:    ErrNotPending,
		to:         StatusRejected,
		guardStart: true,
		kind:       TransitionRejected,
		detail: func(id ReservationID, at time.Time) *ReservationDetail {
			return &ReservationDetail{ReservationID: id, RejectionReason: reason.String(), CancelledAt: at}
		},
		reason: reason.String(),
	})
}

// Cancel moves a confirmed reservation to cancelled, recording the reason,
// and notifies both the requester and the department manager.
func (service *Service) Cancel(ctx context.Context, actor Actor, reservationID ReservationID, reason Reason) error {
	return service.transition(ctx, actor, reservationID, transitionRule{
		operation:  operationCancel,
		from:       StatusConfirmed,
		fromErr:    ErrNotConfirmed,
		to:         StatusCancelled,
		guardStart: true,
		kind:       TransitionCancelled,
		detail: func(id ReservationID, at time.Time) *ReservationDetail {
			return &ReservationDetail{ReservationID: id, CancellationReason: reason.String(), CancelledAt: at}
		},
		reason:        reason.String(),
		notifyManager: true,
	})
}

// StartService marks a confirmed reservation as seated.
func (service *Service) StartService(ctx context.Context, actor Actor, reservationID ReservationID) error {
	return service.transition(ctx, actor, reservationID, transitionRule{
		operation: operationStartService,
		from:      StatusConfirmed,
		fromErr:   ErrNotConfirmed,
		to:        StatusInService,
	})
}

// CompleteService closes an in-service reservation. Completion is the
// trigger point for post-stay workflows, published through the dispatcher.
func (service *Service) CompleteService(ctx context.Context, actor Actor, reservationID ReservationID) error {
	return service.transition(ctx, actor, reservationID, transitionRule{
		operation: operationCompleteService,
		from:      StatusInService,
		fromErr:   ErrNotInService,
		to:        StatusCompleted,
		kind:      TransitionCompleted,
	})
}

// Update re-books a pending reservation against new dates, party size or
// table. The reservation's own interval is excluded from the conflict scan
// so it never collides with itself.
func (service *Service) Update(ctx context.Context, actor Actor, reservationID ReservationID, request BookingRequest) (Reservation, error) {
	var updated Reservation
	operationError := func() error {
		if err := service.validateWindow(request.Window); err != nil {
			return err
		}
		return service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			reservation, err := transactionStore.GetReservation(ctx, reservationID)
			if err != nil {
				return err
			}
			if reservation.Status != StatusPending {
				return ErrNotPending
			}
			table, err := findAvailableTable(ctx, transactionStore, request, &reservationID)
			if err != nil {
				return err
			}
			if table.ManagerID == nil {
				return ErrMissingManager
			}
			if err := transactionStore.UpdateReservationBooking(ctx, reservationID, table.ID, request.Window, request.GuestCount, request.Services); err != nil {
				return err
			}
			updated, err = transactionStore.GetReservation(ctx, reservationID)
			return err
		})
	}()
	if operationError == nil {
		service.invalidateAvailability(ctx, StatusPending)
	}
	service.logOperation(ctx, OperationLog{
		Operation:     operationUpdate,
		ActorID:       actor.UserID,
		ReservationID: &reservationID,
		Error:         operationError,
	})
	return updated, operationError
}

// transitionRule captures the shape of a single guarded status transition.
type transitionRule struct {
	operation     string
	from          Status
	fromErr       error
	to            Status
	guardStart    bool
	kind          TransitionKind
	detail        func(id ReservationID, at time.Time) *ReservationDetail
	reason        string
	notifyManager bool
}

func (service *Service) transition(ctx context.Context, actor Actor, reservationID ReservationID, rule transitionRule) error {
	var reservation Reservation
	now := service.nowFn()
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		var err error
		reservation, err = transactionStore.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation.Status != rule.from {
			return rule.fromErr
		}
		if rule.guardStart && reservation.Window.Start().Before(now) {
			return ErrStartDatePassed
		}
		if err := transactionStore.UpdateReservationStatus(ctx, reservationID, rule.from, rule.to, now); err != nil {
			return err
		}
		if rule.detail != nil {
			if err := transactionStore.CreateReservationDetail(ctx, *rule.detail(reservationID, now)); err != nil {
				return err
			}
		}
		return nil
	})
	if operationError == nil {
		service.invalidateAvailability(ctx, rule.from, rule.to)
		if rule.kind != "" {
			reservation.Status = rule.to
			service.dispatch(ctx, Notice{
				Reservation:   reservation,
				Kind:          rule.kind,
				Reason:        rule.reason,
				NotifyManager: rule.notifyManager,
			})
		}
	}
	service.logOperation(ctx, OperationLog{
		Operation:     rule.operation,
		ActorID:       actor.UserID,
		ReservationID: &reservationID,
		Error:         operationError,
	})
	return operationError
}

// validateWindow enforces the date-window invariants relative to the clock.
func (service *Service) validateWindow(window Window) error {
	if window.Duration() > maxReservationDuration {
		return ErrWindowTooLong
	}
	if !window.SameCalendarDay() {
		return ErrWindowCrossesDays
	}
	if window.Start().After(service.nowFn().Add(reservationHorizon)) {
		return ErrWindowTooFarAhead
	}
	return nil
}

// findAvailableTable resolves a table for the request inside the current
// transaction. With an explicit table number the search never falls back to
// another table, so "requested table unavailable" stays distinct from "no
// table fits the party". Without one, candidates are scanned smallest-first
// to keep large tables free for large parties.
func findAvailableTable(ctx context.Context, store Store, request BookingRequest, exclude *ReservationID) (Table, error) {
	if request.TableNumber != nil {
		table, err := store.GetTableByNumber(ctx, *request.TableNumber)
		if err != nil {
			return Table{}, err
		}
		if table.SeatCount < request.GuestCount.Int() {
			return Table{}, ErrCapacityExceeded
		}
		overlapping, err := store.ListActiveOverlapping(ctx, table.ID, request.Window, exclude)
		if err != nil {
			return Table{}, err
		}
		if len(overlapping) > 0 {
			return Table{}, ConflictError{OccupiedTables: []TableNumber{table.Number}}
		}
		return table, nil
	}
	candidates, err := store.ListTablesBySeatCount(ctx, request.GuestCount)
	if err != nil {
		return Table{}, err
	}
	if len(candidates) == 0 {
		return Table{}, ErrCapacityExceeded
	}
	occupied := make([]TableNumber, 0, len(candidates))
	for _, candidate := range candidates {
		overlapping, err := store.ListActiveOverlapping(ctx, candidate.ID, request.Window, exclude)
		if err != nil {
			return Table{}, err
		}
		if len(overlapping) == 0 {
			return candidate, nil
		}
		occupied = append(occupied, candidate.Number)
	}
	return Table{}, ConflictError{OccupiedTables: occupied}
}

func (service *Service) invalidateAvailability(ctx context.Context, statuses ...Status) {
	if service.cache == nil {
		return
	}
	service.cache.InvalidateAvailability(ctx, statuses...)
}

func (service *Service) dispatch(ctx context.Context, notice Notice) {
	if service.dispatcher == nil {
		return
	}
	service.dispatcher.Dispatch(ctx, notice)
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

func reservationRef(reservation Reservation) *ReservationID {
	if reservation.ID == (ReservationID{}) {
		return nil
	}
	id := reservation.ID
	return &id
}

func tableRef(reservation Reservation) *TableID {
	if reservation.TableID == (TableID{}) {
		return nil
	}
	id := reservation.TableID
	return &id
}
