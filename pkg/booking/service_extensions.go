package booking

import "context"

// EmergencyCancel transitions every pending or confirmed reservation whose
// window falls inside the emergency closure to cancelled, returning the
// affected reservations. This deliberately skips the "must be confirmed"
// guard of the interactive Cancel path: a forced closure voids pending
// requests and confirmed bookings alike. Completed and already-cancelled
// reservations are untouched. One notice per affected requester is
// dispatched after commit.
func (service *Service) EmergencyCancel(ctx context.Context, window Window) ([]Reservation, error) {
	now := service.nowFn()
	var cancelled []Reservation
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		candidates, err := transactionStore.ListEmergencyCandidates(ctx, window)
		if err != nil {
			return err
		}
		for _, candidate := range candidates {
			if err := transactionStore.UpdateReservationStatus(ctx, candidate.ID, candidate.Status, StatusCancelled, now); err != nil {
				return err
			}
			candidate.Status = StatusCancelled
			cancelled = append(cancelled, candidate)
		}
		return nil
	})
	if operationError == nil && len(cancelled) > 0 {
		service.invalidateAvailability(ctx, StatusPending, StatusConfirmed, StatusCancelled)
		for _, reservation := range cancelled {
			service.dispatch(ctx, Notice{Reservation: reservation, Kind: TransitionEmergencyCancelled})
		}
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationEmergencyCancel,
		Error:     operationError,
	})
	if operationError != nil {
		return nil, operationError
	}
	return cancelled, nil
}

// SoftDelete hides a reservation behind the soft-delete marker, subject to
// the delete guard.
func (service *Service) SoftDelete(ctx context.Context, actor Actor, reservationID ReservationID) error {
	var status Status
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		reservation, err := transactionStore.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if !CanDelete(reservation, actor) {
			return ErrForbidden
		}
		status = reservation.Status
		return transactionStore.SoftDeleteReservation(ctx, reservationID)
	})
	if operationError == nil {
		service.invalidateAvailability(ctx, status)
	}
	service.logOperation(ctx, OperationLog{
		Operation:     operationSoftDelete,
		ActorID:       actor.UserID,
		ReservationID: &reservationID,
		Error:         operationError,
	})
	return operationError
}

// ForceDelete permanently removes an already soft-deleted reservation.
func (service *Service) ForceDelete(ctx context.Context, actor Actor, reservationID ReservationID) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		reservation, err := transactionStore.GetDeletedReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if !CanForceDelete(reservation, actor) {
			return ErrForbidden
		}
		return transactionStore.ForceDeleteReservation(ctx, reservationID)
	})
	if operationError == nil {
		service.invalidateAvailability(ctx)
	}
	service.logOperation(ctx, OperationLog{
		Operation:     operationForceDelete,
		ActorID:       actor.UserID,
		ReservationID: &reservationID,
		Error:         operationError,
	})
	return operationError
}

// Restore brings a soft-deleted reservation back. When the reservation
// still holds an active status, its window is re-checked against the
// table's current schedule; any overlap fails the restore for every role.
func (service *Service) Restore(ctx context.Context, actor Actor, reservationID ReservationID) error {
	var status Status
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		reservation, err := transactionStore.GetDeletedReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if !CanRestore(reservation, actor) {
			return ErrForbidden
		}
		if reservation.Status.IsActive() {
			overlapping, err := transactionStore.ListActiveOverlapping(ctx, reservation.TableID, reservation.Window, &reservation.ID)
			if err != nil {
				return err
			}
			if len(overlapping) > 0 {
				return ErrRestoreConflict
			}
		}
		status = reservation.Status
		return transactionStore.RestoreReservation(ctx, reservationID)
	})
	if operationError == nil {
		service.invalidateAvailability(ctx, status)
	}
	service.logOperation(ctx, OperationLog{
		Operation:     operationRestore,
		ActorID:       actor.UserID,
		ReservationID: &reservationID,
		Error:         operationError,
	})
	return operationError
}

// ListByUser returns a requester's reservations. Customers may only read
// their own.
func (service *Service) ListByUser(ctx context.Context, actor Actor, userID UserID, filter ReservationFilter) ([]Reservation, error) {
	if actor.Role == RoleCustomer && actor.UserID != userID {
		return nil, ErrForbidden
	}
	return service.store.ListReservationsByUser(ctx, userID, filter)
}

// ListByDepartment returns a department's reservations for its manager or
// an admin.
func (service *Service) ListByDepartment(ctx context.Context, actor Actor, departmentID DepartmentID, filter ReservationFilter) ([]Reservation, error) {
	switch actor.Role {
	case RoleAdmin:
	case RoleManager:
		if actor.DepartmentID == nil || *actor.DepartmentID != departmentID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}
	return service.store.ListReservationsByDepartment(ctx, departmentID, filter)
}
