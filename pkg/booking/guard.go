package booking

// CanDelete reports whether the actor may soft-delete the reservation.
// Requesters remove their own pending bookings; managers and admins clean up
// terminal ones, managers only inside their department.
func CanDelete(reservation Reservation, actor Actor) bool {
	switch actor.Role {
	case RoleCustomer:
		return actor.UserID == reservation.UserID && reservation.Status == StatusPending
	case RoleManager:
		return actorOwnsDepartment(actor, reservation) && reservation.Status.IsTerminal()
	case RoleAdmin:
		return reservation.Status.IsTerminal()
	}
	return false
}

// CanForceDelete reports whether the actor may permanently remove an
// already soft-deleted reservation.
func CanForceDelete(reservation Reservation, actor Actor) bool {
	if reservation.DeletedAt == nil {
		return false
	}
	switch actor.Role {
	case RoleManager:
		return actorOwnsDepartment(actor, reservation)
	case RoleAdmin:
		return true
	}
	return false
}

// CanRestore reports whether the actor may bring a soft-deleted reservation
// back. The conflict scan against the table's schedule runs in the Service
// regardless of role.
func CanRestore(reservation Reservation, actor Actor) bool {
	switch actor.Role {
	case RoleCustomer:
		return actor.UserID == reservation.UserID
	case RoleManager:
		return actorOwnsDepartment(actor, reservation)
	case RoleAdmin:
		return true
	}
	return false
}

func actorOwnsDepartment(actor Actor, reservation Reservation) bool {
	return actor.DepartmentID != nil && *actor.DepartmentID == reservation.DepartmentID
}
