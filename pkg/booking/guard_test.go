package booking

import (
	"testing"
	"time"
)

func guardReservation(test *testing.T, owner string, status Status, deleted bool) Reservation {
	test.Helper()
	reservation := Reservation{
		ID:           mustReservationID(test, "res-guard"),
		UserID:       mustUserID(test, owner),
		DepartmentID: mustDepartmentID(test, "dept-1"),
		Status:       status,
	}
	if deleted {
		at := time.Now().UTC()
		reservation.DeletedAt = &at
	}
	return reservation
}

func TestCanDeleteRoleMatrix(test *testing.T) {
	test.Parallel()
	ownDepartment := mustDepartmentID(test, "dept-1")
	otherDepartment := mustDepartmentID(test, "dept-2")
	cases := []struct {
		name    string
		actor   Actor
		status  Status
		owner   string
		allowed bool
	}{
		{name: "customer deletes own pending", actor: Actor{UserID: mustUserID(test, "user-1"), Role: RoleCustomer}, status: StatusPending, owner: "user-1", allowed: true},
		{name: "customer cannot delete own confirmed", actor: Actor{UserID: mustUserID(test, "user-1"), Role: RoleCustomer}, status: StatusConfirmed, owner: "user-1", allowed: false},
		{name: "customer cannot delete foreign pending", actor: Actor{UserID: mustUserID(test, "user-2"), Role: RoleCustomer}, status: StatusPending, owner: "user-1", allowed: false},
		{name: "manager deletes terminal in department", actor: Actor{UserID: mustUserID(test, "mgr"), Role: RoleManager, DepartmentID: &ownDepartment}, status: StatusCancelled, owner: "user-1", allowed: true},
		{name: "manager cannot delete active", actor: Actor{UserID: mustUserID(test, "mgr"), Role: RoleManager, DepartmentID: &ownDepartment}, status: StatusPending, owner: "user-1", allowed: false},
		{name: "manager cannot reach other department", actor: Actor{UserID: mustUserID(test, "mgr"), Role: RoleManager, DepartmentID: &otherDepartment}, status: StatusCompleted, owner: "user-1", allowed: false},
		{name: "admin deletes any terminal", actor: Actor{UserID: mustUserID(test, "root"), Role: RoleAdmin}, status: StatusRejected, owner: "user-1", allowed: true},
		{name: "admin cannot delete active", actor: Actor{UserID: mustUserID(test, "root"), Role: RoleAdmin}, status: StatusInService, owner: "user-1", allowed: false},
	}
	for _, testCase := range cases {
		reservation := guardReservation(test, testCase.owner, testCase.status, false)
		if got := CanDelete(reservation, testCase.actor); got != testCase.allowed {
			test.Fatalf("%s: expected %v, got %v", testCase.name, testCase.allowed, got)
		}
	}
}

func TestCanForceDeleteOnlySoftDeleted(test *testing.T) {
	test.Parallel()
	department := mustDepartmentID(test, "dept-1")
	admin := Actor{UserID: mustUserID(test, "root"), Role: RoleAdmin}
	manager := Actor{UserID: mustUserID(test, "mgr"), Role: RoleManager, DepartmentID: &department}
	foreign := mustDepartmentID(test, "dept-2")
	foreignManager := Actor{UserID: mustUserID(test, "mgr2"), Role: RoleManager, DepartmentID: &foreign}

	live := guardReservation(test, "user-1", StatusCancelled, false)
	if CanForceDelete(live, admin) {
		test.Fatalf("live rows must not be force-deletable")
	}
	deleted := guardReservation(test, "user-1", StatusCancelled, true)
	if !CanForceDelete(deleted, admin) {
		test.Fatalf("admin should force-delete soft-deleted rows")
	}
	if !CanForceDelete(deleted, manager) {
		test.Fatalf("department manager should force-delete own rows")
	}
	if CanForceDelete(deleted, foreignManager) {
		test.Fatalf("manager must not reach another department")
	}
	customer := Actor{UserID: mustUserID(test, "user-1"), Role: RoleCustomer}
	if CanForceDelete(deleted, customer) {
		test.Fatalf("customers must not force-delete")
	}
}

func TestCanRestoreRoles(test *testing.T) {
	test.Parallel()
	department := mustDepartmentID(test, "dept-1")
	deleted := guardReservation(test, "user-1", StatusPending, true)

	if !CanRestore(deleted, Actor{UserID: mustUserID(test, "user-1"), Role: RoleCustomer}) {
		test.Fatalf("owner should restore own reservation")
	}
	if CanRestore(deleted, Actor{UserID: mustUserID(test, "user-2"), Role: RoleCustomer}) {
		test.Fatalf("foreign customer must not restore")
	}
	if !CanRestore(deleted, Actor{UserID: mustUserID(test, "mgr"), Role: RoleManager, DepartmentID: &department}) {
		test.Fatalf("department manager should restore")
	}
	if !CanRestore(deleted, Actor{UserID: mustUserID(test, "root"), Role: RoleAdmin}) {
		test.Fatalf("admin should restore")
	}
}
