package booking

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UserID identifies a requester, manager or administrator.
type UserID struct {
	value string
}

// TableID identifies a restaurant table.
type TableID struct {
	value string
}

// ReservationID identifies a reservation.
type ReservationID struct {
	value string
}

// DepartmentID identifies the department that owns a table.
type DepartmentID struct {
	value string
}

// TableNumber is the human-facing table number printed on the floor plan.
type TableNumber int

// GuestCount is the size of the party a reservation seats.
type GuestCount int

// Reason is the mandatory free-form text attached to reject and cancel transitions.
type Reason struct {
	value string
}

// NewUserID validates and normalizes a user id.
func NewUserID(raw string) (UserID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return UserID{}, fmt.Errorf("%w: empty value", ErrInvalidUserID)
	}
	return UserID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id UserID) String() string {
	return id.value
}

// NewTableID validates and normalizes a table id.
func NewTableID(raw string) (TableID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TableID{}, fmt.Errorf("%w: empty value", ErrInvalidTableID)
	}
	return TableID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id TableID) String() string {
	return id.value
}

// NewReservationID validates and normalizes a reservation id.
func NewReservationID(raw string) (ReservationID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ReservationID{}, fmt.Errorf("%w: empty value", ErrInvalidReservationID)
	}
	return ReservationID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id ReservationID) String() string {
	return id.value
}

// NewDepartmentID validates and normalizes a department id.
func NewDepartmentID(raw string) (DepartmentID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DepartmentID{}, fmt.Errorf("%w: empty value", ErrInvalidDepartmentID)
	}
	return DepartmentID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id DepartmentID) String() string {
	return id.value
}

// NewTableNumber validates a table number and ensures it is strictly positive.
func NewTableNumber(raw int) (TableNumber, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidTableNumber)
	}
	return TableNumber(raw), nil
}

// Int returns the raw table number.
func (number TableNumber) Int() int {
	return int(number)
}

// String returns the decimal representation.
func (number TableNumber) String() string {
	return strconv.Itoa(int(number))
}

// NewGuestCount validates a guest count and ensures it is strictly positive.
func NewGuestCount(raw int) (GuestCount, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidGuestCount)
	}
	return GuestCount(raw), nil
}

// Int returns the raw guest count.
func (count GuestCount) Int() int {
	return int(count)
}

// NewReason validates and normalizes a reject/cancel reason.
func NewReason(raw string) (Reason, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Reason{}, fmt.Errorf("%w: empty value", ErrInvalidReason)
	}
	return Reason{value: trimmed}, nil
}

// String returns the normalized reason text.
func (reason Reason) String() string {
	return reason.value
}

// Status defines the reservation lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusInService Status = "in_service"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.TrimSpace(raw))
	switch status {
	case StatusPending, StatusConfirmed, StatusInService, StatusCompleted, StatusRejected, StatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// String returns the status value.
func (status Status) String() string {
	return string(status)
}

// IsActive reports whether the status occupies the table's schedule.
func (status Status) IsActive() bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusInService:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (status Status) IsTerminal() bool {
	switch status {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// ActiveStatuses lists the statuses during which a reservation blocks its table.
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusInService}
}

// ActorRole defines who is acting on a reservation.
type ActorRole string

const (
	RoleCustomer ActorRole = "customer"
	RoleManager  ActorRole = "manager"
	RoleAdmin    ActorRole = "admin"
)

// Actor is the authenticated principal performing an operation. The HTTP
// layer resolves it before calling into the engine; the engine never reads
// ambient identity.
type Actor struct {
	UserID       UserID
	Role         ActorRole
	DepartmentID *DepartmentID
}

// Channel selects how a user receives notifications.
type Channel string

const (
	ChannelMail     Channel = "mail"
	ChannelTelegram Channel = "telegram"
)

// ParseChannel validates a raw channel string.
func ParseChannel(raw string) (Channel, error) {
	channel := Channel(strings.TrimSpace(raw))
	switch channel {
	case ChannelMail, ChannelTelegram:
		return channel, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidChannel, raw)
}

// NotificationSettings is a user's configured delivery channel.
type NotificationSettings struct {
	Channel        Channel
	Email          string
	TelegramChatID string
}

// Table is the engine's view of a restaurant table. ManagerID is the manager
// of the owning department, nil when the department has none assigned.
type Table struct {
	ID           TableID
	Number       TableNumber
	SeatCount    int
	Location     string
	DepartmentID DepartmentID
	ManagerID    *UserID
}

// Reservation is the aggregate root of the engine. ManagerID is the
// department manager snapshotted at creation time; DepartmentID is the
// current department of the assigned table, joined in by the store for
// authorization checks and department listings.
type Reservation struct {
	ID           ReservationID
	UserID       UserID
	TableID      TableID
	DepartmentID DepartmentID
	ManagerID    UserID
	Window       Window
	GuestCount   GuestCount
	Services     string
	Status       Status
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	EmailSentAt  *time.Time
	DeletedAt    *time.Time
}

// BookingRequest carries the validated input for create and update. A nil
// TableNumber lets the availability finder pick the smallest fitting table;
// a set TableNumber restricts the search to that table with no fallback.
type BookingRequest struct {
	TableNumber *TableNumber
	GuestCount  GuestCount
	Window      Window
	Services    string
}

// ReservationDetail records the terminal metadata of a cancelled or rejected
// reservation. It is created exactly once, on the first terminal transition.
type ReservationDetail struct {
	ReservationID      ReservationID
	CancellationReason string
	RejectionReason    string
	CancelledAt        time.Time
}

// ReservationInput carries the validated fields for a new reservation row.
type ReservationInput struct {
	UserID     UserID
	TableID    TableID
	ManagerID  UserID
	Window     Window
	GuestCount GuestCount
	Services   string
	Status     Status
}

// ReservationFilter narrows listing queries.
type ReservationFilter struct {
	Status *Status
}

// Store is the persistence contract used by Service. Implementations must
// make WithTx a real transaction boundary: availability checks followed by
// writes race between concurrent requests otherwise. GetReservation and
// ListTablesBySeatCount take row locks when called on a transaction-bound
// store.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error
	GetTableByNumber(ctx context.Context, number TableNumber) (Table, error)
	ListTablesBySeatCount(ctx context.Context, minSeats GuestCount) ([]Table, error)
	ListActiveOverlapping(ctx context.Context, tableID TableID, window Window, exclude *ReservationID) ([]Reservation, error)
	CreateReservation(ctx context.Context, input ReservationInput) (Reservation, error)
	GetReservation(ctx context.Context, id ReservationID) (Reservation, error)
	GetDeletedReservation(ctx context.Context, id ReservationID) (Reservation, error)
	UpdateReservationStatus(ctx context.Context, id ReservationID, from Status, to Status, at time.Time) error
	UpdateReservationBooking(ctx context.Context, id ReservationID, tableID TableID, window Window, guestCount GuestCount, services string) error
	CreateReservationDetail(ctx context.Context, detail ReservationDetail) error
	ListEmergencyCandidates(ctx context.Context, window Window) ([]Reservation, error)
	SoftDeleteReservation(ctx context.Context, id ReservationID) error
	RestoreReservation(ctx context.Context, id ReservationID) error
	ForceDeleteReservation(ctx context.Context, id ReservationID) error
	ListReservationsByUser(ctx context.Context, userID UserID, filter ReservationFilter) ([]Reservation, error)
	ListReservationsByDepartment(ctx context.Context, departmentID DepartmentID, filter ReservationFilter) ([]Reservation, error)
	GetNotificationSettings(ctx context.Context, userID UserID) (NotificationSettings, error)
	MarkEmailSent(ctx context.Context, id ReservationID, at time.Time) error
}
