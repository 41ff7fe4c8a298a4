package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Department represents the departments table. ManagerID is nullable so a
// department can exist before a manager is assigned; the engine refuses to
// book tables of such departments.
type Department struct {
	DepartmentID string  `gorm:"type:uuid;primaryKey"`
	Name         string  `gorm:"not null"`
	ManagerID    *string `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Department) TableName() string { return "departments" }

func (department *Department) BeforeCreate(tx *gorm.DB) error {
	if department.DepartmentID == "" {
		department.DepartmentID = uuid.NewString()
	}
	return nil
}

// Table represents the tables table.
type Table struct {
	TableID      string `gorm:"type:uuid;primaryKey"`
	Number       int    `gorm:"column:table_number;not null;uniqueIndex"`
	SeatCount    int    `gorm:"not null;check:seat_count > 0"`
	Location     string
	DepartmentID string     `gorm:"type:uuid;not null;index"`
	Department   Department `gorm:"foreignKey:DepartmentID;references:DepartmentID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Table) TableName() string { return "tables" }

func (table *Table) BeforeCreate(tx *gorm.DB) error {
	if table.TableID == "" {
		table.TableID = uuid.NewString()
	}
	return nil
}

// Reservation mirrors the reservations table. ManagerID is the department
// manager snapshotted at creation; it is never recomputed on reassignment.
type Reservation struct {
	ReservationID string    `gorm:"type:uuid;primaryKey"`
	UserID        string    `gorm:"not null;index"`
	TableID       string    `gorm:"type:uuid;not null;index:idx_reservations_table_window,priority:1"`
	ManagerID     string    `gorm:"not null"`
	StartDate     time.Time `gorm:"not null;index:idx_reservations_table_window,priority:2"`
	EndDate       time.Time `gorm:"not null"`
	GuestCount    int       `gorm:"not null"`
	Services      datatypes.JSON
	Status        string `gorm:"size:20;not null;index"`
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
	EmailSentAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (Reservation) TableName() string { return "reservations" }

func (reservation *Reservation) BeforeCreate(tx *gorm.DB) error {
	if reservation.ReservationID == "" {
		reservation.ReservationID = uuid.NewString()
	}
	return nil
}

// ReservationDetail mirrors the reservation_details table. One row per
// terminal reservation, created on the first cancel or reject.
type ReservationDetail struct {
	ReservationID      string `gorm:"type:uuid;primaryKey"`
	CancellationReason string
	RejectionReason    string
	CancelledAt        time.Time `gorm:"not null"`
	CreatedAt          time.Time
}

func (ReservationDetail) TableName() string { return "reservation_details" }

// NotificationSetting mirrors the notification_settings table.
type NotificationSetting struct {
	UserID         string `gorm:"primaryKey"`
	Channel        string `gorm:"size:16;not null"`
	Email          string
	TelegramChatID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (NotificationSetting) TableName() string { return "notification_settings" }
