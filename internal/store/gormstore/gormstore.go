package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/brigade/pkg/booking"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	pgUniqueViolationCode = "23505"
	sqliteConstraintCode  = 19
	errorOperationStore   = "store"
	errorSubjectTable     = "table"
	errorSubjectRes       = "reservation"
	errorSubjectDetail    = "detail"
	errorSubjectSettings  = "settings"
	errorCodeGet          = "get"
	errorCodeList         = "list"
	errorCodeCreate       = "create"
	errorCodeUpdate       = "update"
	errorCodeDelete       = "delete"
	errorCodeRestore      = "restore"
	errorCodeDuplicate    = "duplicate"
	errorCodeInvalid      = "invalid"
)

// Store implements booking.Store using GORM.
type Store struct {
	db         *gorm.DB
	rowLocking bool
}

// New returns a Store backed by gorm.DB. Row locks on availability reads are
// emitted only for Postgres; SQLite has a single writer and no FOR UPDATE
// syntax.
func New(db *gorm.DB) *Store {
	return &Store{db: db, rowLocking: db.Dialector.Name() == "postgres"}
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction, rowLocking: store.rowLocking})
	})
}

func (store *Store) locked(query *gorm.DB) *gorm.DB {
	if store.rowLocking {
		return query.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: clause.CurrentTable}})
	}
	return query
}

func (store *Store) GetTableByNumber(ctx context.Context, number booking.TableNumber) (booking.Table, error) {
	var model Table
	err := store.locked(store.db.WithContext(ctx)).
		Preload("Department").
		Where("table_number = ?", number.Int()).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Table{}, wrapStoreError(errorSubjectTable, errorCodeGet, booking.ErrUnknownTable)
		}
		return booking.Table{}, wrapStoreError(errorSubjectTable, errorCodeGet, err)
	}
	table, err := mapTable(model)
	if err != nil {
		return booking.Table{}, wrapStoreError(errorSubjectTable, errorCodeInvalid, err)
	}
	return table, nil
}

func (store *Store) ListTablesBySeatCount(ctx context.Context, minSeats booking.GuestCount) ([]booking.Table, error) {
	var models []Table
	err := store.locked(store.db.WithContext(ctx)).
		Preload("Department").
		Where("seat_count >= ?", minSeats.Int()).
		Order("seat_count ASC, table_number ASC").
		Find(&models).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectTable, errorCodeList, err)
	}
	tables := make([]booking.Table, 0, len(models))
	for _, model := range models {
		table, err := mapTable(model)
		if err != nil {
			return nil, wrapStoreError(errorSubjectTable, errorCodeInvalid, err)
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func (store *Store) ListActiveOverlapping(ctx context.Context, tableID booking.TableID, window booking.Window, exclude *booking.ReservationID) ([]booking.Reservation, error) {
	active := make([]string, 0, 3)
	for _, status := range booking.ActiveStatuses() {
		active = append(active, status.String())
	}
	query := store.reservationQuery(ctx).
		Where("reservations.table_id = ?", tableID.String()).
		Where("reservations.status IN ?", active).
		Where("reservations.start_date < ? AND reservations.end_date > ?", window.End(), window.Start())
	if exclude != nil {
		query = query.Where("reservations.reservation_id <> ?", exclude.String())
	}
	var rows []reservationRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectRes, errorCodeList, err)
	}
	return mapReservations(rows)
}

func (store *Store) CreateReservation(ctx context.Context, input booking.ReservationInput) (booking.Reservation, error) {
	model := Reservation{
		UserID:     input.UserID.String(),
		TableID:    input.TableID.String(),
		ManagerID:  input.ManagerID.String(),
		StartDate:  input.Window.Start(),
		EndDate:    input.Window.End(),
		GuestCount: input.GuestCount.Int(),
		Services:   datatypesJSON(input.Services),
		Status:     input.Status.String(),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return booking.Reservation{}, wrapStoreError(errorSubjectRes, errorCodeCreate, err)
	}
	id, err := booking.NewReservationID(model.ReservationID)
	if err != nil {
		return booking.Reservation{}, wrapStoreError(errorSubjectRes, errorCodeInvalid, err)
	}
	return store.GetReservation(ctx, id)
}

func (store *Store) GetReservation(ctx context.Context, id booking.ReservationID) (booking.Reservation, error) {
	var row reservationRow
	err := store.locked(store.reservationQuery(ctx)).
		Where("reservations.reservation_id = ?", id.String()).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Reservation{}, wrapStoreError(errorSubjectRes, errorCodeGet, booking.ErrUnknownReservation)
		}
		return booking.Reservation{}, wrapStoreError(errorSubjectRes, errorCodeGet, err)
	}
	reservation, err := mapReservation(row)
	if err != nil {
		return booking.Reservation{}, wrapStoreError(errorSubjectRes, errorCodeInvalid, err)
	}
	return reservation, nil
}

func (store *Store) GetDeletedReservation(ctx context.Context, id booking.ReservationID) (booking.Reservation, error) {
	var row reservationRow
	err := store.reservationQueryUnscoped(ctx).
		Where("reservations.reservation_id = ?", id.String()).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Reservation{}, wrapStoreError(errorSubjectRes, errorCodeGet, booking.ErrUnknownReservation)
		}
		return booking.Reservation{}, wrapStoreError(errorSubjectRes, errorCodeGet, err)
	}
	if !row.DeletedAt.Valid {
		return booking.Reservation{}, wrapStoreError(errorSubjectRes, errorCodeGet, booking.ErrNotDeleted)
	}
	reservation, err := mapReservation(row)
	if err != nil {
		return booking.Reservation{}, wrapStoreError(errorSubjectRes, errorCodeInvalid, err)
	}
	return reservation, nil
}

func (store *Store) UpdateReservationStatus(ctx context.Context, id booking.ReservationID, from booking.Status, to booking.Status, at time.Time) error {
	updates := map[string]interface{}{"status": to.String()}
	switch to {
	case booking.StatusInService:
		updates["started_at"] = at
	case booking.StatusCompleted:
		updates["completed_at"] = at
	case booking.StatusCancelled:
		updates["cancelled_at"] = at
	}
	result := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("reservation_id = ? AND status = ?", id.String(), from.String()).
		Updates(updates)
	if result.Error != nil {
		return wrapStoreError(errorSubjectRes, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectRes, errorCodeUpdate, booking.ErrUnknownReservation)
	}
	return nil
}

func (store *Store) UpdateReservationBooking(ctx context.Context, id booking.ReservationID, tableID booking.TableID, window booking.Window, guestCount booking.GuestCount, services string) error {
	result := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("reservation_id = ?", id.String()).
		Updates(map[string]interface{}{
			"table_id":    tableID.String(),
			"start_date":  window.Start(),
			"end_date":    window.End(),
			"guest_count": guestCount.Int(),
			"services":    datatypesJSON(services),
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectRes, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectRes, errorCodeUpdate, booking.ErrUnknownReservation)
	}
	return nil
}

func (store *Store) CreateReservationDetail(ctx context.Context, detail booking.ReservationDetail) error {
	model := ReservationDetail{
		ReservationID:      detail.ReservationID.String(),
		CancellationReason: detail.CancellationReason,
		RejectionReason:    detail.RejectionReason,
		CancelledAt:        detail.CancelledAt,
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectDetail, errorCodeDuplicate, err)
	}
	if err != nil {
		return wrapStoreError(errorSubjectDetail, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) ListEmergencyCandidates(ctx context.Context, window booking.Window) ([]booking.Reservation, error) {
	var rows []reservationRow
	err := store.reservationQuery(ctx).
		Where("reservations.status IN ?", []string{booking.StatusPending.String(), booking.StatusConfirmed.String()}).
		Where("reservations.start_date >= ? AND reservations.end_date <= ?", window.Start(), window.End()).
		Order("reservations.start_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectRes, errorCodeList, err)
	}
	return mapReservations(rows)
}

func (store *Store) SoftDeleteReservation(ctx context.Context, id booking.ReservationID) error {
	result := store.db.WithContext(ctx).
		Where("reservation_id = ?", id.String()).
		Delete(&Reservation{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectRes, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectRes, errorCodeDelete, booking.ErrUnknownReservation)
	}
	return nil
}

func (store *Store) RestoreReservation(ctx context.Context, id booking.ReservationID) error {
	result := store.db.WithContext(ctx).
		Unscoped().
		Model(&Reservation{}).
		Where("reservation_id = ?", id.String()).
		Update("deleted_at", nil)
	if result.Error != nil {
		return wrapStoreError(errorSubjectRes, errorCodeRestore, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectRes, errorCodeRestore, booking.ErrUnknownReservation)
	}
	return nil
}

func (store *Store) ForceDeleteReservation(ctx context.Context, id booking.ReservationID) error {
	result := store.db.WithContext(ctx).
		Unscoped().
		Where("reservation_id = ?", id.String()).
		Delete(&Reservation{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectRes, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectRes, errorCodeDelete, booking.ErrUnknownReservation)
	}
	return nil
}

func (store *Store) ListReservationsByUser(ctx context.Context, userID booking.UserID, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	query := store.reservationQuery(ctx).Where("reservations.user_id = ?", userID.String())
	query = applyFilter(query, filter)
	var rows []reservationRow
	if err := query.Order("reservations.start_date DESC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectRes, errorCodeList, err)
	}
	return mapReservations(rows)
}

func (store *Store) ListReservationsByDepartment(ctx context.Context, departmentID booking.DepartmentID, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	query := store.reservationQuery(ctx).Where("tables.department_id = ?", departmentID.String())
	query = applyFilter(query, filter)
	var rows []reservationRow
	if err := query.Order("reservations.start_date DESC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectRes, errorCodeList, err)
	}
	return mapReservations(rows)
}

func (store *Store) GetNotificationSettings(ctx context.Context, userID booking.UserID) (booking.NotificationSettings, error) {
	var model NotificationSetting
	err := store.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.NotificationSettings{}, wrapStoreError(errorSubjectSettings, errorCodeGet, booking.ErrMissingNotificationSettings)
		}
		return booking.NotificationSettings{}, wrapStoreError(errorSubjectSettings, errorCodeGet, err)
	}
	channel, err := booking.ParseChannel(model.Channel)
	if err != nil {
		return booking.NotificationSettings{}, wrapStoreError(errorSubjectSettings, errorCodeInvalid, err)
	}
	return booking.NotificationSettings{
		Channel:        channel,
		Email:          model.Email,
		TelegramChatID: model.TelegramChatID,
	}, nil
}

func (store *Store) MarkEmailSent(ctx context.Context, id booking.ReservationID, at time.Time) error {
	result := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("reservation_id = ?", id.String()).
		Update("email_sent_at", at)
	if result.Error != nil {
		return wrapStoreError(errorSubjectRes, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectRes, errorCodeUpdate, booking.ErrUnknownReservation)
	}
	return nil
}

// reservationRow joins the owning table's department onto the reservation
// columns for the engine's authorization checks.
type reservationRow struct {
	Reservation
	TableDepartmentID string
}

func (store *Store) reservationQuery(ctx context.Context) *gorm.DB {
	return store.db.WithContext(ctx).
		Model(&Reservation{}).
		Select("reservations.*, tables.department_id AS table_department_id").
		Joins("JOIN tables ON tables.table_id = reservations.table_id")
}

func (store *Store) reservationQueryUnscoped(ctx context.Context) *gorm.DB {
	return store.db.WithContext(ctx).
		Unscoped().
		Model(&Reservation{}).
		Select("reservations.*, tables.department_id AS table_department_id").
		Joins("JOIN tables ON tables.table_id = reservations.table_id")
}

func applyFilter(query *gorm.DB, filter booking.ReservationFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("reservations.status = ?", filter.Status.String())
	}
	return query
}

func mapTable(model Table) (booking.Table, error) {
	tableID, err := booking.NewTableID(model.TableID)
	if err != nil {
		return booking.Table{}, err
	}
	number, err := booking.NewTableNumber(model.Number)
	if err != nil {
		return booking.Table{}, err
	}
	departmentID, err := booking.NewDepartmentID(model.DepartmentID)
	if err != nil {
		return booking.Table{}, err
	}
	table := booking.Table{
		ID:           tableID,
		Number:       number,
		SeatCount:    model.SeatCount,
		Location:     model.Location,
		DepartmentID: departmentID,
	}
	if model.Department.ManagerID != nil && *model.Department.ManagerID != "" {
		managerID, err := booking.NewUserID(*model.Department.ManagerID)
		if err != nil {
			return booking.Table{}, err
		}
		table.ManagerID = &managerID
	}
	return table, nil
}

func mapReservation(row reservationRow) (booking.Reservation, error) {
	id, err := booking.NewReservationID(row.ReservationID)
	if err != nil {
		return booking.Reservation{}, err
	}
	userID, err := booking.NewUserID(row.UserID)
	if err != nil {
		return booking.Reservation{}, err
	}
	tableID, err := booking.NewTableID(row.TableID)
	if err != nil {
		return booking.Reservation{}, err
	}
	departmentID, err := booking.NewDepartmentID(row.TableDepartmentID)
	if err != nil {
		return booking.Reservation{}, err
	}
	managerID, err := booking.NewUserID(row.ManagerID)
	if err != nil {
		return booking.Reservation{}, err
	}
	window, err := booking.NewWindow(row.StartDate, row.EndDate)
	if err != nil {
		return booking.Reservation{}, err
	}
	guestCount, err := booking.NewGuestCount(row.GuestCount)
	if err != nil {
		return booking.Reservation{}, err
	}
	status, err := booking.ParseStatus(row.Status)
	if err != nil {
		return booking.Reservation{}, err
	}
	reservation := booking.Reservation{
		ID:           id,
		UserID:       userID,
		TableID:      tableID,
		DepartmentID: departmentID,
		ManagerID:    managerID,
		Window:       window,
		GuestCount:   guestCount,
		Services:     string(row.Services),
		Status:       status,
		StartedAt:    row.StartedAt,
		CompletedAt:  row.CompletedAt,
		CancelledAt:  row.CancelledAt,
		EmailSentAt:  row.EmailSentAt,
	}
	if row.DeletedAt.Valid {
		deletedAt := row.DeletedAt.Time
		reservation.DeletedAt = &deletedAt
	}
	return reservation, nil
}

func mapReservations(rows []reservationRow) ([]booking.Reservation, error) {
	reservations := make([]booking.Reservation, 0, len(rows))
	for _, row := range rows {
		reservation, err := mapReservation(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectRes, errorCodeInvalid, err)
		}
		reservations = append(reservations, reservation)
	}
	return reservations, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return booking.WrapError(errorOperationStore, subject, code, err)
}

func datatypesJSON(raw string) datatypes.JSON {
	if raw == "" {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON([]byte(raw))
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
