package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/brigade/pkg/booking"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	constraintDetailPrimary = "reservation_details_pkey"
	pgUniqueViolationCode   = "23505"
	errorOperationStore     = "store"
	errorSubjectTable       = "table"
	errorSubjectReservation = "reservation"
	errorSubjectDetail      = "detail"
	errorSubjectSettings    = "settings"
	errorSubjectTransaction = "transaction"
	errorCodeBegin          = "begin"
	errorCodeCommit         = "commit"
	errorCodeCreate         = "create"
	errorCodeDelete         = "delete"
	errorCodeDuplicate      = "duplicate"
	errorCodeGet            = "get"
	errorCodeInvalid        = "invalid"
	errorCodeList           = "list"
	errorCodeRestore        = "restore"
	errorCodeUpdate         = "update"

	sqlSelectTableByNumber = `
		select t.table_id::text, t.table_number, t.seat_count, coalesce(t.location,''),
			t.department_id::text, coalesce(d.manager_id,'')
		from tables t
		join departments d on d.department_id = t.department_id
		where t.table_number = $1 and t.deleted_at is null
		for update of t
	`

	sqlListTablesBySeatCount = `
		select t.table_id::text, t.table_number, t.seat_count, coalesce(t.location,''),
			t.department_id::text, coalesce(d.manager_id,'')
		from tables t
		join departments d on d.department_id = t.department_id
		where t.seat_count >= $1 and t.deleted_at is null
		order by t.seat_count asc, t.table_number asc
		for update of t
	`

	sqlReservationColumns = `
		r.reservation_id::text, r.user_id, r.table_id::text, t.department_id::text,
		r.manager_id, r.start_date, r.end_date, r.guest_count,
		coalesce(r.services::text,'null'), r.status,
		r.started_at, r.completed_at, r.cancelled_at, r.email_sent_at, r.deleted_at
	`

	sqlReservationFrom = `
		from reservations r
		join tables t on t.table_id = r.table_id
	`

	sqlSelectReservation = `select ` + sqlReservationColumns + sqlReservationFrom + `
		where r.reservation_id = $1 and r.deleted_at is null
		for update of r
	`

	sqlSelectReservationUnscoped = `select ` + sqlReservationColumns + sqlReservationFrom + `
		where r.reservation_id = $1
	`

	sqlListActiveOverlapping = `select ` + sqlReservationColumns + sqlReservationFrom + `
		where r.table_id = $1
		and r.deleted_at is null
		and r.status in ('pending','confirmed','in_service')
		and r.start_date < $3 and r.end_date > $2
		and ($4::text is null or r.reservation_id::text <> $4)
	`

	sqlInsertReservation = `
		insert into reservations(
			reservation_id, user_id, table_id, manager_id,
			start_date, end_date, guest_count, services, status, created_at, updated_at
		)
		values(gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7::jsonb, $8, now(), now())
		returning reservation_id::text
	`

	sqlUpdateReservationStatus = `
		update reservations
		set status = $3,
			started_at = case when $3 = 'in_service' then $4 else started_at end,
			completed_at = case when $3 = 'completed' then $4 else completed_at end,
			cancelled_at = case when $3 = 'cancelled' then $4 else cancelled_at end,
			updated_at = now()
		where reservation_id = $1 and status = $2 and deleted_at is null
	`

	sqlUpdateReservationBooking = `
		update reservations
		set table_id = $2, start_date = $3, end_date = $4, guest_count = $5,
			services = $6::jsonb, updated_at = now()
		where reservation_id = $1 and deleted_at is null
	`

	sqlInsertDetail = `
		insert into reservation_details(reservation_id, cancellation_reason, rejection_reason, cancelled_at, created_at)
		values($1, $2, $3, $4, now())
	`

	sqlListEmergencyCandidates = `select ` + sqlReservationColumns + sqlReservationFrom + `
		where r.deleted_at is null
		and r.status in ('pending','confirmed')
		and r.start_date >= $1 and r.end_date <= $2
		order by r.start_date asc
	`

	sqlSoftDeleteReservation = `
		update reservations set deleted_at = now(), updated_at = now()
		where reservation_id = $1 and deleted_at is null
	`

	sqlRestoreReservation = `
		update reservations set deleted_at = null, updated_at = now()
		where reservation_id = $1
	`

	sqlForceDeleteReservation = `
		delete from reservations where reservation_id = $1
	`

	sqlListReservationsByUser = `select ` + sqlReservationColumns + sqlReservationFrom + `
		where r.user_id = $1 and r.deleted_at is null
		and ($2::text is null or r.status = $2)
		order by r.start_date desc
	`

	sqlListReservationsByDepartment = `select ` + sqlReservationColumns + sqlReservationFrom + `
		where t.department_id = $1 and r.deleted_at is null
		and ($2::text is null or r.status = $2)
		order by r.start_date desc
	`

	sqlSelectNotificationSettings = `
		select channel, coalesce(email,''), coalesce(telegram_chat_id,'')
		from notification_settings
		where user_id = $1
	`

	sqlMarkEmailSent = `
		update reservations set email_sent_at = $2, updated_at = now()
		where reservation_id = $1
	`
)

// querier is satisfied by both pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements booking.Store using a pgx connection pool (autocommit).
type Store struct {
	pool *pgxpool.Pool
}

// TxStore implements booking.Store for an active transaction.
type TxStore struct {
	tx pgx.Tx
}

// New returns a Store backed by a pgx pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	tx, err := store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeBegin, err)
	}
	transactionStore := &TxStore{tx: tx}
	if err := fn(ctx, transactionStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeCommit, err)
	}
	return nil
}

func (store *Store) GetTableByNumber(ctx context.Context, number booking.TableNumber) (booking.Table, error) {
	return getTableByNumber(ctx, store.pool, number)
}

func (store *Store) ListTablesBySeatCount(ctx context.Context, minSeats booking.GuestCount) ([]booking.Table, error) {
	return listTablesBySeatCount(ctx, store.pool, minSeats)
}

func (store *Store) ListActiveOverlapping(ctx context.Context, tableID booking.TableID, window booking.Window, exclude *booking.ReservationID) ([]booking.Reservation, error) {
	return listActiveOverlapping(ctx, store.pool, tableID, window, exclude)
}

func (store *Store) CreateReservation(ctx context.Context, input booking.ReservationInput) (booking.Reservation, error) {
	return createReservation(ctx, store.pool, input)
}

func (store *Store) GetReservation(ctx context.Context, id booking.ReservationID) (booking.Reservation, error) {
	return getReservation(ctx, store.pool, id)
}

func (store *Store) GetDeletedReservation(ctx context.Context, id booking.ReservationID) (booking.Reservation, error) {
	return getDeletedReservation(ctx, store.pool, id)
}

func (store *Store) UpdateReservationStatus(ctx context.Context, id booking.ReservationID, from booking.Status, to booking.Status, at time.Time) error {
	return updateReservationStatus(ctx, store.pool, id, from, to, at)
}

func (store *Store) UpdateReservationBooking(ctx context.Context, id booking.ReservationID, tableID booking.TableID, window booking.Window, guestCount booking.GuestCount, services string) error {
	return updateReservationBooking(ctx, store.pool, id, tableID, window, guestCount, services)
}

func (store *Store) CreateReservationDetail(ctx context.Context, detail booking.ReservationDetail) error {
	return createReservationDetail(ctx, store.pool, detail)
}

func (store *Store) ListEmergencyCandidates(ctx context.Context, window booking.Window) ([]booking.Reservation, error) {
	return listEmergencyCandidates(ctx, store.pool, window)
}

func (store *Store) SoftDeleteReservation(ctx context.Context, id booking.ReservationID) error {
	return execReservation(ctx, store.pool, sqlSoftDeleteReservation, errorCodeDelete, id.String())
}

func (store *Store) RestoreReservation(ctx context.Context, id booking.ReservationID) error {
	return execReservation(ctx, store.pool, sqlRestoreReservation, errorCodeRestore, id.String())
}

func (store *Store) ForceDeleteReservation(ctx context.Context, id booking.ReservationID) error {
	return execReservation(ctx, store.pool, sqlForceDeleteReservation, errorCodeDelete, id.String())
}

func (store *Store) ListReservationsByUser(ctx context.Context, userID booking.UserID, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	return listReservations(ctx, store.pool, sqlListReservationsByUser, userID.String(), filter)
}

func (store *Store) ListReservationsByDepartment(ctx context.Context, departmentID booking.DepartmentID, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	return listReservations(ctx, store.pool, sqlListReservationsByDepartment, departmentID.String(), filter)
}

func (store *Store) GetNotificationSettings(ctx context.Context, userID booking.UserID) (booking.NotificationSettings, error) {
	return getNotificationSettings(ctx, store.pool, userID)
}

func (store *Store) MarkEmailSent(ctx context.Context, id booking.ReservationID, at time.Time) error {
	return execReservation(ctx, store.pool, sqlMarkEmailSent, errorCodeUpdate, id.String(), at)
}

func (store *TxStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	return fn(ctx, store)
}

func (store *TxStore) GetTableByNumber(ctx context.Context, number booking.TableNumber) (booking.Table, error) {
	return getTableByNumber(ctx, store.tx, number)
}

func (store *TxStore) ListTablesBySeatCount(ctx context.Context, minSeats booking.GuestCount) ([]booking.Table, error) {
	return listTablesBySeatCount(ctx, store.tx, minSeats)
}

func (store *TxStore) ListActiveOverlapping(ctx context.Context, tableID booking.TableID, window booking.Window, exclude *booking.ReservationID) ([]booking.Reservation, error) {
	return listActiveOverlapping(ctx, store.tx, tableID, window, exclude)
}

func (store *TxStore) CreateReservation(ctx context.Context, input booking.ReservationInput) (booking.Reservation, error) {
	return createReservation(ctx, store.tx, input)
}

func (store *TxStore) GetReservation(ctx context.Context, id booking.ReservationID) (booking.Reservation, error) {
	return getReservation(ctx, store.tx, id)
}

func (store *TxStore) GetDeletedReservation(ctx context.Context, id booking.ReservationID) (booking.Reservation, error) {
	return getDeletedReservation(ctx, store.tx, id)
}

func (store *TxStore) UpdateReservationStatus(ctx context.Context, id booking.ReservationID, from booking.Status, to booking.Status, at time.Time) error {
	return updateReservationStatus(ctx, store.tx, id, from, to, at)
}

func (store *TxStore) UpdateReservationBooking(ctx context.Context, id booking.ReservationID, tableID booking.TableID, window booking.Window, guestCount booking.GuestCount, services string) error {
	return updateReservationBooking(ctx, store.tx, id, tableID, window, guestCount, services)
}

func (store *TxStore) CreateReservationDetail(ctx context.Context, detail booking.ReservationDetail) error {
	return createReservationDetail(ctx, store.tx, detail)
}

func (store *TxStore) ListEmergencyCandidates(ctx context.Context, window booking.Window) ([]booking.Reservation, error) {
	return listEmergencyCandidates(ctx, store.tx, window)
}

func (store *TxStore) SoftDeleteReservation(ctx context.Context, id booking.ReservationID) error {
	return execReservation(ctx, store.tx, sqlSoftDeleteReservation, errorCodeDelete, id.String())
}

func (store *TxStore) RestoreReservation(ctx context.Context, id booking.ReservationID) error {
	return execReservation(ctx, store.tx, sqlRestoreReservation, errorCodeRestore, id.String())
}

func (store *TxStore) ForceDeleteReservation(ctx context.Context, id booking.ReservationID) error {
	return execReservation(ctx, store.tx, sqlForceDeleteReservation, errorCodeDelete, id.String())
}

func (store *TxStore) ListReservationsByUser(ctx context.Context, userID booking.UserID, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	return listReservations(ctx, store.tx, sqlListReservationsByUser, userID.String(), filter)
}

func (store *TxStore) ListReservationsByDepartment(ctx context.Context, departmentID booking.DepartmentID, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	return listReservations(ctx, store.tx, sqlListReservationsByDepartment, departmentID.String(), filter)
}

func (store *TxStore) GetNotificationSettings(ctx context.Context, userID booking.UserID) (booking.NotificationSettings, error) {
	return getNotificationSettings(ctx, store.tx, userID)
}

func (store *TxStore) MarkEmailSent(ctx context.Context, id booking.ReservationID, at time.Time) error {
	return execReservation(ctx, store.tx, sqlMarkEmailSent, errorCodeUpdate, id.String(), at)
}

func getTableByNumber(ctx context.Context, db querier, number booking.TableNumber) (booking.Table, error) {
	table, err := scanTable(db.QueryRow(ctx, sqlSelectTableByNumber, number.Int()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.Table{}, wrapStoreError(errorSubjectTable, errorCodeGet, booking.ErrUnknownTable)
		}
		return booking.Table{}, wrapStoreError(errorSubjectTable, errorCodeGet, err)
	}
	return table, nil
}

func listTablesBySeatCount(ctx context.Context, db querier, minSeats booking.GuestCount) ([]booking.Table, error) {
	rows, err := db.Query(ctx, sqlListTablesBySeatCount, minSeats.Int())
	if err != nil {
		return nil, wrapStoreError(errorSubjectTable, errorCodeList, err)
	}
	defer rows.Close()
	tables := make([]booking.Table, 0, 8)
	for rows.Next() {
		table, err := scanTable(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectTable, errorCodeInvalid, err)
		}
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectTable, errorCodeList, err)
	}
	return tables, nil
}

func listActiveOverlapping(ctx context.Context, db querier, tableID booking.TableID, window booking.Window, exclude *booking.ReservationID) ([]booking.Reservation, error) {
	var excludeValue *string
	if exclude != nil {
		value := exclude.String()
		excludeValue = &value
	}
	rows, err := db.Query(ctx, sqlListActiveOverlapping, tableID.String(), window.Start(), window.End(), excludeValue)
	if err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeList, err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func createReservation(ctx context.Context, db querier, input booking.ReservationInput) (booking.Reservation, error) {
	var idValue string
	err := db.QueryRow(ctx, sqlInsertReservation,
		input.UserID.String(),
		input.TableID.String(),
		input.ManagerID.String(),
		input.Window.Start(),
		input.Window.End(),
		input.GuestCount.Int(),
		jsonOrNull(input.Services),
		input.Status.String(),
	).Scan(&idValue)
	if err != nil {
		return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeCreate, err)
	}
	id, err := booking.NewReservationID(idValue)
	if err != nil {
		return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	return getReservation(ctx, db, id)
}

func getReservation(ctx context.Context, db querier, id booking.ReservationID) (booking.Reservation, error) {
	reservation, err := scanReservation(db.QueryRow(ctx, sqlSelectReservation, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, booking.ErrUnknownReservation)
		}
		return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, err)
	}
	return reservation, nil
}

func getDeletedReservation(ctx context.Context, db querier, id booking.ReservationID) (booking.Reservation, error) {
	reservation, err := scanReservation(db.QueryRow(ctx, sqlSelectReservationUnscoped, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, booking.ErrUnknownReservation)
		}
		return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, err)
	}
	if reservation.DeletedAt == nil {
		return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, booking.ErrNotDeleted)
	}
	return reservation, nil
}

func updateReservationStatus(ctx context.Context, db querier, id booking.ReservationID, from booking.Status, to booking.Status, at time.Time) error {
	tag, err := db.Exec(ctx, sqlUpdateReservationStatus, id.String(), from.String(), to.String(), at)
	if err != nil {
		return wrapStoreError(errorSubjectReservation, errorCodeUpdate, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectReservation, errorCodeUpdate, booking.ErrUnknownReservation)
	}
	return nil
}

func updateReservationBooking(ctx context.Context, db querier, id booking.ReservationID, tableID booking.TableID, window booking.Window, guestCount booking.GuestCount, services string) error {
	tag, err := db.Exec(ctx, sqlUpdateReservationBooking,
		id.String(), tableID.String(), window.Start(), window.End(), guestCount.Int(), jsonOrNull(services))
	if err != nil {
		return wrapStoreError(errorSubjectReservation, errorCodeUpdate, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectReservation, errorCodeUpdate, booking.ErrUnknownReservation)
	}
	return nil
}

func createReservationDetail(ctx context.Context, db querier, detail booking.ReservationDetail) error {
	_, err := db.Exec(ctx, sqlInsertDetail,
		detail.ReservationID.String(), detail.CancellationReason, detail.RejectionReason, detail.CancelledAt)
	if isDetailConflict(err) {
		return wrapStoreError(errorSubjectDetail, errorCodeDuplicate, err)
	}
	if err != nil {
		return wrapStoreError(errorSubjectDetail, errorCodeCreate, err)
	}
	return nil
}

func listEmergencyCandidates(ctx context.Context, db querier, window booking.Window) ([]booking.Reservation, error) {
	rows, err := db.Query(ctx, sqlListEmergencyCandidates, window.Start(), window.End())
	if err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeList, err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func listReservations(ctx context.Context, db querier, sql string, key string, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	var statusValue *string
	if filter.Status != nil {
		value := filter.Status.String()
		statusValue = &value
	}
	rows, err := db.Query(ctx, sql, key, statusValue)
	if err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeList, err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func getNotificationSettings(ctx context.Context, db querier, userID booking.UserID) (booking.NotificationSettings, error) {
	var (
		channelValue  string
		emailValue    string
		telegramValue string
	)
	err := db.QueryRow(ctx, sqlSelectNotificationSettings, userID.String()).Scan(&channelValue, &emailValue, &telegramValue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.NotificationSettings{}, wrapStoreError(errorSubjectSettings, errorCodeGet, booking.ErrMissingNotificationSettings)
		}
		return booking.NotificationSettings{}, wrapStoreError(errorSubjectSettings, errorCodeGet, err)
	}
	channel, err := booking.ParseChannel(channelValue)
	if err != nil {
		return booking.NotificationSettings{}, wrapStoreError(errorSubjectSettings, errorCodeInvalid, err)
	}
	return booking.NotificationSettings{
		Channel:        channel,
		Email:          emailValue,
		TelegramChatID: telegramValue,
	}, nil
}

func execReservation(ctx context.Context, db querier, sql string, code string, args ...any) error {
	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return wrapStoreError(errorSubjectReservation, code, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectReservation, code, booking.ErrUnknownReservation)
	}
	return nil
}

func scanTable(row pgx.Row) (booking.Table, error) {
	var (
		tableIDValue      string
		numberValue       int
		seatCountValue    int
		locationValue     string
		departmentIDValue string
		managerIDValue    string
	)
	if err := row.Scan(&tableIDValue, &numberValue, &seatCountValue, &locationValue, &departmentIDValue, &managerIDValue); err != nil {
		return booking.Table{}, err
	}
	tableID, err := booking.NewTableID(tableIDValue)
	if err != nil {
		return booking.Table{}, err
	}
	number, err := booking.NewTableNumber(numberValue)
	if err != nil {
		return booking.Table{}, err
	}
	departmentID, err := booking.NewDepartmentID(departmentIDValue)
	if err != nil {
		return booking.Table{}, err
	}
	table := booking.Table{
		ID:           tableID,
		Number:       number,
		SeatCount:    seatCountValue,
		Location:     locationValue,
		DepartmentID: departmentID,
	}
	if managerIDValue != "" {
		managerID, err := booking.NewUserID(managerIDValue)
		if err != nil {
			return booking.Table{}, err
		}
		table.ManagerID = &managerID
	}
	return table, nil
}

func scanReservation(row pgx.Row) (booking.Reservation, error) {
	var (
		idValue           string
		userIDValue       string
		tableIDValue      string
		departmentIDValue string
		managerIDValue    string
		startValue        time.Time
		endValue          time.Time
		guestCountValue   int
		servicesValue     string
		statusValue       string
		startedAt         *time.Time
		completedAt       *time.Time
		cancelledAt       *time.Time
		emailSentAt       *time.Time
		deletedAt         *time.Time
	)
	err := row.Scan(
		&idValue,
		&userIDValue,
		&tableIDValue,
		&departmentIDValue,
		&managerIDValue,
		&startValue,
		&endValue,
		&guestCountValue,
		&servicesValue,
		&statusValue,
		&startedAt,
		&completedAt,
		&cancelledAt,
		&emailSentAt,
		&deletedAt,
	)
	if err != nil {
		return booking.Reservation{}, err
	}
	id, err := booking.NewReservationID(idValue)
	if err != nil {
		return booking.Reservation{}, err
	}
	userID, err := booking.NewUserID(userIDValue)
	if err != nil {
		return booking.Reservation{}, err
	}
	tableID, err := booking.NewTableID(tableIDValue)
	if err != nil {
		return booking.Reservation{}, err
	}
	departmentID, err := booking.NewDepartmentID(departmentIDValue)
	if err != nil {
		return booking.Reservation{}, err
	}
	managerID, err := booking.NewUserID(managerIDValue)
	if err != nil {
		return booking.Reservation{}, err
	}
	window, err := booking.NewWindow(startValue, endValue)
	if err != nil {
		return booking.Reservation{}, err
	}
	guestCount, err := booking.NewGuestCount(guestCountValue)
	if err != nil {
		return booking.Reservation{}, err
	}
	status, err := booking.ParseStatus(statusValue)
	if err != nil {
		return booking.Reservation{}, err
	}
	return booking.Reservation{
		ID:           id,
		UserID:       userID,
		TableID:      tableID,
		DepartmentID: departmentID,
		ManagerID:    managerID,
		Window:       window,
		GuestCount:   guestCount,
		Services:     servicesValue,
		Status:       status,
		StartedAt:    startedAt,
		CompletedAt:  completedAt,
		CancelledAt:  cancelledAt,
		EmailSentAt:  emailSentAt,
		DeletedAt:    deletedAt,
	}, nil
}

func collectReservations(rows pgx.Rows) ([]booking.Reservation, error) {
	reservations := make([]booking.Reservation, 0, 16)
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeList, err)
	}
	return reservations, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return booking.WrapError(errorOperationStore, subject, code, err)
}

func jsonOrNull(raw string) string {
	if raw == "" {
		return "null"
	}
	return raw
}

func isDetailConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintDetailPrimary
	}
	return false
}
