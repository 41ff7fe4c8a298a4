package booking

import "time"

const (
	operationCreate          = "create"
	operationConfirm         = "confirm"
	operationReject          = "reject"
	operationCancel          = "cancel"
	operationStartService    = "start_service"
	operationCompleteService = "complete_service"
	operationUpdate          = "update"
	operationEmergencyCancel = "emergency_cancel"
	operationSoftDelete      = "soft_delete"
	operationForceDelete     = "force_delete"
	operationRestore         = "restore"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	maxReservationDuration = 6 * time.Hour
	reservationHorizon     = 14 * 24 * time.Hour
)
