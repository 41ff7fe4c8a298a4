package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/brigade/internal/cache"
	"github.com/MarkoPoloResearchLab/brigade/pkg/booking"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	headerUserID     = "X-User-Id"
	headerUserRole   = "X-User-Role"
	headerDepartment = "X-Department-Id"
)

// Config carries the HTTP façade settings.
type Config struct {
	ListenAddr     string
	AllowedOrigins []string
}

// Server maps engine outcomes to structured JSON responses. Identity arrives
// pre-validated in headers set by the gateway; the façade only parses it.
type Server struct {
	service *booking.Service
	views   *cache.Availability
	logger  *zap.Logger
}

// NewServer wires the façade. views may be nil to disable listing caches.
func NewServer(service *booking.Service, views *cache.Availability, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{service: service, views: views, logger: logger}
}

// Run serves the router until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg Config, server *Server) error {
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(cfg.AllowedOrigins),
	}
	errCh := make(chan error, 1)
	go func() {
		server.logger.Info("httpapi listening", zap.String("addr", cfg.ListenAddr))
		errCh <- httpServer.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			server.logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Router builds the gin engine.
func (server *Server) Router(allowedOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Origin", "Accept", headerUserID, headerUserRole, headerDepartment},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/reservations", server.handleCreate)
	api.GET("/reservations", server.handleListOwn)
	api.GET("/departments/:id/reservations", server.handleListDepartment)
	api.PATCH("/reservations/:id", server.handleUpdate)
	api.POST("/reservations/:id/confirm", server.handleConfirm)
	api.POST("/reservations/:id/reject", server.handleReject)
	api.POST("/reservations/:id/cancel", server.handleCancel)
	api.POST("/reservations/:id/start", server.handleStartService)
	api.POST("/reservations/:id/complete", server.handleCompleteService)
	api.POST("/reservations/:id/restore", server.handleRestore)
	api.DELETE("/reservations/:id", server.handleSoftDelete)
	api.DELETE("/reservations/:id/force", server.handleForceDelete)
	return router
}

type bookingPayload struct {
	TableNumber *int            `json:"table_number"`
	GuestCount  int             `json:"guest_count"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	Services    json.RawMessage `json:"services"`
}

type reasonPayload struct {
	Reason string `json:"reason"`
}

type reservationPayload struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	TableID      string          `json:"table_id"`
	DepartmentID string          `json:"department_id"`
	ManagerID    string          `json:"manager_id"`
	Start        time.Time       `json:"start"`
	End          time.Time       `json:"end"`
	GuestCount   int             `json:"guest_count"`
	Services     json.RawMessage `json:"services,omitempty"`
	Status       string          `json:"status"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
}

func (server *Server) handleCreate(ctx *gin.Context) {
	actor, ok := server.actorFrom(ctx)
	if !ok {
		return
	}
	request, ok := server.bookingRequestFrom(ctx)
	if !ok {
		return
	}
	reservation, err := server.service.Create(ctx.Request.Context(), actor.UserID, request)
	if err != nil {
		server.writeEngineError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"reservation": renderReservation(reservation)})
}

func (server *Server) handleListOwn(ctx *gin.Context) {
	actor, ok := server.actorFrom(ctx)
	if !ok {
		return
	}
	filter, ok := server.filterFrom(ctx)
	if !ok {
		return
	}
	fetch := func(fetchCtx context.Context) ([]byte, error) {
		reservations, err := server.service.ListByUser(fetchCtx, actor, actor.UserID, filter)
		if err != nil {
			return nil, err
		}
		return json.Marshal(gin.H{"reservations": renderReservations(reservations)})
	}
	var body []byte
	var err error
	if server.views != nil && actor.Role == booking.RoleCustomer {
		body, err = server.views.Remember(ctx.Request.Context(), actor.UserID, filter, fetch)
	} else {
		body, err = fetch(ctx.Request.Context())
	}
	if err != nil {
		server.writeEngineError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (server *Server) handleListDepartment(ctx *gin.Context) {
	actor, ok := server.actorFrom(ctx)
	if !ok {
		return
	}
	departmentID, err := booking.NewDepartmentID(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_department", "invalid department id"))
		return
	}
	filter, ok := server.filterFrom(ctx)
	if !ok {
		return
	}
	reservations, err := server.service.ListByDepartment(ctx.Request.Context(), actor, departmentID, filter)
	if err != nil {
		server.writeEngineError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reservations": renderReservations(reservations)})
}

func (server *Server) handleUpdate(ctx *gin.Context) {
	actor, ok := server.actorFrom(ctx)
	if !ok {
		return
	}
	reservationID, ok := server.reservationIDFrom(ctx)
	if !ok {
		return
	}
	request, ok := server.bookingRequestFrom(ctx)
	if !ok {
		return
	}
	reservation, err := server.service.Update(ctx.Request.Context(), actor, reservationID, request)
	if err != nil {
		server.writeEngineError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reservation": renderReservation(reservation)})
}

func (server *Server) handleConfirm(ctx *gin.Context) {
	server.transition(ctx, func(requestCtx context.Context, actor booking.Actor, id booking.ReservationID) error {
		return server.service.Confirm(requestCtx, actor, id)
	})
}

func (server *Server) handleReject(ctx *gin.Context) {
	server.reasonedTransition(ctx, func(requestCtx context.Context, actor booking.Actor, id booking.ReservationID, reason booking.Reason) error {
		return server.service.Reject(requestCtx, actor, id, reason)
	})
}

func (server *Server) handleCancel(ctx *gin.Context) {
	server.reasonedTransition(ctx, func(requestCtx context.Context, actor booking.Actor, id booking.ReservationID, reason booking.Reason) error {
		return server.service.Cancel(requestCtx, actor, id, reason)
	})
}

func (server *Server) handleStartService(ctx *gin.Context) {
	server.transition(ctx, func(requestCtx context.Context, actor booking.Actor, id booking.ReservationID) error {
		return server.service.StartService(requestCtx, actor, id)
	})
}

func (server *Server) handleCompleteService(ctx *gin.Context) {
	server.transition(ctx, func(requestCtx context.Context, actor booking.Actor, id booking.ReservationID) error {
		return server.service.CompleteService(requestCtx, actor, id)
	})
}

func (server *Server) handleSoftDelete(ctx *gin.Context) {
	server.transition(ctx, func(requestCtx context.Context, actor booking.Actor, id booking.ReservationID) error {
		return server.service.SoftDelete(requestCtx, actor, id)
	})
}

func (server *Server) handleForceDelete(ctx *gin.Context) {
	server.transition(ctx, func(requestCtx context.Context, actor booking.Actor, id booking.ReservationID) error {
		return server.service.ForceDelete(requestCtx, actor, id)
	})
}

func (server *Server) handleRestore(ctx *gin.Context) {
	server.transition(ctx, func(requestCtx context.Context, actor booking.Actor, id booking.ReservationID) error {
		return server.service.Restore(requestCtx, actor, id)
	})
}

func (server *Server) transition(ctx *gin.Context, operation func(context.Context, booking.Actor, booking.ReservationID) error) {
	actor, ok := server.actorFrom(ctx)
	if !ok {
		return
	}
	reservationID, ok := server.reservationIDFrom(ctx)
	if !ok {
		return
	}
	if err := operation(ctx.Request.Context(), actor, reservationID); err != nil {
		server.writeEngineError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (server *Server) reasonedTransition(ctx *gin.Context, operation func(context.Context, booking.Actor, booking.ReservationID, booking.Reason) error) {
	actor, ok := server.actorFrom(ctx)
	if !ok {
		return
	}
	reservationID, ok := server.reservationIDFrom(ctx)
	if !ok {
		return
	}
	var payload reasonPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	reason, err := booking.NewReason(payload.Reason)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_reason", "reason must not be empty"))
		return
	}
	if err := operation(ctx.Request.Context(), actor, reservationID, reason); err != nil {
		server.writeEngineError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (server *Server) actorFrom(ctx *gin.Context) (booking.Actor, bool) {
	userID, err := booking.NewUserID(ctx.GetHeader(headerUserID))
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing user identity"))
		return booking.Actor{}, false
	}
	role, ok := parseRole(ctx.GetHeader(headerUserRole))
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing or unknown role"))
		return booking.Actor{}, false
	}
	actor := booking.Actor{UserID: userID, Role: role}
	if rawDepartment := ctx.GetHeader(headerDepartment); rawDepartment != "" {
		departmentID, err := booking.NewDepartmentID(rawDepartment)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, errorResponse("invalid_department", "invalid department id"))
			return booking.Actor{}, false
		}
		actor.DepartmentID = &departmentID
	}
	return actor, true
}

func (server *Server) reservationIDFrom(ctx *gin.Context) (booking.ReservationID, bool) {
	reservationID, err := booking.NewReservationID(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_reservation", "invalid reservation id"))
		return booking.ReservationID{}, false
	}
	return reservationID, true
}

func (server *Server) bookingRequestFrom(ctx *gin.Context) (booking.BookingRequest, bool) {
	var payload bookingPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return booking.BookingRequest{}, false
	}
	guestCount, err := booking.NewGuestCount(payload.GuestCount)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_guest_count", "guest count must be positive"))
		return booking.BookingRequest{}, false
	}
	window, err := booking.NewWindow(payload.Start, payload.End)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_window", "start must precede end"))
		return booking.BookingRequest{}, false
	}
	request := booking.BookingRequest{
		GuestCount: guestCount,
		Window:     window,
		Services:   string(payload.Services),
	}
	if payload.TableNumber != nil {
		tableNumber, err := booking.NewTableNumber(*payload.TableNumber)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, errorResponse("invalid_table_number", "table number must be positive"))
			return booking.BookingRequest{}, false
		}
		request.TableNumber = &tableNumber
	}
	return request, true
}

func (server *Server) filterFrom(ctx *gin.Context) (booking.ReservationFilter, bool) {
	raw := ctx.Query("status")
	if raw == "" {
		return booking.ReservationFilter{}, true
	}
	status, err := booking.ParseStatus(raw)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_status", "unknown status filter"))
		return booking.ReservationFilter{}, false
	}
	return booking.ReservationFilter{Status: &status}, true
}

func (server *Server) writeEngineError(ctx *gin.Context, err error) {
	var conflict booking.ConflictError
	if errors.As(err, &conflict) {
		occupied := make([]int, 0, len(conflict.OccupiedTables))
		for _, number := range conflict.OccupiedTables {
			occupied = append(occupied, number.Int())
		}
		ctx.JSON(http.StatusConflict, gin.H{
			"error": gin.H{
				"code":            "time_slot_unavailable",
				"message":         conflict.Error(),
				"occupied_tables": occupied,
			},
		})
		return
	}
	switch {
	case errors.Is(err, booking.ErrUnknownReservation), errors.Is(err, booking.ErrUnknownTable):
		ctx.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	case errors.Is(err, booking.ErrForbidden):
		ctx.JSON(http.StatusForbidden, errorResponse("forbidden", "operation not permitted for this actor"))
	case errors.Is(err, booking.ErrTimeSlotUnavailable),
		errors.Is(err, booking.ErrNotPending),
		errors.Is(err, booking.ErrNotConfirmed),
		errors.Is(err, booking.ErrNotInService),
		errors.Is(err, booking.ErrNotDeleted),
		errors.Is(err, booking.ErrRestoreConflict):
		ctx.JSON(http.StatusConflict, errorResponse("conflict", err.Error()))
	case errors.Is(err, booking.ErrCapacityExceeded),
		errors.Is(err, booking.ErrWindowTooLong),
		errors.Is(err, booking.ErrWindowCrossesDays),
		errors.Is(err, booking.ErrWindowTooFarAhead),
		errors.Is(err, booking.ErrStartDatePassed),
		errors.Is(err, booking.ErrMissingManager),
		errors.Is(err, booking.ErrMissingNotificationSettings),
		errors.Is(err, booking.ErrInvalidWindow),
		errors.Is(err, booking.ErrInvalidGuestCount),
		errors.Is(err, booking.ErrInvalidTableNumber),
		errors.Is(err, booking.ErrInvalidStatus),
		errors.Is(err, booking.ErrInvalidReason):
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_request", err.Error()))
	default:
		server.logger.Error("reservation operation failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal", "internal error"))
	}
}

func parseRole(raw string) (booking.ActorRole, bool) {
	switch booking.ActorRole(raw) {
	case booking.RoleCustomer, booking.RoleManager, booking.RoleAdmin:
		return booking.ActorRole(raw), true
	}
	return "", false
}

func renderReservation(reservation booking.Reservation) reservationPayload {
	payload := reservationPayload{
		ID:           reservation.ID.String(),
		UserID:       reservation.UserID.String(),
		TableID:      reservation.TableID.String(),
		DepartmentID: reservation.DepartmentID.String(),
		ManagerID:    reservation.ManagerID.String(),
		Start:        reservation.Window.Start(),
		End:          reservation.Window.End(),
		GuestCount:   reservation.GuestCount.Int(),
		Status:       reservation.Status.String(),
		StartedAt:    reservation.StartedAt,
		CompletedAt:  reservation.CompletedAt,
		CancelledAt:  reservation.CancelledAt,
	}
	if reservation.Services != "" && reservation.Services != "null" {
		payload.Services = json.RawMessage(reservation.Services)
	}
	return payload
}

func renderReservations(reservations []booking.Reservation) []reservationPayload {
	payloads := make([]reservationPayload, 0, len(reservations))
	for _, reservation := range reservations {
		payloads = append(payloads, renderReservation(reservation))
	}
	return payloads
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}
