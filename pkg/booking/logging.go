package booking

import "context"

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing booking operation.
type OperationLog struct {
	Operation     string
	ActorID       UserID
	ReservationID *ReservationID
	TableID       *TableID
	Status        string
	Error         error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithDispatcher wires the asynchronous notification coordinator. Dispatch is
// invoked only after a successful commit.
func WithDispatcher(dispatcher Dispatcher) ServiceOption {
	return func(service *Service) {
		service.dispatcher = dispatcher
	}
}

// WithAvailabilityCache wires the availability-view cache invalidated on
// every successful state change.
func WithAvailabilityCache(cache CacheInvalidator) ServiceOption {
	return func(service *Service) {
		service.cache = cache
	}
}
