// Package manager provides the administrative lifecycle of the hosted
// observation service. It is structured into small files by concern:
//
//   - controller.go: Controller state machine (startup, shutdown, activate,
//     deactivate, self test) and the single critical section guarding it.
//   - config.go: ControllerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: ServiceHandle, ServiceFactory and the default ObsService handle.
//   - backend.go: RegistrationBackend contract and its transient error categories.
//   - registrar.go: Registrar, register/deregister with poll-until-confirmed.
//   - activator.go: Activator, backend activation with fixed-interval retry.
//   - errors.go: error types and helpers (IsInvalidTransition, IsCannotTest).
//   - events.go: lifecycle events and the EventPublisher hook.
//
// State reads are lock-free. Transitions hold one mutex for their whole
// duration, including the blocking confirmation loops, so a concurrent admin
// call never observes a half-registered service.
//
// Retry and confirmation loops are unbounded by default. Callers that need a
// bound pass a cancellable context or set MaxPolls / MaxAttempts.
package manager
