// Package notify delivers scheduling block state changes to an external
// system.
//
// Two backends implement Notifier:
//   - ProcessNotifier runs the annotation tool once per event.
//   - RelayNotifier publishes the event on a relay topic.
//
// StateMonitor subscribes to the scheduling block state topic and dispatches
// matching events inline to the configured backend.
package notify
