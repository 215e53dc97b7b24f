// Package dispatch implements the core logic for matching emergency
// requests to hospitals and ambulances.
//
// It receives SOS intakes, ranks candidate hospitals through the
// scoring engine, claims the nearest available ambulance and drives the
// request through its lifecycle until completion.
//
// Key components:
//   - Coordinator: owns the request state machine and orchestrates
//     hospital confirmation, ambulance claims and driver actions.
//   - NearestAvailable: selects the closest free ambulance.
//   - Scheduler: arms the one-shot accept-timeout check that releases
//     and re-dispatches unanswered assignments.
//
// State machine:
//
//	pending -> assigned -> accepted -> enroute -> arrived -> completed
//
// with cancelled reachable from any non-terminal state. Driver actions
// must come from the ambulance currently assigned to the request.
//
// All collaborators (persistence, notification, authorization, metrics)
// are decoupled via interfaces, supporting testing and extension. The
// find-nearest-then-claim sequence relies on the Store's atomic
// ClaimAmbulance and retries against the next candidate on conflict, so
// two concurrent dispatches can never double-book one ambulance.
package dispatch
