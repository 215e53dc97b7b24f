// Package scoring implements the hospital readiness scorer and the
// candidate ranker.
//
// The composite score combines six factors:
//   - facility:   does the hospital have what the patient needs? (w=0.30)
//   - distance:   how close is the hospital?                     (w=0.20)
//   - bed:        are beds free right now?                       (w=0.20)
//   - specialist: is a matching specialist on duty?              (w=0.15)
//   - prediction: will beds still be free at ETA?                (w=0.10)
//   - history:    the hospital's track record                    (w=0.05)
//
// Weights are configurable and must sum to 1.00; the invariant is
// checked once when the Scorer is constructed. A hospital declaring the
// emergency type among its specializations receives a 10% bonus on the
// total, capped at 1.0.
package scoring
