// Package harness runs race weekend scenarios against the service layer.
//
// A scenario sets up a championship with its roster, runs session
// operations in order, and checks the final sessions. Each run uses a
// fresh in-memory store, a deterministic clock and sequential ids, so the
// same scenario always produces the same report.
//
// # Scenario Format
//
//	name: monza_weekend
//	description: "What this scenario validates"
//	seed: 42                      # optional, seeds lap_variance
//	championship:
//	  name: Classic Series
//	  features:
//	    flat_driver_skill: { enabled: true }
//	tracks:
//	  - ref: monza
//	    name: Monza
//	    lengthMillimeters: 5793000
//	    data: { track_base_time: { lapMillis: 80000 } }
//	drivers:
//	  - ref: senna
//	    name: [Ayrton, Senna]
//	    data: { flat_driver_skill: { skill: 7 } }
//	events:
//	  - ref: monza_gp
//	    name: Italian Grand Prix
//	    track: monza
//	sessions:
//	  - ref: race
//	    event: monza_gp
//	    name: Race
//	    lapCount: 3
//	flow:
//	  - invoke: start
//	    session: race
//	  - invoke: progress
//	    session: race
//	    laps: 3
//	  - invoke: finish
//	    session: race
//	    stale: true
//	    expect: { error: VERSION_CONFLICT }
//	assertions:
//	  - type: standings
//	    session: race
//	    order: [senna]
//
// Steps without expect must succeed. Error outcomes are session error
// codes (INVALID_STATE, INVALID_STATE_CHANGE, INVALID_PROGRESS,
// SCHEDULE_CONFLICT) or NOT_FOUND, VERSION_CONFLICT and INVALID.
//
// # Assertion Types
//
//   - standings: running order after the last elapsed lap
//   - state: session state
//   - elapsed_laps: number of elapsed laps
//   - previous_finished: the session's PreviousSessionHasFinished flag
//   - trace_count: number of steps of an operation, optionally by outcome
//
// Every stored session is also checked against the lap progression
// invariants in CheckInvariants.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/monza_weekend.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(harness.Report(scenario.Name, result))
package harness
