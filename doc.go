// Package ticktock provides the time-tracking state machines of a clock
// utility suite: a world clock list, a stopwatch with laps, a countdown
// timer, a persisted alarm list with recurrence rules and a bedtime planner.
//
// Every component reads time through an injectable [Clock] and receives its
// periodic work from a [TickSource], so the whole suite can be driven by a
// [FakeClock] in tests. Persisted state goes through a [Store]; presentation
// is left to the caller through [Hooks] and [Notifier].
package ticktock
