// Package attach reconciles asynchronous element measurements into stable
// endpoint state for leader lines.
//
// Each mounted endpoint moves through a small state machine:
//
//	Unmeasured -> Measuring -> Connected -> (Measuring | Disconnected)
//
// Layout notifications ([Reconciler.Notify], or a [LayoutSource]) are
// throttled so that a burst of scroll or resize events produces one
// measurement per window. Notifications never cancel a measurement in
// flight; they mark the endpoint dirty and a single follow-up measurement
// runs once the current one completes. [Reconciler.ForceUpdate] skips the
// throttle and supersedes any measurement in flight.
//
// Every measurement carries a per-endpoint sequence number. A result is
// applied only if its number is still the latest issued, so a slow early
// request can never overwrite a faster later one. Results that arrive after
// [Reconciler.Unmount] are dropped.
//
// Failed measurements keep the last known point and retry after the
// throttle window. After [DefaultMaxFailures] consecutive failures the
// endpoint is Disconnected and invisible, but its point is retained so a
// caller can still draw a best-effort line.
//
// There is no measurement timeout unless [WithMeasureTimeout] is given.
package attach
