// Package classify abstracts text classification over pluggable backends.
//
// Callers hand the gateway a batch of (id, text) pairs and the excluded-topic
// set and get back, per text, the topics it matched. Three interchangeable
// implementations exist: a remote HTTP classification service, an on-device
// model runtime with bounded per-text concurrency, and a substring mock for
// development and tests. Backend selection is injected at construction; call
// sites depend only on the Classifier interface.
//
// # Failure policy
//
// Malformed calls (empty texts or topics) fail fast with
// InvalidArgumentError before any network or model activity. Backend
// failures surface as BackendError; the scan pipeline treats them as
// fail-open and shows the affected content rather than hiding it.
package classify
