// Package lifecycle describes the ordered stream of events produced while loading and running
// tests, and provides sinks that render or record that stream: a colored console report, a JUnit
// XML report, and an in-memory results collector.
package lifecycle
