// Package runtime implements the survey flow state machine: entry selection,
// answer scoring, next-node resolution, back navigation and completion.
package runtime
