// Package domain defines the core types of discovered Java tests: test items, their levels,
// framework kinds, source locations and run result statuses.
package domain
