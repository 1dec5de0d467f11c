// Package utils provides small conversion helpers shared across packages: canonical
// identifier rendering, numeric zero checks and loose string/bool conversion of values
// coming from JSON bodies, query strings or raw SQL rows.
package utils
