// Package testutil provides test utilities for DataSage, including:
//   - Miniredis helpers for heat counter and engine tests (miniredis.go)
//   - Fixture directory helpers for loader and engine tests (fixtures.go)
package testutil
