// Package utils provides common utility functions for the account checker.
// It includes type conversion helpers used when extracting fields from
// free-form probe response blobs, and other shared logic that doesn't fit
// into domain-specific packages.
package utils
