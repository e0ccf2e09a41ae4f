// Package domain defines the core business entities for Glowbox.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Entry: One item reported by a remote change feed
//   - ListingPage: One page of a cursor-paginated listing
//   - Job: The download, enhance and upload unit for one eligible file
//   - EnhancementResult: Enhanced bytes and their provenance
//   - RunSummary: Aggregate counts for one delta run
//
// It also holds the pure path classification helpers and the
// allow-lists that enhancement settings are checked against.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
