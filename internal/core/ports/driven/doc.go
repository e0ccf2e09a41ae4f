// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - RemoteStorage: Cursor-paginated listing plus byte transfer (Dropbox, filesystem)
//   - CursorStore: Durable storage of the delta cursor
//   - ImageEnhancer: The image transformation capability (OpenAI)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RunMetrics: Run and job instrumentation. Nil means no-op.
//   - SchedulerStore: Only needed when periodic runs are enabled.
//   - SettingsValidator: Structural settings validation.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
