// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. Besides the logger they depend only
// on golang.org/x/sync for the job queue semaphore.
package services
