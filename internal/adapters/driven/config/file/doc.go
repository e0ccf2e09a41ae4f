// Package file provides the TOML-backed configuration store.
// Keys are exposed in flat dot notation ("processing.concurrency") and
// written back as nested TOML tables.
package file
