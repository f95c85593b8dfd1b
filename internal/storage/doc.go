// Package storage keeps the deal journal: one record per delivered deal
// alert, used for the operator CLI and post-hoc inspection.
//
// Drivers: "file" (JSON Lines), "sqlite", or "none".
package storage
