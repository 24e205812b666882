// Package workspace manages scratch directories used while publishing.
//
// Managers create timestamped directories (publish-20251214-122336-*) under a
// base directory and remove them on Cleanup.
package workspace
