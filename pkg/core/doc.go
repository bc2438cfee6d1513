// Package core defines the shared language of the provgate system.
//
// This package contains:
//   - Domain entities (LineageRecord, Step, ComplianceReport, etc.)
//   - Service interfaces (Store, ModelRegistry)
//   - Risk tier classification
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
