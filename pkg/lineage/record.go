// Package lineage builds and verifies tamper-evident provenance records.
//
// A lineage record is an append-only chain of pipeline steps where each
// step's output hash must equal the next step's input hash. VerifyChain
// proves the chain unbroken; Session builds one record incrementally as a
// pipeline executes.
package lineage

import (
	"fmt"

	"github.com/leapstack-labs/provgate/pkg/core"
)

// VerifyChain checks the record's integrity invariants in order, returning
// a descriptive error for the first violation and nil for a valid chain.
// Pure function over the record's current state; no I/O.
//
// Invariants, in evaluation order:
//  1. the pipeline is non-empty
//  2. step timestamps never regress (a missing timestamp is a violation)
//  3. every step carries name, input hash, output hash, and timestamp
//  4. adjacent steps are hash-continuous (output[i] == input[i+1])
//  5. the record's content hash equals the last step's output hash
func VerifyChain(rec *core.LineageRecord) error {
	if len(rec.Pipeline) == 0 {
		return fmt.Errorf("empty pipeline")
	}

	prev := rec.ExtractionTimestamp
	for i, step := range rec.Pipeline {
		if step.Timestamp.IsZero() {
			return fmt.Errorf("step %d (%s): missing timestamp", i, step.Name)
		}
		if step.Timestamp.Before(prev) {
			return fmt.Errorf("step %d (%s): timestamp regressed", i, step.Name)
		}
		prev = step.Timestamp
	}

	for i, step := range rec.Pipeline {
		if step.Name == "" {
			return fmt.Errorf("step %d: missing name", i)
		}
		if step.OutputHash == "" {
			return fmt.Errorf("step %d (%s): missing output hash", i, step.Name)
		}
		// The extraction step legitimately has no predecessor.
		if i > 0 && step.InputHash == "" {
			return fmt.Errorf("step %d (%s): missing input hash", i, step.Name)
		}
	}

	for i := 1; i < len(rec.Pipeline); i++ {
		if rec.Pipeline[i-1].OutputHash != rec.Pipeline[i].InputHash {
			return fmt.Errorf("broken chain between steps %d and %d: output hash does not match next input hash", i-1, i)
		}
	}

	last := rec.Pipeline[len(rec.Pipeline)-1]
	if rec.ContentHash != last.OutputHash {
		return fmt.Errorf("content hash does not match final step output hash")
	}

	return nil
}

// ValidateChain reports whether the record's provenance chain is unbroken.
func ValidateChain(rec *core.LineageRecord) bool {
	return VerifyChain(rec) == nil
}
