// Package rules contains the canonical compliance rule catalog.
//
// Each rule lives in its own file and registers itself with the gate
// catalog via init(). Import this package for its side effects:
//
//	import _ "github.com/leapstack-labs/provgate/pkg/gate/rules"
//
// Registration order within this package is catalog order.
package rules
