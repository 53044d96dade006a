// Package domain contains the core model of the reasoning workspace:
// the analysis state machine, the entities each stage materializes, the
// append-only audit records, and the sentinel errors shared by all ports.
package domain
