// Package ports defines the driven-side interfaces of the engine:
// workspace persistence, the reasoning provider, the prompt template
// registry and the cross-replica runner lock. Adapters live under
// pkg/adapters; pkg/ports/tests holds reusable contract suites.
package ports
