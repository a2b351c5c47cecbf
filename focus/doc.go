// Package focus defines the pure domain value types for FOCUS 1.2 billing
// records. Record carries no persistence or RPC concerns of its own —
// conversion to a relational row happens only at the loadstore boundary
// (package store/sqlstore), and conversion from a provider's raw payload
// happens only inside a mapping.Mapper. Keeping the domain type free of
// struct tags for any one collaborator is what lets the same Record flow
// through extraction, validation, and loading unchanged.
package focus
