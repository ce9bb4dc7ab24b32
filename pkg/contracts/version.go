// Package contracts holds the versioned wire contracts shared by the
// DataBoard server, CLI, and UI collaborator.
package contracts

// Version is the contract version reported by GET /api/version. Bump the
// minor on additive changes, the major on breaking ones.
const Version = "1.0.0"
