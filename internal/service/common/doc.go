// Package common holds helpers shared by the control client commands.
//
// It provides a gRPC client for the scheduler control API with call timeouts,
// and detection of the current system actor (hostname/username) that is sent
// along with every call for the daemon's audit log.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
