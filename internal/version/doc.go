// Package version carries the build metadata of the alarm binaries.
//
// Version, Commit and BuildTime are set through -ldflags at build time.
package version
