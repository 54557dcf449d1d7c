// Package version provides version information and build metadata for fpart.
//
// Values injected at link time take precedence:
//
//	-ldflags "-X github.com/martymac/fpart/version.Version=v1.7.0 -X github.com/martymac/fpart/version.Commit=abc1234 -X github.com/martymac/fpart/version.Date=2026-01-01T00:00:00Z"
//
// Without them, the module version and VCS stamps recorded by the Go
// toolchain are used (debug.ReadBuildInfo). GetFullVersion is what the CLI
// reports for --version.
package version
