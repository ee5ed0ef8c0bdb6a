// Package buildinfo exposes build information of netverify-cli.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/netverify-go/internal/infra/buildinfo.Version=v0.3.0"
//
// The Go version is read from the binary when not injected.
package buildinfo
