// File: cmd/version.go
package cmd

// Version is the application version, set at build time with ldflags:
// go build -ldflags "-X github.com/xkilldash9x/pagekit/cmd.Version=1.0.0"
var Version = "1.0"
