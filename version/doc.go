// Package version exposes build metadata for the vidscribe binary.
//
// Values are injected at link time and completed from the module build info:
//
//	go build -ldflags "-X github.com/kbukum/vidscribe/version.Version=1.2.0 \
//	    -X github.com/kbukum/vidscribe/version.GitBranch=main" ./cmd/vidscribe
package version
