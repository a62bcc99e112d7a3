// StowPlan plans the floor layout of boxes and box stacks in a shipping
// container from the command line.
//
// Build:
//   go build -o stowplan ./cmd/stowplan
//
// Cross-compile:
//   GOOS=windows GOARCH=amd64 go build -o stowplan.exe ./cmd/stowplan
//   GOOS=darwin  GOARCH=arm64 go build -o stowplan-darwin ./cmd/stowplan

package main

import "github.com/piwi3910/StowPlan/internal/cli"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date
	cli.Execute(cli.NewRootCommand())
}
