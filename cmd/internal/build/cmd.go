// Package build carries the build metadata stamped into the binary
// through ldflags at release time.
package build

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Stamped via -ldflags "-X github.com/oculab/visor/cmd/internal/build.Version=..."
var (
	Branch    string
	Version   string
	Revision  string
	BuildUser string
	BuildDate string
)

// Command returns an info command printing the stamped metadata.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "info displays build information of this binary",
		Action: func(c *cli.Context) error {
			fmt.Printf(`Branch:		%s
Version:	%s
Revision:	%s
BuildUser:	%s
BuildDate:	%s`, Branch, Version, Revision, BuildUser, BuildDate)
			return nil
		},
	}
}
