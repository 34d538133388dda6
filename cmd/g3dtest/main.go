// Command g3dtest runs the g3d raster3d conformance checks. Its exit status
// is the number of failed checks.
package main

import (
	"context"
	"os"

	"github.com/roach88/g3dtest/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
