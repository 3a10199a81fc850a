package main

import (
	"flag"
	"os"

	"github.com/codecoach/sessiond/sessionservice"
)

func main() {
	// Optional build-target flag override (local | cloud)
	buildTarget := flag.String("build-target", "", "Override BUILD_TARGET (local, cloud)")
	flag.Parse()

	if *buildTarget != "" {
		_ = os.Setenv("SESSIOND_BUILD_TARGET", *buildTarget)
	}

	if err := sessionservice.Run(); err != nil {
		os.Exit(1)
	}
}
