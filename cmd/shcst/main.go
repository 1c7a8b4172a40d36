package main

import (
	"os"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	"github.com/msto63/shcst/cmd/shcst/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(mdwerror.GetCode(err).ExitCode())
	}
}
