package main

import (
	"context"

	"github.com/sonnayasomnambula/mezzoparser/cmd/mezzo/cmds"

	"github.com/spf13/cobra"
)

func main() {
	cobra.CheckErr(cmds.NewRootCLI().ExecuteContext(context.Background()))
}
