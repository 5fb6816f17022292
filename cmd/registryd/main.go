// Command registryd runs the interface registry server: it loads an RSA
// signing key and a setting.toml config, then serves the six registry
// operations over gRPC until interrupted. Wiring follows dexidp/dex's
// cmd/dex layout (root.go + serve.go split, oklog/run-based shutdown).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func commandRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "registryd",
		Short: "Run the interface registry server",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help() //nolint:errcheck
			os.Exit(2)
		},
	}
	root.AddCommand(commandServe())
	return root
}

func main() {
	if err := commandRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
}
