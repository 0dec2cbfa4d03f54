package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/populate/internal/query"
)

// readFragment reads the populate fragment from the file named in args, or
// from stdin when there is none or it is "-". A non-empty selector picks the
// fragment out of a larger query document.
func readFragment(cmd *cobra.Command, args []string, selector string) (query.Node, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	if selector != "" {
		return query.Select(data, selector)
	}
	return query.Parse(data)
}
