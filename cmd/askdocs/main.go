// Command askdocs is the entry point for the askdocs retrieval-grounded
// question answering tool. It ingests a document corpus or FAQ file into a
// Qdrant vector store and answers questions against it, interactively
// (chat), one-shot (ask), or over HTTP (serve).
package main

import (
	"fmt"
	"os"

	"github.com/askdocs/askdocs-go/cmd/askdocs/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
