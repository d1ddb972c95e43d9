// Command medbot is the entry point for the MedLink chatbot backend.
// It serves two retrieval-augmented bots over HTTP: a diagnosis-coding
// assistant for medical professionals and a platform Q&A assistant for
// the landing page.
package main

import (
	"fmt"
	"os"

	"github.com/medlink-hq/medbot-go/cmd/medbot/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
