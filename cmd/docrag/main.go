// Package main provides the docrag CLI.
//
// Usage:
//
//	docrag [flags] <command> [args]
//
// Commands:
//
//	serve      - HTTP API for uploads, retrieval and answers
//	ingest     - Add text or PDF files to the document store and index
//	context    - Print the excerpts of a document closest to a question
//	ask        - Answer a question about a document
//	reindex    - Rebuild the whole index from stored documents
//	documents  - List stored documents
//	history    - List answered questions
//	console    - Interactive console for one document
//
// Configuration is read from --config, ./docrag.yaml or
// ~/.config/docrag/config.yaml. A .env file in the working directory is
// loaded first so API keys can live there.
package main

import (
	"fmt"
	"os"

	"docrag/cmd/docrag/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
