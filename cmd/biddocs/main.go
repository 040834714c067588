// Command biddocs parses bid documents, prepares token-bounded batches and
// manages the standards registry from the command line.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
