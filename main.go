// lexa - secure credential bootstrap for the Lexa Ledger desktop client
//
// On start lexa resolves its app-local-data directory, prepares the
// Argon2id salt file, initializes the encrypted secret store, and only
// then enters the host loop. Any setup failure exits non-zero before
// the loop is reached.
//
// Build with diagnostics:
//
//	go build -tags debug .
//
// Store a refresh token:
//
//	echo "$TOKEN" | lexa token set
package main

import (
	"os"

	"github.com/lexaledger/lexa/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
