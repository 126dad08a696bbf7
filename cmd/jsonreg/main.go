// Command jsonreg is a CLI front end for the content-addressed JSON
// registry: register individual values or batches against a
// Postgres-compatible database and inspect cache/pool/latency stats.
package main

import "os"

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
