// Command sales-pipeline fetches daily sales from the sales API into raw JSON
// files and converts them to Avro, either once from the command line or on
// demand through two HTTP trigger servers.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
