// Command itunesdb reads, reports on and writes device media databases.
//
// Usage:
//
//	itunesdb parse <file> <type> [csv|json|write]
//	itunesdb songs <file> [--output csv|json]
//	itunesdb write <dest> [--side-file music.json]
//	itunesdb dump <file>
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
