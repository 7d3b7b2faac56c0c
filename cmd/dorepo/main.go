// Package main provides the dorepo CLI: create, resolve and relate digital
// objects stored in a SQLite database or an object directory.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
