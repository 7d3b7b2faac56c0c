// Package dorepo holds module-wide constants.
package dorepo

// Version is the release of the dorepo module and CLI.
const Version = "0.3.0"
