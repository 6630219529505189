// Package main provides the entry point for the wxdata CLI.
//
// wxdata downloads a WeChat official account's analytics exports and
// reconciles them into per-account datasets.
//
// Usage:
//
//	wxdata run [--begin 2024-01-01] [--end 2024-01-31]
//	wxdata process --account <name>
//	wxdata publish --account <name>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
