// Package main provides the entry point for the pttcrawl CLI.
//
// pttcrawl crawls one PTT board and turns its listing and article pages
// into structured records: metadata, body, signature, source IP and the
// comment stream with its sentiment counts.
//
// Usage:
//
//	pttcrawl crawl --board Drink --pages 5
//	pttcrawl crawl --board Drink --start 3900 --all
//	pttcrawl history --board Drink
//
// See --help for all available options.
package main

// main is the entry point for pttcrawl.
func main() {
	Execute()
}
