// ABOUTME: Entry point for the cxboard server and CLI
// ABOUTME: Hands control to the cobra command tree
package main

import "github.com/harperreed/cxboard/cli"

var version = "0.1.0"

func main() {
	cli.Execute(version)
}
