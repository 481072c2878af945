// Command chartago is a terminal client for the chartagoPM API.
package main

import "os"

func main() {
	os.Exit(Execute(os.Args[1:]))
}
