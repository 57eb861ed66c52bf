// Command glimmerd is the daemon's entry point.
package main

func main() {
	Execute()
}
