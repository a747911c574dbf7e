package main

import "github.com/hostelhub/roomcast/cmd"

func main() {
	cmd.Execute()
}
