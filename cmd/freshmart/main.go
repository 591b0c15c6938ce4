package main

import "github.com/matthieukhl/freshmart/internal/cmd"

func main() {
	cmd.Execute()
}
