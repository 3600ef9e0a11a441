package main

import "github.com/henneberg-systemdesign/devsync/cmd"

func main() {
	cmd.Execute()
}
