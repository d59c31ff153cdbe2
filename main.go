package main

import "github.com/codelens-app/auth-service/cmd"

func main() {
	cmd.Execute()
}
