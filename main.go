package main

import (
	_ "shophub/api/graphql"
	_ "shophub/html"

	"shophub/cmd"
	"shophub/config"
)

func main() {
	config.LoadEnv()
	cmd.Execute()
}
