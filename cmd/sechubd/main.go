package main

import "sechub/server"

func main() {
	server.Main()
}
