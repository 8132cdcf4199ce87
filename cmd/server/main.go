package main

import "tipsheet/internal/app/server"

func main() {
	server.Run()
}
