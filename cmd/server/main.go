package main

import (
	"github.com/hexpanel/usdt-reconciler/internal/server"
)

func main() {
	server.Init()
}
