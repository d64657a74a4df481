package main

import (
	"os"

	"cpmanager/internal/cpctl"
)

func main() { os.Exit(cpctl.Main()) }
