package main

import (
	"github.com/bstardust/piclabel/internal/logger"
	"github.com/bstardust/piclabel/pkg/cli"
)

func main() {
	logger.Init()

	cli.Execute()
}
