package main

import (
	"go.uber.org/fx"

	"github.com/clipfetch/clipfetch/internal/app"
)

func main() {
	fx.New(app.CreateApp()).Run()
}
