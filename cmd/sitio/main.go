// Command sitio serves the SolarTech marketing site and its contact form API.
package main

import (
	"context"
	"os"

	"github.com/solartech/sitio/app"
	"github.com/solartech/sitio/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		os.Exit(1)
	}
}
