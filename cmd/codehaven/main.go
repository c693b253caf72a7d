// Command codehaven runs the editor backend service.
package main

import (
	"context"
	"log"

	"github.com/codehaven/codehaven/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
