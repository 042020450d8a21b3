package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/photogallery/internal/server"
	"github.com/dmitrijs2005/photogallery/internal/server/config"
)

func main() {

	ctx := context.Background()
	config.LoadDotEnv()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
