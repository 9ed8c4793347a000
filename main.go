package main

import (
	"context"
	"fmt"

	"driftlink/transfer-api/api"
	"driftlink/transfer-api/config"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	a, err := api.NewRouter()
	if err != nil {
		panic(err)
	}

	if config.SweepOnStart() {
		a.Sweeper.Sweep(context.Background())
	}

	c := cron.New()
	_, err = c.AddFunc(viper.GetString("sweep.schedule"), func() {
		a.Sweeper.Sweep(context.Background())
	})
	if err != nil {
		panic(err)
	}
	c.Start()

	zap.L().Info("Server starting")

	err = a.Router.Run(fmt.Sprintf(":%d", viper.GetInt("host.port")))
	if err != nil {
		panic(err)
	}
}
