package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/abhineetsingh10/aml2practice/src/config"
	"github.com/abhineetsingh10/aml2practice/src/progress"
	"github.com/abhineetsingh10/aml2practice/src/server"
)

func main() {
	var configPath, source, port, logLevel string
	var reloadOnRender bool
	flag.StringVar(&configPath, "config", ".", "Config file or directory containing config.yaml")
	flag.StringVar(&source, "source", "", "Override data.uri")
	flag.StringVar(&port, "port", "", "Override server.port")
	flag.StringVar(&logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
	flag.BoolVar(&reloadOnRender, "reload-on-render", false, "Refetch the data before every chart render")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if source != "" {
		cfg.Data.URI = source
	}
	if port != "" {
		cfg.Server.Port = port
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if reloadOnRender {
		cfg.Server.ReloadOnRender = true
	}
	progress.InitLogger(cfg.Log)
	defer progress.Sync()
	gin.SetMode(cfg.Server.Mode)

	loader, err := progress.NewLoader(cfg.Data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	srv, err := server.New(cfg, progress.NewDataset(loader))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil {
		progress.Errorf("server: %v", err)
		os.Exit(1)
	}
	progress.Infof("server exited")
}
