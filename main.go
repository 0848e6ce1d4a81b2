package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

type Globals struct {
	EnvFile string `name:"env-file" help:"Environment file loaded before reading settings." default:".env"`
}

var CLI struct {
	Globals

	Serve     ServeCmd     `cmd:"" default:"1" help:"Run the HTTP API."`
	Normalize NormalizeCmd `cmd:"" help:"Normalize a model response read from FILE or stdin."`
}

type ServeCmd struct{}

func (s *ServeCmd) Run(g *Globals) error {
	cfg, err := LoadConfig(g.EnvFile)
	if err != nil {
		return err
	}
	log, err := NewLogger(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, closeGen, err := newGenerator(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeGen()

	app := newApp(newServer(cfg, log, gen, newDocumentExtractor(log)))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("listening", "port", cfg.Port, "provider", cfg.Provider)
	return app.Listen(":" + cfg.Port)
}

type NormalizeCmd struct {
	Outline bool   `help:"Also rewrite the result as headings and bullet points."`
	File    string `arg:"" optional:"" type:"existingfile" help:"File holding the raw response."`
}

func (n *NormalizeCmd) Run() error {
	var (
		data []byte
		err  error
	)
	if n.File == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(n.File)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	out := normalizeResponse(string(data))
	if n.Outline {
		out = formatOutline(out)
	}
	_, err = fmt.Fprintln(os.Stdout, out)
	return err
}

func newApp(s *server) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    s.cfg.BodyLimitMB << 20,
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  2 * time.Minute,
		ProxyHeader:  "X-Forwarded-For",
		ServerHeader: "docqa",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	s.routes(app)
	return app
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("docqa"),
		kong.Description("Document question answering service."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
