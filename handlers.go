package main

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

type ProcessResponse struct {
	Summary   string   `json:"summary"`
	Questions []string `json:"questions"`
}

type QueryRequest struct {
	Text  string `json:"text"`
	Query string `json:"query"`
	Style string `json:"style,omitempty"`
}

type QueryResponse struct {
	Answer string `json:"answer"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// server holds the dependencies shared by all handlers.
type server struct {
	cfg        Config
	log        *Logger
	gen        Generator
	extractor  TextExtractor
	prompts    PromptBuilder
	normalizer *Normalizer
	now        func() time.Time
}

func newServer(cfg Config, log *Logger, gen Generator, extractor TextExtractor) *server {
	return &server{
		cfg:        cfg,
		log:        log,
		gen:        gen,
		extractor:  extractor,
		prompts:    PromptBuilder{CharLimit: cfg.PromptCharLimit},
		normalizer: defaultNormalizer,
		now:        time.Now,
	}
}

func (s *server) routes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "docqa"})
	})

	api := app.Group("/api")
	api.Post("/process-pdf", s.handleProcessDocument)
	api.Post("/query", s.handleQuery)
	api.Post("/export", s.handleExport)
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}

// errorHandler renders errors that escape a handler in the same shape as
// handler errors.
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	return errorJSON(c, status, err.Error())
}

// handleProcessDocument extracts the uploaded document and asks the model
// for a summary and a list of questions in parallel.
func (s *server) handleProcessDocument(c *fiber.Ctx) error {
	up, err := receiveUpload(c, s.cfg.UploadDir)
	if err != nil {
		if isUploadError(err) {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		s.log.Error("store upload failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	defer func() {
		if err := up.Remove(); err != nil {
			s.log.Warn("remove upload failed", "path", up.Path, "error", err)
		}
	}()

	log := s.log.With("filename", up.Filename, "kind", up.Kind)
	text, err := s.extractor.ExtractText(up.Path, up.Kind)
	if err != nil {
		log.Error("extract text failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	var summary, questions string
	g, ctx := errgroup.WithContext(c.UserContext())
	g.Go(func() error {
		out, err := s.gen.Generate(ctx, s.prompts.Summary(text))
		if err != nil {
			log.Error("generate summary failed", "error", err)
			return err
		}
		summary = out
		return nil
	})
	g.Go(func() error {
		out, err := s.gen.Generate(ctx, s.prompts.Questions(text))
		if err != nil {
			log.Error("generate questions failed", "error", err)
			return err
		}
		questions = out
		return nil
	})
	if err := g.Wait(); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	log.Info("document processed", "chars", len(text))
	return c.JSON(ProcessResponse{
		Summary:   summary,
		Questions: parseQuestions(questions),
	})
}

// handleQuery answers a question about previously extracted text. Only this
// path runs the normalizer.
func (s *server) handleQuery(c *fiber.Ctx) error {
	var req QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.Query) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "missing query or text")
	}
	style := strings.ToLower(strings.TrimSpace(req.Style))
	switch style {
	case "":
		style = stylePlain
	case stylePlain, styleOutline:
	default:
		return errorJSON(c, fiber.StatusBadRequest, "unsupported style: "+req.Style)
	}

	raw, err := s.gen.Generate(c.UserContext(), s.prompts.Answer(req.Text, req.Query, style))
	if err != nil {
		s.log.Error("generate answer failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	answer := s.normalizer.Normalize(raw)
	if style == styleOutline {
		answer = formatOutline(answer)
	}
	s.log.Debug("answer normalized", "raw_chars", len(raw), "chars", len(answer))
	return c.JSON(QueryResponse{Answer: answer})
}

func (s *server) handleExport(c *fiber.Ctx) error {
	var req ExportRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if len(req.Messages) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "no chat messages to export")
	}

	at := s.now()
	switch strings.ToLower(req.Format) {
	case "", exportFormatText:
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="chat-export.txt"`)
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(renderChatText(req, at))
	case exportFormatPDF:
		data, err := renderChatPDF(req, at)
		if err != nil {
			s.log.Error("export pdf failed", "error", err)
			return errorJSON(c, fiber.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="chat-export.pdf"`)
		c.Set(fiber.HeaderContentType, "application/pdf")
		return c.Send(data)
	default:
		return errorJSON(c, fiber.StatusBadRequest, "unsupported format: "+req.Format)
	}
}
