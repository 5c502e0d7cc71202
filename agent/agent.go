package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/imkonsowa/citiassist/config"
	"github.com/imkonsowa/citiassist/models"
)

const shutdownTimeout = 10 * time.Second

type Agent struct {
	config   *config.Config
	handler  *Handler
	upgrader websocket.Upgrader
}

func New(cfg *config.Config, handler *Handler) *Agent {
	a := &Agent{
		config:  cfg,
		handler: handler,
	}
	a.upgrader = websocket.Upgrader{CheckOrigin: a.checkOrigin}

	return a
}

func (a *Agent) allowAllOrigins() bool {
	return len(a.config.Server.CorsOrigins) == 0 || slices.Contains(a.config.Server.CorsOrigins, "*")
}

func (a *Agent) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || a.allowAllOrigins() {
		return true
	}

	return slices.Contains(a.config.Server.CorsOrigins, origin)
}

func (a *Agent) corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if a.allowAllOrigins() {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = a.config.Server.CorsOrigins
	}

	return cors.New(cfg)
}

// fail writes the error response for err. Validation failures become 400
// with their own message; everything else is logged with a stack trace and
// returned as 500 under the endpoint's label.
func (a *Agent) fail(ctx *gin.Context, err error, label string) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: reqErr.Message})
		return
	}

	slog.Error(label, "path", ctx.FullPath(), "error", err, "stack", string(debug.Stack()))
	ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: label, Details: err.Error()})
}

func (a *Agent) readImage(ctx *gin.Context, label string) (*models.ImageRequest, bool) {
	fh, err := ctx.FormFile("image")
	if err != nil {
		msg := "No image uploaded"
		// a part sent with filename="" is parsed as a plain form value
		if form := ctx.Request.MultipartForm; form != nil && len(form.Value["image"]) > 0 {
			msg = "No selected file"
		}

		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
		return nil, false
	}

	req, err := ReadImageRequest(fh, a.config.Server.MaxUploadBytes)
	if err != nil {
		a.fail(ctx, err, label)
		return nil, false
	}

	return req, true
}

func (a *Agent) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), a.corsMiddleware())

	if a.config.Server.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = a.config.Server.MaxUploadBytes
	}

	r.GET("/healthz", func(ctx *gin.Context) {
		model := a.config.LLM.Model
		if a.config.LLM.Provider == ProviderOllama {
			model = a.config.Ollama.Model
		}

		ctx.JSON(http.StatusOK, HealthResponse{
			Status:             "ok",
			Provider:           a.config.LLM.Provider,
			Model:              model,
			InstructionVersion: SystemInstructionVersion,
		})
	})

	api := r.Group("/api")

	api.POST("/chat", func(ctx *gin.Context) {
		var req ChatRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			slog.Debug("invalid chat body", "error", err)
			req.Message = ""
		}

		slog.Debug("received message", "message", req.Message)

		reply, err := a.handler.Chat(ctx.Request.Context(), req.Message)
		if err != nil {
			a.fail(ctx, err, "An error occurred")
			return
		}

		ctx.JSON(http.StatusOK, ChatResponse{Response: reply})
	})

	api.GET("/chat/stream", a.streamChat)

	api.POST("/report-issue", func(ctx *gin.Context) {
		req, ok := a.readImage(ctx, "Image processing failed")
		if !ok {
			return
		}

		report, err := a.handler.ReportIssue(ctx.Request.Context(), req)
		if err != nil {
			a.fail(ctx, err, "Image processing failed")
			return
		}

		ctx.JSON(http.StatusOK, report)
	})

	api.POST("/analyze-document", func(ctx *gin.Context) {
		req, ok := a.readImage(ctx, "Document analysis failed")
		if !ok {
			return
		}

		reply, err := a.handler.AnalyzeDocument(ctx.Request.Context(), req)
		if err != nil {
			a.fail(ctx, err, "Document analysis failed")
			return
		}

		ctx.JSON(http.StatusOK, ChatResponse{Response: reply})
	})

	return r
}

func (a *Agent) streamChat(ctx *gin.Context) {
	message := ctx.Query("message")

	req := ChatRequest{Message: message}
	if err := req.Validate(); err != nil {
		a.fail(ctx, err, "An error occurred")
		return
	}

	c, err := a.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer c.Close()

	resultChan := a.handler.StreamChat(ctx.Request.Context(), message)
	for {
		select {
		case <-ctx.Request.Context().Done():
			return
		case result, ok := <-resultChan:
			if !ok || result == nil {
				return
			}

			if result.Err != nil {
				if errors.Is(result.Err, io.EOF) {
					if err := c.WriteJSON(WebSocketsMessage{Type: MessageTypeDone}); err != nil {
						slog.Error("failed to write to ws connection", "error", err)
					}
					return
				}

				slog.Error("chat stream failed", "error", result.Err, "stack", string(debug.Stack()))
				if err := c.WriteJSON(WebSocketsMessage{Type: MessageTypeError, Data: "An error occurred"}); err != nil {
					slog.Error("failed to write to ws connection", "error", err)
				}
				return
			}

			if err := c.WriteJSON(result.Msg); err != nil {
				slog.Error("failed to write to ws connection", "error", err)
				return
			}
		}
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *Agent) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    a.config.Server.Address(),
		Handler: a.Router(),
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("listening", "address", srv.Addr)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		slog.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	}
}
