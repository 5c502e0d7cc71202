package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/imkonsowa/citiassist/agent"
	"github.com/imkonsowa/citiassist/config"
	"github.com/imkonsowa/citiassist/notify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const checkMessage = "Hello, this is a test."

var configFile string

var rootCmd = &cobra.Command{
	Use:   "citiassist",
	Short: "CitiAssist smart city assistant backend",
	Long:  `HTTP relay that answers Hyderabad civic-service questions, drafts civic-issue complaints from photos and explains government forms using a generative model.`,
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured API key and model respond",
	RunE:  runCheck,
}

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one chat message through the assistant and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Follow drafted issue complaints published to NATS",
	RunE:  runDrafts,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultPath, "Config file path")

	rootCmd.AddCommand(serveCmd, checkCmd, askCmd, draftsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg config.Log) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func setup(ctx context.Context) (*config.Config, agent.Invoker) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatal(err)
	}

	slog.SetDefault(newLogger(cfg.Log))

	invoker, err := agent.NewInvoker(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	return cfg, invoker
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, invoker := setup(ctx)

	group, ctx := errgroup.WithContext(ctx)

	var publisher agent.IssuePublisher

	if cfg.Nats.Enabled {
		nc, err := notify.NewNatsClient(&cfg.Nats)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer nc.Close()

		// Close drains the queue, so the pool is not tied to the signal.
		dispatcher := notify.NewDispatcher(context.WithoutCancel(ctx), nc, cfg.Nats.Subject, cfg.Nats.Workers, cfg.Nats.QueueSize)
		defer dispatcher.Close()

		publisher = dispatcher

		group.Go(func() error {
			return nc.Watch(ctx)
		})
	}

	handler, err := agent.NewHandler(invoker, publisher, cfg.LLM.Timeout)
	if err != nil {
		log.Fatal(err)
	}

	a := agent.New(cfg, handler)

	group.Go(func() error {
		return a.Run(ctx)
	})

	if err := group.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		return err
	}

	slog.Info("server stopped")

	return nil
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, invoker := setup(cmd.Context())

	model := cfg.LLM.Model
	if cfg.LLM.Provider == agent.ProviderOllama {
		model = cfg.Ollama.Model
	}
	fmt.Printf("Attempting to generate using model: %s...\n", model)

	handler, err := agent.NewHandler(invoker, nil, cfg.LLM.Timeout)
	if err != nil {
		return err
	}

	reply, err := handler.Chat(cmd.Context(), checkMessage)
	if err != nil {
		fmt.Println("\nFAILURE.")
		fmt.Println("Error details:", err)
		return err
	}

	fmt.Println("\nSUCCESS! The API key and model are working.")
	fmt.Println("Response:", reply)

	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, invoker := setup(cmd.Context())

	handler, err := agent.NewHandler(invoker, nil, cfg.LLM.Timeout)
	if err != nil {
		return err
	}

	reply, err := handler.Chat(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Println(reply)

	return nil
}

func runDrafts(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(cfg.Log))

	nc, err := notify.NewNatsClient(&cfg.Nats)
	if err != nil {
		return fmt.Errorf("failed to connect to nats: %w", err)
	}
	defer nc.Close()

	slog.Info("following issue drafts", "subject", cfg.Nats.Subject)

	return nc.Subscribe(ctx, cfg.Nats.Subject, func(_ context.Context, data []byte) error {
		event, err := notify.DecodeIssueDraft(data)
		if err != nil {
			return err
		}

		fmt.Printf("[%s] To: %s\nSubject: %s\n\n%s\n\n", event.CreatedAt.Format(time.RFC3339), event.RecipientEmail, event.Subject, event.Body)

		return nil
	})
}
