package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mbocsi/sparkbot/bot"
	"github.com/mbocsi/sparkbot/mcp"
	"github.com/mbocsi/sparkbot/web"
)

func main() {
	token := flag.String("token", os.Getenv("SPARK_TOKEN"), "Bot access token (or SPARK_TOKEN)")
	name := flag.String("name", "Spark Bot", "Bot display name for the help card")
	users := flag.String("approved-users", "", "Comma-separated approved user emails")
	domains := flag.String("approved-domains", "", "Comma-separated approved email domains")
	rooms := flag.String("approved-rooms", "", "Comma-separated approved room ids")
	statusAddr := flag.String("status-addr", "", "Address for the status endpoint (disabled if empty)")
	mcpEnabled := flag.Bool("mcp", false, "Serve MCP tools on stdio")
	demo := flag.Bool("demo", false, "Register the echo demo command")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if *token == "" {
		slog.Error("Access token is required (-token or SPARK_TOKEN)")
		os.Exit(1)
	}

	b := bot.New(bot.Config{
		Token:           *token,
		Name:            *name,
		ApprovedUsers:   splitList(*users),
		ApprovedDomains: splitList(*domains),
		ApprovedRooms:   splitList(*rooms),
		IncludeDemo:     *demo,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *statusAddr != "" {
		statusServer := web.NewServer(*statusAddr, b)
		go func() {
			if err := statusServer.Start(); err != nil {
				slog.Error("Status server failed", "error", err)
			}
		}()
		defer statusServer.Shutdown()
	}

	if *mcpEnabled {
		mcpServer := mcp.NewMCPServer(*name, "1.0.0")
		mcp.RegisterTools(mcpServer, b)
		go func() {
			if err := mcpServer.Run(); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	done := b.RunAsync(ctx)

	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
		b.Stop()
		<-done
	case err := <-done:
		if err != nil {
			slog.Error("Bot exited", "error", err)
			os.Exit(1)
		}
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
