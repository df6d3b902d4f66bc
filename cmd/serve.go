package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/meridian-gallery/curator/internal/handlers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the gallery interface",
		Long: `Starts the Curator web interface on the specified port.

The web interface lets you upload images, generate structured metadata
with vision-capable LLMs (Gemini, OpenAI or Ollama), and sort whole
sessions into named groups along a chosen dimension.`,
		Example: `  # Start server on default port 8888
  curator serve

  # Start server on custom port
  curator serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = viper.GetString("server.port")
			}

			handler := handlers.New(handlers.Config{
				UploadsDir:     viper.GetString("storage.uploads_dir"),
				PreviewHeight:  viper.GetInt("preview.height"),
				PreviewQuality: viper.GetInt("preview.quality"),
				Provider:       viper.GetString("provider.name"),
				Model:          viper.GetString("provider.model"),
				Prefer:         viper.GetString("provider.prefer"),
				Temperature:    viper.GetFloat64("provider.temperature"),
				Concurrency:    viper.GetInt("extract.concurrency"),
			})
			defer handler.Close()

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/sessions", handler.HandleSessions)
			mux.HandleFunc("/api/sessions/", handler.HandleSessionDetail)
			mux.HandleFunc("/api/dimensions", handler.HandleDimensions)
			mux.HandleFunc("/static/", handler.HandleStatic)
			mux.HandleFunc("/", handler.HandleStatic)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Curator interface available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default from config)")

	return cmd
}
