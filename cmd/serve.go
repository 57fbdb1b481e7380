package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom/internal/logging"
	"github.com/KaramelBytes/insightloom/internal/report"
	"github.com/KaramelBytes/insightloom/internal/server"
	"github.com/KaramelBytes/insightloom/internal/service"
)

var (
	serveAddr       string
	serveMaxMB      int
	serveOrigins    []string
	serveNoCompress bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis endpoint (POST /analyze)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		addr := c.ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		if addr == "" {
			addr = "127.0.0.1:5000"
		}
		maxMB := c.MaxUploadMB
		if cmd.Flags().Changed("max-upload-mb") {
			maxMB = serveMaxMB
		}
		origins := c.CORSAllowedOrigins
		if cmd.Flags().Changed("cors-origin") {
			origins = serveOrigins
		}

		log := logging.New("server")
		builder := report.NewBuilder()
		builder.Compress = !serveNoCompress
		h := server.NewRouter(service.New(builder, logging.New("service")), server.Options{
			MaxUploadMB:    maxMB,
			AllowedOrigins: origins,
			Logger:         log,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.ListenAndServe(ctx, addr, h, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
	serveCmd.Flags().IntVar(&serveMaxMB, "max-upload-mb", 0, "maximum upload size in MB (overrides max_upload_mb)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "allowed CORS origin (repeatable; overrides cors_allowed_origins)")
	serveCmd.Flags().BoolVar(&serveNoCompress, "no-compress", false, "write uncompressed PDF streams")
}
