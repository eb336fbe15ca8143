package main

import (
	"context"
	"docscan/internal/api/handler/v1handler"
	"docscan/internal/config"
	"docscan/pkg/domain"
	"docscan/pkg/logger"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/go-faster/jx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// scanCommand runs a single scan session and prints its result as JSON.
func scanCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scans one document and prints the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			responseType, _ := cmd.Flags().GetString("response-type")
			maxPages, _ := cmd.Flags().GetInt("max-pages")
			quality, _ := cmd.Flags().GetInt("quality")
			opts := domain.ScanOptions{
				ResponseType: domain.ParseResponseType(responseType),
				MaxPages:     maxPages,
				ImageQuality: quality,
			}

			svc := getScanService(ctx, cfg)
			res, err := svc.coordinator.Scan(ctx, opts)
			if err != nil {
				logger.Error(ctx, "scan failed", zap.Error(err))

				return err //nolint: wrapcheck
			}

			var e jx.Encoder
			v1handler.EncodeScanResult(&e, res)
			fmt.Println(e.String()) //nolint: forbidigo

			return nil
		},
	}

	cmd.Flags().String("response-type", string(domain.ResponseTypeURI), "uri or base64")
	cmd.Flags().Int("max-pages", 0, "Page limit, 0 leaves the engine default")
	cmd.Flags().Int("quality", domain.DefaultImageQuality, "JPEG quality for base64 output")

	return cmd
}
