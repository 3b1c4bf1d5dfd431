package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/frahmantamala/campaign-management/pkg/logger"
	"github.com/spf13/cobra"
)

var importUploaderID int64

var importCmd = &cobra.Command{
	Use:   "import [file.csv]",
	Short: "Import a campaign CSV from disk",
	Long:  `Run a CSV file through the same parse, resolve and aggregate pipeline as the upload endpoint and print the result as JSON.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := logger.LoggerWrapper()

		f, err := os.Open(args[0])
		if err != nil {
			log.Fatalf("failed to open %s: %v", args[0], err)
		}
		defer f.Close()

		if info, err := f.Stat(); err == nil && info.Size() > cfg.Upload.MaxBytes {
			log.Fatalf("%s is %d bytes, limit is %d", args[0], info.Size(), cfg.Upload.MaxBytes)
		}

		services, err := buildServices(cfg, lg)
		if err != nil {
			log.Fatalf("failed to initialize services: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			services.Close(ctx, lg)
		}()

		result, err := services.Campaign.Upload(cmd.Context(), importUploaderID, f)
		if err != nil {
			lg.Error("import failed", "file", args[0], "error", err)
			return
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			lg.Error("failed to encode result", "error", err)
			return
		}
		fmt.Println(string(out))
	},
}

func init() {
	importCmd.Flags().Int64Var(&importUploaderID, "uploader", 0, "User id recorded as the uploader")
}
