package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hitoshi/bookman/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "APIサーバーを起動する",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := initApp(os.Stderr)
		if err != nil {
			return err
		}
		return app.RunServe(cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "データベースマイグレーションを適用する",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := initApp(os.Stderr)
		if err != nil {
			return err
		}
		return app.RunMigrate(cfg)
	},
}

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "稼働中のAPIサーバーのヘルスチェックを行う",
	Long: `稼働中のAPIサーバーの/healthエンドポイントにリクエストを送る。
distroless環境でのDockerヘルスチェック用。フル初期化は行わない。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return app.RunHealthcheck(port)
	},
}
