// Package cli はbookmanのコマンドラインインターフェースを提供する。
//
// データ系サブコマンド（add/list/show/update/remove）はHTTPを経由せず、
// APIサーバーと同じbook.Serviceを直接呼び出す。
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hitoshi/bookman/internal/app"
	"github.com/hitoshi/bookman/internal/config"
)

var (
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	labelColor   = color.New(color.FgCyan)
	idColor      = color.New(color.FgYellow)
)

// jsonOutput は--jsonフラグの値。人間向け出力の代わりにJSONを出力する。
var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "bookman",
	Short: "書籍カタログを管理するCLIとAPIサーバー",
	Long: `bookmanは単一ファイルのSQLiteストア（またはPostgreSQL）に
書籍カタログを保存し、REST APIとCLIの両方から同じ操作を提供する。

データベースはDATABASE_URL環境変数で指定する（デフォルト: sqlite://books.db）。`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute はCLIのエントリーポイント。argsにはos.Args[1:]を渡す。
// エラーは標準エラー出力に赤色で表示する。
func Execute(args []string) error {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "結果をJSONで出力する")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(healthcheckCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(removeCmd)
}

// initApp はログと設定を初期化する。
func initApp(w io.Writer) (*config.Config, error) {
	cfg, err := app.Init(w)
	if err != nil {
		return nil, fmt.Errorf("initialization failed: %w", err)
	}
	return cfg, nil
}

// withStore は設定を読み込み、ストアを開いてfnを実行する共通処理。
// データ系サブコマンドはすべてこれを経由する。
func withStore(w io.Writer, fn func(store *app.Store) error) error {
	cfg, err := initApp(w)
	if err != nil {
		return err
	}

	store, err := app.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}
