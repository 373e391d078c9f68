package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hitoshi/bookman/internal/app"
	"github.com/hitoshi/bookman/internal/book"
	"github.com/hitoshi/bookman/internal/model"
)

// addフラグ
var (
	addTitle       string
	addAuthor      string
	addYear        int
	addPrice       float64
	addISBN        string
	addDescription string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "書籍をカタログに追加する",
	Example: `  bookman add --title "Dune" --author "Frank Herbert" --year 1965 --price 9.99 --isbn 9780441172719`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(io.Discard, func(store *app.Store) error {
			created, err := store.Service.Create(context.Background(), model.BookInput{
				Title:       addTitle,
				Author:      addAuthor,
				Year:        addYear,
				Price:       addPrice,
				ISBN:        addISBN,
				Description: addDescription,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return renderJSON(cmd.OutOrStdout(), toCLIBook(created))
			}
			successColor.Fprintf(cmd.OutOrStdout(), "書籍を追加しました (ID: %d)\n", created.ID)
			renderBook(cmd.OutOrStdout(), created)
			return nil
		})
	},
}

// listフラグ
var (
	listQuery  string
	listOffset int
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "書籍の一覧を表示する",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(io.Discard, func(store *app.Store) error {
			result, err := store.Service.List(context.Background(), book.ListParams{
				Query:  listQuery,
				Offset: listOffset,
				Limit:  listLimit,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return renderJSON(cmd.OutOrStdout(), toCLIBookList(result))
			}
			renderBookList(cmd.OutOrStdout(), result)
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "書籍の詳細を表示する",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}

		return withStore(io.Discard, func(store *app.Store) error {
			found, err := store.Service.Get(context.Background(), id)
			if err != nil {
				return err
			}

			if jsonOutput {
				return renderJSON(cmd.OutOrStdout(), toCLIBook(found))
			}
			renderBook(cmd.OutOrStdout(), found)
			return nil
		})
	},
}

// updateフラグ
var (
	updateTitle       string
	updateAuthor      string
	updateYear        int
	updatePrice       float64
	updateISBN        string
	updateDescription string
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "書籍を部分更新する",
	Long: `指定したフラグのフィールドのみを更新する。
指定しなかったフィールドは変更されない。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}

		// 明示的に指定されたフラグのみをパッチに含める
		var patch model.BookPatch
		if cmd.Flags().Changed("title") {
			patch.Title = &updateTitle
		}
		if cmd.Flags().Changed("author") {
			patch.Author = &updateAuthor
		}
		if cmd.Flags().Changed("year") {
			patch.Year = &updateYear
		}
		if cmd.Flags().Changed("price") {
			patch.Price = &updatePrice
		}
		if cmd.Flags().Changed("isbn") {
			patch.ISBN = &updateISBN
		}
		if cmd.Flags().Changed("description") {
			patch.Description = &updateDescription
		}

		return withStore(io.Discard, func(store *app.Store) error {
			updated, err := store.Service.Update(context.Background(), id, patch)
			if err != nil {
				return err
			}

			if jsonOutput {
				return renderJSON(cmd.OutOrStdout(), toCLIBook(updated))
			}
			successColor.Fprintf(cmd.OutOrStdout(), "書籍を更新しました (ID: %d)\n", updated.ID)
			renderBook(cmd.OutOrStdout(), updated)
			return nil
		})
	},
}

// removeフラグ
var removeYes bool

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "書籍をカタログから削除する",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}

		if !removeYes {
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("書籍 %d を削除しますか？ [y/N]: ", id))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "中止しました。")
				return nil
			}
		}

		return withStore(io.Discard, func(store *app.Store) error {
			if err := store.Service.Delete(context.Background(), id); err != nil {
				return err
			}

			if jsonOutput {
				return renderJSON(cmd.OutOrStdout(), map[string]int64{"deleted": id})
			}
			successColor.Fprintf(cmd.OutOrStdout(), "書籍を削除しました (ID: %d)\n", id)
			return nil
		})
	},
}

func init() {
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "タイトル（必須）")
	addCmd.Flags().StringVarP(&addAuthor, "author", "a", "", "著者（必須）")
	addCmd.Flags().IntVarP(&addYear, "year", "y", 0, "出版年（必須）")
	addCmd.Flags().Float64VarP(&addPrice, "price", "p", 0, "価格")
	addCmd.Flags().StringVar(&addISBN, "isbn", "", "ISBN-10またはISBN-13")
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "説明")

	listCmd.Flags().StringVarP(&listQuery, "q", "q", "", "タイトル・著者の部分一致検索")
	listCmd.Flags().IntVarP(&listOffset, "offset", "o", 0, "読み飛ばす件数")
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 0, "最大表示件数（デフォルト20、上限100）")

	updateCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "タイトル")
	updateCmd.Flags().StringVarP(&updateAuthor, "author", "a", "", "著者")
	updateCmd.Flags().IntVarP(&updateYear, "year", "y", 0, "出版年")
	updateCmd.Flags().Float64VarP(&updatePrice, "price", "p", 0, "価格")
	updateCmd.Flags().StringVar(&updateISBN, "isbn", "", "ISBN-10またはISBN-13（空文字でクリア）")
	updateCmd.Flags().StringVarP(&updateDescription, "description", "d", "", "説明")

	removeCmd.Flags().BoolVar(&removeYes, "yes", false, "確認プロンプトをスキップする")
}

// parseIDArg は位置引数の書籍IDを解析する。
func parseIDArg(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("書籍IDは正の整数で指定してください: %q", raw)
	}
	return id, nil
}

// confirm はy/nの確認プロンプトを表示する。yまたはyesでtrueを返す。
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)

	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("入力の読み取りに失敗しました: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
