package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/shouni/race-result-pipe-go/pkg/builder"
	"github.com/shouni/race-result-pipe-go/pkg/types"
)

// --- ロジック: 結果の出力 (I/O) ---

// printRecord は、1人分のレコードを人間向けの表形式で出力します。
func printRecord(rec types.ParticipantRecord) {
	fmt.Printf("大会名: %s\n", rec.EventName)
	fmt.Printf("名前: %s (%s, ゼッケン #%s)\n", rec.Name, rec.Gender, rec.BibNo)

	if len(rec.Sections) == 0 {
		fmt.Println("区間記録はまだありません（計測地点を未通過）。")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"区間", "通過時刻", "区間タイム", "累積タイム"})
	for _, sec := range rec.Sections {
		t.AppendRow(table.Row{sec.Section, sec.PassTime, sec.SplitTime, sec.TotalTime})
	}
	t.Render()
}

// --- サブコマンド定義 ---

var runnerCmd = &cobra.Command{
	Use:   "runner <race_id> <runner_id>",
	Short: "1人の参加者の記録ページを取得し、区間記録を表形式で表示します",
	Long: `レースIDと参加者IDを指定して単一の記録ページを取得・解析し、
大会名・参加者情報・区間記録を人間向けの表形式で表示します。`,

	Args: cobra.ExactArgs(2),

	RunE: func(cmd *cobra.Command, args []string) error {
		raceID, err := parseRaceID(args[0])
		if err != nil {
			return err
		}
		runnerIDs, err := parseRunnerIDs(args[1])
		if err != nil {
			return err
		}
		if len(runnerIDs) != 1 {
			return fmt.Errorf("参加者IDは1件だけ指定してください: %q", args[1])
		}

		cfg := buildConfig()
		cfg.Concurrency = 1

		parallelScraper, err := builder.BuildParallelScraper(cfg)
		if err != nil {
			return fmt.Errorf("パイプラインの構築エラー: %w", err)
		}

		results, err := parallelScraper.GetMany(context.Background(), raceID, runnerIDs)
		if err != nil {
			return fmt.Errorf("取得エラー: %w", err)
		}

		rec := results[0]
		if rec.Failed() {
			return fmt.Errorf("参加者 %d の取得に失敗しました: %s", rec.RunnerID, rec.Error)
		}

		printRecord(rec)
		return nil
	},
}

// --- フラグ初期化 ---

func initRunnerFlags() {
	// runnerサブコマンド固有のフラグは現状なし（永続フラグのみ使用）
}
