package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	iohandler "github.com/shouni/go-utils/iohandler"
	"github.com/spf13/cobra"

	"github.com/shouni/race-result-pipe-go/pkg/builder"
	"github.com/shouni/race-result-pipe-go/pkg/runner"
)

// --- 入力の解析と検証 ---

// parseRaceID は、レースID引数を検証付きで整数へ変換します。
func parseRaceID(arg string) (int, error) {
	raceID, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("レースIDが整数として解析できません: %q", arg)
	}
	return raceID, nil
}

// parseRunnerIDs は、カンマ区切りの参加者IDリストを解析します。
// 数字のみで構成されるトークンだけを残し、結果が空の場合はエラーです。
func parseRunnerIDs(arg string) ([]int, error) {
	var ids []int
	for _, token := range strings.Split(arg, ",") {
		token = strings.TrimSpace(token)
		if token == "" || !isDigits(token) {
			continue
		}
		id, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("有効な参加者IDが1件もありません: %q", arg)
	}
	return ids, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// --- 出力 (I/O) ---

// fatalErrorJSON は、致命的な入力エラーを表す単一のJSONオブジェクトを
// 標準出力へ書き出します。親プロセスが標準出力を純粋なデータとして
// 解析できるよう、例外トレースの生出力は行いません。
func fatalErrorJSON(err error) {
	payload, merr := json.Marshal(struct {
		Error string `json:"error"`
		Trace string `json:"trace"`
	}{
		Error: "入力引数が不正です",
		Trace: err.Error(),
	})
	if merr != nil {
		return
	}
	_ = iohandler.WriteOutputString("", string(payload))
}

// --- サブコマンド定義 ---

var batchCmd = &cobra.Command{
	Use:   "batch <race_id> <runner_ids>",
	Short: "複数参加者の記録ページを並列で取得し、JSON配列を標準出力へ書き出します",
	Long: `レースIDとカンマ区切りの参加者IDリストを受け取り、同時実行上限の下で
各参加者の記録ページを取得・解析します。標準出力には結果のJSON配列
（または致命的エラー時のエラーオブジェクト）だけを書き出し、進捗や
診断ログはすべて標準エラー出力へ送ります。`,

	Args: cobra.ArbitraryArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 引数の検証。違反時は取得を一切試みずにJSONエラーを出力する。
		if len(args) != 2 {
			err := fmt.Errorf("引数は <race_id> <runner_ids> の2つが必要です（受領: %d）", len(args))
			fatalErrorJSON(err)
			return err
		}

		raceID, err := parseRaceID(args[0])
		if err != nil {
			fatalErrorJSON(err)
			return err
		}

		runnerIDs, err := parseRunnerIDs(args[1])
		if err != nil {
			fatalErrorJSON(err)
			return err
		}

		chunkSize, _ := cmd.Flags().GetInt("chunk-size")
		outputFile, _ := cmd.Flags().GetString("output-file")

		// 2. パイプラインの構築
		batchRunner, err := builder.BuildBatchRunner(buildConfig())
		if err != nil {
			return fmt.Errorf("パイプラインの構築エラー: %w", err)
		}

		// 3. バッチ実行
		results, err := batchRunner.Run(context.Background(), runner.RunnerConfig{
			RaceID:    raceID,
			RunnerIDs: runnerIDs,
			ChunkSize: chunkSize,
		})
		if err != nil {
			return fmt.Errorf("バッチ実行エラー: %w", err)
		}

		// 4. 結果の出力（標準出力はちょうど1つのJSON値）
		payload, err := json.Marshal(results)
		if err != nil {
			return fmt.Errorf("結果のJSON化エラー: %w", err)
		}

		// iohandler パッケージを使用して出力
		return iohandler.WriteOutputString(outputFile, string(payload))
	},
}

// --- フラグ初期化 ---

func initBatchFlags() {
	batchCmd.Flags().IntP("chunk-size", "s", runner.DefaultChunkSize, "サブバッチ1回あたりの参加者数の上限")
	batchCmd.Flags().StringP("output-file", "o", "", "結果JSONを保存するファイル名。省略時は標準出力に出力。")
}
