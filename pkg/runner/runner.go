// Package runner は、バッチ入力の受付からサブバッチ分割・並列取得
// までの一連の処理フローを管理します。
package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/race-result-pipe-go/pkg/types"
)

// DefaultChunkSize は、サブバッチ分割のデフォルトサイズです。
// 要求全体の大きさと無関係にブラウザ資源のピーク使用量を抑えます。
const DefaultChunkSize = 15

// ----------------------------------------------------------------
// インターフェース定義 (DI対象)
// ----------------------------------------------------------------

// ScraperExecutor は並列取得の実行機能を提供します。
// scraper.ParallelScraper がこのインターフェースを実装します。
type ScraperExecutor interface {
	GetMany(ctx context.Context, raceID int, runnerIDs []int) ([]types.ParticipantRecord, error)
}

// ----------------------------------------------------------------
// ワークフロー管理者 (Runner)
// ----------------------------------------------------------------

// Runner は、取得対象リストのサブバッチ分割と逐次実行を管理します。
type Runner struct {
	Executor ScraperExecutor
}

// NewRunner は依存関係を注入して Runner を初期化する関数
func NewRunner(executor ScraperExecutor) *Runner {
	return &Runner{Executor: executor}
}

// RunnerConfig は実行に必要な設定を保持します。
type RunnerConfig struct {
	RaceID    int
	RunnerIDs []int
	ChunkSize int // 0以下の場合は DefaultChunkSize
}

// Run は、参加者IDリストをサブバッチへ分割し、各サブバッチを
// 逐次実行して結果を連結します。出力件数は常に入力件数と一致します。
func (r *Runner) Run(ctx context.Context, config RunnerConfig) ([]types.ParticipantRecord, error) {
	chunkSize := config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	chunks := splitChunks(config.RunnerIDs, chunkSize)

	slog.Info("バッチ実行を開始します",
		slog.Int("race_id", config.RaceID),
		slog.Int("total_ids", len(config.RunnerIDs)),
		slog.Int("chunks", len(chunks)),
		slog.Int("chunk_size", chunkSize),
	)

	results := make([]types.ParticipantRecord, 0, len(config.RunnerIDs))
	for i, chunk := range chunks {
		slog.Info("サブバッチを実行中",
			slog.Int("chunk_index", i+1),
			slog.Int("chunk_total", len(chunks)),
			slog.Int("ids", len(chunk)),
		)

		chunkResults, err := r.Executor.GetMany(ctx, config.RaceID, chunk)
		if err != nil {
			return nil, fmt.Errorf("サブバッチ %d/%d の実行エラー: %w", i+1, len(chunks), err)
		}
		results = append(results, chunkResults...)
	}

	return results, nil
}

// splitChunks は、IDリストを固定サイズのサブバッチへ分割します。
func splitChunks(ids []int, size int) [][]int {
	if len(ids) == 0 {
		return nil
	}
	var chunks [][]int
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
