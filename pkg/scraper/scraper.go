// Package scraper は、多数の参加者に対する取得と抽出を
// 同時実行上限の下でファンアウトする並列コントローラを提供します。
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shouni/race-result-pipe-go/pkg/extract"
	"github.com/shouni/race-result-pipe-go/pkg/render"
	"github.com/shouni/race-result-pipe-go/pkg/types"
)

const (
	// DefaultMaxConcurrency は、並列取得のデフォルトの最大同時実行数です。
	// ブラウザのタブ数を直接左右するため小さめに保ちます。
	DefaultMaxConcurrency = 4
	// DefaultLaunchDelay は、対象サイトへの配慮として各取得の開始前に
	// 挟む遅延です。
	DefaultLaunchDelay = 800 * time.Millisecond
)

// RendererFactory は、1回のバッチ実行ごとにレンダリング資源を
// 構築する関数です。実ブラウザの代わりにフェイクを注入する
// テストの継ぎ目になります。
type RendererFactory func() (render.Renderer, error)

// ParallelScraper は、セマフォで同時実行数を制限しながら
// 取得と抽出をファンアウトします。
type ParallelScraper struct {
	newRenderer    RendererFactory
	maxConcurrency int
	launchDelay    time.Duration
	onProgress     func(Progress)
}

// Option は ParallelScraper の構築オプションです。
type Option func(*ParallelScraper)

// WithLaunchDelay は、各取得の開始前に挟む遅延を設定します。
func WithLaunchDelay(d time.Duration) Option {
	return func(s *ParallelScraper) { s.launchDelay = d }
}

// WithProgress は、各項目の完了ごとに呼び出される進捗コールバックを
// 設定します。戻り値のデータ契約とは独立した診断用の副チャネルです。
func WithProgress(fn func(Progress)) Option {
	return func(s *ParallelScraper) { s.onProgress = fn }
}

// NewParallelScraper は ParallelScraper を初期化します。
func NewParallelScraper(factory RendererFactory, maxConcurrency int, opts ...Option) *ParallelScraper {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	s := &ParallelScraper{
		newRenderer:    factory,
		maxConcurrency: maxConcurrency,
		launchDelay:    DefaultLaunchDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetMany は、要求された全参加者IDの取得と抽出を実行し、
// 入力と同じ件数のレコードを返します（完了順のため順序は不定）。
// 個々の失敗はレコード内のデータとして報告され、兄弟タスクを
// 中断させることはありません。エラーを返すのはレンダリング資源
// そのものを構築できなかった場合だけです。
func (s *ParallelScraper) GetMany(ctx context.Context, raceID int, runnerIDs []int) ([]types.ParticipantRecord, error) {
	renderer, err := s.newRenderer()
	if err != nil {
		return nil, fmt.Errorf("レンダリング資源の構築に失敗しました: %w", err)
	}
	// 成功・失敗を問わず、復帰前に必ずブラウザ資源を破棄する
	defer func() {
		if cerr := renderer.Close(); cerr != nil {
			slog.Warn("レンダリング資源の破棄でエラーが発生しました", slog.Any("error", cerr))
		}
	}()

	total := len(runnerIDs)
	slog.Info("並列取得を開始します",
		slog.Int("race_id", raceID),
		slog.Int("total", total),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	var wg sync.WaitGroup
	resultsChan := make(chan types.ParticipantRecord, total)

	// バッファ付きチャネルをセマフォとして使用し、同時実行数を制限する
	semaphore := make(chan struct{}, s.maxConcurrency)

	start := time.Now()
	var completed atomic.Int64

	for _, id := range runnerIDs {
		wg.Add(1)

		// スロットの確保。上限まで実行中の場合はここでブロックして待機。
		semaphore <- struct{}{}

		go func(runnerID int) {
			defer wg.Done()
			// 処理完了後にスロットを解放し、待機中のGoroutineを実行可能にする
			defer func() { <-semaphore }()

			if s.launchDelay > 0 {
				select {
				case <-time.After(s.launchDelay):
				case <-ctx.Done():
				}
			}

			resultsChan <- s.fetchOne(ctx, renderer, raceID, runnerID)
			s.reportProgress(int(completed.Add(1)), total, start)
		}(id)
	}

	wg.Wait()
	close(resultsChan)

	results := make([]types.ParticipantRecord, 0, total)
	for rec := range resultsChan {
		results = append(results, rec)
	}
	return results, nil
}

// fetchOne は、1人分の取得と抽出を実行し、成功・失敗いずれの場合も
// runner_id を刻印したレコードを返します。ワーカーから逃げ出した
// パニックも合成エラーレコードへ変換します。
func (s *ParallelScraper) fetchOne(ctx context.Context, renderer render.Renderer, raceID, runnerID int) (rec types.ParticipantRecord) {
	defer func() {
		if v := recover(); v != nil {
			slog.Error("取得タスクからパニックを回収しました",
				slog.Int("runner_id", runnerID),
				slog.Any("panic", v),
			)
			rec = types.NewErrorRecord(runnerID, fmt.Sprintf("critical gather failure: %T", v))
		}
	}()

	html, err := renderer.Render(ctx, raceID, runnerID)
	if err != nil {
		slog.Warn("レンダリングに失敗しました",
			slog.Int("runner_id", runnerID),
			slog.Any("error", err),
		)
		return types.NewErrorRecord(runnerID, errorMessage(err))
	}

	parsed, err := extract.Extract(html)
	if err != nil {
		return types.NewErrorRecord(runnerID, err.Error())
	}

	parsed.RunnerID = runnerID
	return *parsed
}

// errorMessage は、レンダリングエラーをレコード用の分類文字列へ変換します。
func errorMessage(err error) string {
	var rerr *render.Error
	if errors.As(err, &rerr) {
		return rerr.RecordMessage()
	}
	return err.Error()
}
