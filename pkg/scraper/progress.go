package scraper

import (
	"log/slog"
	"time"
)

// Progress は、バッチ実行中の進捗スナップショットです。
// 戻り値の一部ではなく、オペレータ向けの診断情報として副チャネルで
// 通知されます。
type Progress struct {
	Completed  int
	Total      int
	Elapsed    time.Duration
	AvgPerItem time.Duration
	Remaining  time.Duration // 平均所要時間に基づく完了までの予測
}

// reportProgress は、1項目の完了ごとに進捗を計算してログと
// コールバックへ通知します。
func (s *ParallelScraper) reportProgress(completed, total int, start time.Time) {
	elapsed := time.Since(start)

	p := Progress{
		Completed: completed,
		Total:     total,
		Elapsed:   elapsed,
	}
	if completed > 0 {
		p.AvgPerItem = elapsed / time.Duration(completed)
		p.Remaining = p.AvgPerItem * time.Duration(total-completed)
	}

	slog.Info("進捗",
		slog.Int("completed", p.Completed),
		slog.Int("total", p.Total),
		slog.Duration("elapsed", p.Elapsed.Round(time.Millisecond)),
		slog.Duration("avg_per_item", p.AvgPerItem.Round(time.Millisecond)),
		slog.Duration("eta", p.Remaining.Round(time.Millisecond)),
	)

	if s.onProgress != nil {
		s.onProgress(p)
	}
}
