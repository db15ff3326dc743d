// Package builder は、設定値に基づいて具体的な依存関係を組み立てます。
package builder

import (
	"fmt"
	"time"

	"github.com/shouni/race-result-pipe-go/pkg/render"
	"github.com/shouni/race-result-pipe-go/pkg/runner"
	"github.com/shouni/race-result-pipe-go/pkg/scraper"
)

// Strategy は、ブラウザ資源の割り当て戦略です。
type Strategy string

const (
	// StrategyShared は、1つのブラウザプロセスとページプールを共有します。
	StrategyShared Strategy = "shared"
	// StrategyIsolated は、取得ごとに専用ブラウザを起動します。
	// 信頼できない対象サイトに対する安全側の既定値です。
	StrategyIsolated Strategy = "isolated"
)

// Config は、スクレイピングパイプライン全体の構築設定です。
type Config struct {
	BaseURL     string
	Strategy    Strategy
	Concurrency int
	NavTimeout  time.Duration
	LaunchDelay time.Duration
}

// buildRendererFactory は、戦略に応じた RendererFactory を返します。
// どちらの戦略も render.Renderer の背後に隠れるため、コントローラ側は
// 区別しません。
func buildRendererFactory(cfg Config) (scraper.RendererFactory, error) {
	renderCfg := render.Config{
		BaseURL:    cfg.BaseURL,
		NavTimeout: cfg.NavTimeout,
		PoolSize:   cfg.Concurrency,
	}

	switch cfg.Strategy {
	case StrategyShared:
		return func() (render.Renderer, error) {
			return render.NewBrowserRenderer(renderCfg)
		}, nil
	case StrategyIsolated, "":
		return func() (render.Renderer, error) {
			return render.NewIsolatedRenderer(renderCfg), nil
		}, nil
	default:
		return nil, fmt.Errorf("未知のブラウザ戦略です: %q", cfg.Strategy)
	}
}

// BuildParallelScraper は、戦略に応じた ParallelScraper を構築します。
func BuildParallelScraper(cfg Config) (*scraper.ParallelScraper, error) {
	factory, err := buildRendererFactory(cfg)
	if err != nil {
		return nil, err
	}

	// LaunchDelay はそのまま引き渡す（0以下は遅延なし）
	return scraper.NewParallelScraper(
		factory,
		cfg.Concurrency,
		scraper.WithLaunchDelay(cfg.LaunchDelay),
	), nil
}

// BuildBatchRunner は、runner.Runner の依存関係をすべて構築し、
// Runnerインスタンスを返します。
func BuildBatchRunner(cfg Config) (*runner.Runner, error) {
	parallelScraper, err := BuildParallelScraper(cfg)
	if err != nil {
		return nil, err
	}
	return runner.NewRunner(parallelScraper), nil
}
