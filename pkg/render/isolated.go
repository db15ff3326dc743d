package render

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ----------------------------------------------------------------
// 分離ブラウザ戦略 (IsolatedRenderer)
// ----------------------------------------------------------------

// IsolatedRenderer は、Render の呼び出しごとに専用のブラウザプロセスを
// 起動して破棄する Renderer 実装です。スループットを犠牲にして
// 完全な分離を得るため、1ページのクラッシュが共有状態を壊すことが
// ありません。不安定な対象サイトに対する既定の戦略です。
type IsolatedRenderer struct {
	cfg Config
}

// NewIsolatedRenderer は IsolatedRenderer を作成します。
// ブラウザの起動は Render 呼び出し時まで遅延されます。
func NewIsolatedRenderer(cfg Config) *IsolatedRenderer {
	return &IsolatedRenderer{cfg: cfg.withDefaults()}
}

// Render は、専用ブラウザを起動して対象ページをレンダリングし、
// 終了時に必ずプロセスを破棄します。
func (r *IsolatedRenderer) Render(ctx context.Context, raceID, runnerID int) (string, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(true)

	controlURL, err := l.Launch()
	if err != nil {
		return "", classify(fmt.Errorf("ブラウザの起動に失敗しました: %w", err), KindFetchFailed)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return "", classify(fmt.Errorf("ブラウザへの接続に失敗しました: %w", err), KindFetchFailed)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", classify(fmt.Errorf("ページの作成に失敗しました: %w", err), KindTargetClosed)
	}
	defer page.Close()

	return renderOnPage(ctx, page, r.cfg, raceID, runnerID)
}

// Close は何も保持しないため常に nil を返します。
// ブラウザプロセスは Render ごとに破棄済みです。
func (r *IsolatedRenderer) Close() error {
	return nil
}
