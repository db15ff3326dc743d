package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ----------------------------------------------------------------
// 共有ブラウザ戦略 (BrowserRenderer)
// ----------------------------------------------------------------

// BrowserRenderer は、1つのヘッドレスブラウザプロセスを共有し、
// 同時実行数に合わせたページプールからページをリースして
// レンダリングを行う Renderer 実装です。
type BrowserRenderer struct {
	cfg      Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	pool     rod.Pool[rod.Page]
}

// NewBrowserRenderer は、ブラウザを起動して接続し、BrowserRenderer を返します。
func NewBrowserRenderer(cfg Config) (*BrowserRenderer, error) {
	cfg = cfg.withDefaults()

	l := launcher.New().
		Headless(true).
		NoSandbox(true)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("ブラウザの起動に失敗しました: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("ブラウザへの接続に失敗しました: %w", err)
	}

	return &BrowserRenderer{
		cfg:      cfg,
		launcher: l,
		browser:  browser,
		pool:     rod.NewPagePool(cfg.PoolSize),
	}, nil
}

// Render は、対象ページをプールからリースしたページで開き、
// 計測テーブルの描画を待ってからHTMLを返します。
func (r *BrowserRenderer) Render(ctx context.Context, raceID, runnerID int) (string, error) {
	page, err := r.pool.Get(func() (*rod.Page, error) {
		return r.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return "", classify(fmt.Errorf("ページの取得に失敗しました: %w", err), KindTargetClosed)
	}
	defer r.pool.Put(page)

	return renderOnPage(ctx, page, r.cfg, raceID, runnerID)
}

// Close は、プール内の全ページとブラウザプロセスを破棄します。
func (r *BrowserRenderer) Close() error {
	r.pool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	err := r.browser.Close()
	r.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("ブラウザの終了に失敗しました: %w", err)
	}
	return nil
}

// ----------------------------------------------------------------
// 共通のページ操作
// ----------------------------------------------------------------

// renderOnPage は、1ページ分のナビゲーション・描画待ち・HTML取得を行います。
// 失敗はすべて *Error へ変換され、ここから上へ例外的に伝播することはありません。
func renderOnPage(ctx context.Context, page *rod.Page, cfg Config, raceID, runnerID int) (string, error) {
	url := targetURL(cfg.BaseURL, raceID, runnerID)

	slog.Info("ページへのナビゲーションを開始",
		slog.Int("race_id", raceID),
		slog.Int("runner_id", runnerID),
		slog.String("url", url),
	)

	p := page.Context(ctx).Timeout(cfg.NavTimeout)

	if err := p.Navigate(url); err != nil {
		return "", classify(err, KindFetchFailed)
	}
	if err := p.WaitLoad(); err != nil {
		return "", classify(err, KindFetchFailed)
	}

	// クライアントサイド描画の完了待ち。タイムアウトしても即失敗とせず、
	// 猶予スリープの後に現時点のHTMLを読み取る（描画がわずかに遅い
	// ページでも部分的に有用な結果が得られる）。
	if _, err := p.Timeout(cfg.SelectorTimeout).Element(RowSelector); err != nil {
		slog.Warn("計測テーブルのセレクタ待ちがタイムアウトしました。猶予後にHTMLを読み取ります。",
			slog.Int("runner_id", runnerID),
			slog.Duration("grace", cfg.GraceSleep),
		)
		time.Sleep(cfg.GraceSleep)
	}

	html, err := p.HTML()
	if err != nil {
		return "", classify(err, KindInternal)
	}

	slog.Info("HTMLの取得に成功",
		slog.Int("runner_id", runnerID),
		slog.Int("html_length", len(html)),
	)
	return html, nil
}
