// Package render は、ヘッドレスブラウザで参加者の記録ページを
// レンダリングし、完成したHTMLを取得する機能を提供します。
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// --- 定数 ---

const (
	// RowSelector は、クライアントサイド描画によって計測テーブルが
	// 構築されたことを示すセレクタです。
	RowSelector = "div.table-row.ant-row"

	// DefaultNavTimeout は、1ページあたりのナビゲーション全体のタイムアウトです。
	DefaultNavTimeout = 12 * time.Second
	// DefaultSelectorTimeout は、計測テーブルの出現待ちのタイムアウトです。
	DefaultSelectorTimeout = 7 * time.Second
	// DefaultGraceSleep は、セレクタ待ちがタイムアウトした後に
	// HTMLを読み取る前へ挟む猶予時間です。描画が閾値よりわずかに
	// 遅いページを救済します。
	DefaultGraceSleep = 800 * time.Millisecond
)

// --- インターフェース定義 (DI対象) ---

// Renderer は、1人の参加者のページをレンダリングしてHTMLを返す抽象化です。
// 実ブラウザを起動せずにテストできるよう、コントローラはこの
// インターフェースにのみ依存します。
type Renderer interface {
	Render(ctx context.Context, raceID, runnerID int) (string, error)
	Close() error
}

// --- 設定 ---

// Config は Renderer 実装に共通する設定を保持します。
type Config struct {
	BaseURL         string
	NavTimeout      time.Duration
	SelectorTimeout time.Duration
	GraceSleep      time.Duration
	PoolSize        int // 共有ブラウザ戦略でのページプールのサイズ
}

func (c Config) withDefaults() Config {
	if c.NavTimeout <= 0 {
		c.NavTimeout = DefaultNavTimeout
	}
	if c.SelectorTimeout <= 0 {
		c.SelectorTimeout = DefaultSelectorTimeout
	}
	if c.GraceSleep <= 0 {
		c.GraceSleep = DefaultGraceSleep
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 1
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

// targetURL は、ベースURL・レースID・参加者IDをパスセグメントとして結合します。
func targetURL(base string, raceID, runnerID int) string {
	return fmt.Sprintf("%s/%d/%d", strings.TrimRight(base, "/"), raceID, runnerID)
}

// --- 型付きエラー ---

// Kind は、レンダリング失敗の分類です。レコードの error フィールドへ
// そのまま書き出せるよう、既知の分類は固定文字列を持ちます。
type Kind string

const (
	KindTimeout      Kind = "timeout"       // ページが時間内にインタラクティブにならなかった
	KindTargetClosed Kind = "target_closed" // レンダリング資源が途中で破棄された
	KindFetchFailed  Kind = "fetch_failed"  // コンテンツ取得前のナビゲーション失敗
	KindInternal     Kind = "internal"      // その他（メッセージをそのまま保持）
)

// Error は、レンダリング失敗を例外ではなくデータとして運ぶ型付きエラーです。
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("レンダリング失敗 (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RecordMessage は、ParticipantRecord.Error に記録する文字列を返します。
// 既知の分類は分類名のみ、internal は元のメッセージを保持します。
func (e *Error) RecordMessage() string {
	if e.Kind == KindInternal {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// classify は、ブラウザ操作のエラーを既定の分類へ割り当てます。
// コンテキストの取り消しは target_closed に含めます: 呼び出し側の
// バッチ中断もページターゲットの破棄も、取得途中でレンダリング資源が
// 失われた同一の結果として扱い、レコード上で区別しません。
func classify(err error, fallback Kind) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Err: err}
	case errors.Is(err, context.Canceled),
		strings.Contains(err.Error(), "target closed"),
		strings.Contains(err.Error(), "context canceled"):
		return &Error{Kind: KindTargetClosed, Err: err}
	default:
		return &Error{Kind: fallback, Err: err}
	}
}
