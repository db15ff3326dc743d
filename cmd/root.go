package cmd

import (
	"log"
	"time"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/race-result-pipe-go/pkg/builder"
	"github.com/shouni/race-result-pipe-go/pkg/scraper"
)

// --- グローバル定数 ---

const (
	appName            = "race-result-pipe"
	defaultBaseURL     = "https://www.myresult.co.kr"
	defaultTimeoutSec  = 12 // 秒 (1ページあたりのナビゲーションタイムアウト)
	defaultConcurrency = scraper.DefaultMaxConcurrency
	defaultStrategy    = string(builder.StrategyIsolated)
	// ミリ秒 (各取得の開始前に挟む対象サイトへの配慮遅延。0で無効)
	defaultLaunchDelayMS = int(scraper.DefaultLaunchDelay / time.Millisecond)
)

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	BaseURL       string // --base-url 対象サイトのベースURL
	TimeoutSec    int    // --timeout 1ページあたりのナビゲーションタイムアウト
	Concurrency   int    // --concurrency 最大同時実行数（＝ブラウザタブ数の上限）
	Strategy      string // --strategy ブラウザ資源の割り当て戦略 (shared|isolated)
	LaunchDelayMS int    // --launch-delay 各取得の開始前の遅延（ミリ秒）
}

var Flags AppFlags // アプリケーション固有フラグにアクセスするためのグローバル変数

// buildConfig は、フラグ値からパイプラインの構築設定を組み立てます。
func buildConfig() builder.Config {
	return builder.Config{
		BaseURL:     Flags.BaseURL,
		Strategy:    builder.Strategy(Flags.Strategy),
		Concurrency: Flags.Concurrency,
		NavTimeout:  time.Duration(Flags.TimeoutSec) * time.Second,
		LaunchDelay: time.Duration(Flags.LaunchDelayMS) * time.Millisecond,
	}
}

// --- 初期化とロジック (clibaseへのコールバックとして利用) ---

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
// clibase.CustomFlagFunc のシグネチャに一致します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(
		&Flags.BaseURL,
		"base-url",
		defaultBaseURL,
		"記録サイトのベースURL",
	)
	rootCmd.PersistentFlags().IntVar(
		&Flags.TimeoutSec,
		"timeout",
		defaultTimeoutSec,
		"1ページあたりのナビゲーションタイムアウト（秒）",
	)
	rootCmd.PersistentFlags().IntVar(
		&Flags.Concurrency,
		"concurrency",
		defaultConcurrency,
		"最大同時実行数（同時に開くブラウザタブ/プロセスの上限）",
	)
	rootCmd.PersistentFlags().StringVar(
		&Flags.Strategy,
		"strategy",
		defaultStrategy,
		"ブラウザ資源の割り当て戦略 (shared|isolated)",
	)
	rootCmd.PersistentFlags().IntVar(
		&Flags.LaunchDelayMS,
		"launch-delay",
		defaultLaunchDelayMS,
		"各取得の開始前に挟む遅延（ミリ秒、0で無効）",
	)
}

// initAppPreRunE は、アプリケーション固有のPersistentPreRunEです。
// clibaseの共通処理の後に実行されます。
// NOTE: clibase.Flags.Verbose はこの関数実行前に設定済み
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	if clibase.Flags.Verbose {
		log.Printf("ナビゲーションタイムアウトを設定しました (Timeout: %ds)。", Flags.TimeoutSec)
		log.Printf("最大同時実行数を設定しました (Concurrency: %d, Strategy: %s)。", Flags.Concurrency, Flags.Strategy)
	}
	return nil
}

// initCmdFlags は、すべてのサブコマンドのフラグを初期化します。
func initCmdFlags() {
	initBatchFlags()
	initRunnerFlags()
}

// --- エントリポイント ---

// Execute は、rootCmd を実行するメイン関数です。
func Execute() {
	// initCmdFlags でサブコマンドのフラグを登録
	initCmdFlags()

	// ルートコマンドの構築と実行を clibase に全て委任
	clibase.Execute(
		appName,
		addAppPersistentFlags, // カスタムフラグの追加コールバック
		initAppPreRunE,        // カスタムPersistentPreRunEコールバック
		batchCmd,
		runnerCmd,
	)
}
