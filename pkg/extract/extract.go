// Package extract は、レンダリング済みHTMLから参加者レコードを
// 組み立てる純粋な抽出ロジックを提供します。ネットワークI/Oは
// 一切行わず、同一入力に対して常に同一の出力を返します。
package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shouni/race-result-pipe-go/pkg/types"
)

// --- セレクタ定義（対象サイトの構造契約） ---

const (
	rowSelector         = "div.table-row.ant-row"
	cellSelector        = "div.ant-col.ant-col-6"
	playerTitleSelector = "div.ant-card-meta-detail > div.ant-card-meta-title"
	playerDescSelector  = "div.ant-card-meta-detail > div.ant-card-meta-description"
	anyMetaTitle        = "div.ant-card-meta-title"
	eventTitleSelector  = "div.ant-card-head-title"
)

// NoNameFallback は、名前が抽出できなかった場合の表示用センチネルです。
// 下流の表示層が常に何かを表示できるよう、空文字列にはしません。
const NoNameFallback = "이름없음"

// 説明行の先頭セグメントを性別と見なすためのトークン。
// 対象サイトのロケール固有の値であり、出力互換のためそのまま保持します。
var genderTokens = []string{"남자", "여자"}

// Extract は、レンダリング済みHTMLを解析して参加者レコードを返します。
// RunnerID は刻印しません（呼び出し側の責務）。メタ情報の抽出失敗は
// 致命的ではなく、該当フィールドが空のまま成功レコードになります。
func Extract(html string) (*types.ParticipantRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("HTMLの解析に失敗しました: %w", err)
	}

	rec := &types.ParticipantRecord{
		Sections: extractSections(doc),
	}

	extractPlayerMeta(doc, rec)
	rec.EventName = cleanedText(doc.Find(eventTitleSelector).First())

	if rec.Name == "" {
		rec.Name = NoNameFallback
	}
	return rec, nil
}

// extractSections は、計測テーブルの行コンテナから区間記録を
// テーブル行順（＝コース上の通過順）で抽出します。
func extractSections(doc *goquery.Document) []types.CheckpointSection {
	sections := make([]types.CheckpointSection, 0)

	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		var cols []string
		row.Find(cellSelector).Each(func(_ int, cell *goquery.Selection) {
			cols = append(cols, strings.TrimSpace(cell.Text()))
		})

		// セルを1つも持たない行はレイアウト上の構造物でありデータ行ではない
		if len(cols) == 0 {
			return
		}

		sections = append(sections, types.CheckpointSection{
			Section:   colAt(cols, 0),
			PassTime:  colAt(cols, 1),
			SplitTime: colAt(cols, 2),
			TotalTime: colAt(cols, 3),
		})
	})

	return sections
}

// extractPlayerMeta は、参加者メタカードから名前・性別・ゼッケン番号を
// ベストエフォートで抽出します。どの段階の失敗もレコード全体を
// 失敗にはしません。
func extractPlayerMeta(doc *goquery.Document, rec *types.ParticipantRecord) {
	rec.Name = cleanedText(doc.Find(playerTitleSelector).First())

	descText := cleanedText(doc.Find(playerDescSelector).First())
	if descText == "" {
		if rec.Name == "" {
			// タイトルも説明行も無い場合だけ全文書のメタタイトルへフォールバック
			rec.Name = cleanedText(doc.Find(anyMetaTitle).First())
		}
		return
	}

	// 説明行は "남자 | #1051" のようなパイプ区切り
	parts := strings.Split(descText, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if hasGenderToken(parts[0]) {
		rec.Gender = parts[0]
	}
	if len(parts) >= 2 {
		rec.BibNo = strings.TrimSpace(strings.TrimPrefix(parts[1], "#"))
	}

	if rec.Name == "" {
		rec.Name = cleanedText(doc.Find(anyMetaTitle).First())
	}
	if rec.Name == "" && !hasGenderToken(parts[0]) {
		// 代替レイアウト: 名前がタイトルではなく説明行の先頭セグメントに
		// 埋め込まれているページがある
		slog.Debug("タイトルから名前を抽出できず、説明行の先頭セグメントを名前として採用します",
			slog.String("segment", parts[0]),
		)
		rec.Name = parts[0]
	}
}

func hasGenderToken(segment string) bool {
	for _, token := range genderTokens {
		if strings.Contains(segment, token) {
			return true
		}
	}
	return false
}

func colAt(cols []string, i int) string {
	if i < len(cols) {
		return cols[i]
	}
	return ""
}

func cleanedText(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}
