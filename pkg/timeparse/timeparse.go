// Package timeparse は、"HH:MM:SS" / "MM:SS" 形式の記録文字列を
// 秒数（int）へ変換する下流向けの小さなユーティリティです。
package timeparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// 厳密なクロック形式: (HH:)?MM:SS
	clockPattern = regexp.MustCompile(`^(?:(\d{1,2}):)?([0-5]?\d):([0-5]?\d)$`)
	// 桁が揃っていない表記への補正用（数字グループの抜き出し）
	digitsPattern = regexp.MustCompile(`\d+`)
)

// ToSeconds は "HH:MM:SS" または "MM:SS" 形式の文字列を秒数へ変換します。
// 空文字列や解析不能な入力はエラーを返します（ゼロ値ではなく明示的な不在）。
func ToSeconds(text string) (int, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0, fmt.Errorf("時間文字列が空です")
	}

	if m := clockPattern.FindStringSubmatch(t); m != nil {
		h := 0
		if m[1] != "" {
			h, _ = strconv.Atoi(m[1])
		}
		mnt, _ := strconv.Atoi(m[2])
		s, _ := strconv.Atoi(m[3])
		return h*3600 + mnt*60 + s, nil
	}

	// "0:37:54" のように2桁固定でない表記への補正
	groups := digitsPattern.FindAllString(t, -1)
	switch len(groups) {
	case 3:
		h, _ := strconv.Atoi(groups[0])
		mnt, _ := strconv.Atoi(groups[1])
		s, _ := strconv.Atoi(groups[2])
		return h*3600 + mnt*60 + s, nil
	case 2:
		mnt, _ := strconv.Atoi(groups[0])
		s, _ := strconv.Atoi(groups[1])
		return mnt*60 + s, nil
	}

	return 0, fmt.Errorf("時間形式を解析できません: %q", text)
}
