package timeparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSeconds(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  int
	}{
		{name: "HH:MM:SS", input: "01:02:03", want: 3723},
		{name: "MM:SS", input: "02:03", want: 123},
		{name: "1桁の時", input: "1:02:03", want: 3723},
		{name: "前後の空白", input: " 00:37:54 ", want: 2274},
		{name: "桁が揃っていない表記", input: "0:7:4", want: 424},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToSeconds(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToSecondsInvalid(t *testing.T) {
	// 解析失敗はゼロ値ではなく明示的なエラーで表現する
	for _, input := range []string{"", "   ", "abc", "12", "1:2:3:4"} {
		t.Run("invalid_"+input, func(t *testing.T) {
			_, err := ToSeconds(input)
			assert.Error(t, err)
		})
	}
}
