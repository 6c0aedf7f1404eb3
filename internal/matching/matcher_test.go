package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"ポテト サラダ":  "ポテトサラダ",
		"ぽてとさらだ":   "ポテトサラダ",
		"ｺｰﾋｰ":     "コヒ",
		"コーヒー":     "コヒ",
		"ＣＯＦＦＥＥ":   "coffee",
		" Iced Tea ": "icedtea",
		"ラーメン〜":    "ラメン",
		"ｶﾞﾗﾅ":     "ガラナ",
		"ﾊﾟﾝｹｰｷ":   "パンケキ",
		"ﾎﾟﾃﾄｻﾗﾀﾞ": "ポテトサラダ",
		"ラーメン～":    "ラメン",
		"コーヒー－":    "コヒ",
		"ﾗｰﾒﾝ　大盛":   "ラメン大盛",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 0, Distance("", ""))
	assert.Equal(t, 3, Distance("", "abc"))
	assert.Equal(t, 3, Distance("kitten", "sitting"))
	assert.Equal(t, 2, Distance("ポテサラ", "ポテトサラダ"))
}

func TestSimilarityAcrossKanaWidths(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("ﾎﾟﾃﾄｻﾗﾀﾞ", "ポテトサラダ"))
	assert.Equal(t, 1.0, Similarity("ｷﾞｮｳｻﾞ", "ぎょうざ"))
	assert.Equal(t, 1.0, Similarity("ラーメン～", "らーめん"))

	got := DefaultMatcher.Match("ﾊﾟﾝｹｰｷ", []Candidate{{ID: 7, Name: "パンケーキ"}})
	require.Len(t, got, 1)
	best, ok := Best(got)
	require.True(t, ok)
	assert.Equal(t, int64(7), best.MenuID)
}

func TestSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"ポテサラ", "ポテトサラダ"},
		{"からあげ", "唐揚げ定食"},
		{"latte", "cafe latte"},
		{"", "x"},
	}
	for _, p := range pairs {
		assert.InDelta(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), 1e-12)
	}
	for _, s := range []string{"a", "ハンバーグ", "Cheese Cake"} {
		assert.Equal(t, 1.0, Similarity(s, s))
	}
	assert.Equal(t, 1.0, Similarity("", " "))
}

func TestMatchPotatoSalad(t *testing.T) {
	got := DefaultMatcher.Match("ポテサラ", []Candidate{
		{ID: 1, Name: "ポテトサラダ"},
		{ID: 2, Name: "唐揚げ定食"},
	})
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].MenuID)
	assert.InDelta(t, 0.6667, got[0].Similarity, 0.001)
	assert.False(t, got[0].SuggestedMatch)
}

func TestMatchOrderingAndSuggestion(t *testing.T) {
	got := DefaultMatcher.Match("カフェラテ", []Candidate{
		{ID: 1, Name: "カフェラテL"},
		{ID: 2, Name: "かふぇらて"},
		{ID: 3, Name: "カフェラテ(L)"},
		{ID: 4, Name: "緑茶"},
	})
	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].MenuID)
	assert.True(t, got[0].SuggestedMatch)
	assert.Equal(t, int64(1), got[1].MenuID)
	assert.True(t, got[1].SuggestedMatch)
	assert.Equal(t, int64(3), got[2].MenuID)
	assert.False(t, got[2].SuggestedMatch)

	best, ok := Best(DefaultMatcher.Match("かふぇらて", []Candidate{{ID: 2, Name: "カフェラテ"}}))
	require.True(t, ok)
	assert.Equal(t, int64(2), best.MenuID)
}

func TestMatchEmpty(t *testing.T) {
	assert.Empty(t, DefaultMatcher.Match("ポテサラ", nil))
	assert.Empty(t, DefaultMatcher.Match("ポテサラ", []Candidate{{ID: 1, Name: "緑茶"}}))
	_, ok := Best(DefaultMatcher.Match("ポテサラ", []Candidate{{ID: 1, Name: "ポテトサラダ"}}))
	assert.False(t, ok)
}
