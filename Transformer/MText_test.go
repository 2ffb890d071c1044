package Transformer

import (
	"testing"

	"github.com/GrainArc/DxfSvg/CadDoc"
	"github.com/stretchr/testify/assert"
)

func TestStripMTextFormatting(t *testing.T) {
	cases := map[string]string{
		`Width: 120\A1;mm`:   "Width: 120mm",
		`\A1;25.4`:           "25.4",
		`\A0;\A12;x\A3;`:     "x",
		`\A\A1;1;`:           "",
		`plain`:              "plain",
		`\P{\fArial|b1;x}`:   `\P{\fArial|b1;x}`,
		`\A;not a code`:      `\A;not a code`,
		`line\Pbreak \A2;ok`: `line\Pbreak ok`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripMTextFormatting(in), in)
	}
}

func TestStripMTextFormattingIdempotent(t *testing.T) {
	for _, in := range []string{`\A\A1;1;`, `a\A1;b\A\A\A2;3;4;c`, `\A1;\P25`, ``} {
		once := StripMTextFormatting(in)
		assert.Equal(t, once, StripMTextFormatting(once), in)
		assert.NotContains(t, once, `\A1;`)
	}
}

func TestCleanLabel(t *testing.T) {
	assert.False(t, CleanLabel(CadDoc.None[string]()).IsSet())
	v, ok := CleanLabel(CadDoc.Some(`\A1;10`)).Get()
	assert.True(t, ok)
	assert.Equal(t, "10", v)
}
