package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_UniformTextChunkCount(t *testing.T) {
	// 4500 runes of boundary-free text at size 1000 / overlap 200
	// partitions into five bodies of 1000,1000,1000,1000,500
	text := strings.Repeat("a", 4500)

	fragments, err := Split(text, Config{Size: 1000, Overlap: 200, MinLength: 50})
	require.NoError(t, err)
	require.Len(t, fragments, 5)

	assert.Equal(t, 0, fragments[0].Start)
	assert.Equal(t, 1000, fragments[0].End)
	// Later fragments carry 200 runes of leading context
	assert.Equal(t, 800, fragments[1].Start)
	assert.Equal(t, 2000, fragments[1].End)
	assert.Equal(t, 4500, fragments[4].End)
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 120)
	cfg := DefaultConfig()

	first, err := Split(text, cfg)
	require.NoError(t, err)
	second, err := Split(text, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSplit_FragmentsMatchSourceSpans(t *testing.T) {
	text := strings.Repeat("Paragraph one has some words.\n\nParagraph two follows it closely. ", 40)
	runes := []rune(text)

	fragments, err := Split(text, Config{Size: 300, Overlap: 60, MinLength: 50})
	require.NoError(t, err)
	require.NotEmpty(t, fragments)

	for _, frag := range fragments {
		assert.Equal(t, string(runes[frag.Start:frag.End]), frag.Text)
	}
}

func TestSplit_OverlapContinuity(t *testing.T) {
	text := strings.Repeat("Sentences continue across boundaries all the time. ", 100)

	fragments, err := Split(text, Config{Size: 400, Overlap: 100, MinLength: 50})
	require.NoError(t, err)
	require.Greater(t, len(fragments), 1)

	for i := 1; i < len(fragments); i++ {
		// Each fragment begins before the previous one ends
		assert.Less(t, fragments[i].Start, fragments[i-1].End)
		overlap := fragments[i-1].End - fragments[i].Start
		assert.LessOrEqual(t, overlap, 100)
		assert.Greater(t, overlap, 0)
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("word ", 50) // 250 runes
	text := para + "\n\n" + para + "\n\n" + para

	fragments, err := Split(text, Config{Size: 300, Overlap: 0, MinLength: 50})
	require.NoError(t, err)
	require.Len(t, fragments, 3)

	// Bodies break at the paragraph boundary, not mid-paragraph
	for _, frag := range fragments {
		assert.LessOrEqual(t, frag.End-frag.Start, 300)
		assert.Contains(t, frag.Text, "word")
	}
}

func TestSplit_CoversWholeText(t *testing.T) {
	text := strings.Repeat("Line of text here.\n", 150)

	fragments, err := Split(text, Config{Size: 500, Overlap: 50, MinLength: 10})
	require.NoError(t, err)
	require.NotEmpty(t, fragments)

	assert.Equal(t, 0, fragments[0].Start)
	assert.Equal(t, len([]rune(text)), fragments[len(fragments)-1].End)
	// No gaps between consecutive bodies
	for i := 1; i < len(fragments); i++ {
		assert.LessOrEqual(t, fragments[i].Start, fragments[i-1].End)
	}
}

func TestSplit_DropsShortNoise(t *testing.T) {
	fragments, err := Split("tiny", Config{Size: 100, Overlap: 10, MinLength: 50})
	require.NoError(t, err)
	assert.Empty(t, fragments)
}

func TestSplit_MinLengthMeasuresBodyNotOverlap(t *testing.T) {
	// A short trailing body stays noise even when the overlap prefix
	// would pad the fragment text past the threshold
	text := strings.Repeat("x", 98) + "\n\n" + "tiny tail"

	fragments, err := Split(text, Config{Size: 100, Overlap: 60, MinLength: 50})
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	assert.Equal(t, 0, fragments[0].Start)
}

func TestSplit_EmptyText(t *testing.T) {
	fragments, err := Split("", DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, fragments)
}

func TestSplit_SingleFragmentFitsWhole(t *testing.T) {
	text := strings.Repeat("short paragraph of text ", 4) // 96 runes

	fragments, err := Split(text, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	assert.Equal(t, text, fragments[0].Text)
}

func TestSplit_HardCutsUnbrokenRuns(t *testing.T) {
	text := strings.Repeat("x", 2500)

	fragments, err := Split(text, Config{Size: 1000, Overlap: 0, MinLength: 50})
	require.NoError(t, err)
	assert.Len(t, fragments, 3)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Size: 0, Overlap: 0}.Validate())
	assert.Error(t, Config{Size: 100, Overlap: 100}.Validate())
	assert.Error(t, Config{Size: 100, Overlap: -1}.Validate())
	assert.Error(t, Config{Size: 100, Overlap: 10, MinLength: -5}.Validate())
}
