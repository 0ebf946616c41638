package lexicon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "travel-orchestrator/internal/common/errors"
	"travel-orchestrator/internal/models"
)

// ==========================
// Embedded lexicon
// ==========================

func TestDefault_CoversEverySupportedLanguage(t *testing.T) {
	lex, err := Default()
	require.NoError(t, err)

	for _, lang := range SupportedLanguages {
		t.Run(string(lang), func(t *testing.T) {
			ls := lex.For(lang)
			require.NotNil(t, ls)
			assert.NotEmpty(t, ls.Indicators)
			assert.NotEmpty(t, ls.Prepositions.Origin)
			assert.NotEmpty(t, ls.Prepositions.Destination)
			for _, it := range models.IntentPriority {
				if it == models.IntentGeneralInfo {
					continue
				}
				assert.NotEmpty(t, ls.Intents[it].Keywords, "intent %s", it)
			}
			for _, rule := range append(ls.Dates, ls.Times...) {
				assert.NotNil(t, rule.Regexp(), rule.Pattern)
			}
		})
	}
}

func TestDefault_TermsAreLowercased(t *testing.T) {
	lex := MustDefault()
	for _, lang := range SupportedLanguages {
		for _, term := range lex.For(lang).Indicators {
			assert.Equal(t, strings.ToLower(term), term)
		}
	}
}

func TestDefault_UnspacedOnlyForChinese(t *testing.T) {
	lex := MustDefault()
	assert.True(t, lex.For(models.LanguageChinese).Unspaced)
	assert.False(t, lex.For(models.LanguageChinese).Bounded())
	assert.True(t, lex.For(models.LanguageHindi).Postpositional)
	assert.True(t, lex.For(models.LanguageGerman).Bounded())
	assert.Nil(t, lex.For("es"))
	assert.False(t, lex.Supports("es"))
}

func TestProtectedSpans(t *testing.T) {
	lex := MustDefault()

	text := "Trains from St. Gallen to st. moritz"
	spans := lex.ProtectedSpans(text)

	require.Len(t, spans, 2)
	assert.Equal(t, "St. Gallen", text[spans[0][0]:spans[0][1]])
	assert.Equal(t, "st. moritz", text[spans[1][0]:spans[1][1]])
}

// ==========================
// Validation failures
// ==========================

func TestLoad_MissingLanguageFailsSchema(t *testing.T) {
	doc := strings.Replace(string(Embedded()), "\n  hi:\n", "\n  xx:\n", 1)

	_, err := Load([]byte(doc))

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeLexiconInvalid))
}

func TestLoad_MissingIntentFailsSchema(t *testing.T) {
	doc := strings.Replace(string(Embedded()), "      train_formation:\n        keywords: [composizione", "      unknown_intent:\n        keywords: [composizione", 1)
	require.NotEqual(t, string(Embedded()), doc)

	_, err := Load([]byte(doc))

	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeLexiconInvalid))
}

func TestLoad_BadRegex(t *testing.T) {
	doc := strings.Replace(string(Embedded()), `{pattern: 'tomorrow', value: tomorrow}`, `{pattern: 'tomorrow(', value: tomorrow}`, 1)
	require.NotEqual(t, string(Embedded()), doc)

	_, err := Load([]byte(doc))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "en.dates")
}

func TestLoad_NotYAML(t *testing.T) {
	_, err := Load([]byte("languages: [unterminated"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeLexiconInvalid))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, Embedded(), 0o600))

	lex, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, MustDefault().Version, lex.Version)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	def, err := LoadFile("")
	require.NoError(t, err)
	assert.Same(t, MustDefault(), def)
}
