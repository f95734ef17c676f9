package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"artisan-voice-go/internal/logger"
	"artisan-voice-go/internal/textgen"
	"artisan-voice-go/internal/types"
)

// Summarizer condenses long text into a short about-blurb.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error)
}

// Generator runs an instruction prompt with deterministic decoding.
type Generator interface {
	Generate(ctx context.Context, prompt string, p textgen.Params) (string, error)
}

// shortTranscriptWords is the cutoff below which summarization is skipped:
// summarizing an already-short transcript only discards signal.
const shortTranscriptWords = 30

const (
	summaryMaxLen = 100
	summaryMinLen = 25
)

var defaultParams = textgen.Params{
	MaxNewTokens:      250,
	NumBeams:          4,
	NoRepeatNgramSize: 2,
	EarlyStopping:     true,
}

var nameParams = textgen.Params{
	MaxNewTokens:      20,
	NumBeams:          4,
	NoRepeatNgramSize: 2,
	EarlyStopping:     true,
}

// Engine derives the four-field listing payload from one transcript. Any
// sub-task failure fails the whole call; partial content is never returned.
type Engine struct {
	summarizer Summarizer
	generator  Generator
	log        *logrus.Entry
}

func NewEngine(s Summarizer, g Generator) *Engine {
	return &Engine{
		summarizer: s,
		generator:  g,
		log:        logger.WithComponent("content"),
	}
}

func (e *Engine) Generate(ctx context.Context, transcript string) (types.StructuredContent, error) {
	e.log.WithField("transcript_words", wordCount(transcript)).Info("generating structured content")

	about, err := e.aboutText(ctx, transcript)
	if err != nil {
		return types.StructuredContent{}, fmt.Errorf("about text: %w", err)
	}

	namePrompt := fmt.Sprintf("From the following text, extract the artisan's first name. If a name is not mentioned, respond with 'Artisan'. Text: %q", transcript)
	name, err := e.generator.Generate(ctx, namePrompt, nameParams)
	if err != nil {
		return types.StructuredContent{}, fmt.Errorf("artisan name: %w", err)
	}

	descPrompt := fmt.Sprintf("Act as a creative copywriter. Your task is to take the key information from the artisan's transcript and write a completely original, first-person product description for a marketplace website. DO NOT use the exact sentences from the transcript. Rewrite everything in a more descriptive and professional tone. Here is the artisan's transcript: %q", transcript)
	description, err := e.generator.Generate(ctx, descPrompt, defaultParams)
	if err != nil {
		return types.StructuredContent{}, fmt.Errorf("description: %w", err)
	}

	// keywords see both the transcript and the rewritten description
	keywordPrompt := fmt.Sprintf("Based on the following text, generate a list of 7 to 10 commercially relevant trendy keywords for a marketplace listing. The keywords should include product type, material, style, and potential uses. Separate them with commas. Text: %q", transcript+" "+description)
	rawKeywords, err := e.generator.Generate(ctx, keywordPrompt, defaultParams)
	if err != nil {
		return types.StructuredContent{}, fmt.Errorf("keywords: %w", err)
	}

	return types.StructuredContent{
		ArtisanName: name,
		AboutText:   about,
		Description: description,
		Keywords:    SplitKeywords(rawKeywords),
	}, nil
}

func (e *Engine) aboutText(ctx context.Context, transcript string) (string, error) {
	if wordCount(transcript) < shortTranscriptWords {
		e.log.Debug("short transcript, using it verbatim as about text")
		return transcript, nil
	}
	return e.summarizer.Summarize(ctx, transcript, summaryMaxLen, summaryMinLen)
}

// SplitKeywords turns comma-separated model output into an ordered keyword
// list. Entries are trimmed; anything empty after trimming is dropped.
func SplitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if kw := strings.TrimSpace(p); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
