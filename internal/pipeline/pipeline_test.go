package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artisan-voice-go/internal/audio"
	"artisan-voice-go/internal/content"
	"artisan-voice-go/internal/store"
	"artisan-voice-go/internal/textgen"
)

type passthroughReducer struct{}

func (passthroughReducer) Reduce(samples []float64, sampleRate int) ([]float64, error) {
	return samples, nil
}

type fakeTranscriber struct {
	fs    afero.Fs
	text  string
	err   error
	paths []string
	// sawCleanedFile records whether the cleaned file existed when called
	sawCleanedFile bool
}

func (f *fakeTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	f.paths = append(f.paths, path)
	f.sawCleanedFile, _ = afero.Exists(f.fs, path)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeSummarizer struct{}

func (fakeSummarizer) Summarize(_ context.Context, text string, maxLen, minLen int) (string, error) {
	return "summary of: " + text[:10], nil
}

type fakeGenerator struct{ err error }

func (f fakeGenerator) Generate(_ context.Context, prompt string, _ textgen.Params) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	switch {
	case strings.Contains(prompt, "first name"):
		return "Artisan", nil
	case strings.Contains(prompt, "creative copywriter"):
		return "Bowls shaped by hand from river clay.", nil
	default:
		return "clay bowl, handmade, pottery", nil
	}
}

func wavBytes(t *testing.T) []byte {
	t.Helper()
	fs := afero.NewMemMapFs()
	f, err := fs.Create("fixture.wav")
	require.NoError(t, err)

	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	data := make([]int, 8000*5) // 5 seconds of quiet tone
	for i := range data {
		data[i] = (i % 64) * 100
	}
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: 8000},
		SourceBitDepth: 16,
		Data:           data,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	f.Close()

	raw, err := afero.ReadFile(fs, "fixture.wav")
	require.NoError(t, err)
	return raw
}

func newTestPipeline(t *testing.T, fs afero.Fs, tr *fakeTranscriber, genErr error) *Pipeline {
	t.Helper()
	records, err := store.New(fs, "uploads/data")
	require.NoError(t, err)

	pre := audio.NewPreprocessor(fs, passthroughReducer{})
	engine := content.NewEngine(fakeSummarizer{}, fakeGenerator{err: genErr})

	pl, err := New(fs, "uploads/audio", pre, tr, engine, records)
	require.NoError(t, err)
	return pl
}

func TestProcessUploadEndToEnd(t *testing.T) {
	fs := afero.NewMemMapFs()
	tr := &fakeTranscriber{fs: fs, text: " I make clay bowls \n"}
	pl := newTestPipeline(t, fs, tr, nil)

	rec, err := pl.ProcessUpload(context.Background(), "voice.wav", bytes.NewReader(wavBytes(t)))
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "I make clay bowls", rec.Transcript)
	// 9 words < 30: about text is the transcript verbatim
	assert.Equal(t, "I make clay bowls", rec.Content.AboutText)
	assert.Equal(t, "Artisan", rec.Content.ArtisanName)
	assert.NotEmpty(t, rec.Content.Description)
	assert.Equal(t, []string{"clay bowl", "handmade", "pottery"}, rec.Content.Keywords)

	// original upload retained under the record id
	exists, _ := afero.Exists(fs, rec.AudioPath)
	assert.True(t, exists)
	assert.Equal(t, filepath.Join("uploads", "audio", rec.ID+".wav"), rec.AudioPath)

	// transcriber got a cleaned file that is gone afterwards
	require.Len(t, tr.paths, 1)
	assert.True(t, tr.sawCleanedFile)
	gone, _ := afero.Exists(fs, tr.paths[0])
	assert.False(t, gone, "cleaned intermediate must not outlive the pipeline call")

	// record persisted and readable
	reader, err := store.New(fs, "uploads/data")
	require.NoError(t, err)
	loaded, err := reader.Load(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)
}

func TestIdenticalUploadsGetDistinctRecords(t *testing.T) {
	fs := afero.NewMemMapFs()
	tr := &fakeTranscriber{fs: fs, text: "I make clay bowls"}
	pl := newTestPipeline(t, fs, tr, nil)

	raw := wavBytes(t)
	rec1, err := pl.ProcessUpload(context.Background(), "voice.wav", bytes.NewReader(raw))
	require.NoError(t, err)
	rec2, err := pl.ProcessUpload(context.Background(), "voice.wav", bytes.NewReader(raw))
	require.NoError(t, err)

	assert.NotEqual(t, rec1.ID, rec2.ID)
	for _, id := range []string{rec1.ID, rec2.ID} {
		exists, _ := afero.Exists(fs, filepath.Join("uploads", "data", id+".json"))
		assert.True(t, exists)
	}
}

func TestTranscriptionFailureCleansUpAndPersistsNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	tr := &fakeTranscriber{fs: fs, err: errors.New("whisper down")}
	pl := newTestPipeline(t, fs, tr, nil)

	_, err := pl.ProcessUpload(context.Background(), "voice.wav", bytes.NewReader(wavBytes(t)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcription")

	require.Len(t, tr.paths, 1)
	gone, _ := afero.Exists(fs, tr.paths[0])
	assert.False(t, gone, "cleaned file removed on the failure path too")

	assertNoRecords(t, fs)
}

func TestGenerationFailurePersistsNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	tr := &fakeTranscriber{fs: fs, text: "I make clay bowls"}
	pl := newTestPipeline(t, fs, tr, errors.New("model down"))

	_, err := pl.ProcessUpload(context.Background(), "voice.wav", bytes.NewReader(wavBytes(t)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content generation")
	assertNoRecords(t, fs)
}

func TestUnreadableUploadFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	tr := &fakeTranscriber{fs: fs, text: "x"}
	pl := newTestPipeline(t, fs, tr, nil)

	_, err := pl.ProcessUpload(context.Background(), "voice.wav", bytes.NewReader([]byte("not a wav")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio processing")
	assertNoRecords(t, fs)
}

func assertNoRecords(t *testing.T, fs afero.Fs) {
	t.Helper()
	entries, err := afero.ReadDir(fs, "uploads/data")
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasSuffix(e.Name(), ".json"),
			fmt.Sprintf("unexpected persisted record %s", e.Name()))
	}
}
