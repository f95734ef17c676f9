package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"artisan-voice-go/internal/audio"
	"artisan-voice-go/internal/content"
	"artisan-voice-go/internal/logger"
	"artisan-voice-go/internal/store"
	"artisan-voice-go/internal/transcription"
	"artisan-voice-go/internal/types"
)

// Pipeline runs one upload end to end: save the original, clean it,
// transcribe, derive structured content, persist the record. Every stage is
// strictly sequential; concurrency across requests is the HTTP layer's job.
type Pipeline struct {
	fs          afero.Fs
	audioDir    string
	pre         *audio.Preprocessor
	transcriber transcription.Transcriber
	engine      *content.Engine
	records     *store.Store
	log         *logrus.Entry
}

func New(fs afero.Fs, audioDir string, pre *audio.Preprocessor, tr transcription.Transcriber, engine *content.Engine, records *store.Store) (*Pipeline, error) {
	if err := fs.MkdirAll(audioDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &Pipeline{
		fs:          fs,
		audioDir:    audioDir,
		pre:         pre,
		transcriber: tr,
		engine:      engine,
		records:     records,
		log:         logger.WithComponent("pipeline"),
	}, nil
}

// ProcessUpload handles one submission. The original upload is kept for
// audit; the cleaned intermediate is removed once transcription returns,
// whether it succeeded or not. No record is persisted on any stage failure.
func (p *Pipeline) ProcessUpload(ctx context.Context, filename string, r io.Reader) (types.ListingRecord, error) {
	start := time.Now()
	id := uuid.New().String()
	log := p.log.WithField("record_id", id)

	audioPath := filepath.Join(p.audioDir, id+filepath.Ext(filename))
	if err := p.saveUpload(audioPath, r); err != nil {
		return types.ListingRecord{}, fmt.Errorf("save upload: %w", err)
	}
	log.WithField("audio_path", audioPath).Info("original audio saved")

	cleanedPath, err := p.pre.Clean(audioPath)
	if err != nil {
		return types.ListingRecord{}, fmt.Errorf("audio processing: %w", err)
	}

	transcript, trErr := p.transcriber.Transcribe(ctx, cleanedPath)
	p.pre.Remove(cleanedPath)
	if trErr != nil {
		return types.ListingRecord{}, fmt.Errorf("transcription: %w", trErr)
	}
	transcript = strings.TrimSpace(transcript)
	log.WithField("transcript_len", len(transcript)).Info("audio processing and transcription complete")

	structured, err := p.engine.Generate(ctx, transcript)
	if err != nil {
		return types.ListingRecord{}, fmt.Errorf("content generation: %w", err)
	}

	rec := store.Assemble(id, transcript, structured, audioPath)
	if _, err := p.records.Persist(rec); err != nil {
		return types.ListingRecord{}, fmt.Errorf("persist record: %w", err)
	}

	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("pipeline finished")
	return rec, nil
}

func (p *Pipeline) saveUpload(path string, r io.Reader) error {
	f, err := p.fs.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = p.fs.Remove(path)
		return err
	}
	return f.Close()
}
