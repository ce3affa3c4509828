package persistence

import (
	"fmt"

	"github.com/rs/zerolog"

	"starlane.io/internal/client"
	"starlane.io/internal/persistence/indexdb"
	persistlog "starlane.io/internal/persistence/log"
)

// Session bundles the optional on-disk outputs of one client run: the frame
// recorder and the sqlite index. Either may be disabled.
type Session struct {
	rec *persistlog.FrameRecorder
	idx *indexdb.SQLiteIndex
	log zerolog.Logger
}

func Open(recordDir, indexPath string, logger zerolog.Logger) (*Session, error) {
	p := &Session{log: logger}
	if recordDir != "" {
		p.rec = persistlog.NewFrameRecorder(recordDir)
		logger.Info().Str("dir", recordDir).Msg("recording inbound frames")
	}
	if indexPath != "" {
		idx, err := indexdb.OpenSQLite(indexPath)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("open index: %w", err)
		}
		p.idx = idx
		logger.Info().Str("path", indexPath).Msg("session index enabled")
	}
	return p, nil
}

// Recorder and Index return untyped nils when disabled so the client's
// optional interfaces compare equal to nil.
func (p *Session) Recorder() client.Recorder {
	if p.rec == nil {
		return nil
	}
	return p.rec
}

func (p *Session) Index() client.Index {
	if p.idx == nil {
		return nil
	}
	return p.idx
}

func (p *Session) Close() {
	if p.rec != nil {
		if err := p.rec.Close(); err != nil {
			p.log.Warn().Err(err).Msg("close recorder")
		}
	}
	if p.idx != nil {
		if err := p.idx.Close(); err != nil {
			p.log.Warn().Err(err).Msg("close index")
		}
		if d := p.idx.Dropped(); d > 0 {
			p.log.Warn().Uint64("dropped", d).Msg("index writes dropped")
		}
	}
}
