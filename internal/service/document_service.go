// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-kdbx/internal/config"
	"github.com/MKhiriev/go-kdbx/internal/crypto"
	"github.com/MKhiriev/go-kdbx/internal/kdbx"
	"github.com/MKhiriev/go-kdbx/internal/logger"
)

// Summary counts the contents of a document.
type Summary struct {
	Name             string
	Groups           int
	Entries          int
	HistorySnapshots int
	Attachments      int
}

// DocumentService owns the document being worked on. It loads the inner
// XML payload through a [PayloadStore], hands the tree to callers, and
// writes it back when asked to persist. It implements editor.Persister.
type DocumentService struct {
	store  PayloadStore
	logger *logger.Logger

	inputPath  string
	outputPath string
	params     kdbx.Params
	algorithm  crypto.StreamAlgorithm
	streamKey  []byte

	mu  sync.Mutex
	doc *kdbx.Document
}

// NewDocumentService builds the service from the document and crypto
// sections of cfg.
func NewDocumentService(store PayloadStore, cfg config.StructuredConfig, logger *logger.Logger) (*DocumentService, error) {
	alg, err := cfg.Crypto.Algorithm()
	if err != nil {
		return nil, fmt.Errorf("stream algorithm: %w", err)
	}
	key, err := cfg.Crypto.Key()
	if err != nil {
		return nil, err
	}

	return &DocumentService{
		store:      store,
		logger:     logger,
		inputPath:  cfg.Document.InputPath,
		outputPath: cfg.Document.OutputPath,
		params:     kdbx.ParamsFor(cfg.Document.Version),
		algorithm:  alg,
		streamKey:  key,
	}, nil
}

// innerStream returns a fresh stream positioned at its first byte. Every
// parse and every write needs its own.
func (s *DocumentService) innerStream() (crypto.RandomSource, error) {
	rng, err := crypto.NewInnerStream(s.algorithm, s.streamKey)
	if err != nil {
		return nil, fmt.Errorf("create inner stream: %w", err)
	}
	return rng, nil
}

// Load reads and parses the configured input payload and makes it the
// current document.
func (s *DocumentService) Load(ctx context.Context) (*kdbx.Document, error) {
	started := time.Now()

	data, err := s.store.Load(ctx, s.inputPath)
	if err != nil {
		return nil, fmt.Errorf("load payload: %w", err)
	}

	rng, err := s.innerStream()
	if err != nil {
		return nil, err
	}

	doc, err := kdbx.Parse(data, rng, kdbx.ParseOptions{Params: s.params})
	if err != nil {
		var formatErr *kdbx.FormatError
		if errors.As(err, &formatErr) {
			s.logger.Error().
				Str("kind", formatErr.Kind.String()).
				Str("part", formatErr.Part).
				Str("field", formatErr.Field).
				Msg("payload rejected")
		}
		return nil, fmt.Errorf("parse payload %s: %w", s.inputPath, err)
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	sum := summarize(doc)
	s.logger.Info().
		Str("path", s.inputPath).
		Int("version", s.params.Version).
		Int("groups", sum.Groups).
		Int("entries", sum.Entries).
		Dur("took", time.Since(started)).
		Msg("document loaded")
	return doc, nil
}

// Create replaces the current document with an empty one.
func (s *DocumentService) Create(name string) *kdbx.Document {
	doc := kdbx.NewDocument(name)

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	s.logger.Info().Str("name", name).Msg("document created")
	return doc
}

// Document returns the current document, or nil before Load or Create.
func (s *DocumentService) Document() *kdbx.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Persist writes the current document to the output path, or back to the
// input path when no output path is configured.
func (s *DocumentService) Persist(ctx context.Context) error {
	target := s.outputPath
	if target == "" {
		target = s.inputPath
	}
	return s.SaveTo(ctx, target)
}

// SaveTo serializes the current document with a fresh inner stream and
// stores it at path. A version 4 document with attachments is refused, since
// the attachment pool would be lost.
func (s *DocumentService) SaveTo(ctx context.Context, path string) error {
	doc := s.Document()
	if doc == nil {
		return ErrNoDocument
	}
	if path == "" {
		return ErrNoTarget
	}
	if pool := doc.HeaderBinaries(); !s.params.BinariesInXML && len(pool) > 0 {
		return fmt.Errorf("%w: %d in pool", ErrHeaderBinaries, len(pool))
	}

	rng, err := s.innerStream()
	if err != nil {
		return err
	}

	data, err := doc.WriteXML(rng, s.params)
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}

	if err := s.store.Save(ctx, path, data); err != nil {
		return fmt.Errorf("save payload: %w", err)
	}

	s.logger.Info().Str("path", path).Int("bytes", len(data)).Msg("document saved")
	return nil
}

// Search returns every searchable node of the current document whose title
// (or, for entries, tags) contains query, ignoring case.
func (s *DocumentService) Search(query string) ([]kdbx.Node, error) {
	doc := s.Document()
	if doc == nil {
		return nil, ErrNoDocument
	}

	found := doc.RootGroup().SearchableNodes(query)
	s.logger.Debug().Str("query", query).Int("matches", len(found)).Msg("search")
	return found, nil
}

// Summary counts the nodes of the current document.
func (s *DocumentService) Summary() (Summary, error) {
	doc := s.Document()
	if doc == nil {
		return Summary{}, ErrNoDocument
	}
	return summarize(doc), nil
}

func summarize(doc *kdbx.Document) Summary {
	sum := Summary{Name: doc.Metadata().DatabaseName()}
	doc.RootGroup().Walk(func(n kdbx.Node) bool {
		switch n := n.(type) {
		case *kdbx.Group:
			sum.Groups++
		case *kdbx.Entry:
			sum.Entries++
			sum.HistorySnapshots += n.History().Len()
			sum.Attachments += len(n.Attachments())
		}
		return true
	})
	return sum
}
