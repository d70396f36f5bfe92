package aggregate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
	"github.com/kailas-cloud/newsdex/internal/metrics"
)

// FileFailure records one file the batch ingestion could not process.
type FileFailure struct {
	Path string
	Err  error
}

// Service is the ingestion pipeline: extract text, extract entities,
// weigh them, persist the document.
type Service struct {
	texts         domain.TextExtractor
	entities      domain.EntityExtractor
	rectifier     Rectifier
	repo          Repository
	minTextLength int
	extensions    map[string]struct{}
	logger        *zap.Logger
}

// New creates an ingestion service. extensions are the file suffixes
// FromDirectory picks up, with the leading dot.
func New(
	texts domain.TextExtractor,
	entities domain.EntityExtractor,
	rectifier Rectifier,
	repo Repository,
	minTextLength int,
	extensions []string,
	logger *zap.Logger,
) *Service {
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return &Service{
		texts:         texts,
		entities:      entities,
		rectifier:     rectifier,
		repo:          repo,
		minTextLength: minTextLength,
		extensions:    exts,
		logger:        logger,
	}
}

// FromText ingests raw text under the given url: extract entities, weigh
// them against the text, upsert the resulting document.
func (s *Service) FromText(
	ctx context.Context, text, url string, filterLowRelevance bool,
) (domain.Document, error) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < s.minTextLength {
		metrics.IngestFailuresTotal.WithLabelValues("insufficient_content").Inc()
		return domain.Document{}, fmt.Errorf(
			"%w: %d runes, need %d", domain.ErrInsufficientContent,
			utf8.RuneCountInString(strings.TrimSpace(text)), s.minTextLength,
		)
	}

	extracted := s.entities.Extract(text)

	doc, err := s.rectifier.Rectify(extracted, text, url, filterLowRelevance)
	if err != nil {
		return domain.Document{}, fmt.Errorf("rectify %s: %w", url, err)
	}

	created, err := s.repo.Upsert(ctx, &doc)
	if err != nil {
		metrics.IngestFailuresTotal.WithLabelValues("store").Inc()
		return domain.Document{}, fmt.Errorf("upsert %s: %w", url, err)
	}

	metrics.DocumentsIndexedTotal.Inc()
	s.logger.Info("document ingested",
		zap.String("url", url),
		zap.Bool("created", created),
	)
	return doc, nil
}

// FromFile ingests one file: extract its text, then proceed as FromText.
func (s *Service) FromFile(
	ctx context.Context, path, url string, filterLowRelevance bool,
) (domain.Document, error) {
	text, err := s.texts.Extract(path)
	if err != nil {
		metrics.IngestFailuresTotal.WithLabelValues("extraction").Inc()
		return domain.Document{}, fmt.Errorf("%w: %s: %w", domain.ErrExtractionFailed, path, err)
	}
	return s.FromText(ctx, text, url, filterLowRelevance)
}

// FromDirectory ingests every supported file under dir. Per-file failures
// are logged and collected; the batch continues. Document urls are
// urlPrefix joined with the file name.
func (s *Service) FromDirectory(
	ctx context.Context, dir, urlPrefix string, filterLowRelevance bool,
) ([]domain.Document, []FileFailure, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var docs []domain.Document
	var failures []FileFailure
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := s.extensions[ext]; !ok {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		url := strings.TrimSuffix(urlPrefix, "/") + "/" + entry.Name()

		doc, err := s.FromFile(ctx, path, url, filterLowRelevance)
		if err != nil {
			s.logger.Warn("file ingestion failed",
				zap.String("path", path),
				zap.Error(err),
			)
			failures = append(failures, FileFailure{Path: path, Err: err})
			continue
		}
		docs = append(docs, doc)
	}

	s.logger.Info("directory ingested",
		zap.String("dir", dir),
		zap.Int("indexed", len(docs)),
		zap.Int("failed", len(failures)),
	)
	return docs, failures, nil
}
