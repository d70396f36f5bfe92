package newsdex

import (
	"context"
	"fmt"
	"time"
)

// IngestText indexes raw article text under the given URL. When
// filterLowRelevance is set, entities below the relevance cutoff are
// dropped from the stored document.
func (c *Client) IngestText(
	ctx context.Context, text, url string, filterLowRelevance bool,
) (doc Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest_text", start, err) }()

	doc, err = c.ingestSvc.FromText(ctx, text, url, filterLowRelevance)
	if err != nil {
		return Document{}, fmt.Errorf("ingest text: %w", err)
	}
	return doc, nil
}

// IngestFile extracts text from a file and indexes it under the given URL.
func (c *Client) IngestFile(
	ctx context.Context, path, url string, filterLowRelevance bool,
) (doc Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest_file", start, err) }()

	doc, err = c.ingestSvc.FromFile(ctx, path, url, filterLowRelevance)
	if err != nil {
		return Document{}, fmt.Errorf("ingest file: %w", err)
	}
	return doc, nil
}

// IngestDirectory indexes every supported file under dir. Per-file
// failures do not abort the batch; they are returned alongside the
// successfully indexed documents.
func (c *Client) IngestDirectory(
	ctx context.Context, dir, urlPrefix string, filterLowRelevance bool,
) (docs []Document, failures []FileFailure, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest_directory", start, err) }()

	docs, failures, err = c.ingestSvc.FromDirectory(ctx, dir, urlPrefix, filterLowRelevance)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest directory: %w", err)
	}
	return docs, failures, nil
}

// GetDocument fetches a stored document by URL.
// Returns ErrDocumentNotFound if absent.
func (c *Client) GetDocument(ctx context.Context, url string) (doc Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_document", start, err) }()

	doc, err = c.docsSvc.GetByURL(ctx, url)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// DeleteDocument removes a stored document by URL. Reports whether a
// document was actually removed.
func (c *Client) DeleteDocument(ctx context.Context, url string) (deleted bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_document", start, err) }()

	deleted, err = c.docsSvc.DeleteByURL(ctx, url)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	return deleted, nil
}

// CountDocuments returns the number of indexed documents.
func (c *Client) CountDocuments(ctx context.Context) (count int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("count_documents", start, err) }()

	count, err = c.docsSvc.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// ListDocuments returns a page of indexed documents and the total count.
func (c *Client) ListDocuments(
	ctx context.Context, offset, limit int,
) (docs []Document, total int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list_documents", start, err) }()

	docs, total, err = c.docsSvc.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	return docs, total, nil
}
