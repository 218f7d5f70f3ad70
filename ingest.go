package dalil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dalilchat/dalil/chunker"
	"github.com/dalilchat/dalil/extract"
	"github.com/dalilchat/dalil/normalize"
	"github.com/dalilchat/dalil/store"
)

// IngestTexts stores raw texts as one document. Each text is split into
// blocks so headings and lists survive even in plain input. Per-text
// metadata from WithTextMetadatas rides on the blocks of its text.
func (e *engine) IngestTexts(ctx context.Context, name string, texts []string, opts ...IngestOption) (*IngestResult, error) {
	o := applyIngestOptions(opts)
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts provided", ErrInvalidInput)
	}
	if len(o.metadatas) > 0 && len(o.metadatas) != len(texts) {
		return nil, fmt.Errorf("%w: %d metadatas for %d texts", ErrInvalidInput, len(o.metadatas), len(texts))
	}
	if name == "" {
		name = "text"
	}

	var blocks []extract.Block
	for i, t := range texts {
		tb := extract.BlocksFromText(t, i+1)
		if len(o.metadatas) > 0 && len(o.metadatas[i]) > 0 {
			for j := range tb {
				tb[j].Metadata = mergeMeta(tb[j].Metadata, o.metadatas[i])
			}
		}
		blocks = append(blocks, tb...)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: texts contain no content", ErrInvalidInput)
	}

	hash := contentHash([]byte(strings.Join(texts, "\n")))
	return e.storeDocument(ctx, name, "text", hash, blocks, nil, o.metadata)
}

// IngestFile extracts one file and stores its chunks. declaredMIME may be
// empty; format detection falls back to magic bytes and the extension.
func (e *engine) IngestFile(ctx context.Context, name string, data []byte, declaredMIME string, opts ...IngestOption) (*IngestResult, error) {
	o := applyIngestOptions(opts)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file %s", ErrInvalidInput, name)
	}
	if int64(len(data)) > e.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrResourceExceeded, name, len(data), e.cfg.MaxFileSize)
	}

	format := extract.DetectFormat(name, declaredMIME, data)
	ex, err := e.extractor.Get(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, name, format)
	}
	if o.imageMode != "" && extract.IsImageFormat(format) {
		if e.vision == nil {
			return nil, fmt.Errorf("%w: %s (no vision backend)", ErrUnsupportedFormat, name)
		}
		ex = extract.NewImageExtractor(e.vision, o.imageMode)
	}

	hash := contentHash(data)
	if dup, err := e.findDuplicate(ctx, hash); err == nil && dup != "" {
		if e.cfg.SkipDuplicates {
			e.log.Info("skipping duplicate file", "name", name, "existing", dup)
			return &IngestResult{Name: name, Format: format, Skipped: true}, nil
		}
		e.log.Warn("ingesting file already present in collection", "name", name, "existing", dup)
	}

	result, err := ex.Extract(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExtractionFailed, name, err)
	}

	var blocks []extract.Block
	for _, d := range result.Docs {
		blocks = append(blocks, d.Blocks...)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: %s yielded no content", ErrExtractionFailed, name)
	}

	res, err := e.storeDocument(ctx, name, format, hash, blocks, result.Warnings, o.metadata)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// IngestFiles ingests a batch, continuing past per-file failures.
func (e *engine) IngestFiles(ctx context.Context, files []File, opts ...IngestOption) []FileResult {
	out := make([]FileResult, 0, len(files))
	for _, f := range files {
		fr := FileResult{Name: f.Name}
		res, err := e.IngestFile(ctx, f.Name, f.Data, f.MIME, opts...)
		if err != nil {
			fr.Err = err
			fr.Error = err.Error()
			e.log.Error("file ingestion failed", "name", f.Name, "error", err)
		} else {
			fr.Result = res
		}
		out = append(out, fr)
	}
	return out
}

// storeDocument chunks blocks, embeds the normalized chunk text, and
// upserts points. A failed upsert removes any points already written for
// this document.
func (e *engine) storeDocument(ctx context.Context, name, format, hash string, blocks []extract.Block, warnings []string, custom map[string]any) (*IngestResult, error) {
	chunks := chunker.NewStructure(chunker.Config{
		MaxChunkSize: e.cfg.ChunkSize,
		Overlap:      e.cfg.ChunkOverlap,
		Dynamic:      true,
	}).Chunk(blocks)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s produced no chunks", ErrExtractionFailed, name)
	}

	// Vectors come from normalized text; the stored payload keeps the
	// original wording for display.
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = normalize.Normalize(c.Content)
	}
	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEmbeddingFailed, name, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: %s: got %d vectors for %d chunks", ErrEmbeddingFailed, name, len(vectors), len(chunks))
	}

	docID := uuid.NewString()
	points := make([]store.Point, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = uuid.NewString()
		points[i] = store.Point{
			ID:      ids[i],
			Vector:  vectors[i],
			Payload: chunkPayload(docID, name, format, hash, c, custom),
		}
	}

	if err := e.store.Upsert(ctx, e.cfg.Collection, points); err != nil {
		if delErr := e.store.DeleteIDs(ctx, e.cfg.Collection, ids); delErr != nil {
			e.log.Error("rollback after failed upsert also failed", "name", name, "error", delErr)
		}
		return nil, fmt.Errorf("%w: storing %s: %v", ErrBackendUnavailable, name, err)
	}

	e.log.Info("document ingested", "name", name, "format", format, "chunks", len(chunks))
	return &IngestResult{
		DocumentID: docID,
		Name:       name,
		Format:     format,
		Chunks:     len(chunks),
		Warnings:   warnings,
	}, nil
}

func chunkPayload(docID, name, format, hash string, c chunker.Chunk, custom map[string]any) map[string]any {
	payload := map[string]any{
		"content":      c.Content,
		"doc_id":       docID,
		"doc_name":     name,
		"doc_hash":     hash,
		"format":       format,
		"chunk_index":  c.Index,
		"chunk_total":  c.Total,
		"content_type": c.ContentType,
	}
	if c.SectionHeader != "" {
		payload["section"] = c.SectionHeader
	}
	for k, v := range c.Metadata {
		if _, exists := payload[k]; !exists {
			payload[k] = v
		}
	}
	for k, v := range custom {
		if _, exists := payload[k]; !exists {
			payload[k] = v
		}
	}
	return payload
}

// mergeMeta overlays extra onto base without mutating either.
func mergeMeta(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// findDuplicate returns the name of an already-ingested document with the
// same content hash, or "".
func (e *engine) findDuplicate(ctx context.Context, hash string) (string, error) {
	records, _, err := e.store.Scroll(ctx, e.cfg.Collection, &store.Filter{
		Must: []store.Condition{store.Eq("doc_hash", hash)},
	}, 1, "")
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", errors.New("no duplicate")
	}
	if name, ok := records[0].Payload["doc_name"].(string); ok {
		return name, nil
	}
	return "unknown", nil
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
