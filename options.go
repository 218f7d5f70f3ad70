package dalil

// QueryOption adjusts a single Query call.
type QueryOption func(*queryOptions)

type queryOptions struct {
	withoutRAG bool
}

// WithoutRAG answers from conversation history and general knowledge,
// skipping retrieval even for queries that would normally route to it.
func WithoutRAG() QueryOption {
	return func(o *queryOptions) { o.withoutRAG = true }
}

func applyQueryOptions(opts []QueryOption) queryOptions {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// IngestOption adjusts a single ingestion call.
type IngestOption func(*ingestOptions)

type ingestOptions struct {
	metadata  map[string]any
	metadatas []map[string]any
	imageMode string
}

// WithMetadata attaches caller metadata to every chunk of the ingested
// document. Reserved payload keys (content, doc_id, doc_name, doc_hash,
// format, chunk_index, chunk_total, content_type) are not overridden.
func WithMetadata(meta map[string]any) IngestOption {
	return func(o *ingestOptions) { o.metadata = meta }
}

// WithTextMetadatas attaches metadata per input text for IngestTexts,
// aligned by index. A nil entry leaves that text bare. Ignored by file
// ingestion.
func WithTextMetadatas(metas []map[string]any) IngestOption {
	return func(o *ingestOptions) { o.metadatas = metas }
}

// WithImageMode overrides the image extraction mode for this call: one
// of "text", "description", or "auto". Ignored for non-image files.
func WithImageMode(mode string) IngestOption {
	return func(o *ingestOptions) { o.imageMode = mode }
}

func applyIngestOptions(opts []IngestOption) ingestOptions {
	var o ingestOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
