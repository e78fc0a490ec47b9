package hermes

const (
	SubjectIngestRequested = "souli.ingest.requested"
	SubjectIngestCompleted = "souli.ingest.completed"
	SubjectNodesExtracted  = "souli.nodes.extracted"
	SubjectRegistered      = "souli.agent.ingestion.registered"
)

// IngestRequest asks the service to ingest a batch of video links.
type IngestRequest struct {
	RequestID string   `json:"request_id"`
	Links     []string `json:"links"`
}

// NodesExtracted is emitted once per transcript after extraction.
type NodesExtracted struct {
	SourceID  string `json:"source_id"`
	SourceURL string `json:"source_url"`
	Outcome   string `json:"outcome"`
	Count     int    `json:"count"`
	Skipped   int    `json:"skipped"`
	Attempts  int    `json:"attempts"`
}

// IngestCompleted summarises a finished batch.
type IngestCompleted struct {
	RequestID          string   `json:"request_id"`
	ProcessedLinks     int      `json:"processed_links"`
	FailedLinks        []string `json:"failed_links"`
	TotalNodesUpserted int      `json:"total_nodes_upserted"`
	SkippedItems       int      `json:"skipped_items"`
	Error              string   `json:"error,omitempty"`
}
