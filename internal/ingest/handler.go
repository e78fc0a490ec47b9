package ingest

import (
	"context"
	"encoding/json"

	"github.com/MikeSquared-Agency/souli/internal/hermes"
)

// HandleIngestRequested is the NATS handler for souli.ingest.requested.
func (r *Runner) HandleIngestRequested(subject string, data []byte) {
	ctx := context.Background()

	var req hermes.IngestRequest
	if err := json.Unmarshal(data, &req); err != nil {
		r.logger.Error("failed to parse ingest request", "subject", subject, "error", err)
		return
	}
	if len(uniqueLinks(req.Links)) == 0 {
		r.logger.Warn("ingest request has no links", "request_id", req.RequestID)
		return
	}

	r.logger.Info("processing ingest request", "request_id", req.RequestID, "links", len(req.Links))

	report, err := r.Run(ctx, req.Links)
	evt := hermes.IngestCompleted{
		RequestID:          req.RequestID,
		ProcessedLinks:     report.ProcessedLinks,
		FailedLinks:        report.FailedLinks,
		TotalNodesUpserted: report.TotalNodesUpserted,
		SkippedItems:       report.SkippedItems,
	}
	if err != nil {
		evt.Error = err.Error()
	}
	r.publish(hermes.SubjectIngestCompleted, evt)
}
