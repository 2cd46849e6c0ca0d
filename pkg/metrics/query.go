package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// CompactionMetrics represents aggregated compaction telemetry for one agent.
type CompactionMetrics struct {
	AgentID         string `json:"agent_id"`
	Compactions     int64  `json:"compactions"`
	TokensReclaimed int64  `json:"tokens_reclaimed"`
	Degraded        int64  `json:"degraded"`
}

// QueryService provides methods to query compaction metrics from Prometheus.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetAgentCompactionMetrics retrieves aggregated compaction telemetry for one
// agent across all strategies.
func (q *QueryService) GetAgentCompactionMetrics(ctx context.Context, agentID string) (*CompactionMetrics, error) {
	metrics := &CompactionMetrics{
		AgentID: agentID,
	}

	compactionsQuery := fmt.Sprintf(`sum(context_compactions_total{agent_id=%q})`, agentID)
	compactionsResult, _, err := q.queryAPI.Query(ctx, compactionsQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query compactions: %w", err)
	}

	if vector, ok := compactionsResult.(model.Vector); ok && len(vector) > 0 {
		metrics.Compactions = int64(vector[0].Value)
	}

	reclaimedQuery := fmt.Sprintf(`sum(context_tokens_reclaimed_total{agent_id=%q})`, agentID)
	reclaimedResult, _, err := q.queryAPI.Query(ctx, reclaimedQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query reclaimed tokens: %w", err)
	}

	if vector, ok := reclaimedResult.(model.Vector); ok && len(vector) > 0 {
		metrics.TokensReclaimed = int64(vector[0].Value)
	}

	degradedQuery := fmt.Sprintf(`sum(context_compactions_degraded_total{agent_id=%q})`, agentID)
	degradedResult, _, err := q.queryAPI.Query(ctx, degradedQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query degraded compactions: %w", err)
	}

	if vector, ok := degradedResult.(model.Vector); ok && len(vector) > 0 {
		metrics.Degraded = int64(vector[0].Value)
	}

	return metrics, nil
}

// GetCompactionMetricsByStrategy retrieves compaction counts for one agent
// broken down by strategy.
func (q *QueryService) GetCompactionMetricsByStrategy(ctx context.Context, agentID string) (map[string]int64, error) {
	result := make(map[string]int64)

	query := fmt.Sprintf(`sum by (strategy) (context_compactions_total{agent_id=%q})`, agentID)
	queryResult, _, err := q.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query compactions by strategy: %w", err)
	}

	if vector, ok := queryResult.(model.Vector); ok {
		for _, sample := range vector {
			if strategy, ok := sample.Metric["strategy"]; ok {
				result[string(strategy)] = int64(sample.Value)
			}
		}
	}

	return result, nil
}
