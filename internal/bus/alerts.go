package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/opensource-finance/preflight/internal/domain"
	"github.com/opensource-finance/preflight/internal/logging"
)

// LogAlerts subscribes to preflight.alert and writes one warning per
// DANGEROUS verdict, tagged with the request id of the analysis.
func LogAlerts(ctx context.Context, b domain.EventBus, logger *slog.Logger) (domain.Subscription, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx = logging.WithLogger(ctx, logger)

	return b.Subscribe(ctx, domain.TopicAlert, func(ctx context.Context, msg *domain.Message) error {
		var ev domain.AnalysisEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return fmt.Errorf("decode alert %s: %w", msg.ID, err)
		}
		logging.L(ctx).Warn("dangerous transaction flagged",
			"wallet", ev.Wallet,
			"contract", ev.Contract,
			"tx_type", ev.TxType,
			"score", ev.Score,
		)
		return nil
	})
}
