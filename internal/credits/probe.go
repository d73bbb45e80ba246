package credits

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"adforge/internal/logging"
)

// probeKeys lists the balance field names in preference order.
var probeKeys = []string{"total_credits", "balance", "credits"}

// Balance is the interpreted credit balance. Source records which payload
// key supplied the value.
type Balance struct {
	Credits int
	Source  string
}

// Low reports whether the balance sits at or below the given threshold.
func (b *Balance) Low(threshold int) bool {
	return b != nil && threshold > 0 && b.Credits <= threshold
}

// Probe extracts the balance from a raw credits payload. It tries each known
// key in order; a match on anything but the primary key is logged as drift,
// and no match at all is an error.
func Probe(data map[string]json.RawMessage, logger *slog.Logger) (*Balance, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	for i, key := range probeKeys {
		raw, ok := data[key]
		if !ok {
			continue
		}
		var value float64
		if err := json.Unmarshal(raw, &value); err != nil {
			logger.Warn("credits field has unexpected type",
				logging.String("key", key),
				logging.String(logging.FieldAlert, "credits-schema-drift"),
				logging.Error(err))
			continue
		}
		if i > 0 {
			logger.Warn("credits payload used fallback field name",
				logging.String("key", key),
				logging.String(logging.FieldAlert, "credits-schema-drift"))
		}
		return &Balance{Credits: int(value), Source: key}, nil
	}
	return nil, fmt.Errorf("credits payload missing balance field (tried %v)", probeKeys)
}
