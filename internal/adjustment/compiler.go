package adjustment

import (
	"sort"

	"github.com/nsetools/bhavadjust/internal/types"
	"github.com/nsetools/bhavadjust/pkg/errors"
)

// RejectedEvent pairs a corporate action that failed validation with the
// reason it was rejected. Rejections are per event so a caller can skip bad
// disclosures and keep the rest of the batch.
type RejectedEvent struct {
	Event types.CorporateAction
	Err   error
}

// CompileAdjustments turns a flat collection of corporate actions, in any
// order and for any mix of symbols, into one CumulativeAdjustment row per
// valid event.
//
// Within a symbol, events are sorted by ex-date descending (stable, so events
// sharing an ex-date keep their input order) and a running product of their
// factors is assigned as the cumulative factor at each position. The most
// recent event's cumulative factor therefore equals its own factor, and a
// price dated before any event is divided by that event's cumulative factor
// to reach the current scale.
//
// Invalid events are returned individually in the rejected slice. The error
// is non-nil only when a non-empty input produced no valid event at all.
// Empty input yields an empty result and no error.
func CompileAdjustments(events []types.CorporateAction) ([]types.CumulativeAdjustment, []RejectedEvent, error) {
	if len(events) == 0 {
		return []types.CumulativeAdjustment{}, nil, nil
	}

	var rejected []RejectedEvent

	type resolvedEvent struct {
		action types.CorporateAction
		factor float64
	}

	bySymbol := make(map[string][]resolvedEvent)

	for _, event := range events {
		if event.Symbol == "" {
			rejected = append(rejected, RejectedEvent{
				Event: event,
				Err:   errors.New(errors.ErrCodeMissingKey, "event has no symbol"),
			})

			continue
		}

		if event.ExDate.IsZero() {
			rejected = append(rejected, RejectedEvent{
				Event: event,
				Err:   errors.Newf(errors.ErrCodeMissingKey, "event for %s has no ex-date", event.Symbol),
			})

			continue
		}

		factor, err := EventFactor(event)
		if err != nil {
			rejected = append(rejected, RejectedEvent{Event: event, Err: err})

			continue
		}

		bySymbol[event.Symbol] = append(bySymbol[event.Symbol], resolvedEvent{action: event, factor: factor})
	}

	if len(bySymbol) == 0 {
		return nil, rejected, errors.Newf(errors.ErrCodeAllEventsInvalid,
			"all %d events were rejected", len(events))
	}

	// Deterministic output order across symbols
	symbols := make([]string, 0, len(bySymbol))
	for symbol := range bySymbol {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	result := make([]types.CumulativeAdjustment, 0, len(events))

	for _, symbol := range symbols {
		group := bySymbol[symbol]

		// Most recent first; stable so same-day events keep caller order and
		// their factors multiply into the same cumulative value for that date.
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].action.ExDate.After(group[j].action.ExDate)
		})

		cumulative := 1.0

		for _, event := range group {
			cumulative *= event.factor

			result = append(result, types.CumulativeAdjustment{
				Symbol:           symbol,
				ExDate:           event.action.ExDate,
				Type:             event.action.Type,
				AdjustmentFactor: event.factor,
				CumulativeFactor: cumulative,
			})
		}
	}

	return result, rejected, nil
}
