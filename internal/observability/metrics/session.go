package metrics

import (
	"time"

	obserrors "github.com/two-shoulder/authsession/internal/observability/errors"
	"github.com/two-shoulder/authsession/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
	ResultRemote  = "remote"
)

// Session operations.
const (
	OpInit    = "init"
	OpRefresh = "refresh"
	OpProfile = "profile"
	OpLogout  = "logout"
)

// SessionMetric captures the outcome of one session operation.
type SessionMetric struct {
	Operation string
	Result    string
	Duration  time.Duration
	Err       error
}

// EmitSessionOperation emits standardised session operation metrics. A nil sink is a no-op.
func EmitSessionOperation(sink statsd.Sink, in SessionMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"operation": in.Operation,
		"result":    in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("session.operation", 1, tags)

	if in.Duration > 0 {
		sink.Timing("session.operation_duration", in.Duration, CloneTags(tags))
	}
}

// EmitSubscribers records the number of attached session views.
func EmitSubscribers(sink statsd.Sink, n int) {
	if sink == nil {
		return
	}
	sink.Gauge("session.subscribers", float64(n), nil)
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
