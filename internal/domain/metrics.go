package domain

import "time"

type MetricsCollector interface {
	RecordIconFetch(result string)
	RecordProbe(group GroupName, result string, duration time.Duration)
	RecordProbeSkipped(group GroupName, reason string)
	RecordMutation(key string, result string)
	RecordRevalidation(key string, result string)
	RecordDuplicateRow(group GroupName)
	RecordRowsBuilt(count int)
}
