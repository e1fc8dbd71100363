// Package stream 实现波形行的流式摄入。
package stream

// ConnectionMetrics 波形流连接指标
type ConnectionMetrics struct {
	// RowsReceived 累计收到的数据行数
	RowsReceived int64 `json:"rows_received"`
	// RowsPerSec 每秒数据行数
	RowsPerSec float64 `json:"rows_per_sec"`
	// LastMessageAgeMs 距最后一条消息的毫秒数
	LastMessageAgeMs int64 `json:"last_message_age_ms"`
	// ReconnectCount 重连次数
	ReconnectCount int64 `json:"reconnect_count"`
	// DroppedRows 因缓冲满被丢弃的行数
	DroppedRows int64 `json:"dropped_rows"`
}
