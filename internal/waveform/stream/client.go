// Package stream 实现波形行的流式摄入。
// 仿真桥在瞬态仿真过程中将波形表逐行推送到 WebSocket；
// 客户端把文本行原样转发给调用方累积，流正常关闭即表示表已写完，
// 之后交由 waveform.Parse 做整表校验与解析。
// 心跳机制: 协议层 ping/pong。
package stream

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"oscillator-spin-decoder/internal/config"
	"oscillator-spin-decoder/internal/util/backoff"
	"oscillator-spin-decoder/internal/util/timeutil"
)

// Client 波形流 WebSocket 客户端
type Client struct {
	// cfg 流式输入配置
	cfg *config.StreamConfig
	// logger 日志记录器
	logger *zap.Logger

	// conn WebSocket 连接
	conn *websocket.Conn
	// connMu 连接锁
	connMu sync.Mutex

	// rowCh 数据行输出通道
	rowCh chan string
	// doneCh 流正常结束信号（服务端正常关闭后 close）
	doneCh chan struct{}
	// doneOnce 保证 doneCh 只关闭一次
	doneOnce sync.Once

	// metrics 连接指标
	metrics ConnectionMetrics
	// metricsMu 指标锁
	metricsMu sync.RWMutex

	// lastMsgTime 最后消息时间（纳秒）
	lastMsgTime int64
	// rowCount 数据行计数（用于计算速率）
	rowCount int64
	// backoff 重连退避
	backoff *backoff.Backoff
	// closed 是否已关闭
	closed int32

	// binarySampleCount 二进制消息计数（用于采样日志）
	binarySampleCount uint64
}

// NewClient 创建波形流客户端
// 参数 cfg: 流式输入配置
// 参数 logger: 日志记录器
func NewClient(cfg *config.StreamConfig, logger *zap.Logger) *Client {
	bufferRows := cfg.BufferRows
	if bufferRows <= 0 {
		bufferRows = 4096
	}
	return &Client{
		cfg:     cfg,
		logger:  logger.Named("stream"),
		rowCh:   make(chan string, bufferRows),
		doneCh:  make(chan struct{}),
		backoff: backoff.NewDefault(),
	}
}

// Connect 建立 WebSocket 连接
// 参数 ctx: 上下文，用于取消连接
func (c *Client) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	header := http.Header{}
	header.Set("User-Agent", "oscillator-spin-decoder/1.0")

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("连接仿真桥失败: %w", err)
	}

	readTimeout := c.readTimeout()
	if readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		conn.SetPongHandler(func(string) error {
			atomic.StoreInt64(&c.lastMsgTime, timeutil.NowNano())
			return conn.SetReadDeadline(time.Now().Add(readTimeout))
		})
	}

	c.conn = conn
	c.backoff.Reset()
	c.logger.Info("仿真桥连接成功", zap.String("url", c.cfg.URL))
	return nil
}

// Run 启动客户端主循环
// 包含读取循环、心跳与指标统计；流正常结束或 ctx 取消后返回。
func (c *Client) Run(ctx context.Context) {
	go c.pingLoop(ctx)
	go c.metricsLoop(ctx)
	c.readLoop(ctx)
}

func (c *Client) readLoop(ctx context.Context) {
	readTimeout := c.readTimeout()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if atomic.LoadInt32(&c.closed) == 1 {
			return
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			c.reconnect(ctx)
			continue
		}

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			// 正常关闭 = 仿真桥已把整张表推完
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.logger.Info("波形流已结束", zap.Int64("rows", atomic.LoadInt64(&c.rowCount)))
				c.signalDone()
				return
			}
			c.logger.Warn("读取波形流失败", zap.Error(err))
			c.incrementReconnectCount()
			c.reconnect(ctx)
			continue
		}

		if readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		}

		atomic.StoreInt64(&c.lastMsgTime, timeutil.NowNano())

		if msgType != websocket.TextMessage {
			c.maybeLogBinary()
			continue
		}

		// 一条消息可能携带多行
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			atomic.AddInt64(&c.rowCount, 1)
			select {
			case c.rowCh <- line:
			default:
				c.incrementDroppedRows()
				c.logger.Warn("rowCh 已满，丢弃数据行")
			}
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	intervalMs := c.cfg.PingIntervalMs
	if intervalMs <= 0 {
		intervalMs = 15000
	}

	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.doneCh:
			return
		case <-ticker.C:
			if atomic.LoadInt32(&c.closed) == 1 {
				return
			}

			c.connMu.Lock()
			conn := c.conn
			if conn == nil {
				c.connMu.Unlock()
				continue
			}

			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				c.connMu.Unlock()
				c.logger.Warn("发送 ping 失败", zap.Error(err))
				continue
			}
			c.connMu.Unlock()
		}
	}
}

func (c *Client) metricsLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastCount int64

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.doneCh:
			return
		case <-ticker.C:
			if atomic.LoadInt32(&c.closed) == 1 {
				return
			}

			count := atomic.LoadInt64(&c.rowCount)
			rps := float64(count - lastCount)
			lastCount = count

			lastMsg := atomic.LoadInt64(&c.lastMsgTime)
			var ageMs int64
			if lastMsg > 0 {
				ageMs = timeutil.NanoToMs(timeutil.NowNano() - lastMsg)
			}

			c.metricsMu.Lock()
			c.metrics.RowsReceived = count
			c.metrics.RowsPerSec = rps
			c.metrics.LastMessageAgeMs = ageMs
			c.metricsMu.Unlock()
		}
	}
}

func (c *Client) reconnect(ctx context.Context) {
	c.closeConn()

	delay := c.backoff.Next()
	c.logger.Info("准备重连仿真桥", zap.Duration("delay", delay))

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	if err := c.Connect(ctx); err != nil {
		c.logger.Error("重连仿真桥失败", zap.Error(err))
	}
}

func (c *Client) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) signalDone() {
	c.doneOnce.Do(func() {
		close(c.doneCh)
		close(c.rowCh)
	})
}

// Close 关闭客户端
func (c *Client) Close() error {
	atomic.StoreInt32(&c.closed, 1)
	c.closeConn()
	c.signalDone()
	c.logger.Info("波形流客户端已关闭")
	return nil
}

// RowCh 获取数据行通道
// 流正常结束或客户端关闭后该通道被 close。
func (c *Client) RowCh() <-chan string {
	return c.rowCh
}

// DoneCh 获取流结束信号通道
func (c *Client) DoneCh() <-chan struct{} {
	return c.doneCh
}

// Metrics 获取连接指标
func (c *Client) Metrics() ConnectionMetrics {
	c.metricsMu.RLock()
	defer c.metricsMu.RUnlock()
	return c.metrics
}

func (c *Client) incrementReconnectCount() {
	c.metricsMu.Lock()
	c.metrics.ReconnectCount++
	c.metricsMu.Unlock()
}

func (c *Client) incrementDroppedRows() {
	c.metricsMu.Lock()
	c.metrics.DroppedRows++
	c.metricsMu.Unlock()
}

func (c *Client) readTimeout() time.Duration {
	if c.cfg.ReadTimeoutMs > 0 {
		return time.Duration(c.cfg.ReadTimeoutMs) * time.Millisecond
	}
	// 未配置时使用 60s：瞬态仿真行进度可能远慢于行情流
	return 60 * time.Second
}

// maybeLogBinary 采样记录意外的二进制消息，避免刷盘
// 每 100 条记录 1 条。
func (c *Client) maybeLogBinary() {
	count := atomic.AddUint64(&c.binarySampleCount, 1)
	if count%100 == 1 {
		c.logger.Warn("收到意外的二进制消息（采样）", zap.Uint64("count", count))
	}
}
