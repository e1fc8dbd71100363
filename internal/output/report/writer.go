// Package report 实现解码运行报告的异步 JSONL 输出。
// Write 只负责投递，实际 JSON 编码与文件 I/O 在后台 goroutine 完成；
// 每次解码运行追加一条记录，便于离线复盘多次运行。
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"oscillator-spin-decoder/internal/core/model"
)

// RunRecord 单次解码运行的 JSONL 记录
type RunRecord struct {
	// RunID 运行标识（归档启用时与 SQLite 中的 uuid 一致）
	RunID string `json:"run_id,omitempty"`
	// Source 输入来源（文件路径或流地址）
	Source string `json:"source"`
	// StartedAtNs 运行开始时间（纳秒）
	StartedAtNs int64 `json:"started_at_ns"`
	// FinishedAtNs 运行结束时间（纳秒）
	FinishedAtNs int64 `json:"finished_at_ns"`
	// Report 解码摘要
	Report model.Report `json:"report"`
}

type request struct {
	rec   *RunRecord
	flush chan error
}

// Writer 异步 JSONL 报告写入器
type Writer struct {
	// path 输出文件路径
	path string
	// ch 请求通道；rec 与 flush 恰有一个非空
	ch chan request

	mu     sync.Mutex
	closed bool

	wg sync.WaitGroup
}

// NewWriter 创建报告写入器
// 参数 path: 输出文件路径（追加写）
// 参数 bufferSize: 投递缓冲区大小
func NewWriter(path string, bufferSize int) (*Writer, error) {
	if bufferSize <= 0 {
		bufferSize = 256
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("打开报告文件失败: %w", err)
	}

	w := &Writer{
		path: path,
		ch:   make(chan request, bufferSize),
	}

	w.wg.Add(1)
	go w.loop(f)

	return w, nil
}

// Write 异步追加一条运行记录
func (w *Writer) Write(rec *RunRecord) error {
	if w == nil || rec == nil {
		return fmt.Errorf("writer 或记录为空")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("writer 已关闭")
	}
	w.ch <- request{rec: rec}
	return nil
}

// Flush 强制 flush 文件缓冲区
func (w *Writer) Flush() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	done := make(chan error, 1)
	w.ch <- request{flush: done}
	return <-done
}

// Close 关闭写入器（会先 flush）
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.wg.Wait()
		return nil
	}
	w.closed = true
	close(w.ch)
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

func (w *Writer) loop(f *os.File) {
	defer w.wg.Done()
	defer f.Close()

	bw := bufio.NewWriterSize(f, 64*1024)
	defer bw.Flush()

	for req := range w.ch {
		if req.flush != nil {
			req.flush <- bw.Flush()
			continue
		}

		b, err := json.Marshal(req.rec)
		if err != nil {
			continue
		}
		_, _ = bw.Write(b)
		_ = bw.WriteByte('\n')
	}
}
