// Package spincsv 实现自旋映射的 CSV 输出。
// 格式与下游加载器约定一致：表头 Node,Signum，每个输入通道一行，
// 顺序保持输入顺序，无效自旋写哨兵值 NaN，绝不省略。
package spincsv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"oscillator-spin-decoder/internal/core/model"
)

// Encode 将自旋映射编码到流
// 参数 w: 输出流
// 参数 m: 解码结果映射
func Encode(w io.Writer, m *model.ResultMapping) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString("Node,Signum\n"); err != nil {
		return err
	}
	for _, e := range m.Entries() {
		if _, err := bw.WriteString(e.Node + "," + e.Spin.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile 将自旋映射写入文件
// 先写临时文件再原子重命名，避免下游读到半截表。
// 参数 path: 输出文件路径
// 参数 m: 解码结果映射
func WriteFile(path string, m *model.ResultMapping) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("打开输出文件失败: %w", err)
	}

	if err := Encode(f, m); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("写入自旋 CSV 失败: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("关闭输出文件失败: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("重命名输出文件失败: %w", err)
	}
	return nil
}
