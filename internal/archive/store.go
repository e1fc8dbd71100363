// Package archive 实现解码运行的 SQLite 归档。
// 每次解码运行记录为一行 runs，逐通道结果记录在 spins 表中，
// 便于跨运行离线查询（本核心自身不做跨运行统计聚合）。
package archive

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"oscillator-spin-decoder/internal/core/model"
)

// Store SQLite 运行归档
type Store struct {
	db *sql.DB
}

// Open 打开（必要时创建）归档数据库
// 参数 path: 数据库文件路径
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开归档数据库失败: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("初始化归档表失败: %w", err)
	}
	return s, nil
}

// migrate 创建归档表结构（幂等）
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		reference_node TEXT NOT NULL,
		reference_period REAL NOT NULL,
		channels INTEGER NOT NULL,
		defined INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS spins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		node TEXT NOT NULL,
		spin INTEGER,
		phase_deg REAL,
		crossings INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_spins_run ON spins(run_id);
	CREATE INDEX IF NOT EXISTS idx_spins_run_node ON spins(run_id, node);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close 关闭归档数据库
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun 归档一次解码运行
// 无效通道的 spin 与 phase_deg 写 NULL，绝不写伪数值。
// 参数 source: 输入来源（文件路径或流地址）
// 参数 startedAt, finishedAt: 运行起止时间
// 参数 mapping: 解码结果映射
// 参数 report: 运行摘要
// 返回: 分配的运行 id
func (s *Store) RecordRun(source string, startedAt, finishedAt time.Time, mapping *model.ResultMapping, report *model.Report) (string, error) {
	if mapping == nil || report == nil {
		return "", fmt.Errorf("解码结果或摘要为空")
	}

	runID := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("开启归档事务失败: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, source, started_at, finished_at, reference_node, reference_period, channels, defined)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, source, startedAt, finishedAt,
		report.ReferenceNode, report.ReferencePeriod, report.Channels, report.Defined,
	)
	if err != nil {
		return "", fmt.Errorf("写入 runs 失败: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO spins (run_id, node, spin, phase_deg, crossings) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("准备 spins 插入失败: %w", err)
	}
	defer stmt.Close()

	for _, e := range mapping.Entries() {
		var spinVal, phaseVal any
		if e.Spin.Defined() {
			spinVal = int64(e.Spin)
			phaseVal = e.Phase.Degrees
		}
		if _, err := stmt.Exec(runID, e.Node, spinVal, phaseVal, e.Crossings); err != nil {
			return "", fmt.Errorf("写入 spins 失败（节点 %s）: %w", e.Node, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("提交归档事务失败: %w", err)
	}
	return runID, nil
}

// RunSpins 查询一次运行的全部通道结果
// 参数 runID: 运行 id
// 返回: 按写入顺序排列的通道结果
func (s *Store) RunSpins(runID string) ([]model.NodeResult, error) {
	rows, err := s.db.Query(
		`SELECT node, spin, phase_deg, crossings FROM spins WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("查询 spins 失败: %w", err)
	}
	defer rows.Close()

	var out []model.NodeResult
	for rows.Next() {
		var (
			node      string
			spinVal   sql.NullInt64
			phaseVal  sql.NullFloat64
			crossings int
		)
		if err := rows.Scan(&node, &spinVal, &phaseVal, &crossings); err != nil {
			return nil, fmt.Errorf("读取 spins 行失败: %w", err)
		}

		res := model.NodeResult{Node: node, Crossings: crossings}
		if spinVal.Valid {
			res.Spin = model.Spin(spinVal.Int64)
		}
		if phaseVal.Valid {
			res.Phase = model.NewPhase(phaseVal.Float64)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历 spins 失败: %w", err)
	}
	return out, nil
}
