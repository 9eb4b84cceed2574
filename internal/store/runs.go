package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"actreco/internal/model"
)

// ErrRunNotFound 指定 ID 的运行记录不存在
var ErrRunNotFound = errors.New("run not found")

// CreateRun 创建运行记录，状态为 running，返回新 ID
func (s *Store) CreateRun(kind model.RunKind, input string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO runs (id, kind, input, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, string(kind), input, string(model.RunRunning), startedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// FinishRun 完成运行记录；runErr 为 nil 时状态为 success
func (s *Store) FinishRun(id, output string, rows int, runErr error, finishedAt time.Time) error {
	status := model.RunSuccess
	msg := ""
	if runErr != nil {
		status = model.RunFailed
		msg = runErr.Error()
	}
	res, err := s.db.Exec(`
		UPDATE runs SET
			output = ?,
			status = ?,
			rows = ?,
			error = ?,
			finished_at = ?
		WHERE id = ?
	`, output, string(status), rows, msg, finishedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// SaveRunSections 写入各分区结果，重复写入时覆盖
func (s *Store) SaveRunSections(sections []model.RunSection) error {
	if len(sections) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO run_sections (run_id, section, rows, skipped, warnings)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, section) DO UPDATE SET
			rows = excluded.rows,
			skipped = excluded.skipped,
			warnings = excluded.warnings
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare run sections: %w", err)
	}
	defer stmt.Close()

	for _, sec := range sections {
		if _, err := stmt.Exec(sec.RunID, sec.Section, sec.Rows, sec.Skipped, sec.Warnings); err != nil {
			return fmt.Errorf("failed to save section %s: %w", sec.Section, err)
		}
	}
	return tx.Commit()
}

// GetRun 按 ID 查询
func (s *Store) GetRun(id string) (*model.Run, error) {
	row := s.db.QueryRow(`
		SELECT id, kind, input, output, status, rows, error, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ListRuns 按开始时间倒序；kind 为空时不过滤
func (s *Store) ListRuns(kind model.RunKind, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, kind, input, output, status, rows, error, started_at, finished_at
		FROM runs`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

// ListRunSections 查询运行的分区结果
func (s *Store) ListRunSections(runID string) ([]model.RunSection, error) {
	rows, err := s.db.Query(`
		SELECT run_id, section, rows, skipped, warnings
		FROM run_sections WHERE run_id = ? ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run sections: %w", err)
	}
	defer rows.Close()

	var out []model.RunSection
	for rows.Next() {
		var sec model.RunSection
		if err := rows.Scan(&sec.RunID, &sec.Section, &sec.Rows, &sec.Skipped, &sec.Warnings); err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*model.Run, error) {
	var (
		run      model.Run
		kind     string
		status   string
		finished sql.NullTime
	)
	if err := r.Scan(&run.ID, &kind, &run.Input, &run.Output, &status, &run.Rows, &run.Error, &run.StartedAt, &finished); err != nil {
		return nil, err
	}
	run.Kind = model.RunKind(kind)
	run.Status = model.RunStatus(status)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
