package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/aristath/coordinator/internal/scheduler"
)

// RecordRun flattens a finished plan and its journal into a Run ready for
// SaveRun. Sub-tasks are included depth-first under their parent's path.
func RecordRun(plan *scheduler.Plan, journal []scheduler.Entry, parallel bool, started, finished time.Time) *Run {
	run := &Run{
		Objective:  plan.Objective,
		Parallel:   parallel,
		StartedAt:  started,
		FinishedAt: finished,
		Journal:    journal,
	}

	var flatten func(task *scheduler.Task, path string)
	flatten = func(task *scheduler.Task, path string) {
		result := ""
		if task.Result != nil {
			result = task.Result.Content
		}
		run.Tasks = append(run.Tasks, TaskRecord{
			Path:        path,
			Description: task.Description,
			AgentName:   task.AgentName,
			Status:      task.Status,
			Result:      result,
		})
		for i, sub := range task.SubTasks {
			flatten(sub, path+"."+strconv.Itoa(i))
		}
	}
	for i, task := range plan.Tasks {
		flatten(task, strconv.Itoa(i))
	}

	return run
}

// SaveRun stores a finished run with its task outcomes and journal in one
// transaction. Returns the new run ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (objective, parallel, started_at, finished_at)
		VALUES (?, ?, ?, ?)
	`, run.Objective, boolToInt(run.Parallel), run.StartedAt, run.FinishedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for pos, task := range run.Tasks {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_tasks (run_id, position, path, description, agent_name, status, result)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, runID, pos, task.Path, task.Description, task.AgentName, task.Status, task.Result)
		if err != nil {
			return 0, fmt.Errorf("failed to insert task %s: %w", task.Path, err)
		}
	}

	for seq, entry := range run.Journal {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_journal (run_id, seq, kind, agent, from_agent, to_agent, task, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, seq, entry.Kind, entry.Agent, entry.From, entry.To, entry.Task, entry.At)
		if err != nil {
			return 0, fmt.Errorf("failed to insert journal entry %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	run.ID = runID
	return runID, nil
}

// GetRun loads a stored run by ID, including task outcomes and journal.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*Run, error) {
	run := &Run{ID: id}
	var parallel int

	err := s.db.QueryRowContext(ctx, `
		SELECT objective, parallel, started_at, finished_at
		FROM runs WHERE id = ?
	`, id).Scan(&run.Objective, &parallel, &run.StartedAt, &run.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	run.Parallel = parallel != 0

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, description, agent_name, status, result
		FROM run_tasks WHERE run_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var task TaskRecord
		if err := rows.Scan(&task.Path, &task.Description, &task.AgentName, &task.Status, &task.Result); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		run.Tasks = append(run.Tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	jrows, err := s.db.QueryContext(ctx, `
		SELECT kind, agent, from_agent, to_agent, task, recorded_at
		FROM run_journal WHERE run_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer jrows.Close()

	for jrows.Next() {
		var entry scheduler.Entry
		if err := jrows.Scan(&entry.Kind, &entry.Agent, &entry.From, &entry.To, &entry.Task, &entry.At); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		run.Journal = append(run.Journal, entry)
	}
	if err := jrows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal: %w", err)
	}

	return run, nil
}

// ListRuns returns summaries of all stored runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.objective, r.parallel, r.finished_at,
			(SELECT COUNT(*) FROM run_tasks t WHERE t.run_id = r.id),
			(SELECT COUNT(*) FROM run_tasks t WHERE t.run_id = r.id AND t.status = ?)
		FROM runs r ORDER BY r.id DESC
	`, scheduler.TaskFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		var parallel int
		if err := rows.Scan(&s.ID, &s.Objective, &parallel, &s.FinishedAt, &s.Tasks, &s.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		s.Parallel = parallel != 0
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return summaries, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
