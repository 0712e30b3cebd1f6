package storage

import (
	"database/sql"
	"time"

	"github.com/reqlint/reqlint/internal/ir"
)

// ListRuns returns a lightweight list of runs with issue counts.
func (db *DB) ListRuns(limit, offset int) ([]RunRow, error) {
	const q = `
		SELECT r.id, r.started_at, r.sources, r.schema_version,
		       (SELECT COUNT(1) FROM issues i WHERE i.run_id = r.id) AS issues,
		       (SELECT COUNT(1) FROM issues i WHERE i.run_id = r.id AND i.severity = 'CRITICAL') AS critical
		  FROM runs r
		 ORDER BY r.started_at DESC, r.id DESC
		 LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var rr RunRow
		var startedAtStr string
		if err := rows.Scan(&rr.ID, &startedAtStr, &rr.Sources, &rr.SchemaVersion, &rr.Issues, &rr.Critical); err != nil {
			return nil, err
		}
		// Parse RFC3339Nano first, fallback to RFC3339
		if t, err := time.Parse(time.RFC3339Nano, startedAtStr); err == nil {
			rr.StartedAt = t
		} else if t2, err2 := time.Parse(time.RFC3339, startedAtStr); err2 == nil {
			rr.StartedAt = t2
		} else {
			// leave zero time if unparsable (shouldn't happen)
			rr.StartedAt = time.Time{}
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// ListIssues returns a run's issues at or above a minimum severity, ordered
// by severity rank. Report emission keeps the run's own ordering; this query
// serves browsing surfaces where the worst issues belong on top.
func (db *DB) ListIssues(runID, minSeverity string) ([]ir.Issue, error) {
	const q = `
		SELECT id, rule_id, severity, doc, section, line, description, evidence, suggested_fix
		  FROM issues
		 WHERE run_id = ?
		   AND (CASE severity WHEN 'CRITICAL' THEN 3 WHEN 'MAJOR' THEN 2 ELSE 1 END)
		       >= (CASE ? WHEN 'CRITICAL' THEN 3 WHEN 'MAJOR' THEN 2 ELSE 1 END)
		 ORDER BY
		       (CASE severity WHEN 'CRITICAL' THEN 3 WHEN 'MAJOR' THEN 2 ELSE 1 END) DESC,
		       rule_id, doc, section, id`
	rows, err := db.conn.Query(q, runID, minSeverity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ir.Issue
	for rows.Next() {
		var iss ir.Issue
		var sev string
		if err := rows.Scan(&iss.ID, &iss.RuleID, &sev, &iss.Doc, &iss.Section, &iss.Line, &iss.Description, &iss.Evidence, &iss.SuggestedFix); err != nil {
			return nil, err
		}
		iss.Severity = ir.Severity(sev)
		out = append(out, iss)
	}
	return out, rows.Err()
}

// LoadLatestRun returns the most recently started run.
func (db *DB) LoadLatestRun() (ir.Run, error) {
	rows, err := db.ListRuns(1, 0)
	if err != nil {
		return ir.Run{}, err
	}
	if len(rows) == 0 {
		return ir.Run{}, sql.ErrNoRows
	}
	return db.LoadRun(rows[0].ID)
}

// Optional helper used by diff and serve endpoints.
func (db *DB) HasRun(id string) (bool, error) {
	const q = `SELECT 1 FROM runs WHERE id = ? LIMIT 1`
	var one int
	err := db.conn.QueryRow(q, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
