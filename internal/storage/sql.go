package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/shindan/internal/knowledge"
	"github.com/hyperjump/shindan/internal/models"
)

const fingerprintKey = "fingerprint"

// SQLStorage implements Storage on database/sql for SQLite and PostgreSQL.
// Queries are written with ? placeholders and rebound per driver.
type SQLStorage struct {
	db     *sql.DB
	driver string
	path   string
}

// Driver returns the database driver name.
func (s *SQLStorage) Driver() string {
	return s.driver
}

func (s *SQLStorage) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idArgs(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

const symptomColumns = `id, name, category, severity_level, description`

func scanSymptoms(rows *sql.Rows) ([]models.Symptom, error) {
	defer rows.Close()
	out := make([]models.Symptom, 0)
	for rows.Next() {
		var sym models.Symptom
		var severity string
		var description sql.NullString
		if err := rows.Scan(&sym.ID, &sym.Name, &sym.Category, &severity, &description); err != nil {
			return nil, err
		}
		sym.Severity = models.ParseSeverity(severity)
		sym.Description = description.String
		out = append(out, sym)
	}
	return out, rows.Err()
}

// AllSymptoms returns the full catalog ordered by category, then name.
func (s *SQLStorage) AllSymptoms(ctx context.Context) ([]models.Symptom, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+symptomColumns+` FROM symptoms ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symptoms: %w", err)
	}
	return scanSymptoms(rows)
}

// SearchSymptoms returns symptoms whose name contains term, case-insensitively.
// Names that start with term come first; ties are ordered by name.
func (s *SQLStorage) SearchSymptoms(ctx context.Context, term string) ([]models.Symptom, error) {
	escaped := escapeLike(strings.ToLower(strings.TrimSpace(term)))
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+symptomColumns+` FROM symptoms
		 WHERE LOWER(name) LIKE ? ESCAPE '\'
		 ORDER BY CASE WHEN LOWER(name) LIKE ? ESCAPE '\' THEN 0 ELSE 1 END, name`),
		"%"+escaped+"%", escaped+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search symptoms: %w", err)
	}
	return scanSymptoms(rows)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SymptomsByIDs returns the symptoms with the given ids ordered by id. Unknown ids are absent.
func (s *SQLStorage) SymptomsByIDs(ctx context.Context, ids []int64) ([]models.Symptom, error) {
	if len(ids) == 0 {
		return []models.Symptom{}, nil
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+symptomColumns+` FROM symptoms WHERE id IN (`+placeholders(len(ids))+`) ORDER BY id`),
		idArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query symptoms by id: %w", err)
	}
	return scanSymptoms(rows)
}

// Categories returns the distinct symptom categories, sorted.
func (s *SQLStorage) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM symptoms ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const adviceColumns = `a.id, a.title, a.description, a.recommendation, a.severity_level, a.category, a.when_to_see_doctor, a.emergency_signs`

type adviceScan struct {
	severity        string
	whenToSeeDoctor sql.NullString
	emergencySigns  sql.NullString
}

func (a *adviceScan) targets(e *models.AdviceEntry) []interface{} {
	return []interface{}{&e.ID, &e.Title, &e.Description, &e.Recommendation, &a.severity, &e.Category, &a.whenToSeeDoctor, &a.emergencySigns}
}

func (a *adviceScan) finish(e *models.AdviceEntry) {
	e.Severity = models.ParseSeverity(a.severity)
	e.WhenToSeeDoctor = a.whenToSeeDoctor.String
	e.EmergencySigns = a.emergencySigns.String
}

// GetAdvice returns one advice entry by id.
func (s *SQLStorage) GetAdvice(ctx context.Context, id int64) (*models.AdviceEntry, error) {
	var entry models.AdviceEntry
	var scan adviceScan
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+adviceColumns+` FROM advice a WHERE a.id = ?`), id,
	).Scan(scan.targets(&entry)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("advice %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	scan.finish(&entry)
	return &entry, nil
}

// Weights returns every mapping row for the given symptoms joined with its advice entry,
// ordered by advice id then symptom id.
func (s *SQLStorage) Weights(ctx context.Context, symptomIDs []int64) ([]models.WeightedAdvice, error) {
	if len(symptomIDs) == 0 {
		return []models.WeightedAdvice{}, nil
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT sa.symptom_id, sa.advice_id, sa.weight, `+adviceColumns+`
		 FROM symptom_advice sa
		 JOIN advice a ON a.id = sa.advice_id
		 WHERE sa.symptom_id IN (`+placeholders(len(symptomIDs))+`)
		 ORDER BY a.id, sa.symptom_id`),
		idArgs(symptomIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query weights: %w", err)
	}
	defer rows.Close()

	out := make([]models.WeightedAdvice, 0)
	for rows.Next() {
		var w models.WeightedAdvice
		var scan adviceScan
		targets := append([]interface{}{&w.SymptomID, &w.AdviceID, &w.Weight}, scan.targets(&w.Advice)...)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		scan.finish(&w.Advice)
		out = append(out, w)
	}
	return out, rows.Err()
}

// LogSession records one advice request.
func (s *SQLStorage) LogSession(ctx context.Context, rec *models.SessionRecord) error {
	symptomsJSON, err := json.Marshal(rec.SymptomIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal symptom ids: %w", err)
	}
	adviceJSON, err := json.Marshal(rec.AdviceIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal advice ids: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO user_sessions (session_id, symptoms_searched, advice_given, ip_address, user_agent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		rec.SessionID, string(symptomsJSON), string(adviceJSON), rec.IPAddress, rec.UserAgent, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log session: %w", err)
	}
	return nil
}

// Import replaces the catalog, advice, and mappings with kb in one transaction.
// Sessions are kept. When the stored fingerprint matches kb and force is false,
// nothing is written and Import returns false.
func (s *SQLStorage) Import(ctx context.Context, kb *knowledge.Base, force bool) (bool, error) {
	fingerprint, err := kb.Fingerprint()
	if err != nil {
		return false, err
	}
	if !force {
		current, err := s.fingerprint(ctx)
		if err != nil {
			return false, err
		}
		if current == fingerprint {
			return false, nil
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM symptom_advice`,
		`DELETE FROM advice`,
		`DELETE FROM symptoms`,
		`DELETE FROM kb_meta`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return false, fmt.Errorf("failed to clear knowledge base: %w", err)
		}
	}

	insertSymptom, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO symptoms (id, name, category, severity_level, description) VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return false, err
	}
	defer insertSymptom.Close()
	for _, sym := range kb.Symptoms {
		if _, err := insertSymptom.ExecContext(ctx, sym.ID, sym.Name, sym.Category, sym.Severity.String(), sym.Description); err != nil {
			return false, fmt.Errorf("failed to insert symptom %d: %w", sym.ID, err)
		}
	}

	insertAdvice, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO advice (id, title, description, recommendation, severity_level, category, when_to_see_doctor, emergency_signs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return false, err
	}
	defer insertAdvice.Close()
	for _, a := range kb.Advice {
		if _, err := insertAdvice.ExecContext(ctx, a.ID, a.Title, a.Description, a.Recommendation,
			a.Severity.String(), a.Category, nullable(a.WhenToSeeDoctor), nullable(a.EmergencySigns)); err != nil {
			return false, fmt.Errorf("failed to insert advice %d: %w", a.ID, err)
		}
	}

	insertMapping, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO symptom_advice (symptom_id, advice_id, weight) VALUES (?, ?, ?)`))
	if err != nil {
		return false, err
	}
	defer insertMapping.Close()
	for _, m := range kb.Mappings {
		if _, err := insertMapping.ExecContext(ctx, m.SymptomID, m.AdviceID, m.Weight); err != nil {
			return false, fmt.Errorf("failed to insert mapping %d->%d: %w", m.SymptomID, m.AdviceID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO kb_meta (meta_key, meta_value) VALUES (?, ?)`),
		fingerprintKey, fingerprint); err != nil {
		return false, fmt.Errorf("failed to store fingerprint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func nullable(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func (s *SQLStorage) fingerprint(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT meta_value FROM kb_meta WHERE meta_key = ?`), fingerprintKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// Stats returns row counts, the stored fingerprint, and disk usage for file-backed databases.
func (s *SQLStorage) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Driver: s.driver}
	for _, c := range []struct {
		table string
		dst   *int64
	}{
		{"symptoms", &st.Symptoms},
		{"advice", &st.Advice},
		{"symptom_advice", &st.Mappings},
		{"user_sessions", &st.Sessions},
	} {
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+c.table).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}
	fp, err := s.fingerprint(ctx)
	if err != nil {
		return nil, err
	}
	st.Fingerprint = fp
	if s.path != "" {
		n, err := SQLiteDiskUsage(s.path)
		if err == nil {
			st.DiskUsageBytes = n
		}
	}
	return st, nil
}

// Close closes the database.
func (s *SQLStorage) Close() error {
	return s.db.Close()
}
