package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/huangsam/caliper/internal/contract"
	"github.com/huangsam/caliper/schema"
)

// Table names for analysis history.
const (
	componentsTable     = "caliper_components"
	snapshotsTable      = "caliper_snapshots"
	eventsTable         = "caliper_events"
	newCodePeriodsTable = "caliper_new_code_periods"
	cpdBlocksTable      = "caliper_cpd_blocks"
	measuresTable       = "caliper_measures"
)

// historyTables lists every table, children first.
var historyTables = []string{measuresTable, cpdBlocksTable, newCodePeriodsTable, eventsTable, snapshotsTable, componentsTable}

// hashBatchSize bounds the number of placeholders in one IN clause.
const hashBatchSize = 500

// HistoryStoreImpl implements the HistoryStore interface on a SQL database.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend and brings its schema up to date.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (*HistoryStoreImpl, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled history
		return &HistoryStoreImpl{backend: backend}, nil
	}
	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	if err := migrateUp(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}
	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

// rebind rewrites '?' placeholders for backends that number them.
func (hs *HistoryStoreImpl) rebind(query string) string {
	if hs.backend != schema.PostgreSQLBackend {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (hs *HistoryStoreImpl) exec(ctx context.Context, q execer, query string, args ...any) error {
	_, err := q.ExecContext(ctx, hs.rebind(query), args...)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	execer
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn in a transaction, committing only if fn succeeds.
func (hs *HistoryStoreImpl) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := hs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

const componentColumns = "uuid, kee, public_key, project_uuid, type, name, path, language, enabled"

func scanComponent(row interface{ Scan(...any) error }) (schema.ComponentRecord, error) {
	var rec schema.ComponentRecord
	var name, path, language sql.NullString
	if err := row.Scan(&rec.UUID, &rec.Key, &rec.PublicKey, &rec.ProjectUUID, &rec.Type, &name, &path, &language, &rec.Enabled); err != nil {
		return rec, err
	}
	rec.Name, rec.Path, rec.Language = name.String, path.String, language.String
	return rec, nil
}

// ComponentsByProject implements the ComponentStore interface.
func (hs *HistoryStoreImpl) ComponentsByProject(ctx context.Context, projectUUID string) (map[string]schema.ComponentRecord, error) {
	out := make(map[string]schema.ComponentRecord)
	if hs.disabled() {
		return out, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE project_uuid = ?", componentColumns, componentsTable)
	rows, err := hs.db.QueryContext(ctx, hs.rebind(query), projectUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query components: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		rec, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		out[rec.Key] = rec
	}
	return out, rows.Err()
}

// ComponentByKey implements the ComponentStore interface.
func (hs *HistoryStoreImpl) ComponentByKey(ctx context.Context, key string) (schema.ComponentRecord, bool, error) {
	if hs.disabled() {
		return schema.ComponentRecord{}, false, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE kee = ?", componentColumns, componentsTable)
	rec, err := scanComponent(hs.db.QueryRowContext(ctx, hs.rebind(query), key))
	if errors.Is(err, sql.ErrNoRows) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("failed to query component %s: %w", key, err)
	}
	return rec, true, nil
}

// UpsertComponents implements the ComponentStore interface.
func (hs *HistoryStoreImpl) UpsertComponents(ctx context.Context, records []schema.ComponentRecord) error {
	if hs.disabled() || len(records) == 0 {
		return nil
	}
	return hs.inTx(ctx, func(tx *sql.Tx) error {
		return hs.upsertComponents(ctx, tx, records)
	})
}

func (hs *HistoryStoreImpl) upsertComponents(ctx context.Context, q dbtx, records []schema.ComponentRecord) error {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE uuid = ?", componentsTable)
	updateQuery := fmt.Sprintf("UPDATE %s SET kee = ?, public_key = ?, project_uuid = ?, type = ?, name = ?, path = ?, language = ?, enabled = ? WHERE uuid = ?", componentsTable)
	insertQuery := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", componentsTable, componentColumns)

	for _, r := range records {
		var count int
		if err := q.QueryRowContext(ctx, hs.rebind(countQuery), r.UUID).Scan(&count); err != nil {
			return fmt.Errorf("failed to look up component %s: %w", r.Key, err)
		}
		var err error
		if count > 0 {
			err = hs.exec(ctx, q, updateQuery, r.Key, r.PublicKey, r.ProjectUUID, string(r.Type), r.Name, r.Path, r.Language, r.Enabled, r.UUID)
		} else {
			err = hs.exec(ctx, q, insertQuery, r.UUID, r.Key, r.PublicKey, r.ProjectUUID, string(r.Type), r.Name, r.Path, r.Language, r.Enabled)
		}
		if err != nil {
			return fmt.Errorf("failed to save component %s: %w", r.Key, err)
		}
	}
	return nil
}

const snapshotColumns = "uuid, component_uuid, created_at, build_date, status, islast, project_version, build_string, period_mode, period_param, period_date"

func scanSnapshot(row interface{ Scan(...any) error }) (schema.Snapshot, error) {
	var s schema.Snapshot
	var version, build, mode, param sql.NullString
	var periodDate sql.NullInt64
	if err := row.Scan(&s.UUID, &s.ComponentUUID, &s.CreatedAt, &s.BuildDate, &s.Status, &s.Last,
		&version, &build, &mode, &param, &periodDate); err != nil {
		return s, err
	}
	s.ProjectVersion, s.BuildString = version.String, build.String
	if mode.Valid {
		m := schema.PeriodMode(mode.String)
		s.PeriodMode = &m
	}
	if param.Valid {
		s.PeriodParam = &param.String
	}
	if periodDate.Valid {
		s.PeriodDate = &periodDate.Int64
	}
	return s, nil
}

func (hs *HistoryStoreImpl) querySnapshots(ctx context.Context, where string, args ...any) ([]schema.Snapshot, error) {
	query := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY created_at ASC", snapshotColumns, snapshotsTable, where)
	rows, err := hs.db.QueryContext(ctx, hs.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []schema.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LastSnapshot implements the SnapshotStore interface.
func (hs *HistoryStoreImpl) LastSnapshot(ctx context.Context, componentUUID string) (schema.Snapshot, bool, error) {
	if hs.disabled() {
		return schema.Snapshot{}, false, nil
	}
	snapshots, err := hs.querySnapshots(ctx, "WHERE component_uuid = ? AND islast = ?", componentUUID, true)
	if err != nil || len(snapshots) == 0 {
		return schema.Snapshot{}, false, err
	}
	return snapshots[len(snapshots)-1], true, nil
}

// Snapshots implements the SnapshotStore interface.
func (hs *HistoryStoreImpl) Snapshots(ctx context.Context, componentUUID string) ([]schema.Snapshot, error) {
	if hs.disabled() {
		return nil, nil
	}
	return hs.querySnapshots(ctx, "WHERE component_uuid = ?", componentUUID)
}

// SnapshotByUUID implements the SnapshotStore interface.
func (hs *HistoryStoreImpl) SnapshotByUUID(ctx context.Context, uuid string) (schema.Snapshot, bool, error) {
	if hs.disabled() {
		return schema.Snapshot{}, false, nil
	}
	snapshots, err := hs.querySnapshots(ctx, "WHERE uuid = ?", uuid)
	if err != nil || len(snapshots) == 0 {
		return schema.Snapshot{}, false, err
	}
	return snapshots[0], true, nil
}

// AllSnapshots implements the SnapshotStore interface.
func (hs *HistoryStoreImpl) AllSnapshots(ctx context.Context) ([]schema.Snapshot, error) {
	if hs.disabled() {
		return nil, nil
	}
	return hs.querySnapshots(ctx, "")
}

// InsertSnapshot implements the SnapshotStore interface.
func (hs *HistoryStoreImpl) InsertSnapshot(ctx context.Context, s schema.Snapshot) error {
	if hs.disabled() {
		return nil
	}
	return hs.insertSnapshot(ctx, hs.db, s)
}

func (hs *HistoryStoreImpl) insertSnapshot(ctx context.Context, q execer, s schema.Snapshot) error {
	var mode *string
	if s.PeriodMode != nil {
		m := string(*s.PeriodMode)
		mode = &m
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", snapshotsTable, snapshotColumns)
	err := hs.exec(ctx, q, query, s.UUID, s.ComponentUUID, s.CreatedAt, s.BuildDate, string(s.Status), s.Last,
		s.ProjectVersion, s.BuildString, mode, s.PeriodParam, s.PeriodDate)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot %s: %w", s.UUID, err)
	}
	return nil
}

// MarkLast implements the SnapshotStore interface.
func (hs *HistoryStoreImpl) MarkLast(ctx context.Context, componentUUID, snapshotUUID string) error {
	if hs.disabled() {
		return nil
	}
	return hs.inTx(ctx, func(tx *sql.Tx) error {
		return hs.markLast(ctx, tx, componentUUID, snapshotUUID)
	})
}

func (hs *HistoryStoreImpl) markLast(ctx context.Context, q execer, componentUUID, snapshotUUID string) error {
	unset := fmt.Sprintf("UPDATE %s SET islast = ? WHERE component_uuid = ? AND islast = ?", snapshotsTable)
	set := fmt.Sprintf("UPDATE %s SET islast = ?, status = ? WHERE uuid = ?", snapshotsTable)
	if err := hs.exec(ctx, q, unset, false, componentUUID, true); err != nil {
		return fmt.Errorf("failed to unset last snapshot: %w", err)
	}
	if err := hs.exec(ctx, q, set, true, string(schema.ProcessedSnapshot), snapshotUUID); err != nil {
		return fmt.Errorf("failed to mark snapshot %s as last: %w", snapshotUUID, err)
	}
	return nil
}

// SaveAnalysis implements the SnapshotStore interface.
func (hs *HistoryStoreImpl) SaveAnalysis(ctx context.Context, a schema.AnalysisRecord) error {
	if hs.disabled() {
		return nil
	}
	return hs.inTx(ctx, func(tx *sql.Tx) error {
		if err := hs.upsertComponents(ctx, tx, a.Components); err != nil {
			return fmt.Errorf("failed to persist components: %w", err)
		}
		if err := hs.insertSnapshot(ctx, tx, a.Snapshot); err != nil {
			return err
		}
		if err := hs.insertMeasures(ctx, tx, a.Measures); err != nil {
			return err
		}
		for _, e := range a.Events {
			if err := hs.insertEvent(ctx, tx, e); err != nil {
				return err
			}
		}
		if a.CpdProjectUUID != "" {
			if err := hs.replaceCpdBlocks(ctx, tx, a.CpdProjectUUID, a.CpdBlocks); err != nil {
				return err
			}
		}
		return hs.markLast(ctx, tx, a.Snapshot.ComponentUUID, a.Snapshot.UUID)
	})
}

// Events implements the EventStore interface.
func (hs *HistoryStoreImpl) Events(ctx context.Context, componentUUID string, category schema.EventCategory) ([]schema.Event, error) {
	if hs.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT uuid, analysis_uuid, component_uuid, name, category, description, event_data, event_date, created_at
		FROM %s WHERE component_uuid = ? AND category = ? ORDER BY event_date DESC, created_at DESC`, eventsTable)
	rows, err := hs.db.QueryContext(ctx, hs.rebind(query), componentUUID, string(category))
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []schema.Event
	for rows.Next() {
		var e schema.Event
		var name, desc, data sql.NullString
		if err := rows.Scan(&e.UUID, &e.AnalysisUUID, &e.ComponentUUID, &name, &e.Category, &desc, &data, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Name, e.Description, e.Data = name.String, desc.String, data.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertEvent implements the EventStore interface.
func (hs *HistoryStoreImpl) InsertEvent(ctx context.Context, e schema.Event) error {
	if hs.disabled() {
		return nil
	}
	return hs.insertEvent(ctx, hs.db, e)
}

func (hs *HistoryStoreImpl) insertEvent(ctx context.Context, q execer, e schema.Event) error {
	query := fmt.Sprintf(`INSERT INTO %s (uuid, analysis_uuid, component_uuid, name, category, description, event_data, event_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, eventsTable)
	if err := hs.exec(ctx, q, query, e.UUID, e.AnalysisUUID, e.ComponentUUID, e.Name, string(e.Category), e.Description, e.Data, e.Date, e.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert event %s: %w", e.UUID, err)
	}
	return nil
}

// NewCodePeriodSetting implements the PeriodSettingStore interface.
func (hs *HistoryStoreImpl) NewCodePeriodSetting(ctx context.Context, projectUUID, branchUUID string) (schema.NewCodePeriodSetting, bool, error) {
	if hs.disabled() {
		return schema.NewCodePeriodSetting{}, false, nil
	}
	query := fmt.Sprintf("SELECT project_uuid, branch_uuid, type, setting_value FROM %s WHERE project_uuid = ? AND branch_uuid = ?", newCodePeriodsTable)
	var scopes [][2]string
	if branchUUID != "" {
		scopes = append(scopes, [2]string{projectUUID, branchUUID})
	}
	if projectUUID != "" {
		scopes = append(scopes, [2]string{projectUUID, ""})
	}
	scopes = append(scopes, [2]string{"", ""})
	for _, scope := range scopes {
		var s schema.NewCodePeriodSetting
		var value sql.NullString
		err := hs.db.QueryRowContext(ctx, hs.rebind(query), scope[0], scope[1]).Scan(&s.ProjectUUID, &s.BranchUUID, &s.Mode, &value)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return s, false, fmt.Errorf("failed to query new code period: %w", err)
		}
		s.Value = value.String
		return s, true, nil
	}
	return schema.NewCodePeriodSetting{}, false, nil
}

// SaveNewCodePeriodSetting implements the PeriodSettingStore interface.
func (hs *HistoryStoreImpl) SaveNewCodePeriodSetting(ctx context.Context, s schema.NewCodePeriodSetting) error {
	if hs.disabled() {
		return nil
	}
	if s.BranchUUID != "" && s.ProjectUUID == "" {
		return fmt.Errorf("a branch setting requires a project")
	}
	del := fmt.Sprintf("DELETE FROM %s WHERE project_uuid = ? AND branch_uuid = ?", newCodePeriodsTable)
	ins := fmt.Sprintf("INSERT INTO %s (uuid, project_uuid, branch_uuid, type, setting_value) VALUES (?, ?, ?, ?, ?)", newCodePeriodsTable)
	id := uuid.NewString()
	return hs.inTx(ctx, func(tx *sql.Tx) error {
		if err := hs.exec(ctx, tx, del, s.ProjectUUID, s.BranchUUID); err != nil {
			return fmt.Errorf("failed to clear new code period: %w", err)
		}
		if err := hs.exec(ctx, tx, ins, id, s.ProjectUUID, s.BranchUUID, string(s.Mode), s.Value); err != nil {
			return fmt.Errorf("failed to save new code period: %w", err)
		}
		return nil
	})
}

// ReplaceCpdBlocks implements the CpdIndexStore interface.
func (hs *HistoryStoreImpl) ReplaceCpdBlocks(ctx context.Context, projectUUID string, blocks []schema.CpdBlockRecord) error {
	if hs.disabled() {
		return nil
	}
	return hs.inTx(ctx, func(tx *sql.Tx) error {
		return hs.replaceCpdBlocks(ctx, tx, projectUUID, blocks)
	})
}

func (hs *HistoryStoreImpl) replaceCpdBlocks(ctx context.Context, q execer, projectUUID string, blocks []schema.CpdBlockRecord) error {
	del := fmt.Sprintf("DELETE FROM %s WHERE project_uuid = ?", cpdBlocksTable)
	ins := fmt.Sprintf(`INSERT INTO %s (project_uuid, component_uuid, component_key, analysis_uuid, hash, index_in_file, start_line, end_line, start_unit, end_unit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, cpdBlocksTable)
	if err := hs.exec(ctx, q, del, projectUUID); err != nil {
		return fmt.Errorf("failed to clear cpd blocks of %s: %w", projectUUID, err)
	}
	for _, b := range blocks {
		if b.ProjectUUID != projectUUID {
			return fmt.Errorf("cpd block of %s belongs to project %s, not %s", b.ComponentKey, b.ProjectUUID, projectUUID)
		}
		if err := hs.exec(ctx, q, ins, b.ProjectUUID, b.ComponentUUID, b.ComponentKey, b.AnalysisUUID, b.Hash,
			b.IndexInFile, b.StartLine, b.EndLine, b.StartUnit, b.EndUnit); err != nil {
			return fmt.Errorf("failed to insert cpd block of %s: %w", b.ComponentKey, err)
		}
	}
	return nil
}

// CpdBlocksByHashes implements the CpdIndexStore interface.
func (hs *HistoryStoreImpl) CpdBlocksByHashes(ctx context.Context, hashes []string, excludedProjectUUID string) ([]schema.CpdBlockRecord, error) {
	if hs.disabled() || len(hashes) == 0 {
		return nil, nil
	}
	var out []schema.CpdBlockRecord
	for start := 0; start < len(hashes); start += hashBatchSize {
		batch := hashes[start:min(start+hashBatchSize, len(hashes))]
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(batch)), ", ")
		query := fmt.Sprintf(`SELECT project_uuid, component_uuid, component_key, analysis_uuid, hash, index_in_file, start_line, end_line, start_unit, end_unit
			FROM %s WHERE hash IN (%s) AND project_uuid <> ?
			AND analysis_uuid IN (SELECT uuid FROM %s WHERE islast = ? AND status = ?)
			ORDER BY component_key, index_in_file`, cpdBlocksTable, placeholders, snapshotsTable)
		args := make([]any, 0, len(batch)+3)
		for _, h := range batch {
			args = append(args, h)
		}
		args = append(args, excludedProjectUUID, true, string(schema.ProcessedSnapshot))

		rows, err := hs.db.QueryContext(ctx, hs.rebind(query), args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query cpd blocks: %w", err)
		}
		for rows.Next() {
			var b schema.CpdBlockRecord
			if err := rows.Scan(&b.ProjectUUID, &b.ComponentUUID, &b.ComponentKey, &b.AnalysisUUID, &b.Hash,
				&b.IndexInFile, &b.StartLine, &b.EndLine, &b.StartUnit, &b.EndUnit); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("failed to scan cpd block: %w", err)
			}
			out = append(out, b)
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// InsertMeasures implements the MeasureStore interface.
func (hs *HistoryStoreImpl) InsertMeasures(ctx context.Context, records []schema.MeasureRecord) error {
	if hs.disabled() || len(records) == 0 {
		return nil
	}
	return hs.inTx(ctx, func(tx *sql.Tx) error {
		return hs.insertMeasures(ctx, tx, records)
	})
}

func (hs *HistoryStoreImpl) insertMeasures(ctx context.Context, q execer, records []schema.MeasureRecord) error {
	ins := fmt.Sprintf(`INSERT INTO %s (analysis_uuid, component_uuid, metric, measure_value, text_value, variation, alert_status, alert_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, measuresTable)
	for _, m := range records {
		var alert *string
		if m.Alert != nil {
			a := string(*m.Alert)
			alert = &a
		}
		if err := hs.exec(ctx, q, ins, m.AnalysisUUID, m.ComponentUUID, m.MetricKey, m.Value, m.TextValue, m.Variation, alert, m.AlertText); err != nil {
			return fmt.Errorf("failed to insert measure %s: %w", m.MetricKey, err)
		}
	}
	return nil
}

// MeasuresByAnalysis implements the MeasureStore interface.
func (hs *HistoryStoreImpl) MeasuresByAnalysis(ctx context.Context, analysisUUID string) ([]schema.MeasureRecord, error) {
	if hs.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT analysis_uuid, component_uuid, metric, measure_value, text_value, variation, alert_status, alert_text
		FROM %s WHERE analysis_uuid = ? ORDER BY component_uuid, metric`, measuresTable)
	rows, err := hs.db.QueryContext(ctx, hs.rebind(query), analysisUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query measures: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []schema.MeasureRecord
	for rows.Next() {
		var m schema.MeasureRecord
		var value, variation sql.NullFloat64
		var text, alert, alertText sql.NullString
		if err := rows.Scan(&m.AnalysisUUID, &m.ComponentUUID, &m.MetricKey, &value, &text, &variation, &alert, &alertText); err != nil {
			return nil, fmt.Errorf("failed to scan measure: %w", err)
		}
		if value.Valid {
			m.Value = &value.Float64
		}
		if variation.Valid {
			m.Variation = &variation.Float64
		}
		if text.Valid {
			m.TextValue = &text.String
		}
		if alert.Valid {
			status := schema.EvaluationStatus(alert.String)
			m.Alert = &status
		}
		if alertText.Valid {
			m.AlertText = &alertText.String
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.disabled() {
		return status, nil
	}

	query := fmt.Sprintf("SELECT COUNT(*), COALESCE(MIN(created_at), 0), COALESCE(MAX(created_at), 0) FROM %s", snapshotsTable)
	var first, last int64
	if err := hs.db.QueryRow(query).Scan(&status.TotalSnapshots, &first, &last); err != nil {
		return status, fmt.Errorf("failed to get snapshot totals: %w", err)
	}
	if status.TotalSnapshots > 0 {
		status.FirstSnapshotAt = contract.FromMillis(first)
		status.LastSnapshotAt = contract.FromMillis(last)
	}

	for _, table := range historyTables {
		var count int64
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}
