package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quadview/internal/dicom"
	"quadview/internal/viewer"
)

const toolItemColumns = `id, kind, study_uid, series_uid, slice_index, label, points, samples,
	created_at, updated_at`

// AnnotationRepository implements viewer.AnnotationStore using SQLite.
type AnnotationRepository struct {
	db *sql.DB
}

// NewAnnotationRepository creates a repository over an open database.
func NewAnnotationRepository(db *sql.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

var _ viewer.AnnotationStore = (*AnnotationRepository)(nil)

// scanToolItem scans a row into a ToolItemModel.
func scanToolItem(scanner interface{ Scan(...any) error }) (*ToolItemModel, error) {
	var m ToolItemModel
	err := scanner.Scan(
		&m.ID, &m.Kind, &m.StudyUID, &m.SeriesUID, &m.SliceIndex,
		&m.Label, &m.Points, &m.Samples, &m.CreatedAt, &m.UpdatedAt,
	)
	return &m, err
}

// SaveItem upserts a tool item. The created timestamp of an existing row
// is preserved.
func (r *AnnotationRepository) SaveItem(ctx context.Context, item viewer.ToolItem) error {
	m, err := toModel(item, time.Now().Unix())
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO tool_items (`+toolItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			kind = excluded.kind,
			study_uid = excluded.study_uid,
			series_uid = excluded.series_uid,
			slice_index = excluded.slice_index,
			label = excluded.label,
			points = excluded.points,
			samples = excluded.samples,
			updated_at = excluded.updated_at`,
		m.ID, m.Kind, m.StudyUID, m.SeriesUID, m.SliceIndex,
		m.Label, m.Points, m.Samples, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save tool item: %w", err)
	}
	return nil
}

// DeleteItem removes a tool item by ID. Deleting an unknown ID is not an
// error.
func (r *AnnotationRepository) DeleteItem(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tool_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tool item: %w", err)
	}
	return nil
}

// ItemsForSeries returns every stored item for one series, oldest first.
func (r *AnnotationRepository) ItemsForSeries(ctx context.Context, study dicom.StudyUID, series dicom.SeriesUID) ([]viewer.ToolItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+toolItemColumns+` FROM tool_items
		WHERE study_uid = ? AND series_uid = ?
		ORDER BY created_at, id`,
		string(study), string(series),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tool items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []viewer.ToolItem
	for rows.Next() {
		m, err := scanToolItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tool item: %w", err)
		}
		item, err := m.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tool items: %w", err)
	}
	return items, nil
}

// CountForStudy returns the number of stored items in a study.
func (r *AnnotationRepository) CountForStudy(ctx context.Context, study dicom.StudyUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tool_items WHERE study_uid = ?`, string(study),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count tool items: %w", err)
	}
	return n, nil
}
