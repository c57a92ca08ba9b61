package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/logger"
)

var attachmentColumns = []string{
	"id", "resource_type", "resource_id", "file_name", "path", "url", "mime_type", "size", "uploaded_by", "created_at",
}

// AttachmentRepository handles file attachment records.
type AttachmentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(db *pgxpool.Pool) *AttachmentRepository {
	return &AttachmentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanAttachment(row pgx.Row) (*models.Attachment, error) {
	var a models.Attachment
	err := row.Scan(&a.ID, &a.ResourceType, &a.ResourceID, &a.FileName, &a.Path, &a.URL,
		&a.MimeType, &a.Size, &a.UploadedBy, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func insertAttachments(ctx context.Context, conn querier, sb squirrel.StatementBuilderType, items []models.Attachment) error {
	if len(items) == 0 {
		return nil
	}
	q := sb.Insert("attachments").
		Columns("id", "resource_type", "resource_id", "file_name", "path", "url", "mime_type", "size", "uploaded_by")
	for i := range items {
		a := &items[i]
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		q = q.Values(a.ID, a.ResourceType, a.ResourceID, a.FileName, a.Path, a.URL, a.MimeType, a.Size, a.UploadedBy)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create attachments query: %w", err)
	}
	if _, err := conn.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int("count", len(items)).Msg("Error inserting attachments")
		return fmt.Errorf("error creating attachments: %w", err)
	}
	return nil
}

// CreateMany inserts attachment rows.
func (r *AttachmentRepository) CreateMany(ctx context.Context, items []models.Attachment) error {
	return insertAttachments(ctx, r.db, r.sb, items)
}

// GetByID retrieves an attachment by ID
func (r *AttachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	sql, args, err := r.sb.Select(attachmentColumns...).From("attachments").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get attachment query: %w", err)
	}
	a, err := scanAttachment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFileNotFound
		}
		return nil, fmt.Errorf("error retrieving attachment: %w", err)
	}
	return a, nil
}

// ListByResource returns the attachments of one resource, oldest first.
func (r *AttachmentRepository) ListByResource(ctx context.Context, resourceType models.ResourceType, resourceID uuid.UUID) ([]models.Attachment, error) {
	return listAttachments(ctx, r.db, r.sb, resourceType, []uuid.UUID{resourceID})
}

func listAttachments(ctx context.Context, pool *pgxpool.Pool, sb squirrel.StatementBuilderType, resourceType models.ResourceType, ids []uuid.UUID) ([]models.Attachment, error) {
	if len(ids) == 0 {
		return []models.Attachment{}, nil
	}
	sql, args, err := sb.Select(attachmentColumns...).From("attachments").
		Where(squirrel.Eq{"resource_type": resourceType, "resource_id": ids}).
		OrderBy("created_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list attachments query: %w", err)
	}
	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing attachments: %w", err)
	}
	defer rows.Close()

	out := make([]models.Attachment, 0)
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning attachment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Delete removes an attachment record.
func (r *AttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting attachment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrFileNotFound
	}
	return nil
}

// PathInUse reports whether any attachment still references a stored path.
func (r *AttachmentRepository) PathInUse(ctx context.Context, path string) (bool, error) {
	var inUse bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM attachments WHERE path = $1)`, path).Scan(&inUse)
	if err != nil {
		return false, fmt.Errorf("error checking attachment path: %w", err)
	}
	return inUse, nil
}
