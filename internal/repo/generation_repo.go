package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/gsqlai/internal/model"
	"github.com/xxxsen/gsqlai/internal/pkg/dbutil"
	appErr "github.com/xxxsen/gsqlai/internal/pkg/errors"
)

const generationTable = "gsql_generations"

type GenerationRepo struct {
	db *sql.DB
}

func NewGenerationRepo(db *sql.DB) *GenerationRepo {
	return &GenerationRepo{db: db}
}

func (r *GenerationRepo) Create(ctx context.Context, item *model.GenerationRecord) error {
	data := map[string]interface{}{
		"id":               item.ID,
		"user_id":          item.UserID,
		"kind":             item.Kind,
		"prompt_hash":      item.PromptHash,
		"chunks_retrieved": item.ChunksRetrieved,
		"confidence":       item.Confidence,
		"outcome":          item.Outcome,
		"latency_ms":       item.LatencyMs,
		"ctime":            item.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert(generationTable, []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *GenerationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.GenerationRecord, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, uint(limit)}
	}
	sqlStr, args, err := builder.BuildSelect(generationTable, where, []string{
		"id", "user_id", "kind", "prompt_hash", "chunks_retrieved", "confidence", "outcome", "latency_ms", "ctime",
	})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.GenerationRecord, 0)
	for rows.Next() {
		var item model.GenerationRecord
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Kind, &item.PromptHash, &item.ChunksRetrieved,
			&item.Confidence, &item.Outcome, &item.LatencyMs, &item.Ctime,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *GenerationRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	const query = `DELETE FROM gsql_generations WHERE ctime < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
