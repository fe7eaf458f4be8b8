package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Create(ctx context.Context, rv domain.Review) error {
	_, err := r.db.ExecContext(ctx, insertReviewSQL,
		rv.ID,
		rv.ProductID,
		valStr(rv.AuthorName),
		valStr(rv.AuthorID),
		rv.Rating,
		valStr(rv.Title),
		rv.Comment,
		valStr(rv.Pros),
		valStr(rv.Cons),
		rv.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) Update(ctx context.Context, id string, f domain.ReviewFields) (domain.Review, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return domain.Review{}, err
	}

	var (
		sets []string
		args []any
	)
	if f.Rating != nil {
		sets, args = append(sets, "rating = ?"), append(args, *f.Rating)
	}
	if f.Title != nil {
		sets, args = append(sets, "title = ?"), append(args, valStr(*f.Title))
	}
	if f.Comment != nil {
		sets, args = append(sets, "`comment` = ?"), append(args, *f.Comment)
	}
	if f.Pros != nil {
		sets, args = append(sets, "pros = ?"), append(args, valStr(*f.Pros))
	}
	if f.Cons != nil {
		sets, args = append(sets, "cons = ?"), append(args, valStr(*f.Cons))
	}
	if len(sets) > 0 {
		q := "UPDATE reviews SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		if _, err := r.db.ExecContext(ctx, q, append(args, id)...); err != nil {
			return domain.Review{}, err
		}
	}
	return r.Get(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteReviewSQL, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

// ToggleLike flips userID's membership in the review's likers set.
func (r *Repo) ToggleLike(ctx context.Context, id, userID string) (domain.Review, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Review{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var locked string
	if err := tx.QueryRowContext(ctx, lockReviewSQL, id).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Review{}, notFound(id)
		}
		return domain.Review{}, err
	}

	res, err := tx.ExecContext(ctx, unlikeSQL, id, userID)
	if err != nil {
		return domain.Review{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return domain.Review{}, err
	} else if n == 0 {
		if _, err := tx.ExecContext(ctx, likeSQL, id, userID); err != nil {
			return domain.Review{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Review{}, err
	}
	return r.Get(ctx, id)
}

func (r *Repo) Get(ctx context.Context, id string) (domain.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, getReviewSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Review{}, notFound(id)
	}
	return rv, err
}

func (r *Repo) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, listByProductSQL, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanReview(s scanner) (domain.Review, error) {
	var (
		rv                          domain.Review
		authorName, authorID, title sql.NullString
		pros, cons                  sql.NullString
	)
	if err := s.Scan(
		&rv.ID,
		&rv.ProductID,
		&authorName,
		&authorID,
		&rv.Rating,
		&title,
		&rv.Comment,
		&pros,
		&cons,
		&rv.CreatedAt, // needs parseTime=true in the DSN
		&rv.LikeCount,
	); err != nil {
		return domain.Review{}, err
	}
	rv.AuthorName = authorName.String
	rv.AuthorID = authorID.String
	rv.Title = title.String
	rv.Pros = pros.String
	rv.Cons = cons.String
	rv.CreatedAt = rv.CreatedAt.UTC()
	return rv, nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: review %s", domain.ErrNotFound, id)
}
