package mysql

// Note: `comment` is a keyword in some modes; keep it quoted everywhere.
const insertReviewSQL = "INSERT INTO reviews\n" +
	"  (id, product_id, author_name, author_id, rating, title, `comment`, pros, cons, created_at)\n" +
	"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

const deleteReviewSQL = `DELETE FROM reviews WHERE id = ?`

const lockReviewSQL = `SELECT id FROM reviews WHERE id = ? FOR UPDATE`

const unlikeSQL = `DELETE FROM review_likes WHERE review_id = ? AND user_id = ?`

const likeSQL = `INSERT INTO review_likes (review_id, user_id) VALUES (?, ?)`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// like_count is derived from the distinct likers rows.
const selectReviewCols = "SELECT\n" +
	"  r.id, r.product_id, r.author_name, r.author_id, r.rating, r.title, r.`comment`, r.pros, r.cons, r.created_at,\n" +
	"  (SELECT COUNT(*) FROM review_likes l WHERE l.review_id = r.id) AS like_count\n" +
	"FROM reviews r\n"

const getReviewSQL = selectReviewCols + "WHERE r.id = ?"

// Newest first; aligns with index on (product_id, created_at, id).
const listByProductSQL = selectReviewCols + "WHERE r.product_id = ?\nORDER BY r.created_at DESC, r.id DESC"
