package reviewapi

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"storefront/internal/domain"
)

/********** alias registry (single source of truth) **********/

// Backends disagree on field names (document stores use _id, some nest the
// author under user); the first non-empty alias wins.
var reviewAliases = map[string][]string{
	"id":          {"id", "_id", "reviewId", "review_id"},
	"product_id":  {"productId", "product_id", "product", "product._id", "product.id"},
	"author_name": {"authorName", "author_name", "name", "userName", "user.name", "author.name"},
	"author_id":   {"authorId", "author_id", "userId", "user_id", "user._id", "user.id", "user"},
	"title":       {"title", "headline"},
	"comment":     {"comment", "text", "body", "content"},
	"pros":        {"pros"},
	"cons":        {"cons"},
	"rating":      {"rating", "stars", "score"},
	"like_count":  {"likeCount", "like_count", "likesCount"},
	"likers":      {"likes", "likedBy", "likers"},
	"created_at":  {"createdAt", "created_at", "date"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func firstStr(m map[string]any, key string) string {
	for _, p := range reviewAliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// firstInt: int from several paths (float64/int/string). Fractional values
// are rounded to the nearest integer and logged.
func firstInt(m map[string]any, key string) (int, bool) {
	for _, p := range reviewAliases[key] {
		switch v := lookupAny(m, p).(type) {
		case float64:
			return roundInt(key, v), true
		case int:
			return v, true
		case int64:
			return int(v), true
		case string:
			s := strings.TrimSpace(v)
			if n, err := strconv.Atoi(s); err == nil {
				return n, true
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return roundInt(key, f), true
			}
		}
	}
	return 0, false
}

func roundInt(key string, f float64) int {
	n := math.Round(f)
	if n != f {
		log.Warn().Str("field", key).Float64("value", f).Int("rounded", int(n)).Msg("non-integral value from review backend")
	}
	return int(n)
}

// countLikers counts distinct liker ids in the first likers array found.
func countLikers(m map[string]any) (int, bool) {
	for _, p := range reviewAliases["likers"] {
		raw, ok := lookupAny(m, p).([]any)
		if !ok {
			continue
		}
		seen := make(map[string]struct{}, len(raw))
		for _, it := range raw {
			switch t := it.(type) {
			case string:
				seen[t] = struct{}{}
			case map[string]any:
				if id := lookupStr(t, "_id"); id != "" {
					seen[id] = struct{}{}
				} else if id := lookupStr(t, "id"); id != "" {
					seen[id] = struct{}{}
				}
			}
		}
		return len(seen), true
	}
	return 0, false
}

func firstTime(m map[string]any, key string) time.Time {
	for _, p := range reviewAliases[key] {
		s := lookupStr(m, p)
		if s == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

/********** review mapper **********/

func mapReview(r map[string]any) domain.Review {
	rv := domain.Review{
		ID:         firstStr(r, "id"),
		ProductID:  firstStr(r, "product_id"),
		AuthorName: firstStr(r, "author_name"),
		AuthorID:   firstStr(r, "author_id"),
		Title:      firstStr(r, "title"),
		Comment:    firstStr(r, "comment"),
		Pros:       firstStr(r, "pros"),
		Cons:       firstStr(r, "cons"),
		CreatedAt:  firstTime(r, "created_at"),
	}
	if n, ok := firstInt(r, "rating"); ok {
		rv.Rating = n
	}

	// An explicit count is authoritative; otherwise derive it from the likers set.
	if n, ok := firstInt(r, "like_count"); ok {
		rv.LikeCount = n
	} else if n, ok := countLikers(r); ok {
		rv.LikeCount = n
	}
	if rv.LikeCount < 0 {
		rv.LikeCount = 0
	}
	return rv
}

func mapReviews(in []map[string]any) []domain.Review {
	out := make([]domain.Review, 0, len(in))
	for _, r := range in {
		out = append(out, mapReview(r))
	}
	return out
}

// unwrapList accepts a bare array or an envelope like {"reviews": [...]}.
func unwrapList(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, it := range t {
			if m, ok := it.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		for _, k := range []string{"reviews", "items", "data"} {
			if inner, ok := t[k]; ok {
				return unwrapList(inner)
			}
		}
	}
	return nil
}

// unwrapOne accepts a bare object or an envelope like {"review": {...}}.
func unwrapOne(m map[string]any) map[string]any {
	for _, k := range []string{"review", "data"} {
		if inner, ok := m[k].(map[string]any); ok {
			return inner
		}
	}
	return m
}
