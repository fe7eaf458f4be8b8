package domain

// OpClass names one independently tracked operation of the aggregation core.
type OpClass string

const (
	OpFetch  OpClass = "fetch"
	OpCreate OpClass = "create"
	OpUpdate OpClass = "update"
	OpDelete OpClass = "delete"
	OpLike   OpClass = "like"
)

var OpClasses = []OpClass{OpFetch, OpCreate, OpUpdate, OpDelete, OpLike}

func ParseOpClass(s string) (OpClass, bool) {
	for _, c := range OpClasses {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type Outcome string

const (
	Fulfilled Outcome = "fulfilled"
	Rejected  Outcome = "rejected"
)
