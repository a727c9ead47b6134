package databases

import "go.mongodb.org/mongo-driver/mongo/options"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type mongoPaginate struct {
	limit int64
	page  int64
}

// newMongoPaginate clamps limit to [1, maxPageSize] and page to at least 1
func newMongoPaginate(limit, page int) *mongoPaginate {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

func (mp *mongoPaginate) getPaginatedOpts() *options.FindOptions {
	skip := mp.page*mp.limit - mp.limit
	return options.Find().SetLimit(mp.limit).SetSkip(skip)
}
