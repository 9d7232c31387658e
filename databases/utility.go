package databases

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	if page < 1 {
		page = 1
	}
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

// getPaginatedOpts sorts newest first by sortField; a non-positive limit
// returns everything
func (mp *mongoPaginate) getPaginatedOpts(sortField string) *options.FindOptions {
	fOpt := options.Find().SetSort(bson.D{{Key: sortField, Value: -1}})
	if mp.limit <= 0 {
		return fOpt
	}
	skip := mp.page*mp.limit - mp.limit
	return fOpt.SetLimit(mp.limit).SetSkip(skip)
}

// offset returns the row offset for relational stores
func (mp *mongoPaginate) offset() int {
	return int(mp.page*mp.limit - mp.limit)
}
