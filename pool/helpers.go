package pool

import "github.com/inquir-search/search-engine/query"

func matchAllQuery() query.Query {
	return query.Query{MatchAll: &query.MatchAllQuery{}}
}

func queryContextAll() query.Context {
	return query.Context{}
}
