// Package retrieval computes cosine-distance rankings between embedding
// matrices and scores them with mean average precision.
//
// Rankings sort gallery items by ascending cosine distance. Items at equal
// distance keep their gallery order, so the lower index ranks first. A query
// counts as relevant to itself in self-retrieval unless WithExcludeSelf is
// given.
package retrieval
