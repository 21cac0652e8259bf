package rigid

import "github.com/setanarut/vec"

// SpatialIndexQuery is called for every indexed id whose bounding box passed a query.
type SpatialIndexQuery func(id ShapeID)

// SpatialIndexSegmentQuery is called for every indexed id whose bounding box the
// segment hits. It returns the fraction along the segment where the search may stop,
// or 1 to continue along the whole segment.
type SpatialIndexSegmentQuery func(id ShapeID) float64

// SpatialIndex is the broad-phase contract: an index of bounding boxes keyed
// by shape id. Queries never miss an overlapping box; they may report boxes
// that turn out not to overlap the exact geometry.
//
// Insert, Remove and Update fail with an error of kind InvalidHandle when the
// id is unknown (or already indexed, for Insert).
type SpatialIndex interface {
	// Count returns the number of ids currently stored in the index.
	Count() int
	// Contains reports whether id is indexed.
	Contains(id ShapeID) bool
	// Each calls f for every indexed id in a deterministic order.
	Each(f SpatialIndexQuery)

	// Insert adds id with the bounding box bb. vel is the velocity of the
	// object, used to predict where the box will be next.
	Insert(id ShapeID, bb BB, vel vec.Vec2) error
	// Remove deletes id.
	Remove(id ShapeID) error
	// Update tells the index that the bounding box of id changed.
	Update(id ShapeID, bb BB, vel vec.Vec2) error
	// Rebuild rebalances the whole index.
	Rebuild()

	// Query calls f for every id whose box intersects bb.
	Query(bb BB, f SpatialIndexQuery)
	// SegmentQuery calls f for ids whose box is hit by the segment from a to b,
	// nearest first, until the fraction returned by f (or tExit) is passed.
	SegmentQuery(a, b vec.Vec2, tExit float64, f SpatialIndexSegmentQuery)
}

// collideStatic queries the static index with every box of the dynamic index.
func collideStatic(dynamicIndex, staticIndex SpatialIndex, bbOf func(ShapeID) BB, f func(a, b ShapeID)) {
	if staticIndex.Count() == 0 {
		return
	}
	dynamicIndex.Each(func(a ShapeID) {
		staticIndex.Query(bbOf(a), func(b ShapeID) {
			f(a, b)
		})
	})
}
