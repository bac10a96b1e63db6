package compatibility

// Overlap is the Jaccard score of two sets as a 0-100 percentage, rounded to
// two decimals. It is zero when either set is empty.
func Overlap(a, b StringSet) float64 {
	if a.Len() == 0 || b.Len() == 0 {
		return 0
	}
	common := a.Intersect(b).Len()
	total := a.Union(b).Len()
	return round2(float64(common) / float64(total) * 100)
}

// OverlapByLargerSet divides the shared count by the size of the larger set
// instead of the union. Used for project types and for the skill coverage figure.
func OverlapByLargerSet(a, b StringSet) float64 {
	if a.Len() == 0 || b.Len() == 0 {
		return 0
	}
	larger := a.Len()
	if b.Len() > larger {
		larger = b.Len()
	}
	common := a.Intersect(b).Len()
	return round2(float64(common) / float64(larger) * 100)
}

// Complementary returns everything the two sets do not have in common.
func Complementary(a, b StringSet) StringSet {
	return a.Union(b).Difference(a.Intersect(b))
}
