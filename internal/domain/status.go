package domain

// Category is the closed set of reachability classifications a status probe
// can produce. Callers branch on these, never on detail text.
type Category string

const (
	CategoryLive           Category = "live"
	CategoryRestricted     Category = "restricted"
	CategoryNotFound       Category = "not_found"
	CategoryUnknown        Category = "unknown"
	CategoryTransientError Category = "transient_error"
)

// StatusOutcome is the result of one resolution attempt. Produced fresh per
// request, never cached.
type StatusOutcome struct {
	Category Category
	Detail   string
	Subject  string
}
