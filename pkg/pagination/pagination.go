package pagination

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Skip  int
	Limit int
}

// Normalize clamps the params against the provided ceiling. A non-positive
// or over-ceiling limit falls back to the ceiling; a negative skip becomes 0.
func Normalize(p Params, maxLimit int) Params {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 || p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}
