package lut

// Swap tracks a front/back pair of GPU lookup textures. The front texture
// is what the shader samples; uploads go to the back texture, which becomes
// the front only when the upload succeeds.
//
// The back texture holds the table published before the front one, so an
// upload must cover the rows that changed in the last two publications plus
// anything left stale by a failed upload.
type Swap struct {
	dim   int
	front int
	last  RowRange // rows changed by the publication now on the front
	stale RowRange // rows of the back texture known to be wrong
}

// NewSwap returns bookkeeping for two textures that start equal.
func NewSwap(dim int) *Swap {
	return &Swap{dim: dim, last: NoRows, stale: NoRows}
}

// Front returns the index of the texture to sample.
func (s *Swap) Front() int { return s.front }

// Back returns the index of the texture to upload into.
func (s *Swap) Back() int { return 1 - s.front }

// Plan returns the rows to write into the back texture for a table whose
// rows differ from the front table.
func (s *Swap) Plan(rows RowRange) RowRange {
	return rows.Union(s.last).Union(s.stale)
}

// Done records a successful upload of a table with rows changed and swaps.
func (s *Swap) Done(rows RowRange) {
	s.front = s.Back()
	s.last = rows
	s.stale = NoRows
}

// Fail records a failed upload. The back texture is rewritten in full next time.
func (s *Swap) Fail() {
	s.stale = AllRows(s.dim)
}
