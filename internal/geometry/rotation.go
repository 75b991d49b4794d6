package geometry

// Rotation is an accumulated rotation in degrees. It is stored unbounded;
// consumers use Normalized.
type Rotation int

// Add returns the rotation advanced by delta degrees.
func (r Rotation) Add(delta int) Rotation { return r + Rotation(delta) }

// Normalized returns the effective angle in [0, 360).
func (r Rotation) Normalized() int {
	return ((int(r) % 360) + 360) % 360
}

// Validate rejects angles that are not quarter turns.
func (r Rotation) Validate() error {
	if int(r)%90 != 0 {
		return ErrUnsupportedRotation
	}
	return nil
}

// SwapsAxes reports whether the rotation is an odd multiple of 90 degrees,
// which exchanges output width and height.
func (r Rotation) SwapsAxes() bool {
	n := r.Normalized()
	return n == 90 || n == 270
}

// OutputSize returns the pixel dimensions of the rasterized crop of region
// under rotation r.
func OutputSize(region Region, r Rotation) (width, height int) {
	w, h := RoundPixels(region.Width), RoundPixels(region.Height)
	if r.SwapsAxes() {
		return h, w
	}
	return w, h
}

// QuarterTurn returns exact cosine and sine values for a normalized quarter-turn angle.
func QuarterTurn(degrees int) (cos, sin float64) {
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		return 0, 1
	case 180:
		return -1, 0
	case 270:
		return 0, -1
	default:
		return 1, 0
	}
}
