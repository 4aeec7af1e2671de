package fbo

import "fmt"

// Format is the pixel format of an FBO's colour attachment.
type Format int

// List of valid Format values.
const (
	RGBA8 Format = iota
	RGBA16F
	RGBA32F
)

func (f Format) String() string {
	switch f {
	case RGBA8:
		return "rgba8"
	case RGBA16F:
		return "rgba16f"
	case RGBA32F:
		return "rgba32f"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFormat is the inverse of Format.String().
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "rgba8":
		return RGBA8, nil
	case "rgba16f":
		return RGBA16F, nil
	case "rgba32f":
		return RGBA32F, nil
	}
	return RGBA8, fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, s)
}

// Scale is the dimension policy of a Config. Fixed configs carry explicit
// dimensions; every other value divides the manager's base dimensions.
type Scale int

// List of valid Scale values. The value of each scaled policy is its divisor.
const (
	Fixed             Scale = 0
	FullScale         Scale = 1
	HalfScale         Scale = 2
	QuarterScale      Scale = 4
	EighthScale       Scale = 8
	SixteenthScale    Scale = 16
	ThirtySecondScale Scale = 32
)

func (s Scale) String() string {
	switch s {
	case Fixed:
		return "fixed"
	case FullScale:
		return "full"
	case HalfScale:
		return "half"
	case QuarterScale:
		return "quarter"
	case EighthScale:
		return "eighth"
	case SixteenthScale:
		return "sixteenth"
	case ThirtySecondScale:
		return "thirtysecond"
	}
	return fmt.Sprintf("scale(%d)", int(s))
}

// ParseScale is the inverse of Scale.String().
func ParseScale(s string) (Scale, error) {
	for _, v := range []Scale{Fixed, FullScale, HalfScale, QuarterScale, EighthScale, SixteenthScale, ThirtySecondScale} {
		if v.String() == s {
			return v, nil
		}
	}
	if s == "" {
		return Fixed, nil
	}
	return Fixed, fmt.Errorf("%w: unknown scale %q", ErrInvalidConfig, s)
}

// Half returns the next smaller scale. ThirtySecondScale and Fixed have no
// smaller scale and return false.
func (s Scale) Half() (Scale, bool) {
	if s == Fixed || s >= ThirtySecondScale {
		return s, false
	}
	return s * 2, true
}

func (s Scale) valid() bool {
	switch s {
	case Fixed, FullScale, HalfScale, QuarterScale, EighthScale, SixteenthScale, ThirtySecondScale:
		return true
	}
	return false
}

// Dimensions of an FBO in pixels.
type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Valid returns true if both dimensions are positive.
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// Divide returns the dimensions divided by n. Neither dimension is allowed
// to fall below one pixel.
func (d Dimensions) Divide(n int) Dimensions {
	if n <= 1 {
		return d
	}
	return Dimensions{Width: max(1, d.Width/n), Height: max(1, d.Height/n)}
}

// Config describes an FBO. The name is the identity of the FBO within its
// manager and the remaining fields are its shape. Config values are compared
// with == so every field must stay comparable.
type Config struct {
	Name string

	// Width and Height are only used when Scale is Fixed
	Width  int
	Height int

	Scale  Scale
	Format Format

	// allocate a depth attachment alongside the colour attachment
	Depth bool
}

// NewConfig returns a Fixed config of the given size.
func NewConfig(name string, width int, height int, format Format) Config {
	return Config{Name: name, Width: width, Height: height, Format: format}
}

// NewScaledConfig returns a config whose dimensions follow the manager's base
// dimensions.
func NewScaledConfig(name string, scale Scale, format Format) Config {
	return Config{Name: name, Scale: scale, Format: format}
}

func (c Config) String() string {
	if c.Scale == Fixed {
		return fmt.Sprintf("%s (%dx%d %s)", c.Name, c.Width, c.Height, c.Format)
	}
	return fmt.Sprintf("%s (%s %s)", c.Name, c.Scale, c.Format)
}

// Validate checks that the config can be allocated.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidConfig)
	}
	if !c.Scale.valid() {
		return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, c.Name, c.Scale)
	}
	if c.Scale == Fixed && (c.Width <= 0 || c.Height <= 0) {
		return fmt.Errorf("%w: %s: dimensions %dx%d", ErrInvalidConfig, c.Name, c.Width, c.Height)
	}
	switch c.Format {
	case RGBA8, RGBA16F, RGBA32F:
	default:
		return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, c.Name, c.Format)
	}
	return nil
}

// Dimensions resolves the config against the base dimensions of a manager.
func (c Config) Dimensions(base Dimensions) Dimensions {
	if c.Scale == Fixed {
		return Dimensions{Width: c.Width, Height: c.Height}
	}
	return base.Divide(int(c.Scale))
}
