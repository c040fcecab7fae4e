package wire

import (
	"fmt"
	"math"
	"strings"
)

// Fixed is a signed 16.16 fixed-point number, the FP1616 type used by
// several X extensions.
type Fixed int32

func FixedInt(v int) Fixed {
	return Fixed(v << 16)
}

func FixedFloat(v float64) Fixed {
	return Fixed(math.Round(v * 65536))
}

func (f Fixed) Int() int {
	return int(f >> 16)
}

// Frac returns the fractional part in units of 1/65536.
func (f Fixed) Frac() int {
	return int(uint32(f) & 0xFFFF)
}

func (f Fixed) Float() float64 {
	return float64(f) / 65536
}

func (f Fixed) String() string {
	var sb strings.Builder
	fmt.Fprint(&sb, f.Int())
	if frac := f.Frac(); frac != 0 {
		fmt.Fprintf(&sb, "+%d/65536", frac)
	}
	return sb.String()
}
