package mixer

import "math"

// panTable holds the left and right gains of every pan position from MinPan
// to MaxPan. The gains follow a constant power law, cos for left and sin for
// right over a quarter turn, scaled so that the center is at unity gain on
// both sides. Hard left and hard right fully silence the opposite side.
var panTable [MaxPan - MinPan + 1][2]float32

func init() {
	for i := range panTable {
		theta := float64(i) / float64(len(panTable)-1) * math.Pi / 2
		panTable[i][0] = float32(math.Min(1, math.Sqrt2*math.Cos(theta)))
		panTable[i][1] = float32(math.Min(1, math.Sqrt2*math.Sin(theta)))
	}
	// exact zeros at the edges
	panTable[0][1] = 0
	panTable[len(panTable)-1][0] = 0
}

// PanGains returns the (left, right) gains for a pan value; out of range
// values are clamped. Left is the first sample of each interleaved output
// frame.
//
// The law is constant power scaled by √2 and clipped at unity: the center is
// (1, 1), and as the pan moves to one side the near channel stays at 1 while
// the far one fades out.
func PanGains(pan int8) (left, right float32) {
	p := min(max(int(pan), MinPan), MaxPan) - MinPan
	return panTable[p][0], panTable[p][1]
}
