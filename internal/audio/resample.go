package audio

import "math"

// ResampleLinear resamples mono float32 PCM from inRate to outRate using
// linear interpolation. Equal or invalid rates return a copy of samples.
func ResampleLinear(samples []float32, inRate, outRate int) []float32 {
	if inRate <= 0 || outRate <= 0 || inRate == outRate || len(samples) == 0 {
		return append([]float32(nil), samples...)
	}
	ratio := float64(outRate) / float64(inRate)
	outLen := max(1, int(float64(len(samples))*ratio))
	out := make([]float32, outLen)
	for i := range out {
		srcPos := float64(i) / ratio
		i0 := int(srcPos)
		if i0 >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(srcPos - float64(i0))
		s0, s1 := samples[i0], samples[i0+1]
		out[i] = s0 + (s1-s0)*frac
	}
	return out
}

// Normalize scales samples in place so the loudest one reaches peak.
// Silence is left alone.
func Normalize(samples []float32, peak float32) {
	var loudest float64
	for _, s := range samples {
		loudest = math.Max(loudest, math.Abs(float64(s)))
	}
	if loudest == 0 || peak <= 0 {
		return
	}
	gain := float32(float64(peak) / loudest)
	for i := range samples {
		samples[i] *= gain
	}
}
