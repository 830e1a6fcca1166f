package audio

import "math"

// TargetSampleRate is the rate speech recognizers expect.
const TargetSampleRate = 16000

// Resample converts samples from srcRate to dstRate by linear interpolation
// between the floor and ceiling source neighbours. Positions whose ceiling
// falls past the input are clamped to the last sample.
func Resample(input []float32, srcRate, dstRate int) []float32 {
	if len(input) == 0 || srcRate <= 0 || dstRate <= 0 {
		return nil
	}

	ratio := float64(dstRate) / float64(srcRate)
	outLen := int(float64(len(input)) * ratio)
	output := make([]float32, outLen)
	last := input[len(input)-1]

	for i := range output {
		pos := float64(i) / ratio
		lo := int(math.Floor(pos))
		hi := int(math.Ceil(pos))
		if hi >= len(input) {
			output[i] = last
			continue
		}
		t := float32(pos - float64(lo))
		output[i] = input[lo]*(1-t) + input[hi]*t
	}

	return output
}

// ChannelsToMono averages each interleaved frame into a single sample.
// It panics when channels is not positive or len(input) is not a multiple
// of channels; callers own that precondition.
func ChannelsToMono(input []float32, channels int) []float32 {
	if channels <= 0 {
		panic("audio: channel count must be positive")
	}
	if len(input)%channels != 0 {
		panic("audio: sample count must be a multiple of the channel count")
	}
	if channels == 1 {
		return append([]float32(nil), input...)
	}

	frames := len(input) / channels
	mono := make([]float32, frames)
	for f := 0; f < frames; f++ {
		var sum float32
		for _, s := range input[f*channels : (f+1)*channels] {
			sum += s
		}
		mono[f] = sum / float32(channels)
	}
	return mono
}

// ToMono applies Resample on the interleaved stream, then ChannelsToMono,
// dropping a trailing partial frame the rate conversion may leave behind.
func ToMono(input []float32, srcRate, dstRate, channels int) []float32 {
	if channels <= 0 {
		channels = 1
	}
	resampled := Resample(input, srcRate, dstRate)
	whole := len(resampled) - len(resampled)%channels
	return ChannelsToMono(resampled[:whole], channels)
}
