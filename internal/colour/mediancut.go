// Package colour provides colour extraction and palette generation functionality.
package colour

import (
	"errors"
	"slices"
)

const (
	// MinColours is the smallest palette Quantize will produce when asked.
	MinColours = 3

	// MaxColours is the largest palette Quantize will produce, and the depth of
	// the reduction used to pick the dominant colour.
	MaxColours = 10

	// DefaultColours is the palette size used when none is requested.
	DefaultColours = 6
)

var (
	// ErrInsufficientData is returned when there are no pixels to quantize.
	ErrInsufficientData = errors.New("insufficient pixel data")

	// ErrDecode is returned when image pixels cannot be read.
	ErrDecode = errors.New("image pixels unreadable")
)

// ClampCount clamps a requested palette size to [MinColours, MaxColours].
func ClampCount(k int) int {
	return min(max(k, MinColours), MaxColours)
}

// histEntry is one distinct colour and the number of samples that had it.
type histEntry struct {
	rgb   RGB
	count uint64
}

// bucket is a contiguous run of histogram entries collapsed to one colour.
type bucket struct {
	entries    []histEntry
	population uint64
}

// histogram counts distinct colours, keeping them in first-seen order.
func histogram(samples PixelSample) []histEntry {
	index := make(map[RGB]int, len(samples))
	entries := make([]histEntry, 0, len(samples))
	for _, c := range samples {
		if i, ok := index[c]; ok {
			entries[i].count++
			continue
		}
		index[c] = len(entries)
		entries = append(entries, histEntry{rgb: c, count: 1})
	}
	return entries
}

func newBucket(entries []histEntry) bucket {
	b := bucket{entries: entries}
	for _, e := range entries {
		b.population += e.count
	}
	return b
}

func channel(c RGB, axis int) uint8 {
	switch axis {
	case 0:
		return c.R
	case 1:
		return c.G
	default:
		return c.B
	}
}

// widest returns the channel with the largest value range and that range.
// Ties go to the lowest channel index (R, then G, then B).
func (b bucket) widest() (axis int, span int) {
	lo := [3]uint8{255, 255, 255}
	hi := [3]uint8{}
	for _, e := range b.entries {
		for a := range 3 {
			v := channel(e.rgb, a)
			lo[a] = min(lo[a], v)
			hi[a] = max(hi[a], v)
		}
	}
	span = -1
	for a := range 3 {
		if d := int(hi[a]) - int(lo[a]); d > span {
			axis, span = a, d
		}
	}
	return axis, span
}

// split cuts the bucket at the population median along its widest channel.
// Both halves are non-empty; the caller guarantees at least two distinct colours.
func (b bucket) split() (bucket, bucket) {
	axis, _ := b.widest()
	sorted := slices.Clone(b.entries)
	slices.SortStableFunc(sorted, func(x, y histEntry) int {
		return int(channel(x.rgb, axis)) - int(channel(y.rgb, axis))
	})

	half := b.population / 2
	var counted uint64
	cut := 1
	for i, e := range sorted {
		counted += e.count
		if counted >= half {
			cut = i + 1
			break
		}
	}
	if cut >= len(sorted) {
		cut = len(sorted) - 1
	}
	return newBucket(sorted[:cut]), newBucket(sorted[cut:])
}

// mean returns the population-weighted average colour, rounded to nearest.
func (b bucket) mean() RGB {
	var r, g, bl uint64
	for _, e := range b.entries {
		r += uint64(e.rgb.R) * e.count
		g += uint64(e.rgb.G) * e.count
		bl += uint64(e.rgb.B) * e.count
	}
	p := b.population
	round := func(sum uint64) uint8 {
		return uint8(min((sum+p/2)/p, 255))
	}
	return RGB{R: round(r), G: round(g), B: round(bl)}
}

// medianCut reduces the histogram to at most k buckets and returns them
// ordered by descending population, ties in insertion order.
func medianCut(entries []histEntry, k int) []bucket {
	buckets := []bucket{newBucket(entries)}
	for len(buckets) < k {
		pick := -1
		var best uint64
		for i, b := range buckets {
			if len(b.entries) < 2 {
				continue
			}
			_, span := b.widest()
			score := b.population * uint64(span)
			if pick == -1 || score > best {
				pick, best = i, score
			}
		}
		if pick == -1 {
			break
		}
		left, right := buckets[pick].split()
		buckets[pick] = left
		buckets = append(buckets, right)
	}

	slices.SortStableFunc(buckets, func(x, y bucket) int {
		switch {
		case x.population > y.population:
			return -1
		case x.population < y.population:
			return 1
		}
		return 0
	})
	return buckets
}

// Dominant returns the most populous colour of the sample under the
// MaxColours reduction. Quantize uses it for every palette size, so the
// dominant colour does not depend on how many colours were requested.
func Dominant(samples PixelSample) (RGB, error) {
	if len(samples) == 0 {
		return RGB{}, ErrInsufficientData
	}
	return medianCut(histogram(samples), MaxColours)[0].mean(), nil
}

// Quantize reduces samples to at most k representative colours using median
// cut. k is clamped to [MinColours, MaxColours]. Fewer than k colours are
// returned when the sample does not have enough distinct colours.
func Quantize(samples PixelSample, k int) (*Palette, error) {
	if len(samples) == 0 {
		return nil, ErrInsufficientData
	}
	k = ClampCount(k)

	hist := histogram(samples)
	buckets := medianCut(hist, k)

	p := &Palette{
		Colours: make([]RGB, len(buckets)),
		Weights: make([]float64, len(buckets)),
	}
	total := float64(len(samples))
	for i, b := range buckets {
		p.Colours[i] = b.mean()
		p.Weights[i] = float64(b.population) / total
	}

	if k == MaxColours {
		p.Dominant = p.Colours[0]
	} else {
		p.Dominant = medianCut(hist, MaxColours)[0].mean()
	}
	return p, nil
}
