package features

// Pivot is a local extremum in a price series.
type Pivot struct {
	Index int
	Value float64
}

// FindPeaks returns local maxima that stand above every neighbour within
// minDistance bars and above the series mean by the significance factor.
func FindPeaks(data []float64, minDistance int, significance float64) []Pivot {
	return findExtrema(data, minDistance, significance, true)
}

// FindTroughs returns local minima below every neighbour within
// minDistance bars and below the series mean by the significance factor.
func FindTroughs(data []float64, minDistance int, significance float64) []Pivot {
	return findExtrema(data, minDistance, significance, false)
}

func findExtrema(data []float64, minDistance int, significance float64, peaks bool) []Pivot {
	if minDistance < 1 {
		minDistance = 1
	}
	if len(data) < 2*minDistance+1 {
		return nil
	}
	mean := Mean(data)
	var out []Pivot
	for i := minDistance; i < len(data)-minDistance; i++ {
		ok := true
		for j := i - minDistance; j <= i+minDistance; j++ {
			if j == i {
				continue
			}
			if peaks && data[i] < data[j] {
				ok = false
				break
			}
			if !peaks && data[i] > data[j] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		if peaks && data[i] <= mean*(1+significance) {
			continue
		}
		if !peaks && data[i] >= mean*(1-significance) {
			continue
		}
		out = append(out, Pivot{Index: i, Value: data[i]})
	}
	return out
}
