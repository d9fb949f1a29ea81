package brightness

import (
	"math"

	"github.com/ironsheep/brightness-tools-mcp/internal/imaging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// maxCosine keeps -ln(1-cos) finite for identical vectors.
const maxCosine = 0.999999

// MaxSimilarity is the largest value Compare can return (about 13.8155).
var MaxSimilarity = -math.Log(1.0 - maxCosine)

// ColorVector is the L2-normalized concatenation of the three channel means
// and the three channel standard deviations of an image region.
type ColorVector [6]float64

func newColorVector(mu, std [3]float64) (ColorVector, bool) {
	v := ColorVector{mu[0], mu[1], mu[2], std[0], std[1], std[2]}
	n := floats.Norm(v[:], 2)
	if n == 0 || !finite(n) {
		return ColorVector{}, false
	}
	floats.Scale(1/n, v[:])
	return v, true
}

// ColorVectorOf computes the colour vector of a whole 3-channel raster with
// direct population mean and standard deviation. ok is false for an all-black
// image, whose vector has zero norm.
func ColorVectorOf(r *imaging.Raster) (v ColorVector, ok bool) {
	n := r.Width * r.Height
	channel := make([]float64, n)
	var mu, std [3]float64
	for c := 0; c < 3; c++ {
		for i := 0; i < n; i++ {
			channel[i] = float64(r.Pix[i*3+c])
		}
		mu[c], std[c] = stat.PopMeanStdDev(channel, nil)
	}
	return newColorVector(mu, std)
}

// Compare scores how alike two colour vectors are.
//
// distance is the Euclidean norm of b-a. similarity is -ln(1 - cos) with the
// cosine clipped at 0.999999, so identical vectors score MaxSimilarity and
// larger values always mean "more alike".
func Compare(a, b ColorVector) (similarity, distance float64) {
	distance = floats.Distance(b[:], a[:], 2)
	cosine := math.Min(floats.Dot(a[:], b[:]), maxCosine)
	return -math.Log(1.0 - cosine), distance
}
