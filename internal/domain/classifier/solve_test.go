package classifier

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSolve(t *testing.T) {
	Convey("Given a small linear system", t, func() {
		A := [][]float64{{0, 2, 1}, {1, 1, 1}, {2, 1, 0}}
		b := []float64{7, 6, 4}

		Convey("Then pivoting finds the solution", func() {
			x, err := solve(A, b)
			So(err, ShouldBeNil)
			So(x[0], ShouldAlmostEqual, 1, 1e-9)
			So(x[1], ShouldAlmostEqual, 2, 1e-9)
			So(x[2], ShouldAlmostEqual, 3, 1e-9)
		})

		Convey("And the inputs are not modified", func() {
			_, _ = solve(A, b)
			So(A[0][0], ShouldEqual, 0)
			So(b[0], ShouldEqual, 7)
		})
	})

	Convey("Given a singular system", t, func() {
		_, err := solve([][]float64{{1, 2}, {2, 4}}, []float64{1, 2})

		Convey("Then it reports divergence", func() {
			So(errors.Is(err, ErrDiverged), ShouldBeTrue)
		})
	})
}

func TestStandardizer(t *testing.T) {
	Convey("Given a constant column", t, func() {
		mean, scale := standardizer([][]float64{{1, 3}, {1, 5}}, 2)

		Convey("Then its scale falls back to one", func() {
			So(mean, ShouldResemble, []float64{1, 4})
			So(scale[0], ShouldEqual, 1)
			So(scale[1], ShouldEqual, 1)
		})
	})
}
