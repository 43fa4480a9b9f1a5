package features_test

import (
	"testing"

	"github.com/okian/rollcall/internal/domain/features"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExtract(t *testing.T) {
	Convey("Given a window and a history", t, func() {
		window := []string{"late", "absent", "absent"}
		history := []string{"present", "excused", "present", "late", "absent", "absent"}

		Convey("When extracting features", func() {
			v := features.Extract(window, history)

			Convey("Then window rates use the window length", func() {
				So(v[features.IdxRecentAbsentRate], ShouldAlmostEqual, 2.0/3.0)
				So(v[features.IdxRecentLateRate], ShouldAlmostEqual, 1.0/3.0)
				So(v[features.IdxRecentExcusedRate], ShouldEqual, 0)
			})

			Convey("And the streak counts trailing absences", func() {
				So(v[features.IdxAbsentStreak], ShouldEqual, 2)
			})

			Convey("And history rates use the history length", func() {
				So(v[features.IdxOverallAbsentRate], ShouldAlmostEqual, 2.0/6.0)
				So(v[features.IdxOverallLateRate], ShouldAlmostEqual, 1.0/6.0)
				So(v[features.IdxOverallExcusedRate], ShouldAlmostEqual, 1.0/6.0)
			})

			Convey("And lengths are raw counts", func() {
				So(v[features.IdxHistoryLen], ShouldEqual, 6)
				So(v[features.IdxWindowLen], ShouldEqual, 3)
			})
		})

		Convey("When extracting twice", func() {
			Convey("Then the vectors are identical", func() {
				So(features.Extract(window, history), ShouldResemble, features.Extract(window, history))
			})
		})
	})

	Convey("Given mixed-case and padded statuses", t, func() {
		v := features.Extract([]string{" ABSENT", "Absent "}, []string{"ABSENT", "absent"})

		Convey("Then they are compared case-insensitively", func() {
			So(v[features.IdxRecentAbsentRate], ShouldEqual, 1)
			So(v[features.IdxAbsentStreak], ShouldEqual, 2)
			So(v[features.IdxOverallAbsentRate], ShouldEqual, 1)
		})
	})

	Convey("Given empty sequences", t, func() {
		v := features.Extract(nil, nil)

		Convey("Then no division by zero happens", func() {
			for _, x := range v {
				So(x, ShouldEqual, 0)
			}
		})
	})

	Convey("Given a window with empty entries", t, func() {
		v := features.Extract([]string{"absent", "", "absent"}, []string{"absent", "", "absent"})

		Convey("Then empty entries are excluded from rates", func() {
			So(v[features.IdxRecentAbsentRate], ShouldEqual, 1)
			So(v[features.IdxOverallAbsentRate], ShouldEqual, 1)
			So(v[features.IdxAbsentStreak], ShouldEqual, 2)
		})

		Convey("And raw lengths still count them", func() {
			So(v[features.IdxWindowLen], ShouldEqual, 3)
			So(v[features.IdxHistoryLen], ShouldEqual, 3)
		})
	})
}

func TestAbsentStreak(t *testing.T) {
	Convey("Given sequences ending in n absences", t, func() {
		cases := []struct {
			in   []string
			want int
		}{
			{[]string{"present", "absent", "absent", "absent"}, 3},
			{[]string{"absent", "present"}, 0},
			{[]string{"absent"}, 1},
			{[]string{"absent", "late", "absent"}, 1},
			{nil, 0},
		}

		Convey("Then the streak equals n", func() {
			for _, c := range cases {
				So(features.AbsentStreak(c.in), ShouldEqual, c.want)
			}
		})
	})

	Convey("Given a window cut from a longer series", t, func() {
		series := []string{"present", "present", "absent", " ", "absent", "absent"}
		window := series[len(series)-3:]
		v := features.Extract(window, series)

		Convey("Then blanks are skipped and the vector slot matches the streak", func() {
			So(features.AbsentStreak(series), ShouldEqual, 3)
			So(features.AbsentStreak(window), ShouldEqual, 2)
			So(v[features.IdxAbsentStreak], ShouldEqual, 2)
			So(v[features.IdxRecentAbsentRate], ShouldEqual, 1.0)
			So(v[features.IdxWindowLen], ShouldEqual, 3)
		})
	})
}

func TestNames(t *testing.T) {
	Convey("Given the feature names", t, func() {
		names := features.Names()

		Convey("Then they match the vector arity and order", func() {
			So(len(names), ShouldEqual, features.Arity)
			So(names[features.IdxRecentAbsentRate], ShouldEqual, "recent_absent_rate")
			So(names[features.IdxAbsentStreak], ShouldEqual, "absent_streak")
			So(names[features.IdxWindowLen], ShouldEqual, "window_len")
		})

		Convey("And callers cannot mutate the shared list", func() {
			names[0] = "changed"
			So(features.Names()[0], ShouldEqual, "recent_absent_rate")
		})
	})
}
