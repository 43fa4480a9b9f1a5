package attendance_test

import (
	"testing"
	"time"

	"github.com/okian/rollcall/internal/domain/attendance"
	. "github.com/smartystreets/goconvey/convey"
)

func day(n int) time.Time {
	return time.Date(2024, time.September, n, 0, 0, 0, 0, time.UTC)
}

func TestNormalize(t *testing.T) {
	Convey("Given raw status values", t, func() {
		Convey("Then case and surrounding whitespace are ignored", func() {
			So(attendance.Normalize("  ABSENT "), ShouldEqual, "absent")
			So(attendance.Normalize("Late"), ShouldEqual, "late")
			So(attendance.Normalize("   "), ShouldEqual, "")
		})

		Convey("And Status.Is compares after normalization", func() {
			So(attendance.Absent.Is(" Absent"), ShouldBeTrue)
			So(attendance.Absent.Is("present"), ShouldBeFalse)
		})
	})
}

func TestGroupSeries(t *testing.T) {
	Convey("Given unordered attendance rows for two students", t, func() {
		records := []attendance.Record{
			{StudentID: 2, CourseID: 10, LessonID: 3, LessonDate: day(3), Status: "absent"},
			{StudentID: 1, CourseID: 10, LessonID: 2, LessonDate: day(2), Status: "LATE"},
			{StudentID: 1, CourseID: 10, LessonID: 1, LessonDate: day(1), Status: "present"},
			{StudentID: 1, CourseID: 11, LessonID: 7, LessonDate: day(1), Status: "excused"},
			{StudentID: 2, CourseID: 10, LessonID: 1, LessonDate: day(1), Status: " "},
			{StudentID: 2, CourseID: 10, LessonID: 2, LessonDate: day(2), Status: "present"},
		}

		Convey("When grouping into series", func() {
			series := attendance.GroupSeries(records)

			Convey("Then series are ordered by student then course", func() {
				So(len(series), ShouldEqual, 3)
				So(series[0].Key(), ShouldResemble, attendance.Key{StudentID: 1, CourseID: 10})
				So(series[1].Key(), ShouldResemble, attendance.Key{StudentID: 1, CourseID: 11})
				So(series[2].Key(), ShouldResemble, attendance.Key{StudentID: 2, CourseID: 10})
			})

			Convey("And statuses are chronological and normalized", func() {
				So(series[0].Statuses, ShouldResemble, []string{"present", "late"})
				So(series[1].Statuses, ShouldResemble, []string{"excused"})
			})

			Convey("And empty statuses leave no gap", func() {
				So(series[2].Statuses, ShouldResemble, []string{"present", "absent"})
				So(series[2].Len(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given rows on the same date", t, func() {
		records := []attendance.Record{
			{StudentID: 1, CourseID: 1, LessonID: 9, LessonDate: day(5), Status: "absent"},
			{StudentID: 1, CourseID: 1, LessonID: 4, LessonDate: day(5), Status: "present"},
		}

		Convey("Then lesson id breaks the tie", func() {
			series := attendance.GroupSeries(records)
			So(series[0].Statuses, ShouldResemble, []string{"present", "absent"})
		})
	})

	Convey("Given no rows", t, func() {
		Convey("Then no series are produced", func() {
			So(attendance.GroupSeries(nil), ShouldBeEmpty)
		})
	})
}
