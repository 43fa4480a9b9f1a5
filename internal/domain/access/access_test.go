package access_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/rollcall/internal/domain/access"
	. "github.com/smartystreets/goconvey/convey"
)

func id64(v int64) *int64 { return &v }

func date(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, s)
	So(err, ShouldBeNil)
	return &t
}

func TestResolveRole(t *testing.T) {
	Convey("Given identities with conflicting role hints", t, func() {
		Convey("Then a valid profile role wins", func() {
			So(access.ResolveRole(access.Identity{ProfileRole: " Teacher ", ClaimRole: "admin", IsSuperuser: true}),
				ShouldEqual, access.RoleTeacher)
		})

		Convey("And an invalid profile role defers to the claim", func() {
			So(access.ResolveRole(access.Identity{ProfileRole: "janitor", ClaimRole: "ADMIN"}),
				ShouldEqual, access.RoleAdmin)
		})

		Convey("And superusers without a valid role are admins", func() {
			So(access.ResolveRole(access.Identity{ClaimRole: "root", IsSuperuser: true}), ShouldEqual, access.RoleAdmin)
		})

		Convey("And everyone else is a student", func() {
			So(access.ResolveRole(access.Identity{}), ShouldEqual, access.RoleStudent)
		})
	})

	Convey("Given role names", t, func() {
		Convey("Then only admin and teacher are elevated", func() {
			So(access.RoleAdmin.Elevated(), ShouldBeTrue)
			So(access.RoleTeacher.Elevated(), ShouldBeTrue)
			So(access.RoleStudent.Elevated(), ShouldBeFalse)
		})

		Convey("And parsing rejects unknown names", func() {
			_, ok := access.ParseRole("guest")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestResolveVisibility(t *testing.T) {
	Convey("Given requested visibilities", t, func() {
		Convey("Then unknown values parse as auto", func() {
			So(access.ParseVisibility(""), ShouldEqual, access.VisibilityAuto)
			So(access.ParseVisibility("everyone"), ShouldEqual, access.VisibilityAuto)
			So(access.ParseVisibility(" OVERALL "), ShouldEqual, access.VisibilityOverall)
		})

		Convey("And auto follows the role", func() {
			So(access.ResolveVisibility(access.RoleAdmin, access.VisibilityAuto), ShouldEqual, access.VisibilityOverall)
			So(access.ResolveVisibility(access.RoleTeacher, access.VisibilityAuto), ShouldEqual, access.VisibilityOverall)
			So(access.ResolveVisibility(access.RoleStudent, access.VisibilityAuto), ShouldEqual, access.VisibilityPersonal)
		})

		Convey("And elevated roles may narrow to personal", func() {
			So(access.ResolveVisibility(access.RoleTeacher, access.VisibilityPersonal), ShouldEqual, access.VisibilityPersonal)
		})

		Convey("And students can never see overall", func() {
			So(access.ResolveVisibility(access.RoleStudent, access.VisibilityOverall), ShouldEqual, access.VisibilityPersonal)
		})
	})
}

func TestResolve(t *testing.T) {
	Convey("Given a teacher owning courses 1 and 2", t, func() {
		teacher := access.Principal{UserID: 10, Role: access.RoleTeacher}
		owned := []int64{1, 2}

		Convey("When no course is requested", func() {
			s, err := access.Resolve(teacher, access.Request{}, owned)
			So(err, ShouldBeNil)

			Convey("Then every owned course is in scope", func() {
				So(s.CourseIDs, ShouldResemble, []int64{1, 2})
				So(s.Visibility, ShouldEqual, access.VisibilityOverall)
				So(s.Filter.StudentID, ShouldBeNil)
				So(*s.Filter.TeacherID, ShouldEqual, 10)
			})
		})

		Convey("When an owned course is requested", func() {
			s, err := access.Resolve(teacher, access.Request{CourseID: id64(2)}, owned)
			So(err, ShouldBeNil)
			So(s.CourseIDs, ShouldResemble, []int64{2})
		})

		Convey("When another teacher's course is requested", func() {
			_, err := access.Resolve(teacher, access.Request{CourseID: id64(3)}, owned)

			Convey("Then access is denied", func() {
				So(errors.Is(err, access.ErrAccessDenied), ShouldBeTrue)
			})
		})

		Convey("When the teacher owns nothing", func() {
			s, err := access.Resolve(teacher, access.Request{}, nil)

			Convey("Then the scope is empty", func() {
				So(err, ShouldBeNil)
				So(s.Empty(), ShouldBeTrue)
				So(s.Filter.MatchesCourse(1), ShouldBeFalse)
			})
		})

		Convey("When a personal view is requested", func() {
			s, err := access.Resolve(teacher, access.Request{Visibility: access.VisibilityPersonal}, owned)
			So(err, ShouldBeNil)
			So(*s.Filter.StudentID, ShouldEqual, 10)
		})
	})

	Convey("Given an admin", t, func() {
		admin := access.Principal{UserID: 1, Role: access.RoleAdmin}

		Convey("When requesting a course that does not exist", func() {
			s, err := access.Resolve(admin, access.Request{CourseID: id64(99)}, []int64{1, 2})

			Convey("Then the scope is empty without error", func() {
				So(err, ShouldBeNil)
				So(s.Empty(), ShouldBeTrue)
			})
		})
	})

	Convey("Given a student asking for overall data", t, func() {
		student := access.Principal{UserID: 5, Role: access.RoleStudent}
		s, err := access.Resolve(student, access.Request{Visibility: access.VisibilityOverall}, []int64{1, 2, 3})
		So(err, ShouldBeNil)

		Convey("Then the filter is narrowed to their own rows", func() {
			So(s.Visibility, ShouldEqual, access.VisibilityPersonal)
			So(*s.Filter.StudentID, ShouldEqual, 5)
			So(s.Filter.MatchesStudent(5), ShouldBeTrue)
			So(s.Filter.MatchesStudent(6), ShouldBeFalse)
			So(s.Filter.TeacherID, ShouldBeNil)
		})
	})

	Convey("Given a date range", t, func() {
		admin := access.Principal{UserID: 1, Role: access.RoleAdmin}

		Convey("When from is after to", func() {
			_, err := access.Resolve(admin, access.Request{From: date("2024-10-02"), To: date("2024-10-01")}, []int64{1})
			So(errors.Is(err, access.ErrInvalidDateRange), ShouldBeTrue)
		})

		Convey("When the range is valid", func() {
			s, err := access.Resolve(admin, access.Request{From: date("2024-10-01"), To: date("2024-10-31")}, []int64{1})
			So(err, ShouldBeNil)

			Convey("Then both ends are inclusive", func() {
				So(s.Filter.MatchesDate(*date("2024-10-01")), ShouldBeTrue)
				So(s.Filter.MatchesDate(*date("2024-10-31")), ShouldBeTrue)
				So(s.Filter.MatchesDate(*date("2024-11-01")), ShouldBeFalse)
				So(s.Filter.MatchesDate(*date("2024-09-30")), ShouldBeFalse)
			})
		})
	})

	Convey("Given a zero filter", t, func() {
		var f access.Filter

		Convey("Then it matches everything", func() {
			So(f.MatchesCourse(7), ShouldBeTrue)
			So(f.MatchesStudent(7), ShouldBeTrue)
			So(f.MatchesDate(time.Now()), ShouldBeTrue)
		})
	})
}
