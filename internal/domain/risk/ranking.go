package risk

import "sort"

// Rank orders rows by risk, absent streak, recent absent rate and total
// records, all descending. Remaining ties keep (student, course) ascending.
func Rank(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.RiskAbsentNext != b.RiskAbsentNext {
			return a.RiskAbsentNext > b.RiskAbsentNext
		}
		if a.AbsentStreak != b.AbsentStreak {
			return a.AbsentStreak > b.AbsentStreak
		}
		if a.RecentAbsentRate != b.RecentAbsentRate {
			return a.RecentAbsentRate > b.RecentAbsentRate
		}
		if a.TotalRecords != b.TotalRecords {
			return a.TotalRecords > b.TotalRecords
		}
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		return a.CourseID < b.CourseID
	})
}
