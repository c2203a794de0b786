package attendance

import (
	"time"

	"github.com/Haymar136/faceflow-student-hub/pkg/models"
)

func seedStudents() []models.Student {
	rows := []struct {
		id, name, class, registered string
	}{
		{"S12345", "Emma Johnson", "CS101", "2023-09-01"},
		{"S12346", "James Smith", "CS101", "2023-09-01"},
		{"S12347", "Sophia Williams", "CS101", "2023-09-02"},
		{"S12348", "Noah Brown", "CS202", "2023-09-02"},
		{"S12349", "Olivia Davis", "CS202", "2023-09-03"},
		{"S12350", "Ethan Wilson", "CS303", "2023-09-03"},
		{"S12351", "Ava Miller", "CS303", "2023-09-04"},
		{"S12352", "Liam Taylor", "CS101", "2023-09-04"},
		{"S12353", "Charlotte Anderson", "CS202", "2023-09-05"},
		{"S12354", "Mason Martinez", "CS303", "2023-09-05"},
		{"S12355", "Amelia Rodriguez", "CS101", "2023-09-06"},
		{"S12356", "Elijah Garcia", "CS202", "2023-09-06"},
	}

	students := make([]models.Student, 0, len(rows))
	for _, r := range rows {
		registered, _ := time.Parse(DateLayout, r.registered)
		students = append(students, models.Student{
			ID:             r.id,
			Name:           r.name,
			StudentID:      r.id,
			Class:          r.class,
			RegisteredDate: registered,
		})
	}
	return students
}

// demoRecords is shown for dates without any recognition.
func demoRecords() []models.AttendanceRecord {
	return []models.AttendanceRecord{
		{ID: "1", StudentID: "S12345", Name: "Emma Johnson", Class: "CS101", Time: "09:15:23"},
		{ID: "2", StudentID: "S12346", Name: "James Smith", Class: "CS101", Time: "09:17:45"},
		{ID: "3", StudentID: "S12347", Name: "Sophia Williams", Class: "CS101", Time: "09:20:12"},
	}
}
