package model

import (
	"sort"
	"time"
)

// Subtask is a checklist entry nested inside a task. Subtasks live with
// their parent task, never as records of their own.
type Subtask struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	IsDone  bool    `json:"is_done"`
	DueDate *string `json:"dueDate,omitempty"`
}

// Task represents a single item in the planner.
type Task struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title"`
	IsDone    bool      `json:"is_done" gorm:"default:false"`
	GroupID   string    `json:"groupId" gorm:"column:group_id;index"`
	Subtasks  []Subtask `json:"subtasks" gorm:"serializer:json;type:text"`
	DueDate   *string   `json:"dueDate" gorm:"column:due_date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

// SortTasks orders tasks the way every backend lists them: open tasks
// before completed ones, newest first within each partition.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].IsDone != tasks[j].IsDone {
			return !tasks[i].IsDone
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}
