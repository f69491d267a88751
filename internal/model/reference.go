package model

// Status slugs that business rules depend on
const (
	StatusToDo       = "to_do"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// TaskStatus is a board column / workflow state
type TaskStatus struct {
	ID    string `gorm:"primaryKey" json:"id"`
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Order int    `gorm:"column:sort_order" json:"order"`
}

func (TaskStatus) TableName() string { return "task_statuses" }

// TaskPriority is a priority level
type TaskPriority struct {
	ID    string `gorm:"primaryKey" json:"id"`
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Order int    `gorm:"column:sort_order" json:"order"`
}

func (TaskPriority) TableName() string { return "task_priorities" }

// DefaultStatuses returns the statuses seeded into an empty database
func DefaultStatuses() []TaskStatus {
	return []TaskStatus{
		{Slug: StatusToDo, Name: "To Do", Color: "blue", Order: 1},
		{Slug: StatusInProgress, Name: "In Progress", Color: "yellow", Order: 2},
		{Slug: StatusCompleted, Name: "Completed", Color: "green", Order: 3},
		{Slug: StatusCancelled, Name: "Cancelled", Color: "red", Order: 4},
	}
}

// DefaultPriorities returns the priorities seeded into an empty database
func DefaultPriorities() []TaskPriority {
	return []TaskPriority{
		{Slug: "low", Name: "Low", Color: "green", Order: 1},
		{Slug: "medium", Name: "Medium", Color: "yellow", Order: 2},
		{Slug: "high", Name: "High", Color: "orange", Order: 3},
		{Slug: "critical", Name: "Critical", Color: "red", Order: 4},
	}
}
