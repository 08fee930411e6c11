// Package domain contains the core data structures for the application,
// independent of the database or API layers.
package domain

// Todo is a single task owned by one user.
// (UserID, TodoID) is the only addressing key.
type Todo struct {
	UserID        string  `json:"userId,omitempty"`
	TodoID        string  `json:"todoId"`
	CreatedAt     string  `json:"createdAt"`
	Name          string  `json:"name"`
	DueDate       string  `json:"dueDate"`
	Done          bool    `json:"done"`
	AttachmentURL *string `json:"attachmentUrl"`
}

// TodoUpdate carries the fields a caller may change on an existing todo.
// Nil fields are left as stored.
type TodoUpdate struct {
	Name    *string
	DueDate *string
	Done    *bool
}

// IsEmpty reports whether the update changes nothing.
func (u TodoUpdate) IsEmpty() bool {
	return u.Name == nil && u.DueDate == nil && u.Done == nil
}
