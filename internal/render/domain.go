package render

// Priority is the closed set of task priorities an extracted task can carry.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// TaskStatus is the closed set of task statuses an extracted task can carry.
type TaskStatus string

const (
	TaskStatusToDo       TaskStatus = "ToDo"
	TaskStatusWorking    TaskStatus = "Working"
	TaskStatusInProgress TaskStatus = "InProgress"
	TaskStatusDone       TaskStatus = "Done"
)

// ExtractedTask is a candidate task pulled from a conversation by the
// extractor LLM call, shown in a preview before it is sent downstream.
type ExtractedTask struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Assignee    string     `json:"assignee,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      TaskStatus `json:"status"`
}

// Board is a cached Monday.com board reference, populated into a
// preview's edit modal without a live refetch.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserRef is a cached workspace user reference.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ActionItem is a single action item surfaced by the meeting-notes
// extractor.
type ActionItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Assignee    string   `json:"assignee,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	Deadline    string   `json:"deadline,omitempty"`
}

// MeetingAnalysis is the structured output of the meeting-notes LLM
// call, carried whole into a preview message's metadata.
type MeetingAnalysis struct {
	Summary         string       `json:"summary"`
	ActionItems     []ActionItem `json:"actionItems"`
	Decisions       []string     `json:"decisions"`
	SuggestedBoardID string      `json:"suggestedBoardId,omitempty"`
}
