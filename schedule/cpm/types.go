package cpm

// Result holds the complete critical path analysis of one project.
type Result struct {
	Nodes               []Node   `json:"nodes"` // topological order
	CriticalPathTaskIDs []string `json:"critical_path_task_ids"`
	CriticalTaskIDs     []string `json:"critical_task_ids"` // every zero-slack task, topological order
	ProjectDurationDays int      `json:"project_duration_days"`
	Waves               []Wave   `json:"waves"`

	index map[string]int
}

// Node holds the scheduling info for a single task, in day offsets from project start.
type Node struct {
	TaskID      string `json:"task_id"`
	Duration    int    `json:"duration"`
	EarlyStart  int    `json:"early_start"`
	EarlyFinish int    `json:"early_finish"`
	LateStart   int    `json:"late_start"`
	LateFinish  int    `json:"late_finish"`
	Slack       int    `json:"slack"`
	IsCritical  bool   `json:"is_critical"`
	Wave        int    `json:"wave"`

	Dependents []string `json:"dependents,omitempty"`
}

// Wave is a group of tasks sharing the same earliest start
type Wave struct {
	Index      int      `json:"index"`
	EarlyStart int      `json:"early_start"`
	TaskIDs    []string `json:"task_ids"`
	IsCritical bool     `json:"is_critical"` // true if the wave contains critical tasks
}

// Node returns the schedule for a task id
func (r *Result) Node(taskID string) (*Node, bool) {
	if r.index == nil {
		r.reindex()
	}
	i, ok := r.index[taskID]
	if !ok {
		return nil, false
	}
	return &r.Nodes[i], true
}

// IsCritical reports whether the task has zero slack
func (r *Result) IsCritical(taskID string) bool {
	n, ok := r.Node(taskID)
	return ok && n.IsCritical
}

func (r *Result) reindex() {
	r.index = make(map[string]int, len(r.Nodes))
	for i := range r.Nodes {
		r.index[r.Nodes[i].TaskID] = i
	}
}
