// Package crew assembles a meeting's personas into a hierarchical group of
// agents that produces one collaborative answer per turn.
package crew

import (
	"fmt"
	"time"
)

// ProcessType defines how a crew works through its tasks.
type ProcessType string

const (
	// ProcessHierarchical routes every task through a coordinating manager
	// that delegates to member agents.
	ProcessHierarchical ProcessType = "hierarchical"
)

// Agent is one crew member, derived from a persona. Backstory is the short
// collaboration framing, not the persona's full system prompt.
type Agent struct {
	Role            string `json:"role"`
	Goal            string `json:"goal"`
	Backstory       string `json:"backstory,omitempty"`
	Backend         string `json:"backend"` // "<provider>/<model>"
	AllowDelegation bool   `json:"allow_delegation"`
}

// Task is one unit of work handed to a crew: the meeting's standing framing
// as instructions plus an expected-output contract bounding the answer.
type Task struct {
	Description    string `json:"description"`
	ExpectedOutput string `json:"expected_output"`
	Markdown       bool   `json:"markdown"`
}

// Crew is a group of agents wired for one collaborative turn. A crew holds
// zero tasks at assembly time; tasks are attached just before execution, so
// the struct is reusable in concept but constructed fresh per turn here.
type Crew struct {
	ID             string      `json:"id"`
	Agents         []Agent     `json:"agents"`
	Tasks          []Task      `json:"tasks"`
	Process        ProcessType `json:"process"`
	ManagerBackend string      `json:"manager_backend"`
	Verbose        bool        `json:"verbose"`
}

// AddTask attaches a task to the crew.
func (c *Crew) AddTask(task Task) {
	c.Tasks = append(c.Tasks, task)
}

func generateCrewID() string {
	return fmt.Sprintf("crew_%d", time.Now().UnixNano())
}
