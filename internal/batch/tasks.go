// Package batch runs a list of design tasks through the generation pipeline.
package batch

import (
	"regexp"
	"slices"
	"strings"
)

// Task is one design taken from a task list.
type Task struct {
	ID     string
	Design string
}

var markerRe = regexp.MustCompile(`\[(lab\d+_task\d+)\]`)

// ParseTasks splits a task list on [labN_taskM] markers. Text before the first
// marker is ignored. A repeated id keeps its first position and takes its last
// content; tasks with empty content are dropped.
func ParseTasks(content string) []Task {
	locs := markerRe.FindAllStringSubmatchIndex(content, -1)

	var order []string
	designs := make(map[string]string, len(locs))
	for i, loc := range locs {
		id := content[loc[2]:loc[3]]
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if _, seen := designs[id]; !seen {
			order = append(order, id)
		}
		designs[id] = strings.TrimSpace(content[loc[1]:end])
	}

	tasks := make([]Task, 0, len(order))
	for _, id := range order {
		if designs[id] == "" {
			continue
		}
		tasks = append(tasks, Task{ID: id, Design: designs[id]})
	}
	return tasks
}

// Select keeps the tasks whose id is listed. Empty ids selects everything.
func Select(tasks []Task, ids []string) []Task {
	if len(ids) == 0 {
		return tasks
	}
	out := make([]Task, 0, len(ids))
	for _, t := range tasks {
		if slices.Contains(ids, t.ID) {
			out = append(out, t)
		}
	}
	return out
}

// IDs returns the task ids in order.
func IDs(tasks []Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
