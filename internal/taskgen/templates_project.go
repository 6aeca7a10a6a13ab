package taskgen

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/stellarlinkco/sandbench/internal/sandbox"
)

func projectTemplates() []template {
	return []template{
		{
			name: "count_tasks_in_list",
			kind: KindLookup,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.Tasks) == 0 {
					return nil
				}
				t := pick(r, s.Tasks)
				count := 0
				for _, other := range s.Tasks {
					if other.ListName == t.ListName && other.Board == t.Board {
						count++
					}
				}
				return &sample{
					query:  fmt.Sprintf("How many tasks are in %s on the %s board?", t.ListName, t.Board),
					answer: strconv.Itoa(count),
				}
			},
		},
		{
			name: "task_due_date",
			kind: KindLookup,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				t, ok := uniqueTask(r, s)
				if !ok {
					return nil
				}
				return &sample{
					query:  fmt.Sprintf("When is the '%s' task due?", t.Name),
					answer: t.DueDate,
				}
			},
		},
		{
			name: "move_task_to_list",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				t, ok := uniqueTask(r, s)
				if !ok {
					return nil
				}
				target := pick(r, sandbox.ProjectLists)
				if target == t.ListName {
					return nil
				}
				return &sample{
					query: fmt.Sprintf("Move the '%s' task to %s.", t.Name, target),
					actions: []sandbox.Call{{
						Tool: "project.update_task",
						Args: map[string]string{
							"task_id":   t.ID,
							"field":     "list_name",
							"new_value": target,
						},
					}},
				}
			},
		},
		{
			name: "add_task",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.People) == 0 {
					return nil
				}
				p := pick(r, s.People)
				name := pick(r, []string{
					"Draft release notes", "Review access policy", "Update API changelog", "Prepare demo data",
				})
				board := pick(r, sandbox.ProjectBoards)
				list := pick(r, sandbox.ProjectLists)
				due := sandbox.CurrentTime.AddDate(0, 0, 3+r.Intn(14)).Format(sandbox.DateLayout)
				return &sample{
					query: fmt.Sprintf("Add a task '%s' for %s on the %s board in %s, due %s.",
						name, firstNameOf(p.Name), board, list, due),
					actions: []sandbox.Call{{
						Tool: "project.create_task",
						Args: map[string]string{
							"task_name":         name,
							"assigned_to_email": p.Email,
							"list_name":         list,
							"due_date":          due,
							"board":             board,
						},
					}},
				}
			},
		},
		{
			name: "delete_task",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				t, ok := uniqueTask(r, s)
				if !ok {
					return nil
				}
				return &sample{
					query: fmt.Sprintf("Delete the '%s' task.", t.Name),
					actions: []sandbox.Call{{
						Tool: "project.delete_task",
						Args: map[string]string{"task_id": t.ID},
					}},
				}
			},
		},
		{
			name: "conditional_move_noop",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.People) == 0 {
					return nil
				}
				p := pick(r, s.People)
				for _, t := range s.Tasks {
					if t.AssignedToEmail == p.Email && t.ListName == "In Review" {
						return nil
					}
				}
				return &sample{
					query: fmt.Sprintf("If %s has any tasks in In Review, move them to Completed.",
						firstNameOf(p.Name)),
					noop: true,
				}
			},
		},
	}
}

// uniqueTask samples a task whose name appears exactly once.
func uniqueTask(r *rand.Rand, s *sandbox.Snapshot) (sandbox.ProjectTask, bool) {
	if len(s.Tasks) == 0 {
		return sandbox.ProjectTask{}, false
	}
	counts := make(map[string]int, len(s.Tasks))
	for _, t := range s.Tasks {
		counts[t.Name]++
	}
	var unique []sandbox.ProjectTask
	for _, t := range s.Tasks {
		if counts[t.Name] == 1 {
			unique = append(unique, t)
		}
	}
	if len(unique) == 0 {
		return sandbox.ProjectTask{}, false
	}
	return pick(r, unique), true
}
