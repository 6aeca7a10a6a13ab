package sandbox

import (
	"fmt"
	"strings"
)

func projectTools() []ToolSpec {
	return []ToolSpec{
		{
			Name:        "project.get_task_information_by_id",
			Description: "Retrieve one field of a project task by its 8-digit ID. Valid fields: task_id, task_name, assigned_to_email, list_name, due_date, board.",
			InputSchema: objectSchema(map[string]any{
				"task_id": stringProp("8-digit task identifier"),
				"field":   stringProp("field to retrieve"),
			}, "task_id", "field"),
		},
		{
			Name:        "project.search_tasks",
			Description: "Search tasks by any combination of name, assignee, list, due date, and board. All matches are case-insensitive substrings.",
			InputSchema: objectSchema(map[string]any{
				"task_name":         stringProp("full or partial task name (optional)"),
				"assigned_to_email": stringProp("full or partial assignee email (optional)"),
				"list_name":         stringProp("full or partial list name (optional)"),
				"due_date":          stringProp("full or partial due date, YYYY-MM-DD (optional)"),
				"board":             stringProp("full or partial board name (optional)"),
			}),
		},
		{
			Name:        "project.create_task",
			Description: "Create a project task and return its new 8-digit ID. Lists: Backlog, In Progress, In Review, Completed. Boards: Front end, Back end, Design.",
			InputSchema: objectSchema(map[string]any{
				"task_name":         stringProp("task name"),
				"assigned_to_email": stringProp("assignee email, must be a team member"),
				"list_name":         stringProp("board column"),
				"due_date":          stringProp("deadline, YYYY-MM-DD"),
				"board":             stringProp("project board"),
			}, "task_name", "assigned_to_email", "list_name", "due_date", "board"),
		},
		{
			Name:        "project.delete_task",
			Description: "Delete a project task by its 8-digit ID.",
			InputSchema: objectSchema(map[string]any{
				"task_id": stringProp("8-digit task identifier"),
			}, "task_id"),
		},
		{
			Name:        "project.update_task",
			Description: "Update one field of a project task. Valid fields: task_name, assigned_to_email, list_name, due_date, board.",
			InputSchema: objectSchema(map[string]any{
				"task_id":   stringProp("8-digit task identifier"),
				"field":     stringProp("field to update"),
				"new_value": stringProp("new value for the field"),
			}, "task_id", "field", "new_value"),
		},
	}
}

func taskRecord(t ProjectTask) map[string]string {
	return map[string]string{
		"task_id":           t.ID,
		"task_name":         t.Name,
		"assigned_to_email": t.AssignedToEmail,
		"list_name":         t.ListName,
		"due_date":          t.DueDate,
		"board":             t.Board,
	}
}

// isTeamMember checks the directory for an address.
func (s *Snapshot) isTeamMember(email string) bool {
	for _, p := range s.People {
		if strings.EqualFold(p.Email, email) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (s *Snapshot) executeProject(name string, args map[string]string) (string, error) {
	switch name {
	case "project.get_task_information_by_id":
		id := arg(args, "task_id")
		field := arg(args, "field")
		if id == "" {
			return "Task ID not provided.", nil
		}
		if field == "" {
			return "Field not provided.", nil
		}
		for _, t := range s.Tasks {
			if t.ID == id {
				rec := taskRecord(t)
				v, ok := rec[field]
				if !ok {
					return "Field not found.", nil
				}
				return marshalRecord(map[string]string{field: v}), nil
			}
		}
		return "Task not found.", nil

	case "project.search_tasks":
		taskName := arg(args, "task_name")
		assignee := arg(args, "assigned_to_email")
		listName := arg(args, "list_name")
		dueDate := arg(args, "due_date")
		board := arg(args, "board")
		if taskName == "" && assignee == "" && listName == "" && dueDate == "" && board == "" {
			return "No search parameters provided.", nil
		}
		records := make([]map[string]string, 0)
		for _, t := range s.Tasks {
			if taskName != "" && !containsFold(t.Name, taskName) {
				continue
			}
			if assignee != "" && !containsFold(t.AssignedToEmail, assignee) {
				continue
			}
			if listName != "" && !containsFold(t.ListName, listName) {
				continue
			}
			if dueDate != "" && !strings.Contains(t.DueDate, dueDate) {
				continue
			}
			if board != "" && !containsFold(t.Board, board) {
				continue
			}
			records = append(records, taskRecord(t))
		}
		return marshalRecords(records), nil

	case "project.create_task":
		taskName := arg(args, "task_name")
		assignee := strings.ToLower(arg(args, "assigned_to_email"))
		listName := arg(args, "list_name")
		dueDate := arg(args, "due_date")
		board := arg(args, "board")
		if taskName == "" || assignee == "" || listName == "" || dueDate == "" || board == "" {
			return "Missing task details.", nil
		}
		if !s.isTeamMember(assignee) {
			return "Assignee email not valid. Please choose from the list of team members.", nil
		}
		if !contains(ProjectLists, listName) {
			return "List not valid. Please choose from: 'Backlog', 'In Progress', 'In Review', 'Completed'.", nil
		}
		if !contains(ProjectBoards, board) {
			return "Board not valid. Please choose from: 'Back end', 'Front end', 'Design'.", nil
		}
		ids := make([]string, 0, len(s.Tasks))
		for _, t := range s.Tasks {
			ids = append(ids, t.ID)
		}
		id := nextID(ids)
		s.Tasks = append(s.Tasks, ProjectTask{
			ID:              id,
			Name:            taskName,
			AssignedToEmail: assignee,
			ListName:        listName,
			DueDate:         dueDate,
			Board:           board,
		})
		return id, nil

	case "project.delete_task":
		id := arg(args, "task_id")
		if id == "" {
			return "Task ID not provided.", nil
		}
		for i, t := range s.Tasks {
			if t.ID == id {
				s.Tasks = append(s.Tasks[:i], s.Tasks[i+1:]...)
				return "Task deleted successfully.", nil
			}
		}
		return "Task not found.", nil

	case "project.update_task":
		id := arg(args, "task_id")
		field := arg(args, "field")
		value := arg(args, "new_value")
		if id == "" || field == "" || value == "" {
			return "Task ID, field, or new value not provided.", nil
		}
		if field == "assigned_to_email" {
			value = strings.ToLower(value)
			if !s.isTeamMember(value) {
				return "Assignee email not valid. Please choose from the list of team members.", nil
			}
		}
		if field == "list_name" && !contains(ProjectLists, value) {
			return "List not valid. Please choose from: 'Backlog', 'In Progress', 'In Review', 'Completed'.", nil
		}
		if field == "board" && !contains(ProjectBoards, value) {
			return "Board not valid. Please choose from: 'Back end', 'Front end', 'Design'.", nil
		}
		for i := range s.Tasks {
			if s.Tasks[i].ID != id {
				continue
			}
			switch field {
			case "task_name":
				s.Tasks[i].Name = value
			case "assigned_to_email":
				s.Tasks[i].AssignedToEmail = value
			case "list_name":
				s.Tasks[i].ListName = value
			case "due_date":
				s.Tasks[i].DueDate = value
			case "board":
				s.Tasks[i].Board = value
			default:
				return "Field not valid.", nil
			}
			return "Task updated successfully.", nil
		}
		return "Task not found.", nil

	default:
		return "", fmt.Errorf("sandbox: unknown tool %q", name)
	}
}
