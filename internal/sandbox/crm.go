package sandbox

import (
	"fmt"
	"strings"
)

func crmTools() []ToolSpec {
	return []ToolSpec{
		{
			Name:        "crm.search_customers",
			Description: "Search customers by any combination of name, email, product interest, status, assigned rep, and last contact date range. Returns at most 5 records.",
			InputSchema: objectSchema(map[string]any{
				"customer_name":         stringProp("full or partial customer name (optional)"),
				"customer_email":        stringProp("full or partial customer email (optional)"),
				"product_interest":      stringProp("Software, Hardware, Services, Consulting, or Training (optional)"),
				"status":                stringProp("Lead, Qualified, Proposal, Won, or Lost (optional)"),
				"assigned_to_email":     stringProp("sales rep email (optional)"),
				"last_contact_date_min": stringProp("earliest last contact date, YYYY-MM-DD (optional)"),
				"last_contact_date_max": stringProp("latest last contact date, YYYY-MM-DD (optional)"),
			}),
		},
		{
			Name:        "crm.update_customer",
			Description: "Update one field of a customer record. Valid fields: customer_name, assigned_to_email, customer_email, customer_phone, last_contact_date, product_interest, status.",
			InputSchema: objectSchema(map[string]any{
				"customer_id": stringProp("8-digit customer identifier"),
				"field":       stringProp("field to update"),
				"new_value":   stringProp("new value for the field"),
			}, "customer_id", "field", "new_value"),
		},
		{
			Name:        "crm.add_customer",
			Description: "Add a customer record and return its new 8-digit ID. Name, assigned rep, and status are required; other fields are optional.",
			InputSchema: objectSchema(map[string]any{
				"customer_name":     stringProp("customer or company name"),
				"assigned_to_email": stringProp("sales rep email"),
				"status":            stringProp("Lead, Qualified, Proposal, Won, or Lost"),
				"customer_email":    stringProp("customer email (optional)"),
				"customer_phone":    stringProp("customer phone (optional)"),
				"last_contact_date": stringProp("last contact date, YYYY-MM-DD (optional)"),
				"product_interest":  stringProp("product category (optional)"),
			}, "customer_name", "assigned_to_email", "status"),
		},
		{
			Name:        "crm.delete_customer",
			Description: "Delete a customer record by its 8-digit ID.",
			InputSchema: objectSchema(map[string]any{
				"customer_id": stringProp("8-digit customer identifier"),
			}, "customer_id"),
		},
	}
}

func customerRecord(c Customer) map[string]string {
	return map[string]string{
		"customer_id":       c.ID,
		"customer_name":     c.Name,
		"assigned_to_email": c.AssignedToEmail,
		"customer_email":    c.CustomerEmail,
		"customer_phone":    c.CustomerPhone,
		"last_contact_date": c.LastContactDate,
		"product_interest":  c.ProductInterest,
		"status":            c.Status,
	}
}

func (s *Snapshot) executeCRM(name string, args map[string]string) (string, error) {
	switch name {
	case "crm.search_customers":
		customerName := arg(args, "customer_name")
		customerEmail := arg(args, "customer_email")
		productInterest := arg(args, "product_interest")
		status := arg(args, "status")
		assignee := arg(args, "assigned_to_email")
		contactMin := arg(args, "last_contact_date_min")
		contactMax := arg(args, "last_contact_date_max")
		if customerName == "" && customerEmail == "" && productInterest == "" &&
			status == "" && assignee == "" && contactMin == "" && contactMax == "" {
			return "No search parameters provided. Please provide at least one parameter.", nil
		}
		records := make([]map[string]string, 0)
		for _, c := range s.Customers {
			if customerName != "" && !containsFold(c.Name, customerName) {
				continue
			}
			if customerEmail != "" && !containsFold(c.CustomerEmail, customerEmail) {
				continue
			}
			if productInterest != "" && !containsFold(c.ProductInterest, productInterest) {
				continue
			}
			if status != "" && !containsFold(c.Status, status) {
				continue
			}
			if assignee != "" && !containsFold(c.AssignedToEmail, assignee) {
				continue
			}
			if contactMin != "" && c.LastContactDate < contactMin {
				continue
			}
			if contactMax != "" && c.LastContactDate > contactMax {
				continue
			}
			records = append(records, customerRecord(c))
		}
		if len(records) > 5 {
			records = records[:5]
		}
		return marshalRecords(records), nil

	case "crm.update_customer":
		id := arg(args, "customer_id")
		field := arg(args, "field")
		value := arg(args, "new_value")
		if id == "" || field == "" || value == "" {
			return "Customer ID, field, or new value not provided.", nil
		}
		if field == "status" && !contains(CRMStatuses, value) {
			return "Status not valid. Please choose from: 'Qualified', 'Won', 'Lost', 'Lead', 'Proposal'", nil
		}
		if field == "product_interest" && !contains(CRMProducts, value) {
			return "Product interest not valid. Please choose from: 'Software', 'Hardware', 'Services', 'Consulting', 'Training'", nil
		}
		if field == "customer_email" || field == "assigned_to_email" {
			value = strings.ToLower(value)
		}
		for i := range s.Customers {
			if s.Customers[i].ID != id {
				continue
			}
			switch field {
			case "customer_name":
				s.Customers[i].Name = value
			case "assigned_to_email":
				s.Customers[i].AssignedToEmail = value
			case "customer_email":
				s.Customers[i].CustomerEmail = value
			case "customer_phone":
				s.Customers[i].CustomerPhone = value
			case "last_contact_date":
				s.Customers[i].LastContactDate = value
			case "product_interest":
				s.Customers[i].ProductInterest = value
			case "status":
				s.Customers[i].Status = value
			default:
				return "Field not valid. Please choose from: 'customer_name', 'assigned_to_email', 'customer_email', 'customer_phone', 'last_contact_date', 'product_interest', 'status'", nil
			}
			return "Customer updated successfully.", nil
		}
		return "Customer not found.", nil

	case "crm.add_customer":
		customerName := arg(args, "customer_name")
		assignee := arg(args, "assigned_to_email")
		status := arg(args, "status")
		if customerName == "" || assignee == "" || status == "" {
			return "Please provide all required fields: customer_name, assigned_to_email, status.", nil
		}
		ids := make([]string, 0, len(s.Customers))
		for _, c := range s.Customers {
			ids = append(ids, c.ID)
		}
		id := nextID(ids)
		s.Customers = append(s.Customers, Customer{
			ID:              id,
			Name:            customerName,
			AssignedToEmail: strings.ToLower(assignee),
			CustomerEmail:   strings.ToLower(arg(args, "customer_email")),
			CustomerPhone:   arg(args, "customer_phone"),
			LastContactDate: arg(args, "last_contact_date"),
			ProductInterest: arg(args, "product_interest"),
			Status:          status,
		})
		return id, nil

	case "crm.delete_customer":
		id := arg(args, "customer_id")
		if id == "" {
			return "Customer ID not provided.", nil
		}
		for i, c := range s.Customers {
			if c.ID == id {
				s.Customers = append(s.Customers[:i], s.Customers[i+1:]...)
				return "Customer deleted successfully.", nil
			}
		}
		return "Customer not found.", nil

	default:
		return "", fmt.Errorf("sandbox: unknown tool %q", name)
	}
}
