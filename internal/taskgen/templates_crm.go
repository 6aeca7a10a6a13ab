package taskgen

import (
	"fmt"
	"math/rand"

	"github.com/stellarlinkco/sandbench/internal/sandbox"
)

func crmTemplates() []template {
	return []template{
		{
			name: "customer_status",
			kind: KindLookup,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				c, ok := uniqueCustomer(r, s)
				if !ok {
					return nil
				}
				return &sample{
					query:  fmt.Sprintf("What is the status of the customer %s?", c.Name),
					answer: c.Status,
				}
			},
		},
		{
			name: "customer_rep",
			kind: KindLookup,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				c, ok := uniqueCustomer(r, s)
				if !ok {
					return nil
				}
				return &sample{
					query:  fmt.Sprintf("Which sales rep is assigned to %s?", c.Name),
					answer: c.AssignedToEmail,
				}
			},
		},
		{
			name: "update_customer_status",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				c, ok := uniqueCustomer(r, s)
				if !ok {
					return nil
				}
				status := pick(r, sandbox.CRMStatuses)
				if status == c.Status {
					return nil
				}
				return &sample{
					query: fmt.Sprintf("Update %s's status to %s.", c.Name, status),
					actions: []sandbox.Call{{
						Tool: "crm.update_customer",
						Args: map[string]string{
							"customer_id": c.ID,
							"field":       "status",
							"new_value":   status,
						},
					}},
				}
			},
		},
		{
			name: "add_customer",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.People) == 0 {
					return nil
				}
				rep := pick(r, s.People)
				name := pick(r, []string{"Dana Whitfield", "Omar Haddad", "Greta Lindgren", "Paulo Ferreira"})
				status := pick(r, sandbox.CRMStatuses)
				return &sample{
					query: fmt.Sprintf("Add a new customer %s with status %s, assigned to %s.",
						name, status, firstNameOf(rep.Name)),
					actions: []sandbox.Call{{
						Tool: "crm.add_customer",
						Args: map[string]string{
							"customer_name":     name,
							"assigned_to_email": rep.Email,
							"status":            status,
						},
					}},
				}
			},
		},
		{
			name: "delete_customer",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				c, ok := uniqueCustomer(r, s)
				if !ok {
					return nil
				}
				return &sample{
					query: fmt.Sprintf("Delete the customer record for %s.", c.Name),
					actions: []sandbox.Call{{
						Tool: "crm.delete_customer",
						Args: map[string]string{"customer_id": c.ID},
					}},
				}
			},
		},
		{
			name: "conditional_delete_noop",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				c, ok := uniqueCustomer(r, s)
				if !ok || c.Status == "Lost" {
					return nil
				}
				return &sample{
					query: fmt.Sprintf("If %s has status Lost, delete their record.", c.Name),
					noop:  true,
				}
			},
		},
	}
}

// uniqueCustomer samples a customer whose name appears exactly once.
func uniqueCustomer(r *rand.Rand, s *sandbox.Snapshot) (sandbox.Customer, bool) {
	if len(s.Customers) == 0 {
		return sandbox.Customer{}, false
	}
	counts := make(map[string]int, len(s.Customers))
	for _, c := range s.Customers {
		counts[c.Name]++
	}
	var unique []sandbox.Customer
	for _, c := range s.Customers {
		if counts[c.Name] == 1 {
			unique = append(unique, c)
		}
	}
	if len(unique) == 0 {
		return sandbox.Customer{}, false
	}
	return pick(r, unique), true
}
