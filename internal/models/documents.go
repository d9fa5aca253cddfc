package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultList is the list a fresh workspace starts with.
func DefaultList(now time.Time) List {
	return List{
		ID:          NewID(),
		Title:       "My Tasks",
		Description: "Default task list",
		Color:       ColorBlue,
		Tasks:       []Task{},
		SortMethod:  SortSmart,
		CreatedAt:   now,
	}
}

// ValidateLists checks every list and that list and task ids are unique
// across the whole document.
func ValidateLists(lists []List) error {
	if err := validation.Validate(lists); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(lists))
	tasks := make(map[string]struct{})
	for _, l := range lists {
		if _, dup := seen[l.ID]; dup {
			return fmt.Errorf("duplicate list id %q", l.ID)
		}
		seen[l.ID] = struct{}{}
		for _, t := range l.Tasks {
			if _, dup := tasks[t.ID]; dup {
				return fmt.Errorf("duplicate task id %q", t.ID)
			}
			tasks[t.ID] = struct{}{}
		}
	}
	return nil
}

// ValidateTemplates checks every template and id uniqueness.
func ValidateTemplates(templates []Template) error {
	if err := validation.Validate(templates); err != nil {
		return err
	}
	ids := make([]string, len(templates))
	for i, t := range templates {
		ids[i] = t.ID
	}
	return uniqueIDs("template", ids)
}

// ValidateEvents checks every event and id uniqueness.
func ValidateEvents(events []Event) error {
	if err := validation.Validate(events); err != nil {
		return err
	}
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return uniqueIDs("event", ids)
}

func uniqueIDs(kind string, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate %s id %q", kind, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
