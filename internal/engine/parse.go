package engine

import (
	"strings"
)

// ParseQuickAdd splits a one-line task entry into a TaskInput. Recognized
// tokens anywhere in the line:
//
//	@name           context
//	due:YYYY-MM-DD  due date (also "due:today", "due:tomorrow")
//	#q1 .. #q4      quadrant, skipping the inbox
//
// Everything else is the title. A line without a quadrant token goes to the
// inbox. The returned input is not validated; pass it to Service.CreateTask.
func ParseQuickAdd(line string, today string, tomorrow string) TaskInput {
	var in TaskInput
	var words []string
	for _, tok := range strings.Fields(line) {
		lower := strings.ToLower(tok)
		switch {
		case len(tok) > 1 && strings.HasPrefix(tok, "@"):
			in.Context = tok
		case strings.HasPrefix(lower, "due:"):
			switch v := strings.TrimPrefix(lower, "due:"); v {
			case "today":
				in.DueDate = today
			case "tomorrow":
				in.DueDate = tomorrow
			default:
				in.DueDate = v
			}
		case strings.HasPrefix(lower, "#"):
			p, err := ParseTarget(strings.TrimPrefix(lower, "#"))
			if err != nil || !p.IsQuadrant() {
				words = append(words, tok)
				continue
			}
			u, i, _ := p.Flags()
			in.Urgent, in.Important = Ptr(u), Ptr(i)
		default:
			words = append(words, tok)
		}
	}
	in.Title = strings.Join(words, " ")
	in.IsInbox = in.Urgent == nil
	return in
}
