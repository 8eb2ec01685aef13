package correction

import "fmt"

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Summarize classifies outcomes into exactly one of all-succeeded, partial or
// all-failed. The all-failed message carries the first recorded error.
func Summarize(outcomes []DateOutcome) Summary {
	var s Summary
	firstErr := ""
	for _, o := range outcomes {
		if o.Success {
			s.Succeeded++
			continue
		}
		s.Failed++
		if firstErr == "" {
			firstErr = o.Error
		}
	}

	switch {
	case s.Succeeded > 0 && s.Failed == 0:
		s.Kind = OutcomeAllSucceeded
		s.Message = fmt.Sprintf("Successfully submitted corrections for %s!", plural(s.Succeeded, "date"))
	case s.Succeeded > 0:
		s.Kind = OutcomePartial
		s.Message = fmt.Sprintf("Submitted corrections for %s, %d failed.", plural(s.Succeeded, "date"), s.Failed)
	default:
		s.Kind = OutcomeAllFailed
		if firstErr == "" {
			firstErr = "no dates were submitted"
		}
		s.Message = "Failed to submit corrections: " + firstErr
	}
	return s
}

// AnySucceeded reports whether at least one date was applied.
func (s Summary) AnySucceeded() bool {
	return s.Succeeded > 0
}
