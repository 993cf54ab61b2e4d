package wizard

// Step identifies the wizard's position. Values are stable strings because
// they are part of the persisted session layout.
type Step string

const (
	StepIntro        Step = "intro"
	StepConditions   Step = "conditions"
	StepForm         Step = "form"
	StepDocuments    Step = "documents"
	StepSummary      Step = "summary"
	StepConfirmation Step = "confirmation"
)

var stepOrder = []Step{
	StepIntro,
	StepConditions,
	StepForm,
	StepDocuments,
	StepSummary,
	StepConfirmation,
}

// Next returns the following step. The second result is false on the terminal
// step.
func (s Step) Next() (Step, bool) {
	for i, step := range stepOrder {
		if step == s && i+1 < len(stepOrder) {
			return stepOrder[i+1], true
		}
	}
	return s, false
}

// Prev returns the preceding step. The second result is false on the initial
// step.
func (s Step) Prev() (Step, bool) {
	for i, step := range stepOrder {
		if step == s && i > 0 {
			return stepOrder[i-1], true
		}
	}
	return s, false
}

// Known reports whether s is one of the six wizard steps; restored sessions
// carrying anything else fall back to a fresh state.
func (s Step) Known() bool {
	for _, step := range stepOrder {
		if step == s {
			return true
		}
	}
	return false
}

// Steps returns the full transition order.
func Steps() []Step {
	return append([]Step(nil), stepOrder...)
}
