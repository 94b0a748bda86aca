// Package model holds the plain domain value types shared by every
// component of the validation engine: predictions leased from storage,
// the judgments produced about them, and the outcomes written back.
package model

// Outcome is the final label written to storage for a validated prediction.
type Outcome string

// The full outcome enum. NotMatured is reserved for schema compatibility
// with the upstream pipeline and is never produced by this engine.
const (
	OutcomeMaturedTrue        Outcome = "matured_true"
	OutcomeMaturedMostlyTrue  Outcome = "matured_mostly_true"
	OutcomeMaturedFalse       Outcome = "matured_false"
	OutcomeMaturedMostlyFalse Outcome = "matured_mostly_false"
	OutcomeMissingContext     Outcome = "missing_context"
	OutcomeNotMatured         Outcome = "not_matured"
	OutcomeInvalid            Outcome = "invalid"
)

// Decision is the Result Judge's raw TRUE/FALSE/INCONCLUSIVE call, before
// score reconciliation.
type Decision string

const (
	DecisionTrue         Decision = "TRUE"
	DecisionFalse        Decision = "FALSE"
	DecisionInconclusive Decision = "INCONCLUSIVE"
)

// MapOutcome implements spec.md §4.7: the reconciled (decision, score) pair
// maps deterministically to one of five outcomes. INCONCLUSIVE always maps
// to MissingContext, regardless of score.
func MapOutcome(decision Decision, score int) Outcome {
	switch decision {
	case DecisionTrue:
		if score >= 9 {
			return OutcomeMaturedTrue
		}
		return OutcomeMaturedMostlyTrue
	case DecisionFalse:
		if score <= 2 {
			return OutcomeMaturedFalse
		}
		return OutcomeMaturedMostlyFalse
	default:
		return OutcomeMissingContext
	}
}

// Reconcile implements spec.md §4.6: the numeric score is the source of
// truth and overrides the model's textual decision when they disagree.
func Reconcile(decision Decision, score int) Decision {
	switch {
	case score >= 7:
		return DecisionTrue
	case score <= 3:
		return DecisionFalse
	default:
		return DecisionInconclusive
	}
}
