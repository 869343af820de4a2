package domain

// SuggestedAction tells the caller how to proceed after a rejected move.
type SuggestedAction string

const (
	SuggestNone SuggestedAction = ""
	// SuggestReopenFirst means the deal is closed and must be reopened
	// before it can travel the pipeline again.
	SuggestReopenFirst SuggestedAction = "reopen_first"
	// SuggestUseWinDialog and SuggestUseLostDialog point the UI at the
	// dedicated close confirmation, which re-enters the engine through the
	// explicit close path.
	SuggestUseWinDialog  SuggestedAction = "use_win_dialog"
	SuggestUseLostDialog SuggestedAction = "use_lost_dialog"
)

// DialogActionFor maps a terminal stage kind to the close dialog suggestion.
func DialogActionFor(kind StageKind) SuggestedAction {
	switch kind {
	case StageKindWon:
		return SuggestUseWinDialog
	case StageKindLost:
		return SuggestUseLostDialog
	default:
		return SuggestNone
	}
}

// Decision records whether a transition is allowed and, when it is not,
// why and what the caller should do instead.
type Decision struct {
	Allowed         bool
	Reason          string
	SuggestedAction SuggestedAction
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string, action SuggestedAction) Decision {
	return Decision{Allowed: false, Reason: reason, SuggestedAction: action}
}

// ValidateTransition encodes the business rules of legal movement. It is a
// pure function; rules are evaluated in order and the first match wins.
// confirmTerminal is the explicit close override: it bypasses only the
// terminal-target rule, never the same-stage or closed-deal rules.
//
// The default is deliberately permissive: it only blocks moves that are
// certainly wrong and leaves ambiguous cases to the remote source of truth,
// whose rules may evolve independently.
func ValidateTransition(deal Deal, source, target Stage, confirmTerminal bool) Decision {
	if source.ID == target.ID {
		return deny("deal is already in this stage", SuggestNone)
	}

	if deal.Status.Terminal() {
		return deny("deal is closed", SuggestReopenFirst)
	}

	if target.Kind.Terminal() && !confirmTerminal {
		return deny("use the dedicated close action", DialogActionFor(target.Kind))
	}

	if source.Kind == StageKindOpen && target.Kind == StageKindOpen {
		return allow()
	}

	return allow()
}
