package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestValidateTransition(t *testing.T) {
	triage := Stage{ID: uuid.New(), Label: "Triage", Rank: 1, Kind: StageKindOpen}
	proposal := Stage{ID: uuid.New(), Label: "Proposal", Rank: 2, Kind: StageKindOpen}
	won := Stage{ID: uuid.New(), Label: "Won", Rank: 3, Kind: StageKindWon}
	lost := Stage{ID: uuid.New(), Label: "Lost", Rank: 4, Kind: StageKindLost}

	openDeal := Deal{ID: uuid.New(), StageID: triage.ID, Status: DealStatusOpen}
	wonDeal := Deal{ID: uuid.New(), StageID: won.ID, Status: DealStatusWon}
	lostDeal := Deal{ID: uuid.New(), StageID: lost.ID, Status: DealStatusLost}

	tests := []struct {
		name            string
		deal            Deal
		source          Stage
		target          Stage
		confirmTerminal bool
		wantAllowed     bool
		wantReason      string
		wantAction      SuggestedAction
	}{
		{
			name:        "open deal between open stages",
			deal:        openDeal,
			source:      triage,
			target:      proposal,
			wantAllowed: true,
		},
		{
			name:        "same stage is a no-op",
			deal:        openDeal,
			source:      triage,
			target:      triage,
			wantAllowed: false,
			wantReason:  "deal is already in this stage",
			wantAction:  SuggestNone,
		},
		{
			name:        "won deal cannot move",
			deal:        wonDeal,
			source:      won,
			target:      proposal,
			wantAllowed: false,
			wantReason:  "deal is closed",
			wantAction:  SuggestReopenFirst,
		},
		{
			name:        "lost deal cannot move",
			deal:        lostDeal,
			source:      lost,
			target:      triage,
			wantAllowed: false,
			wantReason:  "deal is closed",
			wantAction:  SuggestReopenFirst,
		},
		{
			name:        "direct drag onto won stage",
			deal:        openDeal,
			source:      triage,
			target:      won,
			wantAllowed: false,
			wantReason:  "use the dedicated close action",
			wantAction:  SuggestUseWinDialog,
		},
		{
			name:        "direct drag onto lost stage",
			deal:        openDeal,
			source:      proposal,
			target:      lost,
			wantAllowed: false,
			wantReason:  "use the dedicated close action",
			wantAction:  SuggestUseLostDialog,
		},
		{
			name:            "confirmed close onto won stage",
			deal:            openDeal,
			source:          triage,
			target:          won,
			confirmTerminal: true,
			wantAllowed:     true,
		},
		{
			name:            "confirmed close cannot bypass the same-stage rule",
			deal:            openDeal,
			source:          triage,
			target:          triage,
			confirmTerminal: true,
			wantAllowed:     false,
			wantReason:      "deal is already in this stage",
		},
		{
			name:            "confirmed close cannot move a closed deal",
			deal:            wonDeal,
			source:          won,
			target:          lost,
			confirmTerminal: true,
			wantAllowed:     false,
			wantReason:      "deal is closed",
			wantAction:      SuggestReopenFirst,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateTransition(tt.deal, tt.source, tt.target, tt.confirmTerminal)
			if got.Allowed != tt.wantAllowed {
				t.Fatalf("Allowed = %v, want %v", got.Allowed, tt.wantAllowed)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if got.SuggestedAction != tt.wantAction {
				t.Errorf("SuggestedAction = %q, want %q", got.SuggestedAction, tt.wantAction)
			}
		})
	}
}

func TestDialogActionFor(t *testing.T) {
	if got := DialogActionFor(StageKindWon); got != SuggestUseWinDialog {
		t.Errorf("won kind: got %q", got)
	}
	if got := DialogActionFor(StageKindLost); got != SuggestUseLostDialog {
		t.Errorf("lost kind: got %q", got)
	}
	if got := DialogActionFor(StageKindOpen); got != SuggestNone {
		t.Errorf("open kind: got %q", got)
	}
}
