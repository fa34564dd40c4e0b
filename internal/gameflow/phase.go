package gameflow

// Phase is the client lifecycle phase reported by the gameflow API.
type Phase string

const (
	PhaseNone            Phase = "None"
	PhaseLobby           Phase = "Lobby"
	PhaseMatchmaking     Phase = "Matchmaking"
	PhaseReadyCheck      Phase = "ReadyCheck"
	PhaseChampSelect     Phase = "ChampSelect"
	PhaseGameStart       Phase = "GameStart"
	PhaseInProgress      Phase = "InProgress"
	PhasePreEndOfGame    Phase = "PreEndOfGame"
	PhaseEndOfGame       Phase = "EndOfGame"
	PhaseWaitingForStats Phase = "WaitingForStats"
)

var knownPhases = map[Phase]bool{
	PhaseNone:            true,
	PhaseLobby:           true,
	PhaseMatchmaking:     true,
	PhaseReadyCheck:      true,
	PhaseChampSelect:     true,
	PhaseGameStart:       true,
	PhaseInProgress:      true,
	PhasePreEndOfGame:    true,
	PhaseEndOfGame:       true,
	PhaseWaitingForStats: true,
}

// ParsePhase classifies a raw phase string. Unrecognized values pass through
// as-is; they still produce a generic shell notification but no automation.
func ParsePhase(s string) (Phase, bool) {
	p := Phase(s)
	return p, knownPhases[p]
}
