package game

// CastVote records (or, with an empty target, clears) the voter's vote for
// the current turn. Recording the last missing vote of the turn triggers
// resolution; clearing never does.
func (m *Match) CastVote(voterID, targetID string) error {
	if m.phase != PhasePlaying {
		return ErrWrongPhase
	}
	if m.eliminated[voterID] {
		return ErrVoterEliminated
	}
	if !m.roundPlayers[voterID] {
		return ErrVoterNotInRound
	}

	if targetID == "" {
		delete(m.votes, voterID)
		return nil
	}

	if voterID == targetID {
		return ErrSelfVote
	}
	if m.eliminated[targetID] {
		return ErrTargetEliminated
	}
	if !m.roundPlayers[targetID] {
		return ErrTargetNotInRound
	}

	m.votes[voterID] = targetID
	if m.allActiveVoted() {
		m.resolveVotes()
	}
	return nil
}

// activePlayers returns the round participants that are still in play.
func (m *Match) activePlayers() []string {
	active := make([]string, 0, len(m.roundPlayers))
	for _, id := range m.playerOrder {
		if m.roundPlayers[id] && !m.eliminated[id] {
			active = append(active, id)
		}
	}
	return active
}

func (m *Match) allActiveVoted() bool {
	active := m.activePlayers()
	if len(active) == 0 {
		return false
	}
	for _, id := range active {
		if _, ok := m.votes[id]; !ok {
			return false
		}
	}
	return true
}

// resolveVotes tallies the turn and applies the outcome: a unique most-voted
// player is eliminated, ties (including zero votes) eliminate nobody. The
// turn always lands in the history log before any transition.
func (m *Match) resolveVotes() {
	tally := make(map[string]int)
	for _, target := range m.votes {
		tally[target]++
	}

	max := 0
	for _, n := range tally {
		if n > max {
			max = n
		}
	}
	var mostVoted []string
	for target, n := range tally {
		if n == max && max > 0 {
			mostVoted = append(mostVoted, target)
		}
	}

	record := TurnRecord{
		Turn:  m.currentTurn,
		Votes: copyVotes(m.votes),
		Tally: tally,
	}

	if len(mostVoted) == 1 {
		out := mostVoted[0]
		record.Eliminated = out
		m.turnHistory = append(m.turnHistory, record)
		m.eliminated[out] = true

		switch {
		case out == m.impostorID:
			m.endRound(true)
		case m.currentTurn == MaxTurns:
			m.endRound(false)
		default:
			m.nextTurn(true)
		}
		return
	}

	record.WasTie = true
	m.turnHistory = append(m.turnHistory, record)
	if m.currentTurn == MaxTurns {
		// Surviving the last turn does not require an elimination.
		m.endRound(false)
		return
	}
	m.nextTurn(false)
}

// nextTurn advances the turn counter and clears the ballot. A turn that
// ended in a clean elimination pays the impostor survival points equal to
// the new turn number; ties never pay out.
func (m *Match) nextTurn(cleanElimination bool) {
	m.currentTurn++
	m.votes = make(map[string]string)
	if cleanElimination && m.currentTurn > 1 {
		m.award(m.impostorID, m.currentTurn)
	}
}

func copyVotes(votes map[string]string) map[string]string {
	out := make(map[string]string, len(votes))
	for voter, target := range votes {
		out[voter] = target
	}
	return out
}
