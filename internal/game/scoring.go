package game

// award adds points to both the cumulative and the this-round ledgers.
func (m *Match) award(id string, points int) {
	if id == "" {
		return
	}
	m.scores[id] += points
	m.lastRoundScores[id] += points
}

// endRound applies end-of-round scoring and moves to the result phase.
//
// Friends won: every historical vote cast on the impostor by a voter who
// survived the round earns +1, and every surviving non-impostor earns a
// flat +1 round bonus. Impostor won: correct voters still collect +1
// consolation each; the impostor's own points were granted turn by turn.
func (m *Match) endRound(friendsWon bool) {
	if friendsWon {
		for _, rec := range m.turnHistory {
			for voter, target := range rec.Votes {
				if target == m.impostorID && !m.eliminated[voter] {
					m.award(voter, 1)
				}
			}
		}
		for id := range m.roundPlayers {
			if id != m.impostorID && !m.eliminated[id] {
				m.award(id, 1)
			}
		}
	} else {
		for _, rec := range m.turnHistory {
			for voter, target := range rec.Votes {
				if target == m.impostorID && voter != m.impostorID {
					m.award(voter, 1)
				}
			}
		}
	}

	m.phase = PhaseRoundResult
	m.checkGameOver()
}

// endRoundForfeit closes the round without any end-of-round scoring. Used
// when the impostor leaves mid-round.
func (m *Match) endRoundForfeit() {
	m.phase = PhaseRoundResult
	m.checkGameOver()
}

// checkGameOver declares a winner when someone reached the target score, or
// when the round limit is exhausted and a unique top scorer exists. A tie at
// the top keeps the game in the result phase with no winner.
func (m *Match) checkGameOver() {
	top, unique := m.topScorer()
	if top != "" && m.scores[top] >= m.config.TargetScore && unique {
		m.winnerID = top
		m.phase = PhaseGameOver
		return
	}
	if m.roundCount >= m.config.MaxRounds && top != "" && unique {
		m.winnerID = top
		m.phase = PhaseGameOver
	}
}

// topScorer returns the highest scorer and whether that maximum is unique.
// The whole score ledger counts, including players that already left.
func (m *Match) topScorer() (string, bool) {
	best := ""
	bestScore := 0
	unique := true
	for id, score := range m.scores {
		switch {
		case best == "" || score > bestScore:
			best = id
			bestScore = score
			unique = true
		case score == bestScore:
			unique = false
		}
	}
	return best, unique
}
