package game

// startRound snapshots the current roster into the round, resets every
// per-round structure, assigns the impostor and draws a fresh secret word.
func (m *Match) startRound() {
	m.roundPlayers = make(map[string]bool, len(m.players))
	for _, p := range m.players {
		m.roundPlayers[p.ID] = true
	}
	m.eliminated = make(map[string]bool)
	m.votes = make(map[string]string)
	m.turnHistory = nil
	m.lastRoundScores = make(map[string]int)
	m.currentTurn = 1
	m.roundCount++

	m.startingPlayer = m.pickStartingPlayer()
	m.impostorID = m.pickImpostor()
	m.secretWord, m.secretCategory = m.words.Draw(m.secretWord)
	m.phase = PhasePlaying
}

// pickStartingPlayer rotates through the base order filtered to the round
// participants: round k starts with index (k-1) mod N.
func (m *Match) pickStartingPlayer() string {
	eligible := make([]string, 0, len(m.playerOrder))
	for _, id := range m.playerOrder {
		if m.roundPlayers[id] {
			eligible = append(eligible, id)
		}
	}
	if len(eligible) == 0 {
		return ""
	}
	return eligible[(m.roundCount-1)%len(eligible)]
}

// pickImpostor draws the impostor uniformly at random. An identity that was
// the impostor in both of the last two rounds is excluded unless that would
// leave nobody to pick.
func (m *Match) pickImpostor() string {
	candidates := make([]string, 0, len(m.playerOrder))
	for _, id := range m.playerOrder {
		if m.roundPlayers[id] {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	if len(m.impostorHistory) >= 2 && m.impostorHistory[0] == m.impostorHistory[1] {
		repeat := m.impostorHistory[0]
		filtered := make([]string, 0, len(candidates))
		for _, id := range candidates {
			if id != repeat {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	pick := candidates[m.rng.Intn(len(candidates))]
	m.impostorHistory = append([]string{pick}, m.impostorHistory...)
	if len(m.impostorHistory) > impostorHistorySize {
		m.impostorHistory = m.impostorHistory[:impostorHistorySize]
	}
	return pick
}
