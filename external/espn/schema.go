package espn

// Loosely-typed scoreboard payload shapes. The upstream document is treated
// as untrusted and partially present: absent fields decode to zero values
// and every consumer tolerates them.

type scoreboardEnvelope struct {
	Events []payloadEvent `json:"events"`
}

type payloadEvent struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	ShortName    string               `json:"shortName"`
	Date         string               `json:"date"`
	Status       payloadStatus        `json:"status"`
	Competitions []payloadCompetition `json:"competitions"`
	// Groupings carries tennis multi-match tournament blocks.
	Groupings []payloadGrouping `json:"groupings"`
}

type payloadStatus struct {
	DisplayClock string            `json:"displayClock"`
	Type         payloadStatusType `json:"type"`
}

type payloadStatusType struct {
	State       string `json:"state"`
	Description string `json:"description"`
	ShortDetail string `json:"shortDetail"`
}

type payloadCompetition struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Date        string              `json:"date"`
	Status      payloadStatus       `json:"status"`
	Competitors []payloadCompetitor `json:"competitors"`
	Details     []payloadDetail     `json:"details"`
	// Extra holds sport-specific additions (racing grid, golf leaderboard,
	// tennis set scores) the engine carries opaquely.
	Extra map[string]any `json:"extra"`
}

type payloadCompetitor struct {
	HomeAway string         `json:"homeAway"`
	Score    string         `json:"score"`
	Order    int            `json:"order"`
	Team     payloadTeam    `json:"team"`
	Athlete  payloadAthlete `json:"athlete"`
	// LineScores carries per-set scores for tennis.
	LineScores []payloadLineScore `json:"linescores"`
}

type payloadTeam struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	ShortName    string `json:"shortDisplayName"`
	Abbreviation string `json:"abbreviation"`
}

type payloadAthlete struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	ShortName   string `json:"shortName"`
}

type payloadLineScore struct {
	Value float64 `json:"value"`
}

type payloadDetail struct {
	Type             payloadDetailType        `json:"type"`
	Clock            payloadClock             `json:"clock"`
	Team             payloadTeamRef           `json:"team"`
	ScoringPlay      bool                     `json:"scoringPlay"`
	AthletesInvolved []payloadAthleteInvolved `json:"athletesInvolved"`
}

type payloadDetailType struct {
	Text string `json:"text"`
}

type payloadClock struct {
	DisplayValue string `json:"displayValue"`
}

type payloadTeamRef struct {
	ID string `json:"id"`
}

type payloadAthleteInvolved struct {
	DisplayName string `json:"displayName"`
}

type payloadGrouping struct {
	Grouping     payloadGroupingInfo  `json:"grouping"`
	Competitions []payloadCompetition `json:"competitions"`
}

type payloadGroupingInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}
