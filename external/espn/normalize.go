package espn

import (
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/scorewatch/scorewatch/internal/domain/event"
	"github.com/scorewatch/scorewatch/internal/platform/logging"
)

const logoCDNBase = "https://a.espncdn.com/i/teamlogos"

// logoFolders maps a sport to its CDN logo folder. Individual-event sports
// (racing, golf, combat) have no entry on purpose.
var logoFolders = map[event.Sport]string{
	event.SportSoccer:     "soccer",
	event.SportBasketball: "nba",
	event.SportFootball:   "nfl",
	event.SportHockey:     "nhl",
	event.SportBaseball:   "mlb",
	event.SportCricket:    "cricket",
	event.SportRugby:      "rugby",
	event.SportTennis:     "tennis",
}

// LogoPrefetcher schedules a best-effort background download of a logo
// image, de-duplicated by logo ID.
type LogoPrefetcher interface {
	Prefetch(url, logoID string)
}

// Normalizer turns raw scoreboard payloads into event records.
type Normalizer struct {
	prefetch LogoPrefetcher
	logger   *logging.Logger
}

func NewNormalizer(prefetch LogoPrefetcher, logger *logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Normalizer{
		prefetch: prefetch,
		logger:   logger,
	}
}

// Normalize parses one league payload. A malformed event is skipped; it
// never aborts the remaining events in the same payload.
func (n *Normalizer) Normalize(raw []byte, leagueName, leagueURL string) ([]event.Event, error) {
	var env scoreboardEnvelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return nil, crerr.Wrap(err, "decode scoreboard payload")
	}

	sport := event.ClassifyLeagueURL(leagueURL)
	out := make([]event.Event, 0, len(env.Events))
	for _, item := range env.Events {
		if sport == event.SportTennis && len(item.Groupings) > 0 {
			out = append(out, n.flattenTennis(item, leagueName, leagueURL)...)
			continue
		}

		ev, ok := n.normalizeEvent(item, sport, leagueName, leagueURL)
		if !ok {
			n.logger.Debug("skip malformed scoreboard event", "league", leagueName, "event_id", item.ID)
			continue
		}
		out = append(out, ev)
	}

	return out, nil
}

func (n *Normalizer) normalizeEvent(item payloadEvent, sport event.Sport, leagueName, leagueURL string) (event.Event, bool) {
	if strings.TrimSpace(item.ID) == "" {
		return event.Event{}, false
	}

	ev := event.Event{
		ID:         item.ID,
		LeagueName: leagueName,
		LeagueURL:  leagueURL,
		Sport:      sport,
		Name:       firstNonEmpty(item.Name, item.ShortName),
		State:      event.NormalizeState(item.Status.Type.State),
		Clock:      item.Status.DisplayClock,
		Date:       item.Date,
	}

	if len(item.Competitions) == 0 {
		return ev, true
	}
	comp := item.Competitions[0]
	if comp.Date != "" {
		ev.Date = comp.Date
	}

	ev.Competitors = n.normalizeCompetitors(comp.Competitors, sport)
	ev.ScoringPlays = normalizeScoringPlays(comp.Details)
	if len(comp.Extra) > 0 {
		ev.Extra = comp.Extra
	}

	return ev, true
}

func (n *Normalizer) normalizeCompetitors(items []payloadCompetitor, sport event.Sport) []event.Competitor {
	if len(items) == 0 {
		return nil
	}

	out := make([]event.Competitor, 0, len(items))
	for _, item := range items {
		c := event.Competitor{
			HomeAway: strings.ToLower(strings.TrimSpace(item.HomeAway)),
			Name:     firstNonEmpty(item.Team.DisplayName, item.Team.ShortName, item.Athlete.DisplayName, item.Athlete.ShortName),
			Score:    strings.TrimSpace(item.Score),
			TeamID:   firstNonEmpty(item.Team.ID, item.Athlete.ID),
		}
		n.deriveLogo(&c, sport)
		out = append(out, c)
	}
	return out
}

// deriveLogo recomputes the derived logo URL/ID on every pass and schedules
// a background prefetch for newly observed logos.
func (n *Normalizer) deriveLogo(c *event.Competitor, sport event.Sport) {
	if sport.Individual() || c.TeamID == "" {
		return
	}
	folder, ok := logoFolders[sport]
	if !ok {
		return
	}

	c.LogoID = folder + "-" + c.TeamID
	c.LogoURL = fmt.Sprintf("%s/%s/500/%s.png", logoCDNBase, folder, c.TeamID)
	if n.prefetch != nil {
		n.prefetch.Prefetch(c.LogoURL, c.LogoID)
	}
}

func normalizeScoringPlays(details []payloadDetail) []event.ScoringPlay {
	if len(details) == 0 {
		return nil
	}

	out := make([]event.ScoringPlay, 0, len(details))
	for _, item := range details {
		if !item.ScoringPlay {
			continue
		}
		play := event.ScoringPlay{
			Clock: item.Clock.DisplayValue,
			Team:  item.Team.ID,
			Text:  item.Type.Text,
		}
		if len(item.AthletesInvolved) > 0 {
			play.Athlete = item.AthletesInvolved[0].DisplayName
		}
		out = append(out, play)
	}
	return out
}

// flattenTennis expands a multi-match tournament event into independent
// records, one per nested match, with deterministic synthesized IDs.
func (n *Normalizer) flattenTennis(item payloadEvent, leagueName, leagueURL string) []event.Event {
	out := make([]event.Event, 0, 8)
	for _, grouping := range item.Groupings {
		for _, comp := range grouping.Competitions {
			ev, ok := n.normalizeTennisMatch(item, grouping, comp, leagueName, leagueURL)
			if !ok {
				continue
			}
			out = append(out, ev)
		}
	}
	return out
}

func (n *Normalizer) normalizeTennisMatch(item payloadEvent, grouping payloadGrouping, comp payloadCompetition, leagueName, leagueURL string) (event.Event, bool) {
	date := firstNonEmpty(comp.Date, item.Date)

	competitors := n.normalizeCompetitors(comp.Competitors, event.SportTennis)
	if len(competitors) < 2 {
		// Structured athlete fields absent: fall back to splitting the
		// "P1 vs P2" display name.
		p1, p2, ok := splitVersusName(firstNonEmpty(comp.Name, item.Name))
		if !ok {
			return event.Event{}, false
		}
		competitors = []event.Competitor{
			{Name: p1},
			{Name: p2},
		}
	}

	id := tennisMatchID(item.ID, competitors, date)
	if id == "" {
		return event.Event{}, false
	}

	ev := event.Event{
		ID:          id,
		LeagueName:  leagueName,
		LeagueURL:   leagueURL,
		Sport:       event.SportTennis,
		Name:        firstNonEmpty(comp.Name, item.Name),
		State:       event.NormalizeState(firstNonEmpty(comp.Status.Type.State, item.Status.Type.State)),
		Clock:       firstNonEmpty(comp.Status.DisplayClock, comp.Status.Type.ShortDetail),
		Date:        date,
		Competitors: competitors,
	}

	extra := map[string]any{}
	if grouping.Grouping.DisplayName != "" {
		extra["grouping"] = grouping.Grouping.DisplayName
	}
	if sets := tennisSetScores(comp.Competitors); len(sets) > 0 {
		extra["sets"] = sets
	}
	if len(extra) > 0 {
		ev.Extra = extra
	}

	return ev, true
}

// tennisMatchID synthesizes a stable ID from the tournament ID, both
// competitor IDs (names when IDs are absent) and the match date.
func tennisMatchID(tournamentID string, competitors []event.Competitor, date string) string {
	if strings.TrimSpace(tournamentID) == "" {
		return ""
	}

	parts := make([]string, 0, 4)
	parts = append(parts, tournamentID)
	for _, c := range competitors {
		key := firstNonEmpty(c.TeamID, slugify(c.Name))
		if key == "" {
			return ""
		}
		parts = append(parts, key)
	}
	if len(date) >= 10 {
		parts = append(parts, date[:10])
	}
	return strings.Join(parts, "-")
}

func tennisSetScores(items []payloadCompetitor) [][]float64 {
	out := make([][]float64, 0, len(items))
	any := false
	for _, item := range items {
		sets := make([]float64, 0, len(item.LineScores))
		for _, ls := range item.LineScores {
			sets = append(sets, ls.Value)
		}
		if len(sets) > 0 {
			any = true
		}
		out = append(out, sets)
	}
	if !any {
		return nil
	}
	return out
}

func splitVersusName(name string) (string, string, bool) {
	for _, sep := range []string{" vs ", " vs. ", " v ", " - "} {
		if idx := strings.Index(name, sep); idx > 0 {
			p1 := strings.TrimSpace(name[:idx])
			p2 := strings.TrimSpace(name[idx+len(sep):])
			if p1 != "" && p2 != "" {
				return p1, p2, true
			}
		}
	}
	return "", "", false
}

func slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	var builder strings.Builder
	lastDash := false
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			builder.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(builder.String(), "-")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
