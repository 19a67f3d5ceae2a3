package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"gorm.io/datatypes"

	types "github.com/yungbote/findable-backend/internal/domain"
)

// substantiveResponseChars is the response length above which a transcript counts as substantive
// even without extracted snippets.
const substantiveResponseChars = 100

// Presence is the share of transcripts that mention the project.
func Presence(batch []*types.RunResult, p *types.Project) types.MetricRecord {
	names := IdentityNames(p)
	mentions := 0
	for _, r := range batch {
		if IsMentioned(r, names) {
			mentions++
		}
	}
	return newRecord(p, types.MetricPresence, ratio(mentions, len(batch)), types.MetricMetadata{
		Total:    len(batch),
		Mentions: mentions,
	})
}

// PickRate is the share of transcripts that recommend the project.
func PickRate(batch []*types.RunResult, p *types.Project) types.MetricRecord {
	names := IdentityNames(p)
	picks := 0
	for _, r := range batch {
		if IsRecommended(r, names) {
			picks++
		}
	}
	return newRecord(p, types.MetricPickRate, ratio(picks, len(batch)), types.MetricMetadata{
		Total:           len(batch),
		Recommendations: picks,
	})
}

// SnippetHealth is the share of transcripts that mention the project, carry substantive content,
// and contain at least one project keyword. All three must hold.
func SnippetHealth(batch []*types.RunResult, p *types.Project) types.MetricRecord {
	names := IdentityNames(p)
	keywords := lowerNonBlank(projectKeywords(p))
	healthy := 0
	for _, r := range batch {
		if r == nil || !IsMentioned(r, names) {
			continue
		}
		if len(r.ExtractedSnippets) == 0 && utf8.RuneCountInString(r.ResponseText) <= substantiveResponseChars {
			continue
		}
		if !containsAny(strings.ToLower(r.ResponseText), keywords) {
			continue
		}
		healthy++
	}
	return newRecord(p, types.MetricSnippetHealth, ratio(healthy, len(batch)), types.MetricMetadata{
		Total:   len(batch),
		Healthy: healthy,
	})
}

// CitationCoverage is the share of mentioning transcripts that carry a citation. The denominator
// is the number of mentions, not the batch size.
func CitationCoverage(batch []*types.RunResult, p *types.Project) types.MetricRecord {
	names := IdentityNames(p)
	mentioned, cited := 0, 0
	for _, r := range batch {
		if !IsMentioned(r, names) {
			continue
		}
		mentioned++
		// A citation naming the project's domain is itself a citation, so any non-empty list counts.
		if len(r.Citations) > 0 {
			cited++
		}
	}
	return newRecord(p, types.MetricCitations, ratio(cited, mentioned), types.MetricMetadata{
		Total:           len(batch),
		ProjectMentions: mentioned,
		Cited:           cited,
	})
}

// CompetitorStats counts mentions and recommendations for every competitor of p, in the
// project's order. Competitor strings are matched as given, without variant expansion.
func CompetitorStats(batch []*types.RunResult, p *types.Project) []types.CompetitorStat {
	if p == nil {
		return []types.CompetitorStat{}
	}
	out := make([]types.CompetitorStat, 0, len(p.Competitors))
	for _, competitor := range p.Competitors {
		stat := types.CompetitorStat{Competitor: competitor}
		needle := strings.ToLower(strings.TrimSpace(competitor))
		if needle != "" {
			names := []string{needle}
			for _, r := range batch {
				if IsMentioned(r, names) {
					stat.Mentions++
				}
				if IsRecommended(r, names) {
					stat.Recommendations++
				}
			}
		}
		stat.MentionRate = ratio(stat.Mentions, len(batch))
		stat.RecommendationRate = ratio(stat.Recommendations, len(batch))
		out = append(out, stat)
	}
	return out
}

// CalculateAll returns presence, pick_rate, snippet_health and citations, in that order.
// ID, SessionID and Timestamp are left for the caller.
func CalculateAll(batch []*types.RunResult, p *types.Project) []types.MetricRecord {
	return []types.MetricRecord{
		Presence(batch, p),
		PickRate(batch, p),
		SnippetHealth(batch, p),
		CitationCoverage(batch, p),
	}
}

func newRecord(p *types.Project, kind types.MetricKind, value float64, meta types.MetricMetadata) types.MetricRecord {
	rec := types.MetricRecord{
		Kind:     kind,
		Value:    value,
		Metadata: datatypes.NewJSONType(meta),
	}
	if p != nil {
		rec.ProjectID = p.ID
	}
	return rec
}

func ratio(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return clamp01(float64(n) / float64(d))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, 1)
}

func projectKeywords(p *types.Project) []string {
	if p == nil {
		return nil
	}
	return p.Keywords
}

func lowerNonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
