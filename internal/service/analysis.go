package service

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"content-eval/internal/dto"
	"content-eval/internal/models"
	"content-eval/internal/repository"
)

// AnalysisService computes read-side aggregates over generations and
// their evaluations. It takes no locks and reflects whatever subset of
// evaluations exists at read time, so it is safe to call mid-evaluation.
type AnalysisService struct {
	expRepo  *repository.ExperimentRepository
	genRepo  *repository.GenerationRepository
	evalRepo *repository.EvaluationRepository
}

// NewAnalysisService creates an analysis aggregator.
func NewAnalysisService(
	expRepo *repository.ExperimentRepository,
	genRepo *repository.GenerationRepository,
	evalRepo *repository.EvaluationRepository,
) *AnalysisService {
	return &AnalysisService{expRepo: expRepo, genRepo: genRepo, evalRepo: evalRepo}
}

// scored is one generation joined to its evaluation.
type scored struct {
	gen  models.Generation
	eval models.Evaluation
}

// load returns all generations plus the evaluated subset joined to their
// evaluations. Generations without an evaluation are never scored.
func (s *AnalysisService) load(experimentID uint) ([]models.Generation, []scored, error) {
	if _, err := s.expRepo.GetByID(experimentID); err != nil {
		return nil, nil, fmt.Errorf("%w: experiment %d", ErrNotFound, experimentID)
	}

	gens, err := s.genRepo.ListByExperiment(experimentID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	evals, err := s.evalRepo.ListByExperiment(experimentID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	byGen := make(map[uint]models.Evaluation, len(evals))
	for _, ev := range evals {
		byGen[ev.GenerationID] = ev
	}

	joined := make([]scored, 0, len(evals))
	for _, g := range gens {
		if ev, ok := byGen[g.ID]; ok {
			joined = append(joined, scored{gen: g, eval: ev})
		}
	}

	return gens, joined, nil
}

// meanScores averages each score dimension over a non-empty set.
func meanScores(items []scored) *dto.ScoreMeans {
	n := float64(len(items))
	var m dto.ScoreMeans
	for _, it := range items {
		m.VoiceMatch += float64(it.eval.VoiceMatch)
		m.Coherence += float64(it.eval.Coherence)
		m.Engaging += float64(it.eval.Engaging)
		m.MeetsBrief += float64(it.eval.MeetsBrief)
		m.OverallQuality += float64(it.eval.OverallQuality)
	}
	m.VoiceMatch /= n
	m.Coherence /= n
	m.Engaging /= n
	m.MeetsBrief /= n
	m.OverallQuality /= n
	return &m
}

// meanEditTime averages edit-time estimates over a non-empty set.
func meanEditTime(items []scored) float64 {
	var sum float64
	for _, it := range items {
		sum += float64(it.eval.EditTimeMinutes)
	}
	return sum / float64(len(items))
}

// Summary returns overall means, cost and latency roll-ups, and the
// best and worst combinations.
func (s *AnalysisService) Summary(experimentID uint) (*dto.AnalysisSummary, error) {
	gens, joined, err := s.load(experimentID)
	if err != nil {
		return nil, err
	}

	summary := &dto.AnalysisSummary{
		EvaluationCount: len(joined),
		GenerationCount: len(gens),
	}

	for _, g := range gens {
		summary.TotalCostUSD += g.CostUSD
		summary.TotalLatencyMS += g.LatencyMS
	}

	if len(joined) == 0 {
		summary.InsufficientData = true
		return summary, nil
	}

	summary.Means = meanScores(joined)
	summary.Best, summary.Worst = s.bestWorst(joined)
	return summary, nil
}

// groupBy aggregates scored items under a key function, reporting groups
// that exist in the generations but have no evaluations as insufficient
// data rather than a numeric zero.
func groupBy(gens []models.Generation, joined []scored, key func(*models.Generation) string) []dto.GroupStat {
	groups := make(map[string][]scored)
	providers := make(map[string]string)
	for _, g := range gens {
		k := key(&g)
		if _, ok := groups[k]; !ok {
			groups[k] = nil
			providers[k] = g.Provider
		}
	}
	for _, it := range joined {
		k := key(&it.gen)
		groups[k] = append(groups[k], it)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stats := make([]dto.GroupStat, 0, len(keys))
	for _, k := range keys {
		items := groups[k]
		stat := dto.GroupStat{Key: k, Provider: providers[k], Count: len(items)}
		if len(items) == 0 {
			stat.InsufficientData = true
		} else {
			stat.Means = meanScores(items)
			edit := meanEditTime(items)
			stat.MeanEditTime = &edit
		}
		stats = append(stats, stat)
	}
	return stats
}

// ByModel groups by model name.
func (s *AnalysisService) ByModel(experimentID uint) ([]dto.GroupStat, error) {
	gens, joined, err := s.load(experimentID)
	if err != nil {
		return nil, err
	}
	return groupBy(gens, joined, func(g *models.Generation) string { return g.ModelName }), nil
}

// ByStrategy groups by prompting strategy.
func (s *AnalysisService) ByStrategy(experimentID uint) ([]dto.GroupStat, error) {
	gens, joined, err := s.load(experimentID)
	if err != nil {
		return nil, err
	}
	stats := groupBy(gens, joined, func(g *models.Generation) string { return g.Strategy })
	for i := range stats {
		stats[i].Provider = ""
	}
	return stats, nil
}

// ByTask groups by task id.
func (s *AnalysisService) ByTask(experimentID uint) ([]dto.GroupStat, error) {
	gens, joined, err := s.load(experimentID)
	if err != nil {
		return nil, err
	}
	stats := groupBy(gens, joined, func(g *models.Generation) string { return g.TaskID })
	for i := range stats {
		stats[i].Provider = ""
	}
	return stats, nil
}

// bestWorst picks the combinations with the highest and lowest mean
// overall quality. Ties break toward lower mean edit time, then the
// earliest evaluation timestamp.
func (s *AnalysisService) bestWorst(joined []scored) (*dto.CombinationStat, *dto.CombinationStat) {
	type comboAgg struct {
		stat     dto.CombinationStat
		earliest time.Time
	}

	combos := make(map[string]*comboAgg)
	var order []string
	for _, it := range joined {
		k := it.gen.Provider + "\x00" + it.gen.Strategy + "\x00" + it.gen.TaskID
		agg, ok := combos[k]
		if !ok {
			agg = &comboAgg{
				stat: dto.CombinationStat{
					Provider: it.gen.Provider,
					Strategy: it.gen.Strategy,
					TaskID:   it.gen.TaskID,
				},
				earliest: it.eval.EvaluatedAt,
			}
			combos[k] = agg
			order = append(order, k)
		}
		agg.stat.Count++
		agg.stat.MeanOverall += float64(it.eval.OverallQuality)
		agg.stat.MeanEditTime += float64(it.eval.EditTimeMinutes)
		if it.eval.EvaluatedAt.Before(agg.earliest) {
			agg.earliest = it.eval.EvaluatedAt
		}
	}
	if len(combos) == 0 {
		return nil, nil
	}

	for _, agg := range combos {
		n := float64(agg.stat.Count)
		agg.stat.MeanOverall /= n
		agg.stat.MeanEditTime /= n
	}

	// better reports whether a beats b for "best".
	better := func(a, b *comboAgg) bool {
		if a.stat.MeanOverall != b.stat.MeanOverall {
			return a.stat.MeanOverall > b.stat.MeanOverall
		}
		if a.stat.MeanEditTime != b.stat.MeanEditTime {
			return a.stat.MeanEditTime < b.stat.MeanEditTime
		}
		return a.earliest.Before(b.earliest)
	}
	// worse prefers the lowest quality, breaking ties the same way.
	worse := func(a, b *comboAgg) bool {
		if a.stat.MeanOverall != b.stat.MeanOverall {
			return a.stat.MeanOverall < b.stat.MeanOverall
		}
		if a.stat.MeanEditTime != b.stat.MeanEditTime {
			return a.stat.MeanEditTime < b.stat.MeanEditTime
		}
		return a.earliest.Before(b.earliest)
	}

	best := combos[order[0]]
	worst := combos[order[0]]
	for _, k := range order[1:] {
		if better(combos[k], best) {
			best = combos[k]
		}
		if worse(combos[k], worst) {
			worst = combos[k]
		}
	}

	bestCopy := best.stat
	worstCopy := worst.stat
	return &bestCopy, &worstCopy
}

// ExportRows returns a CSV header and one row per generation, joined to
// its evaluation when present.
func (s *AnalysisService) ExportRows(experimentID uint) ([]string, [][]string, error) {
	gens, joined, err := s.load(experimentID)
	if err != nil {
		return nil, nil, err
	}

	evalByGen := make(map[uint]models.Evaluation, len(joined))
	for _, it := range joined {
		evalByGen[it.gen.ID] = it.eval
	}

	header := []string{
		"generation_id", "task_id", "provider", "model", "strategy", "status",
		"prompt_tokens", "completion_tokens", "latency_ms", "cost_usd",
		"voice_match", "coherence", "engaging", "meets_brief", "overall_quality",
		"edit_time_minutes", "would_publish",
	}

	rows := make([][]string, 0, len(gens))
	for _, g := range gens {
		row := []string{
			strconv.FormatUint(uint64(g.ID), 10),
			g.TaskID,
			g.Provider,
			g.ModelName,
			g.Strategy,
			g.Status,
			strconv.Itoa(g.PromptTokens),
			strconv.Itoa(g.CompletionTokens),
			strconv.FormatFloat(g.LatencyMS, 'f', 2, 64),
			strconv.FormatFloat(g.CostUSD, 'f', 6, 64),
		}
		if ev, ok := evalByGen[g.ID]; ok {
			row = append(row,
				strconv.Itoa(ev.VoiceMatch),
				strconv.Itoa(ev.Coherence),
				strconv.Itoa(ev.Engaging),
				strconv.Itoa(ev.MeetsBrief),
				strconv.Itoa(ev.OverallQuality),
				strconv.Itoa(ev.EditTimeMinutes),
				ev.WouldPublish,
			)
		} else {
			row = append(row, "", "", "", "", "", "", "")
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}
