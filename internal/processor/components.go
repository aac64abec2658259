package processor

import (
	"fmt"
	"strings"

	"resume-insight/internal/analyzer"
	"resume-insight/internal/config"
	"resume-insight/internal/logger"
	"resume-insight/internal/metrics"
	"resume-insight/internal/questionbank"
	"resume-insight/internal/skillverify"
	"resume-insight/internal/storage"
)

// BuildAnalyzer 按配置创建分析器，未配置（<=0）的评分参数使用默认值
func BuildAnalyzer(cfg config.AnalyzerConfig) *analyzer.Analyzer {
	score := analyzer.DefaultScoreConfig()
	override := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	override(&score.ShortThreshold, cfg.ShortThreshold)
	override(&score.MediumThreshold, cfg.MediumThreshold)
	override(&score.PointsPerSkill, cfg.PointsPerSkill)
	override(&score.PenaltyPerVulnerability, cfg.PenaltyPerVulnerability)
	override(&score.MaxPenalty, cfg.MaxPenalty)

	opts := analyzer.Options{
		Score: score,
		Gaps:  analyzer.NewGapDetector(cfg.MinYear, cfg.MaxYear, cfg.MaxAllowedGap),
		Rules: analyzer.NewRuleEngine(cfg.NearEmptyChars, cfg.MinSkills),
	}
	if len(cfg.SkillVocabulary) > 0 {
		opts.Skills = analyzer.TermsFromPatterns(cfg.SkillVocabulary)
	}
	return analyzer.New(opts)
}

// BuildBankStore 按 question_bank.source 选择底层存储，再包一层快照缓存
// Redis 可用时快照放在 Redis，多个实例共享。
func BuildBankStore(cfg *config.Config, st *storage.Storage, m *metrics.Metrics) (*questionbank.CachedStore, error) {
	var inner questionbank.Store
	switch strings.ToLower(strings.TrimSpace(cfg.QuestionBank.Source)) {
	case "", "dir":
		inner = questionbank.NewFileStore(cfg.QuestionBank.Dir)
	case "mysql":
		if st == nil || st.MySQL == nil {
			return nil, fmt.Errorf("question_bank.source=mysql 需要启用并连接 MySQL")
		}
		inner = questionbank.NewGormStore(st.MySQL.DB())
	default:
		return nil, fmt.Errorf("未知的 question_bank.source: %q", cfg.QuestionBank.Source)
	}

	opts := []questionbank.CachedStoreOption{questionbank.WithMetrics(m)}
	if st != nil && st.Redis != nil {
		opts = append(opts, questionbank.WithSnapshotCache(st.Redis))
	}
	ttl := cfg.BankCacheTTL()
	logger.Info().Str("source", cfg.QuestionBank.Source).Dur("cache_ttl", ttl).Msg("题库存储已初始化")
	return questionbank.NewCachedStore(inner, ttl, opts...), nil
}

// BuildResolver 创建题库解析器，配置了别名时替换默认别名表
func BuildResolver(store questionbank.Store, aliases []config.AliasConfig) *skillverify.Resolver {
	var table []skillverify.Alias
	for _, a := range aliases {
		table = append(table, skillverify.Alias{From: a.From, To: a.To})
	}
	return skillverify.NewResolver(store, table)
}
