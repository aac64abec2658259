// bankimport 把题库目录中的 JSON/YAML 题库导入 MySQL
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"resume-insight/internal/config"
	"resume-insight/internal/logger"
	"resume-insight/internal/questionbank"
	"resume-insight/internal/storage"
)

func main() {
	var (
		configPath string
		dir        string
		dryRun     bool
	)
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.StringVarP(&dir, "dir", "d", "", "Question bank directory (default: question_bank.dir)")
	pflag.BoolVar(&dryRun, "dry-run", false, "Validate banks without writing")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
		Output:     os.Stderr,
	})
	if dir == "" {
		dir = cfg.QuestionBank.Dir
	}

	if err := run(context.Background(), cfg, dir, dryRun); err != nil {
		logger.Fatal().Err(err).Msg("导入失败")
	}
}

func run(ctx context.Context, cfg *config.Config, dir string, dryRun bool) error {
	banks, err := questionbank.NewFileStore(dir).LoadBanks(ctx)
	if err != nil {
		return fmt.Errorf("读取题库目录失败: %w", err)
	}
	if len(banks) == 0 {
		return fmt.Errorf("目录 %s 中没有题库文件", dir)
	}
	for _, bank := range banks {
		if err := questionbank.ValidateBank(bank); err != nil {
			return fmt.Errorf("题库 %s 校验失败: %w", bank.Key, err)
		}
	}
	if dryRun {
		logger.Info().Int("banks", len(banks)).Str("dir", dir).Msg("校验通过，未写入")
		return nil
	}

	mysql, err := storage.NewMySQL(&cfg.MySQL)
	if err != nil {
		return fmt.Errorf("连接MySQL失败: %w", err)
	}
	defer mysql.Close()

	// 写入后清掉服务端共享的题库快照
	var opts []questionbank.CachedStoreOption
	if cfg.Redis.Enabled {
		redis, err := storage.NewRedisAdapter(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("连接Redis失败，跳过缓存失效")
		} else {
			defer redis.Close()
			opts = append(opts, questionbank.WithSnapshotCache(redis))
		}
	}
	store := questionbank.NewCachedStore(questionbank.NewGormStore(mysql.DB()), cfg.BankCacheTTL(), opts...)

	for _, bank := range banks {
		if err := store.UpsertBank(ctx, bank); err != nil {
			return fmt.Errorf("导入题库 %s 失败: %w", bank.Key, err)
		}
		logger.Info().Str("key", bank.Key).Str("skill", bank.Skill).Int("questions", len(bank.Questions)).Msg("题库已导入")
	}
	logger.Info().Int("banks", len(banks)).Msg("导入完成")
	return nil
}
