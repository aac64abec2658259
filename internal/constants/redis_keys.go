package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// BankModulePrefix 题库模块
	BankModulePrefix = "bank"
	// AnalysisModulePrefix 简历分析模块
	AnalysisModulePrefix = "analysis"

	// EntitySnapshot 快照实体
	EntitySnapshot = "snapshot"
	// EntityMD5 按文件MD5索引的实体
	EntityMD5 = "md5"

	// KeyBankSnapshot 全部题库的 JSON 快照 (STRING)
	// 格式: app:bank:snapshot
	KeyBankSnapshot = AppPrefix + ":" + BankModulePrefix + ":" + EntitySnapshot

	// KeyAnalysisByMD5 文件MD5到分析结果的缓存 (STRING)
	// 格式: app:analysis:md5:{md5}
	KeyAnalysisByMD5 = AppPrefix + ":" + AnalysisModulePrefix + ":" + EntityMD5 + ":%s"
)
