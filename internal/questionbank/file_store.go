package questionbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"resume-insight/internal/logger"
	"resume-insight/internal/types"
)

// bankFile 题库文件格式，JSON 与 YAML 共用
type bankFile struct {
	Skill     string                 `json:"skill" yaml:"skill"`
	Questions []types.QuestionRecord `json:"questions" yaml:"questions"`
}

// FileStore 从目录读取题库文件，每个文件一个题库，存储键为不含扩展名的文件名
// 每次 LoadBanks 都重新读取目录。
type FileStore struct {
	dir string
}

// NewFileStore 创建目录题库
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir 题库目录
func (s *FileStore) Dir() string {
	return s.dir
}

func isBankFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadBanks 按文件名顺序读取全部题库
// 目录不存在时返回空列表；无法解析或没有题目的文件被跳过。
func (s *FileStore) LoadBanks(ctx context.Context) ([]types.BankRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []types.BankRecord{}, nil
		}
		return nil, fmt.Errorf("读取题库目录 %s 失败: %w", s.dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	banks := make([]types.BankRecord, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !isBankFile(entry.Name()) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		bank, err := ReadBankFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("跳过无法解析的题库文件")
			continue
		}
		if len(bank.Questions) == 0 {
			logger.Debug().Str("file", path).Msg("跳过没有题目的题库文件")
			continue
		}
		banks = append(banks, bank)
	}
	return banks, nil
}

// ReadBankFile 解析单个题库文件，skill 为空时使用文件名
func ReadBankFile(path string) (types.BankRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.BankRecord{}, err
	}
	var f bankFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return types.BankRecord{}, fmt.Errorf("解析题库文件失败: %w", err)
	}

	key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	skill := strings.TrimSpace(f.Skill)
	if skill == "" {
		skill = key
	}
	return types.BankRecord{Key: key, Skill: skill, Questions: f.Questions}, nil
}

// UpsertBank 以 JSON 写入 <key>.json，先写临时文件再重命名
func (s *FileStore) UpsertBank(ctx context.Context, bank types.BankRecord) error {
	if err := ValidateBank(bank); err != nil {
		return err
	}
	if strings.ContainsAny(bank.Key, `/\`) || bank.Key == "." || bank.Key == ".." {
		return errors.Join(ErrInvalidBank, fmt.Errorf("illegal key %q", bank.Key))
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("创建题库目录失败: %w", err)
	}

	data, err := json.MarshalIndent(bankFile{Skill: bank.Skill, Questions: bank.Questions}, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+bank.Key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("写入题库失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	target := filepath.Join(s.dir, bank.Key+".json")
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("保存题库失败: %w", err)
	}
	// 同名的 YAML 文件会与新写入的 JSON 冲突，删掉旧文件
	for _, ext := range []string{".yaml", ".yml"} {
		_ = os.Remove(filepath.Join(s.dir, bank.Key+ext))
	}
	logger.Info().Str("key", bank.Key).Int("questions", len(bank.Questions)).Msg("题库已写入文件")
	return nil
}
