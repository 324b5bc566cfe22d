package service

import (
	"context"
	"strings"

	"ConcertSync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// ResolvedArtist 解析命中的艺人
type ResolvedArtist struct {
	ID       uint64 `json:"-"`         // 内部主键（演出检索用）
	UUID     string `json:"id"`        // 对外ID
	Name     string `json:"name"`      // 库内名称
	Source   string `json:"source"`    // 来源票务源
	SourceID string `json:"source_id"` // 平台原生ID
}

// ArtistResolver 自由文本艺人名→目录艺人ID的解析器（精确匹配+别名匹配）
type ArtistResolver struct {
	repo   interfaces.ConcertRepository
	logger *logrus.Logger
}

func NewArtistResolver(repo interfaces.ConcertRepository, logger *logrus.Logger) *ArtistResolver {
	return &ArtistResolver{repo: repo, logger: logger}
}

// ResolveArtistNames 解析一批艺人名。匹配规则：
//  1. 名称大小写不敏感精确匹配
//  2. 别名集合包含匹配
//
// 两路结果合并后按艺人ID去重（精确匹配先处理，首见者保留，不做字段合并）。
// 无命中是正常结果（返回空列表），不是错误
func (r *ArtistResolver) ResolveArtistNames(ctx context.Context, names []string) ([]*ResolvedArtist, error) {
	if len(names) == 0 {
		return []*ResolvedArtist{}, nil
	}

	// 归一化：lower+trim，空项丢弃
	normalized := make([]string, 0, len(names))
	for _, name := range names {
		if n := strings.ToLower(strings.TrimSpace(name)); n != "" {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return []*ResolvedArtist{}, nil
	}

	exactMatches, err := r.repo.FindAttractionsByNames(ctx, normalized)
	if err != nil {
		return nil, err
	}
	aliasMatches, err := r.repo.FindAttractionsByAliases(ctx, normalized)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint64]bool)
	var resolved []*ResolvedArtist
	for _, a := range append(exactMatches, aliasMatches...) {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		resolved = append(resolved, &ResolvedArtist{
			ID:       a.ID,
			UUID:     a.AttractionUUID,
			Name:     a.Name,
			Source:   a.Source,
			SourceID: a.SourceID,
		})
	}

	r.logger.WithFields(logrus.Fields{
		"queried": len(normalized),
		"matched": len(resolved),
	}).Debug("艺人名解析完成")

	if resolved == nil {
		resolved = []*ResolvedArtist{}
	}
	return resolved, nil
}
