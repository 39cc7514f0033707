package repository

import (
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// searchLikeClause 构建大小写不敏感的模糊匹配条件，兼容 sqlite 与 postgres。
// sqlite 的 LIKE 对 ASCII 默认不区分大小写，postgres 需要 ILIKE。
func searchLikeClause(db *gorm.DB, columns ...string) string {
	return searchLikeClauseByDialect(dbDialectName(db), columns...)
}

func searchLikeClauseByDialect(dialect string, columns ...string) string {
	operator := "LIKE"
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		operator = "ILIKE"
	}
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		column = strings.TrimSpace(column)
		if column == "" {
			continue
		}
		parts = append(parts, column+" "+operator+" ?")
	}
	return strings.Join(parts, " OR ")
}
