// 文件路径: internal/migrations/embed.go
// 模块说明: 这是 internal 模块里的 embed 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package migrations

import "embed"

// Files embeds the migration files of every supported dialect, one directory each.
//
//go:embed sqlite/*.sql postgres/*.sql
var Files embed.FS
