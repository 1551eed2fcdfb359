// 文件路径: internal/repository/errors.go
// 模块说明: 这是 internal 模块里的 errors 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package repository

import "errors"

var (
	// ErrNotFound 表示查询未返回数据。
	ErrNotFound = errors.New("not found / 未找到数据")
	// ErrCorruptValue 表示存储中的值无法按预期结构解析。
	ErrCorruptValue = errors.New("corrupt stored value / 存储值无法解析")
	// ErrNotList 表示写入的旧版订单数据不是 JSON 数组。
	ErrNotList = errors.New("value is not a JSON array / 值不是 JSON 数组")
)
