// 文件路径: internal/service/errors.go
// 模块说明: 这是 internal 模块里的 errors 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import "errors"

var (
	// ErrNotFound indicates requested resource does not exist.
	ErrNotFound = errors.New("service: not found / 未找到资源")
	// ErrUnmappedStatus indicates a status key outside preparing/ready/onTheWay/delivered.
	ErrUnmappedStatus = errors.New("service: unmapped status key / 未知的订单状态")
	// ErrOrderIDRequired indicates an empty order id where one is mandatory.
	ErrOrderIDRequired = errors.New("service: order id required / 需要订单号")
)
