package model

import (
	"errors"
	"fmt"
)

// TransientFetchError 瞬时抓取失败（网络错误/5xx/限流），允许有限次重试，重试耗尽后跳过该页
type TransientFetchError struct {
	Source SourceType // 来源票务源
	URL    string     // 请求地址
	Err    error      // 底层错误
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("%s瞬时抓取失败: %s: %v", e.Source, e.URL, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// NormalizationError 原始记录不完整/畸形（如缺少场馆），跳过不重试
type NormalizationError struct {
	Source   SourceType // 来源票务源
	SourceID string     // 平台原生ID
	Reason   string     // 跳过原因
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("%s记录%s无法归一化: %s", e.Source, e.SourceID, e.Reason)
}

// PersistenceError 存储层不可用/写入失败，本地不可恢复，中止当前(source,country)对
type PersistenceError struct {
	Op  string // 失败的操作
	Err error  // 底层错误
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("存储操作%s失败: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConfigurationError 配置非法，必须在启动期失败
type ConfigurationError struct {
	Field  string // 配置项
	Reason string // 非法原因
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("配置项%s非法: %s", e.Field, e.Reason)
}

// IsTransientFetch 判断是否为可重试的抓取错误
func IsTransientFetch(err error) bool {
	var t *TransientFetchError
	return errors.As(err, &t)
}

// IsNormalization 判断是否为归一化错误
func IsNormalization(err error) bool {
	var n *NormalizationError
	return errors.As(err, &n)
}

// IsPersistence 判断是否为存储层错误
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}
