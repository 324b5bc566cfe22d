package adapter

import (
	"fmt"

	"ConcertSync/internal/config"
	"ConcertSync/internal/interfaces"
	"ConcertSync/internal/model"

	"github.com/sirupsen/logrus"
)

// Factory 票务源适配器工厂函数签名
// 入参：票务源配置、日志实例
// 出参：实现FeedIngestor接口的适配器实例
type Factory func(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.FeedIngestor

// ========== 全局工厂函数注册表 ==========
var factoryRegistry = make(map[model.SourceType]Factory)

// Register 供适配器init函数调用，注册工厂函数。新增票务源只需新增一个适配器+一条注册
func Register(source model.SourceType, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("票务源%s的工厂函数不能为nil", source))
	}
	if _, exists := factoryRegistry[source]; exists {
		logrus.Warnf("票务源%s的适配器已注册，将覆盖原有实现", source)
	}
	factoryRegistry[source] = factory
}

// GetFactory 获取指定票务源的工厂函数
func GetFactory(source model.SourceType) (Factory, bool) {
	factory, ok := factoryRegistry[source]
	return factory, ok
}

// SourceRegistry 票务源类型→适配器实例的注册表
type SourceRegistry struct {
	cfg       *config.Config
	logger    *logrus.Logger
	ingestors map[model.SourceType]interfaces.FeedIngestor
}

// NewSourceRegistry 按配置中启用的票务源，从工厂函数注册表创建适配器实例
func NewSourceRegistry(cfg *config.Config, logger *logrus.Logger) *SourceRegistry {
	r := &SourceRegistry{
		cfg:       cfg,
		logger:    logger,
		ingestors: make(map[model.SourceType]interfaces.FeedIngestor),
	}

	for _, name := range cfg.Sync.EnabledSources {
		source := model.SourceType(name)

		factory, ok := GetFactory(source)
		if !ok {
			r.logger.WithField("source", source).Error("未找到对应的工厂函数（init未注册？）")
			continue
		}
		srcCfg, ok := cfg.Sources[name]
		if !ok {
			r.logger.WithField("source", source).Error("未获取到票务源配置")
			continue
		}

		ingestor := factory(&srcCfg, r.logger)
		if ingestor == nil {
			r.logger.WithField("source", source).Error("工厂函数返回nil适配器实例")
			continue
		}
		if ingestor.GetSource() != source {
			r.logger.WithFields(logrus.Fields{
				"config_source":  source,
				"adapter_source": ingestor.GetSource(),
			}).Error("适配器票务源类型与配置不匹配")
			continue
		}

		r.ingestors[source] = ingestor
		r.logger.WithField("source", source).Info("票务源适配器初始化成功")
	}

	return r
}

// ListSources 获取所有已初始化的票务源类型列表
func (r *SourceRegistry) ListSources() []model.SourceType {
	var sources []model.SourceType
	for s := range r.ingestors {
		sources = append(sources, s)
	}
	return sources
}

// GetIngestor 获取适配器实例
func (r *SourceRegistry) GetIngestor(source model.SourceType) (interfaces.FeedIngestor, error) {
	ingestor, ok := r.ingestors[source]
	if !ok {
		return nil, fmt.Errorf("票务源%s未初始化适配器实例", source)
	}
	return ingestor, nil
}

// All 按注册顺序无关地返回所有适配器实例（供全量同步遍历）
func (r *SourceRegistry) All() []interfaces.FeedIngestor {
	out := make([]interfaces.FeedIngestor, 0, len(r.ingestors))
	for _, ing := range r.ingestors {
		out = append(out, ing)
	}
	return out
}
